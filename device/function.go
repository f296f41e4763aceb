package device

import (
	"fmt"
	"log"
	"strings"
)

// Function is a logical output role of the pattern generator.
type Function int

// The functions a pattern generator can serve.
const (
	Microwave Function = iota
	Bias
	TWT
	TWTGate
	Detection
	DetectionGate
	Defense
	RF
	RFGate
	PulseShape
	Phase1
	Phase2
	Other1
	Other2
	Other3
	Other4

	NumFunctions int = iota
)

// NoFunction marks a pulse whose function is not set.
const NoFunction Function = -1

var functionNames = [NumFunctions]string{
	"MICROWAVE",
	"BIAS",
	"TWT",
	"TWT_GATE",
	"DETECTION",
	"DETECTION_GATE",
	"DEFENSE",
	"RF",
	"RF_GATE",
	"PULSE_SHAPE",
	"PHASE_1",
	"PHASE_2",
	"OTHER_1",
	"OTHER_2",
	"OTHER_3",
	"OTHER_4",
}

var functionAliases = map[string]Function{
	"MW":       Microwave,
	"TWTGATE":  TWTGate,
	"DET":      Detection,
	"DET_GATE": DetectionGate,
	"SHAPE":    PulseShape,
	"PHASE1":   Phase1,
	"PHASE2":   Phase2,
	"RFGATE":   RFGate,
}

// Valid tells if f is one of the known functions.
func (f Function) Valid() bool {
	return f >= 0 && int(f) < NumFunctions
}

func (f Function) String() string {
	if f == NoFunction {
		return "NONE"
	}

	if !f.Valid() {
		log.Panicf("invalid function %d", int(f))
	}

	return functionNames[f]
}

// Functions lists all functions in order.
func Functions() []Function {
	fs := make([]Function, NumFunctions)
	for i := range fs {
		fs[i] = Function(i)
	}

	return fs
}

// ParseFunction finds a function by name. Names are case-insensitive and
// dashes, spaces and underscores are interchangeable.
func ParseFunction(name string) (Function, error) {
	key := strings.ToUpper(strings.TrimSpace(name))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)

	for i, n := range functionNames {
		if n == key {
			return Function(i), nil
		}
	}

	if f, ok := functionAliases[key]; ok {
		return f, nil
	}

	return NoFunction, fmt.Errorf("unknown function %q", name)
}
