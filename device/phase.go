package device

import (
	"fmt"
	"log"
	"strings"
)

// PhaseType is one of the phases a phase-cycled function can output.
type PhaseType int

// The supported phase types.
const (
	PlusX PhaseType = iota
	MinusX
	PlusY
	MinusY
	CW

	NumPhaseTypes int = iota
)

var phaseNames = [NumPhaseTypes]string{"+X", "-X", "+Y", "-Y", "CW"}

// Valid tells if p is a supported phase type.
func (p PhaseType) Valid() bool {
	return p >= 0 && int(p) < NumPhaseTypes
}

func (p PhaseType) String() string {
	if !p.Valid() {
		log.Panicf("invalid phase type %d", int(p))
	}

	return phaseNames[p]
}

// ParsePhaseType finds a phase type by name. "X" and "Y" stand for "+X" and
// "+Y".
func ParsePhaseType(name string) (PhaseType, error) {
	key := strings.ToUpper(strings.TrimSpace(name))

	switch key {
	case "+X", "X":
		return PlusX, nil
	case "-X":
		return MinusX, nil
	case "+Y", "Y":
		return PlusY, nil
	case "-Y":
		return MinusY, nil
	case "CW":
		return CW, nil
	}

	return -1, fmt.Errorf("unknown phase type %q", name)
}
