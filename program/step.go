package program

import (
	"github.com/pkg/errors"
	"github.com/sarchlab/pulsegen/device"
)

// Op names what a step does before the pulser is updated.
type Op string

// The step operations.
const (
	OpUpdate            Op = "update"
	OpSetPosition       Op = "set_position"
	OpSetLength         Op = "set_length"
	OpSetPositionChange Op = "set_position_change"
	OpSetLengthChange   Op = "set_length_change"
	OpShift             Op = "shift"
	OpIncrement         Op = "increment"
	OpReset             Op = "reset"
	OpNextPhase         Op = "next_phase"
	OpResetPhase        Op = "reset_phase"
)

func (o Op) takesValue() bool {
	switch o {
	case OpSetPosition, OpSetLength, OpSetPositionChange, OpSetLengthChange:
		return true
	}

	return false
}

func (o Op) known() bool {
	switch o {
	case OpUpdate, OpShift, OpIncrement, OpReset, OpNextPhase, OpResetPhase:
		return true
	}

	return o.takesValue()
}

// Step changes some pulses or phases and then updates the pulser. A step
// with a repeat count runs that many times.
type Step struct {
	Op        Op       `toml:"op"`
	Pulses    []int    `toml:"pulses"`
	Functions []string `toml:"functions"`
	Value     *Seconds `toml:"value"`
	Repeat    int      `toml:"repeat"`
}

func (s *Step) check() error {
	if !s.Op.known() {
		return errors.Errorf("unknown operation %q", s.Op)
	}

	if s.Op.takesValue() {
		if s.Value == nil {
			return errors.Errorf("%s needs a value", s.Op)
		}

		if len(s.Pulses) == 0 {
			return errors.Errorf("%s needs pulses", s.Op)
		}
	}

	if s.Repeat < 0 {
		return errors.Errorf("negative repeat count %d", s.Repeat)
	}

	for _, name := range s.Functions {
		if _, err := device.ParseFunction(name); err != nil {
			return err
		}
	}

	return nil
}

// Times returns how often the step runs.
func (s *Step) Times() int {
	if s.Repeat == 0 {
		return 1
	}

	return s.Repeat
}

func (s *Step) functions() []device.Function {
	fs := make([]device.Function, 0, len(s.Functions))

	for _, name := range s.Functions {
		f, _ := device.ParseFunction(name)
		fs = append(fs, f)
	}

	return fs
}
