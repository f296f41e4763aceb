package compiler

import (
	"github.com/sarchlab/pulsegen/device"
)

// CycleID indexes a phase cycle in the compiler's cycle arena.
type CycleID int

// NoCycle marks a pulse without a phase cycle.
const NoCycle CycleID = -1

// PhaseCycle is a sequence of phase types, one per acquisition stage.
type PhaseCycle struct {
	Num       int
	Sequence  []device.PhaseType
	Synthetic bool
}

// PhaseAt returns the phase type used in a stage.
func (c *PhaseCycle) PhaseAt(stage int) device.PhaseType {
	return c.Sequence[stage%len(c.Sequence)]
}

// plusXCycle returns the cycle given to pulses of phase-cycled functions that
// have none of their own. It is created once and shared.
func (c *Compiler) plusXCycle() CycleID {
	if c.plusX != NoCycle {
		return c.plusX
	}

	c.cycles = append(c.cycles, PhaseCycle{
		Num:       -1,
		Sequence:  []device.PhaseType{device.PlusX},
		Synthetic: true,
	})
	c.plusX = CycleID(len(c.cycles) - 1)

	return c.plusX
}

// countStages returns the number of stages after which all phase cycles
// repeat together.
func (c *Compiler) countStages() int {
	n := 1

	for _, cycle := range c.cycles {
		n = lcm(n, len(cycle.Sequence))
	}

	return n
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}

	return a
}

func lcm(a, b int) int {
	return a / gcd(a, b) * b
}
