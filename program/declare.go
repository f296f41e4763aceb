package program

import (
	"github.com/pkg/errors"
	"github.com/sarchlab/pulsegen/compiler"
	"github.com/sarchlab/pulsegen/device"
)

// NewCompiler builds a compiler for the device of the program.
func (p *Program) NewCompiler() *compiler.Compiler {
	return compiler.MakeBuilder().
		WithLimits(p.Limits()).
		Build()
}

// Declare passes the declarations of the program to a compiler in setup
// mode.
func (p *Program) Declare(c *compiler.Compiler) error {
	if err := c.SetTimeBase(float64(p.Timing.TimeBase)); err != nil {
		return errors.Wrap(err, "timing")
	}

	for i := range p.Functions {
		if err := declareFunction(c, &p.Functions[i]); err != nil {
			return errors.Wrapf(err, "function %s", p.Functions[i].Name)
		}
	}

	if p.Timing.RepeatPeriod != nil {
		err := c.SetRepeatPeriod(float64(*p.Timing.RepeatPeriod))
		if err != nil {
			return errors.Wrap(err, "timing")
		}
	}

	if p.Defense != nil {
		err := c.SetDefenseDistances(
			float64(p.Defense.GateToDefense),
			float64(p.Defense.DefenseToGate))
		if err != nil {
			return errors.Wrap(err, "defense")
		}
	}

	for _, cycle := range p.PhaseCycles {
		seq := make([]device.PhaseType, 0, len(cycle.Sequence))
		for _, name := range cycle.Sequence {
			t, _ := device.ParsePhaseType(name)
			seq = append(seq, t)
		}

		if err := c.DefinePhaseCycle(cycle.Num, seq); err != nil {
			return errors.Wrapf(err, "phase cycle %d", cycle.Num)
		}
	}

	for i := range p.Pulses {
		if err := declarePulse(c, &p.Pulses[i]); err != nil {
			return errors.Wrapf(err, "pulse #%d", p.Pulses[i].Num)
		}
	}

	return nil
}

func declareFunction(c *compiler.Compiler, fc *FunctionConfig) error {
	f, err := device.ParseFunction(fc.Name)
	if err != nil {
		return err
	}

	for _, pod := range fc.Pods {
		if err := c.AssignPod(f, device.Pod(pod)); err != nil {
			return err
		}
	}

	for _, pp := range fc.sortedPhasePods() {
		if err := c.SetPhasePod(f, pp.phase, pp.pod); err != nil {
			return err
		}
	}

	if fc.Delay != nil {
		if err := c.SetFunctionDelay(f, float64(*fc.Delay)); err != nil {
			return err
		}
	}

	if fc.Inverted {
		if err := c.SetFunctionInverted(f, true); err != nil {
			return err
		}
	}

	if fc.High != nil {
		if err := c.SetFunctionLevels(f, *fc.High, *fc.Low); err != nil {
			return err
		}
	}

	return nil
}

func declarePulse(c *compiler.Compiler, pc *PulseConfig) error {
	f, err := device.ParseFunction(pc.Function)
	if err != nil {
		return err
	}

	if err := c.DeclarePulse(pc.Num); err != nil {
		return err
	}

	if err := c.SetPulseFunction(pc.Num, f); err != nil {
		return err
	}

	setters := []struct {
		value *Seconds
		set   func(num int, seconds float64) error
	}{
		{pc.Position, c.SetPulsePosition},
		{pc.Length, c.SetPulseLength},
		{pc.PositionChange, c.SetPulsePositionChange},
		{pc.LengthChange, c.SetPulseLengthChange},
	}

	for _, s := range setters {
		if s.value == nil {
			continue
		}

		if err := s.set(pc.Num, float64(*s.value)); err != nil {
			return err
		}
	}

	if pc.PhaseCycle != nil {
		if err := c.SetPulsePhaseCycle(pc.Num, *pc.PhaseCycle); err != nil {
			return err
		}
	}

	return nil
}
