package compiler

import (
	"fmt"

	"github.com/sarchlab/pulsegen/device"
	"github.com/sarchlab/pulsegen/timebase"
	"github.com/sarchlab/pulsegen/wire"
)

func (c *Compiler) editablePulse(op string, num int) (*Pulse, *Error) {
	if e := c.requireMode(op, ModeSetup, ModeTest, ModeReal); e != nil {
		return nil, e
	}

	return c.pulse(num)
}

// SetPulsePosition sets the start of a pulse. In a real run the change
// reaches the device with the next Update.
func (c *Compiler) SetPulsePosition(num int, seconds float64) error {
	p, e := c.editablePulse("setting positions", num)
	if e != nil {
		return e
	}

	pos, e := c.toTicks(seconds)
	if e != nil {
		return e.forPulse(p)
	}

	if pos < 0 {
		return newError(ErrNegativePosition, "%s", c.format(pos)).forPulse(p)
	}

	p.Pos = pos
	p.PosSet = true

	return nil
}

// SetPulseLength sets the length of a pulse. A zero length switches the
// pulse off.
func (c *Compiler) SetPulseLength(num int, seconds float64) error {
	p, e := c.editablePulse("setting lengths", num)
	if e != nil {
		return e
	}

	length, e := c.toTicks(seconds)
	if e != nil {
		return e.forPulse(p)
	}

	p.Len = length
	p.LenSet = true

	return nil
}

// SetPulsePositionChange sets the amount ShiftPulses moves a pulse by.
func (c *Compiler) SetPulsePositionChange(num int, seconds float64) error {
	p, e := c.editablePulse("setting position changes", num)
	if e != nil {
		return e
	}

	d, e := c.toTicks(seconds)
	if e != nil {
		return e.forPulse(p)
	}

	p.DPos = d
	p.DPosSet = true

	return nil
}

// SetPulseLengthChange sets the amount IncrementPulseLengths grows a pulse
// by.
func (c *Compiler) SetPulseLengthChange(num int, seconds float64) error {
	p, e := c.editablePulse("setting length changes", num)
	if e != nil {
		return e
	}

	d, e := c.toTicks(seconds)
	if e != nil {
		return e.forPulse(p)
	}

	p.DLen = d
	p.DLenSet = true

	return nil
}

func (c *Compiler) pulseTime(
	num int,
	get func(p *Pulse) (timebase.Ticks, bool),
	what string,
) (float64, error) {
	p, e := c.pulse(num)
	if e != nil {
		return 0, e
	}

	t, ok := get(p)
	if !ok {
		return 0, newError(ErrValueNotSet, "%s", what).forPulse(p)
	}

	return c.toSeconds(t), nil
}

// PulsePosition returns the start of a pulse.
func (c *Compiler) PulsePosition(num int) (float64, error) {
	return c.pulseTime(num, func(p *Pulse) (timebase.Ticks, bool) {
		return p.Pos, p.PosSet
	}, "position")
}

// PulseLength returns the length of a pulse.
func (c *Compiler) PulseLength(num int) (float64, error) {
	return c.pulseTime(num, func(p *Pulse) (timebase.Ticks, bool) {
		return p.Len, p.LenSet
	}, "length")
}

// PulsePositionChange returns the position change of a pulse.
func (c *Compiler) PulsePositionChange(num int) (float64, error) {
	return c.pulseTime(num, func(p *Pulse) (timebase.Ticks, bool) {
		return p.DPos, p.DPosSet
	}, "position change")
}

// PulseLengthChange returns the length change of a pulse.
func (c *Compiler) PulseLengthChange(num int) (float64, error) {
	return c.pulseTime(num, func(p *Pulse) (timebase.Ticks, bool) {
		return p.DLen, p.DLenSet
	}, "length change")
}

// selectPulses resolves pulse numbers. Without numbers, all pulses that
// pass the filter are selected.
func (c *Compiler) selectPulses(
	nums []int,
	filter func(p *Pulse) bool,
) ([]*Pulse, *Error) {
	var selected []*Pulse

	if len(nums) == 0 {
		for i := range c.pulses {
			if filter(&c.pulses[i]) {
				selected = append(selected, &c.pulses[i])
			}
		}

		return selected, nil
	}

	for _, num := range nums {
		p, e := c.pulse(num)
		if e != nil {
			return nil, e
		}

		selected = append(selected, p)
	}

	return selected, nil
}

// ShiftPulses moves pulses by their position change. Without numbers, every
// pulse with a position change moves. Nothing moves if any selected pulse
// cannot.
func (c *Compiler) ShiftPulses(nums ...int) error {
	if e := c.requireMode("shifting pulses", ModeTest, ModeReal); e != nil {
		return e
	}

	selected, e := c.selectPulses(nums, func(p *Pulse) bool {
		return p.DPosSet
	})
	if e != nil {
		return e
	}

	for _, p := range selected {
		if !p.DPosSet {
			return newError(ErrNoChange, "position change not set").forPulse(p)
		}

		if !p.PosSet {
			return newError(ErrValueNotSet, "position").forPulse(p)
		}

		if p.Pos+p.DPos < 0 {
			return newError(ErrNegativePosition, "%s",
				c.format(p.Pos+p.DPos)).forPulse(p)
		}
	}

	for _, p := range selected {
		p.Pos += p.DPos
	}

	return nil
}

// IncrementPulseLengths grows pulses by their length change. A pulse whose
// length drops to zero or below becomes inactive.
func (c *Compiler) IncrementPulseLengths(nums ...int) error {
	if e := c.requireMode("changing lengths", ModeTest, ModeReal); e != nil {
		return e
	}

	selected, e := c.selectPulses(nums, func(p *Pulse) bool {
		return p.DLenSet
	})
	if e != nil {
		return e
	}

	for _, p := range selected {
		if !p.DLenSet {
			return newError(ErrNoChange, "length change not set").forPulse(p)
		}
	}

	for _, p := range selected {
		p.Len += p.DLen
		p.LenSet = true
	}

	return nil
}

// ResetPulses brings pulses back to the values they had when the test run
// started. Without numbers, all pulses are reset.
func (c *Compiler) ResetPulses(nums ...int) error {
	if e := c.requireMode("resetting pulses", ModeTest, ModeReal); e != nil {
		return e
	}

	selected, e := c.selectPulses(nums, func(*Pulse) bool { return true })
	if e != nil {
		return e
	}

	for _, p := range selected {
		p.restore(p.initial)
	}

	return nil
}

func (c *Compiler) phaseFunctions(fs []device.Function) ([]*Function, *Error) {
	var selected []*Function

	if len(fs) == 0 {
		for i := range c.functions {
			f := &c.functions[i]
			if f.IsPhaseCycled() && f.IsUsed() {
				selected = append(selected, f)
			}
		}

		return selected, nil
	}

	for _, id := range fs {
		f, e := c.function(id)
		if e != nil {
			return nil, e
		}

		if !f.IsPhaseCycled() {
			return nil, newError(ErrMissingPhaseSetup,
				"function is not phase cycled").forFunction(id)
		}

		selected = append(selected, f)
	}

	return selected, nil
}

// NextPhase advances the phase cycle of the given functions, or of all
// phase-cycled functions. In a real run the pods are switched at once.
func (c *Compiler) NextPhase(fs ...device.Function) error {
	return c.setStage(fs, func(stage int) int {
		return (stage + 1) % c.numStages
	})
}

// ResetPhase returns the phase cycle to its first stage.
func (c *Compiler) ResetPhase(fs ...device.Function) error {
	return c.setStage(fs, func(int) int { return 0 })
}

func (c *Compiler) setStage(fs []device.Function, next func(int) int) error {
	if e := c.requireMode("changing phases", ModeTest, ModeReal); e != nil {
		return e
	}

	selected, e := c.phaseFunctions(fs)
	if e != nil {
		return e
	}

	for _, f := range selected {
		f.Stage = next(f.Stage)

		if c.mode != ModeReal || f.NeededChannels == 0 {
			continue
		}

		if err := c.issue(c.podAssignments(f)...); err != nil {
			return err
		}
	}

	return nil
}

// podAssignments connects every pod of a function to the channel of its
// current stage.
func (c *Compiler) podAssignments(f *Function) []wire.Command {
	var cmds []wire.Command

	if !f.IsPhaseCycled() {
		for _, pod := range f.Pods {
			cmds = append(cmds, wire.AssignChannel(f.Channels[0], pod))
		}

		return cmds
	}

	for t := 0; t < device.NumPhaseTypes; t++ {
		if !f.Phase.IsSet[t] {
			continue
		}

		ch := f.channelFor(device.PhaseType(t))
		cmds = append(cmds, wire.AssignChannel(ch, f.Phase.Pod[t]))
	}

	return cmds
}

// issue sends commands to the device, reporting each to the hooks first.
func (c *Compiler) issue(cmds ...wire.Command) error {
	for _, cmd := range cmds {
		c.invokeHook(HookPosCommand, cmd)

		if err := wire.Apply(c.dev, cmd); err != nil {
			return fmt.Errorf("device rejected %s: %w", cmd, err)
		}
	}

	return nil
}
