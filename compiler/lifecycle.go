package compiler

import (
	"github.com/sarchlab/pulsegen/device"
	"github.com/sarchlab/pulsegen/hooking"
	"github.com/sarchlab/pulsegen/timebase"
	"github.com/sarchlab/pulsegen/wire"
)

// StartTestRun ends the declarations and validates the initial pulses. The
// values the pulses have now are the ones ResetPulses and the real run start
// from.
func (c *Compiler) StartTestRun() error {
	if e := c.requireMode("starting the test run", ModeSetup); e != nil {
		return e
	}

	if !c.timeBase.IsSet() {
		return newError(ErrInvalidTimeBase, "time base not set")
	}

	for i := range c.pulses {
		p := &c.pulses[i]
		if p.Function == device.NoFunction || p.Cycle != NoCycle {
			continue
		}

		if c.functions[p.Function].IsPhaseCycled() {
			p.Cycle = c.plusXCycle()
		}
	}

	c.numStages = c.countStages()

	for i := range c.functions {
		c.functions[i].resetMatrix(c.numStages)
	}

	for i := range c.pulses {
		c.pulses[i].initial = c.pulses[i].snapshot()
	}

	c.mode = ModeTest

	return c.Update()
}

// Update validates the current pulse values and, in the real run, writes the
// changes to the device.
//
// A failing update in the real run restores the last committed values and
// returns an error that IsRecoverable accepts. No command is sent for a
// failing update.
//
// If the device rejects a command, its memory holds an unknown part of the
// update and stays stopped. The real run is then over: the pulses return to
// their initial values, the compiler is ready again and StartRealRun has to
// rewrite the device.
func (c *Compiler) Update() error {
	if e := c.requireMode("updating", ModeTest, ModeReal); e != nil {
		return e
	}

	c.passID = c.ids.Generate()

	if e := c.validate(); e != nil {
		if c.mode == ModeReal {
			c.rollbackPulses()
			e.Recoverable = e.Kind() == ValidationError
			c.invokeHook(HookPosRollback, e)
		}

		return e
	}

	var cmds []wire.Command
	if c.mode == ModeReal {
		cmds = c.render()
	}

	if len(cmds) > 0 {
		cmds = append([]wire.Command{wire.Stop()}, cmds...)
		cmds = append(cmds, wire.Start())

		if err := c.issue(cmds...); err != nil {
			c.resetRun()
			c.mode = ModeReady

			return err
		}
	}

	c.commitPulses(len(cmds))

	return nil
}

// EndTestRun drops pulses that were never active, allocates channels and
// plans the memory layout. Pulses are reset to their initial values.
func (c *Compiler) EndTestRun() error {
	if e := c.requireMode("ending the test run", ModeTest); e != nil {
		return e
	}

	c.prune()

	for i := range c.functions {
		f := &c.functions[i]
		if len(f.Pods) > 0 && !f.IsUsed() {
			c.advise(newError(AdvUnusedFunction, "").forFunction(f.ID))
		}
	}

	used := c.UsedFunctions()
	if len(used) == 0 {
		c.advise(newError(AdvNothingToOutput, ""))
	}

	if e := c.allocate(); e != nil {
		return e
	}

	var maxSeqLen timebase.Ticks

	for _, f := range used {
		if f.Delay+f.MaxSeqLen > maxSeqLen {
			maxSeqLen = f.Delay + f.MaxSeqLen
		}
	}

	plan, e := PlanPadding(c.limits, maxSeqLen, c.repeatPeriod)
	if e != nil {
		return e
	}

	if plan.PeriodExceeded {
		c.advise(newError(AdvPeriodExceeded, "pattern needs %s, period is %s",
			c.format(maxSeqLen), c.format(c.repeatPeriod)))
	}

	c.plan = plan
	c.resetRun()
	c.mode = ModeReady

	return nil
}

// StartRealRun sets up the device according to the plan and writes the
// initial pulses.
func (c *Compiler) StartRealRun(dev wire.Device) error {
	if e := c.requireMode("starting the real run", ModeReady); e != nil {
		return e
	}

	c.dev = dev
	c.mode = ModeReal
	c.passID = c.ids.Generate()

	if e := c.validate(); e != nil {
		c.mode = ModeReady
		return e
	}

	cmds := []wire.Command{wire.Stop()}
	cmds = append(cmds, c.plan.commands()...)

	for _, f := range c.UsedFunctions() {
		cmds = append(cmds, c.setupCommands(f)...)
	}

	cmds = append(cmds, c.render()...)
	cmds = append(cmds, wire.Start())

	if err := c.issue(cmds...); err != nil {
		c.mode = ModeReady
		return err
	}

	c.commitPulses(len(cmds))

	return nil
}

// EndRealRun stops the device. The pulses return to their initial values so
// another real run can follow.
func (c *Compiler) EndRealRun() error {
	if e := c.requireMode("ending the real run", ModeReal); e != nil {
		return e
	}

	if err := c.issue(wire.Stop()); err != nil {
		return err
	}

	c.resetRun()
	c.mode = ModeReady

	return nil
}

// setupCommands sets the levels and pod connections of a function and drives
// all its channels low, tick 0 included.
func (c *Compiler) setupCommands(f *Function) []wire.Command {
	var cmds []wire.Command

	if f.HasLevels || f.Inverted {
		high, low := f.levels(c.limits)
		for _, pod := range f.Pods {
			cmds = append(cmds, wire.SetPodLevels(pod, high, low))
		}
	}

	cmds = append(cmds, c.podAssignments(f)...)

	for _, ch := range f.Channels {
		cmds = append(cmds, wire.WriteConstant(ch, 0, c.plan.MemorySize, false))
	}

	return cmds
}

// prune removes the pulses that were never active.
func (c *Compiler) prune() {
	kept := c.pulses[:0]

	for _, p := range c.pulses {
		if p.HasBeenActive {
			kept = append(kept, p)
			continue
		}

		c.advise(newError(AdvUnusedPulse, "").forPulse(&p))
	}

	c.pulses = kept
	c.pulseIndex = make(map[int]PulseID, len(kept))

	for i := range c.functions {
		c.functions[i].Pulses = nil
	}

	for i := range c.pulses {
		p := &c.pulses[i]
		c.pulseIndex[p.Num] = PulseID(i)
		c.functions[p.Function].Pulses = append(
			c.functions[p.Function].Pulses, PulseID(i))
	}
}

// resetRun puts pulses and phase cycles back to where the test run started,
// with nothing written to the device yet.
func (c *Compiler) resetRun() {
	for i := range c.pulses {
		p := &c.pulses[i]
		p.restore(p.initial)
		p.Old = PulseState{}
		p.WasActive = false
	}

	for i := range c.functions {
		c.functions[i].Stage = 0
	}
}

func (c *Compiler) rollbackPulses() {
	for i := range c.pulses {
		c.pulses[i].rollback()
	}
}

// commitPulses marks the current values as written and reports the pass.
func (c *Compiler) commitPulses(numCommands int) {
	var updated []int

	for i := range c.pulses {
		p := &c.pulses[i]
		if p.NeedsUpdate() {
			updated = append(updated, p.Num)
		}

		p.commit()
	}

	c.invokeHook(HookPosCommit, PassSummary{
		ID:       c.passID,
		Mode:     c.mode,
		Commands: numCommands,
		Updated:  updated,
	})
}

func (c *Compiler) invokeHook(pos *hooking.HookPos, item interface{}) {
	if c.NumHooks() == 0 {
		return
	}

	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    pos,
		Item:   item,
		Pass:   c.passID,
	})
}
