package compiler

import (
	"github.com/sarchlab/pulsegen/device"
	"github.com/sarchlab/pulsegen/timebase"
)

// SetTimeBase sets the length of one tick. It can only be set once, before
// any time is given.
func (c *Compiler) SetTimeBase(seconds float64) error {
	if e := c.requireMode("setting the time base", ModeSetup); e != nil {
		return e
	}

	if c.timeBase.IsSet() {
		return newError(ErrInvalidTimeBase, "time base already set to %s",
			c.format(1))
	}

	if !c.limits.ValidTimeBase(seconds) {
		return newError(ErrInvalidTimeBase, "%g s is outside of the range %g s to %g s",
			seconds, c.limits.MinTimeBase, c.limits.MaxTimeBase)
	}

	c.timeBase = timebase.New(seconds)

	return nil
}

func (c *Compiler) claimPod(f device.Function, pod device.Pod) *Error {
	if !c.limits.ValidPod(pod) {
		return newError(ErrInvalidPod, "pod %d does not exist", pod).
			forFunction(f)
	}

	if owner, taken := c.podOwner[pod]; taken {
		return newError(ErrPodInUse, "pod %d already assigned to %s",
			pod, owner).forFunction(f)
	}

	c.podOwner[pod] = f
	c.functions[f].Pods = append(c.functions[f].Pods, pod)

	return nil
}

// AssignPod connects a function to an output pod.
func (c *Compiler) AssignPod(f device.Function, pod device.Pod) error {
	if e := c.requireMode("assigning pods", ModeSetup); e != nil {
		return e
	}

	if _, e := c.function(f); e != nil {
		return e
	}

	return asError(c.claimPod(f, pod))
}

// SetPhasePod connects the pod that outputs a phase type of a phase-cycled
// function.
func (c *Compiler) SetPhasePod(
	f device.Function,
	t device.PhaseType,
	pod device.Pod,
) error {
	if e := c.requireMode("assigning phase pods", ModeSetup); e != nil {
		return e
	}

	fn, e := c.function(f)
	if e != nil {
		return e
	}

	if !t.Valid() {
		return newError(ErrUnsupportedPhaseType, "phase type %d", int(t)).
			forFunction(f)
	}

	if fn.Phase != nil && fn.Phase.IsSet[t] {
		return newError(ErrPodInUse, "phase %s already uses pod %d",
			t, fn.Phase.Pod[t]).forFunction(f)
	}

	if e := c.claimPod(f, pod); e != nil {
		return e
	}

	if fn.Phase == nil {
		fn.Phase = &PhaseSetup{}
	}

	fn.Phase.Pod[t] = pod
	fn.Phase.IsSet[t] = true

	return nil
}

// FunctionPods returns the pods of a function.
func (c *Compiler) FunctionPods(f device.Function) ([]device.Pod, error) {
	fn, e := c.function(f)
	if e != nil {
		return nil, e
	}

	return append([]device.Pod(nil), fn.Pods...), nil
}

// SetFunctionDelay shifts all pulses of a function by a fixed time.
func (c *Compiler) SetFunctionDelay(f device.Function, seconds float64) error {
	if e := c.requireMode("setting delays", ModeSetup); e != nil {
		return e
	}

	fn, e := c.function(f)
	if e != nil {
		return e
	}

	delay, e := c.toTicks(seconds)
	if e != nil {
		return e.forFunction(f)
	}

	if delay < 0 {
		return newError(ErrInvalidDelay, "negative delay %s",
			c.format(delay)).forFunction(f)
	}

	fn.Delay = delay

	return nil
}

// SetFunctionInverted selects inverted polarity for a function.
func (c *Compiler) SetFunctionInverted(f device.Function, inverted bool) error {
	if e := c.requireMode("setting polarity", ModeSetup); e != nil {
		return e
	}

	fn, e := c.function(f)
	if e != nil {
		return e
	}

	fn.Inverted = inverted

	return nil
}

// SetFunctionLevels sets the high and low voltages of the pods of a function.
func (c *Compiler) SetFunctionLevels(f device.Function, high, low float64) error {
	if e := c.requireMode("setting levels", ModeSetup); e != nil {
		return e
	}

	fn, e := c.function(f)
	if e != nil {
		return e
	}

	if !c.limits.ValidLevels(high, low) {
		return newError(ErrInvalidLevels, "%g V / %g V", high, low).
			forFunction(f)
	}

	fn.HasLevels = true
	fn.High = high
	fn.Low = low

	return nil
}

// SetRepeatPeriod requests that the pattern repeats with the given period.
func (c *Compiler) SetRepeatPeriod(seconds float64) error {
	if e := c.requireMode("setting the repeat period", ModeSetup); e != nil {
		return e
	}

	period, e := c.toTicks(seconds)
	if e != nil {
		return e
	}

	if period <= 0 {
		return newError(ErrTimeOutOfRange, "repeat period must be positive")
	}

	c.repeatPeriod = period

	return nil
}

// SetDefenseDistances sets the minimum distance from the end of a TWT gate
// pulse to the start of a later defense pulse, and from the end of a defense
// pulse to the start of a later TWT gate pulse.
func (c *Compiler) SetDefenseDistances(gateToDefense, defenseToGate float64) error {
	if e := c.requireMode("setting distances", ModeSetup); e != nil {
		return e
	}

	g2d, e := c.toTicks(gateToDefense)
	if e != nil {
		return e
	}

	d2g, e := c.toTicks(defenseToGate)
	if e != nil {
		return e
	}

	if g2d < 0 || d2g < 0 {
		return newError(ErrTimeOutOfRange, "distances must not be negative")
	}

	c.gateToDefense = g2d
	c.defenseToGate = d2g
	c.checkDistance = true

	return nil
}

// DefinePhaseCycle declares a phase cycle under a number.
func (c *Compiler) DefinePhaseCycle(num int, sequence []device.PhaseType) error {
	if e := c.requireMode("defining phase cycles", ModeSetup); e != nil {
		return e
	}

	if _, exists := c.cycleIndex[num]; exists || num < 0 {
		return newError(ErrInvalidPhaseCycle, "cycle %d already defined or reserved", num)
	}

	if len(sequence) == 0 {
		return newError(ErrInvalidPhaseCycle, "cycle %d is empty", num)
	}

	c.cycles = append(c.cycles, PhaseCycle{
		Num:      num,
		Sequence: append([]device.PhaseType(nil), sequence...),
	})
	c.cycleIndex[num] = CycleID(len(c.cycles) - 1)

	return nil
}

// DeclarePulse creates a pulse.
func (c *Compiler) DeclarePulse(num int) error {
	if e := c.requireMode("declaring pulses", ModeSetup); e != nil {
		return e
	}

	if num < 0 {
		return newError(ErrReservedPulseNumber, "#%d", num)
	}

	if _, exists := c.pulseIndex[num]; exists {
		return newError(ErrDuplicatePulse, "#%d", num)
	}

	c.pulses = append(c.pulses, Pulse{
		Num:      num,
		Function: device.NoFunction,
		Cycle:    NoCycle,
	})
	c.pulseIndex[num] = PulseID(len(c.pulses) - 1)

	return nil
}

// SetPulseFunction sets the function a pulse belongs to.
func (c *Compiler) SetPulseFunction(num int, f device.Function) error {
	if e := c.requireMode("setting pulse functions", ModeSetup); e != nil {
		return e
	}

	p, e := c.pulse(num)
	if e != nil {
		return e
	}

	if _, e := c.function(f); e != nil {
		return e.forPulse(p)
	}

	pid := c.pulseIndex[num]

	if p.Function != device.NoFunction {
		old := &c.functions[p.Function]
		old.Pulses = removePulse(old.Pulses, pid)
	}

	p.Function = f
	c.functions[f].Pulses = append(c.functions[f].Pulses, pid)

	return nil
}

func removePulse(ids []PulseID, pid PulseID) []PulseID {
	kept := ids[:0]

	for _, i := range ids {
		if i != pid {
			kept = append(kept, i)
		}
	}

	return kept
}

// PulseFunction returns the function of a pulse.
func (c *Compiler) PulseFunction(num int) (device.Function, error) {
	p, e := c.pulse(num)
	if e != nil {
		return device.NoFunction, e
	}

	if p.Function == device.NoFunction {
		return device.NoFunction, newError(ErrMissingFunction, "").forPulse(p)
	}

	return p.Function, nil
}

// SetPulsePhaseCycle makes a pulse follow a declared phase cycle.
func (c *Compiler) SetPulsePhaseCycle(num int, cycleNum int) error {
	if e := c.requireMode("setting phase cycles", ModeSetup); e != nil {
		return e
	}

	p, e := c.pulse(num)
	if e != nil {
		return e
	}

	cid, ok := c.cycleIndex[cycleNum]
	if !ok {
		return newError(ErrUnknownPhaseCycle, "cycle %d", cycleNum).forPulse(p)
	}

	p.Cycle = cid

	return nil
}

// PulsePhaseCycle returns the number of the phase cycle of a pulse.
func (c *Compiler) PulsePhaseCycle(num int) (int, error) {
	p, e := c.pulse(num)
	if e != nil {
		return 0, e
	}

	if p.Cycle == NoCycle || c.cycles[p.Cycle].Synthetic {
		return 0, newError(ErrValueNotSet, "no phase cycle").forPulse(p)
	}

	return c.cycles[p.Cycle].Num, nil
}
