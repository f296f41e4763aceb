// Package compiler turns a list of logical pulses into the bit patterns,
// channel assignments and block layout of a digital pattern generator, and
// works out the smallest set of memory writes after every change.
//
// A Compiler goes through two passes. In the test run the script is executed
// without hardware; the compiler validates every update and learns the
// longest sequence and the phase combinations in use. EndTestRun then
// allocates channels and plans the memory layout. In the real run every
// update is validated again and turned into incremental writes; a failing
// update is rolled back and reported as recoverable.
package compiler

import (
	"errors"
	"fmt"

	"github.com/sarchlab/pulsegen/device"
	"github.com/sarchlab/pulsegen/hooking"
	"github.com/sarchlab/pulsegen/id"
	"github.com/sarchlab/pulsegen/timebase"
	"github.com/sarchlab/pulsegen/wire"
)

// Mode is the pass the compiler is in.
type Mode int

// The compiler modes.
const (
	// ModeSetup accepts declarations.
	ModeSetup Mode = iota

	// ModeTest validates updates without hardware.
	ModeTest

	// ModeReady has a plan and waits for the real run.
	ModeReady

	// ModeReal writes updates to the device.
	ModeReal
)

func (m Mode) String() string {
	switch m {
	case ModeSetup:
		return "setup"
	case ModeTest:
		return "test"
	case ModeReady:
		return "ready"
	case ModeReal:
		return "real"
	}

	return fmt.Sprintf("mode(%d)", int(m))
}

type distancePair struct {
	gate, defense int
}

// Compiler owns the pulses, functions and channel plan of one pattern
// generator. It is not safe for concurrent use; callers serialize access.
type Compiler struct {
	hooking.HookableBase

	limits   device.Limits
	ids      id.IDGenerator
	timeBase timebase.TimeBase

	functions    [device.NumFunctions]Function
	podOwner     map[device.Pod]device.Function
	channelOwner []device.Function

	pulses     []Pulse
	pulseIndex map[int]PulseID

	cycles     []PhaseCycle
	cycleIndex map[int]CycleID
	plusX      CycleID
	numStages  int

	repeatPeriod  timebase.Ticks
	gateToDefense timebase.Ticks
	defenseToGate timebase.Ticks
	checkDistance bool
	reported      map[distancePair]bool

	mode       Mode
	plan       Plan
	dev        wire.Device
	advisories []*Error
	passID     string
}

// Limits returns the device limits.
func (c *Compiler) Limits() device.Limits {
	return c.limits
}

// Mode returns the current pass.
func (c *Compiler) Mode() Mode {
	return c.mode
}

// TimeBase returns the configured time base.
func (c *Compiler) TimeBase() timebase.TimeBase {
	return c.timeBase
}

// NumStages returns the length of the phase cycle.
func (c *Compiler) NumStages() int {
	return c.numStages
}

// Plan returns the memory plan. It is only meaningful after the test run.
func (c *Compiler) Plan() Plan {
	return c.plan
}

// Function returns the state of a function.
func (c *Compiler) Function(f device.Function) *Function {
	if !f.Valid() {
		panic(fmt.Sprintf("invalid function %d", int(f)))
	}

	return &c.functions[f]
}

// UsedFunctions returns the functions that have pulses, in enum order.
func (c *Compiler) UsedFunctions() []*Function {
	var used []*Function

	for i := range c.functions {
		if c.functions[i].IsUsed() {
			used = append(used, &c.functions[i])
		}
	}

	return used
}

// Pulses returns the pulse arena.
func (c *Compiler) Pulses() []Pulse {
	return c.pulses
}

// PhaseCycles returns the declared phase cycles.
func (c *Compiler) PhaseCycles() []PhaseCycle {
	return c.cycles
}

// ChannelOwner returns the function a channel is bound to.
func (c *Compiler) ChannelOwner(ch device.Channel) device.Function {
	return c.channelOwner[ch]
}

// Advisories returns the advisories raised so far.
func (c *Compiler) Advisories() []*Error {
	return c.advisories
}

func (c *Compiler) requireMode(op string, modes ...Mode) *Error {
	for _, m := range modes {
		if c.mode == m {
			return nil
		}
	}

	return newError(ErrWrongMode, "%s in %s mode", op, c.mode)
}

func (c *Compiler) function(f device.Function) (*Function, *Error) {
	if !f.Valid() {
		return nil, newError(ErrInvalidFunction, "%d", int(f))
	}

	return &c.functions[f], nil
}

func (c *Compiler) pulse(num int) (*Pulse, *Error) {
	pid, ok := c.pulseIndex[num]
	if !ok {
		return nil, newError(ErrUnknownPulse, "#%d", num)
	}

	return &c.pulses[pid], nil
}

func (c *Compiler) toTicks(seconds float64) (timebase.Ticks, *Error) {
	t, err := c.timeBase.ToTicks(seconds)

	switch {
	case err == nil:
		return t, nil
	case errors.Is(err, timebase.ErrInvalidTimeBase):
		return 0, newError(ErrInvalidTimeBase, "time base not set").wrap(err)
	case errors.Is(err, timebase.ErrTimeOutOfRange):
		return 0, newError(ErrTimeOutOfRange, "%s",
			timebase.FormatSeconds(seconds)).wrap(err)
	default:
		return 0, newError(ErrNotAnIntegerMultiple, "%s with time base %s",
			timebase.FormatSeconds(seconds),
			timebase.FormatSeconds(c.timeBase.Seconds())).wrap(err)
	}
}

func (c *Compiler) toSeconds(t timebase.Ticks) float64 {
	return c.timeBase.ToSeconds(t)
}

func (c *Compiler) format(t timebase.Ticks) string {
	return c.timeBase.Format(t)
}

func (c *Compiler) advise(a *Error) {
	c.advisories = append(c.advisories, a)
	c.invokeHook(HookPosAdvisory, a)
}

// asError keeps a nil *Error from becoming a non-nil error.
func asError(e *Error) error {
	if e == nil {
		return nil
	}

	return e
}
