package compiler

import (
	"github.com/sarchlab/pulsegen/device"
	"github.com/sarchlab/pulsegen/timebase"
)

// PulseID indexes a pulse in the compiler's pulse arena.
type PulseID int

// PulseState is the position and length of a pulse, in ticks.
type PulseState struct {
	Pos    timebase.Ticks
	Len    timebase.Ticks
	PosSet bool
	LenSet bool
}

// Active tells if the state describes a pulse that produces output.
func (s PulseState) Active() bool {
	return s.PosSet && s.LenSet && s.Len > 0
}

// End returns the first tick after the pulse.
func (s PulseState) End() timebase.Ticks {
	return s.Pos + s.Len
}

type pulseSnapshot struct {
	state   PulseState
	dPos    timebase.Ticks
	dLen    timebase.Ticks
	dPosSet bool
	dLenSet bool
}

// Pulse is a logical pulse of one function.
type Pulse struct {
	Num      int
	Function device.Function
	Cycle    CycleID

	// The current values.
	PulseState

	// Old holds the values last written to the device.
	Old PulseState

	DPos    timebase.Ticks
	DLen    timebase.Ticks
	DPosSet bool
	DLenSet bool

	WasActive     bool
	HasBeenActive bool

	initial         pulseSnapshot
	cycleIgnoredMsg bool
}

// IsActive tells if the pulse currently produces output.
func (p *Pulse) IsActive() bool {
	return p.PulseState.Active()
}

// NeedsUpdate tells if the device memory has to change for this pulse.
func (p *Pulse) NeedsUpdate() bool {
	return p.IsActive() != p.WasActive ||
		p.Pos != p.Old.Pos ||
		p.Len != p.Old.Len
}

func (p *Pulse) snapshot() pulseSnapshot {
	return pulseSnapshot{
		state:   p.PulseState,
		dPos:    p.DPos,
		dLen:    p.DLen,
		dPosSet: p.DPosSet,
		dLenSet: p.DLenSet,
	}
}

func (p *Pulse) restore(s pulseSnapshot) {
	p.PulseState = s.state
	p.DPos = s.dPos
	p.DLen = s.dLen
	p.DPosSet = s.dPosSet
	p.DLenSet = s.dLenSet
}

// commit marks the current values as written to the device.
func (p *Pulse) commit() {
	p.Old = p.PulseState
	p.WasActive = p.IsActive()
}

// rollback restores the values last written to the device.
func (p *Pulse) rollback() {
	p.PulseState = p.Old
}
