package compiler

import (
	"fmt"
	"sort"

	"github.com/sarchlab/pulsegen/device"
	"github.com/sarchlab/pulsegen/timebase"
)

type phaseCell struct {
	function device.Function
	phase    device.PhaseType
	stage    int
}

// validation collects what a validation run learned. It is only applied to
// the compiler once every check passed.
type validation struct {
	seqLen    [device.NumFunctions]timebase.Ticks
	cells     []phaseCell
	active    []*Pulse
	ignored   []*Pulse
	distances map[distancePair]*Error
}

// validate checks the current pulse values. In the test run, what was
// learned is kept for planning; in the real run the values are checked
// against the plan.
func (c *Compiler) validate() *Error {
	v := &validation{}

	for i := range c.pulses {
		if e := c.checkPulse(&c.pulses[i], v); e != nil {
			return e
		}
	}

	for i := range c.functions {
		f := &c.functions[i]
		if !f.IsUsed() {
			continue
		}

		if e := c.checkOrder(f, v); e != nil {
			return e
		}
	}

	if e := c.checkDistances(v); e != nil {
		return e
	}

	if c.mode == ModeTest {
		c.learn(v)
	}

	c.adviseValidation(v)

	return nil
}

func (c *Compiler) checkPulse(p *Pulse, v *validation) *Error {
	if p.Function == device.NoFunction {
		return newError(ErrMissingFunction, "").forPulse(p)
	}

	f := &c.functions[p.Function]

	if e := c.checkFunction(f); e != nil {
		return e.forPulse(p)
	}

	if !p.IsActive() {
		return nil
	}

	if p.Pos < 0 {
		return newError(ErrNegativePosition, "%s", c.format(p.Pos)).forPulse(p)
	}

	limit := timebase.Ticks(c.limits.MaxPulserBits - 1)
	if f.Delay+p.End() > limit {
		return newError(ErrPulseExceedsMemory, "pulse ends at %s, memory ends at %s",
			c.format(f.Delay+p.End()), c.format(limit)).forPulse(p)
	}

	v.active = append(v.active, p)

	if !f.IsPhaseCycled() {
		if p.Cycle != NoCycle && !p.cycleIgnoredMsg {
			v.ignored = append(v.ignored, p)
		}

		return nil
	}

	return c.checkPhases(f, p, v)
}

func (c *Compiler) checkFunction(f *Function) *Error {
	if len(f.Pods) == 0 {
		return newError(ErrFunctionNotDeclared, "").forFunction(f.ID)
	}

	if len(f.Pods) > 1 && (f.Phase == nil || f.Phase.NumSet() != len(f.Pods)) {
		return newError(ErrMissingPhaseSetup, "%d pods", len(f.Pods)).
			forFunction(f.ID)
	}

	return nil
}

func (c *Compiler) checkPhases(f *Function, p *Pulse, v *validation) *Error {
	cycle := &c.cycles[p.Cycle]

	for s := 0; s < c.numStages; s++ {
		t := cycle.PhaseAt(s)

		if !t.Valid() {
			return newError(ErrUnsupportedPhaseType, "phase type %d in stage %d",
				int(t), s).forPulse(p)
		}

		if !f.Phase.IsSet[t] {
			return newError(ErrUnsupportedPhaseType, "%s in stage %d has no pod",
				t, s).forPulse(p)
		}

		if c.mode == ModeTest {
			v.cells = append(v.cells, phaseCell{f.ID, t, s})
			continue
		}

		if !f.PhaseMatrix[t][s] {
			return newError(ErrPhaseNotAllocated, "%s in stage %d", t, s).
				forPulse(p)
		}
	}

	return nil
}

// activePulses returns the active pulses of a function, ordered by position.
func (c *Compiler) activePulses(f *Function) []*Pulse {
	var active []*Pulse

	for _, pid := range f.Pulses {
		if p := &c.pulses[pid]; p.IsActive() {
			active = append(active, p)
		}
	}

	sort.Slice(active, func(i, j int) bool {
		return active[i].Pos < active[j].Pos
	})

	return active
}

func (c *Compiler) checkOrder(f *Function, v *validation) *Error {
	var seqLen timebase.Ticks

	active := c.activePulses(f)

	for i, p := range active {
		if i > 0 && active[i-1].End() > p.Pos {
			prev := active[i-1]
			return newError(ErrPulseOverlap, "#%d ends at %s, #%d starts at %s",
				prev.Num, c.format(prev.End()), p.Num, c.format(p.Pos)).
				forPulse(p)
		}

		if p.End() > seqLen {
			seqLen = p.End()
		}
	}

	bound := timebase.Ticks(c.limits.MaxPulserBits - 1)
	if c.mode == ModeReal {
		bound = c.plan.MaxSeqLen
	}

	if f.Delay+seqLen > bound {
		return newError(ErrSequenceTooLong, "%s needed, %s available",
			c.format(f.Delay+seqLen), c.format(bound)).forFunction(f.ID)
	}

	v.seqLen[f.ID] = seqLen

	return nil
}

// checkDistances makes sure TWT gate and defense pulses keep their minimum
// distances. Pulses exactly at the minimum distance are fine.
func (c *Compiler) checkDistances(v *validation) *Error {
	gate := &c.functions[device.TWTGate]
	defense := &c.functions[device.Defense]

	if !c.checkDistance || !gate.IsUsed() || !defense.IsUsed() {
		return nil
	}

	for _, g := range c.activePulses(gate) {
		gs := gate.Delay + g.Pos
		ge := gs + g.Len

		for _, d := range c.activePulses(defense) {
			ds := defense.Delay + d.Pos
			de := ds + d.Len

			var msg string

			switch {
			case gs <= ds && ds-ge < c.gateToDefense:
				msg = c.distanceMsg(g, d, ds-ge, c.gateToDefense)
			case gs > ds && gs-de < c.defenseToGate:
				msg = c.distanceMsg(d, g, gs-de, c.defenseToGate)
			default:
				continue
			}

			if c.mode == ModeReal {
				return newError(ErrDistanceViolation, "%s", msg).forPulse(g)
			}

			pair := distancePair{gate: g.Num, defense: d.Num}
			if c.reported[pair] {
				continue
			}

			if v.distances == nil {
				v.distances = make(map[distancePair]*Error)
			}

			v.distances[pair] = newError(AdvDistance, "%s", msg).forPulse(g)
		}
	}

	return nil
}

func (c *Compiler) distanceMsg(
	first, second *Pulse,
	dist, minDist timebase.Ticks,
) string {
	return fmt.Sprintf("#%d and #%d are %s apart, at least %s required",
		first.Num, second.Num, c.format(dist), c.format(minDist))
}

// learn keeps the sequence lengths and phase combinations seen in the test
// run.
func (c *Compiler) learn(v *validation) {
	for i := range c.functions {
		f := &c.functions[i]
		if v.seqLen[i] > f.MaxSeqLen {
			f.MaxSeqLen = v.seqLen[i]
		}
	}

	for _, cell := range v.cells {
		f := &c.functions[cell.function]
		f.PhaseMatrix[cell.phase][cell.stage] = true
		f.Phase.IsNeeded[cell.phase] = true
	}

	for _, p := range v.active {
		p.HasBeenActive = true
	}
}

func (c *Compiler) adviseValidation(v *validation) {
	for _, p := range v.ignored {
		p.cycleIgnoredMsg = true
		c.advise(newError(AdvIgnoredCycle, "function has a single pod").
			forPulse(p))
	}

	pairs := make([]distancePair, 0, len(v.distances))
	for pair := range v.distances {
		pairs = append(pairs, pair)
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].gate != pairs[j].gate {
			return pairs[i].gate < pairs[j].gate
		}

		return pairs[i].defense < pairs[j].defense
	})

	for _, pair := range pairs {
		c.reported[pair] = true
		c.advise(v.distances[pair])
	}
}
