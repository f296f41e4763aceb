package compiler

import (
	"github.com/sarchlab/pulsegen/device"
	"github.com/sarchlab/pulsegen/wire"
)

// channelTarget is a channel and the pulses that show up on it.
type channelTarget struct {
	channel device.Channel
	pulses  []*Pulse
}

// targets spreads pulses over the channels of a function. A pulse of a
// phase-cycled function appears once per stage, on the channel of the phase
// it has in that stage.
func (c *Compiler) targets(f *Function, pulses []*Pulse) []channelTarget {
	if !f.IsPhaseCycled() {
		return []channelTarget{{channel: f.Channels[0], pulses: pulses}}
	}

	var targets []channelTarget

	for t := 0; t < device.NumPhaseTypes; t++ {
		for s, used := range f.PhaseMatrix[t] {
			if !used {
				continue
			}

			target := channelTarget{channel: f.PCM[t][s]}

			for _, p := range pulses {
				if c.cycles[p.Cycle].PhaseAt(s) == device.PhaseType(t) {
					target.pulses = append(target.pulses, p)
				}
			}

			targets = append(targets, target)
		}
	}

	return targets
}

// updatedPulses returns the pulses of a function whose memory has to change.
func (c *Compiler) updatedPulses(f *Function) []*Pulse {
	var updated []*Pulse

	for _, pid := range f.Pulses {
		if p := &c.pulses[pid]; p.NeedsUpdate() {
			updated = append(updated, p)
		}
	}

	return updated
}

// render returns the writes that bring the device memory from the committed
// pulse values to the current ones. Tick 0 is never written.
func (c *Compiler) render() []wire.Command {
	var cmds []wire.Command

	for i := range c.functions {
		f := &c.functions[i]
		if !f.IsUsed() {
			continue
		}

		updated := c.updatedPulses(f)
		if len(updated) == 0 {
			continue
		}

		for _, target := range c.targets(f, updated) {
			cmds = append(cmds, c.renderChannel(f, target)...)
		}
	}

	return cmds
}

func (c *Compiler) renderChannel(f *Function, target channelTarget) []wire.Command {
	if len(target.pulses) == 0 {
		return nil
	}

	old := NewArena(c.plan.MemorySize)
	cur := NewArena(c.plan.MemorySize)

	for _, p := range target.pulses {
		if p.WasActive && p.Old.Len > 0 {
			old.Mark(1+f.Delay+p.Old.Pos, p.Old.Len)
		}

		if p.IsActive() {
			cur.Mark(1+f.Delay+p.Pos, p.Len)
		}
	}

	var cmds []wire.Command

	d := NewDiffer(old, cur)
	for r, ok := d.Next(); ok; r, ok = d.Next() {
		cmds = append(cmds,
			wire.WriteConstant(target.channel, r.Start, r.Length, r.Level))
	}

	return cmds
}
