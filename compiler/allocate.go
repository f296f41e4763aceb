package compiler

import (
	"github.com/sarchlab/pulsegen/device"
)

// neededChannels returns how many channels a used function occupies. A
// single-pod function needs one. A phase-cycled function needs one per phase
// combination in use, plus a constant channel if any pod is idle in some
// stage.
func (c *Compiler) neededChannels(f *Function) int {
	if !f.IsPhaseCycled() {
		return 1
	}

	rows, cells := 0, 0

	for t := 0; t < device.NumPhaseTypes; t++ {
		if !f.Phase.IsSet[t] {
			continue
		}

		rows++

		for _, used := range f.PhaseMatrix[t] {
			if used {
				cells++
			}
		}
	}

	if cells < rows*c.numStages {
		cells++
	}

	return cells
}

// allocate binds channels to the used functions. Nothing is bound if the
// device does not have enough channels.
func (c *Compiler) allocate() *Error {
	used := c.UsedFunctions()
	total := 0

	for _, f := range used {
		f.NeededChannels = c.neededChannels(f)
		total += f.NeededChannels
	}

	if total > c.limits.MaxChannels {
		return newError(ErrInsufficientChannels, "%d needed, %d available",
			total, c.limits.MaxChannels)
	}

	for _, f := range used {
		c.bindChannels(f)
	}

	return nil
}

// takeChannel hands out the lowest free channel.
func (c *Compiler) takeChannel(f *Function) device.Channel {
	for i, owner := range c.channelOwner {
		if owner != device.NoFunction {
			continue
		}

		ch := device.Channel(i)
		c.channelOwner[i] = f.ID
		f.Channels = append(f.Channels, ch)

		return ch
	}

	panic("channel count checked before binding")
}

func (c *Compiler) bindChannels(f *Function) {
	if !f.IsPhaseCycled() {
		c.takeChannel(f)
		return
	}

	for t := 0; t < device.NumPhaseTypes; t++ {
		if !f.Phase.IsSet[t] {
			continue
		}

		for s, used := range f.PhaseMatrix[t] {
			if used {
				f.PCM[t][s] = c.takeChannel(f)
			}
		}
	}

	if len(f.Channels) == f.NeededChannels {
		return
	}

	f.ConstChannel = c.takeChannel(f)

	for t := 0; t < device.NumPhaseTypes; t++ {
		if !f.Phase.IsSet[t] {
			continue
		}

		for s, used := range f.PhaseMatrix[t] {
			if !used {
				f.PCM[t][s] = f.ConstChannel
			}
		}
	}
}
