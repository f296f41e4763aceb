package compiler

import (
	"github.com/sarchlab/pulsegen/device"
	"github.com/sarchlab/pulsegen/timebase"
	"github.com/sarchlab/pulsegen/wire"
)

// The names of the blocks of a padded pattern.
const (
	PatternBlock = "B0"
	PaddingBlock = "B1"
)

// Block is a region of pattern memory played a number of times.
type Block struct {
	Name   string
	Start  timebase.Ticks
	Repeat int64
	IsUsed bool
}

// Plan is the memory layout worked out at the end of the test run.
type Plan struct {
	// MaxSeqLen is the number of ticks after the reserved tick that hold
	// pulses, including the padding tail.
	MaxSeqLen  timebase.Ticks
	MemorySize timebase.Ticks

	RepeatPeriod timebase.Ticks
	Padding      timebase.Ticks
	BlockLength  timebase.Ticks
	BlockRepeat  int64
	Tail         timebase.Ticks

	Blocks         [2]Block
	UseBlocks      bool
	PeriodExceeded bool
}

// PlanPadding works out the memory layout for a pattern of maxSeqLen ticks.
// A zero period means the pattern is not padded.
//
// Padding is split into a block of at least MinBlockSize ticks that is
// repeated up to MaxBlockRepeats times, plus a tail that is appended to the
// pattern itself.
func PlanPadding(
	limits device.Limits,
	maxSeqLen, period timebase.Ticks,
) (Plan, *Error) {
	plan := Plan{
		MaxSeqLen:    maxSeqLen,
		RepeatPeriod: period,
	}

	if period > 0 {
		plan.Padding = period - maxSeqLen
	}

	switch {
	case period <= 0:
	case plan.Padding <= 0:
		plan.PeriodExceeded = true
		plan.Padding = 0
	default:
		planBlocks(limits, &plan)
	}

	if !plan.UseBlocks {
		plan.MemorySize = plan.MaxSeqLen + 1
	}

	if int64(plan.MemorySize) > limits.MaxPulserBits {
		return plan, newError(ErrPatternTooLarge,
			"%d ticks needed, device has %d",
			plan.MemorySize, limits.MaxPulserBits)
	}

	return plan, nil
}

func planBlocks(limits device.Limits, plan *Plan) {
	minBlock := timebase.Ticks(limits.MinBlockSize)
	maxRepeats := timebase.Ticks(limits.MaxBlockRepeats)

	plan.BlockLength = (plan.Padding + maxRepeats - 1) / maxRepeats
	if plan.BlockLength < minBlock {
		plan.BlockLength = minBlock
	}

	plan.BlockRepeat = int64(plan.Padding / plan.BlockLength)
	plan.Tail = plan.Padding % plan.BlockLength

	if plan.BlockRepeat < 2 {
		plan.MaxSeqLen += plan.Padding
		return
	}

	plan.MaxSeqLen += plan.Tail
	plan.UseBlocks = true
	plan.MemorySize = plan.MaxSeqLen + plan.BlockLength + 1
	plan.Blocks = [2]Block{
		{Name: PatternBlock, Start: 0, Repeat: 1, IsUsed: true},
		{
			Name:   PaddingBlock,
			Start:  plan.MaxSeqLen + 1,
			Repeat: plan.BlockRepeat,
			IsUsed: true,
		},
	}
}

// commands returns the device commands that set up the layout.
func (p Plan) commands() []wire.Command {
	cmds := []wire.Command{wire.SetMemorySize(p.MemorySize)}

	if !p.UseBlocks {
		return cmds
	}

	var seq []wire.SequenceEntry

	for _, b := range p.Blocks {
		if !b.IsUsed {
			continue
		}

		cmds = append(cmds, wire.DefineBlock(wire.Block{
			Name:  b.Name,
			Start: b.Start,
		}))
		seq = append(seq, wire.SequenceEntry{Block: b.Name, Repeat: b.Repeat})
	}

	return append(cmds, wire.DefineSequence(seq))
}
