package compiler

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/pulsegen/device"
	"github.com/sarchlab/pulsegen/timebase"
)

var _ = Describe("PlanPadding", func() {
	var limits device.Limits

	BeforeEach(func() {
		limits = device.DG2020Limits()
	})

	It("should reserve one tick without a period", func() {
		plan, err := PlanPadding(limits, 30, 0)

		Expect(err).To(BeNil())
		Expect(plan.MemorySize).To(Equal(timebase.Ticks(31)))
		Expect(plan.UseBlocks).To(BeFalse())
	})

	It("should split padding into blocks and a tail", func() {
		plan, err := PlanPadding(limits, 0, 1000)

		Expect(err).To(BeNil())
		Expect(plan.Padding).To(Equal(timebase.Ticks(1000)))
		Expect(plan.BlockLength).To(Equal(timebase.Ticks(64)))
		Expect(plan.BlockRepeat).To(Equal(int64(15)))
		Expect(plan.Tail).To(Equal(timebase.Ticks(40)))
		Expect(plan.MaxSeqLen).To(Equal(timebase.Ticks(40)))
		Expect(plan.MemorySize).To(Equal(timebase.Ticks(40 + 64 + 1)))
		Expect(plan.UseBlocks).To(BeTrue())
		Expect(plan.Blocks[0]).To(Equal(Block{
			Name: PatternBlock, Start: 0, Repeat: 1, IsUsed: true,
		}))
		Expect(plan.Blocks[1]).To(Equal(Block{
			Name: PaddingBlock, Start: 41, Repeat: 15, IsUsed: true,
		}))
	})

	It("should pad short periods without blocks", func() {
		plan, err := PlanPadding(limits, 30, 100)

		Expect(err).To(BeNil())
		Expect(plan.BlockRepeat).To(Equal(int64(1)))
		Expect(plan.UseBlocks).To(BeFalse())
		Expect(plan.MaxSeqLen).To(Equal(timebase.Ticks(100)))
		Expect(plan.MemorySize).To(Equal(timebase.Ticks(101)))
	})

	It("should flag patterns longer than the period", func() {
		plan, err := PlanPadding(limits, 300, 200)

		Expect(err).To(BeNil())
		Expect(plan.PeriodExceeded).To(BeTrue())
		Expect(plan.MemorySize).To(Equal(timebase.Ticks(301)))
	})

	It("should reject patterns that do not fit", func() {
		_, err := PlanPadding(limits, 65536, 0)

		Expect(err).To(MatchError(ErrPatternTooLarge))
	})

	It("should grow blocks for long periods", func() {
		plan, err := PlanPadding(limits, 10, 10+64*65536*3)

		Expect(err).To(BeNil())
		Expect(plan.BlockLength).To(Equal(timebase.Ticks(192)))
		Expect(plan.BlockRepeat).To(Equal(int64(65536)))
	})

	It("should keep blocks within the device limits", func() {
		for padding := timebase.Ticks(128); padding < 1<<26; padding = padding*3 + 7 {
			plan, err := PlanPadding(limits, 0, padding)
			Expect(err).To(BeNil())

			Expect(plan.BlockLength).To(BeNumerically(">=", limits.MinBlockSize))
			Expect(plan.BlockRepeat).To(BeNumerically("<=", limits.MaxBlockRepeats))
			Expect(plan.Tail + plan.BlockLength*timebase.Ticks(plan.BlockRepeat)).
				To(Equal(padding))
		}
	})

	It("should set up memory and sequence on the device", func() {
		plan, _ := PlanPadding(limits, 0, 1000)

		cmds := plan.commands()

		Expect(cmds).To(HaveLen(4))
		Expect(cmds[0].String()).To(Equal("MEMORY 105"))
		Expect(cmds[3].String()).To(Equal("SEQUENCE B0x1 B1x15"))
	})
})
