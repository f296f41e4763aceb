package compiler

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/pulsegen/device"
	"github.com/sarchlab/pulsegen/hooking"
	"github.com/sarchlab/pulsegen/timebase"
	"github.com/sarchlab/pulsegen/wire"
	gomock "go.uber.org/mock/gomock"
)

var errDevice = errors.New("device offline")

func highTicks(bits []bool) []int {
	var high []int
	for i, b := range bits {
		if b {
			high = append(high, i)
		}
	}

	return high
}

func tickRange(start, end int) []int {
	var r []int
	for i := start; i < end; i++ {
		r = append(r, i)
	}

	return r
}

func runTest(c *Compiler) {
	Expect(c.StartTestRun()).To(Succeed())
	Expect(c.EndTestRun()).To(Succeed())
}

var _ = Describe("Real run", func() {
	var (
		c   *Compiler
		mem *wire.Memory
	)

	BeforeEach(func() {
		c = newTestCompiler()
		mem = wire.NewMemory(c.Limits())
		Expect(c.AssignPod(device.Microwave, 0)).To(Succeed())
	})

	It("should write the pattern after the reserved tick", func() {
		declarePulse(c, 1, device.Microwave, 100*ns, 50*ns)
		runTest(c)

		Expect(c.StartRealRun(mem)).To(Succeed())

		Expect(c.Mode()).To(Equal(ModeReal))
		Expect(mem.IsRunning()).To(BeTrue())
		Expect(mem.Size()).To(Equal(timebase.Ticks(31)))
		Expect(highTicks(mem.Bits(0))).To(Equal(tickRange(21, 31)))

		ch, ok := mem.PodChannel(0)
		Expect(ok).To(BeTrue())
		Expect(ch).To(Equal(device.Channel(0)))
	})

	It("should start from the initial values after the test run", func() {
		declarePulse(c, 1, device.Microwave, 100*ns, 50*ns)
		Expect(c.StartTestRun()).To(Succeed())
		Expect(c.SetPulsePosition(1, 0)).To(Succeed())
		Expect(c.Update()).To(Succeed())
		Expect(c.EndTestRun()).To(Succeed())

		Expect(c.StartRealRun(mem)).To(Succeed())

		Expect(highTicks(mem.Bits(0))).To(Equal(tickRange(21, 31)))
	})

	It("should drive inverted functions with swapped levels", func() {
		Expect(c.SetFunctionLevels(device.Microwave, 5, 0)).To(Succeed())
		Expect(c.SetFunctionInverted(device.Microwave, true)).To(Succeed())
		declarePulse(c, 1, device.Microwave, 0, 50*ns)
		runTest(c)

		Expect(c.StartRealRun(mem)).To(Succeed())

		high, low, ok := mem.PodLevels(0)
		Expect(ok).To(BeTrue())
		Expect(high).To(Equal(0.0))
		Expect(low).To(Equal(5.0))
	})

	It("should invert the default levels without levels of its own", func() {
		Expect(c.SetFunctionInverted(device.Microwave, true)).To(Succeed())
		declarePulse(c, 1, device.Microwave, 100*ns, 50*ns)
		runTest(c)

		Expect(c.StartRealRun(mem)).To(Succeed())

		high, low, ok := mem.PodLevels(0)
		Expect(ok).To(BeTrue())
		Expect(high).To(Equal(c.Limits().DefaultPodLowVoltage))
		Expect(low).To(Equal(c.Limits().DefaultPodHighVoltage))
	})

	It("should leave pod levels alone for plain functions", func() {
		declarePulse(c, 1, device.Microwave, 100*ns, 50*ns)
		runTest(c)

		Expect(c.StartRealRun(mem)).To(Succeed())

		_, _, ok := mem.PodLevels(0)
		Expect(ok).To(BeFalse())
	})

	It("should set up blocks for the repeat period", func() {
		Expect(c.SetRepeatPeriod(5000 * ns)).To(Succeed())
		declarePulse(c, 1, device.Microwave, 100*ns, 50*ns)
		runTest(c)

		Expect(c.StartRealRun(mem)).To(Succeed())

		Expect(mem.Size()).To(Equal(timebase.Ticks(105)))
		Expect(mem.Blocks()).To(Equal([]wire.Block{
			{Name: PatternBlock, Start: 0},
			{Name: PaddingBlock, Start: 41},
		}))
		Expect(mem.PeriodLength()).To(Equal(timebase.Ticks(1001)))
	})

	It("should apply updates", func() {
		declarePulse(c, 1, device.Microwave, 100*ns, 50*ns)
		declarePulse(c, 2, device.Microwave, 0, 25*ns)
		runTest(c)
		Expect(c.StartRealRun(mem)).To(Succeed())

		Expect(c.SetPulsePosition(1, 50*ns)).To(Succeed())
		Expect(c.SetPulseLength(2, 10*ns)).To(Succeed())
		Expect(c.Update()).To(Succeed())

		Expect(highTicks(mem.Bits(0))).
			To(Equal(append(tickRange(1, 3), tickRange(11, 21)...)))
		Expect(mem.IsRunning()).To(BeTrue())
	})

	It("should clear pulses that become inactive", func() {
		declarePulse(c, 1, device.Microwave, 100*ns, 50*ns)
		runTest(c)
		Expect(c.StartRealRun(mem)).To(Succeed())

		Expect(c.SetPulseLength(1, 0)).To(Succeed())
		Expect(c.Update()).To(Succeed())

		Expect(highTicks(mem.Bits(0))).To(BeEmpty())
	})

	It("should roll back a failing update without writing", func() {
		declarePulse(c, 1, device.Microwave, 100*ns, 50*ns)
		declarePulse(c, 2, device.Microwave, 0, 25*ns)
		runTest(c)

		transcript := wire.NewTranscript(mem)
		Expect(c.StartRealRun(transcript)).To(Succeed())
		sent := len(transcript.Commands())

		var rolledBack []interface{}
		c.AcceptHook(hooking.HookFunc(func(ctx hooking.HookCtx) {
			if ctx.Pos == HookPosRollback {
				rolledBack = append(rolledBack, ctx.Item)
			}
		}))

		Expect(c.SetPulsePosition(2, 95*ns)).To(Succeed())
		Expect(c.SetPulseLength(1, 20*ns)).To(Succeed())
		err := c.Update()

		Expect(err).To(MatchError(ErrPulseOverlap))
		Expect(IsRecoverable(err)).To(BeTrue())
		Expect(transcript.Commands()).To(HaveLen(sent))
		Expect(rolledBack).To(HaveLen(1))
		Expect(pulseState(c, 1).Len).To(Equal(timebase.Ticks(10)))
		Expect(pulseState(c, 2).Pos).To(Equal(timebase.Ticks(0)))

		Expect(c.Update()).To(Succeed())
		Expect(transcript.Commands()).To(HaveLen(sent))
	})

	It("should not let pulses grow past the planned sequence", func() {
		declarePulse(c, 1, device.Microwave, 100*ns, 50*ns)
		runTest(c)
		Expect(c.StartRealRun(mem)).To(Succeed())

		Expect(c.SetPulsePosition(1, 105*ns)).To(Succeed())
		err := c.Update()

		Expect(err).To(MatchError(ErrSequenceTooLong))
		Expect(IsRecoverable(err)).To(BeTrue())
		Expect(highTicks(mem.Bits(0))).To(Equal(tickRange(21, 31)))
	})

	It("should fail on distance violations", func() {
		Expect(c.AssignPod(device.TWTGate, 1)).To(Succeed())
		Expect(c.AssignPod(device.Defense, 2)).To(Succeed())
		Expect(c.SetDefenseDistances(10*ns, 10*ns)).To(Succeed())
		declarePulse(c, 1, device.TWTGate, 100*ns, 50*ns)
		declarePulse(c, 2, device.Defense, 200*ns, 50*ns)
		runTest(c)
		Expect(c.StartRealRun(mem)).To(Succeed())

		Expect(c.SetPulsePosition(2, 155*ns)).To(Succeed())
		err := c.Update()

		Expect(err).To(MatchError(ErrDistanceViolation))
		Expect(IsRecoverable(err)).To(BeTrue())
	})

	It("should stop the device at the end", func() {
		declarePulse(c, 1, device.Microwave, 100*ns, 50*ns)
		runTest(c)
		Expect(c.StartRealRun(mem)).To(Succeed())

		Expect(c.EndRealRun()).To(Succeed())

		Expect(mem.IsRunning()).To(BeFalse())
		Expect(c.Mode()).To(Equal(ModeReady))
	})

	It("should refuse a real run before the test run", func() {
		declarePulse(c, 1, device.Microwave, 100*ns, 50*ns)

		Expect(c.StartRealRun(mem)).To(MatchError(ErrWrongMode))
	})
})

var _ = Describe("Real run commands", func() {
	var (
		mockCtrl *gomock.Controller
		dev      *MockDevice
		c        *Compiler
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		dev = NewMockDevice(mockCtrl)

		c = newTestCompiler()
		Expect(c.AssignPod(device.Microwave, 3)).To(Succeed())
		declarePulse(c, 1, device.Microwave, 100*ns, 50*ns)
		runTest(c)

		gomock.InOrder(
			dev.EXPECT().Stop(),
			dev.EXPECT().SetMemorySize(timebase.Ticks(31)),
			dev.EXPECT().AssignChannel(device.Channel(0), device.Pod(3)),
			dev.EXPECT().WriteConstant(device.Channel(0),
				timebase.Ticks(0), timebase.Ticks(31), false),
			dev.EXPECT().WriteConstant(device.Channel(0),
				timebase.Ticks(21), timebase.Ticks(10), true),
			dev.EXPECT().Start(),
		)
		Expect(c.StartRealRun(dev)).To(Succeed())
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should write only the ticks that change", func() {
		gomock.InOrder(
			dev.EXPECT().Stop(),
			dev.EXPECT().WriteConstant(device.Channel(0),
				timebase.Ticks(20), timebase.Ticks(1), true),
			dev.EXPECT().WriteConstant(device.Channel(0),
				timebase.Ticks(30), timebase.Ticks(1), false),
			dev.EXPECT().Start(),
		)

		Expect(c.SetPulsePosition(1, 95*ns)).To(Succeed())
		Expect(c.Update()).To(Succeed())
	})

	It("should not touch the device when nothing changed", func() {
		Expect(c.Update()).To(Succeed())
		Expect(c.ShiftPulses()).To(Succeed())
		Expect(c.Update()).To(Succeed())
	})

	It("should not touch the device for a failing update", func() {
		Expect(c.SetPulseLength(1, 100*ns)).To(Succeed())

		err := c.Update()

		Expect(IsRecoverable(err)).To(BeTrue())
	})

	It("should report device failures", func() {
		dev.EXPECT().Stop().Return(errDevice)

		Expect(c.SetPulsePosition(1, 95*ns)).To(Succeed())
		err := c.Update()

		Expect(err).To(MatchError(errDevice))
		Expect(IsRecoverable(err)).To(BeFalse())
	})

	It("should end the real run when the device fails mid-update", func() {
		gomock.InOrder(
			dev.EXPECT().Stop(),
			dev.EXPECT().WriteConstant(device.Channel(0),
				timebase.Ticks(20), timebase.Ticks(1), true).
				Return(errDevice),
		)

		Expect(c.SetPulsePosition(1, 95*ns)).To(Succeed())
		err := c.Update()

		Expect(err).To(MatchError(errDevice))
		Expect(IsRecoverable(err)).To(BeFalse())
		Expect(c.Mode()).To(Equal(ModeReady))
		Expect(pulseState(c, 1).Pos).To(Equal(timebase.Ticks(20)))
		Expect(c.Update()).To(MatchError(ErrWrongMode))
	})
})
