package wire_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pulsegen/device"
	"github.com/sarchlab/pulsegen/wire"
)

var _ = Describe("Transcript", func() {
	It("should record and forward commands", func() {
		m := wire.NewMemory(device.DG2020Limits())
		t := wire.NewTranscript(m)

		Expect(t.SetMemorySize(16)).To(Succeed())
		Expect(t.WriteConstant(3, 1, 4, true)).To(Succeed())
		Expect(t.AssignChannel(3, 0)).To(Succeed())

		Expect(t.Commands()).To(Equal([]wire.Command{
			wire.SetMemorySize(16),
			wire.WriteConstant(3, 1, 4, true),
			wire.AssignChannel(3, 0),
		}))
		Expect(m.Bits(3)[1:5]).To(Equal([]bool{true, true, true, true}))
	})

	It("should replay an encoded transcript onto another device", func() {
		t := wire.NewTranscript(nil)
		Expect(t.SetMemorySize(100)).To(Succeed())
		Expect(t.DefineBlock(wire.Block{Name: "B0", Start: 0})).To(Succeed())
		Expect(t.DefineSequence([]wire.SequenceEntry{
			{Block: "B0", Repeat: 1},
		})).To(Succeed())
		Expect(t.SetPodLevels(2, 5, 0)).To(Succeed())
		Expect(t.WriteConstant(0, 10, 20, true)).To(Succeed())
		Expect(t.Start()).To(Succeed())

		data, err := wire.MarshalCommands(t.Commands())
		Expect(err).NotTo(HaveOccurred())

		decoded, err := wire.UnmarshalCommands(data)
		Expect(err).NotTo(HaveOccurred())

		m := wire.NewMemory(device.DG2020Limits())
		Expect(wire.Replay(m, decoded)).To(Succeed())
		Expect(m.IsRunning()).To(BeTrue())
		Expect(m.Bits(0)[10]).To(BeTrue())
		Expect(m.Bits(0)[30]).To(BeFalse())
		Expect(m.PeriodLength()).To(BeEquivalentTo(100))
	})

	It("should render commands readably", func() {
		Expect(wire.WriteConstant(3, 1, 4, true).String()).
			To(Equal("WRITE ch3 [1,+4) HIGH"))
		Expect(wire.DefineSequence([]wire.SequenceEntry{
			{Block: "B0", Repeat: 1}, {Block: "B1", Repeat: 15},
		}).String()).To(Equal("SEQUENCE B0x1 B1x15"))
	})
})
