package program

import (
	"math"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/pulsegen/compiler"
	"github.com/sarchlab/pulsegen/device"
)

const ns = 1e-9

const sample = `
name = "echo"

[device]
max_channels = 8

[timing]
time_base = "5ns"
repeat_period = 1e-6

[defense]
gate_to_defense = "20 ns"
defense_to_gate = "20 ns"

[[functions]]
name = "MW"
phase_pods = { "+X" = 1, "-X" = 2 }

[[functions]]
name = "detection"
pods = [0]
delay = "10ns"
inverted = true
high = 5.0
low = 0.0

[[phase_cycles]]
num = 0
sequence = ["+X", "-X"]

[[pulses]]
num = 1
function = "MW"
position = "100ns"
length = "50ns"
position_change = "10ns"
phase_cycle = 0

[[pulses]]
num = 2
function = "DET"
position = 3e-7
length = "100ns"

[[steps]]
op = "shift"
pulses = [1]
repeat = 2

[[steps]]
op = "next_phase"
functions = ["MW"]
`

var _ = Describe("Seconds", func() {
	It("should read numbers and durations", func() {
		for text, expected := range map[string]float64{
			"1e-6":    1e-6,
			"100ns":   100 * ns,
			"1.5 us":  1500 * ns,
			" 2ms ":   2e-3,
			"0.25":    0.25,
			"1s":      1,
			"-10 ns":  -10 * ns,
			"3.5e-9":  3.5 * ns,
			"1h":      3600,
			"12 µs":   12e-6,
			"0":       0,
			"250000":  250000,
			"0.5 ms ": 0.5e-3,
			"7.5ns":   7.5 * ns,
			"750 ps":  0.75 * ns,
			"2.5m":    150,
		} {
			s, err := ParseSeconds(text)

			Expect(err).ToNot(HaveOccurred(), text)
			Expect(s).To(BeNumerically("~", expected, math.Abs(expected)*1e-9+1e-18), text)
		}
	})

	It("should reject garbage", func() {
		for _, text := range []string{"soon", "ns", "5 fortnights", "1.2.3us"} {
			_, err := ParseSeconds(text)

			Expect(err).To(HaveOccurred(), text)
		}
	})
})

var _ = Describe("Program", func() {
	It("should parse a program", func() {
		p, err := Parse([]byte(sample))

		Expect(err).ToNot(HaveOccurred())
		Expect(p.Name).To(Equal("echo"))
		Expect(float64(p.Timing.TimeBase)).To(BeNumerically("~", 5*ns, 1e-18))
		Expect(p.Timing.RepeatPeriod).NotTo(BeNil())
		Expect(p.Defense).NotTo(BeNil())
		Expect(p.Functions).To(HaveLen(2))
		Expect(p.Functions[0].PhasePods).To(HaveKeyWithValue("-X", 2))
		Expect(p.Functions[1].Inverted).To(BeTrue())
		Expect(p.Pulses).To(HaveLen(2))
		Expect(*p.Pulses[0].PhaseCycle).To(Equal(0))
		Expect(p.Pulses[1].PositionChange).To(BeNil())
		Expect(p.Steps).To(HaveLen(2))
		Expect(p.Steps[0].Times()).To(Equal(2))
		Expect(p.Steps[1].Times()).To(Equal(1))
	})

	It("should apply device overrides", func() {
		p, err := Parse([]byte(sample))
		Expect(err).ToNot(HaveOccurred())

		l := p.Limits()

		Expect(l.MaxChannels).To(Equal(8))
		Expect(l.MaxPods).To(Equal(device.DG2020Limits().MaxPods))
	})

	DescribeTable("should reject invalid programs",
		func(text string) {
			_, err := Parse([]byte(text))

			Expect(err).To(HaveOccurred())
		},
		Entry("syntax", `[timing`),
		Entry("unknown key", "[timing]\ntime_bse = 5e-9"),
		Entry("unknown function", "[[functions]]\nname = \"LASER\""),
		Entry("half levels", "[[functions]]\nname = \"MW\"\nhigh = 5.0"),
		Entry("unknown phase", "[[phase_cycles]]\nnum = 0\nsequence = [\"+Z\"]"),
		Entry("pulse function", "[[pulses]]\nnum = 1\nfunction = \"NOPE\""),
		Entry("unknown op", "[[steps]]\nop = \"jump\""),
		Entry("missing value", "[[steps]]\nop = \"set_length\"\npulses = [1]"),
		Entry("missing pulses", "[[steps]]\nop = \"set_length\"\nvalue = 1e-8"),
		Entry("negative repeat", "[[steps]]\nop = \"update\"\nrepeat = -1"),
		Entry("bad time", "[timing]\ntime_base = \"fast\""),
		Entry("bad time type", "[timing]\ntime_base = true"),
	)

	It("should load programs from files", func() {
		path := filepath.Join(GinkgoT().TempDir(), "echo.toml")
		Expect(os.WriteFile(path, []byte(sample), 0o644)).To(Succeed())

		p, err := Load(path)

		Expect(err).ToNot(HaveOccurred())
		Expect(p.Path).To(Equal(path))
	})

	It("should name the file that cannot be read", func() {
		_, err := Load("/nonexistent/echo.toml")

		Expect(err).To(MatchError(ContainSubstring("/nonexistent/echo.toml")))
	})

	Context("when declaring", func() {
		var (
			p *Program
			c *compiler.Compiler
		)

		BeforeEach(func() {
			var err error
			p, err = Parse([]byte(sample))
			Expect(err).ToNot(HaveOccurred())

			c = p.NewCompiler()
		})

		It("should declare functions and pulses", func() {
			Expect(p.Declare(c)).To(Succeed())

			Expect(c.Limits().MaxChannels).To(Equal(8))

			pods, err := c.FunctionPods(device.Microwave)
			Expect(err).ToNot(HaveOccurred())
			Expect(pods).To(Equal([]device.Pod{1, 2}))

			det := c.Function(device.Detection)
			Expect(det.Inverted).To(BeTrue())
			Expect(det.HasLevels).To(BeTrue())
			Expect(det.Delay).To(BeEquivalentTo(2))

			pos, err := c.PulsePosition(2)
			Expect(err).ToNot(HaveOccurred())
			Expect(pos).To(BeNumerically("~", 300*ns, 1e-15))

			cycle, err := c.PulsePhaseCycle(1)
			Expect(err).ToNot(HaveOccurred())
			Expect(cycle).To(Equal(0))
		})

		It("should keep the compiler error", func() {
			p.Pulses[1].Function = "MW"
			p.Pulses[1].Num = 1

			err := p.Declare(c)

			Expect(err).To(MatchError(compiler.ErrDuplicatePulse))
			Expect(err).To(MatchError(ContainSubstring("pulse #1")))
		})

		It("should report bad time bases", func() {
			p.Timing.TimeBase = 1

			err := p.Declare(c)

			Expect(err).To(MatchError(compiler.ErrInvalidTimeBase))
		})
	})
})
