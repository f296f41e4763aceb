package timebase_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pulsegen/timebase"
)

var _ = Describe("TimeBase", func() {
	var tb timebase.TimeBase

	BeforeEach(func() {
		tb = timebase.New(5e-9)
	})

	It("should reject conversions without a time base", func() {
		_, err := timebase.TimeBase{}.ToTicks(1e-6)
		Expect(err).To(MatchError(timebase.ErrInvalidTimeBase))
	})

	It("should convert exact multiples", func() {
		t, err := tb.ToTicks(100e-9)
		Expect(err).NotTo(HaveOccurred())
		Expect(t).To(Equal(timebase.Ticks(20)))

		t, err = tb.ToTicks(50e-9)
		Expect(err).NotTo(HaveOccurred())
		Expect(t).To(Equal(timebase.Ticks(10)))
	})

	It("should accept zero", func() {
		t, err := tb.ToTicks(0)
		Expect(err).NotTo(HaveOccurred())
		Expect(t).To(Equal(timebase.Ticks(0)))
	})

	It("should accept small deviations", func() {
		t, err := tb.ToTicks(100.02e-9)
		Expect(err).NotTo(HaveOccurred())
		Expect(t).To(Equal(timebase.Ticks(20)))
	})

	It("should reject times that are not a multiple", func() {
		_, err := tb.ToTicks(7e-9)
		Expect(err).To(MatchError(timebase.ErrNotAnIntegerMultiple))
	})

	It("should reject non-zero times that round to zero ticks", func() {
		_, err := timebase.New(1).ToTicks(1e-3)
		Expect(err).To(MatchError(timebase.ErrNotAnIntegerMultiple))
	})

	It("should round half away from zero", func() {
		big := timebase.New(1e-9)
		t, err := big.ToTicks(-3e-9)
		Expect(err).NotTo(HaveOccurred())
		Expect(t).To(Equal(timebase.Ticks(-3)))
	})

	It("should reject times outside the tick range", func() {
		_, err := tb.ToTicks(100)
		Expect(err).To(MatchError(timebase.ErrTimeOutOfRange))

		_, err = tb.ToTicks(math.NaN())
		Expect(err).To(MatchError(timebase.ErrTimeOutOfRange))
	})

	It("should round trip exact multiples", func() {
		for _, base := range []float64{5e-9, 1e-8, 2.5e-7, 1e-3} {
			b := timebase.New(base)
			for _, n := range []int64{0, 1, 7, 20, 1000, 65535} {
				seconds := float64(n) * base
				t, err := b.ToTicks(seconds)
				Expect(err).NotTo(HaveOccurred())
				Expect(b.ToSeconds(t)).To(Equal(seconds))
			}
		}
	})

	It("should format times", func() {
		Expect(timebase.FormatSeconds(100e-9)).To(Equal("100 ns"))
		Expect(timebase.FormatSeconds(1.5e-6)).To(Equal("1.5 us"))
		Expect(timebase.FormatSeconds(2e-3)).To(Equal("2 ms"))
		Expect(timebase.FormatSeconds(3)).To(Equal("3 s"))
		Expect(timebase.FormatSeconds(0)).To(Equal("0 s"))
		Expect(tb.Format(20)).To(Equal("100 ns"))
		Expect(timebase.TimeBase{}.Format(20)).To(Equal("20 ticks"))
	})
})
