package compiler

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/pulsegen/timebase"
)

func arenaOf(bits string) Arena {
	a := make(Arena, len(bits))
	for i, b := range bits {
		a[i] = b == '1'
	}

	return a
}

func applyRuns(a Arena, runs []Run) Arena {
	out := append(Arena(nil), a...)
	for _, r := range runs {
		for i := r.Start; i < r.Start+r.Length; i++ {
			out[i] = r.Level
		}
	}

	return out
}

var _ = Describe("Arena", func() {
	It("should mark a range", func() {
		a := NewArena(8)
		a.Mark(2, 3)

		Expect(a).To(Equal(arenaOf("00111000")))
	})

	It("should clip marks to the arena", func() {
		a := NewArena(4)
		a.Mark(2, 10)

		Expect(a).To(Equal(arenaOf("0011")))
	})
})

var _ = Describe("Differ", func() {
	It("should emit nothing for equal arenas", func() {
		a := arenaOf("0011100110")
		d := NewDiffer(a, append(Arena(nil), a...))

		_, ok := d.Next()
		Expect(ok).To(BeFalse())
	})

	It("should split runs where the old level changes", func() {
		old := arenaOf("0001111000")
		cur := arenaOf("0110000000")

		runs := NewDiffer(old, cur).Runs()

		Expect(runs).To(Equal([]Run{
			{Start: 1, Length: 2, Level: true},
			{Start: 3, Length: 4, Level: false},
		}))
	})

	It("should cover a moved pulse with two writes", func() {
		old := arenaOf("0000111100")
		cur := arenaOf("0001111000")

		runs := NewDiffer(old, cur).Runs()

		Expect(runs).To(Equal([]Run{
			{Start: 3, Length: 1, Level: true},
			{Start: 7, Length: 1, Level: false},
		}))
	})

	It("should restart after reset", func() {
		d := NewDiffer(arenaOf("0110"), arenaOf("0000"))

		first := d.Runs()
		_, ok := d.Next()
		Expect(ok).To(BeFalse())

		d.Reset()
		Expect(d.Runs()).To(Equal(first))
	})

	It("should keep channels independent", func() {
		d1 := NewDiffer(arenaOf("1100"), arenaOf("0000"))
		d2 := NewDiffer(arenaOf("0000"), arenaOf("0011"))

		r1, _ := d1.Next()
		r2, _ := d2.Next()

		Expect(r1).To(Equal(Run{Start: 0, Length: 2, Level: false}))
		Expect(r2).To(Equal(Run{Start: 2, Length: 2, Level: true}))
	})

	It("should panic on arenas of different size", func() {
		Expect(func() { NewDiffer(NewArena(2), NewArena(3)) }).To(Panic())
	})

	It("should reproduce the new arena with unmergeable runs", func() {
		r := rand.New(rand.NewSource(1))

		for n := 0; n < 200; n++ {
			size := 1 + r.Intn(64)
			old := NewArena(timebase.Ticks(size))
			cur := NewArena(timebase.Ticks(size))

			for i := 0; i < size; i++ {
				old[i] = r.Intn(2) == 1
				cur[i] = r.Intn(2) == 1
			}

			runs := NewDiffer(old, cur).Runs()

			Expect(applyRuns(old, runs)).To(Equal(cur))

			for i := 1; i < len(runs); i++ {
				prev := runs[i-1]
				adjacent := prev.Start+prev.Length == runs[i].Start
				if adjacent {
					Expect(prev.Level).NotTo(Equal(runs[i].Level))
				}
			}

			Expect(NewDiffer(cur, cur).Runs()).To(BeEmpty())
		}
	})
})
