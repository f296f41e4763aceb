package compiler

import (
	"github.com/sarchlab/pulsegen/timebase"
)

// Arena is the on/off state of one channel over the pattern memory.
type Arena []bool

// NewArena creates an all-low arena of size ticks.
func NewArena(size timebase.Ticks) Arena {
	return make(Arena, size)
}

// Mark sets the ticks [start, start+length) high. Ticks outside of the arena
// are ignored.
func (a Arena) Mark(start, length timebase.Ticks) {
	end := start + length
	if start < 0 {
		start = 0
	}

	if end > timebase.Ticks(len(a)) {
		end = timebase.Ticks(len(a))
	}

	for i := start; i < end; i++ {
		a[i] = true
	}
}

// Run is a range of ticks that has to be written with one level.
type Run struct {
	Start  timebase.Ticks
	Length timebase.Ticks
	Level  bool
}

// Differ walks two arenas and yields the runs that turn the old one into
// the new one.
//
// A run covers consecutive ticks that differ between the arenas and share
// the same old value, so writing the inverted old level over the run is
// enough. Ticks that are equal are never written.
type Differ struct {
	old, cur Arena
	pos      int
}

// NewDiffer creates a differ. Both arenas must have the same length.
func NewDiffer(old, cur Arena) *Differ {
	if len(old) != len(cur) {
		panic("arenas of different size")
	}

	return &Differ{old: old, cur: cur}
}

// Next returns the next run. It returns false when no differences are left.
func (d *Differ) Next() (Run, bool) {
	for d.pos < len(d.old) && d.old[d.pos] == d.cur[d.pos] {
		d.pos++
	}

	if d.pos == len(d.old) {
		return Run{}, false
	}

	start := d.pos
	level := d.old[start]

	for d.pos < len(d.old) &&
		d.old[d.pos] != d.cur[d.pos] &&
		d.old[d.pos] == level {
		d.pos++
	}

	return Run{
		Start:  timebase.Ticks(start),
		Length: timebase.Ticks(d.pos - start),
		Level:  !level,
	}, true
}

// Reset starts the walk over.
func (d *Differ) Reset() {
	d.pos = 0
}

// Runs returns all remaining runs.
func (d *Differ) Runs() []Run {
	var runs []Run

	for {
		r, ok := d.Next()
		if !ok {
			return runs
		}

		runs = append(runs, r)
	}
}
