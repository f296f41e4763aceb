// Package timebase converts between physical times and the integer ticks the
// pattern generator counts in.
package timebase

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Ticks counts multiples of the time base.
type Ticks int64

// MaxTicks is the largest tick count the device can address.
const MaxTicks Ticks = math.MaxInt32

// Tolerance is the largest deviation, in ticks, a time may have from an
// integer multiple of the time base.
const Tolerance = 1e-2

var (
	// ErrInvalidTimeBase is returned when no time base is configured.
	ErrInvalidTimeBase = errors.New("time base not set")

	// ErrTimeOutOfRange is returned when a time does not fit the tick range.
	ErrTimeOutOfRange = errors.New("time out of range")

	// ErrNotAnIntegerMultiple is returned when a time is not an integer
	// multiple of the time base.
	ErrNotAnIntegerMultiple = errors.New("time is not an integer multiple of the time base")
)

// TimeBase is the duration of one tick. The zero value is an unset time base.
type TimeBase struct {
	seconds float64
}

// New creates a time base of the given length in seconds.
func New(seconds float64) TimeBase {
	return TimeBase{seconds: seconds}
}

// IsSet tells if the time base has been configured.
func (tb TimeBase) IsSet() bool {
	return tb.seconds > 0 && !math.IsInf(tb.seconds, 0)
}

// Seconds returns the length of one tick.
func (tb TimeBase) Seconds() float64 {
	return tb.seconds
}

// ToTicks converts a time to ticks.
//
// Rounding is half away from zero. A non-zero time that rounds to zero ticks
// is never accepted.
func (tb TimeBase) ToTicks(seconds float64) (Ticks, error) {
	if !tb.IsSet() {
		return 0, ErrInvalidTimeBase
	}

	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0, ErrTimeOutOfRange
	}

	ratio := seconds / tb.seconds
	if math.Abs(ratio) > float64(MaxTicks) {
		return 0, fmt.Errorf("%w: %s", ErrTimeOutOfRange, FormatSeconds(seconds))
	}

	rounded := math.Round(ratio)
	if math.Abs(rounded-ratio) > Tolerance || (seconds != 0 && rounded == 0) {
		return 0, fmt.Errorf("%w: %s with a time base of %s",
			ErrNotAnIntegerMultiple, FormatSeconds(seconds),
			FormatSeconds(tb.seconds))
	}

	return Ticks(rounded), nil
}

// ToSeconds converts ticks back to a time.
func (tb TimeBase) ToSeconds(t Ticks) float64 {
	return float64(t) * tb.seconds
}

// Format renders a tick count as a human-readable time. Without a time base
// the raw tick count is printed.
func (tb TimeBase) Format(t Ticks) string {
	if !tb.IsSet() {
		return strconv.FormatInt(int64(t), 10) + " ticks"
	}

	return FormatSeconds(tb.ToSeconds(t))
}

var units = []struct {
	scale float64
	name  string
}{
	{1, "s"},
	{1e-3, "ms"},
	{1e-6, "us"},
	{1e-9, "ns"},
	{1e-12, "ps"},
}

// FormatSeconds renders a time with the largest unit that keeps the
// magnitude at or above one.
func FormatSeconds(seconds float64) string {
	if seconds == 0 {
		return "0 s"
	}

	abs := math.Abs(seconds)
	for _, u := range units {
		if abs >= u.scale*(1-1e-9) {
			return strconv.FormatFloat(seconds/u.scale, 'g', 6, 64) + " " + u.name
		}
	}

	last := units[len(units)-1]

	return strconv.FormatFloat(seconds/last.scale, 'g', 6, 64) + " " + last.name
}
