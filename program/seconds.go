package program

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Seconds is a time in seconds. Program files write it either as a number of
// seconds or as a number with a unit such as "100ns" or "1.5 us".
type Seconds float64

// UnmarshalTOML decodes a number or a string with a unit.
func (s *Seconds) UnmarshalTOML(v interface{}) error {
	switch v := v.(type) {
	case float64:
		*s = Seconds(v)
	case int64:
		*s = Seconds(v)
	case string:
		f, err := ParseSeconds(v)
		if err != nil {
			return err
		}

		*s = Seconds(f)
	default:
		return errors.Errorf("cannot use %T as a time", v)
	}

	return nil
}

var units = []struct {
	suffix string
	scale  float64
}{
	{"ps", 1e-12},
	{"ns", 1e-9},
	{"us", 1e-6},
	{"µs", 1e-6},
	{"μs", 1e-6},
	{"ms", 1e-3},
	{"s", 1},
	{"m", 60},
	{"h", 3600},
}

// ParseSeconds reads a time given as a number of seconds or as a number with
// a unit from ps to h. Fractions are kept, so "7.5ns" is exactly 7.5e-9.
func ParseSeconds(s string) (float64, error) {
	trimmed := strings.ReplaceAll(strings.TrimSpace(s), " ", "")

	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f, nil
	}

	for _, u := range units {
		number, found := strings.CutSuffix(trimmed, u.suffix)
		if !found {
			continue
		}

		f, err := strconv.ParseFloat(number, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "invalid time %q", s)
		}

		return f * u.scale, nil
	}

	return 0, errors.Errorf("invalid time %q: unknown unit", s)
}
