package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sarchlab/pulsegen/device"
)

// Kind classifies what a failure means for the compile pass.
type Kind int

// The kinds of failures.
const (
	// ConfigurationError is a pre-flight problem with the declarations. It
	// is always fatal.
	ConfigurationError Kind = iota

	// ValidationError is a problem with the current pulse values. It is
	// fatal in a test run and rolled back in a real run.
	ValidationError

	// ResourceExhaustion means the device cannot hold the program. It is
	// always fatal.
	ResourceExhaustion

	// Advisory is reported but never changes control flow.
	Advisory
)

func (k Kind) String() string {
	switch k {
	case ConfigurationError:
		return "configuration error"
	case ValidationError:
		return "validation error"
	case ResourceExhaustion:
		return "resource exhaustion"
	case Advisory:
		return "advisory"
	}

	return fmt.Sprintf("kind(%d)", int(k))
}

// Code identifies a specific failure. Codes are comparable with errors.Is.
type Code struct {
	name string
	kind Kind
}

func (c *Code) Error() string {
	return c.name
}

// Kind returns the kind of failure the code belongs to.
func (c *Code) Kind() Kind {
	return c.kind
}

func newCode(kind Kind, name string) *Code {
	return &Code{name: name, kind: kind}
}

// Configuration errors.
var (
	ErrInvalidTimeBase     = newCode(ConfigurationError, "invalid time base")
	ErrMissingFunction     = newCode(ConfigurationError, "pulse has no function")
	ErrFunctionNotDeclared = newCode(ConfigurationError, "function has no pod assigned")
	ErrMissingPhaseSetup   = newCode(ConfigurationError, "function with several pods has no complete phase setup")
	ErrInvalidPod          = newCode(ConfigurationError, "invalid pod")
	ErrPodInUse            = newCode(ConfigurationError, "pod already in use")
	ErrInvalidLevels       = newCode(ConfigurationError, "invalid pod levels")
	ErrInvalidDelay        = newCode(ConfigurationError, "invalid delay")
	ErrInvalidFunction     = newCode(ConfigurationError, "invalid function")
	ErrUnknownPulse        = newCode(ConfigurationError, "unknown pulse")
	ErrDuplicatePulse      = newCode(ConfigurationError, "pulse already declared")
	ErrReservedPulseNumber = newCode(ConfigurationError, "negative pulse numbers are reserved")
	ErrUnknownPhaseCycle   = newCode(ConfigurationError, "unknown phase cycle")
	ErrInvalidPhaseCycle   = newCode(ConfigurationError, "invalid phase cycle")
	ErrValueNotSet         = newCode(ConfigurationError, "value not set")
	ErrWrongMode           = newCode(ConfigurationError, "operation not allowed now")
)

// Validation errors.
var (
	ErrTimeOutOfRange       = newCode(ValidationError, "time out of range")
	ErrNotAnIntegerMultiple = newCode(ValidationError, "time is not an integer multiple of the time base")
	ErrNegativePosition     = newCode(ValidationError, "negative pulse position")
	ErrPulseExceedsMemory   = newCode(ValidationError, "pulse exceeds pulser memory")
	ErrUnsupportedPhaseType = newCode(ValidationError, "unsupported phase type")
	ErrPhaseNotAllocated    = newCode(ValidationError, "phase never used in the test run")
	ErrPulseOverlap         = newCode(ValidationError, "pulses overlap")
	ErrSequenceTooLong      = newCode(ValidationError, "pulse sequence too long")
	ErrDistanceViolation    = newCode(ValidationError, "minimum distance violated")
	ErrNoChange             = newCode(ValidationError, "no change value set")
)

// Resource exhaustion errors.
var (
	ErrInsufficientChannels = newCode(ResourceExhaustion, "not enough channels")
	ErrPatternTooLarge      = newCode(ResourceExhaustion, "pattern too large for pulser memory")
)

// Advisories.
var (
	AdvDistance        = newCode(Advisory, "minimum distance violated")
	AdvUnusedPulse     = newCode(Advisory, "pulse never used")
	AdvUnusedFunction  = newCode(Advisory, "function never used")
	AdvPeriodExceeded  = newCode(Advisory, "pattern longer than repeat period")
	AdvIgnoredCycle    = newCode(Advisory, "phase cycle ignored")
	AdvNothingToOutput = newCode(Advisory, "no active pulses")
)

// Error is a failure or advisory raised by the compiler. It names the pulse
// or function involved.
type Error struct {
	Code     *Code
	Pulse    int
	HasPulse bool
	Function device.Function
	Msg      string
	Err      error

	// Recoverable is set when a real-run update failed and the pulses were
	// restored to their last committed values.
	Recoverable bool
}

func newError(code *Code, format string, args ...interface{}) *Error {
	return &Error{
		Code:     code,
		Function: device.NoFunction,
		Msg:      fmt.Sprintf(format, args...),
	}
}

func (e *Error) forPulse(p *Pulse) *Error {
	e.Pulse = p.Num
	e.HasPulse = true

	if e.Function == device.NoFunction {
		e.Function = p.Function
	}

	return e
}

func (e *Error) forFunction(f device.Function) *Error {
	e.Function = f
	return e
}

func (e *Error) wrap(err error) *Error {
	e.Err = err
	return e
}

// Kind returns the kind of the failure.
func (e *Error) Kind() Kind {
	return e.Code.kind
}

func (e *Error) Error() string {
	var b strings.Builder

	if e.HasPulse {
		fmt.Fprintf(&b, "pulse #%d", e.Pulse)
	}

	if e.Function != device.NoFunction {
		if b.Len() > 0 {
			b.WriteString(" ")
		}

		fmt.Fprintf(&b, "(%s)", e.Function)
	}

	if b.Len() > 0 {
		b.WriteString(": ")
	}

	b.WriteString(e.Code.name)

	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}

	return b.String()
}

// Is reports whether target is the code of this error.
func (e *Error) Is(target error) bool {
	c, ok := target.(*Code)
	return ok && c == e.Code
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a compiler error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind(), true
	}

	return 0, false
}

// IsRecoverable tells if the compiler is still usable after err. Only
// validation errors of a real-run update are.
func IsRecoverable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Recoverable
}
