package program

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/sarchlab/pulsegen/compiler"
	"github.com/sarchlab/pulsegen/wire"
)

// Progress is told about every executed step.
type Progress interface {
	IncrementFinished(amount uint64)
	IncrementFailed(amount uint64)
}

type noLock struct{}

func (noLock) Lock()   {}
func (noLock) Unlock() {}

// Stats summarizes a real run.
type Stats struct {
	Steps  int
	Failed int

	// Rejected holds the recoverable errors of failed steps.
	Rejected []error
}

// Runner executes the steps of a program on a compiler.
type Runner struct {
	program  *Program
	compiler *compiler.Compiler
	lock     sync.Locker
	progress Progress
}

// NewRunner creates a runner for a compiler the program was declared on.
func NewRunner(p *Program, c *compiler.Compiler) *Runner {
	return &Runner{
		program:  p,
		compiler: c,
		lock:     noLock{},
	}
}

// WithLocker sets the lock held while the compiler is used.
func (r *Runner) WithLocker(l sync.Locker) *Runner {
	r.lock = l
	return r
}

// WithProgress sets where executed steps are reported.
func (r *Runner) WithProgress(p Progress) *Runner {
	r.progress = p
	return r
}

// NumSteps returns how many steps one pass executes.
func (r *Runner) NumSteps() int {
	n := 0
	for i := range r.program.Steps {
		n += r.program.Steps[i].Times()
	}

	return n
}

func (r *Runner) locked(f func() error) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	return f()
}

// RunTest executes the test pass. Any failure ends it.
func (r *Runner) RunTest() error {
	err := r.locked(r.compiler.StartTestRun)
	if err != nil {
		return errors.Wrap(err, "start of test run")
	}

	err = r.eachStep(func(i int, s *Step) error {
		err := r.locked(func() error { return r.execute(s) })
		if err != nil {
			return errors.Wrapf(err, "step %d (%s)", i+1, s.Op)
		}

		return nil
	})
	if err != nil {
		return err
	}

	return errors.Wrap(r.locked(r.compiler.EndTestRun), "end of test run")
}

// RunReal executes the real pass against a device. Steps the compiler
// rejects and rolls back are counted and skipped; other failures end the
// run.
func (r *Runner) RunReal(dev wire.Device) (Stats, error) {
	var stats Stats

	err := r.locked(func() error { return r.compiler.StartRealRun(dev) })
	if err != nil {
		return stats, errors.Wrap(err, "start of real run")
	}

	err = r.eachStep(func(i int, s *Step) error {
		stats.Steps++

		err := r.locked(func() error { return r.execute(s) })

		switch {
		case err == nil:
			r.report(false)
		case compiler.IsRecoverable(err):
			stats.Failed++
			stats.Rejected = append(stats.Rejected,
				errors.Wrapf(err, "step %d (%s)", i+1, s.Op))
			r.report(true)
		default:
			return errors.Wrapf(err, "step %d (%s)", i+1, s.Op)
		}

		return nil
	})
	if err != nil {
		return stats, err
	}

	return stats, errors.Wrap(r.locked(r.compiler.EndRealRun), "end of real run")
}

func (r *Runner) eachStep(f func(i int, s *Step) error) error {
	for i := range r.program.Steps {
		s := &r.program.Steps[i]

		for n := 0; n < s.Times(); n++ {
			if err := f(i, s); err != nil {
				return err
			}
		}
	}

	return nil
}

func (r *Runner) report(failed bool) {
	if r.progress == nil {
		return
	}

	if failed {
		r.progress.IncrementFailed(1)
		return
	}

	r.progress.IncrementFinished(1)
}

// execute applies the operation of a step and updates the pulser.
func (r *Runner) execute(s *Step) error {
	c := r.compiler

	var err error

	switch s.Op {
	case OpUpdate:
	case OpSetPosition:
		err = r.setEach(s, c.SetPulsePosition)
	case OpSetLength:
		err = r.setEach(s, c.SetPulseLength)
	case OpSetPositionChange:
		err = r.setEach(s, c.SetPulsePositionChange)
	case OpSetLengthChange:
		err = r.setEach(s, c.SetPulseLengthChange)
	case OpShift:
		err = c.ShiftPulses(s.Pulses...)
	case OpIncrement:
		err = c.IncrementPulseLengths(s.Pulses...)
	case OpReset:
		err = c.ResetPulses(s.Pulses...)
	case OpNextPhase:
		err = c.NextPhase(s.functions()...)
	case OpResetPhase:
		err = c.ResetPhase(s.functions()...)
	default:
		panic("unknown operation " + string(s.Op))
	}

	if err != nil {
		return err
	}

	return c.Update()
}

func (r *Runner) setEach(s *Step, set func(num int, seconds float64) error) error {
	for _, num := range s.Pulses {
		if err := set(num, float64(*s.Value)); err != nil {
			return err
		}
	}

	return nil
}
