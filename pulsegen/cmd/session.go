package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/sarchlab/pulsegen/compiler"
	"github.com/sarchlab/pulsegen/id"
	"github.com/sarchlab/pulsegen/program"
	"github.com/sarchlab/pulsegen/timebase"
	"github.com/spf13/cobra"
)

// session is a program declared on a fresh compiler.
type session struct {
	env      program.Env
	program  *program.Program
	compiler *compiler.Compiler
	runner   *program.Runner
}

func openSession(cmd *cobra.Command, path string) (*session, error) {
	envFiles, _ := cmd.Flags().GetStringSlice("env")

	env, err := program.LoadEnv(envFiles...)
	if err != nil {
		return nil, err
	}

	p, err := program.Load(path)
	if err != nil {
		return nil, err
	}

	p.ApplyEnv(env)

	c := compiler.MakeBuilder().
		WithLimits(p.Limits()).
		WithIDGenerator(id.NewUniqueIDGenerator()).
		Build()
	c.AcceptHook(&logHook{log: log})

	if err := p.Declare(c); err != nil {
		return nil, err
	}

	log.Infof("loaded %s", p.Path)

	return &session{
		env:      env,
		program:  p,
		compiler: c,
		runner:   program.NewRunner(p, c),
	}, nil
}

// printPlan writes what the test run worked out.
func printPlan(w io.Writer, c *compiler.Compiler) {
	tb := c.TimeBase()
	plan := c.Plan()

	fmt.Fprintf(w, "time base:    %s\n", timebase.FormatSeconds(tb.Seconds()))
	fmt.Fprintf(w, "phase stages: %d\n", c.NumStages())
	fmt.Fprintf(w, "memory:       %d ticks (%s of pulses)\n",
		plan.MemorySize, tb.Format(plan.MaxSeqLen))

	if plan.RepeatPeriod > 0 {
		fmt.Fprintf(w, "period:       %s", tb.Format(plan.RepeatPeriod))

		if plan.UseBlocks {
			fmt.Fprintf(w, " (%s block repeated %d times)",
				tb.Format(plan.BlockLength), plan.BlockRepeat)
		}

		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "functions:")

	for _, f := range c.UsedFunctions() {
		channels := make([]string, len(f.Channels))
		for i, ch := range f.Channels {
			channels[i] = fmt.Sprint(ch)
		}

		fmt.Fprintf(w, "  %-15s pods %v, channels [%s], %d pulses\n",
			f.ID, f.Pods, strings.Join(channels, " "), len(f.Pulses))
	}

	if n := len(c.Advisories()); n > 0 {
		fmt.Fprintf(w, "advisories:   %d\n", n)
	}
}
