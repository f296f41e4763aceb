package cmd

import (
	"fmt"
	"io"
	stdlog "log"
	"os"

	"github.com/pkg/errors"
	"github.com/sarchlab/pulsegen/compiler"
	"github.com/sarchlab/pulsegen/datarecording"
	"github.com/sarchlab/pulsegen/hooking"
	"github.com/sarchlab/pulsegen/program"
	"github.com/sarchlab/pulsegen/wire"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <program.toml>",
	Short: "Run a program against a simulated pattern generator.",
	Long: `Run executes the test pass of a program, then plays the real pass ` +
		`against a simulated pattern generator. Rejected updates are ` +
		`reported and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd, args[0])
		if err != nil {
			return err
		}

		a, err := newAttachments(cmd, s)
		if err != nil {
			return err
		}
		defer a.close()

		return playSession(cmd.OutOrStdout(), s, a)
	},
}

// attachments are the optional observers of a run.
type attachments struct {
	transcriptPath string
	counts         *hooking.CountHook

	recorder     datarecording.DataRecorder
	execRecorder *datarecording.ExecRecorder
	passRecorder *datarecording.PassRecorder

	commandLog *os.File
}

func newAttachments(cmd *cobra.Command, s *session) (*attachments, error) {
	a := &attachments{counts: hooking.NewCountHook()}
	s.compiler.AcceptHook(a.counts)

	a.transcriptPath, _ = cmd.Flags().GetString("transcript")

	recordPath, _ := cmd.Flags().GetString("record")
	if recordPath == "" {
		recordPath = s.env.Record
	}

	if recordPath != "" {
		if _, err := os.Stat(recordPath + ".sqlite3"); err == nil {
			return nil, errors.Errorf("recording %s.sqlite3 already exists",
				recordPath)
		}

		a.recorder = datarecording.New(recordPath)
		a.execRecorder = datarecording.NewExecRecorder(a.recorder)
		a.execRecorder.Start(datarecording.ExecInfo{
			Property: "Program",
			Value:    s.program.Path,
		})
		a.passRecorder = datarecording.NewPassRecorder(a.recorder)
		s.compiler.AcceptHook(a.passRecorder)
	}

	logPath, _ := cmd.Flags().GetString("log-commands")
	if logPath != "" {
		f, err := os.Create(logPath)
		if err != nil {
			return nil, errors.Wrap(err, "cannot create command log")
		}

		a.commandLog = f
		s.compiler.AcceptHook(hooking.NewLogHook(
			stdlog.New(f, "", 0), compiler.HookPosCommand))
	}

	return a, nil
}

func (a *attachments) close() {
	if a.recorder != nil {
		a.passRecorder.Flush()
		a.execRecorder.End()

		if err := a.recorder.Close(); err != nil {
			log.Errorf("cannot close recording: %s", err)
		}
	}

	if a.commandLog != nil {
		a.commandLog.Close()
	}
}

// playSession runs both passes and reports the outcome.
func playSession(w io.Writer, s *session, a *attachments) error {
	if err := s.runner.RunTest(); err != nil {
		return err
	}

	printPlan(w, s.compiler)

	transcript := wire.NewTranscript(wire.NewMemory(s.compiler.Limits()))

	stats, err := s.runner.RunReal(transcript)
	if err != nil {
		return err
	}

	printStats(w, stats, a.counts)

	if a.transcriptPath != "" {
		if err := writeTranscript(a.transcriptPath, transcript); err != nil {
			return err
		}

		log.Infof("wrote %d commands to %s",
			len(transcript.Commands()), a.transcriptPath)
	}

	return nil
}

func printStats(w io.Writer, stats program.Stats, counts *hooking.CountHook) {
	fmt.Fprintf(w, "steps:        %d run, %d rejected\n",
		stats.Steps, stats.Failed)

	for _, err := range stats.Rejected {
		fmt.Fprintf(w, "  %s\n", err)
	}

	for _, name := range counts.PosNames() {
		fmt.Fprintf(w, "%-13s %d\n", name+":", counts.Count(name))
	}
}

func writeTranscript(path string, t *wire.Transcript) error {
	data, err := wire.MarshalCommands(t.Commands())
	if err != nil {
		return errors.Wrap(err, "cannot encode transcript")
	}

	return errors.Wrapf(os.WriteFile(path, data, 0o644),
		"cannot write transcript %s", path)
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("transcript", "",
		"Write the device commands of the real run to this CBOR file")
	cmd.Flags().String("record", "",
		"Record passes and commands into NAME.sqlite3")
	cmd.Flags().String("log-commands", "",
		"Write every device command to this text file")
}

func init() {
	addRunFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}
