package cmd

import (
	"os"
	"os/signal"
	"path/filepath"

	"github.com/pkg/browser"
	"github.com/sarchlab/pulsegen/monitoring"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve <program.toml>",
	Short: "Run a program while serving its state over HTTP.",
	Long: `Serve runs a program like run does and keeps a monitoring server ` +
		`up until interrupted, so functions, pulses, channels and the ` +
		`memory plan can be inspected from a browser.`,
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

		port, _ := cmd.Flags().GetInt("port")
		if !cmd.Flags().Changed("port") && s.env.MonitorPort != 0 {
			port = s.env.MonitorPort
		}

		m := monitoring.NewMonitor().WithPortNumber(port)
		m.RegisterCompiler(s.compiler)
		s.runner.WithLocker(m.Guard())

		url := m.StartServer()

		if open, _ := cmd.Flags().GetBool("open"); open {
			if err := browser.OpenURL(url); err != nil {
				log.Warningf("cannot open browser: %s", err)
			}
		}

		name := s.program.Name
		if name == "" {
			name = filepath.Base(s.program.Path)
		}

		bar := m.CreateProgressBar(name, uint64(s.runner.NumSteps()))
		s.runner.WithProgress(bar)

		err = playSession(cmd.OutOrStdout(), s, a)

		m.CompleteProgressBar(bar)

		if err != nil {
			return err
		}

		if exit, _ := cmd.Flags().GetBool("exit"); exit {
			return nil
		}

		log.Noticef("serving %s, press Ctrl-C to stop", url)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		<-ctx.Done()

		return nil
	},
}

func init() {
	addRunFlags(serveCmd)
	serveCmd.Flags().Int("port", 0,
		"Port of the monitoring server, 0 picks a free one")
	serveCmd.Flags().Bool("open", false, "Open the monitor in a browser")
	serveCmd.Flags().Bool("exit", false,
		"Stop serving once the program has run")
	rootCmd.AddCommand(serveCmd)
}
