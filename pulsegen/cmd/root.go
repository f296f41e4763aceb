// Package cmd provides the command-line interface of pulsegen.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("pulsegen")

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use: "pulsegen",
	Short: "pulsegen compiles pulse programs into the memory layout of a " +
		"digital pattern generator.",
	Long: `pulsegen compiles pulse programs into the channel assignments, ` +
		`block layout and incremental memory writes of a digital pattern ` +
		`generator. Programs are checked in a test run and then played ` +
		`against a simulated device.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		quiet, _ := cmd.Flags().GetBool("quiet")

		if quiet {
			verbosity = -1
		}

		commonlog.Configure(verbosity, nil)
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v",
		"Log more, repeat for debug output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false,
		"Log warnings and errors only")
	rootCmd.PersistentFlags().StringSlice("env", nil,
		"Environment files to load instead of .env")
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}
}
