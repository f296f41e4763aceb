package cmd

import (
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check <program.toml>",
	Short: "Run the test pass of a program and print the plan.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd, args[0])
		if err != nil {
			return err
		}

		if err := s.runner.RunTest(); err != nil {
			return err
		}

		printPlan(cmd.OutOrStdout(), s.compiler)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
