package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/sarchlab/pulsegen/device"
	"github.com/sarchlab/pulsegen/wire"
	"github.com/spf13/cobra"
)

var transcriptCmd = &cobra.Command{
	Use:   "transcript <file.cbor>",
	Short: "Print or replay the device commands written by run.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return errors.Wrapf(err, "cannot read %s", args[0])
		}

		commands, err := wire.UnmarshalCommands(data)
		if err != nil {
			return errors.Wrapf(err, "cannot decode %s", args[0])
		}

		w := cmd.OutOrStdout()

		if replay, _ := cmd.Flags().GetBool("replay"); !replay {
			for _, c := range commands {
				fmt.Fprintln(w, c)
			}

			return nil
		}

		mem := wire.NewMemory(device.DG2020Limits())
		if err := wire.Replay(mem, commands); err != nil {
			return err
		}

		fmt.Fprintf(w, "commands:     %d\n", len(commands))
		fmt.Fprintf(w, "writes:       %d\n", mem.NumWrites())
		fmt.Fprintf(w, "memory:       %d ticks\n", mem.Size())
		fmt.Fprintf(w, "period:       %d ticks\n", mem.PeriodLength())
		fmt.Fprintf(w, "running:      %t\n", mem.IsRunning())

		return nil
	},
}

func init() {
	transcriptCmd.Flags().Bool("replay", false,
		"Replay the commands on a simulated device and print its state")
	rootCmd.AddCommand(transcriptCmd)
}
