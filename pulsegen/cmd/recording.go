package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/structs"
	"github.com/pkg/errors"
	"github.com/sarchlab/pulsegen/datarecording"
	"github.com/spf13/cobra"
)

var recordingCmd = &cobra.Command{
	Use:   "recording <file.sqlite3>",
	Short: "Summarize or list the tables written by run --record.",
	Long: `Without --table, prints how many rows each table of a recording
holds. With --table, prints the rows of that table.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Opening a missing file would create an empty database.
		if _, err := os.Stat(args[0]); err != nil {
			return errors.Wrapf(err, "cannot open %s", args[0])
		}

		reader := datarecording.NewReader(args[0])
		defer reader.Close()

		datarecording.MapTables(reader)

		table, _ := cmd.Flags().GetString("table")
		if table == "" {
			return printTableSizes(cmd, reader)
		}

		where, _ := cmd.Flags().GetString("where")
		limit, _ := cmd.Flags().GetInt("limit")

		return printRows(cmd, reader, table, datarecording.QueryParams{
			Where: where,
			Limit: limit,
		})
	},
}

func printTableSizes(cmd *cobra.Command, reader datarecording.DataReader) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

	for _, table := range reader.ListTables() {
		_, n, err := reader.Query(context.Background(), table,
			datarecording.QueryParams{Limit: 1})
		if err != nil {
			return errors.Wrapf(err, "table %s", table)
		}

		fmt.Fprintf(w, "%s\t%d\n", table, n)
	}

	return w.Flush()
}

func printRows(
	cmd *cobra.Command,
	reader datarecording.DataReader,
	table string,
	params datarecording.QueryParams,
) error {
	rows, total, err := reader.Query(context.Background(), table, params)
	if err != nil {
		return errors.Wrapf(err, "table %s", table)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

	for i, row := range rows {
		if i == 0 {
			fmt.Fprintln(w, strings.Join(structs.Names(row), "\t"))
		}

		values := structs.Values(row)
		cells := make([]string, len(values))

		for j, v := range values {
			cells[j] = fmt.Sprint(v)
		}

		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}

	if err := w.Flush(); err != nil {
		return err
	}

	if len(rows) < total {
		fmt.Fprintf(cmd.OutOrStdout(), "(%d of %d rows)\n", len(rows), total)
	}

	return nil
}

func init() {
	recordingCmd.Flags().String("table", "",
		"Table to list, one of "+strings.Join(datarecording.Tables(), ", "))
	recordingCmd.Flags().String("where", "",
		"SQL condition on the listed rows, e.g. \"Op = 'WRITE'\"")
	recordingCmd.Flags().Int("limit", 50,
		"Maximum number of rows to list, 0 for all")
	rootCmd.AddCommand(recordingCmd)
}
