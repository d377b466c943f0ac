package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/vcrouter/datarecording"
	"github.com/sarchlab/vcrouter/noc/networking/monitors"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the summaries stored by run --record.",
	Long: "`report --record out` reads out.sqlite3 and prints the notes of " +
		"the run, the flits that crossed every input-output pair and the " +
		"accesses to every input buffer.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		record, _ := cmd.Flags().GetString("record")
		return report(cmd.Context(), record, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().String("record", "", "The database written by run --record, without .sqlite3")
	_ = reportCmd.MarkFlagRequired("record")
}

func report(ctx context.Context, record string, out io.Writer) error {
	filename := record + ".sqlite3"

	_, err := os.Stat(filename)
	if err != nil {
		return err
	}

	reader := datarecording.NewReader(filename)
	defer reader.Close()

	notes, err := datarecording.ReadExecInfo(ctx, reader)
	if err != nil {
		return err
	}

	for _, n := range notes {
		fmt.Fprintf(out, "%s: %s\n", n.Property, n.Value)
	}

	switches, err := monitors.ReadSwitchSummary(ctx, reader)
	if err != nil {
		return err
	}

	for _, e := range switches {
		fmt.Fprintf(out, "%s input %d -> output %d: %d flits\n",
			e.Router, e.Input, e.Output, e.Traversals)
	}

	buffers, err := monitors.ReadBufferSummary(ctx, reader)
	if err != nil {
		return err
	}

	for _, e := range buffers {
		fmt.Fprintf(out, "%s input %d class %d: %d writes, %d reads\n",
			e.Router, e.Input, e.Class, e.Writes, e.Reads)
	}

	return nil
}
