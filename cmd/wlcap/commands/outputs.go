package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dkasak/wlcap/internal/capture"
	"github.com/dkasak/wlcap/internal/outputs"
	"github.com/dkasak/wlcap/internal/wlsession"
)

var outputsFormat string

var outputsCmd = &cobra.Command{
	Use:   "outputs",
	Short: "List connected outputs",
	Long: `List the outputs the compositor currently reports, with their
logical/physical geometry, scale, and orientation transform.`,
	Example: `  # List outputs in table format (default)
  wlcap outputs

  # List outputs in JSON format
  wlcap outputs --format json`,
	RunE: runOutputs,
}

func init() {
	rootCmd.AddCommand(outputsCmd)
	outputsCmd.Flags().StringVarP(&outputsFormat, "format", "f", "table", "output format (table or json)")
}

func runOutputs(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	session, err := wlsession.Open(ctx)
	if err != nil {
		return fmt.Errorf("connect to compositor: %w", err)
	}
	defer session.Close()

	engine := capture.New(session)
	records := engine.ListOutputs()

	switch outputsFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case "table":
		return printOutputsTable(records)
	default:
		return fmt.Errorf("unsupported format: %s (use 'table' or 'json')", outputsFormat)
	}
}

func printOutputsTable(records []*outputs.Record) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "NAME\tLOGICAL\tPHYSICAL\tSCALE\tTRANSFORM")
	fmt.Fprintln(w, "----\t-------\t--------\t-----\t---------")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", r.Name, r.Logical, r.Physical, r.Scale, r.Transform)
	}
	return nil
}
