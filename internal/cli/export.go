package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/setlab/exposure/internal/store"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	OutDir string
}

// ExportResult reports the exported tables and their row counts.
type ExportResult struct {
	Dir    string         `json:"dir"`
	Tables map[string]int `json:"tables"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <sessions.db>",
		Short: "Export a session database to CSV files",
		Long: `Export every table of a session database to one CSV file per table
(participants, phase trials in long format, interactions), ready for
analysis tooling.

Examples:
  exposure export sessions.db --out ./csv
  exposure export sessions.db --out ./csv --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.OutDir, "out", "export", "output directory for CSV files")

	return cmd
}

func runExport(opts *ExportOptions, dbPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", dbPath))
	}

	db, err := store.Open(dbPath)
	if err != nil {
		_ = formatter.Error("E_STORE", err.Error(), nil)
		return WrapExitError(ExitCommandError, "cannot open database", err)
	}
	defer db.Close()

	counts, err := db.ExportCSV(cmd.Context(), opts.OutDir)
	if err != nil {
		_ = formatter.Error("E_EXPORT", err.Error(), nil)
		return WrapExitError(ExitCommandError, "export failed", err)
	}

	if opts.Format == "json" {
		return formatter.Success(ExportResult{Dir: opts.OutDir, Tables: counts})
	}

	tables := make([]string, 0, len(counts))
	for t := range counts {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	for _, t := range tables {
		fmt.Fprintf(formatter.Writer, "%s: %d rows\n", t, counts[t])
	}
	fmt.Fprintf(formatter.Writer, "✓ Exported %d files to %s\n", len(tables), opts.OutDir)
	return nil
}
