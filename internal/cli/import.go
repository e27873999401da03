package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/filmdex/internal/sqlite"
)

// importSummary is the printable form of an import report.
type importSummary struct {
	RunID    string          `json:"runId"`
	Rows     int             `json:"rows"`
	Imported int             `json:"imported"`
	Tagged   int             `json:"tagged"`
	Failed   []importFailure `json:"failed"`
}

type importFailure struct {
	Row   int    `json:"row"`
	Title string `json:"title,omitempty"`
	Error string `json:"error"`
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Seed films from a JSON file",
		Long: `Import reads a JSON array of [publishedYear, title, japaneseTitle, unwatched]
rows and stores each row in its own transaction. Rows flagged unwatched get
the configured unwatched tag. Failing rows are reported and skipped. The
database must already exist (run "filmdex init" first).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := sqlite.ReadImportFile(args[0])
			if err != nil {
				return err
			}
			backend, _, err := a.openExistingStore()
			if err != nil {
				return err
			}
			defer backend.Detach()

			report, err := backend.Import(cmd.Context(), rows)
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}

			summary := importSummary{
				RunID:    report.RunID,
				Rows:     report.Rows,
				Imported: report.Imported,
				Tagged:   report.Tagged,
				Failed:   []importFailure{},
			}
			for _, f := range report.Failed {
				summary.Failed = append(summary.Failed, importFailure{Row: f.Row, Title: f.Title, Error: f.Err.Error()})
			}

			if a.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), summary)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "imported %d of %d rows (%d tagged)\n", summary.Imported, summary.Rows, summary.Tagged)
			for _, f := range summary.Failed {
				fmt.Fprintf(out, "  row %d: %s\n", f.Row, f.Error)
			}
			return nil
		},
	}
}
