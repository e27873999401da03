package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/filmdex/internal/snapshot"
)

func newSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search [column] [text]",
		Short: "Search the published snapshot",
		Long: `Search filters the published snapshot with the same rules as list.
Without both arguments every film is printed.

Example:
  filmdex search tag unwatched
  filmdex search published_year 1984`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			path, err := snapshot.Published(cfg)
			if err != nil {
				return err
			}

			var column, text string
			if len(args) > 0 {
				column = args[0]
			}
			if len(args) > 1 {
				text = args[1]
			}

			films, err := snapshot.NewEngine(path, a.logger).Search(column, text)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), films)
		},
	}
}
