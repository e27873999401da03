package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/filmdex/internal/snapshot"
)

func newExportCmd(a *app) *cobra.Command {
	var beautify bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Publish the catalog snapshot",
		Long: `Export writes every film to the snapshot file in the first existing
snapshot directory, then copies it into the other existing ones. The
database file must already exist.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, cfg, err := a.openExistingStore()
			if err != nil {
				return err
			}
			defer backend.Detach()

			exporter := snapshot.NewExporter(cfg, backend,
				snapshot.WithLogger(a.logger),
				snapshot.WithBeautify(beautify),
			)
			res := exporter.Export(cmd.Context())
			if res.Err != nil {
				return fmt.Errorf("export: %w", res.Err)
			}

			if a.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			for _, path := range res.Paths {
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&beautify, "beautify", false, "indent the whole document instead of one film per line")
	return cmd
}
