package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// initSummary is the --json output of init.
type initSummary struct {
	ConfigFile   string   `json:"configFile"`
	Database     string   `json:"database"`
	SnapshotDirs []string `json:"snapshotDirs"`
}

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize filmdex storage",
		Long:  "Create the configuration, data and snapshot directories, then create the database schema.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, cfg, err := a.openStore()
			if err != nil {
				return err
			}
			if err := backend.Detach(); err != nil {
				return fmt.Errorf("finalize storage: %w", err)
			}

			for _, dir := range cfg.SnapshotDirs {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create snapshot dir: %w", err)
				}
			}

			summary := initSummary{
				ConfigFile:   a.viper.ConfigFileUsed(),
				Database:     cfg.DBPath(),
				SnapshotDirs: cfg.SnapshotDirs,
			}
			if a.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), summary)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "filmdex initialized successfully")
			fmt.Fprintln(out, "  config:  ", summary.ConfigFile)
			fmt.Fprintln(out, "  database:", summary.Database)
			for _, dir := range summary.SnapshotDirs {
				fmt.Fprintln(out, "  snapshot:", dir)
			}
			return nil
		},
	}
}
