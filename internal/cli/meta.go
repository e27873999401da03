package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/filmdex/pkg/types"
)

func newMetaCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meta",
		Short: "Read or replace the casts, staffs and tags of a film",
	}
	cmd.AddCommand(newMetaGetCmd(a), newMetaSetCmd(a))
	return cmd
}

func newMetaGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print the casts, staffs and tags of a film",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			backend, _, err := a.openStore()
			if err != nil {
				return err
			}
			defer backend.Detach()

			meta, err := backend.FindMeta(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("get meta of film %d: %w", id, err)
			}
			return writeJSON(cmd.OutOrStdout(), meta)
		},
	}
}

func newMetaSetCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "set <id>",
		Short: "Replace all casts, staffs and tags of a film from JSON",
		Long: `Set reads {"casts": [...], "staffs": [...], "tags": [...]} from --file or
stdin and replaces all three collections. A missing array clears that
collection.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var meta types.FilmMeta
			if err := readJSONInput(cmd, file, &meta); err != nil {
				return err
			}
			meta.FilmID = id

			backend, _, err := a.openStore()
			if err != nil {
				return err
			}
			defer backend.Detach()

			saved, err := backend.SaveMeta(cmd.Context(), &meta)
			if err != nil {
				return fmt.Errorf("set meta of film %d: %w", id, err)
			}
			return writeJSON(cmd.OutOrStdout(), saved)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the collections from this file instead of stdin")
	return cmd
}
