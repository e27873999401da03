package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/filmdex/pkg/types"
)

func newListCmd(a *app) *cobra.Command {
	var column, text string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List films, optionally filtered",
		Long: `List prints every film with its casts, staffs and tags, ordered by
published year then title. With both --column and --text the search rules
filter the result.

Columns: published_year, published_age, title, cast, staff, tag

Example:
  filmdex list
  filmdex list --column title --text god
  filmdex list --column published_age --text 1990`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, _, err := a.openStore()
			if err != nil {
				return err
			}
			defer backend.Detach()

			films, err := backend.Find(cmd.Context(), column, text)
			if err != nil {
				return fmt.Errorf("list films: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), films)
		},
	}
	cmd.Flags().StringVar(&column, "column", "", "search column")
	cmd.Flags().StringVar(&text, "text", "", "search text")
	return cmd
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get a film by id",
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

			film, err := backend.FindByID(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("get film %d: %w", id, err)
			}
			return writeJSON(cmd.OutOrStdout(), film)
		},
	}
}

func newSaveCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Create or update a film from JSON",
		Long: `Save reads one film as JSON from --file or stdin. Without "id" the film
is created. With "id" the film is updated; an empty "title" then updates
only the child collections present in the document. A present "casts",
"staffs" or "tags" array replaces that collection; an absent one is kept.

Example:
  echo '{"title":"Ran","publishedYear":1985,"tags":[{"name":"epic"}]}' | filmdex save`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var film types.Film
			if err := readJSONInput(cmd, file, &film); err != nil {
				return err
			}
			backend, _, err := a.openStore()
			if err != nil {
				return err
			}
			defer backend.Detach()

			saved, err := backend.Save(cmd.Context(), &film)
			if err != nil {
				return fmt.Errorf("save film: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), saved)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the film from this file instead of stdin")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a film and its casts, staffs and tags",
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

			if err := backend.Remove(cmd.Context(), id); err != nil {
				return fmt.Errorf("delete film %d: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted film %d\n", id)
			return nil
		},
	}
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", types.ErrInvalidID, arg)
	}
	return id, nil
}

// readJSONInput decodes file, or stdin when file is empty, into v.
func readJSONInput(cmd *cobra.Command, file string, v any) error {
	var (
		data []byte
		err  error
	)
	if file != "" {
		data, err = os.ReadFile(file)
	} else {
		data, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	if err := jsonAPI.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse input: %w", err)
	}
	return nil
}
