package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the filmdex release, overridden at build time with -ldflags.
var Version = "0.1.0"

const modulePath = "github.com/mesh-intelligence/filmdex"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the filmdex version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "filmdex v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
