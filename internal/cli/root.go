// Package cli implements the filmdex command-line interface: film CRUD
// against the SQLite store, snapshot export and search, and seeding.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/filmdex/internal/logging"
	"github.com/mesh-intelligence/filmdex/internal/paths"
	"github.com/mesh-intelligence/filmdex/internal/sqlite"
	"github.com/mesh-intelligence/filmdex/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir    string
	dataDir      string
	snapshotDirs []string
	jsonMode     bool
	verbose      bool
}

// app carries the state shared by one command invocation.
type app struct {
	flags  rootFlags
	viper  *viper.Viper
	logger *zap.Logger
}

// NewRootCmd creates the top-level "filmdex" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "filmdex",
		Short: "A personal film catalog",
		Long: "filmdex keeps a film catalog in SQLite, publishes it as a JSON snapshot\n" +
			"and answers searches against either.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			logger, err := logging.New(a.flags.verbose)
			if err != nil {
				return err
			}
			a.logger = logger

			configDir, err := paths.ResolveConfigDir(a.flags.configDir)
			if err != nil {
				return fmt.Errorf("resolve config dir: %w", err)
			}
			v, err := loadConfig(configDir)
			if err != nil {
				return err
			}
			a.viper = v
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: <user config dir>/filmdex)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: $(CWD)/.filmdex)")
	root.PersistentFlags().StringSliceVar(&a.flags.snapshotDirs, "snapshot-dir", nil, "snapshot publish directory, repeatable (default: the data directory)")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output summaries as JSON")
	root.PersistentFlags().BoolVarP(&a.flags.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newListCmd(a))
	root.AddCommand(newGetCmd(a))
	root.AddCommand(newSaveCmd(a))
	root.AddCommand(newDeleteCmd(a))
	root.AddCommand(newMetaCmd(a))
	root.AddCommand(newExportCmd(a))
	root.AddCommand(newSearchCmd(a))
	root.AddCommand(newImportCmd(a))

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "filmdex:", err)
		os.Exit(exitCode(err))
	}
	os.Exit(exitSuccess)
}

// exitCode maps storage failures to exitSysError and everything else to
// exitUserError.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, types.ErrStorageUnavailable),
		errors.Is(err, types.ErrTransactionFailed):
		return exitSysError
	default:
		return exitUserError
	}
}

// config resolves the store configuration from flags, config.yaml and
// environment.
func (a *app) config() (types.Config, error) {
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, a.viper.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}
	snapshotDirs, err := paths.ResolveSnapshotDirs(a.flags.snapshotDirs, a.viper.GetStringSlice(cfgKeySnapshotDirs), dataDir)
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve snapshot dirs: %w", err)
	}
	cfg := types.Config{
		Backend:      a.viper.GetString(cfgKeyBackend),
		DataDir:      dataDir,
		DBFile:       a.viper.GetString(cfgKeyDBFile),
		SnapshotFile: a.viper.GetString(cfgKeySnapshotFile),
		SnapshotDirs: snapshotDirs,
		UnwatchedTag: a.viper.GetString(cfgKeyUnwatchedTag),
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openStore attaches the SQLite store. The caller must Detach it.
func (a *app) openStore() (*sqlite.Backend, types.Config, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, cfg, err
	}
	backend := sqlite.NewBackend(sqlite.WithLogger(a.logger))
	if err := backend.Attach(cfg); err != nil {
		return nil, cfg, fmt.Errorf("%w: attach store: %v", types.ErrStorageUnavailable, err)
	}
	return backend, cfg, nil
}

// openExistingStore is openStore for commands that must not create the
// database file.
func (a *app) openExistingStore() (*sqlite.Backend, types.Config, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, cfg, err
	}
	if err := sqlite.RequireDatabase(cfg); err != nil {
		return nil, cfg, err
	}
	return a.openStore()
}

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	data, err := jsonAPI.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
