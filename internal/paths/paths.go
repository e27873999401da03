// Package paths resolves the configuration, data and snapshot directories
// of the filmdex CLI. Every resolver follows the same precedence chain:
// command-line flag, then config.yaml, then environment, then default.
package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// AppName names the per-user configuration directory.
const AppName = "filmdex"

// DefaultDataDirName is the CWD-relative data directory.
const DefaultDataDirName = ".filmdex"

// Environment variable names for directory overrides.
const (
	EnvConfigDir    = "FILMDEX_CONFIG_DIR"
	EnvDataDir      = "FILMDEX_DATA_DIR"
	EnvSnapshotDirs = "FILMDEX_SNAPSHOT_DIRS"
)

// userConfigDir is overridden in tests.
var userConfigDir = os.UserConfigDir

// DefaultConfigDir returns <user config dir>/filmdex ($XDG_CONFIG_HOME or
// ~/.config on Linux, ~/Library/Application Support on macOS, %AppData%
// on Windows).
func DefaultConfigDir() (string, error) {
	dir, err := userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

// ResolveConfigDir returns flag, else $FILMDEX_CONFIG_DIR, else
// DefaultConfigDir, as an absolute path.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns flag, else the config.yaml value, else
// $FILMDEX_DATA_DIR, else $(CWD)/.filmdex, as an absolute path.
func ResolveDataDir(flag, configYAMLValue string) (string, error) {
	for _, v := range []string{flag, configYAMLValue, os.Getenv(EnvDataDir)} {
		if v != "" {
			return filepath.Abs(v)
		}
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

// ResolveSnapshotDirs returns the publish directories in priority order:
// flags, else the config.yaml list, else $FILMDEX_SNAPSHOT_DIRS split on
// the OS path list separator, else the data directory alone. Blank entries
// are dropped and the rest made absolute.
func ResolveSnapshotDirs(flags, configYAMLValue []string, dataDir string) ([]string, error) {
	candidates := [][]string{
		flags,
		configYAMLValue,
		filepath.SplitList(os.Getenv(EnvSnapshotDirs)),
	}
	for _, dirs := range candidates {
		out, err := absAll(dirs)
		if err != nil {
			return nil, err
		}
		if len(out) > 0 {
			return out, nil
		}
	}
	return absAll([]string{dataDir})
}

func absAll(dirs []string) ([]string, error) {
	var out []string
	for _, d := range dirs {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		abs, err := filepath.Abs(d)
		if err != nil {
			return nil, err
		}
		out = append(out, abs)
	}
	return out, nil
}
