package types

import (
	"errors"
	"path/filepath"
	"strings"
)

// Config holds backend selection and file locations. It is passed
// explicitly to the store, the exporter and the importer.
type Config struct {
	Backend string `json:"backend" yaml:"backend"`
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// DBFile is the SQLite file name inside DataDir.
	DBFile string `json:"db_file,omitempty" yaml:"db_file,omitempty"`

	// SnapshotFile is the JSON file name written into each SnapshotDirs entry.
	SnapshotFile string `json:"snapshot_file,omitempty" yaml:"snapshot_file,omitempty"`

	// SnapshotDirs lists the publish directories in priority order. The
	// first existing one receives the serialized file; the others get a copy.
	SnapshotDirs []string `json:"snapshot_dirs,omitempty" yaml:"snapshot_dirs,omitempty"`

	// UnwatchedTag names the tag the importer attaches to flagged rows.
	UnwatchedTag string `json:"unwatched_tag,omitempty" yaml:"unwatched_tag,omitempty"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// Defaults applied by the getters when a field is empty.
const (
	DefaultDBFile       = "filmdex.sqlite3.db"
	DefaultSnapshotFile = "filmdex.json"
	DefaultUnwatchedTag = "unwatched"
)

// Config validation errors.
var (
	ErrBackendEmpty        = errors.New("backend must not be empty")
	ErrBackendUnknown      = errors.New("unknown backend")
	ErrFileNameInvalid     = errors.New("file name must not contain a path separator")
	ErrSnapshotDirsInvalid = errors.New("snapshot directories must not be empty strings")
)

var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed and returns a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	for _, name := range []string{c.DBFile, c.SnapshotFile} {
		if strings.ContainsRune(name, filepath.Separator) || strings.ContainsRune(name, '/') {
			return ErrFileNameInvalid
		}
	}
	for _, dir := range c.SnapshotDirs {
		if strings.TrimSpace(dir) == "" {
			return ErrSnapshotDirsInvalid
		}
	}
	return nil
}

// GetDBFile returns the database file name, defaulting to DefaultDBFile.
func (c Config) GetDBFile() string {
	if c.DBFile == "" {
		return DefaultDBFile
	}
	return c.DBFile
}

// GetSnapshotFile returns the snapshot file name, defaulting to
// DefaultSnapshotFile.
func (c Config) GetSnapshotFile() string {
	if c.SnapshotFile == "" {
		return DefaultSnapshotFile
	}
	return c.SnapshotFile
}

// GetUnwatchedTag returns the importer tag name, defaulting to
// DefaultUnwatchedTag.
func (c Config) GetUnwatchedTag() string {
	if c.UnwatchedTag == "" {
		return DefaultUnwatchedTag
	}
	return c.UnwatchedTag
}

// DBPath returns the full path of the SQLite file.
func (c Config) DBPath() string {
	dataDir := c.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	return filepath.Join(dataDir, c.GetDBFile())
}
