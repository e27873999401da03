package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/filmdex/internal/logging"
	"github.com/mesh-intelligence/filmdex/internal/sqlite"
	"github.com/mesh-intelligence/filmdex/pkg/types"
)

// Source lists every film with its children in canonical order.
type Source interface {
	Find(ctx context.Context, targetColumn, searchText string) ([]types.Film, error)
}

// Compile-time interface check.
var _ types.SnapshotExporter = (*Exporter)(nil)

// Exporter writes the snapshot file. Calls are serialized.
type Exporter struct {
	mu       sync.Mutex
	config   types.Config
	source   Source
	logger   *zap.Logger
	beautify bool
}

// ExporterOption configures an Exporter.
type ExporterOption func(*Exporter)

// WithLogger sets the exporter logger.
func WithLogger(logger *zap.Logger) ExporterOption {
	return func(e *Exporter) { e.logger = logging.OrNop(logger) }
}

// WithBeautify switches to the indented file layout.
func WithBeautify(beautify bool) ExporterOption {
	return func(e *Exporter) { e.beautify = beautify }
}

// NewExporter returns an exporter reading from source and publishing into
// config.SnapshotDirs.
func NewExporter(config types.Config, source Source, opts ...ExporterOption) *Exporter {
	e := &Exporter{
		config: config,
		source: source,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export reads the catalog, writes it to the first existing snapshot
// directory and copies that file into every other existing one. Failures,
// including panics, are reported in the result.
func (e *Exporter) Export(ctx context.Context) (result types.ExportResult) {
	e.mu.Lock()
	defer e.mu.Unlock()

	runID, err := uuid.NewV7()
	if err != nil {
		return types.ExportResult{Err: fmt.Errorf("generating run id: %w", err)}
	}
	logger := e.logger.With(zap.String("run_id", runID.String()))

	defer func() {
		if r := recover(); r != nil {
			result = types.ExportResult{Err: fmt.Errorf("export panicked: %v", r)}
			logger.Error("export panicked", zap.Any("panic", r))
		}
	}()

	paths, err := e.export(ctx, logger)
	if err != nil {
		logger.Error("export failed", zap.Error(err))
		return types.ExportResult{Err: err}
	}
	logger.Info("export finished", zap.Strings("paths", paths))
	return types.ExportResult{Paths: paths}
}

func (e *Exporter) export(ctx context.Context, logger *zap.Logger) ([]string, error) {
	if err := sqlite.RequireDatabase(e.config); err != nil {
		return nil, err
	}
	dirs := existingDirs(e.config.SnapshotDirs)
	if len(dirs) == 0 {
		return nil, fmt.Errorf("%w: no snapshot directory exists among %v", types.ErrStorageUnavailable, e.config.SnapshotDirs)
	}

	films, err := e.source.Find(ctx, "", "")
	if err != nil {
		return nil, fmt.Errorf("reading films: %w", err)
	}
	records := make([]types.SnapshotFilm, 0, len(films))
	for i := range films {
		records = append(records, films[i].Snapshot())
	}
	data, err := Encode(records, e.beautify)
	if err != nil {
		return nil, err
	}

	name := e.config.GetSnapshotFile()
	primary := filepath.Join(dirs[0], name)
	if err := writeFileAtomic(primary, data); err != nil {
		return nil, fmt.Errorf("writing %s: %w", primary, err)
	}
	logger.Debug("snapshot written", zap.String("path", primary), zap.Int("films", len(records)))

	paths := []string{primary}
	for _, dir := range dirs[1:] {
		dst := filepath.Join(dir, name)
		if err := copyFileAtomic(primary, dst); err != nil {
			return paths, fmt.Errorf("copying to %s: %w", dst, err)
		}
		paths = append(paths, dst)
	}
	return paths, nil
}

// existingDirs keeps the directories of dirs that exist, in order.
func existingDirs(dirs []string) []string {
	var out []string
	for _, dir := range dirs {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			continue
		}
		out = append(out, dir)
	}
	return out
}

// Published returns the snapshot path in the first configured directory
// holding one.
func Published(config types.Config) (string, error) {
	name := config.GetSnapshotFile()
	for _, dir := range config.SnapshotDirs {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %v", types.ErrStorageUnavailable, err)
		}
	}
	return "", fmt.Errorf("%w: no %s in %v", types.ErrStorageUnavailable, name, config.SnapshotDirs)
}
