package snapshot

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/filmdex/internal/logging"
	"github.com/mesh-intelligence/filmdex/internal/search"
	"github.com/mesh-intelligence/filmdex/pkg/types"
)

// Compile-time interface check.
var _ types.SnapshotSearcher = (*Engine)(nil)

// Engine answers searches from a published snapshot file. The file is
// read on the first search and kept until Reload.
type Engine struct {
	mu     sync.Mutex
	path   string
	films  []types.SnapshotFilm
	loaded bool
	logger *zap.Logger
}

// NewEngine returns an engine over the snapshot file at path.
func NewEngine(path string, logger *zap.Logger) *Engine {
	return &Engine{path: path, logger: logging.OrNop(logger)}
}

// Path returns the snapshot file the engine reads.
func (e *Engine) Path() string { return e.path }

// Reload rereads the snapshot file.
func (e *Engine) Reload() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.load()
}

// Search filters the snapshot through the shared rule table. Results keep
// snapshot order.
func (e *Engine) Search(targetColumn, searchText string) ([]types.SnapshotFilm, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.loaded {
		if err := e.load(); err != nil {
			return nil, err
		}
	}

	p := search.Compile(targetColumn, searchText)
	switch {
	case p.Invalid():
		e.logger.Warn("search ignored non-numeric text",
			zap.String("column", p.Key()),
			zap.String("text", p.Text()),
			zap.Error(types.ErrInvalidSearch))
	case p.Unknown():
		e.logger.Info("unknown search column, listing every film",
			zap.String("column", p.Key()))
	}

	matched := p.Filter(e.films)
	out := make([]types.SnapshotFilm, len(matched))
	for i := range matched {
		out[i] = matched[i].Clone()
	}
	return out, nil
}

func (e *Engine) load() error {
	data, err := os.ReadFile(e.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: snapshot %s does not exist", types.ErrStorageUnavailable, e.path)
		}
		return fmt.Errorf("reading snapshot: %w", err)
	}
	films, err := Decode(data)
	if err != nil {
		return err
	}
	e.films = films
	e.loaded = true
	e.logger.Debug("snapshot loaded", zap.String("path", e.path), zap.Int("films", len(films)))
	return nil
}
