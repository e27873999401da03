package sqlite

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/filmdex/pkg/types"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// ImportRow is one decoded seed row.
type ImportRow struct {
	PublishedYear *int
	Title         string
	JapaneseTitle *string
	Unwatched     bool
}

// ImportFailure records a row that was rolled back.
type ImportFailure struct {
	Row   int // 1-based position in the input array
	Title string
	Err   error
}

// ImportReport summarizes one import run.
type ImportReport struct {
	RunID    string
	Rows     int
	Imported int
	Tagged   int
	Failed   []ImportFailure
}

// ReadImportFile reads a seed file: a JSON array whose elements are
// [publishedYear, title, japaneseTitle, unwatchedFlag] arrays. Elements
// are returned undecoded so one bad row does not reject the file.
func ReadImportFile(path string) ([]jsoniter.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading import file: %w", err)
	}
	var rows []jsoniter.RawMessage
	if err := jsonAPI.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("%w: file is not a JSON array: %v", types.ErrInvalidImportRow, err)
	}
	return rows, nil
}

// ParseImportRow decodes one seed row. The year may be a number, an
// integer string or null; the flag follows JavaScript truthiness.
func ParseImportRow(raw []byte) (ImportRow, error) {
	var cells []any
	if err := jsonAPI.Unmarshal(raw, &cells); err != nil {
		return ImportRow{}, fmt.Errorf("%w: %v", types.ErrInvalidImportRow, err)
	}
	if len(cells) < 2 {
		return ImportRow{}, fmt.Errorf("%w: expected at least 2 cells, got %d", types.ErrInvalidImportRow, len(cells))
	}

	var row ImportRow

	year, err := parseYear(cells[0])
	if err != nil {
		return ImportRow{}, err
	}
	row.PublishedYear = year

	title, ok := cells[1].(string)
	if !ok || strings.TrimSpace(title) == "" {
		return ImportRow{}, fmt.Errorf("%w: %w", types.ErrInvalidImportRow, types.ErrInvalidTitle)
	}
	row.Title = title

	if len(cells) > 2 && cells[2] != nil {
		jt, ok := cells[2].(string)
		if !ok {
			return ImportRow{}, fmt.Errorf("%w: japanese title must be a string", types.ErrInvalidImportRow)
		}
		row.JapaneseTitle = &jt
	}

	if len(cells) > 3 {
		row.Unwatched = truthy(cells[3])
	}
	return row, nil
}

func parseYear(v any) (*int, error) {
	switch y := v.(type) {
	case nil:
		return nil, nil
	case float64:
		if y != math.Trunc(y) || math.IsInf(y, 0) {
			return nil, fmt.Errorf("%w: year %v is not an integer", types.ErrInvalidImportRow, y)
		}
		n := int(y)
		return &n, nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(y))
		if err != nil {
			return nil, fmt.Errorf("%w: year %q is not an integer", types.ErrInvalidImportRow, y)
		}
		return &n, nil
	default:
		return nil, fmt.Errorf("%w: year has type %T", types.ErrInvalidImportRow, v)
	}
}

// truthy mirrors JavaScript truthiness for decoded JSON values.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case string:
		return x != ""
	default:
		return true
	}
}

// Import inserts every row in its own transaction. A failing row is rolled
// back, logged and reported; the run continues. The returned error is
// non-nil only when the run could not proceed at all.
func (b *Backend) Import(ctx context.Context, rows []jsoniter.RawMessage) (*ImportReport, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrDetached
	}

	runID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating run id: %w", err)
	}
	report := &ImportReport{RunID: runID.String(), Rows: len(rows)}
	logger := b.logger.With(zap.String("run_id", report.RunID))
	tag := b.config.GetUnwatchedTag()

	logger.Info("import started", zap.Int("rows", len(rows)))

	for i, raw := range rows {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		row, err := ParseImportRow(raw)
		if err == nil {
			err = b.importRow(ctx, row, tag)
		}
		if err != nil {
			report.Failed = append(report.Failed, ImportFailure{Row: i + 1, Title: row.Title, Err: err})
			logger.Warn("import row failed",
				zap.Int("row", i+1),
				zap.String("title", row.Title),
				zap.Error(err))
			continue
		}

		report.Imported++
		if row.Unwatched {
			report.Tagged++
		}
		logger.Debug("import row stored", zap.Int("row", i+1), zap.String("title", row.Title))
	}

	logger.Info("import finished",
		zap.Int("imported", report.Imported),
		zap.Int("tagged", report.Tagged),
		zap.Int("failed", len(report.Failed)))
	return report, nil
}

// importRow stores one seed row. Scenario and review are stored as empty
// strings, not NULL.
func (b *Backend) importRow(ctx context.Context, row ImportRow, tag string) error {
	empty := ""
	film := &types.Film{
		PublishedYear: row.PublishedYear,
		Title:         row.Title,
		JapaneseTitle: row.JapaneseTitle,
		Scenario:      &empty,
		Review:        &empty,
	}
	return b.inTx(ctx, func(tx *sqlx.Tx) error {
		now := b.timestamp()
		rec := filmRecord(film)
		rec["created_at"] = now
		rec["updated_at"] = now
		id, err := insertFilm(ctx, tx, rec)
		if err != nil {
			return err
		}
		if !row.Unwatched {
			return nil
		}
		return replaceTags(ctx, tx, id, []types.Tag{{Name: tag}}, now)
	})
}
