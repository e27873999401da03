// Package snapshot publishes the denormalized film catalog as a JSON file
// and answers searches against that file with the same rule table the
// relational store uses.
package snapshot

import (
	"bytes"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/mesh-intelligence/filmdex/pkg/types"
)

// codec keeps non-ASCII and HTML characters literal and follows struct
// field order.
var codec = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}.Froze()

// Encode serializes films as a JSON array. The compact form puts one
// record per line; beautify indents the whole document instead.
func Encode(films []types.SnapshotFilm, beautify bool) ([]byte, error) {
	if films == nil {
		films = []types.SnapshotFilm{}
	}
	if beautify {
		data, err := codec.MarshalIndent(films, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding snapshot: %w", err)
		}
		return append(data, '\n'), nil
	}

	var buf bytes.Buffer
	buf.WriteString("[\n")
	for i := range films {
		if i > 0 {
			buf.WriteString(",\n")
		}
		line, err := codec.Marshal(&films[i])
		if err != nil {
			return nil, fmt.Errorf("encoding %q: %w", films[i].Title, err)
		}
		buf.Write(line)
	}
	buf.WriteString("\n]\n")
	return buf.Bytes(), nil
}

// Decode parses a snapshot file in either form.
func Decode(data []byte) ([]types.SnapshotFilm, error) {
	var films []types.SnapshotFilm
	if err := codec.Unmarshal(data, &films); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	if films == nil {
		films = []types.SnapshotFilm{}
	}
	return films, nil
}
