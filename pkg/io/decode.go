package io

import (
	"bytes"
	"encoding/json"

	"github.com/matzehuels/drilldown/pkg/errors"
	"github.com/matzehuels/drilldown/pkg/graph"
)

// Shape names the document layout a payload was recognised as.
type Shape string

// Recognised document shapes.
const (
	ShapeEnvelope Shape = "envelope" // {"metadata": {...}, "data": {...}}
	ShapeBare     Shape = "bare"     // {"nodes": [...], "links": [...]}
)

// Decoded is a parsed document.
type Decoded struct {
	Shape   Shape
	Package Package
}

// shapeDecoder tries to decode one document shape. ok is false when the
// payload does not have that shape at all; err reports a payload that has
// the shape but is malformed.
type shapeDecoder func(fields map[string]json.RawMessage, data []byte) (pkg Package, ok bool, err error)

// shapes are tried in order; the first match wins.
var shapes = []struct {
	shape  Shape
	decode shapeDecoder
}{
	{ShapeEnvelope, decodeEnvelope},
	{ShapeBare, decodeBare},
}

// Decode parses a JSON document. It accepts the envelope first and falls
// back to a bare graph. Anything else is an INVALID_FORMAT error.
func Decode(data []byte) (*Decoded, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "document is not a JSON object")
	}
	for _, s := range shapes {
		pkg, ok, err := s.decode(fields, data)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "malformed %s document", s.shape)
		}
		if ok {
			return &Decoded{Shape: s.shape, Package: pkg}, nil
		}
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "invalid graph data format: expected metadata and data, or nodes and links")
}

func decodeEnvelope(fields map[string]json.RawMessage, data []byte) (Package, bool, error) {
	if !isKind(fields["metadata"], '{') || !isKind(fields["data"], '{') {
		return Package{}, false, nil
	}
	var pkg Package
	if err := json.Unmarshal(data, &pkg); err != nil {
		return Package{}, true, err
	}
	return pkg, true, nil
}

// bareDocument is a graph without the envelope. Older documents may carry a
// title and a groups map alongside the graph.
type bareDocument struct {
	Title    string                 `json:"title"`
	Subtitle string                 `json:"subtitle"`
	Groups   map[string]LegendEntry `json:"groups"`
}

func decodeBare(fields map[string]json.RawMessage, data []byte) (Package, bool, error) {
	if !isKind(fields["nodes"], '[') || !isKind(fields["links"], '[') {
		return Package{}, false, nil
	}
	var g graph.Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return Package{}, true, err
	}
	var doc bareDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return Package{}, true, err
	}
	return Package{
		Metadata: Metadata{Title: doc.Title, Subtitle: doc.Subtitle, Legend: doc.Groups},
		Data:     &g,
	}, true, nil
}

// isKind reports whether raw is a JSON value starting with delim.
func isKind(raw json.RawMessage, delim byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == delim
}
