package graph

import (
	"encoding/json"
	"fmt"
	"os"
)

// =============================================================================
// Layout - Serialized Positions
// =============================================================================

// Layout is the serialization format for computed entity positions of one
// graph level. It is written by `drilldown layout` and can be applied back
// onto a graph to pin positions.
type Layout struct {
	GraphID   string              `json:"graph_id"`
	Width     float64             `json:"width"`
	Height    float64             `json:"height"`
	Positions map[string]Position `json:"positions"`
}

// Apply copies positions onto the matching entities of g and returns the
// number of entities updated.
func (l Layout) Apply(g *Graph) int {
	n := 0
	for _, e := range g.Nodes {
		if p, ok := l.Positions[e.ID]; ok {
			pos := p
			e.Position = &pos
			n++
		}
	}
	return n
}

// MarshalLayout converts a layout to indented JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// WriteLayoutFile writes a layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return fmt.Errorf("marshal layout: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadLayoutFile reads a layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("decode layout: %w", err)
	}
	return l, nil
}
