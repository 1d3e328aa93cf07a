package io

import (
	"encoding/json"

	"github.com/matzehuels/drilldown/pkg/graph"
	"github.com/matzehuels/drilldown/pkg/groups"
)

// DefaultTitle is used when a document is exported without a title.
const DefaultTitle = "Untitled Graph"

// TimestampFormat is the ISO-8601 layout of Metadata.ExportTimestamp.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// Package is an exported document: metadata plus the root graph tree.
type Package struct {
	Metadata Metadata     `json:"metadata"`
	Data     *graph.Graph `json:"data"`
}

// Metadata describes a document and carries its legend.
type Metadata struct {
	Title           string                 `json:"title"`
	Subtitle        string                 `json:"subtitle"`
	Legend          map[string]LegendEntry `json:"legend"`
	ExportTimestamp string                 `json:"exportTimestamp"`
}

// UnmarshalJSON decodes metadata, accepting "exportDate" from older
// documents.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	type plain Metadata
	var aux struct {
		plain
		ExportDate string `json:"exportDate"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*m = Metadata(aux.plain)
	if m.ExportTimestamp == "" {
		m.ExportTimestamp = aux.ExportDate
	}
	return nil
}

// LegendEntry is the exported form of a group. Title and Label carry the
// same value; readers accept either.
type LegendEntry struct {
	Title       string  `json:"title,omitempty"`
	Label       string  `json:"label,omitempty"`
	Color       string  `json:"color,omitempty"`
	Radius      float64 `json:"radius,omitempty"`
	Description string  `json:"description,omitempty"`
}

func legendEntry(g groups.Group) LegendEntry {
	return LegendEntry{
		Title:       g.Title,
		Label:       g.Title,
		Color:       g.Color,
		Radius:      g.Radius,
		Description: g.Description,
	}
}

// title prefers Label, the name the legend was first written with.
func (e LegendEntry) title() string {
	if e.Label != "" {
		return e.Label
	}
	return e.Title
}

// patch converts the entry's non-empty fields into a registry patch.
func (e LegendEntry) patch() groups.Patch {
	var p groups.Patch
	if t := e.title(); t != "" {
		p.Title = groups.Ptr(t)
	}
	if e.Color != "" {
		p.Color = groups.Ptr(e.Color)
	}
	if e.Radius > 0 {
		p.Radius = groups.Ptr(e.Radius)
	}
	if e.Description != "" {
		p.Description = groups.Ptr(e.Description)
	}
	return p
}

func (e LegendEntry) props() groups.Props {
	return groups.Props{
		Title:       e.title(),
		Color:       e.Color,
		Radius:      e.Radius,
		Description: e.Description,
	}
}
