// Package io exports and imports drilldown documents.
//
// # Document Format
//
// A document is an envelope holding metadata and the root graph tree:
//
//	{
//	  "metadata": {
//	    "title": "Payments Ecosystem",
//	    "subtitle": "Q3 view",
//	    "legend": {"default": {"label": "Default", "color": "#000000", "radius": 15}},
//	    "exportTimestamp": "2024-05-01T12:00:00.000Z"
//	  },
//	  "data": {"id": "...", "label": "Ecosystem", "nodes": [...], "links": [...]}
//	}
//
// Older documents are a bare graph with no envelope. [Decode] treats the two
// layouts as a tagged union: it tries the envelope, then the bare graph, and
// reports an INVALID_FORMAT error from pkg/errors when neither matches.
// Field names used by older editors ("desc", "type", "exportDate", a
// top-level "groups" map) are accepted on import.
//
// # Import
//
// [Serializer.Import] is all-or-nothing. On success the legend is merged into
// the group registry (existing keys are updated, new keys defined), the tree
// is hydrated and the navigation stack is reset to the new root. On failure
// nothing changes.
//
//	s := io.NewSerializer(registry, stack, model, logger)
//	if _, err := s.ImportFile(ctx, "ecosystem.json"); err != nil {
//	    return err
//	}
//
// # Export
//
//	data, err := s.Marshal(io.FormatJSON)
//	name := s.Filename(io.FormatJSON) // "payments_ecosystem_2024-05-01.json"
//
// YAML is supported in both directions and goes through the JSON
// representation, so both formats share one schema.
package io
