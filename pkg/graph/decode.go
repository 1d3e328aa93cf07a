package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Documents written by older editors use different field names: entities
// carry "desc" and bare "x"/"y" coordinates, flows carry "type" instead of
// "kind", and flow endpoints may be whole entity objects rather than ids.
// The decoders below accept both spellings and always encode the current one.

// UnmarshalJSON decodes an entity, accepting legacy field names.
func (e *Entity) UnmarshalJSON(data []byte) error {
	type plain Entity
	var aux struct {
		plain
		Desc *string  `json:"desc"`
		X    *float64 `json:"x"`
		Y    *float64 `json:"y"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*e = Entity(aux.plain)
	if e.Description == "" && aux.Desc != nil {
		e.Description = *aux.Desc
	}
	if e.Position == nil && aux.X != nil && aux.Y != nil {
		e.Position = &Position{X: *aux.X, Y: *aux.Y}
	}
	return nil
}

// UnmarshalJSON decodes a flow, accepting legacy field names.
func (f *Flow) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID        string          `json:"id"`
		Source    json.RawMessage `json:"source"`
		Target    json.RawMessage `json:"target"`
		Kind      FlowKind        `json:"kind"`
		Type      FlowKind        `json:"type"`
		Label     string          `json:"label"`
		Direction Direction       `json:"direction"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	src, err := endpointID(aux.Source)
	if err != nil {
		return fmt.Errorf("source: %w", err)
	}
	tgt, err := endpointID(aux.Target)
	if err != nil {
		return fmt.Errorf("target: %w", err)
	}
	*f = Flow{
		ID:        aux.ID,
		Source:    src,
		Target:    tgt,
		Kind:      aux.Kind,
		Label:     aux.Label,
		Direction: aux.Direction,
	}
	if f.Kind == "" {
		f.Kind = aux.Type
	}
	return nil
}

// endpointID accepts "id" or {"id": "..."}.
func endpointID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '{' {
		var obj struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return "", err
		}
		return obj.ID, nil
	}
	var id string
	if err := json.Unmarshal(raw, &id); err != nil {
		return "", err
	}
	return id, nil
}
