// Package ident generates identifiers for entities, flows, graphs and groups.
//
// Identifiers are UUID-v4 shaped strings. Uniqueness is only required within
// a single graph, but random UUIDs make collisions across the whole tree
// vanishingly unlikely, so one generator can serve every graph.
//
//	gen := ident.UUID{}
//	id := gen.NewID() // "3f4e5d6c-7b8a-49f0-ae1d-2c3b4a5e6d7f"
//
// Tests that need stable output use [Sequence] instead.
package ident

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Generator produces identifiers.
type Generator interface {
	NewID() string
}

// UUID generates random version 4 UUIDs.
type UUID struct{}

// NewID returns a new random UUID string.
func (UUID) NewID() string { return uuid.New().String() }

// Default is the generator used when a component is built without one.
var Default Generator = UUID{}

// Sequence generates predictable identifiers ("<prefix>1", "<prefix>2", ...).
// It is safe for concurrent use.
type Sequence struct {
	Prefix string

	mu sync.Mutex
	n  int
}

// NewID returns the next identifier in the sequence.
func (s *Sequence) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s%d", s.Prefix, s.n)
}

// Valid reports whether id parses as a UUID.
func Valid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
