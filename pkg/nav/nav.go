// Package nav tracks which level of a nested graph tree is being edited.
//
// A [Stack] holds graph references from the root to the current level.
// Drilling into an entity pushes its nested graph; clicking a breadcrumb
// truncates the stack back to an ancestor. Edits made at any level live in
// the shared tree, so moving up and down never loses them.
//
//	stack := nav.New(root, model, nil)
//	model.Bind(stack)
//	stack.Push(entity.SubGraph)
//	stack.Breadcrumbs() // [{Root, interactive} {Sub, current}]
//	stack.TruncateTo(0) // back at the root
package nav

import (
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/drilldown/pkg/graph"
	"github.com/matzehuels/drilldown/pkg/observability"
)

// Hydrator prepares a graph before it becomes current.
type Hydrator interface {
	Hydrate(g *graph.Graph)
}

// Crumb is one breadcrumb entry.
type Crumb struct {
	Index   int    `json:"index"`
	GraphID string `json:"graph_id"`
	Label   string `json:"label"`
	// Interactive is false for the last entry, which is the current level.
	Interactive bool `json:"interactive"`
}

// Stack is the navigation stack. It implements graph.Scope.
// It is not safe for concurrent use.
type Stack struct {
	root     *graph.Graph
	views    []*graph.Graph
	hydrator Hydrator
	logger   *log.Logger
}

// New returns a stack holding only root. A nil hydrator skips hydration.
func New(root *graph.Graph, h Hydrator, logger *log.Logger) *Stack {
	if logger == nil {
		logger = log.Default()
	}
	s := &Stack{hydrator: h, logger: logger}
	s.Reset(root)
	return s
}

// Reset makes root the only element of the stack.
func (s *Stack) Reset(root *graph.Graph) {
	s.root = root
	s.views = s.views[:0]
	if root != nil {
		s.views = append(s.views, root)
	}
	observability.Editor().OnNavigate("reset", len(s.views))
}

// Root returns the root graph.
func (s *Stack) Root() *graph.Graph { return s.root }

// Current returns the top of the stack, or the root when the stack is empty.
func (s *Stack) Current() *graph.Graph {
	if len(s.views) == 0 {
		return s.root
	}
	return s.views[len(s.views)-1]
}

// Depth returns the number of graphs on the stack.
func (s *Stack) Depth() int { return len(s.views) }

// Views returns the stack from root to current.
func (s *Stack) Views() []*graph.Graph {
	out := make([]*graph.Graph, len(s.views))
	copy(out, s.views)
	return out
}

// Push hydrates g and makes it the current level.
func (s *Stack) Push(g *graph.Graph) bool {
	if g == nil {
		s.logger.Debug("navigation skipped", "op", "push", "reason", "nil graph")
		return false
	}
	if s.hydrator != nil {
		s.hydrator.Hydrate(g)
	}
	s.views = append(s.views, g)
	observability.Editor().OnNavigate("push", len(s.views))
	return true
}

// TruncateTo drops every element after index, making views[index] current.
// An index at the current top is accepted and changes nothing. Negative and
// out-of-range indexes are rejected.
func (s *Stack) TruncateTo(index int) bool {
	if index < 0 || index >= len(s.views) {
		s.logger.Debug("navigation skipped", "op", "truncate", "index", index, "depth", len(s.views), "reason", "out of range")
		return false
	}
	clear(s.views[index+1:])
	s.views = s.views[:index+1]
	observability.Editor().OnNavigate("truncate", len(s.views))
	return true
}

// Up moves one level towards the root. It reports false at the root.
func (s *Stack) Up() bool {
	if len(s.views) < 2 {
		return false
	}
	return s.TruncateTo(len(s.views) - 2)
}

// Breadcrumbs projects the stack onto its labels. Every entry except the
// last can be clicked to jump back with TruncateTo(Index).
func (s *Stack) Breadcrumbs() []Crumb {
	crumbs := make([]Crumb, len(s.views))
	for i, g := range s.views {
		crumbs[i] = Crumb{
			Index:       i,
			GraphID:     g.ID,
			Label:       g.Label,
			Interactive: i < len(s.views)-1,
		}
	}
	return crumbs
}

// Path joins the breadcrumb labels with sep.
func (s *Stack) Path(sep string) string {
	labels := make([]string, len(s.views))
	for i, g := range s.views {
		labels[i] = g.Label
	}
	return strings.Join(labels, sep)
}
