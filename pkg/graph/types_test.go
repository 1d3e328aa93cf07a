package graph

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func sampleTree() *Graph {
	leaf := &Graph{ID: "leaf", Label: "Leaf", Nodes: []*Entity{{ID: "l1", Label: "L1"}}, Links: []*Flow{}}
	return &Graph{
		ID:    "root",
		Label: "Root",
		Nodes: []*Entity{
			{ID: "a", Label: "A", Group: "default", SubGraph: leaf, Position: &Position{X: 1, Y: 2}},
			{ID: "b", Label: "B", Group: "default"},
		},
		Links: []*Flow{{ID: "f", Source: "a", Target: "b", Kind: KindFlow, Direction: Forward}},
	}
}

func TestWalk(t *testing.T) {
	var visited []string
	var depths []int
	sampleTree().Walk(func(g *Graph, depth int) bool {
		visited = append(visited, g.ID)
		depths = append(depths, depth)
		return true
	})
	if strings.Join(visited, ",") != "root,leaf" {
		t.Errorf("visited = %v, want [root leaf]", visited)
	}
	if depths[1] != 1 {
		t.Errorf("leaf depth = %d, want 1", depths[1])
	}
}

func TestWalkStops(t *testing.T) {
	n := 0
	sampleTree().Walk(func(*Graph, int) bool {
		n++
		return false
	})
	if n != 1 {
		t.Errorf("visits = %d, want 1", n)
	}
}

func TestClone(t *testing.T) {
	g := sampleTree()
	c := g.Clone()

	c.Nodes[0].Label = "changed"
	c.Nodes[0].Position.X = 50
	c.Nodes[0].SubGraph.Nodes[0].Label = "changed"
	c.Links[0].Label = "changed"

	if g.Nodes[0].Label != "A" || g.Nodes[0].Position.X != 1 {
		t.Error("Clone shares entities with the original")
	}
	if g.Nodes[0].SubGraph.Nodes[0].Label != "L1" {
		t.Error("Clone shares nested graphs with the original")
	}
	if g.Links[0].Label != "" {
		t.Error("Clone shares flows with the original")
	}
}

func TestFlowsOf(t *testing.T) {
	g := sampleTree()
	if got := len(g.FlowsOf("a")); got != 1 {
		t.Errorf("len(FlowsOf(a)) = %d, want 1", got)
	}
	if got := len(g.FlowsOf("l1")); got != 0 {
		t.Errorf("len(FlowsOf(l1)) = %d, want 0", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		mod   func(g *Graph)
		wants []string
	}{
		{"consistent", func(*Graph) {}, nil},
		{
			name:  "dangling target",
			mod:   func(g *Graph) { g.Links[0].Target = "zz" },
			wants: []string{`target "zz" not found`},
		},
		{
			name:  "self-loop",
			mod:   func(g *Graph) { g.Links[0].Target = "a" },
			wants: []string{"self-loop"},
		},
		{
			name: "nested cross-level flow",
			mod: func(g *Graph) {
				leaf := g.Nodes[0].SubGraph
				leaf.Links = append(leaf.Links, &Flow{ID: "x", Source: "l1", Target: "b"})
			},
			wants: []string{`target "b" not found`},
		},
		{
			name:  "duplicate entity",
			mod:   func(g *Graph) { g.Nodes[1].ID = "a" },
			wants: []string{`duplicate entity id "a"`, `target "b" not found`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := sampleTree()
			tt.mod(g)
			problems := g.Validate()
			if len(problems) != len(tt.wants) {
				t.Fatalf("Validate() = %v, want %d problems", problems, len(tt.wants))
			}
			for i, want := range tt.wants {
				if problems[i].Reason != want {
					t.Errorf("problem[%d].Reason = %q, want %q", i, problems[i].Reason, want)
				}
			}
		})
	}
}

func TestFlowUnmarshalEndpoints(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Flow
	}{
		{
			name: "current",
			in:   `{"id":"f","source":"a","target":"b","kind":"internal","label":"l","direction":"backward"}`,
			want: Flow{ID: "f", Source: "a", Target: "b", Kind: KindInternal, Label: "l", Direction: Backward},
		},
		{
			name: "legacy type",
			in:   `{"id":"f","source":"a","target":"b","type":"admin"}`,
			want: Flow{ID: "f", Source: "a", Target: "b", Kind: KindAdmin},
		},
		{
			name: "object endpoints",
			in:   `{"id":"f","source":{"id":"a","x":1},"target":{"id":"b"}}`,
			want: Flow{ID: "f", Source: "a", Target: "b"},
		},
		{
			name: "kind wins over type",
			in:   `{"source":"a","target":"b","kind":"flow","type":"admin"}`,
			want: Flow{Source: "a", Target: "b", Kind: KindFlow},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f Flow
			if err := json.Unmarshal([]byte(tt.in), &f); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if f != tt.want {
				t.Errorf("Flow = %+v, want %+v", f, tt.want)
			}
		})
	}
}

func TestFlowUnmarshalBadEndpoint(t *testing.T) {
	var f Flow
	if err := json.Unmarshal([]byte(`{"source": 12, "target": "b"}`), &f); err == nil {
		t.Error("Unmarshal() error = nil, want error")
	}
}

func TestWriteReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "g.json")
	if err := WriteFile(sampleTree(), path); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	g, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if g.Nodes[0].SubGraph == nil || g.Nodes[0].SubGraph.ID != "leaf" {
		t.Errorf("nested graph lost: %+v", g.Nodes[0])
	}
	if g.Nodes[0].Position == nil || g.Nodes[0].Position.Y != 2 {
		t.Errorf("position lost: %+v", g.Nodes[0].Position)
	}

	data, _ := os.ReadFile(path)
	if bytes.Contains(data, []byte(`"desc"`)) || bytes.Contains(data, []byte(`"type"`)) {
		t.Error("encoded document uses legacy field names")
	}
}

func TestReadInvalid(t *testing.T) {
	if _, err := Read(strings.NewReader("{")); err == nil {
		t.Error("Read() error = nil, want error")
	}
}

func TestLayoutApply(t *testing.T) {
	g := sampleTree()
	l := Layout{Positions: map[string]Position{"b": {X: 7, Y: 8}, "zz": {}}}
	if n := l.Apply(g); n != 1 {
		t.Errorf("Apply() = %d, want 1", n)
	}
	if p := g.Nodes[1].Position; p == nil || p.X != 7 {
		t.Errorf("Position = %+v, want {7 8}", p)
	}

	path := filepath.Join(t.TempDir(), "layout.json")
	if err := WriteLayoutFile(l, path); err != nil {
		t.Fatalf("WriteLayoutFile() error = %v", err)
	}
	back, err := ReadLayoutFile(path)
	if err != nil {
		t.Fatalf("ReadLayoutFile() error = %v", err)
	}
	if back.Positions["b"].Y != 8 {
		t.Errorf("round-tripped position = %+v", back.Positions["b"])
	}
}
