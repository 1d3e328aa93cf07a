package analysis

import (
	"reflect"
	"testing"

	"github.com/matzehuels/drilldown/pkg/graph"
)

func entity(id string) *graph.Entity { return &graph.Entity{ID: id, Label: id} }

func flow(id, s, t string) *graph.Flow { return &graph.Flow{ID: id, Source: s, Target: t} }

// tree builds root{a-b, b-c, d, a->a, c->ghost}, a.sub{x-y}, x.sub{}.
func tree() *graph.Graph {
	deep := graph.New("deep", "Deep")
	sub := graph.New("sub", "Sub")
	sub.Nodes = []*graph.Entity{entity("x"), entity("y")}
	sub.Nodes[0].SubGraph = deep
	sub.Links = []*graph.Flow{flow("s1", "x", "y")}

	root := graph.New("root", "Root")
	root.Nodes = []*graph.Entity{entity("a"), entity("b"), entity("c"), entity("d")}
	root.Nodes[0].SubGraph = sub
	root.Links = []*graph.Flow{
		flow("f1", "a", "b"),
		flow("f2", "b", "c"),
		flow("f3", "a", "a"),
		flow("f4", "c", "ghost"),
		flow("f5", "b", "a"),
	}
	return root
}

func TestAnalyze(t *testing.T) {
	r := Analyze(tree())

	if len(r.Levels) != 3 {
		t.Fatalf("len(Levels) = %d, want 3", len(r.Levels))
	}
	if r.MaxDepth != 2 {
		t.Errorf("MaxDepth = %d, want 2", r.MaxDepth)
	}
	if r.Entities != 6 || r.Flows != 6 {
		t.Errorf("totals = %d entities, %d flows, want 6, 6", r.Entities, r.Flows)
	}

	root := r.Levels[0]
	want := Level{
		GraphID: "root", Label: "Root", Path: []string{"Root"},
		Entities: 4, Flows: 5, Nested: 1,
		Components: 2, Isolated: 1, Dangling: 1,
		Hub: "b", HubDegree: 2,
	}
	if !reflect.DeepEqual(root, want) {
		t.Errorf("root level = %+v\nwant %+v", root, want)
	}

	deep := r.Levels[2]
	if !reflect.DeepEqual(deep.Path, []string{"Root", "Sub", "Deep"}) || deep.Depth != 2 {
		t.Errorf("deep level path = %v depth %d", deep.Path, deep.Depth)
	}
}

func TestAnalyzeSharedSubgraph(t *testing.T) {
	root := tree()
	root.Nodes[1].SubGraph = root.Nodes[0].SubGraph
	if got := len(Analyze(root).Levels); got != 3 {
		t.Errorf("len(Levels) = %d, want 3", got)
	}
}

func TestAnalyzeNil(t *testing.T) {
	if r := Analyze(nil); len(r.Levels) != 0 {
		t.Errorf("Analyze(nil) = %+v", r)
	}
}

func TestComponents(t *testing.T) {
	got := Components(tree())
	want := [][]string{{"a", "b", "c"}, {"d"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Components() = %v, want %v", got, want)
	}
}

func TestDegrees(t *testing.T) {
	got := Degrees(tree())
	want := map[string]int{"a": 1, "b": 2, "c": 1, "d": 0}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Degrees() = %v, want %v", got, want)
	}
}
