package cli

import (
	"bytes"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/drilldown/pkg/graph"
	"github.com/matzehuels/drilldown/pkg/groups"
)

func sampleTree() (*graph.Graph, *groups.Registry) {
	reg := groups.New(log.New(io.Discard))
	reg.Define("svc", groups.Props{Title: "Services"})

	sub := &graph.Graph{ID: "g2", Label: "API Subgraph", Nodes: []*graph.Entity{
		{ID: "auth", Label: "Auth", Group: "svc"},
		{ID: "tokens", Label: "Token Service", Group: "svc"},
	}}
	root := &graph.Graph{
		ID:    "g1",
		Label: "Payments",
		Nodes: []*graph.Entity{
			{ID: "api", Label: "API", Group: "svc", SubGraph: sub},
			{ID: "db", Label: "Postgres"},
		},
		Links: []*graph.Flow{
			{ID: "f1", Source: "api", Target: "db", Kind: graph.KindAdmin, Direction: graph.Forward, Label: "migrations"},
			{ID: "f2", Source: "db", Target: "api", Kind: graph.KindFlow, Direction: graph.Bidirectional},
		},
	}
	return root, reg
}

func TestWriteTree(t *testing.T) {
	root, reg := sampleTree()

	tests := []struct {
		name string
		opts treeOptions
		want string
	}{
		{
			name: "ascii",
			opts: treeOptions{charset: treeCharsets["ascii"]},
			want: "Payments (2 entities, 2 flows)\n" +
				"|-- API [Services] ▸\n" +
				"|   |-- Auth [Services]\n" +
				"|   `-- Token Service [Services]\n" +
				"`-- Postgres [Default]\n",
		},
		{
			name: "flows and depth",
			opts: treeOptions{charset: treeCharsets["unicode"], depth: 1, flows: true},
			want: "Payments (2 entities, 2 flows)\n" +
				"├── API [Services] ▸\n" +
				"│   → Postgres (admin: migrations)\n" +
				"└── Postgres [Default]\n" +
				"    ↔ API (flow)\n",
		},
		{
			name: "width",
			opts: treeOptions{charset: treeCharsets["ascii"], depth: 1, width: 6},
			want: "Payme… (2 entities, 2 flows)\n" +
				"|-- API [Services] ▸\n" +
				"`-- Postg… [Default]\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			writeTree(&buf, root, reg, tt.opts)
			if got := buf.String(); got != tt.want {
				t.Errorf("writeTree() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestWriteTreeCycle(t *testing.T) {
	root, reg := sampleTree()
	// A nested graph that points back at its ancestor must not recurse forever.
	root.Nodes[0].SubGraph.Nodes[0].SubGraph = root

	var buf bytes.Buffer
	writeTree(&buf, root, reg, treeOptions{charset: treeCharsets["ascii"]})
	if buf.Len() == 0 {
		t.Fatal("writeTree() wrote nothing")
	}
}

func TestCountLevels(t *testing.T) {
	root, _ := sampleTree()
	if got := countLevels(root); got != 2 {
		t.Errorf("countLevels() = %d, want 2", got)
	}
}
