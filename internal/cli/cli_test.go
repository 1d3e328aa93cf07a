package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/drilldown/pkg/errors"
)

const legacyDocument = `{
  "title": "Payments",
  "groups": {"svc": {"label": "Services", "color": "#3b82f6", "radius": 24}},
  "nodes": [
    {"id": "api", "label": "API", "group": "svc", "desc": "Public **REST** API",
     "subGraph": {"id": "g-api", "label": "API Subgraph",
                  "nodes": [{"id": "auth", "label": "Auth"}], "links": []}},
    {"id": "db", "label": "Postgres", "group": "db"}
  ],
  "links": [{"source": "api", "target": "db", "type": "admin"}]
}`

type cliEnv struct {
	t      *testing.T
	dir    string
	config string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))

	cfg := filepath.Join(dir, "config.toml")
	body := fmt.Sprintf(`[store]
backend = "file"
dir = %q

[groups.db]
title = "Databases"
color = "#22c55e"
radius = 30
`, filepath.Join(dir, "store"))
	if err := os.WriteFile(cfg, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return &cliEnv{t: t, dir: dir, config: cfg}
}

func (e *cliEnv) path(name string) string { return filepath.Join(e.dir, name) }

func (e *cliEnv) run(args ...string) (string, error) {
	e.t.Helper()
	var buf bytes.Buffer
	old := stdout
	stdout = &buf
	defer func() { stdout = old }()

	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(append([]string{"--config", e.config}, args...))
	root.SetOut(&buf)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

func (e *cliEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run(args...)
	if err != nil {
		e.t.Fatalf("%s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

// importLegacy writes legacyDocument and converts it into doc.json.
func (e *cliEnv) importLegacy() string {
	e.t.Helper()
	src := e.path("legacy.json")
	if err := os.WriteFile(src, []byte(legacyDocument), 0o644); err != nil {
		e.t.Fatal(err)
	}
	doc := e.path("doc.json")
	e.mustRun("import", src, doc)
	return doc
}

func TestNewCommand(t *testing.T) {
	env := newCLIEnv(t)
	doc := env.path("new.json")

	out := env.mustRun("new", doc, "--title", "Payments")
	if !strings.Contains(out, "Created") {
		t.Errorf("output = %q, want a success line", out)
	}
	if _, err := os.Stat(doc); err != nil {
		t.Fatalf("document not written: %v", err)
	}

	_, err := env.run("new", doc)
	if !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("second new error = %v, want INVALID_PATH", err)
	}
	env.mustRun("new", doc, "--force")
}

func TestImportAndInspect(t *testing.T) {
	env := newCLIEnv(t)
	doc := env.importLegacy()

	data, err := os.ReadFile(doc)
	if err != nil {
		t.Fatal(err)
	}
	var pkg struct {
		Metadata struct {
			Title  string                    `json:"title"`
			Legend map[string]map[string]any `json:"legend"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		t.Fatalf("imported file is not a package: %v", err)
	}
	if pkg.Metadata.Title != "Payments" {
		t.Errorf("title = %q, want Payments", pkg.Metadata.Title)
	}
	for _, key := range []string{"default", "svc", "db"} {
		if _, ok := pkg.Metadata.Legend[key]; !ok {
			t.Errorf("legend is missing group %q", key)
		}
	}

	t.Run("inspect by id", func(t *testing.T) {
		out := env.mustRun("inspect", doc, "api", "--raw")
		for _, want := range []string{"# API", "Public **REST** API", "## API Subgraph", "- Auth"} {
			if !strings.Contains(out, want) {
				t.Errorf("inspect output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("inspect by label", func(t *testing.T) {
		out := env.mustRun("inspect", doc, "postgres", "--raw")
		if !strings.Contains(out, "| in | API | admin | forward |") {
			t.Errorf("inspect output missing the incoming flow:\n%s", out)
		}
	})

	t.Run("inspect nested", func(t *testing.T) {
		out := env.mustRun("inspect", doc, "auth", "--raw")
		if !strings.Contains(out, "API Subgraph") {
			t.Errorf("inspect output missing the level path:\n%s", out)
		}
	})

	t.Run("inspect missing", func(t *testing.T) {
		_, err := env.run("inspect", doc, "nope", "--raw")
		if !errors.Is(err, errors.ErrCodeNotFound) {
			t.Errorf("error = %v, want NOT_FOUND", err)
		}
	})
}

func TestTreeCommand(t *testing.T) {
	env := newCLIEnv(t)
	doc := env.importLegacy()

	out := env.mustRun("tree", doc, "--charset", "ascii", "--flows")
	for _, want := range []string{"|-- API [Services] ▸", "|   → Postgres (admin)", "|   `-- Auth [", "`-- Postgres [Databases]"} {
		if !strings.Contains(out, want) {
			t.Errorf("tree output missing %q:\n%s", want, out)
		}
	}

	shallow := env.mustRun("tree", doc, "--depth", "1")
	if strings.Contains(shallow, "Auth") {
		t.Errorf("--depth 1 expanded nested graphs:\n%s", shallow)
	}

	if _, err := env.run("tree", doc, "--charset", "emoji"); err == nil {
		t.Error("unknown charset accepted")
	}
}

func TestCheckAndStats(t *testing.T) {
	env := newCLIEnv(t)
	doc := env.importLegacy()

	out := env.mustRun("check", doc)
	if !strings.Contains(out, "is consistent") {
		t.Errorf("check output = %q", out)
	}

	out = env.mustRun("stats", doc, "--json")
	var report struct {
		Entities int `json:"entities"`
		Flows    int `json:"flows"`
		MaxDepth int `json:"max_depth"`
		Levels   []struct {
			Label string `json:"label"`
		} `json:"levels"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("stats --json: %v\n%s", err, out)
	}
	if report.Entities != 3 || report.Flows != 1 || len(report.Levels) != 2 {
		t.Errorf("report = %+v, want 3 entities, 1 flow, 2 levels", report)
	}

	broken := env.path("broken.json")
	body := `{"nodes": [{"id": "a", "label": "A"}], "links": [{"id": "f1", "source": "a", "target": "ghost"}]}`
	if err := os.WriteFile(broken, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := env.run("check", broken)
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("check error = %v, want INVALID_INPUT", err)
	}
	if !strings.Contains(out, "f1") {
		t.Errorf("check output does not name the dangling flow:\n%s", out)
	}
}

func TestGroupsCommands(t *testing.T) {
	env := newCLIEnv(t)
	doc := env.importLegacy()

	env.mustRun("groups", "define", doc, "cache", "--title", "Caches", "--color", "#f59e0b")
	out := env.mustRun("groups", "list", doc)
	if !strings.Contains(out, "Caches") || !strings.Contains(out, "#f59e0b") {
		t.Errorf("list output missing the new group:\n%s", out)
	}

	out = env.mustRun("groups", "define", doc, "--title", "Queues")
	if !strings.Contains(out, "Queues") {
		t.Errorf("define without key output = %q", out)
	}

	env.mustRun("groups", "update", doc, "cache", "--radius", "40")

	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"bad color", []string{"groups", "define", doc, "x", "--color", "blue"}, errors.ErrCodeInvalidColor},
		{"update missing", []string{"groups", "update", doc, "missing", "--title", "X"}, errors.ErrCodeNotFound},
		{"remove default", []string{"groups", "remove", doc, "default"}, errors.ErrCodeInvalidInput},
		{"remove missing", []string{"groups", "remove", doc, "missing"}, errors.ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.run(tt.args...)
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}

	out = env.mustRun("groups", "remove", doc, "svc")
	if !strings.Contains(out, "1 entities now use the default group") {
		t.Errorf("remove output = %q", out)
	}
}

func TestExportAndRender(t *testing.T) {
	env := newCLIEnv(t)
	doc := env.importLegacy()

	out := env.mustRun("export", doc, "-f", "yaml", "-o", "-")
	if !strings.Contains(out, "title: Payments") {
		t.Errorf("yaml export missing title:\n%s", out)
	}
	if _, err := env.run("export", doc, "-f", "xml", "-o", "-"); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("xml export error = %v, want UNSUPPORTED", err)
	}

	out = env.mustRun("render", doc, "-f", "dot", "-o", "-")
	if !strings.HasPrefix(out, "digraph G {") {
		t.Errorf("dot output = %q", out)
	}

	svg := env.path("api.svg")
	env.mustRun("render", doc, "--drill", "api", "-o", svg)
	data, err := os.ReadFile(svg)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte("<svg")) || !bytes.Contains(data, []byte("Auth")) {
		t.Errorf("svg of the nested level is missing content")
	}

	if _, err := env.run("render", doc, "--drill", "db", "-o", "-"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("drill into plain entity error = %v, want INVALID_INPUT", err)
	}
	if _, err := env.run("render", doc, "-f", "png", "-e", "graphviz"); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("png via graphviz error = %v, want UNSUPPORTED", err)
	}
}

func TestLayoutCommand(t *testing.T) {
	env := newCLIEnv(t)
	doc := env.importLegacy()

	out := env.mustRun("layout", doc)
	var l struct {
		Positions map[string]struct{ X, Y float64 } `json:"positions"`
	}
	if err := json.Unmarshal([]byte(out), &l); err != nil {
		t.Fatalf("layout output: %v\n%s", err, out)
	}
	if _, ok := l.Positions["api"]; !ok || len(l.Positions) != 2 {
		t.Errorf("positions = %v, want api and db", l.Positions)
	}

	out = env.mustRun("layout", doc, "--all")
	if !strings.Contains(out, "Placed 3 entities in 2 graphs") {
		t.Errorf("layout --all output = %q", out)
	}
	data, _ := os.ReadFile(doc)
	if !bytes.Contains(data, []byte(`"position"`)) {
		t.Error("layout --all did not store positions")
	}
}

func TestStoreCommands(t *testing.T) {
	env := newCLIEnv(t)
	doc := env.importLegacy()

	out := env.mustRun("save", doc)
	if !strings.Contains(out, "payments") {
		t.Errorf("save output = %q, want the slug key", out)
	}
	if out := env.mustRun("store", "keys"); strings.TrimSpace(out) != "payments" {
		t.Errorf("store keys = %q, want payments", out)
	}

	restored := env.path("restored.json")
	env.mustRun("load", "payments", restored)
	if _, err := env.run("load", "payments", restored); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("load over existing file error = %v, want INVALID_PATH", err)
	}
	out = env.mustRun("tree", restored)
	if !strings.Contains(out, "Postgres") {
		t.Errorf("restored document lost entities:\n%s", out)
	}

	if _, err := env.run("load", "missing", env.path("missing.json")); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("load missing error = %v, want NOT_FOUND", err)
	}

	if out := env.mustRun("store", "path"); strings.TrimSpace(out) != env.path("store") {
		t.Errorf("store path = %q, want %q", out, env.path("store"))
	}

	env.mustRun("store", "rm", "payments")
	if _, err := env.run("store", "rm", "payments"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("second rm error = %v, want NOT_FOUND", err)
	}
	if out := env.mustRun("store", "clear", "--yes"); !strings.Contains(out, "empty") {
		t.Errorf("clear on empty store = %q", out)
	}
}

func TestTitleFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"payments-platform.json", "Payments Platform"},
		{"/tmp/data_plane.yaml", "Data Plane"},
		{"eco.json", "Eco"},
	}
	for _, tt := range tests {
		if got := titleFromPath(tt.path); got != tt.want {
			t.Errorf("titleFromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
