package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/drilldown/pkg/ident"
	"github.com/matzehuels/drilldown/pkg/observability"
	"github.com/matzehuels/drilldown/pkg/session"
	"github.com/matzehuels/drilldown/pkg/storage"
)

type fixture struct {
	t   *testing.T
	srv *Server
}

func newFixture(t *testing.T, withStore bool) *fixture {
	t.Helper()
	sess := session.New(session.Options{Title: "Payments", IDs: &ident.Sequence{Prefix: "id"}})
	cfg := Config{Session: sess, Metrics: NewMetrics("drilldown")}
	if withStore {
		cfg.Store = storage.New(storage.NewMemory(), storage.DefaultPrefix)
	}
	cfg.Metrics.Install()
	t.Cleanup(observability.Reset)
	return &fixture{t: t, srv: New(cfg)}
}

func (f *fixture) do(method, path string, body any) *httptest.ResponseRecorder {
	f.t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(f.t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	w := httptest.NewRecorder()
	f.srv.ServeHTTP(w, req)
	return w
}

func (f *fixture) graph() graphResponse {
	f.t.Helper()
	w := f.do(http.MethodGet, "/api/graph", nil)
	require.Equal(f.t, http.StatusOK, w.Code)
	var out graphResponse
	require.NoError(f.t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// seed adds entities a at (100,100) and b at (300,100).
func (f *fixture) seed() {
	f.t.Helper()
	for _, e := range []map[string]any{
		{"id": "a", "label": "API", "position": map[string]float64{"x": 100, "y": 100}},
		{"id": "b", "label": "DB", "position": map[string]float64{"x": 300, "y": 100}},
	} {
		w := f.do(http.MethodPost, "/api/entities", e)
		require.Equal(f.t, http.StatusCreated, w.Code, w.Body.String())
	}
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var e errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	return e.Code
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, false)
	w := f.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestEntitiesAndFlows(t *testing.T) {
	f := newFixture(t, false)
	f.seed()

	t.Run("duplicate entity is rejected", func(t *testing.T) {
		w := f.do(http.MethodPost, "/api/entities", map[string]any{"id": "a"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("create flow", func(t *testing.T) {
		w := f.do(http.MethodPost, "/api/flows", map[string]any{"source": "a", "target": "b", "kind": "admin"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var flow map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &flow))
		assert.Equal(t, "admin", flow["kind"])
		assert.Equal(t, "forward", flow["direction"])
		assert.Equal(t, "Link", flow["label"])
	})

	t.Run("self loop", func(t *testing.T) {
		w := f.do(http.MethodPost, "/api/flows", map[string]any{"source": "a", "target": "a"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing endpoint", func(t *testing.T) {
		w := f.do(http.MethodPost, "/api/flows", map[string]any{"source": "a", "target": "zz"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid kind", func(t *testing.T) {
		w := f.do(http.MethodPost, "/api/flows", map[string]any{"source": "a", "target": "b", "kind": "bogus"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_INPUT", errorCode(t, w))
	})

	g := f.graph()
	require.Len(t, g.Graph.Nodes, 2)
	require.Len(t, g.Graph.Links, 1)
	flowID := g.Graph.Links[0].ID

	t.Run("update flow", func(t *testing.T) {
		w := f.do(http.MethodPatch, "/api/flows/"+flowID, map[string]any{"label": "ops", "direction": "bidirectional"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), `"direction":"bidirectional"`)
	})

	t.Run("update entity", func(t *testing.T) {
		w := f.do(http.MethodPatch, "/api/entities/a", map[string]any{"label": "Gateway"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"label":"Gateway"`)

		w = f.do(http.MethodPatch, "/api/entities/nope", map[string]any{"label": "x"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("delete entity cascades", func(t *testing.T) {
		w := f.do(http.MethodDelete, "/api/entities/b", nil)
		require.Equal(t, http.StatusNoContent, w.Code)
		g := f.graph()
		assert.Len(t, g.Graph.Nodes, 1)
		assert.Empty(t, g.Graph.Links)
	})
}

func TestLinkGesture(t *testing.T) {
	f := newFixture(t, false)
	f.seed()

	tests := []struct {
		name    string
		release map[string]float64
		created bool
	}{
		{"release on target", map[string]float64{"x": 305, "y": 100}, true},
		{"release on empty space", map[string]float64{"x": 200, "y": 300}, false},
		{"release on source", map[string]float64{"x": 101, "y": 99}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(http.MethodPost, "/api/gestures/link", map[string]any{
				"source":  "a",
				"press":   map[string]float64{"x": 100, "y": 100},
				"moves":   []map[string]float64{{"x": 150, "y": 120}},
				"release": tt.release,
			})
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			var resp gestureResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.created, resp.Created)
		})
	}

	assert.Len(t, f.graph().Graph.Links, 1)

	w := f.do(http.MethodPost, "/api/gestures/link", map[string]any{"source": "ghost"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBuilderMode(t *testing.T) {
	f := newFixture(t, false)
	f.seed()
	w := f.do(http.MethodPost, "/api/flows", map[string]any{"source": "a", "target": "b"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	flowID := f.graph().Graph.Links[0].ID

	w = f.do(http.MethodPut, "/api/builder", map[string]bool{"enabled": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, f.graph().Builder)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
	}{
		{"create entity", http.MethodPost, "/api/entities", map[string]any{"label": "x"}},
		{"update entity", http.MethodPatch, "/api/entities/a", map[string]any{"label": "Gateway"}},
		{"update flow", http.MethodPatch, "/api/flows/" + flowID, map[string]any{"label": "ops"}},
		{"delete entity", http.MethodDelete, "/api/entities/b", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "INVALID_INPUT", errorCode(t, w))
		})
	}

	g := f.graph()
	require.Len(t, g.Graph.Nodes, 2)
	assert.Equal(t, "API", g.Graph.Nodes[0].Label)
	require.Len(t, g.Graph.Links, 1)
	assert.Equal(t, "Link", g.Graph.Links[0].Label)
}

func TestHandlerPanicReleasesLock(t *testing.T) {
	f := newFixture(t, false)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/boom", f.srv.handle(func(http.ResponseWriter, *http.Request) error {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)

	done := make(chan int, 1)
	go func() {
		w := httptest.NewRecorder()
		f.srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/graph", nil))
		done <- w.Code
	}()
	select {
	case code := <-done:
		assert.Equal(t, http.StatusOK, code)
	case <-time.After(2 * time.Second):
		t.Fatal("GET /api/graph blocked after a handler panic")
	}
}

func TestNavigation(t *testing.T) {
	f := newFixture(t, false)
	w := f.do(http.MethodPost, "/api/entities", map[string]any{"id": "svc", "label": "Service", "nested": true})
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(http.MethodPost, "/api/nav/drill/svc", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	g := f.graph()
	assert.Equal(t, 2, g.Depth)
	assert.Equal(t, "Service Subgraph", g.Graph.Label)
	require.Len(t, g.Breadcrumbs, 2)
	assert.True(t, g.Breadcrumbs[0].Interactive)
	assert.False(t, g.Breadcrumbs[1].Interactive)

	w = f.do(http.MethodPost, "/api/nav/back/5", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, "/api/nav/back/0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, f.graph().Depth)

	w = f.do(http.MethodPost, "/api/nav/drill/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGroups(t *testing.T) {
	f := newFixture(t, false)

	w := f.do(http.MethodPut, "/api/groups/db", map[string]any{"title": "Databases", "color": "#22c55e", "radius": 30})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = f.do(http.MethodPut, "/api/groups/db", map[string]any{"radius": 40})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"key":"db","title":"Databases","color":"#22c55e","radius":40}`, w.Body.String())

	w = f.do(http.MethodPut, "/api/groups/db", map[string]any{"color": "blue"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodGet, "/api/groups", nil)
	var list []groupResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodDelete, "/api/groups/default", nil).Code)
	assert.Equal(t, http.StatusNoContent, f.do(http.MethodDelete, "/api/groups/db", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodDelete, "/api/groups/db", nil).Code)
}

func TestExportImport(t *testing.T) {
	f := newFixture(t, false)
	f.seed()

	w := f.do(http.MethodGet, "/api/export?format=yaml", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/yaml", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "payments_")
	exported := w.Body.String()

	other := newFixture(t, false)
	w = other.do(http.MethodPost, "/api/import?format=yaml", exported)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, other.graph().Graph.Nodes, 2)
	assert.Equal(t, "Payments", other.graph().Title)

	w = other.do(http.MethodPost, "/api/import", `{"nope":true}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_FORMAT", errorCode(t, w))
	assert.Len(t, other.graph().Graph.Nodes, 2)

	w = other.do(http.MethodGet, "/api/export?format=xml", nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestViews(t *testing.T) {
	f := newFixture(t, false)
	f.seed()
	f.do(http.MethodPost, "/api/flows", map[string]any{"source": "a", "target": "b"})

	w := f.do(http.MethodGet, "/api/render.svg", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "<svg")

	w = f.do(http.MethodGet, "/api/render.svg?engine=unknown", nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)

	w = f.do(http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"entities":2`)

	w = f.do(http.MethodGet, "/api/validate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"valid":true,"problems":[]}`, w.Body.String())
}

func TestDocuments(t *testing.T) {
	f := newFixture(t, true)
	f.seed()

	assert.Equal(t, http.StatusOK, f.do(http.MethodPut, "/api/documents/payments", nil).Code)

	w := f.do(http.MethodGet, "/api/documents", nil)
	assert.JSONEq(t, `["payments"]`, w.Body.String())

	f.do(http.MethodDelete, "/api/entities/a", nil)
	require.Len(t, f.graph().Graph.Nodes, 1)

	w = f.do(http.MethodPost, "/api/documents/payments/load", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, f.graph().Graph.Nodes, 2)

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodPost, "/api/documents/missing/load", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPut, "/api/documents/..", nil).Code)
	assert.Equal(t, http.StatusNoContent, f.do(http.MethodDelete, "/api/documents/payments", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodDelete, "/api/documents/payments", nil).Code)

	noStore := newFixture(t, false)
	assert.Equal(t, http.StatusNotImplemented, noStore.do(http.MethodGet, "/api/documents", nil).Code)
}

func TestMetrics(t *testing.T) {
	f := newFixture(t, false)
	f.seed()
	f.do(http.MethodPost, "/api/entities", map[string]any{"id": "a"})

	w := f.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `drilldown_http_requests_total{method="POST",route="/api/entities",status="201"} 2`)
	assert.Contains(t, body, `drilldown_graph_mutations_total{applied="false",op="add_entity"} 1`)
}

func TestUnknownFieldRejected(t *testing.T) {
	f := newFixture(t, false)
	w := f.do(http.MethodPost, "/api/entities", `{"id":"x","colour":"red"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
