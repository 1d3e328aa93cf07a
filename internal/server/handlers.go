package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/drilldown/pkg/analysis"
	"github.com/matzehuels/drilldown/pkg/builder"
	derrors "github.com/matzehuels/drilldown/pkg/errors"
	"github.com/matzehuels/drilldown/pkg/graph"
	"github.com/matzehuels/drilldown/pkg/groups"
	dio "github.com/matzehuels/drilldown/pkg/io"
	"github.com/matzehuels/drilldown/pkg/nav"
	"github.com/matzehuels/drilldown/pkg/render"
	"github.com/matzehuels/drilldown/pkg/render/nodelink"
)

// =============================================================================
// Document and navigation
// =============================================================================

type graphResponse struct {
	Title       string       `json:"title"`
	Subtitle    string       `json:"subtitle,omitempty"`
	Builder     bool         `json:"builder"`
	Depth       int          `json:"depth"`
	Breadcrumbs []nav.Crumb  `json:"breadcrumbs"`
	Graph       *graph.Graph `json:"graph"`
}

func (s *Server) current() graphResponse {
	return graphResponse{
		Title:       s.sess.Title(),
		Subtitle:    s.sess.Serializer.Info.Subtitle,
		Builder:     s.sess.Builder.Enabled(),
		Depth:       s.sess.Stack.Depth(),
		Breadcrumbs: s.sess.Stack.Breadcrumbs(),
		Graph:       s.sess.Model.Current(),
	}
}

func (s *Server) getGraph(w http.ResponseWriter, _ *http.Request) error {
	writeJSON(w, http.StatusOK, s.current())
	return nil
}

func (s *Server) getBreadcrumbs(w http.ResponseWriter, _ *http.Request) error {
	writeJSON(w, http.StatusOK, s.sess.Stack.Breadcrumbs())
	return nil
}

func (s *Server) putTitle(w http.ResponseWriter, r *http.Request) error {
	var req titleRequest
	if err := s.decode(r, &req); err != nil {
		return err
	}
	s.sess.SetTitle(req.Title)
	s.sess.Serializer.Info.Subtitle = req.Subtitle
	writeJSON(w, http.StatusOK, s.current())
	return nil
}

func (s *Server) putBuilder(w http.ResponseWriter, r *http.Request) error {
	var req builderRequest
	if err := s.decode(r, &req); err != nil {
		return err
	}
	if req.Enabled {
		s.sess.Builder.Enable()
	} else {
		s.sess.Builder.Disable()
	}
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": s.sess.Builder.Enabled()})
	return nil
}

func (s *Server) drill(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")
	if _, ok := s.sess.Model.Entity(id); !ok {
		return derrors.New(derrors.ErrCodeNotFound, "entity %q not found", id)
	}
	if !s.sess.Builder.Drill(id) {
		return derrors.New(derrors.ErrCodeInvalidInput, "entity %q has no nested graph", id)
	}
	writeJSON(w, http.StatusOK, s.current())
	return nil
}

func (s *Server) back(w http.ResponseWriter, r *http.Request) error {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		return derrors.Wrap(derrors.ErrCodeInvalidInput, err, "breadcrumb index must be an integer")
	}
	if !s.sess.Builder.Back(index) {
		return derrors.New(derrors.ErrCodeInvalidInput, "breadcrumb index %d out of range", index)
	}
	writeJSON(w, http.StatusOK, s.current())
	return nil
}

// =============================================================================
// Entities and flows
// =============================================================================

func (s *Server) requireBuilder() error {
	if !s.sess.Builder.Enabled() {
		return derrors.New(derrors.ErrCodeInvalidInput, "builder mode is off")
	}
	return nil
}

func (s *Server) createEntity(w http.ResponseWriter, r *http.Request) error {
	if err := s.requireBuilder(); err != nil {
		return err
	}
	var req createEntityRequest
	if err := s.decode(r, &req); err != nil {
		return err
	}
	label := req.Label
	if label == "" {
		label = builder.NewEntityLabel
	}
	props := graph.EntityProps{ID: req.ID, Label: label, Group: req.Group, Description: req.Description}
	if req.Position != nil {
		pos := req.Position.pos()
		props.Position = &pos
	}
	if req.Nested {
		props.SubGraph = s.sess.Model.NewGraph(label + builder.SubGraphSuffix)
	}
	e, ok := s.sess.Model.AddEntity(props)
	if !ok {
		return derrors.New(derrors.ErrCodeInvalidInput, "entity %q already exists", req.ID)
	}
	writeJSON(w, http.StatusCreated, e)
	return nil
}

func (s *Server) updateEntity(w http.ResponseWriter, r *http.Request) error {
	if err := s.requireBuilder(); err != nil {
		return err
	}
	id := chi.URLParam(r, "id")
	var req updateEntityRequest
	if err := s.decode(r, &req); err != nil {
		return err
	}
	if !s.sess.Builder.SubmitEntity(id, req.patch()) {
		return derrors.New(derrors.ErrCodeNotFound, "entity %q not found", id)
	}
	e, _ := s.sess.Model.Entity(id)
	writeJSON(w, http.StatusOK, e)
	return nil
}

func (s *Server) deleteEntity(w http.ResponseWriter, r *http.Request) error {
	if err := s.requireBuilder(); err != nil {
		return err
	}
	id := chi.URLParam(r, "id")
	if !s.sess.Builder.DeleteEntity(id) {
		return derrors.New(derrors.ErrCodeNotFound, "entity %q not found", id)
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) createFlow(w http.ResponseWriter, r *http.Request) error {
	if err := s.requireBuilder(); err != nil {
		return err
	}
	var req createFlowRequest
	if err := s.decode(r, &req); err != nil {
		return err
	}
	if req.Source == req.Target {
		return derrors.New(derrors.ErrCodeInvalidInput, "a flow cannot connect an entity to itself")
	}
	for _, id := range []string{req.Source, req.Target} {
		if _, ok := s.sess.Model.Entity(id); !ok {
			return derrors.New(derrors.ErrCodeNotFound, "entity %q not found", id)
		}
	}
	f, ok := s.sess.Model.AddFlow(req.Source, req.Target, graph.FlowKind(req.Kind))
	if !ok {
		return derrors.New(derrors.ErrCodeInvalidInput, "flow not added")
	}
	writeJSON(w, http.StatusCreated, f)
	return nil
}

func (s *Server) updateFlow(w http.ResponseWriter, r *http.Request) error {
	if err := s.requireBuilder(); err != nil {
		return err
	}
	id := chi.URLParam(r, "id")
	var req updateFlowRequest
	if err := s.decode(r, &req); err != nil {
		return err
	}
	if _, ok := s.sess.Model.Flow(id); !ok {
		return derrors.New(derrors.ErrCodeNotFound, "flow %q not found", id)
	}
	if !s.sess.Builder.SubmitFlow(id, req.patch()) {
		return derrors.New(derrors.ErrCodeInvalidInput, "flow %q not updated", id)
	}
	f, _ := s.sess.Model.Flow(id)
	writeJSON(w, http.StatusOK, f)
	return nil
}

func (s *Server) deleteFlow(w http.ResponseWriter, r *http.Request) error {
	if err := s.requireBuilder(); err != nil {
		return err
	}
	id := chi.URLParam(r, "id")
	if !s.sess.Builder.DeleteFlow(id) {
		return derrors.New(derrors.ErrCodeNotFound, "flow %q not found", id)
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

type gestureResponse struct {
	Created bool        `json:"created"`
	Flow    *graph.Flow `json:"flow,omitempty"`
}

func (s *Server) linkGesture(w http.ResponseWriter, r *http.Request) error {
	var req linkGestureRequest
	if err := s.decode(r, &req); err != nil {
		return err
	}
	if err := s.requireBuilder(); err != nil {
		return err
	}
	if !s.sess.Builder.BeginLinkDrag(req.Source, req.Press.pos()) {
		return derrors.New(derrors.ErrCodeNotFound, "entity %q not found", req.Source)
	}
	for _, p := range req.Moves {
		s.sess.Builder.MovePointer(p.pos())
	}
	f, ok := s.sess.Builder.Release(req.Release.pos())
	writeJSON(w, http.StatusOK, gestureResponse{Created: ok, Flow: f})
	return nil
}

// =============================================================================
// Groups
// =============================================================================

type groupResponse struct {
	Key string `json:"key"`
	groups.Group
}

func (s *Server) listGroups(w http.ResponseWriter, _ *http.Request) error {
	all := s.sess.Groups.All()
	out := make([]groupResponse, len(all))
	for i, g := range all {
		out[i] = groupResponse{Key: g.Key, Group: g}
	}
	writeJSON(w, http.StatusOK, out)
	return nil
}

func (s *Server) putGroup(w http.ResponseWriter, r *http.Request) error {
	key := chi.URLParam(r, "key")
	if err := derrors.ValidateStorageKey(key); err != nil {
		return err
	}
	var req groupRequest
	if err := s.decode(r, &req); err != nil {
		return err
	}

	status := http.StatusOK
	if s.sess.Groups.Has(key) {
		s.sess.Groups.Update(key, groups.Patch{
			Title: req.Title, Color: req.Color, Radius: req.Radius, Description: req.Description,
		})
	} else {
		var p groups.Props
		if req.Title != nil {
			p.Title = *req.Title
		}
		if req.Color != nil {
			p.Color = *req.Color
		}
		if req.Radius != nil {
			p.Radius = *req.Radius
		}
		if req.Description != nil {
			p.Description = *req.Description
		}
		s.sess.Groups.Define(key, p)
		status = http.StatusCreated
	}
	g, _ := s.sess.Groups.Get(key)
	writeJSON(w, status, groupResponse{Key: key, Group: g})
	return nil
}

func (s *Server) deleteGroup(w http.ResponseWriter, r *http.Request) error {
	key := chi.URLParam(r, "key")
	if key == groups.DefaultKey {
		return derrors.New(derrors.ErrCodeInvalidInput, "the default group cannot be removed")
	}
	if !s.sess.Groups.Remove(key) {
		return derrors.New(derrors.ErrCodeNotFound, "group %q not found", key)
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// =============================================================================
// Import, export and views
// =============================================================================

func formatParam(r *http.Request) (dio.Format, error) {
	f := r.URL.Query().Get("format")
	if f == "" {
		if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
			return dio.FormatYAML, nil
		}
		return dio.FormatJSON, nil
	}
	return dio.ParseFormat(f)
}

func contentType(f dio.Format) string {
	if f == dio.FormatYAML {
		return "application/yaml"
	}
	return "application/json"
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) error {
	f, err := formatParam(r)
	if err != nil {
		return err
	}
	data, err := s.sess.Serializer.Marshal(f)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", contentType(f))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", s.sess.Serializer.Filename(f)))
	_, err = w.Write(data)
	return err
}

func (s *Server) importDocument(w http.ResponseWriter, r *http.Request) error {
	f, err := formatParam(r)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return derrors.Wrap(derrors.ErrCodeInvalidInput, err, "read request body")
	}
	d, err := s.sess.Import(data, f)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"shape":    d.Shape,
		"title":    s.sess.Title(),
		"entities": len(s.sess.Stack.Root().Nodes),
	})
	return nil
}

func (s *Server) renderSVG(w http.ResponseWriter, r *http.Request) error {
	var data []byte
	switch engine := r.URL.Query().Get("engine"); engine {
	case "", "native":
		data = render.RenderSVG(s.scene)
	case "graphviz":
		dot := nodelink.ToDOT(s.sess.Model.Current(), s.sess.Groups, nodelink.Options{
			Detailed:  r.URL.Query().Get("detailed") == "true",
			Recursive: r.URL.Query().Get("recursive") == "true",
		})
		out, err := nodelink.RenderSVG(r.Context(), dot)
		if err != nil {
			return derrors.Wrap(derrors.ErrCodeInternal, err, "graphviz rendering failed")
		}
		data = out
	default:
		return derrors.New(derrors.ErrCodeUnsupported, "unknown render engine %q", engine)
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, err := w.Write(data)
	return err
}

func (s *Server) stats(w http.ResponseWriter, _ *http.Request) error {
	writeJSON(w, http.StatusOK, analysis.Analyze(s.sess.Stack.Root()))
	return nil
}

func (s *Server) validateGraph(w http.ResponseWriter, _ *http.Request) error {
	problems := s.sess.Stack.Root().Validate()
	if problems == nil {
		problems = []graph.Problem{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"valid": len(problems) == 0, "problems": problems})
	return nil
}

// =============================================================================
// Stored documents
// =============================================================================

func (s *Server) requireStore() error {
	if s.store == nil {
		return derrors.New(derrors.ErrCodeUnsupported, "no document store configured")
	}
	return nil
}

func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) error {
	if err := s.requireStore(); err != nil {
		return err
	}
	keys, err := s.store.Keys(r.Context())
	if err != nil {
		return err
	}
	if keys == nil {
		keys = []string{}
	}
	writeJSON(w, http.StatusOK, keys)
	return nil
}

func (s *Server) saveDocument(w http.ResponseWriter, r *http.Request) error {
	if err := s.requireStore(); err != nil {
		return err
	}
	key := chi.URLParam(r, "key")
	if err := s.sess.Save(r.Context(), s.store, key); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": key})
	return nil
}

func (s *Server) loadDocument(w http.ResponseWriter, r *http.Request) error {
	if err := s.requireStore(); err != nil {
		return err
	}
	if _, err := s.sess.Load(r.Context(), s.store, chi.URLParam(r, "key")); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, s.current())
	return nil
}

func (s *Server) deleteDocument(w http.ResponseWriter, r *http.Request) error {
	if err := s.requireStore(); err != nil {
		return err
	}
	key := chi.URLParam(r, "key")
	found, err := s.store.Has(r.Context(), key)
	if err != nil {
		return err
	}
	if !found {
		return derrors.New(derrors.ErrCodeNotFound, "no document stored under %q", key)
	}
	if err := s.store.Remove(r.Context(), key); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
