// Package session wires the editing components of one open document.
//
// A [Session] owns a group registry, a graph model, a navigation stack, a
// serializer and a builder controller, connected the way every surface
// (terminal editor, HTTP server, one-shot commands) needs them:
//
//	s := session.New(session.Options{Title: "Ecosystem", Logger: logger})
//	s.Builder.Enable()
//	e, _ := s.Builder.CreateEntityAt(graph.Position{X: 10, Y: 20})
//	s.Builder.Drill(e.ID)
//	err := s.SaveFile("ecosystem.json")
//
// The components are single-threaded. Surfaces that serve concurrent
// requests hold the session's lock around every call.
package session

import (
	"context"
	"path/filepath"
	"sort"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/drilldown/pkg/builder"
	"github.com/matzehuels/drilldown/pkg/errors"
	"github.com/matzehuels/drilldown/pkg/graph"
	"github.com/matzehuels/drilldown/pkg/groups"
	"github.com/matzehuels/drilldown/pkg/ident"
	"github.com/matzehuels/drilldown/pkg/io"
	"github.com/matzehuels/drilldown/pkg/nav"
	"github.com/matzehuels/drilldown/pkg/storage"
)

// Options configures a new session.
type Options struct {
	// Title of the document. Empty means io.DefaultTitle.
	Title string

	// Groups seed the registry next to the default group.
	Groups map[string]groups.Props

	IDs    ident.Generator
	Logger *log.Logger
}

// Session is one open document.
type Session struct {
	sync.Mutex

	Groups     *groups.Registry
	Model      *graph.Model
	Stack      *nav.Stack
	Serializer *io.Serializer
	Builder    *builder.Controller

	logger *log.Logger
	path   string
	dirty  bool
}

// New returns a session holding an empty root graph.
func New(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	ids := opts.IDs
	if ids == nil {
		ids = ident.Default
	}
	title := opts.Title
	if title == "" {
		title = io.DefaultTitle
	}

	reg := groups.New(logger)
	keys := make([]string, 0, len(opts.Groups))
	for k := range opts.Groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		reg.Define(k, opts.Groups[k])
	}

	model := graph.NewModel(reg, graph.WithIDGenerator(ids), graph.WithLogger(logger))
	stack := nav.New(model.NewGraph(title), model, logger)
	model.Bind(stack)

	ser := io.NewSerializer(reg, stack, model, logger)
	ser.Info.Title = title

	s := &Session{
		Groups:     reg,
		Model:      model,
		Stack:      stack,
		Serializer: ser,
		Builder:    builder.New(builder.Config{Model: model, Stack: stack, Logger: logger}),
		logger:     logger,
	}
	model.OnRender(func(*graph.Graph) { s.dirty = true })
	return s
}

// Title returns the document title.
func (s *Session) Title() string { return s.Serializer.Info.Title }

// SetTitle changes the document title.
func (s *Session) SetTitle(title string) {
	s.Serializer.Info.Title = title
	s.dirty = true
}

// Path returns the file the document was last opened from or saved to.
func (s *Session) Path() string { return s.path }

// Dirty reports whether the document changed since it was last loaded or
// saved.
func (s *Session) Dirty() bool { return s.dirty }

// Import replaces the document with an encoded package. A rejected payload
// leaves the session unchanged.
func (s *Session) Import(data []byte, f io.Format) (*io.Decoded, error) {
	d, err := s.Serializer.Import(data, f)
	if err != nil {
		return nil, err
	}
	s.Model.Render()
	s.dirty = false
	return d, nil
}

// OpenFile imports the document at path.
func (s *Session) OpenFile(ctx context.Context, path string) (*io.Decoded, error) {
	d, err := s.Serializer.ImportFile(ctx, path)
	if err != nil {
		return nil, err
	}
	s.Model.Render()
	s.path = path
	s.dirty = false
	s.logger.Debug("document opened", "path", path, "shape", d.Shape, "title", s.Title())
	return d, nil
}

// SaveFile writes the document to path. An empty path reuses the path the
// document came from.
func (s *Session) SaveFile(path string) error {
	if path == "" {
		path = s.path
	}
	if path == "" {
		return errors.New(errors.ErrCodeInvalidPath, "no file to save to")
	}
	if err := s.Serializer.ExportFile(path); err != nil {
		return err
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	s.path = path
	s.dirty = false
	s.logger.Debug("document saved", "path", path)
	return nil
}

// Save stores the document in st under key.
func (s *Session) Save(ctx context.Context, st *storage.Store, key string) error {
	data, err := s.Serializer.Marshal(io.FormatJSON)
	if err != nil {
		return err
	}
	if err := st.Set(ctx, key, data); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

// Load replaces the document with the one stored under key.
func (s *Session) Load(ctx context.Context, st *storage.Store, key string) (*io.Decoded, error) {
	data, found, err := st.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.New(errors.ErrCodeNotFound, "no document stored under %q", key)
	}
	return s.Import(data, io.FormatJSON)
}
