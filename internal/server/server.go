// Package server exposes an editing session over HTTP.
//
// Every /api handler runs under the session lock, so the single-threaded
// editing components see one request at a time. Mutations that the model
// declines are reported as client errors; hit-test misses at the end of a
// link gesture are not errors and answer {"created": false}.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	derrors "github.com/matzehuels/drilldown/pkg/errors"
	"github.com/matzehuels/drilldown/pkg/graph"
	"github.com/matzehuels/drilldown/pkg/observability"
	"github.com/matzehuels/drilldown/pkg/render"
	"github.com/matzehuels/drilldown/pkg/session"
	"github.com/matzehuels/drilldown/pkg/storage"
)

// maxBodyBytes bounds request bodies, imports included.
const maxBodyBytes = 10 << 20

// Config wires a server. Session is required.
type Config struct {
	Session *session.Session

	// Store enables the /api/documents routes.
	Store *storage.Store

	// Metrics enables /metrics.
	Metrics *Metrics

	CORSOrigins []string
	Scene       render.Options
	Logger      *log.Logger
}

// Server is the HTTP surface of one session.
type Server struct {
	sess      *session.Session
	store     *storage.Store
	metrics   *Metrics
	scene     *render.Scene
	validator *validator.Validate
	logger    *log.Logger
	router    chi.Router
}

// New builds the server and its routes. Builder mode is switched on; the
// rendered scene becomes the builder's hit-test surface.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		sess:      cfg.Session,
		store:     cfg.Store,
		metrics:   cfg.Metrics,
		validator: newValidator(),
		logger:    logger,
	}

	s.scene = render.NewScene(s.sess.Model.Current(), s.sess.Groups, cfg.Scene)
	s.sess.Builder.SetSurface(s.scene)
	s.sess.Model.OnRender(func(g *graph.Graph) { s.scene.Rebuild(g, s.sess.Groups) })
	s.sess.Builder.Enable()

	s.router = s.routes(cfg.CORSOrigins)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Reload replaces the document with the file at path. It is safe to call
// from other goroutines, such as a file watcher.
func (s *Server) Reload(ctx context.Context, path string) error {
	s.sess.Lock()
	defer s.sess.Unlock()
	_, err := s.sess.OpenFile(ctx, path)
	return err
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) routes(origins []string) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)
	if len(origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/graph", s.handle(s.getGraph))
		r.Get("/breadcrumbs", s.handle(s.getBreadcrumbs))
		r.Put("/title", s.handle(s.putTitle))
		r.Put("/builder", s.handle(s.putBuilder))

		r.Post("/nav/drill/{id}", s.handle(s.drill))
		r.Post("/nav/back/{index}", s.handle(s.back))

		r.Post("/entities", s.handle(s.createEntity))
		r.Patch("/entities/{id}", s.handle(s.updateEntity))
		r.Delete("/entities/{id}", s.handle(s.deleteEntity))

		r.Post("/flows", s.handle(s.createFlow))
		r.Patch("/flows/{id}", s.handle(s.updateFlow))
		r.Delete("/flows/{id}", s.handle(s.deleteFlow))

		r.Post("/gestures/link", s.handle(s.linkGesture))

		r.Get("/groups", s.handle(s.listGroups))
		r.Put("/groups/{key}", s.handle(s.putGroup))
		r.Delete("/groups/{key}", s.handle(s.deleteGroup))

		r.Get("/export", s.handle(s.export))
		r.Post("/import", s.handle(s.importDocument))
		r.Get("/render.svg", s.handle(s.renderSVG))
		r.Get("/stats", s.handle(s.stats))
		r.Get("/validate", s.handle(s.validateGraph))

		r.Get("/documents", s.handle(s.listDocuments))
		r.Put("/documents/{key}", s.handle(s.saveDocument))
		r.Post("/documents/{key}/load", s.handle(s.loadDocument))
		r.Delete("/documents/{key}", s.handle(s.deleteDocument))
	})
	return r
}

// observe reports every request to the HTTP hooks under its route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		observability.HTTP().OnRequest(r.Context(), r.Method, route, status, time.Since(start))
		s.logger.Debug("request", "method", r.Method, "route", route, "status", status, "dur", time.Since(start))
	})
}

type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// handle runs h under the session lock and renders its error.
func (s *Server) handle(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.locked(w, r, h); err != nil {
			s.writeError(w, err)
		}
	}
}

// locked holds the session lock for the duration of h, including when h
// panics and the recoverer takes over.
func (s *Server) locked(w http.ResponseWriter, r *http.Request, h handlerFunc) error {
	s.sess.Lock()
	defer s.sess.Unlock()
	return h(w, r)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := derrors.HTTPStatus(err)
	if status >= 500 {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, errorResponse{Error: derrors.UserMessage(err), Code: string(derrors.GetCode(err))})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decode reads a JSON body into req and validates it.
func (s *Server) decode(r *http.Request, req any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil {
		return derrors.Wrap(derrors.ErrCodeInvalidInput, err, "invalid JSON body")
	}
	return s.validate(req)
}
