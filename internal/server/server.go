// Package server exposes the collections of a snapshot file over a
// read-only JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/arthur-debert/nanomodel/internal/filter"
	"github.com/arthur-debert/nanomodel/nanomodel"
	"github.com/arthur-debert/nanomodel/storage"
)

// DefaultLimit is the page size used when a listing has no limit parameter.
const DefaultLimit = 20

// reserved query parameters that are not field filters
var reserved = map[string]bool{"limit": true, "offset": true, "order": true, "q": true, "expr": true}

// Server serves the live models of a store.
type Server struct {
	store    *storage.Store
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *Collector
	limit    int
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDefaultLimit changes the page size of listings without a limit.
func WithDefaultLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.limit = n
		}
	}
}

// New creates a server for store. Metrics go to a registry private to the
// server.
func New(store *storage.Store, opts ...Option) *Server {
	registry := prometheus.NewRegistry()
	s := &Server{
		store:    store,
		logger:   slog.New(slog.DiscardHandler),
		registry: registry,
		metrics:  NewCollector(registry),
		limit:    DefaultLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.observeCollections()
	return s
}

// Metrics returns the server's metrics.
func (s *Server) Metrics() *Collector { return s.metrics }

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Get("/", s.handleIndex)
	r.Get("/{collection}", s.handleList)
	r.Get("/{collection}/{id}", s.handleGet)
	r.Get("/{collection}/{id}/{child}", s.handleChildren)
	return r
}

// Run serves on addr until ctx is cancelled. With watchPath set, the store
// is reloaded whenever that file changes.
func (s *Server) Run(ctx context.Context, addr, watchPath string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("http server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if watchPath != "" {
		g.Go(func() error {
			return s.Watch(ctx, watchPath)
		})
	}
	return g.Wait()
}

// Reload re-reads the snapshot and records the outcome.
func (s *Server) Reload() error {
	if err := s.store.Reload(); err != nil {
		s.metrics.ReloadErrors.Inc()
		return err
	}
	s.metrics.Reloads.Inc()
	s.observeCollections()
	return nil
}

func (s *Server) observeCollections() {
	_ = s.store.Locks().Execute(storage.ReadOperation, func() error {
		s.metrics.Collections.Reset()
		for _, m := range s.store.Catalog().Models() {
			s.metrics.Collections.WithLabelValues(m.Name()).Set(float64(m.Count()))
		}
		return nil
	})
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		s.metrics.RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		s.metrics.RequestDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration", elapsed,
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	counts, _ := s.store.Locks().ExecuteWithResult(storage.ReadOperation, func() (interface{}, error) {
		counts := make(map[string]int)
		for _, m := range s.store.Catalog().Models() {
			counts[m.Name()] = m.Count()
		}
		return counts, nil
	})
	writeJSON(w, http.StatusOK, counts)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	var (
		status = http.StatusOK
		body   interface{}
	)
	_ = s.store.Locks().Execute(storage.ReadOperation, func() error {
		m, ok := s.lookup(chi.URLParam(r, "collection"))
		if !ok {
			status, body = collectionNotFound(chi.URLParam(r, "collection"))
			return nil
		}
		rows, err := s.page(m, m.Query(), r.URL.Query())
		if err != nil {
			status, body = http.StatusBadRequest, errorBody(err.Error())
			return nil
		}
		s.metrics.RowsServed.WithLabelValues(m.Name()).Add(float64(len(rows)))
		body = rows
		return nil
	})
	writeJSON(w, status, body)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	var (
		status = http.StatusOK
		body   interface{}
	)
	_ = s.store.Locks().Execute(storage.ReadOperation, func() error {
		m, ok := s.lookup(chi.URLParam(r, "collection"))
		if !ok {
			status, body = collectionNotFound(chi.URLParam(r, "collection"))
			return nil
		}
		row := m.Get(chi.URLParam(r, "id"))
		if row == nil {
			status, body = http.StatusNotFound, errorBody(m.Name()+" not found.")
			return nil
		}
		s.metrics.RowsServed.WithLabelValues(m.Name()).Inc()
		body = row.Export()
		return nil
	})
	writeJSON(w, status, body)
}

// handleChildren lists the rows of the child collection whose REF fields
// point at the parent row, e.g. /user/1/posts.
func (s *Server) handleChildren(w http.ResponseWriter, r *http.Request) {
	var (
		status = http.StatusOK
		body   interface{}
	)
	_ = s.store.Locks().Execute(storage.ReadOperation, func() error {
		parent, ok := s.lookup(chi.URLParam(r, "collection"))
		if !ok {
			status, body = collectionNotFound(chi.URLParam(r, "collection"))
			return nil
		}
		child, ok := s.lookup(chi.URLParam(r, "child"))
		if !ok {
			status, body = collectionNotFound(chi.URLParam(r, "child"))
			return nil
		}
		row := parent.Get(chi.URLParam(r, "id"))
		if row == nil {
			status, body = http.StatusNotFound, errorBody(parent.Name()+" not found.")
			return nil
		}
		fields := s.store.Catalog().Referencing(parent)[child.Name()]
		if len(fields) == 0 {
			status, body = http.StatusNotFound, errorBody(fmt.Sprintf("%s has no reference to %s.", child.Name(), parent.Name()))
			return nil
		}

		id := row.ID()
		q := child.Where(func(c *nanomodel.Row) bool {
			for _, f := range fields {
				if target := c.Resolve(f); target != nil && target.ID() == id {
					return true
				}
			}
			return false
		})
		rows, err := s.page(child, q, r.URL.Query())
		if err != nil {
			status, body = http.StatusBadRequest, errorBody(err.Error())
			return nil
		}
		s.metrics.RowsServed.WithLabelValues(child.Name()).Add(float64(len(rows)))
		body = rows
		return nil
	})
	writeJSON(w, status, body)
}

// lookup finds a collection by name, ignoring case and a plural "s".
func (s *Server) lookup(name string) (*nanomodel.Model, bool) {
	catalog := s.store.Catalog()
	if m, ok := catalog.Get(name); ok {
		return m, true
	}
	if trimmed := strings.TrimSuffix(name, "s"); trimmed != name {
		return catalog.Get(trimmed)
	}
	return nil, false
}

// page applies filters, search, ordering and paging from the query string.
// Field filters are written like the CLI's: ?author=1, ?likes>=3 and
// ?title~=hello all work because the raw key and value are rejoined.
func (s *Server) page(m *nanomodel.Model, q nanomodel.Query, params url.Values) ([]nanomodel.Data, error) {
	var exprs []string
	for key, values := range params {
		if reserved[key] {
			continue
		}
		for _, v := range values {
			exprs = append(exprs, key+"="+v)
		}
	}
	conds, err := filter.ParseAll(exprs)
	if err != nil {
		return nil, err
	}
	pred, err := filter.Compile(m, conds)
	if err != nil {
		return nil, err
	}
	q = q.Where(pred)

	if text := params.Get("q"); text != "" {
		q = q.Where(filter.Search(m, text))
	}
	if source := params.Get("expr"); source != "" {
		pred, err := filter.Expr(m, source)
		if err != nil {
			return nil, err
		}
		q = q.Where(pred)
	}
	if order := params.Get("order"); order != "" {
		if field, desc := strings.CutPrefix(order, "-"); desc {
			q = q.OrderDesc(field)
		} else {
			q = q.Order(order)
		}
	}
	if raw := params.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid offset %q", raw)
		}
		q = q.Offset(n)
	}

	limit := s.limit
	if raw := params.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid limit %q", raw)
		}
		limit = n
	}
	return q.Limit(limit).Export(), nil
}

func errorBody(message string) map[string]string {
	return map[string]string{"error": message}
}

func collectionNotFound(name string) (int, interface{}) {
	return http.StatusNotFound, errorBody(fmt.Sprintf("Collection %q not found.", name))
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
