// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package service serves renders over HTTP. A GET on / renders the requested
// view into a PNG in the image directory, named after its parameters, and
// returns the path. Files already present are returned without rendering.
package service

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/gogpu/mandelbrot"
	"github.com/gogpu/mandelbrot/internal/imageio"
)

// URLPrefix is the path under which cached images are served and the prefix
// of every path returned by the render endpoint.
const URLPrefix = "images"

// Server is an http.Handler that renders and caches images.
type Server struct {
	dir      string
	defaults mandelbrot.Params
	logger   *slog.Logger
	router   chi.Router

	renders atomic.Int64

	mu    sync.Mutex
	locks map[string]*keyLock
}

// keyLock serializes renders of one cache name. Entries are removed when the
// last holder or waiter releases them.
type keyLock struct {
	mu   sync.Mutex
	refs int
}

// Option configures a Server.
type Option func(*Server)

// WithDefaults sets the parameters used for query keys that are absent.
func WithDefaults(p mandelbrot.Params) Option {
	return func(s *Server) {
		s.defaults = p
	}
}

// WithLogger sets the request and render logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Server that caches images in dir, creating it if needed.
func New(dir string, opts ...Option) (*Server, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("service: create image dir: %w", err)
	}

	s := &Server{
		dir:      dir,
		defaults: mandelbrot.DefaultParams(),
		logger:   mandelbrot.Logger(),
		locks:    make(map[string]*keyLock),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(&logFormatter{logger: s.logger}))
	r.Use(middleware.Recoverer)
	r.Use(cors)

	r.Get("/", s.handleRender)
	r.Options("/*", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	fs := http.StripPrefix("/"+URLPrefix, http.FileServer(http.Dir(dir)))
	r.Get("/"+URLPrefix+"/*", fs.ServeHTTP)
	s.router = r

	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Renders returns the number of images rendered since the server started.
func (s *Server) Renders() int64 {
	return s.renders.Load()
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	p, err := s.parseQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	name := p.CacheName()
	if err := s.ensure(name, p); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, mandelbrot.ErrInvalidParams) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(path.Join(URLPrefix, name)))
}

// ensure renders name unless it is already in the cache. Requests for the
// same name are serialized so each image is rendered at most once.
func (s *Server) ensure(name string, p mandelbrot.Params) error {
	s.lock(name)
	defer s.unlock(name)

	file := filepath.Join(s.dir, name)
	if _, err := os.Stat(file); err == nil {
		s.logger.Debug("service: cache hit", "file", name)
		return nil
	}

	raster, err := mandelbrot.RenderRaster(p)
	if err != nil {
		return err
	}
	s.renders.Add(1)

	// A partial file must never be visible under the cache name.
	tmp := file + ".tmp.png"
	if err := imageio.Save(tmp, raster); err != nil {
		return err
	}
	if err := os.Rename(tmp, file); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("service: store %s: %w", name, err)
	}
	s.logger.Info("service: rendered", "file", name)
	return nil
}

func (s *Server) lock(name string) {
	s.mu.Lock()
	l, ok := s.locks[name]
	if !ok {
		l = new(keyLock)
		s.locks[name] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
}

func (s *Server) unlock(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.locks[name]
	l.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(s.locks, name)
	}
}

// pendingKeys returns the number of cache names with an active or waiting
// render.
func (s *Server) pendingKeys() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}

// parseQuery overlays the query values on the server defaults. The OpenCL
// flag wins over the Vulkan flag when both are set.
func (s *Server) parseQuery(r *http.Request) (mandelbrot.Params, error) {
	p := s.defaults
	q := r.URL.Query()

	ints := []struct {
		key string
		dst *int
	}{
		{"max_iter", &p.MaxIter},
		{"width", &p.Width},
		{"height", &p.Height},
		{"threads", &p.Threads},
		{"samples", &p.Samples},
	}
	for _, f := range ints {
		if v := q.Get(f.key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return p, fmt.Errorf("service: %s: %w", f.key, err)
			}
			*f.dst = n
		}
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"scale", &p.ScaleY},
		{"x", &p.CentreX},
		{"y", &p.CentreY},
	}
	for _, f := range floats {
		if v := q.Get(f.key); v != "" {
			x, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return p, fmt.Errorf("service: %s: %w", f.key, err)
			}
			*f.dst = x
		}
	}

	var ocl, vulkan bool
	bools := []struct {
		key string
		dst *bool
	}{
		{"colourise", &p.Colourise},
		{"ocl", &ocl},
		{"vulkan", &vulkan},
	}
	for _, f := range bools {
		if v := q.Get(f.key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return p, fmt.Errorf("service: %s: %w", f.key, err)
			}
			*f.dst = b
		}
	}
	switch {
	case ocl:
		p.Backend = mandelbrot.BackendOpenCL
	case vulkan:
		p.Backend = mandelbrot.BackendVulkan
	}

	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// cors attaches the same permissive headers to every response.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "POST, GET, PATCH, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "*")
		h.Set("Access-Control-Allow-Credentials", "true")
		next.ServeHTTP(w, r)
	})
}
