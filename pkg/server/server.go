package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/kinesis/pkg/controller"
	"github.com/vango-dev/kinesis/pkg/snapshot"
	"github.com/vango-dev/kinesis/pkg/vdom"
)

// Server serves one component to many clients.
type Server struct {
	name string
	app  vdom.Component
	cfg  Config

	logger    *slog.Logger
	registry  *prometheus.Registry
	metrics   *metrics
	ctrlOpts  []controller.Option
	snapshots snapshot.Store
	upgrader  websocket.Upgrader

	mu       sync.RWMutex
	sessions map[string]*Session
	wg       sync.WaitGroup

	ctx        context.Context
	cancel     context.CancelFunc
	httpServer *http.Server
}

// New creates a server for app, which is known to clients as name.
func New(name string, app vdom.Component, cfg Config, opts ...Option) *Server {
	cfg.applyDefaults()
	s := &Server{
		name:     name,
		app:      app,
		cfg:      cfg,
		logger:   slog.Default(),
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "server", "app", name)
	if s.registry != nil {
		s.metrics = newMetrics(s.registry, cfg.MetricsNamespace)
		cm := controller.NewMetrics(
			controller.WithNamespace(cfg.MetricsNamespace),
			controller.WithRegistry(s.registry),
		)
		s.ctrlOpts = append([]controller.Option{controller.WithMetrics(cm)}, s.ctrlOpts...)
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     checkOrigin(cfg.AllowedOrigins),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s
}

// checkOrigin returns nil, gorilla's same-origin check, when allowed is empty.
func checkOrigin(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set["*"] || set[origin]
	}
}

// Config returns the server's effective configuration.
func (s *Server) Config() Config {
	return s.cfg
}

// Handler returns the HTTP handler with every route mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Get("/", s.servePage)
	r.Get("/client.js", s.serveClient)
	r.Get(s.cfg.SocketPath, s.handleSocket)
	r.Get("/render", s.serveRender)
	r.Get("/healthz", s.serveHealth)
	if s.registry != nil {
		r.Handle(s.cfg.MetricsPath, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	if s.snapshots != nil {
		r.Post("/snapshots", s.publishSnapshot)
		r.Get("/snapshots/{name}", s.serveSnapshot)
	}
	return r
}

// requestLogger logs every request except WebSocket upgrades at debug level.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()))
		})
	}
}

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(s.cfg.ReadLimit)

	sess := newSession(uuid.NewString(), conn, s.cfg, s.logger, s.metrics, s.ctrlOpts)
	if !s.add(sess) {
		sess.Close()
		return
	}
	defer s.remove(sess)
	sess.run(s.ctx, s.app)
}

func (s *Server) add(sess *Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return false
	}
	s.sessions[sess.ID] = sess
	s.wg.Add(1)
	s.metrics.opened()
	return true
}

func (s *Server) remove(sess *Session) {
	s.mu.Lock()
	delete(s.sessions, sess.ID)
	s.mu.Unlock()
	s.metrics.closed()
	s.wg.Done()
}

// Session returns the open session with id.
func (s *Server) Session(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Sessions returns the ids of open sessions, sorted.
func (s *Server) Sessions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *Server) serveHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	n := len(s.sessions)
	s.mu.RUnlock()
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "app": s.name, "sessions": n})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Serve accepts connections on l until Shutdown.
func (s *Server) Serve(l net.Listener) error {
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		l.Close()
		return nil
	}
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Info("server starting", "address", l.Addr().String())
	if err := srv.Serve(l); !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Run listens on the configured address and serves until ctx is done, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	l, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.Serve(l)
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-s.ctx.Done():
			// Shutdown was called directly.
			return nil
		}
		if ctx.Err() == nil {
			// Serve failed; nothing to drain.
			return nil
		}
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Shutdown closes every session, waits for them to unmount and stops the
// HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.cancel()
	srv := s.httpServer
	s.mu.Unlock()

	var err error
	if srv != nil {
		err = srv.Shutdown(ctx)
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.mu.RLock()
		for _, sess := range s.sessions {
			sess.Close()
		}
		s.mu.RUnlock()
		if err == nil {
			err = ctx.Err()
		}
	}
	s.logger.Info("server shutdown complete")
	return err
}
