package status

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vango-dev/eventserver/pkg/server"
)

// Source is the event server state the status pages read.
// *server.Server implements it.
type Source interface {
	Running() bool
	NumberOfClients() int
	Clients() []server.ClientInfo
}

// Options configure a status Server.
type Options struct {
	// Addr is the HTTP listen address. Default: "127.0.0.1:9778".
	Addr string

	// Source provides the client snapshot. Required.
	Source Source

	// Gatherer backs /metrics. Default: prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	// CheckOrigin validates feed upgrade requests. Default: same host only.
	CheckOrigin func(r *http.Request) bool

	// ShutdownTimeout bounds Run's graceful shutdown. Default: 5 seconds.
	ShutdownTimeout time.Duration

	// Logger is the base logger. Default: slog.Default().
	Logger *slog.Logger
}

// DefaultAddr is the default status listen address.
const DefaultAddr = "127.0.0.1:9778"

// Server is the status HTTP server.
type Server struct {
	opts     Options
	hub      *hub
	upgrader websocket.Upgrader
	router   chi.Router
	logger   *slog.Logger
}

// New creates a status Server.
func New(opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	logger := opts.Logger.With("component", "status")

	s := &Server{
		opts:   opts,
		hub:    newHub(logger),
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: opts.CheckOrigin,
		},
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/clients", s.handleClients)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	r.Get("/feed", s.handleFeed)
	return r
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Publish sends an event to every feed subscriber.
func (s *Server) Publish(ev Event) {
	s.hub.broadcast(ev)
}

// Subscribers returns the number of connected feed subscribers.
func (s *Server) Subscribers() int {
	return s.hub.count()
}

type healthResponse struct {
	Status  string `json:"status"`
	Running bool   `json:"running"`
	Clients int    `json:"clients"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:  "ok",
		Running: s.opts.Source.Running(),
		Clients: s.opts.Source.NumberOfClients(),
	}
	status := http.StatusOK
	if !resp.Running {
		resp.Status = "stopped"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleClients(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.opts.Source.Clients())
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("feed upgrade error", "error", err)
		return
	}

	s.logger.Info("feed subscriber connected", "remote_addr", r.RemoteAddr)
	sub := s.hub.add(conn)

	go func() {
		defer func() {
			s.hub.remove(sub)
			s.logger.Info("feed subscriber disconnected", "remote_addr", r.RemoteAddr)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Run serves HTTP on Options.Addr until ctx is done, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("status server starting", "address", ln.Addr().String())
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()

	s.hub.closeAll()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("status shutdown error", "error", err)
		return err
	}
	s.logger.Info("status server stopped")
	return nil
}
