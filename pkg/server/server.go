package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vango-dev/eventserver/pkg/protocol"
	"github.com/vango-dev/eventserver/pkg/transport"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Server receives event packets over UDP and exposes the decoded input to
// the host's main loop.
//
// A single goroutine runs the receive loop. Every polling method is safe to
// call from other goroutines.
type Server struct {
	config   *Config
	logger   *slog.Logger
	metrics  *metrics
	gatherer prometheus.Gatherer
	tracer   trace.Tracer

	notifier Notifier
	logSink  LogSink
	blobSink BlobSink
	watcher  ClientWatcher

	// mu guards the registry and the active settings.
	mu       sync.Mutex
	clients  *clientRegistry
	settings Settings

	// runMu serializes Start and Stop.
	runMu    sync.Mutex
	running  bool
	socket   *transport.Socket
	listener *transport.Listener
	stop     chan struct{}
	done     chan struct{}
}

// New creates a Server. It does not bind the socket; call Start.
func New(config *Config) *Server {
	cfg := config.withDefaults()

	reg := cfg.Registerer
	var gatherer prometheus.Gatherer
	if reg == nil {
		r := prometheus.NewRegistry()
		reg, gatherer = r, r
	} else if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	logger := cfg.Logger.With("component", "event_server")
	m := newMetrics(reg)

	s := &Server{
		config:   cfg,
		logger:   logger,
		metrics:  m,
		gatherer: gatherer,
		tracer:   otel.Tracer(cfg.TracerName),
		notifier: cfg.Notifier,
		logSink:  cfg.LogSink,
		blobSink: cfg.BlobSink,
		watcher:  cfg.Watcher,
		settings: cfg.Settings.Settings().normalize(),
	}
	if s.notifier == nil {
		s.notifier = slogSink{logger: cfg.Logger.With("component", "remote")}
	}
	if s.logSink == nil {
		s.logSink = slogSink{logger: cfg.Logger.With("component", "remote")}
	}
	if s.blobSink == nil {
		s.blobSink = discardBlobs{}
	}
	if s.watcher == nil {
		s.watcher = discardChanges{}
	}
	s.clients = newClientRegistry(s.settings.MaxClients, logger, m)
	return s
}

// Gatherer returns the registry holding the server's metrics, or nil when
// the configured Registerer is not also a Gatherer.
func (s *Server) Gatherer() prometheus.Gatherer {
	return s.gatherer
}

// Start reads the settings, binds the socket and starts the receive loop.
// It is a no-op if the server is already running. ctx bounds the bind only.
func (s *Server) Start(ctx context.Context) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if s.running {
		return nil
	}

	settings := s.config.Settings.Settings().normalize()
	sock, err := transport.Bind(ctx, transport.BindOptions{
		LocalOnly:   !settings.AllInterfaces,
		BasePort:    settings.Port,
		PortRange:   settings.PortRange,
		DisableIPv6: s.config.DisableIPv6,
		Logger:      s.logger,
	})
	if err != nil {
		return fmt.Errorf("server: start: %w", err)
	}

	listener := transport.NewListener(s.logger)
	if err := listener.Add(sock); err != nil {
		sock.Close()
		return fmt.Errorf("server: start: %w", err)
	}

	s.mu.Lock()
	s.settings = settings
	s.clients = newClientRegistry(settings.MaxClients, s.logger, s.metrics)
	s.metrics.clients.Set(0)
	s.mu.Unlock()

	s.socket = sock
	s.listener = listener
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.running = true

	go s.run(listener, s.stop, s.done)

	s.logger.Info("event server started",
		"address", sock.LocalAddr().String(),
		"family", sock.Family().String(),
		"max_clients", settings.MaxClients,
		"initial_delay", settings.InitialDelay,
		"continuous_delay", settings.ContinuousDelay)
	return nil
}

// Stop signals the receive loop to exit, waits for it and releases the
// socket. Every client session is discarded. It is a no-op if the server
// is not running.
func (s *Server) Stop() error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if !s.running {
		return nil
	}

	close(s.stop)
	err := s.listener.Close()
	<-s.done

	s.mu.Lock()
	removed := s.clients.Clear(removeStop)
	changes := s.clients.takeChanges()
	s.mu.Unlock()
	s.dispatch(changes)

	s.running = false
	s.socket = nil
	s.listener = nil

	s.logger.Info("event server stopped", "clients_removed", removed)
	return err
}

// Restart stops the server if it is running and starts it again with
// freshly read settings.
func (s *Server) Restart(ctx context.Context) error {
	if err := s.Stop(); err != nil {
		s.logger.Warn("error closing socket during restart", "error", err)
	}
	return s.Start(ctx)
}

// Running reports whether the receive loop is running.
func (s *Server) Running() bool {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.running
}

// Addr returns the bound address. Returns ErrNotRunning before Start.
func (s *Server) Addr() (transport.Address, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if !s.running {
		return transport.Address{}, ErrNotRunning
	}
	return s.socket.LocalAddr(), nil
}

func (s *Server) run(l *transport.Listener, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		default:
		}
		s.iterate(l)
	}
}

// iterate runs one pass of the receive loop. A panic is logged and
// contained to the pass.
func (s *Server) iterate(l *transport.Listener) {
	defer func() {
		if r := recover(); r != nil {
			s.metrics.loopPanics.Inc()
			s.logger.Error("receive loop panic",
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()

	if dg, ok := l.Wait(s.config.PollInterval); ok {
		s.handleDatagram(dg)
	}
	s.processClients()
}

// handleDatagram parses one datagram and routes it to its client.
func (s *Server) handleDatagram(dg transport.Datagram) {
	span := s.startDatagramSpan(dg)
	defer span.End()

	s.metrics.bytesReceived.Add(float64(len(dg.Data)))

	pkt, err := protocol.Parse(dg.Data)
	if err != nil {
		s.metrics.dropped(dropMalformed)
		s.logger.Debug("dropping malformed datagram",
			"source", dg.Source.String(),
			"size", len(dg.Data),
			"error", err)
		spanError(span, err, "malformed packet")
		return
	}

	token := pkt.Token
	if token == 0 {
		token = dg.Source.Token()
	}
	setPacketAttributes(span, pkt, token)
	s.metrics.packetsReceived.WithLabelValues(pkt.Type.String()).Inc()

	now := s.config.Now()

	s.mu.Lock()
	c, err := s.clients.Admit(token, dg.Source, now, s.clientOptions())
	if err == nil {
		c.addr = dg.Source
		err = c.AddPacket(pkt, now)
	}
	changes := s.clients.takeChanges()
	s.mu.Unlock()
	s.dispatch(changes)

	switch {
	case err == nil:
	case errors.Is(err, ErrMaxClientsReached):
		s.metrics.dropped(dropCapacity)
		s.logger.Warn("rejecting client",
			"client_token", token,
			"source", dg.Source.String(),
			"error", err)
		spanError(span, err, "capacity exceeded")
	default:
		s.metrics.dropped(dropFragment)
		s.logger.Warn("dropping packet",
			"client_token", token,
			"type", pkt.Type.String(),
			"seq", pkt.Seq,
			"total", pkt.Total,
			"error", err)
		spanError(span, err, "fragment rejected")
	}
}

// clientOptions must be called with s.mu held.
func (s *Server) clientOptions() clientOptions {
	return clientOptions{
		repeat:            s.repeatDelays(),
		timeout:           s.config.ClientTimeout,
		reassemblyTimeout: s.config.ReassemblyTimeout,
		logger:            s.logger,
		metrics:           s.metrics,
	}
}

func (s *Server) repeatDelays() RepeatDelays {
	return RepeatDelays{
		Initial:    s.settings.InitialDelay,
		Continuous: s.settings.ContinuousDelay,
	}
}

// processClients decodes every client's ready packets and sweeps dead
// clients. Host collaborators are called after the lock is released.
func (s *Server) processClients() {
	now := s.config.Now()

	var events []hostEvent
	s.mu.Lock()
	s.clients.Each(func(c *Client) bool {
		c.ProcessEvents(now)
		events = append(events, c.takeOutbox()...)
		return true
	})
	s.clients.CleanupExpired(now)
	events = append(events, s.clients.takeChanges()...)
	s.mu.Unlock()

	s.dispatch(events)
}

func (s *Server) dispatch(events []hostEvent) {
	for _, ev := range events {
		switch {
		case ev.notification != nil:
			s.notifier.Notify(*ev.notification)
		case ev.log != nil:
			s.logSink.RemoteLog(*ev.log)
		case ev.blob != nil:
			s.blobSink.Blob(*ev.blob)
		case ev.change != nil:
			s.watcher.ClientChanged(*ev.change)
		}
	}
}

// ButtonCode returns the first held button or axis across clients in
// admission order. There is no fairness between clients.
func (s *Server) ButtonCode() (ButtonEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		ev    ButtonEvent
		found bool
	)
	s.clients.Each(func(c *Client) bool {
		ev, found = c.ButtonState()
		return !found
	})
	return ev, found
}

// MousePos returns the most recently updated mouse position across clients.
func (s *Server) MousePos() (MousePos, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		pos    MousePos
		latest time.Time
		found  bool
	)
	s.clients.Each(func(c *Client) bool {
		p, ok := c.Mouse()
		if ok && (!found || c.mouseAt.After(latest)) {
			pos, latest, found = p, c.mouseAt, true
		}
		return true
	})
	return pos, found
}

// ExecuteNextAction pops the next queued action from the first client that
// has one. Due key repeats are emitted first. The caller executes the action.
func (s *Server) ExecuteNextAction() (Action, bool) {
	now := s.config.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		action Action
		found  bool
	)
	s.clients.Each(func(c *Client) bool {
		c.processRepeats(now)
		return true
	})
	s.clients.Each(func(c *Client) bool {
		action, found = c.NextAction()
		return !found
	})
	return action, found
}

// NumberOfClients returns the number of client sessions.
func (s *Server) NumberOfClients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clients.Len()
}

// Clients returns a snapshot of every client session in admission order.
func (s *Server) Clients() []ClientInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]ClientInfo, 0, s.clients.Len())
	s.clients.Each(func(c *Client) bool {
		infos = append(infos, c.info())
		return true
	})
	return infos
}

// RefreshSettings re-reads the key-repeat delays into every live client.
// Port and capacity changes take effect on the next Start.
func (s *Server) RefreshSettings() {
	fresh := s.config.Settings.Settings()

	s.mu.Lock()
	s.settings.InitialDelay = fresh.InitialDelay
	s.settings.ContinuousDelay = fresh.ContinuousDelay
	delays := s.repeatDelays()
	s.clients.Each(func(c *Client) bool {
		c.SetRepeatDelays(delays)
		return true
	})
	n := s.clients.Len()
	s.mu.Unlock()

	s.logger.Info("repeat delays refreshed",
		"initial_delay", delays.Initial,
		"continuous_delay", delays.Continuous,
		"clients", n)
}
