package server

import (
	"log/slog"
	"slices"
	"time"

	"github.com/vango-dev/eventserver/pkg/transport"
)

// clientRegistry holds the client sessions keyed by token.
// It is guarded by the Server's lock.
type clientRegistry struct {
	clients map[uint32]*Client

	// Admission order, used for first-match polling.
	order []uint32

	maxClients int
	logger     *slog.Logger
	metrics    *metrics

	// Join and leave events not yet taken by the Server.
	changes []hostEvent
}

func newClientRegistry(maxClients int, logger *slog.Logger, m *metrics) *clientRegistry {
	return &clientRegistry{
		clients:    make(map[uint32]*Client),
		maxClients: maxClients,
		logger:     logger.With("component", "client_registry"),
		metrics:    m,
	}
}

// Get returns the client with the given token, or nil.
func (r *clientRegistry) Get(token uint32) *Client {
	return r.clients[token]
}

// Admit returns the client for token, creating it if needed.
// Returns ErrMaxClientsReached when a new client would exceed the cap.
func (r *clientRegistry) Admit(token uint32, addr transport.Address, now time.Time, opts clientOptions) (*Client, error) {
	if c, ok := r.clients[token]; ok {
		return c, nil
	}
	if len(r.clients) >= r.maxClients {
		return nil, ErrMaxClientsReached
	}

	c := newClient(token, addr, now, opts)
	r.clients[token] = c
	r.order = append(r.order, token)
	r.metrics.clientsAdmitted.Inc()
	r.metrics.clients.Set(float64(len(r.clients)))

	r.changes = append(r.changes, hostEvent{change: &ClientChange{
		ClientToken: token,
		Address:     addr.String(),
		Joined:      true,
	}})

	r.logger.Info("client created",
		"client_token", token,
		"address", addr.String(),
		"clients", len(r.clients))
	return c, nil
}

// Remove deletes the client with the given token.
func (r *clientRegistry) Remove(token uint32, reason string) {
	c, ok := r.clients[token]
	if !ok {
		return
	}
	delete(r.clients, token)
	r.order = slices.DeleteFunc(r.order, func(t uint32) bool { return t == token })
	r.metrics.clientsRemoved.WithLabelValues(reason).Inc()
	r.metrics.clients.Set(float64(len(r.clients)))

	r.changes = append(r.changes, hostEvent{change: &ClientChange{
		ClientToken: token,
		ClientName:  c.Name(),
		Address:     c.Addr().String(),
		Reason:      reason,
	}})

	r.logger.Info("client removed",
		"client_token", token,
		"client_name", c.Name(),
		"reason", reason,
		"clients", len(r.clients))
}

// CleanupExpired removes every client that is no longer alive.
// Returns the number removed.
func (r *clientRegistry) CleanupExpired(now time.Time) int {
	var expired []uint32
	reasons := make(map[uint32]string)
	for _, token := range r.order {
		c := r.clients[token]
		if c.Alive(now) {
			continue
		}
		expired = append(expired, token)
		if c.closed {
			reasons[token] = removeBye
		} else {
			reasons[token] = removeTimeout
		}
	}
	for _, token := range expired {
		r.Remove(token, reasons[token])
	}
	return len(expired)
}

// Each calls fn for every client in admission order until fn returns false.
func (r *clientRegistry) Each(fn func(*Client) bool) {
	for _, token := range r.order {
		if !fn(r.clients[token]) {
			return
		}
	}
}

// Clear removes every client.
func (r *clientRegistry) Clear(reason string) int {
	n := len(r.order)
	for _, token := range slices.Clone(r.order) {
		r.Remove(token, reason)
	}
	return n
}

// takeChanges returns and clears the pending join and leave events.
func (r *clientRegistry) takeChanges() []hostEvent {
	changes := r.changes
	r.changes = nil
	return changes
}

// Len returns the number of clients.
func (r *clientRegistry) Len() int {
	return len(r.clients)
}
