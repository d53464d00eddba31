// Package status serves an HTTP view of a running event server.
//
// Routes:
//
//	GET /healthz   liveness and client count
//	GET /clients   JSON snapshot of every client session
//	GET /metrics   Prometheus exposition
//	GET /feed      WebSocket stream of dispatched actions and notifications
//
// The host publishes feed events with Publish. Slow feed subscribers are
// disconnected rather than allowed to block the host.
package status
