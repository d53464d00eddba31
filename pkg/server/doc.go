// Package server provides the event server: client sessions, the receive
// loop and the polling surface consumed by the host's main loop.
//
// # Architecture
//
// The server runtime consists of several components:
//
//   - Client: per-client session state covering reassembly, liveness,
//     held buttons, queued actions and the last mouse position
//   - clientRegistry: clients keyed by token, with an admission cap and a
//     timeout sweep
//   - Server: owns the UDP socket and the single receive goroutine
//
// # Receive Loop
//
// Each iteration waits up to Config.PollInterval for one datagram, parses
// it, routes it to its client by token (or by source address when the
// packet carries token 0), then calls ProcessEvents on every client and
// removes clients that are no longer alive.
//
// A client is alive while it has sent a valid packet within
// Config.ClientTimeout and has not sent BYE.
//
// # Polling
//
// The host calls ButtonCode, MousePos and ExecuteNextAction from its own
// goroutine. All of them take the registry lock. ButtonCode and
// ExecuteNextAction scan clients in admission order and return the first
// match; there is no fairness between clients.
//
// # Collaborators
//
// NOTIFICATION, LOG and BLOB packets are handed to the configured Notifier,
// LogSink and BlobSink. They are called from the receive goroutine with no
// lock held.
//
// # Example
//
//	srv := server.New(&server.Config{
//	    Settings: server.StaticSettings(server.DefaultSettings()),
//	})
//	if err := srv.Start(ctx); err != nil {
//	    return err
//	}
//	defer srv.Stop()
//
//	for {
//	    if action, ok := srv.ExecuteNextAction(); ok {
//	        dispatch(action)
//	    }
//	}
package server
