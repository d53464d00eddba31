// Package transport provides the UDP endpoint used by the event server.
//
// Bind negotiates a dual-stack socket: an IPv6 wildcard socket with
// IPV6_V6ONLY cleared is preferred, and an IPv4 socket is used when IPv6 is
// unavailable. Ports are tried sequentially from the base port until one is
// free or the configured range is exhausted.
//
// A Listener multiplexes readability over one or more sockets. Each socket
// gets a reader goroutine; Wait blocks for the next datagram from any of
// them, bounded by a timeout, so the caller can observe a stop request
// within one timeout interval.
package transport
