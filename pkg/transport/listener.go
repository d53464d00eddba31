package transport

import (
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"
)

// ReadBufferSize is the per-read buffer. It is one byte larger than the
// largest valid datagram so oversized datagrams are still surfaced and can
// be rejected by the codec.
const ReadBufferSize = 1025

// PacketReader is a source of datagrams a Listener can watch.
// *Socket implements it.
type PacketReader interface {
	Read(buf []byte) (Address, int, error)
	Close() error
}

// Datagram is one received datagram.
type Datagram struct {
	Source Address
	Data   []byte
	From   PacketReader
}

// Listener multiplexes readability across PacketReaders.
type Listener struct {
	ch     chan Datagram
	done   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
	conns  []PacketReader
	closed bool
	logger *slog.Logger
}

// NewListener creates an empty Listener.
func NewListener(logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{
		ch:     make(chan Datagram, 64),
		done:   make(chan struct{}),
		logger: logger.With("component", "listener"),
	}
}

// Add starts watching r. The Listener takes ownership and closes r on Close.
func (l *Listener) Add(r PacketReader) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrListenerClosed
	}
	l.conns = append(l.conns, r)
	l.wg.Add(1)
	go l.readLoop(r)
	return nil
}

// Len returns the number of watched readers.
func (l *Listener) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.conns)
}

func (l *Listener) readLoop(r PacketReader) {
	defer l.wg.Done()

	for {
		buf := make([]byte, ReadBufferSize)
		src, n, err := r.Read(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			select {
			case <-l.done:
				return
			default:
			}
			l.logger.Debug("read error", "error", err)
			continue
		}

		select {
		case l.ch <- Datagram{Source: src, Data: buf[:n], From: r}:
		case <-l.done:
			return
		}
	}
}

// Wait blocks until a datagram is available from any reader or the timeout
// elapses. It returns false on timeout or after Close.
func (l *Listener) Wait(timeout time.Duration) (Datagram, bool) {
	select {
	case dg := <-l.ch:
		return dg, true
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case dg := <-l.ch:
		return dg, true
	case <-timer.C:
		return Datagram{}, false
	case <-l.done:
		return Datagram{}, false
	}
}

// Close closes every reader and waits for the reader goroutines to exit.
func (l *Listener) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	close(l.done)
	conns := l.conns
	l.conns = nil
	l.mu.Unlock()

	var errs []error
	for _, c := range conns {
		if err := c.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, err)
		}
	}
	l.wg.Wait()
	return errors.Join(errs...)
}
