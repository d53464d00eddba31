package remote

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vango-dev/eventserver/pkg/protocol"
	"github.com/vango-dev/eventserver/pkg/transport"
)

// Options configure Dial.
type Options struct {
	// Token is the client token written into every packet. 0 lets the
	// server derive the token from the source address.
	Token uint32

	// Logger receives send diagnostics. Default: slog.Default().
	Logger *slog.Logger
}

// Sender sends packets to one event server. It is safe for concurrent use.
type Sender struct {
	mu     sync.Mutex
	sock   *transport.Socket
	addr   transport.Address
	token  uint32
	sent   int
	logger *slog.Logger
}

// Dial resolves addr and opens an ephemeral socket of the matching family.
func Dial(ctx context.Context, addr string, opts Options) (*Sender, error) {
	target, err := transport.ResolveAddress(addr)
	if err != nil {
		return nil, fmt.Errorf("remote: resolve %q: %w", addr, err)
	}
	sock, err := transport.ListenEphemeral(ctx, target.Family())
	if err != nil {
		return nil, fmt.Errorf("remote: listen: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{
		sock:   sock,
		addr:   target,
		token:  opts.Token,
		logger: logger.With("component", "sender", "server", target.String()),
	}, nil
}

// Addr returns the server address.
func (s *Sender) Addr() transport.Address { return s.addr }

// Token returns the client token.
func (s *Sender) Token() uint32 { return s.token }

// Sent returns the number of datagrams sent.
func (s *Sender) Sent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent
}

// Send fragments payload as needed and sends every packet.
func (s *Sender) Send(pt protocol.PacketType, payload []byte) error {
	packets := protocol.Fragment(pt, s.token, payload)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range packets {
		data, err := p.Serialize()
		if err != nil {
			return fmt.Errorf("remote: serialize %s: %w", pt, err)
		}
		if err := s.sock.SendTo(s.addr, data); err != nil {
			return fmt.Errorf("remote: send %s: %w", pt, err)
		}
		s.sent++
	}
	s.logger.Debug("sent packet", "type", pt.String(), "fragments", len(packets), "bytes", len(payload))
	return nil
}

type encoder interface {
	Encode() ([]byte, error)
}

func (s *Sender) sendPayload(pt protocol.PacketType, p encoder) error {
	data, err := p.Encode()
	if err != nil {
		return fmt.Errorf("remote: encode %s: %w", pt, err)
	}
	return s.Send(pt, data)
}

// Helo greets the server with a device name and optional icon.
func (s *Sender) Helo(name string, iconType protocol.IconType, icon []byte) error {
	return s.sendPayload(protocol.PacketHelo, &protocol.Helo{
		DeviceName: name,
		IconType:   iconType,
		IconData:   icon,
	})
}

// Bye tells the server the client is going away.
func (s *Sender) Bye() error {
	return s.Send(protocol.PacketBye, nil)
}

// Ping keeps the session alive.
func (s *Sender) Ping() error {
	return s.Send(protocol.PacketPing, nil)
}

// Button sends a BUTTON packet as given.
func (s *Sender) Button(b protocol.Button) error {
	return s.sendPayload(protocol.PacketButton, &b)
}

// ButtonDown presses the button with the given code on mapName.
func (s *Sender) ButtonDown(code uint16, mapName string, flags protocol.ButtonFlags) error {
	return s.Button(protocol.Button{
		Code:    code,
		Flags:   flags | protocol.ButtonDown,
		MapName: mapName,
	})
}

// ButtonUp releases the button with the given code on mapName.
func (s *Sender) ButtonUp(code uint16, mapName string) error {
	return s.Button(protocol.Button{
		Code:    code,
		Flags:   protocol.ButtonUp,
		MapName: mapName,
	})
}

// ButtonByName presses a named button on mapName. With queue set the press
// is also delivered as an action.
func (s *Sender) ButtonByName(mapName, name string, queue bool) error {
	flags := protocol.ButtonDown | protocol.ButtonUseName
	if queue {
		flags |= protocol.ButtonQueue | protocol.ButtonNoRepeat
	}
	return s.Button(protocol.Button{
		Flags:      flags,
		MapName:    mapName,
		ButtonName: name,
	})
}

// ReleaseByName releases a named button on mapName.
func (s *Sender) ReleaseByName(mapName, name string) error {
	return s.Button(protocol.Button{
		Flags:      protocol.ButtonUp | protocol.ButtonUseName,
		MapName:    mapName,
		ButtonName: name,
	})
}

// Mouse sends a mouse position. x and y span 0..65535.
func (s *Sender) Mouse(x, y uint16, absolute bool) error {
	m := &protocol.Mouse{X: x, Y: y}
	if absolute {
		m.Flags = protocol.MouseAbsolute
	}
	return s.sendPayload(protocol.PacketMouse, m)
}

// Action sends an ACTION packet.
func (s *Sender) Action(kind protocol.ActionType, message string) error {
	return s.sendPayload(protocol.PacketAction, &protocol.Action{Type: kind, Message: message})
}

// Notification asks the server to display a notification.
func (s *Sender) Notification(caption, message string, iconType protocol.IconType, icon []byte) error {
	return s.sendPayload(protocol.PacketNotification, &protocol.Notification{
		Caption:  caption,
		Message:  message,
		IconType: iconType,
		IconData: icon,
	})
}

// Log sends a line to the server's log.
func (s *Sender) Log(level protocol.LogLevel, message string) error {
	return s.sendPayload(protocol.PacketLog, &protocol.Log{Level: level, Message: message})
}

// Blob sends raw bytes.
func (s *Sender) Blob(data []byte) error {
	return s.Send(protocol.PacketBlob, data)
}

// KeepAlive pings every interval until ctx is done.
func (s *Sender) KeepAlive(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Ping(); err != nil {
				s.logger.Warn("keepalive ping failed", "error", err)
			}
		}
	}
}

// Close releases the socket. It does not send BYE.
func (s *Sender) Close() error {
	return s.sock.Close()
}
