package server

import (
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/vango-dev/eventserver/pkg/protocol"
	"github.com/vango-dev/eventserver/pkg/transport"
)

// Client is the session state of one remote event client.
//
// A Client is not safe for concurrent use. The Server guards every Client
// with its registry lock.
type Client struct {
	token uint32
	addr  transport.Address

	name     string
	iconType protocol.IconType
	icon     []byte
	port     uint16
	greeted  bool
	closed   bool

	createdAt  time.Time
	lastActive time.Time
	lastPing   time.Time

	// In-progress multi-packet message, nil when none.
	pending *reassembly
	ready   []*protocol.Packet

	buttons []*buttonState
	actions []Action

	mouse    MousePos
	mouseSet bool
	mouseAt  time.Time

	repeat            RepeatDelays
	timeout           time.Duration
	reassemblyTimeout time.Duration

	outbox []hostEvent

	logger  *slog.Logger
	metrics *metrics
}

// reassembly collects the fragments of one multi-packet message.
type reassembly struct {
	typ     protocol.PacketType
	total   uint32
	parts   map[uint32]*protocol.Packet
	updated time.Time
}

// ClientInfo is a snapshot of a client session.
type ClientInfo struct {
	Token         uint32    `json:"token"`
	Address       string    `json:"address"`
	Name          string    `json:"name"`
	Greeted       bool      `json:"greeted"`
	ConnectedAt   time.Time `json:"connected_at"`
	LastActive    time.Time `json:"last_active"`
	HeldButtons   int       `json:"held_buttons"`
	QueuedActions int       `json:"queued_actions"`
}

type clientOptions struct {
	repeat            RepeatDelays
	timeout           time.Duration
	reassemblyTimeout time.Duration
	logger            *slog.Logger
	metrics           *metrics
}

func newClient(token uint32, addr transport.Address, now time.Time, opts clientOptions) *Client {
	return &Client{
		token:             token,
		addr:              addr,
		createdAt:         now,
		lastActive:        now,
		repeat:            opts.repeat,
		timeout:           opts.timeout,
		reassemblyTimeout: opts.reassemblyTimeout,
		logger:            opts.logger.With("client_token", token),
		metrics:           opts.metrics,
	}
}

// Token returns the client token.
func (c *Client) Token() uint32 { return c.token }

// Addr returns the address the client last sent from.
func (c *Client) Addr() transport.Address { return c.addr }

// Name returns the device name from HELO, or "" before the handshake.
func (c *Client) Name() string { return c.name }

// Greeted reports whether a HELO has been processed.
func (c *Client) Greeted() bool { return c.greeted }

// Icon returns the icon sent with HELO.
func (c *Client) Icon() (protocol.IconType, []byte) { return c.iconType, c.icon }

// LastPing returns when the last PING arrived.
func (c *Client) LastPing() time.Time { return c.lastPing }

// SetRepeatDelays replaces the key-repeat delays.
func (c *Client) SetRepeatDelays(d RepeatDelays) { c.repeat = d }

// Alive reports whether the client sent a valid packet within the client
// timeout and has not said BYE.
func (c *Client) Alive(now time.Time) bool {
	if c.closed {
		return false
	}
	return now.Sub(c.lastActive) < c.timeout
}

// AddPacket admits a parsed packet. Single packets are queued at once;
// fragments are held until every part of their message has arrived.
func (c *Client) AddPacket(pkt *protocol.Packet, now time.Time) error {
	if pkt == nil {
		return nil
	}
	c.lastActive = now
	if pkt.Type == protocol.PacketPing {
		c.lastPing = now
	}

	if pkt.Single() {
		c.ready = append(c.ready, pkt)
		return nil
	}

	if pkt.Seq == 0 || pkt.Seq > pkt.Total {
		return NewClientError(c.token, "add packet", ErrBadFragment)
	}

	c.expireFragments(now)
	if c.pending != nil && c.pending.total != pkt.Total {
		c.discardPending("total changed")
	}
	if c.pending != nil && pkt.Seq == 1 && c.pending.parts[1] != nil {
		c.discardPending("new message started")
	}
	if c.pending == nil {
		c.pending = &reassembly{
			typ:   pkt.Type,
			total: pkt.Total,
			parts: make(map[uint32]*protocol.Packet),
		}
	}
	if c.pending.typ != pkt.Type {
		return NewClientError(c.token, "add packet", ErrFragmentMismatch)
	}

	c.pending.parts[pkt.Seq] = pkt
	c.pending.updated = now
	if uint32(len(c.pending.parts)) < c.pending.total {
		return nil
	}

	c.ready = append(c.ready, c.pending.assemble())
	c.pending = nil
	return nil
}

func (c *Client) discardPending(reason string) {
	c.logger.Debug("discarding incomplete message",
		"reason", reason,
		"type", c.pending.typ.String(),
		"received", len(c.pending.parts),
		"total", c.pending.total)
	c.metrics.dropped(dropExpired)
	c.pending = nil
}

// assemble joins the fragments in sequence order.
func (r *reassembly) assemble() *protocol.Packet {
	first := r.parts[1]
	size := 0
	for _, p := range r.parts {
		size += len(p.Payload)
	}
	payload := make([]byte, 0, size)
	for seq := uint32(1); seq <= r.total; seq++ {
		payload = append(payload, r.parts[seq].Payload...)
	}
	return &protocol.Packet{
		MajorVersion: first.MajorVersion,
		MinorVersion: first.MinorVersion,
		Type:         first.Type,
		Seq:          1,
		Total:        1,
		Token:        first.Token,
		Payload:      payload,
	}
}

// expireFragments drops an incomplete message older than the reassembly timeout.
func (c *Client) expireFragments(now time.Time) {
	if c.pending == nil || now.Sub(c.pending.updated) < c.reassemblyTimeout {
		return
	}
	c.logger.Debug("incomplete message expired",
		"type", c.pending.typ.String(),
		"received", len(c.pending.parts),
		"total", c.pending.total)
	c.metrics.dropped(dropExpired)
	c.pending = nil
}

// ProcessEvents decodes every ready packet into session state and emits
// due key repeats.
func (c *Client) ProcessEvents(now time.Time) {
	c.expireFragments(now)
	for len(c.ready) > 0 {
		pkt := c.ready[0]
		c.ready[0] = nil
		c.ready = c.ready[1:]

		if err := c.processPacket(pkt, now); err != nil {
			reason := dropPayload
			if errors.Is(err, ErrUnsupportedPacket) {
				reason = dropUnsupported
			}
			c.metrics.dropped(reason)
			c.logger.Warn("dropping packet",
				"type", pkt.Type.String(),
				"error", err)
		}
	}
	c.processRepeats(now)
}

func (c *Client) processPacket(pkt *protocol.Packet, now time.Time) error {
	switch pkt.Type {
	case protocol.PacketHelo:
		return c.onHelo(pkt)

	case protocol.PacketBye:
		c.closed = true
		c.logger.Info("client said bye", "client_name", c.name)
		return nil

	case protocol.PacketButton:
		b, err := protocol.DecodeButton(pkt.Payload)
		if err != nil {
			return err
		}
		c.onButton(b, now)
		return nil

	case protocol.PacketMouse:
		m, err := protocol.DecodeMouse(pkt.Payload)
		if err != nil {
			return err
		}
		c.mouse = MousePos{
			X:           float64(m.X) / 65535.0,
			Y:           float64(m.Y) / 65535.0,
			Absolute:    m.Flags.Has(protocol.MouseAbsolute),
			ClientToken: c.token,
		}
		c.mouseSet = true
		c.mouseAt = now
		return nil

	case protocol.PacketPing:
		return nil

	case protocol.PacketNotification:
		n, err := protocol.DecodeNotification(pkt.Payload)
		if err != nil {
			return err
		}
		c.outbox = append(c.outbox, hostEvent{notification: &Notification{
			ClientToken: c.token,
			ClientName:  c.name,
			Caption:     n.Caption,
			Message:     n.Message,
			IconType:    n.IconType,
			Icon:        n.IconData,
		}})
		return nil

	case protocol.PacketLog:
		l, err := protocol.DecodeLog(pkt.Payload)
		if err != nil {
			return err
		}
		if l.Level >= protocol.LogNone {
			return nil
		}
		c.outbox = append(c.outbox, hostEvent{log: &LogEntry{
			ClientToken: c.token,
			ClientName:  c.name,
			Level:       l.Level,
			Message:     l.Message,
		}})
		return nil

	case protocol.PacketAction:
		a, err := protocol.DecodeAction(pkt.Payload)
		if err != nil {
			return err
		}
		c.enqueue(Action{
			Kind:        a.Type,
			Message:     a.Message,
			ClientToken: c.token,
			ClientName:  c.name,
		})
		return nil

	case protocol.PacketBlob:
		c.outbox = append(c.outbox, hostEvent{blob: &Blob{
			ClientToken: c.token,
			Data:        slices.Clone(pkt.Payload),
		}})
		return nil

	case protocol.PacketBroadcast:
		c.logger.Debug("ignoring broadcast packet")
		return nil

	default:
		return NewClientError(c.token, "process "+pkt.Type.String(), ErrUnsupportedPacket)
	}
}

func (c *Client) onHelo(pkt *protocol.Packet) error {
	h, err := protocol.DecodeHelo(pkt.Payload)
	if err != nil {
		return err
	}
	c.name = h.DeviceName
	c.iconType = h.IconType
	c.icon = h.IconData
	c.port = h.Port
	c.greeted = true
	c.logger = c.logger.With("client_name", c.name)
	c.logger.Info("client greeted",
		"address", c.addr.String(),
		"icon_type", h.IconType.String(),
		"icon_bytes", len(h.IconData),
		"port", h.Port)
	return nil
}

func (c *Client) onButton(b *protocol.Button, now time.Time) {
	key := keyFor(b)
	if b.Flags.Has(protocol.ButtonUp) {
		c.releaseButton(key)
		return
	}

	state := c.findButton(key)
	if state == nil {
		state = &buttonState{key: key}
		c.buttons = append(c.buttons, state)
	}
	state.code = b.Code
	state.mapName = b.MapName
	state.name = b.ButtonName
	state.amount = buttonAmount(b)
	state.axis = b.Flags.Has(protocol.ButtonAxis) || b.Flags.Has(protocol.ButtonAxisSingle)
	state.singleFire = b.Flags.Has(protocol.ButtonAxisSingle)
	state.repeat = !b.Flags.Has(protocol.ButtonNoRepeat) && !state.axis
	state.pressedAt = now
	state.lastEmit = now
	state.repeats = 0

	if b.Flags.Has(protocol.ButtonQueue) {
		c.enqueue(state.action(c.token, c.name, false))
	}
}

func (c *Client) findButton(key buttonKey) *buttonState {
	for _, s := range c.buttons {
		if s.key == key {
			return s
		}
	}
	return nil
}

func (c *Client) releaseButton(key buttonKey) {
	c.buttons = slices.DeleteFunc(c.buttons, func(s *buttonState) bool {
		return s.key == key
	})
}

func (c *Client) processRepeats(now time.Time) {
	for _, s := range c.buttons {
		if !s.due(now, c.repeat) {
			continue
		}
		s.lastEmit = now
		s.repeats++
		c.enqueue(s.action(c.token, c.name, true))
		c.metrics.buttonRepeats.Inc()
	}
}

func (c *Client) enqueue(a Action) {
	c.actions = append(c.actions, a)
	c.metrics.actionsQueued.WithLabelValues(a.Kind.String()).Inc()
}

// NextAction pops the oldest queued action.
func (c *Client) NextAction() (Action, bool) {
	if len(c.actions) == 0 {
		return Action{}, false
	}
	a := c.actions[0]
	c.actions[0] = Action{}
	c.actions = c.actions[1:]
	return a, true
}

// ButtonState returns the oldest held button or axis. A single-fire axis is
// released once it has been reported.
func (c *Client) ButtonState() (ButtonEvent, bool) {
	if len(c.buttons) == 0 {
		return ButtonEvent{}, false
	}
	s := c.buttons[0]
	if s.singleFire {
		c.buttons = c.buttons[1:]
	}
	return s.event(c.token), true
}

// Mouse returns the last mouse position.
func (c *Client) Mouse() (MousePos, bool) {
	return c.mouse, c.mouseSet
}

// PendingActions returns the number of queued actions.
func (c *Client) PendingActions() int { return len(c.actions) }

// takeOutbox returns and clears the deferred collaborator calls.
func (c *Client) takeOutbox() []hostEvent {
	out := c.outbox
	c.outbox = nil
	return out
}

func (c *Client) info() ClientInfo {
	return ClientInfo{
		Token:         c.token,
		Address:       c.addr.String(),
		Name:          c.name,
		Greeted:       c.greeted,
		ConnectedAt:   c.createdAt,
		LastActive:    c.lastActive,
		HeldButtons:   len(c.buttons),
		QueuedActions: len(c.actions),
	}
}
