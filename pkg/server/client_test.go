package server

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vango-dev/eventserver/pkg/protocol"
	"github.com/vango-dev/eventserver/pkg/transport"
)

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testAddress(t *testing.T, s string) transport.Address {
	t.Helper()
	addr, err := transport.ParseAddress(s)
	if err != nil {
		t.Fatalf("ParseAddress(%q) error = %v", s, err)
	}
	return addr
}

func testClientOptions() clientOptions {
	return clientOptions{
		repeat:            RepeatDelays{Initial: 500 * time.Millisecond, Continuous: 100 * time.Millisecond},
		timeout:           60 * time.Second,
		reassemblyTimeout: 5 * time.Second,
		logger:            testLogger(),
		metrics:           newMetrics(prometheus.NewRegistry()),
	}
}

func testClient(t *testing.T) *Client {
	t.Helper()
	return newClient(0x1234, testAddress(t, "192.0.2.10:40000"), t0, testClientOptions())
}

type encodable interface {
	Encode() ([]byte, error)
}

func payloadOf(t *testing.T, p encodable) []byte {
	t.Helper()
	data, err := p.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	return data
}

func single(pt protocol.PacketType, payload []byte) *protocol.Packet {
	return protocol.NewPacket(pt, 1, 1, 0x1234, payload)
}

func addAndProcess(t *testing.T, c *Client, pkt *protocol.Packet, now time.Time) {
	t.Helper()
	if err := c.AddPacket(pkt, now); err != nil {
		t.Fatalf("AddPacket() error = %v", err)
	}
	c.ProcessEvents(now)
}

func drainActions(c *Client) []Action {
	var out []Action
	for {
		a, ok := c.NextAction()
		if !ok {
			return out
		}
		out = append(out, a)
	}
}

func TestClientHelo(t *testing.T) {
	c := testClient(t)
	if c.Greeted() {
		t.Fatal("Greeted() = true before HELO")
	}

	addAndProcess(t, c, single(protocol.PacketHelo, payloadOf(t, &protocol.Helo{DeviceName: "Remote1"})), t0)

	if c.Name() != "Remote1" {
		t.Errorf("Name() = %q, want %q", c.Name(), "Remote1")
	}
	if !c.Greeted() {
		t.Error("Greeted() = false, want true")
	}
}

func TestClientHeloWithIcon(t *testing.T) {
	c := testClient(t)
	icon := []byte{0x89, 'P', 'N', 'G', 1, 2, 3}
	addAndProcess(t, c, single(protocol.PacketHelo, payloadOf(t, &protocol.Helo{
		DeviceName: "Pad",
		IconType:   protocol.IconPNG,
		IconData:   icon,
	})), t0)

	it, data := c.Icon()
	if it != protocol.IconPNG || !bytes.Equal(data, icon) {
		t.Errorf("Icon() = %v %x, want png %x", it, data, icon)
	}
}

func TestClientPacketsBeforeHeloAccepted(t *testing.T) {
	c := testClient(t)
	addAndProcess(t, c, single(protocol.PacketAction, payloadOf(t, &protocol.Action{
		Type:    protocol.ActionExecBuiltin,
		Message: "PlayerControl(Play)",
	})), t0)

	if c.Greeted() {
		t.Error("Greeted() = true without HELO")
	}
	if c.Name() != "" {
		t.Errorf("Name() = %q, want empty", c.Name())
	}
	a, ok := c.NextAction()
	if !ok || a.Kind != protocol.ActionExecBuiltin || a.Message != "PlayerControl(Play)" {
		t.Errorf("NextAction() = %+v, %v", a, ok)
	}
}

func TestClientButtonAmount(t *testing.T) {
	tests := []struct {
		name   string
		flags  protocol.ButtonFlags
		amount uint16
		want   float64
	}{
		{"mid_scale", protocol.ButtonDown | protocol.ButtonUseAmount, 32768, 0},
		{"full_scale", protocol.ButtonDown | protocol.ButtonUseAmount, 65535, 1},
		{"zero", protocol.ButtonDown | protocol.ButtonUseAmount, 0, -1},
		{"no_amount", protocol.ButtonDown, 12345, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testClient(t)
			addAndProcess(t, c, single(protocol.PacketButton, payloadOf(t, &protocol.Button{
				Code:   0x41,
				Flags:  tt.flags,
				Amount: tt.amount,
			})), t0)

			ev, ok := c.ButtonState()
			if !ok {
				t.Fatal("ButtonState() found nothing")
			}
			if ev.Code != 0x41 {
				t.Errorf("Code = %#x, want 0x41", ev.Code)
			}
			if math.Abs(ev.Amount-tt.want) > 0.001 {
				t.Errorf("Amount = %v, want %v", ev.Amount, tt.want)
			}
			if ev.IsAxis {
				t.Error("IsAxis = true, want false")
			}
		})
	}
}

func TestClientButtonUpClearsState(t *testing.T) {
	tests := []struct {
		name string
		down protocol.Button
		up   protocol.Button
	}{
		{
			"by_code",
			protocol.Button{Code: 0x41, Flags: protocol.ButtonDown, MapName: "KB"},
			protocol.Button{Code: 0x41, Flags: protocol.ButtonUp, MapName: "KB"},
		},
		{
			"by_name",
			protocol.Button{Flags: protocol.ButtonDown | protocol.ButtonUseName, MapName: "R1", ButtonName: "menu"},
			protocol.Button{Flags: protocol.ButtonUp | protocol.ButtonUseName, MapName: "R1", ButtonName: "menu"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testClient(t)
			addAndProcess(t, c, single(protocol.PacketButton, payloadOf(t, &tt.down)), t0)
			if _, ok := c.ButtonState(); !ok {
				t.Fatal("ButtonState() found nothing after key-down")
			}
			addAndProcess(t, c, single(protocol.PacketButton, payloadOf(t, &tt.up)), t0)
			if ev, ok := c.ButtonState(); ok {
				t.Errorf("ButtonState() = %+v after key-up", ev)
			}
		})
	}
}

func TestClientButtonUpOtherMapKeepsState(t *testing.T) {
	c := testClient(t)
	addAndProcess(t, c, single(protocol.PacketButton, payloadOf(t, &protocol.Button{Code: 7, Flags: protocol.ButtonDown, MapName: "KB"})), t0)
	addAndProcess(t, c, single(protocol.PacketButton, payloadOf(t, &protocol.Button{Code: 7, Flags: protocol.ButtonUp, MapName: "XG"})), t0)

	if _, ok := c.ButtonState(); !ok {
		t.Error("key-up for another map released the button")
	}
}

func TestClientButtonDownUpserts(t *testing.T) {
	c := testClient(t)
	for i := 0; i < 3; i++ {
		addAndProcess(t, c, single(protocol.PacketButton, payloadOf(t, &protocol.Button{Code: 9, Flags: protocol.ButtonDown, MapName: "KB"})), t0)
	}
	if len(c.buttons) != 1 {
		t.Errorf("len(buttons) = %d, want 1", len(c.buttons))
	}
}

func TestClientButtonQueue(t *testing.T) {
	c := testClient(t)
	addAndProcess(t, c, single(protocol.PacketButton, payloadOf(t, &protocol.Button{
		Flags:      protocol.ButtonDown | protocol.ButtonUseName | protocol.ButtonQueue | protocol.ButtonNoRepeat,
		MapName:    "R1",
		ButtonName: "select",
	})), t0)

	actions := drainActions(c)
	if len(actions) != 1 {
		t.Fatalf("len(actions) = %d, want 1", len(actions))
	}
	a := actions[0]
	if a.Kind != protocol.ActionButton || a.Message != "select" || a.MapName != "R1" || a.Repeat {
		t.Errorf("action = %+v", a)
	}
	if _, ok := c.ButtonState(); !ok {
		t.Error("queued button is not held")
	}
}

func TestClientAxis(t *testing.T) {
	c := testClient(t)
	addAndProcess(t, c, single(protocol.PacketButton, payloadOf(t, &protocol.Button{
		Code:    3,
		Flags:   protocol.ButtonDown | protocol.ButtonAxis | protocol.ButtonUseAmount,
		Amount:  65535,
		MapName: "JS0:Gamepad",
	})), t0)

	for i := 0; i < 2; i++ {
		ev, ok := c.ButtonState()
		if !ok {
			t.Fatalf("poll %d: ButtonState() found nothing", i)
		}
		if !ev.IsAxis || !ev.IsJoystick {
			t.Errorf("poll %d: IsAxis = %v, IsJoystick = %v, want true, true", i, ev.IsAxis, ev.IsJoystick)
		}
	}

	c.ProcessEvents(t0.Add(2 * time.Second))
	if n := c.PendingActions(); n != 0 {
		t.Errorf("axis emitted %d repeats, want 0", n)
	}
}

func TestClientAxisSingleFire(t *testing.T) {
	c := testClient(t)
	addAndProcess(t, c, single(protocol.PacketButton, payloadOf(t, &protocol.Button{
		Code:   4,
		Flags:  protocol.ButtonDown | protocol.ButtonAxisSingle | protocol.ButtonUseAmount,
		Amount: 0,
	})), t0)

	if _, ok := c.ButtonState(); !ok {
		t.Fatal("ButtonState() found nothing")
	}
	if ev, ok := c.ButtonState(); ok {
		t.Errorf("single-fire axis reported twice: %+v", ev)
	}
}

func TestClientKeyRepeatTiming(t *testing.T) {
	c := testClient(t)
	addAndProcess(t, c, single(protocol.PacketButton, payloadOf(t, &protocol.Button{
		Code:    0x41,
		Flags:   protocol.ButtonDown,
		MapName: "KB",
	})), t0)

	steps := []struct {
		at   time.Duration
		want int
	}{
		{0, 0},
		{499 * time.Millisecond, 0},
		{500 * time.Millisecond, 1},
		{599 * time.Millisecond, 0},
		{600 * time.Millisecond, 1},
		{650 * time.Millisecond, 0},
		{700 * time.Millisecond, 1},
		{800 * time.Millisecond, 1},
	}
	for _, step := range steps {
		c.ProcessEvents(t0.Add(step.at))
		actions := drainActions(c)
		if len(actions) != step.want {
			t.Fatalf("at %v: %d repeats, want %d", step.at, len(actions), step.want)
		}
		for _, a := range actions {
			if !a.Repeat || a.Code != 0x41 || a.Kind != protocol.ActionButton {
				t.Errorf("at %v: repeat action = %+v", step.at, a)
			}
		}
	}

	addAndProcess(t, c, single(protocol.PacketButton, payloadOf(t, &protocol.Button{
		Code:    0x41,
		Flags:   protocol.ButtonUp,
		MapName: "KB",
	})), t0.Add(850*time.Millisecond))

	for _, at := range []time.Duration{900 * time.Millisecond, time.Second, 5 * time.Second} {
		c.ProcessEvents(t0.Add(at))
		if n := len(drainActions(c)); n != 0 {
			t.Errorf("at %v after key-up: %d repeats, want 0", at, n)
		}
	}
}

func TestClientKeyRepeatNoCatchUp(t *testing.T) {
	c := testClient(t)
	addAndProcess(t, c, single(protocol.PacketButton, payloadOf(t, &protocol.Button{Code: 1, Flags: protocol.ButtonDown})), t0)

	c.ProcessEvents(t0.Add(3 * time.Second))
	if n := len(drainActions(c)); n != 1 {
		t.Errorf("late poll emitted %d repeats, want 1", n)
	}
}

func TestClientNoRepeat(t *testing.T) {
	c := testClient(t)
	addAndProcess(t, c, single(protocol.PacketButton, payloadOf(t, &protocol.Button{
		Code:  1,
		Flags: protocol.ButtonDown | protocol.ButtonNoRepeat,
	})), t0)

	c.ProcessEvents(t0.Add(2 * time.Second))
	if n := c.PendingActions(); n != 0 {
		t.Errorf("no-repeat button emitted %d repeats", n)
	}
}

func TestClientRepeatDisabled(t *testing.T) {
	c := testClient(t)
	c.SetRepeatDelays(RepeatDelays{})
	addAndProcess(t, c, single(protocol.PacketButton, payloadOf(t, &protocol.Button{Code: 1, Flags: protocol.ButtonDown})), t0)

	c.ProcessEvents(t0.Add(10 * time.Second))
	if n := c.PendingActions(); n != 0 {
		t.Errorf("disabled repeat emitted %d actions", n)
	}
}

func TestClientMouse(t *testing.T) {
	c := testClient(t)
	if _, ok := c.Mouse(); ok {
		t.Fatal("Mouse() reported a position before any MOUSE packet")
	}

	addAndProcess(t, c, single(protocol.PacketMouse, payloadOf(t, &protocol.Mouse{
		Flags: protocol.MouseAbsolute,
		X:     32768,
		Y:     32768,
	})), t0)

	pos, ok := c.Mouse()
	if !ok {
		t.Fatal("Mouse() found nothing")
	}
	if math.Abs(pos.X-0.5) > 0.001 || math.Abs(pos.Y-0.5) > 0.001 {
		t.Errorf("Mouse() = (%v, %v), want (0.5, 0.5)", pos.X, pos.Y)
	}
	if !pos.Absolute {
		t.Error("Absolute = false, want true")
	}
}

func TestClientAction(t *testing.T) {
	c := testClient(t)
	addAndProcess(t, c, single(protocol.PacketAction, payloadOf(t, &protocol.Action{Type: protocol.ActionButton, Message: "Back"})), t0)
	addAndProcess(t, c, single(protocol.PacketAction, payloadOf(t, &protocol.Action{Type: protocol.ActionExecBuiltin, Message: "Quit"})), t0)

	actions := drainActions(c)
	if len(actions) != 2 {
		t.Fatalf("len(actions) = %d, want 2", len(actions))
	}
	if actions[0].Message != "Back" || actions[1].Message != "Quit" {
		t.Errorf("actions out of order: %+v", actions)
	}
	if len(c.buttons) != 0 {
		t.Error("ACTION created button state")
	}
}

func TestClientNotificationReassembly(t *testing.T) {
	c := testClient(t)
	payload := payloadOf(t, &protocol.Notification{Caption: "Now Playing", Message: "Track 7"})
	split := len(payload) / 2

	first := protocol.NewPacket(protocol.PacketNotification, 1, 2, 0x1234, payload[:split])
	second := protocol.NewPacket(protocol.PacketNotification, 2, 2, 0x1234, payload[split:])

	addAndProcess(t, c, first, t0)
	if out := c.takeOutbox(); len(out) != 0 {
		t.Fatalf("got %d events after first fragment, want 0", len(out))
	}

	addAndProcess(t, c, second, t0.Add(10*time.Millisecond))
	out := c.takeOutbox()
	if len(out) != 1 || out[0].notification == nil {
		t.Fatalf("got %+v, want one notification", out)
	}
	n := out[0].notification
	if n.Caption != "Now Playing" || n.Message != "Track 7" {
		t.Errorf("notification = %q/%q", n.Caption, n.Message)
	}
}

func TestClientReassemblyMatchesSinglePacket(t *testing.T) {
	icon := bytes.Repeat([]byte{0xAB, 0xCD, 0xEF}, 40)
	payload := payloadOf(t, &protocol.Helo{DeviceName: "Remote1", IconType: protocol.IconJPEG, IconData: icon})

	for split := 1; split < len(payload); split++ {
		c := testClient(t)
		c.AddPacket(protocol.NewPacket(protocol.PacketHelo, 1, 2, 0x1234, payload[:split]), t0)
		c.AddPacket(protocol.NewPacket(protocol.PacketHelo, 2, 2, 0x1234, payload[split:]), t0)

		if len(c.ready) != 1 {
			t.Fatalf("split %d: ready = %d, want 1", split, len(c.ready))
		}
		if !bytes.Equal(c.ready[0].Payload, payload) {
			t.Fatalf("split %d: reassembled payload differs", split)
		}
	}
}

func TestClientReassemblyOutOfOrder(t *testing.T) {
	c := testClient(t)
	parts := protocol.Fragment(protocol.PacketBlob, 0x1234, bytes.Repeat([]byte("abcd"), 600))
	if len(parts) < 3 {
		t.Fatalf("Fragment() = %d parts, want at least 3", len(parts))
	}

	for i := len(parts) - 1; i >= 0; i-- {
		if err := c.AddPacket(parts[i], t0); err != nil {
			t.Fatalf("AddPacket(seq %d) error = %v", parts[i].Seq, err)
		}
	}
	c.ProcessEvents(t0)

	out := c.takeOutbox()
	if len(out) != 1 || out[0].blob == nil {
		t.Fatalf("got %+v, want one blob", out)
	}
	if !bytes.Equal(out[0].blob.Data, bytes.Repeat([]byte("abcd"), 600)) {
		t.Error("blob data differs")
	}
}

func TestClientReassemblyExpires(t *testing.T) {
	c := testClient(t)
	c.AddPacket(protocol.NewPacket(protocol.PacketBlob, 1, 2, 0x1234, []byte("first")), t0)
	c.AddPacket(protocol.NewPacket(protocol.PacketBlob, 2, 2, 0x1234, []byte("second")), t0.Add(6*time.Second))

	if len(c.ready) != 0 {
		t.Errorf("ready = %d after expired fragment, want 0", len(c.ready))
	}
}

func TestClientReassemblyDroppedBySweep(t *testing.T) {
	c := testClient(t)
	c.AddPacket(protocol.NewPacket(protocol.PacketBlob, 1, 2, 0x1234, []byte("first")), t0)
	c.ProcessEvents(t0.Add(5 * time.Second))
	if c.pending != nil {
		t.Error("incomplete message kept past the reassembly timeout")
	}
}

func TestClientFragmentErrors(t *testing.T) {
	tests := []struct {
		name string
		pkts []*protocol.Packet
		want error
	}{
		{
			"seq_zero",
			[]*protocol.Packet{protocol.NewPacket(protocol.PacketBlob, 0, 2, 1, nil)},
			ErrBadFragment,
		},
		{
			"seq_past_total",
			[]*protocol.Packet{protocol.NewPacket(protocol.PacketBlob, 3, 2, 1, nil)},
			ErrBadFragment,
		},
		{
			"type_mismatch",
			[]*protocol.Packet{
				protocol.NewPacket(protocol.PacketBlob, 1, 2, 1, []byte("a")),
				protocol.NewPacket(protocol.PacketNotification, 2, 2, 1, []byte("b")),
			},
			ErrFragmentMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testClient(t)
			var err error
			for _, p := range tt.pkts {
				err = c.AddPacket(p, t0)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("AddPacket() error = %v, want %v", err, tt.want)
			}
			var ce *ClientError
			if !errors.As(err, &ce) || ce.Token != 0x1234 {
				t.Errorf("AddPacket() error = %v, want *ClientError for token 0x1234", err)
			}
		})
	}
}

func TestClientFragmentTypeMismatchKeepsMessage(t *testing.T) {
	c := testClient(t)
	c.AddPacket(protocol.NewPacket(protocol.PacketBlob, 1, 2, 1, []byte("ab")), t0)

	err := c.AddPacket(protocol.NewPacket(protocol.PacketNotification, 2, 2, 1, []byte("xx")), t0)
	if !errors.Is(err, ErrFragmentMismatch) {
		t.Fatalf("AddPacket() error = %v, want %v", err, ErrFragmentMismatch)
	}

	if err := c.AddPacket(protocol.NewPacket(protocol.PacketBlob, 2, 2, 1, []byte("cd")), t0); err != nil {
		t.Fatalf("AddPacket() error = %v", err)
	}
	if len(c.ready) != 1 || string(c.ready[0].Payload) != "abcd" {
		t.Errorf("ready = %+v, want the blob message assembled from its own fragments", c.ready)
	}
}

func TestClientRepeatedFirstFragmentStartsNewMessage(t *testing.T) {
	c := testClient(t)
	c.AddPacket(protocol.NewPacket(protocol.PacketBlob, 1, 2, 1, []byte("old-")), t0)
	c.AddPacket(protocol.NewPacket(protocol.PacketBlob, 1, 2, 1, []byte("new-")), t0)

	if got := len(c.pending.parts); got != 1 {
		t.Fatalf("pending parts = %d, want 1", got)
	}
	c.AddPacket(protocol.NewPacket(protocol.PacketBlob, 2, 2, 1, []byte("tail")), t0)
	if len(c.ready) != 1 || string(c.ready[0].Payload) != "new-tail" {
		t.Errorf("ready = %+v, want new-tail", c.ready)
	}
}

func TestClientLateFirstFragmentCompletesMessage(t *testing.T) {
	c := testClient(t)
	c.AddPacket(protocol.NewPacket(protocol.PacketBlob, 2, 2, 1, []byte("tail")), t0)
	c.AddPacket(protocol.NewPacket(protocol.PacketBlob, 1, 2, 1, []byte("head-")), t0)

	if len(c.ready) != 1 || string(c.ready[0].Payload) != "head-tail" {
		t.Errorf("ready = %+v, want head-tail", c.ready)
	}
}

func TestClientMalformedPayloadDropped(t *testing.T) {
	c := testClient(t)
	addAndProcess(t, c, single(protocol.PacketButton, []byte{0x00}), t0)
	addAndProcess(t, c, single(protocol.PacketHelo, payloadOf(t, &protocol.Helo{DeviceName: "Remote1"})), t0)

	if !c.Greeted() {
		t.Error("session stopped processing after a malformed payload")
	}
	if _, ok := c.ButtonState(); ok {
		t.Error("malformed BUTTON created button state")
	}
}

func TestClientLiveness(t *testing.T) {
	c := testClient(t)
	addAndProcess(t, c, single(protocol.PacketPing, nil), t0)

	checks := []struct {
		at   time.Duration
		want bool
	}{
		{0, true},
		{30 * time.Second, true},
		{59*time.Second + 999*time.Millisecond, true},
		{60 * time.Second, false},
		{61 * time.Second, false},
		{time.Hour, false},
	}
	for _, ck := range checks {
		if got := c.Alive(t0.Add(ck.at)); got != ck.want {
			t.Errorf("Alive(+%v) = %v, want %v", ck.at, got, ck.want)
		}
	}

	if !c.LastPing().Equal(t0) {
		t.Errorf("LastPing() = %v, want %v", c.LastPing(), t0)
	}

	addAndProcess(t, c, single(protocol.PacketPing, nil), t0.Add(50*time.Second))
	if !c.Alive(t0.Add(100 * time.Second)) {
		t.Error("PING did not extend liveness")
	}
}

func TestClientBye(t *testing.T) {
	c := testClient(t)
	addAndProcess(t, c, single(protocol.PacketBye, nil), t0)
	if c.Alive(t0) {
		t.Error("Alive() = true after BYE")
	}
}

func TestClientLogAndBlob(t *testing.T) {
	c := testClient(t)
	addAndProcess(t, c, single(protocol.PacketLog, payloadOf(t, &protocol.Log{Level: protocol.LogWarning, Message: "battery low"})), t0)
	addAndProcess(t, c, single(protocol.PacketLog, payloadOf(t, &protocol.Log{Level: protocol.LogNone, Message: "ignored"})), t0)

	blob := []byte{1, 2, 3}
	pkt := single(protocol.PacketBlob, blob)
	addAndProcess(t, c, pkt, t0)
	pkt.Payload[0] = 9

	out := c.takeOutbox()
	if len(out) != 2 {
		t.Fatalf("got %d events, want 2", len(out))
	}
	if out[0].log == nil || out[0].log.Message != "battery low" || out[0].log.Level != protocol.LogWarning {
		t.Errorf("log = %+v", out[0].log)
	}
	if out[1].blob == nil || !bytes.Equal(out[1].blob.Data, []byte{1, 2, 3}) {
		t.Errorf("blob = %+v", out[1].blob)
	}
	if c.takeOutbox() != nil {
		t.Error("takeOutbox() did not clear the outbox")
	}
}

func TestClientBroadcastIgnored(t *testing.T) {
	c := testClient(t)
	addAndProcess(t, c, single(protocol.PacketBroadcast, []byte("hello")), t0)
	if c.PendingActions() != 0 || len(c.takeOutbox()) != 0 {
		t.Error("BROADCAST produced output")
	}
}
