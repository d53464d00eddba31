package remote

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/vango-dev/eventserver/pkg/protocol"
	"github.com/vango-dev/eventserver/pkg/server"
	"github.com/vango-dev/eventserver/pkg/transport"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// receiver is a bound socket that collects parsed packets.
func receiver(t *testing.T) (*transport.Socket, string) {
	t.Helper()
	sock, err := transport.Bind(context.Background(), transport.BindOptions{LocalOnly: true, Logger: testLogger()})
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	t.Cleanup(func() { sock.Close() })
	return sock, sock.LocalAddr().String()
}

func readPacket(t *testing.T, sock *transport.Socket) *protocol.Packet {
	t.Helper()
	sock.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, transport.ReadBufferSize)
	_, n, err := sock.Read(buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	pkt, err := protocol.Parse(buf[:n])
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return pkt
}

func TestDialBadAddress(t *testing.T) {
	if _, err := Dial(context.Background(), "not an address", Options{}); err == nil {
		t.Error("Dial() error = nil for an invalid address")
	}
}

func TestSenderHelo(t *testing.T) {
	sock, addr := receiver(t)
	s, err := Dial(context.Background(), addr, Options{Token: 99, Logger: testLogger()})
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer s.Close()

	if err := s.Helo("Remote1", protocol.IconNone, nil); err != nil {
		t.Fatalf("Helo() error = %v", err)
	}

	pkt := readPacket(t, sock)
	if pkt.Type != protocol.PacketHelo || pkt.Token != 99 || !pkt.Single() {
		t.Errorf("packet = %+v", pkt)
	}
	h, err := protocol.DecodeHelo(pkt.Payload)
	if err != nil {
		t.Fatalf("DecodeHelo() error = %v", err)
	}
	if h.DeviceName != "Remote1" {
		t.Errorf("DeviceName = %q, want Remote1", h.DeviceName)
	}
	if s.Sent() != 1 {
		t.Errorf("Sent() = %d, want 1", s.Sent())
	}
}

func TestSenderFragmentsLargePayload(t *testing.T) {
	sock, addr := receiver(t)
	s, err := Dial(context.Background(), addr, Options{Token: 5, Logger: testLogger()})
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer s.Close()

	data := bytes.Repeat([]byte{0x5A}, 2*protocol.MaxPayloadSize+10)
	if err := s.Blob(data); err != nil {
		t.Fatalf("Blob() error = %v", err)
	}

	var got []byte
	for i := 1; i <= 3; i++ {
		pkt := readPacket(t, sock)
		if pkt.Seq != uint32(i) || pkt.Total != 3 {
			t.Errorf("fragment %d: seq=%d total=%d", i, pkt.Seq, pkt.Total)
		}
		got = append(got, pkt.Payload...)
	}
	if !bytes.Equal(got, data) {
		t.Error("fragments do not join to the sent payload")
	}
}

func TestSenderEncodeError(t *testing.T) {
	_, addr := receiver(t)
	s, err := Dial(context.Background(), addr, Options{Logger: testLogger()})
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer s.Close()

	if err := s.Action(protocol.ActionExecBuiltin, "bad\x00string"); err == nil {
		t.Error("Action() error = nil for a string with a null byte")
	}
	if s.Sent() != 0 {
		t.Errorf("Sent() = %d after an encode error, want 0", s.Sent())
	}
}

func TestSenderKeepAlive(t *testing.T) {
	sock, addr := receiver(t)
	s, err := Dial(context.Background(), addr, Options{Logger: testLogger()})
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.KeepAlive(ctx, 10*time.Millisecond) }()

	if pkt := readPacket(t, sock); pkt.Type != protocol.PacketPing {
		t.Errorf("type = %v, want PING", pkt.Type)
	}
	cancel()
	if err := <-done; err != context.Canceled {
		t.Errorf("KeepAlive() error = %v, want context.Canceled", err)
	}
}

type notifications struct {
	mu   sync.Mutex
	list []server.Notification
}

func (n *notifications) Notify(note server.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.list = append(n.list, note)
}

func (n *notifications) len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.list)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestSenderAgainstServer(t *testing.T) {
	settings := server.DefaultSettings()
	settings.Port = 0
	settings.PortRange = 0

	notes := &notifications{}
	srv := server.New(&server.Config{
		Settings:     server.StaticSettings(settings),
		PollInterval: 10 * time.Millisecond,
		Logger:       testLogger(),
		Notifier:     notes,
	})
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer srv.Stop()

	addr, _ := srv.Addr()
	s, err := Dial(context.Background(), addr.String(), Options{Token: 0xBEEF, Logger: testLogger()})
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer s.Close()

	icon := bytes.Repeat([]byte{1, 2, 3, 4}, 400)
	if err := s.Helo("Remote1", protocol.IconPNG, icon); err != nil {
		t.Fatalf("Helo() error = %v", err)
	}
	waitFor(t, "greeting", func() bool {
		infos := srv.Clients()
		return len(infos) == 1 && infos[0].Greeted
	})
	if name := srv.Clients()[0].Name; name != "Remote1" {
		t.Errorf("Name = %q, want Remote1", name)
	}

	if err := s.ButtonByName("R1", "select", true); err != nil {
		t.Fatalf("ButtonByName() error = %v", err)
	}
	var action server.Action
	waitFor(t, "queued button", func() bool {
		a, ok := srv.ExecuteNextAction()
		action = a
		return ok
	})
	if action.Kind != protocol.ActionButton || action.Message != "select" || action.ClientName != "Remote1" {
		t.Errorf("action = %+v", action)
	}
	if ev, ok := srv.ButtonCode(); !ok || ev.ButtonName != "select" {
		t.Errorf("ButtonCode() = %+v, %v", ev, ok)
	}
	if err := s.ReleaseByName("R1", "select"); err != nil {
		t.Fatalf("ReleaseByName() error = %v", err)
	}
	waitFor(t, "release", func() bool {
		_, ok := srv.ButtonCode()
		return !ok
	})

	if err := s.Mouse(65535, 0, true); err != nil {
		t.Fatalf("Mouse() error = %v", err)
	}
	waitFor(t, "mouse", func() bool {
		pos, ok := srv.MousePos()
		return ok && pos.X == 1 && pos.Y == 0
	})

	if err := s.Notification("Caption", "Message", protocol.IconJPEG, icon); err != nil {
		t.Fatalf("Notification() error = %v", err)
	}
	waitFor(t, "notification", func() bool { return notes.len() == 1 })
	notes.mu.Lock()
	n := notes.list[0]
	notes.mu.Unlock()
	if n.Caption != "Caption" || n.Message != "Message" || !bytes.Equal(n.Icon, icon) {
		t.Errorf("notification = %q/%q icon %d bytes", n.Caption, n.Message, len(n.Icon))
	}

	if err := s.Bye(); err != nil {
		t.Fatalf("Bye() error = %v", err)
	}
	waitFor(t, "removal", func() bool { return srv.NumberOfClients() == 0 })
}
