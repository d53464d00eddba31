package server

import (
	"context"
	"log/slog"

	"github.com/vango-dev/eventserver/pkg/protocol"
)

// Notification is a decoded NOTIFICATION packet.
type Notification struct {
	ClientToken uint32
	ClientName  string
	Caption     string
	Message     string
	IconType    protocol.IconType
	Icon        []byte
}

// LogEntry is a decoded LOG packet.
type LogEntry struct {
	ClientToken uint32
	ClientName  string
	Level       protocol.LogLevel
	Message     string
}

// Blob is the raw payload of a BLOB packet.
type Blob struct {
	ClientToken uint32
	Data        []byte
}

// ClientChange reports a client session joining or leaving the registry.
type ClientChange struct {
	ClientToken uint32
	ClientName  string
	Address     string
	Joined      bool

	// Reason is "bye", "timeout" or "stop" for a leaving client.
	Reason string
}

// Notifier displays notifications sent by clients.
type Notifier interface {
	Notify(n Notification)
}

// LogSink records log lines sent by clients.
type LogSink interface {
	RemoteLog(e LogEntry)
}

// BlobSink consumes raw BLOB payloads.
type BlobSink interface {
	Blob(b Blob)
}

// ClientWatcher observes client admission and removal.
type ClientWatcher interface {
	ClientChanged(c ClientChange)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

// Notify implements Notifier.
func (f NotifierFunc) Notify(n Notification) { f(n) }

// LogSinkFunc adapts a function to LogSink.
type LogSinkFunc func(LogEntry)

// RemoteLog implements LogSink.
func (f LogSinkFunc) RemoteLog(e LogEntry) { f(e) }

// BlobSinkFunc adapts a function to BlobSink.
type BlobSinkFunc func(Blob)

// Blob implements BlobSink.
func (f BlobSinkFunc) Blob(b Blob) { f(b) }

// ClientWatcherFunc adapts a function to ClientWatcher.
type ClientWatcherFunc func(ClientChange)

// ClientChanged implements ClientWatcher.
func (f ClientWatcherFunc) ClientChanged(c ClientChange) { f(c) }

// slogSink is the default Notifier and LogSink.
type slogSink struct {
	logger *slog.Logger
}

func (s slogSink) Notify(n Notification) {
	s.logger.Info("client notification",
		"client_token", n.ClientToken,
		"client_name", n.ClientName,
		"caption", n.Caption,
		"message", n.Message)
}

func (s slogSink) RemoteLog(e LogEntry) {
	s.logger.Log(context.Background(), slogLevel(e.Level), e.Message,
		"client_token", e.ClientToken,
		"client_name", e.ClientName)
}

type discardBlobs struct{}

func (discardBlobs) Blob(Blob) {}

type discardChanges struct{}

func (discardChanges) ClientChanged(ClientChange) {}

// slogLevel maps a remote log level onto slog.
func slogLevel(l protocol.LogLevel) slog.Level {
	switch {
	case l <= protocol.LogDebug:
		return slog.LevelDebug
	case l <= protocol.LogNotice:
		return slog.LevelInfo
	case l == protocol.LogWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// hostEvent is a collaborator call deferred until the registry lock is released.
type hostEvent struct {
	notification *Notification
	log          *LogEntry
	blob         *Blob
	change       *ClientChange
}
