package status

import (
	"time"

	"github.com/vango-dev/eventserver/pkg/server"
)

// Event types sent on the feed.
const (
	EventAction       = "action"
	EventNotification = "notification"
	EventClientJoined = "client_joined"
	EventClientLeft   = "client_left"
)

// Event is one feed message.
type Event struct {
	Type        string    `json:"type"`
	Time        time.Time `json:"time"`
	ClientToken uint32    `json:"client_token"`
	ClientName  string    `json:"client_name,omitempty"`

	// Action fields.
	Kind    string  `json:"kind,omitempty"`
	Message string  `json:"message,omitempty"`
	Code    uint16  `json:"code,omitempty"`
	MapName string  `json:"map_name,omitempty"`
	Amount  float64 `json:"amount,omitempty"`
	Repeat  bool    `json:"repeat,omitempty"`

	// Notification fields.
	Caption string `json:"caption,omitempty"`

	// Client join and leave fields.
	Address string `json:"address,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// ActionEvent converts a dispatched action into a feed event.
func ActionEvent(a server.Action, at time.Time) Event {
	return Event{
		Type:        EventAction,
		Time:        at,
		ClientToken: a.ClientToken,
		ClientName:  a.ClientName,
		Kind:        a.Kind.String(),
		Message:     a.Message,
		Code:        a.Code,
		MapName:     a.MapName,
		Amount:      a.Amount,
		Repeat:      a.Repeat,
	}
}

// NotificationEvent converts a client notification into a feed event.
func NotificationEvent(n server.Notification, at time.Time) Event {
	return Event{
		Type:        EventNotification,
		Time:        at,
		ClientToken: n.ClientToken,
		ClientName:  n.ClientName,
		Caption:     n.Caption,
		Message:     n.Message,
	}
}

// ClientEvent converts a client join or leave into a feed event.
func ClientEvent(c server.ClientChange, at time.Time) Event {
	ev := Event{
		Type:        EventClientLeft,
		Time:        at,
		ClientToken: c.ClientToken,
		ClientName:  c.ClientName,
		Address:     c.Address,
		Reason:      c.Reason,
	}
	if c.Joined {
		ev.Type = EventClientJoined
	}
	return ev
}
