package server

import (
	"strings"
	"time"

	"github.com/vango-dev/eventserver/pkg/protocol"
)

// Action is a decoded, host-actionable unit of work.
type Action struct {
	// Kind selects how Message is executed.
	Kind protocol.ActionType

	// Message is the builtin command for ActionExecBuiltin, or the button
	// or action name for ActionButton. Empty for button actions identified
	// by code.
	Message string

	// Code, MapName and Amount describe a button action that came from a
	// BUTTON packet.
	Code    uint16
	MapName string
	Amount  float64

	// Repeat is true for synthetic key-repeat actions.
	Repeat bool

	ClientToken uint32
	ClientName  string
}

// ButtonEvent is the state of a held button or axis.
type ButtonEvent struct {
	Code        uint16
	MapName     string
	ButtonName  string
	IsAxis      bool
	IsJoystick  bool
	Amount      float64
	ClientToken uint32
}

// MousePos is the last mouse position reported by a client. X and Y are
// normalized to 0..1; Absolute reports the client's absolute flag.
type MousePos struct {
	X           float64
	Y           float64
	Absolute    bool
	ClientToken uint32
}

// RepeatDelays control synthetic key repeat.
type RepeatDelays struct {
	Initial    time.Duration
	Continuous time.Duration
}

// enabled reports whether both delays are positive.
func (r RepeatDelays) enabled() bool {
	return r.Initial > 0 && r.Continuous > 0
}

// buttonKey identifies a button per controller. Named buttons are keyed by
// name, coded buttons by code.
type buttonKey struct {
	mapName string
	name    string
	code    uint16
}

// buttonState is a held button or axis.
type buttonState struct {
	key        buttonKey
	code       uint16
	mapName    string
	name       string
	amount     float64
	axis       bool
	singleFire bool
	repeat     bool
	pressedAt  time.Time
	lastEmit   time.Time
	repeats    int
}

func keyFor(b *protocol.Button) buttonKey {
	if b.Flags.Has(protocol.ButtonUseName) {
		return buttonKey{mapName: b.MapName, name: b.ButtonName}
	}
	return buttonKey{mapName: b.MapName, code: b.Code}
}

// buttonAmount maps the 16-bit amount onto -1..1. Without ButtonUseAmount a
// press is full scale.
func buttonAmount(b *protocol.Button) float64 {
	if !b.Flags.Has(protocol.ButtonUseAmount) {
		if b.Flags.Has(protocol.ButtonUp) {
			return 0
		}
		return 1
	}
	return float64(b.Amount)/65535.0*2.0 - 1.0
}

// isJoystickMap reports whether a keymap name refers to a joystick.
// Joystick keymaps are named "JS<n>:<device>".
func isJoystickMap(mapName string) bool {
	return strings.HasPrefix(mapName, "JS")
}

func (s *buttonState) event(token uint32) ButtonEvent {
	return ButtonEvent{
		Code:        s.code,
		MapName:     s.mapName,
		ButtonName:  s.name,
		IsAxis:      s.axis,
		IsJoystick:  isJoystickMap(s.mapName),
		Amount:      s.amount,
		ClientToken: token,
	}
}

func (s *buttonState) action(token uint32, clientName string, repeat bool) Action {
	return Action{
		Kind:        protocol.ActionButton,
		Message:     s.name,
		Code:        s.code,
		MapName:     s.mapName,
		Amount:      s.amount,
		Repeat:      repeat,
		ClientToken: token,
		ClientName:  clientName,
	}
}

// due reports whether a repeat should be emitted at now.
func (s *buttonState) due(now time.Time, delays RepeatDelays) bool {
	if !s.repeat || !delays.enabled() {
		return false
	}
	delay := delays.Continuous
	if s.repeats == 0 {
		delay = delays.Initial
	}
	return now.Sub(s.lastEmit) >= delay
}
