package protocol

import (
	"errors"
	"io"
	"strings"
)

// MaxDeviceNameLength limits the device name in a HELO payload.
const MaxDeviceNameLength = 128

// ErrInvalidString is returned when an encoded string contains a null byte.
var ErrInvalidString = errors.New("protocol: string contains null byte")

// Helo is the payload of a HELO packet.
type Helo struct {
	DeviceName string
	IconType   IconType
	Port       uint16 // UDP port the client listens on, 0 if none
	IconData   []byte
}

// Button is the payload of a BUTTON packet.
type Button struct {
	Code       uint16
	Flags      ButtonFlags
	Amount     uint16
	MapName    string // Device keymap, e.g. "KB", "XG", "R1", "JS0:Gamepad"
	ButtonName string
}

// Mouse is the payload of a MOUSE packet.
type Mouse struct {
	Flags MouseFlags
	X     uint16
	Y     uint16
}

// Notification is the payload of a NOTIFICATION packet.
type Notification struct {
	Caption  string
	Message  string
	IconType IconType
	IconData []byte
}

// Log is the payload of a LOG packet.
type Log struct {
	Level   LogLevel
	Message string
}

// Action is the payload of an ACTION packet.
type Action struct {
	Type    ActionType
	Message string
}

// truncated maps decoder errors onto payload errors.
func truncated(pt PacketType, field string, err error) error {
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = ErrPayloadTruncated
	}
	return payloadError(pt, field, err)
}

func checkString(pt PacketType, field, s string) error {
	if strings.IndexByte(s, 0) >= 0 {
		return payloadError(pt, field, ErrInvalidString)
	}
	return nil
}

// DecodeHelo decodes a HELO payload.
func DecodeHelo(payload []byte) (*Helo, error) {
	d := NewDecoder(payload)

	name, err := d.ReadCString(MaxDeviceNameLength)
	if err != nil {
		return nil, truncated(PacketHelo, "device_name", err)
	}
	icon, err := d.ReadByte()
	if err != nil {
		return nil, truncated(PacketHelo, "icon_type", err)
	}
	port, err := d.ReadUint16()
	if err != nil {
		return nil, truncated(PacketHelo, "port", err)
	}
	if _, err := d.ReadUint32(); err != nil {
		return nil, truncated(PacketHelo, "reserved1", err)
	}
	if _, err := d.ReadUint32(); err != nil {
		return nil, truncated(PacketHelo, "reserved2", err)
	}

	h := &Helo{
		DeviceName: name,
		IconType:   IconType(icon),
		Port:       port,
	}
	if h.IconType != IconNone {
		h.IconData = d.ReadRest()
	}
	return h, nil
}

// Encode encodes the HELO payload.
func (h *Helo) Encode() ([]byte, error) {
	if len(h.DeviceName) > MaxDeviceNameLength {
		return nil, payloadError(PacketHelo, "device_name", ErrStringTooLong)
	}
	if err := checkString(PacketHelo, "device_name", h.DeviceName); err != nil {
		return nil, err
	}
	e := NewEncoderWithCap(len(h.DeviceName) + 12 + len(h.IconData))
	e.WriteCString(h.DeviceName)
	e.WriteByte(byte(h.IconType))
	e.WriteUint16(h.Port)
	e.WriteUint32(0)
	e.WriteUint32(0)
	if h.IconType != IconNone {
		e.WriteBytes(h.IconData)
	}
	return e.Bytes(), nil
}

// DecodeButton decodes a BUTTON payload. The map and button names are
// required when ButtonUseName is set and optional otherwise.
func DecodeButton(payload []byte) (*Button, error) {
	d := NewDecoder(payload)

	code, err := d.ReadUint16()
	if err != nil {
		return nil, truncated(PacketButton, "code", err)
	}
	flags, err := d.ReadUint16()
	if err != nil {
		return nil, truncated(PacketButton, "flags", err)
	}
	amount, err := d.ReadUint16()
	if err != nil {
		return nil, truncated(PacketButton, "amount", err)
	}

	b := &Button{
		Code:   code,
		Flags:  ButtonFlags(flags),
		Amount: amount,
	}
	useName := b.Flags.Has(ButtonUseName)

	if d.EOF() {
		if useName {
			return nil, payloadError(PacketButton, "map_name", ErrMissingField)
		}
		return b, nil
	}
	if b.MapName, err = d.ReadCString(0); err != nil {
		return nil, truncated(PacketButton, "map_name", err)
	}
	if d.EOF() {
		if useName {
			return nil, payloadError(PacketButton, "button_name", ErrMissingField)
		}
		return b, nil
	}
	if b.ButtonName, err = d.ReadCString(0); err != nil {
		return nil, truncated(PacketButton, "button_name", err)
	}
	if useName && (b.MapName == "" || b.ButtonName == "") {
		return nil, payloadError(PacketButton, "button_name", ErrMissingField)
	}
	return b, nil
}

// Encode encodes the BUTTON payload.
func (b *Button) Encode() ([]byte, error) {
	if err := checkString(PacketButton, "map_name", b.MapName); err != nil {
		return nil, err
	}
	if err := checkString(PacketButton, "button_name", b.ButtonName); err != nil {
		return nil, err
	}
	e := NewEncoderWithCap(8 + len(b.MapName) + len(b.ButtonName))
	e.WriteUint16(b.Code)
	e.WriteUint16(uint16(b.Flags))
	e.WriteUint16(b.Amount)
	if b.MapName != "" || b.ButtonName != "" || b.Flags.Has(ButtonUseName) {
		e.WriteCString(b.MapName)
		e.WriteCString(b.ButtonName)
	}
	return e.Bytes(), nil
}

// DecodeMouse decodes a MOUSE payload.
func DecodeMouse(payload []byte) (*Mouse, error) {
	d := NewDecoder(payload)

	flags, err := d.ReadByte()
	if err != nil {
		return nil, truncated(PacketMouse, "flags", err)
	}
	x, err := d.ReadUint16()
	if err != nil {
		return nil, truncated(PacketMouse, "x", err)
	}
	y, err := d.ReadUint16()
	if err != nil {
		return nil, truncated(PacketMouse, "y", err)
	}
	return &Mouse{Flags: MouseFlags(flags), X: x, Y: y}, nil
}

// Encode encodes the MOUSE payload.
func (m *Mouse) Encode() ([]byte, error) {
	e := NewEncoderWithCap(5)
	e.WriteByte(byte(m.Flags))
	e.WriteUint16(m.X)
	e.WriteUint16(m.Y)
	return e.Bytes(), nil
}

// DecodeNotification decodes a NOTIFICATION payload.
func DecodeNotification(payload []byte) (*Notification, error) {
	d := NewDecoder(payload)

	caption, err := d.ReadCString(0)
	if err != nil {
		return nil, truncated(PacketNotification, "caption", err)
	}
	message, err := d.ReadCString(0)
	if err != nil {
		return nil, truncated(PacketNotification, "message", err)
	}
	icon, err := d.ReadByte()
	if err != nil {
		return nil, truncated(PacketNotification, "icon_type", err)
	}
	if _, err := d.ReadUint32(); err != nil {
		return nil, truncated(PacketNotification, "reserved", err)
	}

	n := &Notification{
		Caption:  caption,
		Message:  message,
		IconType: IconType(icon),
	}
	if n.IconType != IconNone {
		n.IconData = d.ReadRest()
	}
	return n, nil
}

// Encode encodes the NOTIFICATION payload.
func (n *Notification) Encode() ([]byte, error) {
	if err := checkString(PacketNotification, "caption", n.Caption); err != nil {
		return nil, err
	}
	if err := checkString(PacketNotification, "message", n.Message); err != nil {
		return nil, err
	}
	e := NewEncoderWithCap(len(n.Caption) + len(n.Message) + 7 + len(n.IconData))
	e.WriteCString(n.Caption)
	e.WriteCString(n.Message)
	e.WriteByte(byte(n.IconType))
	e.WriteUint32(0)
	if n.IconType != IconNone {
		e.WriteBytes(n.IconData)
	}
	return e.Bytes(), nil
}

// DecodeLog decodes a LOG payload.
func DecodeLog(payload []byte) (*Log, error) {
	d := NewDecoder(payload)

	level, err := d.ReadByte()
	if err != nil {
		return nil, truncated(PacketLog, "level", err)
	}
	message, err := d.ReadCString(0)
	if err != nil {
		return nil, truncated(PacketLog, "message", err)
	}
	return &Log{Level: LogLevel(level), Message: message}, nil
}

// Encode encodes the LOG payload.
func (l *Log) Encode() ([]byte, error) {
	if err := checkString(PacketLog, "message", l.Message); err != nil {
		return nil, err
	}
	e := NewEncoderWithCap(len(l.Message) + 2)
	e.WriteByte(byte(l.Level))
	e.WriteCString(l.Message)
	return e.Bytes(), nil
}

// DecodeAction decodes an ACTION payload.
func DecodeAction(payload []byte) (*Action, error) {
	d := NewDecoder(payload)

	at, err := d.ReadByte()
	if err != nil {
		return nil, truncated(PacketAction, "type", err)
	}
	message, err := d.ReadCString(0)
	if err != nil {
		return nil, truncated(PacketAction, "message", err)
	}
	a := &Action{Type: ActionType(at), Message: message}
	if a.Type != ActionExecBuiltin && a.Type != ActionButton {
		return nil, payloadError(PacketAction, "type", ErrBadActionType)
	}
	return a, nil
}

// Encode encodes the ACTION payload.
func (a *Action) Encode() ([]byte, error) {
	if err := checkString(PacketAction, "message", a.Message); err != nil {
		return nil, err
	}
	e := NewEncoderWithCap(len(a.Message) + 2)
	e.WriteByte(byte(a.Type))
	e.WriteCString(a.Message)
	return e.Bytes(), nil
}
