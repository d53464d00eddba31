package protocol

import "bytes"

// Packet constants.
const (
	// HeaderSize is the size of the fixed packet header in bytes.
	HeaderSize = 32

	// PacketSize is the maximum datagram size, header included.
	PacketSize = 1024

	// MaxPayloadSize is the largest payload a single packet can carry.
	MaxPayloadSize = PacketSize - HeaderSize

	// MajorVersion and MinorVersion are written by Serialize.
	MajorVersion = 2
	MinorVersion = 0
)

// Signature is the literal that opens every datagram.
var Signature = [4]byte{'X', 'B', 'M', 'C'}

const (
	offMajor     = 4
	reservedSize = 10
)

// Packet is one validated datagram.
//
// Wire format (32 bytes header + variable payload):
//
//	┌───────────┬─────┬─────┬──────┬──────┬───────┬──────┬───────┬──────────┐
//	│ "XBMC"    │ Maj │ Min │ Type │ Seq  │ Total │ Size │ Token │ Reserved │
//	│ 4         │ 1   │ 1   │ 2    │ 4    │ 4     │ 2    │ 4     │ 10       │
//	└───────────┴─────┴─────┴──────┴──────┴───────┴──────┴───────┴──────────┘
//	│                                                                        │
//	│  Payload (Size bytes)                                                  │
//	│                                                                        │
//	└────────────────────────────────────────────────────────────────────────┘
type Packet struct {
	MajorVersion uint8
	MinorVersion uint8
	Type         PacketType
	Seq          uint32 // 1-based fragment number
	Total        uint32 // Number of fragments in the logical message
	Token        uint32 // Client token, zero if the sender has none
	Payload      []byte
}

// NewPacket creates a packet at the current protocol version.
func NewPacket(pt PacketType, seq, total, token uint32, payload []byte) *Packet {
	return &Packet{
		MajorVersion: MajorVersion,
		MinorVersion: MinorVersion,
		Type:         pt,
		Seq:          seq,
		Total:        total,
		Token:        token,
		Payload:      payload,
	}
}

// Single reports whether the packet is a complete message on its own.
func (p *Packet) Single() bool {
	return p.Total <= 1
}

// Len returns the serialized length of the packet.
func (p *Packet) Len() int {
	return HeaderSize + len(p.Payload)
}

// Parse validates a datagram and returns the packet it carries.
// The payload is copied; buf may be reused by the caller.
func Parse(buf []byte) (*Packet, error) {
	if len(buf) < HeaderSize {
		return nil, headerError("length", ErrPacketTooSmall)
	}
	if len(buf) > PacketSize {
		return nil, headerError("length", ErrPacketTooLarge)
	}

	if !bytes.Equal(buf[:len(Signature)], Signature[:]) {
		return nil, headerError("signature", ErrBadSignature)
	}

	d := NewDecoder(buf)
	// Bounds were checked above, so the fixed-width reads below cannot fail.
	_ = d.Skip(offMajor)
	major, _ := d.ReadByte()
	minor, _ := d.ReadByte()
	if major != MajorVersion {
		return nil, headerError("version", ErrBadVersion)
	}

	rawType, _ := d.ReadUint16()
	pt := PacketType(rawType)
	if !pt.Valid() {
		return nil, headerError("type", ErrBadPacketType)
	}

	seq, _ := d.ReadUint32()
	total, _ := d.ReadUint32()
	size, _ := d.ReadUint16()
	if int(size)+HeaderSize != len(buf) {
		return nil, headerError("payload_size", ErrSizeMismatch)
	}

	token, _ := d.ReadUint32()
	_ = d.Skip(reservedSize)

	payload := make([]byte, size)
	copy(payload, buf[HeaderSize:])

	return &Packet{
		MajorVersion: major,
		MinorVersion: minor,
		Type:         pt,
		Seq:          seq,
		Total:        total,
		Token:        token,
		Payload:      payload,
	}, nil
}

// Serialize encodes the packet to a datagram.
func (p *Packet) Serialize() ([]byte, error) {
	e := NewEncoderWithCap(p.Len())
	if err := p.EncodeTo(e); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

// EncodeTo encodes the packet using the provided encoder.
func (p *Packet) EncodeTo(e *Encoder) error {
	if len(p.Payload) > MaxPayloadSize {
		return ErrPayloadTooLarge
	}
	e.WriteBytes(Signature[:])
	e.WriteByte(p.MajorVersion)
	e.WriteByte(p.MinorVersion)
	e.WriteUint16(uint16(p.Type))
	e.WriteUint32(p.Seq)
	e.WriteUint32(p.Total)
	e.WriteUint16(uint16(len(p.Payload)))
	e.WriteUint32(p.Token)
	e.WriteZeros(reservedSize)
	e.WriteBytes(p.Payload)
	return nil
}
