// Package protocol implements the event server wire protocol.
//
// Remote controls, keyboards, joysticks and scripts send input events to the
// media center as UDP datagrams. Every datagram carries a fixed 32-byte
// header followed by a type-specific payload of at most 992 bytes.
//
// # Wire Format
//
// All multi-byte fields are big-endian:
//
//	┌────────┬──────┬─────────────────────────────────┐
//	│ Offset │ Size │ Field                           │
//	├────────┼──────┼─────────────────────────────────┤
//	│ 0      │ 4    │ Signature "XBMC"                │
//	│ 4      │ 1    │ Major version (2)               │
//	│ 5      │ 1    │ Minor version (0)               │
//	│ 6      │ 2    │ Packet type                     │
//	│ 8      │ 4    │ Sequence number (1-based)       │
//	│ 12     │ 4    │ Total packets in this message   │
//	│ 16     │ 2    │ Payload size                    │
//	│ 18     │ 4    │ Client token                    │
//	│ 22     │ 10   │ Reserved                        │
//	│ 32     │ n    │ Payload                         │
//	└────────┴──────┴─────────────────────────────────┘
//
// A logical message larger than one datagram is split into numbered
// fragments sharing the same total count; see Fragment.
//
// # Payloads
//
// Payload sub-formats are built from big-endian integers and
// null-terminated strings:
//
//	HELO          name\0 icon(1) port(2) reserved(4) reserved(4) [icon data]
//	BUTTON        code(2) flags(2) amount(2) [map\0 button\0]
//	MOUSE         flags(1) x(2) y(2)
//	NOTIFICATION  caption\0 message\0 icon(1) reserved(4) [icon data]
//	LOG           level(1) message\0
//	ACTION        type(1) message\0
//
// # Usage Example
//
//	pkt, err := protocol.Parse(datagram)
//	if err != nil {
//	    // drop the datagram
//	}
//	if pkt.Type == protocol.PacketButton {
//	    btn, err := protocol.DecodeButton(pkt.Payload)
//	    ...
//	}
//
// # File Structure
//
//   - packet.go: header constants, Packet, Parse and Serialize
//   - types.go: packet types, flags, icon and log enums
//   - fragment.go: splitting a payload into fragments
//   - encoder.go / decoder.go: big-endian primitives
//   - payload.go: payload sub-format codecs
//   - errors.go: parse errors
package protocol
