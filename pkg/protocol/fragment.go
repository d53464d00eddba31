package protocol

// Fragment splits a logical message into packets that each fit in one
// datagram. Sequence numbers start at 1; every fragment carries the total.
// An empty payload yields a single packet.
func Fragment(pt PacketType, token uint32, payload []byte) []*Packet {
	if len(payload) <= MaxPayloadSize {
		return []*Packet{NewPacket(pt, 1, 1, token, payload)}
	}

	total := (len(payload) + MaxPayloadSize - 1) / MaxPayloadSize
	packets := make([]*Packet, 0, total)
	for i := 0; i < total; i++ {
		start := i * MaxPayloadSize
		end := start + MaxPayloadSize
		if end > len(payload) {
			end = len(payload)
		}
		chunk := make([]byte, end-start)
		copy(chunk, payload[start:end])
		packets = append(packets, NewPacket(pt, uint32(i+1), uint32(total), token, chunk))
	}
	return packets
}
