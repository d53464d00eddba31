package protocol

import (
	"bytes"
	"testing"
)

func TestFragmentSingle(t *testing.T) {
	packets := Fragment(PacketHelo, 9, []byte("small"))
	if len(packets) != 1 {
		t.Fatalf("len(packets) = %d, want 1", len(packets))
	}
	p := packets[0]
	if p.Seq != 1 || p.Total != 1 || p.Token != 9 || !p.Single() {
		t.Errorf("packet = %+v, want seq 1 of 1", p)
	}
}

func TestFragmentEmpty(t *testing.T) {
	packets := Fragment(PacketBye, 0, nil)
	if len(packets) != 1 || len(packets[0].Payload) != 0 {
		t.Errorf("Fragment(nil) = %d packets, want 1 empty", len(packets))
	}
}

func TestFragmentSplitsAndReassembles(t *testing.T) {
	sizes := []int{MaxPayloadSize, MaxPayloadSize + 1, 2 * MaxPayloadSize, 3*MaxPayloadSize + 17}

	for _, size := range sizes {
		payload := make([]byte, size)
		for i := range payload {
			payload[i] = byte(i % 251)
		}

		packets := Fragment(PacketNotification, 3, payload)
		wantTotal := (size + MaxPayloadSize - 1) / MaxPayloadSize
		if len(packets) != wantTotal {
			t.Fatalf("size %d: %d packets, want %d", size, len(packets), wantTotal)
		}

		var joined []byte
		for i, p := range packets {
			if p.Seq != uint32(i+1) || p.Total != uint32(wantTotal) {
				t.Errorf("size %d: packet %d seq/total = %d/%d", size, i, p.Seq, p.Total)
			}
			if len(p.Payload) > MaxPayloadSize {
				t.Errorf("size %d: packet %d payload %d bytes", size, i, len(p.Payload))
			}
			if _, err := p.Serialize(); err != nil {
				t.Errorf("size %d: Serialize() error = %v", size, err)
			}
			joined = append(joined, p.Payload...)
		}
		if !bytes.Equal(joined, payload) {
			t.Errorf("size %d: reassembled payload differs", size)
		}
	}
}
