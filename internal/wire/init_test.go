package wire

import (
	"bytes"
	"testing"
)

func TestInitPacketRoundTrip(t *testing.T) {
	var p InitPacket
	for i := range p.IV {
		p.IV[i] = byte(i)
	}
	p.Timestamp = 1_600_000_000

	buf := p.Pack()
	if len(buf) != InitPacketSize {
		t.Fatalf("len = %d, want %d", len(buf), InitPacketSize)
	}

	got, err := UnpackInitPacket(buf)
	if err != nil {
		t.Fatalf("UnpackInitPacket: %v", err)
	}
	if !bytes.Equal(got.IV[:], p.IV[:]) || got.Timestamp != p.Timestamp {
		t.Fatalf("got %+v, want %+v", got, p)
	}
}

func TestUnpackInitPacketShort(t *testing.T) {
	if _, err := UnpackInitPacket(make([]byte, 10)); err == nil {
		t.Fatal("expected error for short buffer")
	}
}
