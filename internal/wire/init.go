// Package wire implements the NSCA on-wire packet codecs: the
// unencrypted init handshake packet and the fixed-size encrypted
// report packet, including the random-padded text fields and the
// CRC-32 checksum.
package wire

import (
	"encoding/binary"
)

// InitPacketSize is the fixed, unencrypted handshake packet size: a
// 128-byte IV followed by a 32-bit timestamp.
const InitPacketSize = 132

const ivSize = 128

// InitPacket is the first frame a server sends to a freshly accepted
// client connection.
type InitPacket struct {
	IV        [ivSize]byte
	Timestamp uint32
}

// Pack serializes the init packet to its fixed 132-byte wire form.
func (p InitPacket) Pack() []byte {
	buf := make([]byte, InitPacketSize)
	copy(buf[0:ivSize], p.IV[:])
	binary.BigEndian.PutUint32(buf[ivSize:ivSize+4], p.Timestamp)
	return buf
}

// UnpackInitPacket parses a 132-byte buffer into an InitPacket.
func UnpackInitPacket(b []byte) (InitPacket, error) {
	if len(b) != InitPacketSize {
		return InitPacket{}, &ShortPacketError{Expected: InitPacketSize, Got: len(b)}
	}
	var p InitPacket
	copy(p.IV[:], b[0:ivSize])
	p.Timestamp = binary.BigEndian.Uint32(b[ivSize : ivSize+4])
	return p, nil
}
