package wire

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/metricq/nscago/internal/randutil"
)

// Field widths shared by both report layouts.
const (
	hostnameWidth = 64
	serviceWidth  = 128

	// MessageWidthLong is the default, client-matching message field
	// width (4096 bytes). The historical "short message" NSCA layout
	// used 512; the duplicated 512-byte encoder/720-byte-packet
	// variant from the reference implementation is intentionally not
	// carried forward; see DESIGN.md.
	MessageWidthLong = 4096

	reportVersion = 3

	// header: version(2) + pad(2) + crc(4) + timestamp(4) + state(2)
	reportHeaderSize = 2 + 2 + 4 + 4 + 2
	reportTrailerSize = 2
)

// ReportPacketSize returns the total fixed size of a report packet
// whose message field is messageWidth bytes wide.
func ReportPacketSize(messageWidth int) int {
	return reportHeaderSize + hostnameWidth + serviceWidth + messageWidth + reportTrailerSize
}

// Report is the decoded, in-memory form of a report packet. State is
// serialized as a big-endian uint16; UnpackReport rejects values
// outside the defined State enumeration.
type Report struct {
	Hostname  string
	Service   string
	State     State
	Message   string
	Timestamp uint32
}

// PackReport assembles a fixed-size report packet of messageWidth
// bytes, padding each text field with randomness drawn from src and
// writing the CRC-32 of the fully assembled buffer (with the CRC slot
// zeroed) into the checksum field.
func PackReport(src randutil.Source, r Report, messageWidth int) ([]byte, error) {
	size := ReportPacketSize(messageWidth)
	buf := make([]byte, size)

	binary.BigEndian.PutUint16(buf[0:2], reportVersion)
	// buf[2:4] is padding, left zeroed.
	// buf[4:8] is the CRC slot, left zeroed for the first pass.
	binary.BigEndian.PutUint32(buf[8:12], r.Timestamp)
	binary.BigEndian.PutUint16(buf[12:14], uint16(r.State))

	offset := reportHeaderSize
	hostname, err := randutil.PadRandom(src, r.Hostname, hostnameWidth)
	if err != nil {
		return nil, fmt.Errorf("pad hostname: %w", err)
	}
	copy(buf[offset:offset+hostnameWidth], hostname)
	offset += hostnameWidth

	service, err := randutil.PadRandom(src, r.Service, serviceWidth)
	if err != nil {
		return nil, fmt.Errorf("pad service: %w", err)
	}
	copy(buf[offset:offset+serviceWidth], service)
	offset += serviceWidth

	message, err := randutil.PadRandom(src, r.Message, messageWidth)
	if err != nil {
		return nil, fmt.Errorf("pad message: %w", err)
	}
	copy(buf[offset:offset+messageWidth], message)
	offset += messageWidth
	// remaining reportTrailerSize bytes are padding, left zeroed.

	crc := crc32.ChecksumIEEE(buf)
	binary.BigEndian.PutUint32(buf[4:8], crc)
	return buf, nil
}

// UnpackReport parses and validates a report packet of messageWidth
// bytes: it checks the buffer length, the version field, the CRC, and
// the state enumeration, then chops the padded text fields.
func UnpackReport(b []byte, messageWidth int) (Report, error) {
	size := ReportPacketSize(messageWidth)
	if len(b) != size {
		return Report{}, &ShortPacketError{Expected: size, Got: len(b)}
	}

	version := binary.BigEndian.Uint16(b[0:2])
	if version != reportVersion {
		return Report{}, &UnexpectedVersionError{Version: version}
	}

	expectedCRC := binary.BigEndian.Uint32(b[4:8])
	verifyBuf := make([]byte, size)
	copy(verifyBuf, b)
	binary.BigEndian.PutUint32(verifyBuf[4:8], 0)
	actualCRC := crc32.ChecksumIEEE(verifyBuf)
	if expectedCRC != actualCRC {
		return Report{}, &ChecksumMismatchError{Expected: expectedCRC, Actual: actualCRC}
	}

	timestamp := binary.BigEndian.Uint32(b[8:12])
	rawState := binary.BigEndian.Uint16(b[12:14])
	state := State(rawState)
	if !state.Valid() {
		return Report{}, &InvalidStateError{Raw: rawState}
	}

	offset := reportHeaderSize
	hostname, err := randutil.Chop(b[offset : offset+hostnameWidth])
	if err != nil {
		return Report{}, &DecodeError{Field: "hostname", Err: err}
	}
	offset += hostnameWidth

	service, err := randutil.Chop(b[offset : offset+serviceWidth])
	if err != nil {
		return Report{}, &DecodeError{Field: "service", Err: err}
	}
	offset += serviceWidth

	message, err := randutil.Chop(b[offset : offset+messageWidth])
	if err != nil {
		return Report{}, &DecodeError{Field: "message", Err: err}
	}

	return Report{
		Hostname:  hostname,
		Service:   service,
		State:     state,
		Message:   message,
		Timestamp: timestamp,
	}, nil
}
