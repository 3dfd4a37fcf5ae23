package nsca

import "github.com/metricq/nscago/internal/wire"

// State is a Nagios-style service/host check outcome, serialized as a
// big-endian uint16 on the wire.
type State = wire.State

const (
	OK       = wire.OK
	WARNING  = wire.WARNING
	CRITICAL = wire.CRITICAL
	UNKNOWN  = wire.UNKNOWN
)

// EncryptionMethod identifies the wire cipher a connection uses.
type EncryptionMethod = wire.EncryptionMethod

const (
	Plaintext = wire.Plaintext
	Blowfish  = wire.Blowfish
)

// Error types surfaced by the packet codec and cipher registry. They
// are defined in internal/wire, where the codec that raises them
// lives, and re-exported here as the public API.
type (
	UnknownCipherError     = wire.UnknownCipherError
	ShortPacketError       = wire.ShortPacketError
	UnexpectedVersionError = wire.UnexpectedVersionError
	ChecksumMismatchError  = wire.ChecksumMismatchError
	InvalidStateError      = wire.InvalidStateError
	DecodeError            = wire.DecodeError
)

// Report is one decoded host or service check result. Service is
// empty for a host-level report.
type Report = wire.Report
