// Package cipher implements the NSCA stream-cipher layer behind one
// narrow contract, so the client and server session code never needs
// to know which concrete cipher a connection negotiated.
package cipher

import (
	"github.com/metricq/nscago/internal/randutil"
	"github.com/metricq/nscago/internal/wire"
)

// Cipher transforms arbitrary-length byte blocks. For stream-cipher
// implementations, Encrypt and Decrypt advance an internal keystream
// position across calls within one session: callers must not reorder
// or skip calls, and two Ciphers constructed from the same
// password/IV pair are only interchangeable at the start of a fresh
// stream.
type Cipher interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

// Constructor builds a Cipher keyed from a password and a
// connection-specific IV, drawing any additional randomness it needs
// (e.g. to extend a short IV) from src.
type Constructor func(password, iv []byte, src randutil.Source) (Cipher, error)

var registry = map[wire.EncryptionMethod]Constructor{
	wire.Plaintext: newPlaintext,
	wire.Blowfish:  newBlowfishCFB,
}

// New looks up the constructor registered for method and uses it to
// build a Cipher keyed from password and iv.
func New(method wire.EncryptionMethod, password, iv []byte, src randutil.Source) (Cipher, error) {
	ctor, ok := registry[method]
	if !ok {
		return nil, &wire.UnknownCipherError{Method: method}
	}
	return ctor(password, iv, src)
}
