package cipher

import "github.com/metricq/nscago/internal/randutil"

// plaintextCipher is the identity transform: NSCA's Plaintext method
// sends reports unencrypted.
type plaintextCipher struct{}

func newPlaintext(_, _ []byte, _ randutil.Source) (Cipher, error) {
	return plaintextCipher{}, nil
}

func (plaintextCipher) Encrypt(plaintext []byte) ([]byte, error) {
	return plaintext, nil
}

func (plaintextCipher) Decrypt(ciphertext []byte) ([]byte, error) {
	return ciphertext, nil
}
