package cipher

import (
	stdcipher "crypto/cipher"
	"fmt"
	"io"

	"golang.org/x/crypto/blowfish"

	"github.com/metricq/nscago/internal/randutil"
)

const (
	blowfishKeySize = 56 // bytes
)

// cfb8 is an 8-bit-segment Cipher Feedback stream built from a block
// cipher. This is NOT the same construction as crypto/cipher's
// NewCFBEncrypter/NewCFBDecrypter, which feed back a full block: NSCA
// historically pairs Blowfish with a 1-byte feedback segment, and an
// implementation using full-block CFB silently produces ciphertext
// that no reference NSCA server can decrypt.
type cfb8 struct {
	block stdcipher.Block
	sr    []byte // shift register, length == block.BlockSize()
}

func newCFB8(block stdcipher.Block, iv []byte) *cfb8 {
	sr := make([]byte, block.BlockSize())
	copy(sr, iv)
	return &cfb8{block: block, sr: sr}
}

// step encrypts the shift register, mixes the first byte of the result
// with in, and shifts the feedback byte into the register. encrypting selects
// which of {in, out} becomes the fed-back ciphertext byte.
func (c *cfb8) step(in byte, encrypting bool) byte {
	keystream := make([]byte, len(c.sr))
	c.block.Encrypt(keystream, c.sr)

	out := in ^ keystream[0]

	var feedback byte
	if encrypting {
		feedback = out
	} else {
		feedback = in
	}

	copy(c.sr, c.sr[1:])
	c.sr[len(c.sr)-1] = feedback
	return out
}

func (c *cfb8) transform(dst, src []byte, encrypting bool) {
	for i, b := range src {
		dst[i] = c.step(b, encrypting)
	}
}

// blowfishCFBCipher implements Cipher using Blowfish in 8-bit CFB
// mode, with independent encrypt/decrypt keystreams seeded from the
// same IV (mirroring crypto/cipher's split NewCFBEncrypter/
// NewCFBDecrypter construction).
type blowfishCFBCipher struct {
	enc *cfb8
	dec *cfb8
}

func newBlowfishCFB(password, iv []byte, src randutil.Source) (Cipher, error) {
	key := adjustLength(password, blowfishKeySize, nil)

	block, err := blowfish.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("construct blowfish cipher: %w", err)
	}

	blockIV, err := extendIV(iv, src, block.BlockSize())
	if err != nil {
		return nil, fmt.Errorf("derive blowfish IV: %w", err)
	}

	return &blowfishCFBCipher{
		enc: newCFB8(block, blockIV),
		dec: newCFB8(block, blockIV),
	}, nil
}

func (c *blowfishCFBCipher) Encrypt(plaintext []byte) ([]byte, error) {
	out := make([]byte, len(plaintext))
	c.enc.transform(out, plaintext, true)
	return out, nil
}

func (c *blowfishCFBCipher) Decrypt(ciphertext []byte) ([]byte, error) {
	out := make([]byte, len(ciphertext))
	c.dec.transform(out, ciphertext, false)
	return out, nil
}

// adjustLength right-pads b with fill bytes (0x00 when fill is nil) up
// to length n, or truncates it to n.
func adjustLength(b []byte, n int, fill []byte) []byte {
	if len(b) >= n {
		return b[:n]
	}
	out := make([]byte, n)
	copy(out, b)
	if fill != nil {
		copy(out[len(b):], fill)
	}
	return out
}

// extendIV truncates iv to blockSize, or, if it is shorter, extends it
// with random bytes drawn from src.
func extendIV(iv []byte, src randutil.Source, blockSize int) ([]byte, error) {
	if len(iv) >= blockSize {
		return iv[:blockSize], nil
	}
	extra := make([]byte, blockSize-len(iv))
	if _, err := io.ReadFull(src, extra); err != nil {
		return nil, fmt.Errorf("failed to extend IV: %w", err)
	}
	out := make([]byte, 0, blockSize)
	out = append(out, iv...)
	out = append(out, extra...)
	return out, nil
}
