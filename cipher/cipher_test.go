package cipher

import (
	"bytes"
	"errors"
	"testing"

	"github.com/metricq/nscago/internal/wire"
)

type fixedSource struct {
	data []byte
	pos  int
}

func (f *fixedSource) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = f.data[f.pos%len(f.data)]
		f.pos++
	}
	return len(p), nil
}

func TestPlaintextRoundTrip(t *testing.T) {
	c, err := New(wire.Plaintext, nil, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	msg := []byte("hello report")
	enc, err := c.Encrypt(msg)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if !bytes.Equal(enc, msg) {
		t.Fatalf("plaintext Encrypt modified input")
	}
	dec, err := c.Decrypt(enc)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(dec, msg) {
		t.Fatalf("plaintext Decrypt modified input")
	}
}

func TestBlowfishRoundTrip(t *testing.T) {
	iv := bytes.Repeat([]byte{0x00}, 128)
	src := &fixedSource{data: []byte{1, 2, 3, 4, 5}}

	enc, err := New(wire.Blowfish, []byte("hunter2"), iv, src)
	if err != nil {
		t.Fatalf("New (encrypt side): %v", err)
	}
	dec, err := New(wire.Blowfish, []byte("hunter2"), iv, src)
	if err != nil {
		t.Fatalf("New (decrypt side): %v", err)
	}

	plaintext := bytes.Repeat([]byte("x"), 4304)
	ciphertext, err := enc.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if bytes.Equal(ciphertext, plaintext) {
		t.Fatal("ciphertext equals plaintext")
	}
	if len(ciphertext) != len(plaintext) {
		t.Fatalf("len(ciphertext) = %d, want %d", len(ciphertext), len(plaintext))
	}

	decoded, err := dec.Decrypt(ciphertext)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(decoded, plaintext) {
		t.Fatal("decrypted ciphertext does not match original plaintext")
	}
}

func TestBlowfishRoundTripAcrossMultipleCalls(t *testing.T) {
	// Stream ciphers must preserve keystream position across
	// successive Encrypt calls within one session.
	iv := bytes.Repeat([]byte{0xAB}, 8)
	src := &fixedSource{data: []byte{9, 9, 9}}

	enc, _ := New(wire.Blowfish, []byte("p"), iv, src)
	dec, _ := New(wire.Blowfish, []byte("p"), iv, src)

	chunks := [][]byte{[]byte("first chunk"), []byte("second chunk"), []byte("third")}
	for _, chunk := range chunks {
		ct, err := enc.Encrypt(chunk)
		if err != nil {
			t.Fatalf("Encrypt: %v", err)
		}
		pt, err := dec.Decrypt(ct)
		if err != nil {
			t.Fatalf("Decrypt: %v", err)
		}
		if !bytes.Equal(pt, chunk) {
			t.Fatalf("got %q, want %q", pt, chunk)
		}
	}
}

func TestBlowfishShortIVExtendedDeterministically(t *testing.T) {
	shortIV := []byte{0x01, 0x02, 0x03}
	src1 := &fixedSource{data: []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE}}
	src2 := &fixedSource{data: []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE}}

	c1, err := New(wire.Blowfish, []byte("pw"), shortIV, src1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c2, err := New(wire.Blowfish, []byte("pw"), shortIV, src2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	plaintext := []byte("reproducible ciphertext fixture")
	ct1, _ := c1.Encrypt(plaintext)
	ct2, _ := c2.Encrypt(plaintext)
	if !bytes.Equal(ct1, ct2) {
		t.Fatal("same IV-extension fixture produced different ciphertexts")
	}
}

func TestUnknownCipher(t *testing.T) {
	_, err := New(wire.EncryptionMethod(99), nil, nil, nil)
	var unknownErr *wire.UnknownCipherError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("err = %v, want *wire.UnknownCipherError", err)
	}
}

func TestAdjustLengthTruncatesAndPads(t *testing.T) {
	short := adjustLength([]byte("abc"), 8, nil)
	if len(short) != 8 || !bytes.Equal(short[:3], []byte("abc")) || !bytes.Equal(short[3:], make([]byte, 5)) {
		t.Fatalf("adjustLength short = %v", short)
	}
	long := adjustLength(bytes.Repeat([]byte{9}, 100), 56, nil)
	if len(long) != 56 {
		t.Fatalf("len(long) = %d, want 56", len(long))
	}
}
