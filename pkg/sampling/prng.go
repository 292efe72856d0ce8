package sampling

import (
	"crypto/rand"
	"io"

	"golang.org/x/crypto/blake2b"
)

// PRNG is a source of random bytes for seed generation.
type PRNG interface {
	io.Reader
}

// SystemPRNG reads from the operating system's entropy source. It is safe
// for concurrent use.
type SystemPRNG struct{}

// NewSystemPRNG returns a PRNG backed by crypto/rand.
func NewSystemPRNG() *SystemPRNG {
	return &SystemPRNG{}
}

func (prng *SystemPRNG) Read(p []byte) (int, error) {
	return rand.Read(p)
}

// KeyedPRNG deterministically expands a key into an unbounded byte sequence
// with the blake2b extendable-output function. Two instances created with the
// same key produce the same stream, which makes key and signature flows
// reproducible in tests. A KeyedPRNG must not be shared across goroutines:
// interleaved reads would make the stream depend on scheduling.
type KeyedPRNG struct {
	key []byte
	xof blake2b.XOF
}

// NewKeyedPRNG creates a deterministic PRNG seeded with key. A nil key is
// accepted but yields a fixed, publicly known stream.
func NewKeyedPRNG(key []byte) (*KeyedPRNG, error) {
	xof, err := blake2b.NewXOF(blake2b.OutputLengthUnknown, key)
	if err != nil {
		return nil, err
	}
	prng := &KeyedPRNG{xof: xof}
	prng.key = append(prng.key, key...)
	return prng, nil
}

// Key returns a copy of the seeding key.
func (prng *KeyedPRNG) Key() []byte {
	key := make([]byte, len(prng.key))
	copy(key, prng.key)
	return key
}

func (prng *KeyedPRNG) Read(p []byte) (int, error) {
	return prng.xof.Read(p)
}
