// Package xof wraps the SHA-3 family primitives the lattice schemes consume:
// fixed-length digests and extendable-output streams with domain separation.
package xof

import (
	"golang.org/x/crypto/sha3"
)

// H returns SHAKE-256 output of the requested length over the concatenation
// of parts.
func H(length int, parts ...[]byte) []byte {
	h := sha3.NewShake256()
	for _, p := range parts {
		h.Write(p)
	}
	out := make([]byte, length)
	h.Read(out)
	return out
}

// Sum256 returns the SHA3-256 digest of the concatenation of parts.
func Sum256(parts ...[]byte) [32]byte {
	h := sha3.New256()
	for _, p := range parts {
		h.Write(p)
	}
	var out [32]byte
	h.Sum(out[:0])
	return out
}

// Sum512 returns the SHA3-512 digest of the concatenation of parts.
func Sum512(parts ...[]byte) [64]byte {
	h := sha3.New512()
	for _, p := range parts {
		h.Write(p)
	}
	var out [64]byte
	h.Sum(out[:0])
	return out
}

// Stream128 provides incremental SHAKE-128 output.
type Stream128 struct {
	h   sha3.ShakeHash
	buf [168]byte // SHAKE128 rate
	pos int
	end int
}

// NewStream128 creates a reusable SHAKE-128 stream. Call Reset before reading.
func NewStream128() *Stream128 {
	return &Stream128{h: sha3.NewShake128()}
}

// Reset reinitializes the stream over the concatenation of parts.
func (x *Stream128) Reset(parts ...[]byte) {
	x.h.Reset()
	for _, p := range parts {
		x.h.Write(p)
	}
	x.pos = 0
	x.end = 0
}

// Read3 returns the next 3 bytes from the stream.
func (x *Stream128) Read3() (b0, b1, b2 byte) {
	if x.pos+3 > x.end {
		leftover := x.end - x.pos
		if leftover > 0 {
			copy(x.buf[:leftover], x.buf[x.pos:x.end])
		}
		n, _ := x.h.Read(x.buf[leftover:])
		x.pos = 0
		x.end = leftover + n
	}
	b0, b1, b2 = x.buf[x.pos], x.buf[x.pos+1], x.buf[x.pos+2]
	x.pos += 3
	return
}

// Stream256 provides incremental SHAKE-256 output.
type Stream256 struct {
	h   sha3.ShakeHash
	buf [136]byte // SHAKE256 rate
	pos int
	end int
}

// NewStream256 creates a reusable SHAKE-256 stream. Call Reset before reading.
func NewStream256() *Stream256 {
	return &Stream256{h: sha3.NewShake256()}
}

// Reset reinitializes the stream over the concatenation of parts.
func (x *Stream256) Reset(parts ...[]byte) {
	x.h.Reset()
	for _, p := range parts {
		x.h.Write(p)
	}
	x.pos = 0
	x.end = 0
}

// ReadByte returns the next byte from the stream.
func (x *Stream256) ReadByte() byte {
	if x.pos >= x.end {
		n, _ := x.h.Read(x.buf[:])
		x.pos = 0
		x.end = n
	}
	b := x.buf[x.pos]
	x.pos++
	return b
}

// Read fills p with stream output.
func (x *Stream256) Read(p []byte) {
	for i := range p {
		p[i] = x.ReadByte()
	}
}

// Nonce16 encodes a 16-bit nonce as two little-endian bytes for domain
// separation.
func Nonce16(n uint16) []byte {
	return []byte{byte(n & 0xFF), byte(n >> 8)}
}
