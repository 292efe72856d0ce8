// Package params holds the fixed parameter tables for the supported security
// levels. Callers select a named level; raw parameters are never constructed
// by hand.
package params

import (
	"errors"

	"pqlattice/pkg/ring"
)

// ErrInvalidParameter reports a request for an unsupported security level.
var ErrInvalidParameter = errors.New("params: unsupported security level")

// SeedSize is the size of every seed consumed by the schemes.
const SeedSize = 32

// KEM is the parameter set of one Kyber security level. Values are fixed at
// table construction and never mutated.
type KEM struct {
	Level int // 512, 768 or 1024

	N    int
	Q    uint32
	K    int // module rank
	Eta1 int // noise width for s, e, r
	Eta2 int // noise width for e1, e2
	Du   uint
	Dv   uint

	PublicKeySize  int
	SecretKeySize  int
	CiphertextSize int
	SharedKeySize  int
}

// Signature is the parameter set of one Dilithium security level.
type Signature struct {
	Level int // 2, 3 or 5

	N          int
	Q          uint32
	K, L       int // module dimensions
	Eta        int
	Tau        int
	Beta       uint32
	Gamma1     uint32
	Gamma1Bits uint
	Gamma2     uint32
	D          uint
	Omega      int
	Lambda     int // collision strength of the challenge digest, in bits

	W1Bits  uint // packing width of a high-bits coefficient
	EtaBits uint // packing width of a secret coefficient

	PublicKeySize int
	SecretKeySize int
	SignatureSize int
}

var kemTable = map[int]KEM{
	512:  newKEM(512, 2, 3, 2, 10, 4),
	768:  newKEM(768, 3, 2, 2, 10, 4),
	1024: newKEM(1024, 4, 2, 2, 11, 5),
}

var sigTable = map[int]Signature{
	2: newSignature(2, 4, 4, 2, 39, 1<<17, 17, (ring.QDilithium-1)/88, 80, 128),
	3: newSignature(3, 6, 5, 4, 49, 1<<19, 19, (ring.QDilithium-1)/32, 55, 192),
	5: newSignature(5, 8, 7, 2, 60, 1<<19, 19, (ring.QDilithium-1)/32, 75, 256),
}

func newKEM(level, k, eta1, eta2 int, du, dv uint) KEM {
	p := KEM{
		Level: level,
		N:     ring.N,
		Q:     ring.QKyber,
		K:     k,
		Eta1:  eta1,
		Eta2:  eta2,
		Du:    du,
		Dv:    dv,
	}
	p.PublicKeySize = k*polySize12 + SeedSize
	p.SecretKeySize = k*polySize12 + p.PublicKeySize + 2*32
	p.CiphertextSize = k*int(du)*ring.N/8 + int(dv)*ring.N/8
	p.SharedKeySize = 32
	return p
}

func newSignature(level, k, l, eta, tau int, gamma1 uint32, gamma1Bits uint, gamma2 uint32, omega, lambda int) Signature {
	p := Signature{
		Level:      level,
		N:          ring.N,
		Q:          ring.QDilithium,
		K:          k,
		L:          l,
		Eta:        eta,
		Tau:        tau,
		Beta:       uint32(eta * tau),
		Gamma1:     gamma1,
		Gamma1Bits: gamma1Bits,
		Gamma2:     gamma2,
		D:          13,
		Omega:      omega,
		Lambda:     lambda,
	}
	if gamma2 == (ring.QDilithium-1)/88 {
		p.W1Bits = 6 // high bits range over [0, 44)
	} else {
		p.W1Bits = 4 // high bits range over [0, 16)
	}
	if eta == 2 {
		p.EtaBits = 3
	} else {
		p.EtaBits = 4
	}
	p.PublicKeySize = SeedSize + k*ring.N*10/8
	p.SecretKeySize = SeedSize + SeedSize + 64 +
		(k+l)*ring.N*int(p.EtaBits)/8 + k*ring.N*13/8
	p.SignatureSize = lambda/4 + l*ring.N*int(gamma1Bits+1)/8 + omega + k
	return p
}

// polySize12 is the byte size of a 12-bit-packed ring element.
const polySize12 = ring.N * 12 / 8

// KEMLevel returns the parameter set for a named Kyber security level.
func KEMLevel(level int) (*KEM, error) {
	p, ok := kemTable[level]
	if !ok {
		return nil, ErrInvalidParameter
	}
	return &p, nil
}

// SignatureLevel returns the parameter set for a named Dilithium security
// level.
func SignatureLevel(level int) (*Signature, error) {
	p, ok := sigTable[level]
	if !ok {
		return nil, ErrInvalidParameter
	}
	return &p, nil
}

// KEMLevels lists the supported KEM levels in ascending order.
func KEMLevels() []int { return []int{512, 768, 1024} }

// SignatureLevels lists the supported signature levels in ascending order.
func SignatureLevels() []int { return []int{2, 3, 5} }
