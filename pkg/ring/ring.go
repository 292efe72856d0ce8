// Package ring provides arithmetic in Z_q[x]/<x^256+1> for the moduli used
// by the lattice schemes in this module.
//
// A Ring carries the modulus, the precomputed NTT twiddle tables and the
// transform depth. Two depths are supported: a complete negacyclic NTT
// (eight butterfly layers, used when q has a 512th root of unity) and an
// incomplete seven-layer NTT whose transform domain consists of 128 degree-one
// residues (used for q = 3329, which only has a 256th root of unity).
package ring

import "errors"

const (
	// N is the polynomial degree (the ring is Z_q[x]/<x^256+1>).
	N = 256

	// NBits is log2(N).
	NBits = 8
)

// Standard moduli and their primitive roots.
const (
	// QKyber is the Kyber modulus 2^8*13 + 1.
	QKyber = 3329
	// ZetaKyber is a primitive 256th root of unity mod QKyber.
	ZetaKyber = 17

	// QDilithium is the Dilithium modulus 2^23 - 2^13 + 1.
	QDilithium = 8380417
	// ZetaDilithium is a primitive 512th root of unity mod QDilithium.
	ZetaDilithium = 1753
)

var errBadRing = errors.New("ring: zeta is not a primitive root of the required order")

// Ring holds the modulus and the tables for one choice of Z_q[x]/<x^256+1>.
// A Ring is immutable after construction and safe for concurrent use.
type Ring struct {
	// Q is the prime modulus. All coefficients are kept in [0, Q).
	Q uint32

	// Zeta is the primitive 2*tableLen-th root of unity the tables derive from.
	Zeta uint32

	layers int // butterfly layers: 8 complete, 7 incomplete

	zetas  []uint32 // zetas[k] = Zeta^brv(k), len 1<<layers
	gammas []uint32 // basemul roots, incomplete transform only
	scale  uint32   // (2^layers)^-1 mod Q, cancels the inverse-transform growth
}

// NewRing constructs a ring for the given modulus. zeta must be a primitive
// root of unity of order 2^(layers+1) with zeta^(2^layers) = -1 mod q.
func NewRing(q, zeta uint32, layers int) (*Ring, error) {
	if layers != NBits && layers != NBits-1 {
		return nil, errors.New("ring: unsupported transform depth")
	}
	r := &Ring{Q: q, Zeta: zeta, layers: layers}

	tableLen := uint32(1) << layers
	if r.Exp(zeta, 2*tableLen) != 1 || r.Exp(zeta, tableLen) != q-1 {
		return nil, errBadRing
	}

	r.zetas = make([]uint32, tableLen)
	for k := uint32(0); k < tableLen; k++ {
		r.zetas[k] = r.Exp(zeta, brv(k, layers))
	}
	if layers < NBits {
		// Roots of the degree-one residue moduli x^2 - gamma_i.
		r.gammas = make([]uint32, tableLen)
		for i := uint32(0); i < tableLen; i++ {
			r.gammas[i] = r.Exp(zeta, 2*brv(i, layers)+1)
		}
	}
	r.scale = r.Exp(tableLen, q-2)
	return r, nil
}

// NewKyberRing returns the ring for q = 3329 with the incomplete transform.
func NewKyberRing() *Ring {
	r, err := NewRing(QKyber, ZetaKyber, NBits-1)
	if err != nil {
		panic(err)
	}
	return r
}

// NewDilithiumRing returns the ring for q = 8380417 with the complete transform.
func NewDilithiumRing() *Ring {
	r, err := NewRing(QDilithium, ZetaDilithium, NBits)
	if err != nil {
		panic(err)
	}
	return r
}

// Mod returns x mod Q, handling negative values correctly.
func (r *Ring) Mod(x int64) uint32 {
	x = x % int64(r.Q)
	if x < 0 {
		x += int64(r.Q)
	}
	return uint32(x)
}

// Add returns (a + b) mod Q.
func (r *Ring) Add(a, b uint32) uint32 {
	sum := a + b
	if sum >= r.Q {
		sum -= r.Q
	}
	return sum
}

// Sub returns (a - b) mod Q.
func (r *Ring) Sub(a, b uint32) uint32 {
	if a >= b {
		return a - b
	}
	return r.Q - b + a
}

// Mul returns (a * b) mod Q.
func (r *Ring) Mul(a, b uint32) uint32 {
	return uint32((uint64(a) * uint64(b)) % uint64(r.Q))
}

// Neg returns (-a) mod Q = Q - a for a != 0.
func (r *Ring) Neg(a uint32) uint32 {
	if a == 0 {
		return 0
	}
	return r.Q - a
}

// Exp returns a^e mod Q using binary exponentiation.
func (r *Ring) Exp(a, e uint32) uint32 {
	result := uint64(1)
	base := uint64(a % r.Q)
	q := uint64(r.Q)
	for e > 0 {
		if e&1 == 1 {
			result = (result * base) % q
		}
		base = (base * base) % q
		e >>= 1
	}
	return uint32(result)
}

// brv reverses the low `bits` bits of x.
func brv(x uint32, bits int) uint32 {
	var out uint32
	for i := 0; i < bits; i++ {
		out = out<<1 | (x>>i)&1
	}
	return out
}
