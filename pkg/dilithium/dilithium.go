// Package dilithium implements a module-lattice signature scheme in the
// Dilithium construction: Fiat-Shamir with aborts over a commit-challenge-
// response identification protocol. Signing is deterministic; the same key
// and message always produce the same signature.
package dilithium

import (
	"errors"
	"io"
	"strconv"

	"pqlattice/pkg/backend"
	"pqlattice/pkg/params"
	"pqlattice/pkg/proofexport"
	"pqlattice/pkg/ring"
	"pqlattice/pkg/sampling"
	"pqlattice/pkg/xof"
)

var (
	// ErrSeedSize reports a seed of the wrong length.
	ErrSeedSize = errors.New("dilithium: wrong seed size")

	// ErrPublicKeySize reports an encoded public key of the wrong length.
	ErrPublicKeySize = errors.New("dilithium: wrong size for public key")

	// ErrPrivateKeySize reports an encoded private key of the wrong length.
	ErrPrivateKeySize = errors.New("dilithium: wrong size for private key")

	// ErrSignatureSize reports a signature of the wrong length.
	ErrSignatureSize = errors.New("dilithium: wrong size for signature")

	// ErrKeyEncoding reports an encoded key with out-of-range coefficients.
	ErrKeyEncoding = errors.New("dilithium: invalid key encoding")

	// ErrSignatureEncoding reports a signature whose response vector or hint
	// is not canonically encoded.
	ErrSignatureEncoding = errors.New("dilithium: invalid signature encoding")

	// ErrSigningExhausted reports that rejection sampling failed to produce
	// a signature within the attempt bound. The probability of this for an
	// honestly generated key is negligible.
	ErrSigningExhausted = errors.New("dilithium: rejection sampling exhausted")
)

// maxAttempts bounds the rejection loop. The expected number of rounds is
// between 4 and 7 depending on the level.
const maxAttempts = 512

// trSize is the byte length of the public key digest bound into every
// signed message.
const trSize = 64

// Scheme binds a parameter set to an execution backend. It is immutable and
// safe for concurrent use.
type Scheme struct {
	p    *params.Signature
	rg   *ring.Ring
	disp *backend.Dispatcher

	exporter proofexport.Exporter
	handle   proofexport.Handle
	claimed  bool
}

// Option configures optional scheme collaborators.
type Option func(*Scheme)

// WithExporter attaches a proof-export collaborator. The scheme emits its
// correctness claim at construction and never blocks on the handle.
func WithExporter(e proofexport.Exporter) Option {
	return func(s *Scheme) { s.exporter = e }
}

// New constructs the signature scheme for a named security level (2, 3 or 5)
// over the given dispatcher.
func New(level int, disp *backend.Dispatcher, opts ...Option) (*Scheme, error) {
	p, err := params.SignatureLevel(level)
	if err != nil {
		return nil, err
	}
	s := &Scheme{p: p, rg: ring.NewDilithiumRing(), disp: disp}
	for _, opt := range opts {
		opt(s)
	}
	if s.exporter != nil {
		h, err := s.exporter.Export(proofexport.Claim{
			Scheme:    s.Name(),
			Property:  "sig-soundness",
			Statement: "verify accepts exactly the signatures produced by sign",
		})
		if err == nil {
			s.handle, s.claimed = h, true
		}
	}
	return s, nil
}

// Name returns the scheme identifier, e.g. "dilithium-3".
func (s *Scheme) Name() string { return "dilithium-" + strconv.Itoa(s.p.Level) }

// Params returns the scheme's parameter set.
func (s *Scheme) Params() *params.Signature { return s.p }

// ProofHandle returns the certificate handle received for the scheme's
// correctness claim, if an exporter was configured and accepted it.
func (s *Scheme) ProofHandle() (proofexport.Handle, bool) { return s.handle, s.claimed }

// PublicKey is a Dilithium verification key: the matrix seed rho and the
// rounded vector t1.
type PublicKey struct {
	s   *Scheme
	rho [params.SeedSize]byte
	t1  []ring.Poly

	packed []byte       // canonical encoding
	tr     [trSize]byte // H(packed), bound into every message digest
}

// PrivateKey is a Dilithium signing key. It owns a reference to its public
// key.
type PrivateKey struct {
	s   *Scheme
	rho [params.SeedSize]byte
	key [params.SeedSize]byte
	s1  []ring.Poly
	s2  []ring.Poly
	t0  []ring.Poly
	pk  *PublicKey
}

// expandMatrix derives the public matrix from rho through the dispatcher's
// sampling capability. Cell (i, j) is separated by the byte pair (j, i).
func (s *Scheme) expandMatrix(rho []byte) [][]ring.Poly {
	a := make([][]ring.Poly, s.p.K)
	for i := 0; i < s.p.K; i++ {
		a[i] = make([]ring.Poly, s.p.L)
		for j := 0; j < s.p.L; j++ {
			a[i][j] = s.disp.SampleUniform(s.rg, rho, byte(j), byte(i))
		}
	}
	return a
}

// GenerateKey creates a fresh key pair using entropy from rng.
// A nil rng uses the system entropy source.
func (s *Scheme) GenerateKey(rng io.Reader) (*PublicKey, *PrivateKey, error) {
	if rng == nil {
		rng = sampling.NewSystemPRNG()
	}
	seed := make([]byte, params.SeedSize)
	if _, err := io.ReadFull(rng, seed); err != nil {
		return nil, nil, err
	}
	return s.NewKeyFromSeed(seed)
}

// NewKeyFromSeed derives a key pair deterministically from a 32-byte seed.
// The expansion binds the module dimensions, so the same seed yields
// unrelated keys at different levels.
func (s *Scheme) NewKeyFromSeed(seed []byte) (*PublicKey, *PrivateKey, error) {
	if len(seed) != params.SeedSize {
		return nil, nil, ErrSeedSize
	}
	buf := xof.H(128, seed, []byte{byte(s.p.K), byte(s.p.L)})

	sk := &PrivateKey{s: s}
	copy(sk.rho[:], buf[:32])
	rhoPrime := buf[32:96]
	copy(sk.key[:], buf[96:])

	sk.s1 = make([]ring.Poly, s.p.L)
	for i := range sk.s1 {
		sk.s1[i] = sampling.BoundedEta(s.rg, rhoPrime, s.p.Eta, uint16(i))
	}
	sk.s2 = make([]ring.Poly, s.p.K)
	for i := range sk.s2 {
		sk.s2[i] = sampling.BoundedEta(s.rg, rhoPrime, s.p.Eta, uint16(s.p.L+i))
	}

	a := s.expandMatrix(sk.rho[:])
	s1h := s.vecNTT(sk.s1)
	t := make([]ring.Poly, s.p.K)
	s.disp.LatticeMul(s.rg, a, s1h, t)

	pk := &PublicKey{s: s}
	copy(pk.rho[:], sk.rho[:])
	pk.t1 = make([]ring.Poly, s.p.K)
	sk.t0 = make([]ring.Poly, s.p.K)
	for i := range t {
		s.disp.InvNTT(s.rg, &t[i])
		s.rg.PolyAdd(&t[i], &sk.s2[i], &t[i])
		pk.t1[i].Domain = ring.DomainNormal
		sk.t0[i].Domain = ring.DomainNormal
		for j, c := range t[i].Coeffs {
			r1, r0 := s.rg.Power2Round(c, s.p.D)
			pk.t1[i].Coeffs[j] = r1
			sk.t0[i].Coeffs[j] = r0
		}
	}
	pk.pack()
	sk.pk = pk
	return pk, sk, nil
}

func (pk *PublicKey) pack() {
	s := pk.s
	pk.packed = make([]byte, s.p.PublicKeySize)
	copy(pk.packed, pk.rho[:])
	packT1(pk.packed[params.SeedSize:], pk.t1)
	copy(pk.tr[:], xof.H(trSize, pk.packed))
}

// Bytes returns the canonical public key encoding.
func (pk *PublicKey) Bytes() []byte {
	out := make([]byte, len(pk.packed))
	copy(out, pk.packed)
	return out
}

// Public returns the public key owned by sk.
func (sk *PrivateKey) Public() *PublicKey { return sk.pk }

// Bytes returns the canonical private key encoding.
func (sk *PrivateKey) Bytes() []byte {
	s := sk.s
	out := make([]byte, s.p.SecretKeySize)
	copy(out, sk.rho[:])
	copy(out[32:], sk.key[:])
	copy(out[64:], sk.pk.tr[:])
	off := 64 + trSize
	packEta(s.rg, out[off:], sk.s1, s.p.Eta, s.p.EtaBits)
	off += s.p.L * packedPolySize(s.p.EtaBits)
	packEta(s.rg, out[off:], sk.s2, s.p.Eta, s.p.EtaBits)
	off += s.p.K * packedPolySize(s.p.EtaBits)
	packT0(s.rg, out[off:], sk.t0)
	return out
}

// ParsePublicKey decodes a canonical public key encoding.
func (s *Scheme) ParsePublicKey(b []byte) (*PublicKey, error) {
	if len(b) != s.p.PublicKeySize {
		return nil, ErrPublicKeySize
	}
	pk := &PublicKey{s: s}
	copy(pk.rho[:], b[:params.SeedSize])
	pk.t1 = unpackT1(b[params.SeedSize:], s.p.K)
	pk.pack()
	return pk, nil
}

// ParsePrivateKey decodes a canonical private key encoding and rebuilds the
// public key from it.
func (s *Scheme) ParsePrivateKey(b []byte) (*PrivateKey, error) {
	if len(b) != s.p.SecretKeySize {
		return nil, ErrPrivateKeySize
	}
	sk := &PrivateKey{s: s}
	copy(sk.rho[:], b[:32])
	copy(sk.key[:], b[32:64])
	var tr [trSize]byte
	copy(tr[:], b[64:64+trSize])
	off := 64 + trSize

	var err error
	sk.s1, err = unpackEta(s.rg, b[off:], s.p.L, s.p.Eta, s.p.EtaBits)
	if err != nil {
		return nil, err
	}
	off += s.p.L * packedPolySize(s.p.EtaBits)
	sk.s2, err = unpackEta(s.rg, b[off:], s.p.K, s.p.Eta, s.p.EtaBits)
	if err != nil {
		return nil, err
	}
	off += s.p.K * packedPolySize(s.p.EtaBits)
	sk.t0 = unpackT0(s.rg, b[off:], s.p.K)

	// t1 is not stored; recompute t = A*s1 + s2 and round.
	a := s.expandMatrix(sk.rho[:])
	s1h := s.vecNTT(sk.s1)
	t := make([]ring.Poly, s.p.K)
	s.disp.LatticeMul(s.rg, a, s1h, t)

	pk := &PublicKey{s: s}
	copy(pk.rho[:], sk.rho[:])
	pk.t1 = make([]ring.Poly, s.p.K)
	for i := range t {
		s.disp.InvNTT(s.rg, &t[i])
		s.rg.PolyAdd(&t[i], &sk.s2[i], &t[i])
		pk.t1[i].Domain = ring.DomainNormal
		for j, c := range t[i].Coeffs {
			r1, _ := s.rg.Power2Round(c, s.p.D)
			pk.t1[i].Coeffs[j] = r1
		}
	}
	pk.pack()
	if pk.tr != tr {
		return nil, ErrKeyEncoding
	}
	sk.pk = pk
	return sk, nil
}

func (s *Scheme) vecNTT(v []ring.Poly) []ring.Poly {
	out := make([]ring.Poly, len(v))
	copy(out, v)
	for i := range out {
		s.disp.NTT(s.rg, &out[i])
	}
	return out
}

// mulByChallenge multiplies every element of the transform-domain vector v
// by the transform-domain challenge and returns the normal-domain products.
func (s *Scheme) mulByChallenge(ch *ring.Poly, v []ring.Poly) []ring.Poly {
	out := make([]ring.Poly, len(v))
	for i := range v {
		s.disp.PolyMul(s.rg, ch, &v[i], &out[i])
		s.disp.InvNTT(s.rg, &out[i])
	}
	return out
}

// Sign produces a deterministic signature over msg.
func (sk *PrivateKey) Sign(msg []byte) ([]byte, error) {
	s := sk.s
	p := s.p

	mu := xof.H(64, sk.pk.tr[:], msg)
	rhoPP := xof.H(64, sk.key[:], mu)

	a := s.expandMatrix(sk.rho[:])
	s1h := s.vecNTT(sk.s1)
	s2h := s.vecNTT(sk.s2)
	t0h := s.vecNTT(sk.t0)

	zWidth := p.Gamma1Bits + 1
	w1Packed := make([]byte, p.K*packedPolySize(p.W1Bits))

	for kappa := 0; kappa < maxAttempts*p.L; kappa += p.L {
		// Commitment: w = A*y, decomposed into high and low bits.
		y := make([]ring.Poly, p.L)
		for i := range y {
			y[i] = sampling.UniformGamma(s.rg, rhoPP, uint16(kappa+i), p.Gamma1Bits)
		}
		yh := s.vecNTT(y)
		w := make([]ring.Poly, p.K)
		s.disp.LatticeMul(s.rg, a, yh, w)
		w1 := make([]ring.Poly, p.K)
		for i := range w {
			s.disp.InvNTT(s.rg, &w[i])
			w1[i].Domain = ring.DomainNormal
			for j, c := range w[i].Coeffs {
				w1[i].Coeffs[j] = s.rg.HighBits(c, p.Gamma2)
			}
		}

		// Challenge from the commitment.
		packW1(w1Packed, w1, p.W1Bits)
		cTilde := xof.H(p.Lambda/4, mu, w1Packed)
		ch := sampling.InBall(s.rg, cTilde, p.Tau)
		s.disp.NTT(s.rg, &ch)

		// Response z = y + c*s1, rejected when it would leak the secret.
		cs1 := s.mulByChallenge(&ch, s1h)
		z := make([]ring.Poly, p.L)
		for i := range z {
			s.rg.PolyAdd(&y[i], &cs1[i], &z[i])
		}
		if s.rg.VecNorm(z) >= p.Gamma1-p.Beta {
			continue
		}

		// Low bits of w - c*s2 must stay clear of the decomposition edge.
		cs2 := s.mulByChallenge(&ch, s2h)
		r := make([]ring.Poly, p.K)
		for i := range r {
			s.rg.PolySub(&w[i], &cs2[i], &r[i])
		}
		if s.lowBitsNorm(r) >= p.Gamma2-p.Beta {
			continue
		}

		// The hint must be small enough to carry t0's contribution.
		ct0 := s.mulByChallenge(&ch, t0h)
		if s.rg.VecNorm(ct0) >= p.Gamma2 {
			continue
		}
		h := make([]ring.Poly, p.K)
		weight := 0
		for i := range h {
			h[i].Domain = ring.DomainNormal
			for j := range h[i].Coeffs {
				v := s.rg.Add(r[i].Coeffs[j], ct0[i].Coeffs[j])
				bit := s.rg.MakeHint(s.rg.Neg(ct0[i].Coeffs[j]), v, p.Gamma2)
				h[i].Coeffs[j] = bit
				weight += int(bit)
			}
		}
		if weight > p.Omega {
			continue
		}

		sig := make([]byte, p.SignatureSize)
		copy(sig, cTilde)
		packZ(s.rg, sig[p.Lambda/4:], z, p.Gamma1, zWidth)
		packHint(sig[p.Lambda/4+p.L*packedPolySize(zWidth):], h, p.Omega)
		return sig, nil
	}
	return nil, ErrSigningExhausted
}

// lowBitsNorm returns the largest centered low-bits magnitude across v.
func (s *Scheme) lowBitsNorm(v []ring.Poly) uint32 {
	var n uint32
	for i := range v {
		for _, c := range v[i].Coeffs {
			_, r0 := s.rg.Decompose(c, s.p.Gamma2)
			abs := r0
			if abs < 0 {
				abs = -abs
			}
			if uint32(abs) > n {
				n = uint32(abs)
			}
		}
	}
	return n
}

// Verify reports whether sig is a valid signature over msg under pk.
func (pk *PublicKey) Verify(msg, sig []byte) bool {
	s := pk.s
	p := s.p
	if len(sig) != p.SignatureSize {
		return false
	}

	zWidth := p.Gamma1Bits + 1
	cTilde := sig[:p.Lambda/4]
	z := unpackZ(s.rg, sig[p.Lambda/4:], p.L, p.Gamma1, zWidth)
	h, err := unpackHint(sig[p.Lambda/4+p.L*packedPolySize(zWidth):], p.K, p.Omega)
	if err != nil {
		return false
	}
	if s.rg.VecNorm(z) >= p.Gamma1-p.Beta {
		return false
	}

	mu := xof.H(64, pk.tr[:], msg)
	ch := sampling.InBall(s.rg, cTilde, p.Tau)
	s.disp.NTT(s.rg, &ch)

	// Reconstruct the commitment: w' = A*z - c * t1 * 2^d, then apply the
	// hint to recover the signer's high bits.
	a := s.expandMatrix(pk.rho[:])
	zh := s.vecNTT(z)
	az := make([]ring.Poly, p.K)
	s.disp.LatticeMul(s.rg, a, zh, az)

	t1Shifted := make([]ring.Poly, p.K)
	for i := range t1Shifted {
		t1Shifted[i].Domain = ring.DomainNormal
		for j, c := range pk.t1[i].Coeffs {
			t1Shifted[i].Coeffs[j] = s.rg.Mul(c, 1<<p.D)
		}
	}
	ct1 := s.mulByChallenge(&ch, s.vecNTT(t1Shifted))

	w1 := make([]ring.Poly, p.K)
	w1Packed := make([]byte, p.K*packedPolySize(p.W1Bits))
	for i := range az {
		s.disp.InvNTT(s.rg, &az[i])
		var wa ring.Poly
		s.rg.PolySub(&az[i], &ct1[i], &wa)
		w1[i].Domain = ring.DomainNormal
		for j, c := range wa.Coeffs {
			w1[i].Coeffs[j] = s.rg.UseHint(h[i].Coeffs[j], c, p.Gamma2)
		}
	}
	packW1(w1Packed, w1, p.W1Bits)

	cTilde2 := xof.H(p.Lambda/4, mu, w1Packed)
	if len(cTilde) != len(cTilde2) {
		return false
	}
	for i := range cTilde {
		if cTilde[i] != cTilde2[i] {
			return false
		}
	}
	return true
}
