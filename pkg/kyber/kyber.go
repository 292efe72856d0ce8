// Package kyber implements an IND-CCA2 key-encapsulation mechanism in the
// Kyber construction: an IND-CPA lattice encryption core wrapped in a
// Fujisaki-Okamoto transform with implicit rejection. Decapsulating a
// tampered ciphertext yields a pseudorandom key derived from the secret key
// and the ciphertext, never an error, so callers cannot build a failure
// oracle from the output shape.
package kyber

import (
	"crypto/subtle"
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
	ErrSeedSize = errors.New("kyber: wrong seed size")

	// ErrPublicKeySize reports an encoded public key of the wrong length.
	ErrPublicKeySize = errors.New("kyber: wrong size for public key")

	// ErrPrivateKeySize reports an encoded secret key of the wrong length.
	ErrPrivateKeySize = errors.New("kyber: wrong size for secret key")

	// ErrCiphertextSize reports a ciphertext whose length is inconsistent
	// with the parameter set.
	ErrCiphertextSize = errors.New("kyber: wrong size for ciphertext")

	// ErrKeyEncoding reports an encoded key with out-of-range coefficients.
	ErrKeyEncoding = errors.New("kyber: invalid key encoding")
)

// KeySeedSize is the seed length for deterministic key derivation
// (the key-generation seed plus the implicit-rejection secret).
const KeySeedSize = 2 * params.SeedSize

// Scheme binds a parameter set to an execution backend. It is immutable and
// safe for concurrent use.
type Scheme struct {
	p    *params.KEM
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

// New constructs the KEM for a named security level (512, 768 or 1024) over
// the given dispatcher.
func New(level int, disp *backend.Dispatcher, opts ...Option) (*Scheme, error) {
	p, err := params.KEMLevel(level)
	if err != nil {
		return nil, err
	}
	s := &Scheme{p: p, rg: ring.NewKyberRing(), disp: disp}
	for _, opt := range opts {
		opt(s)
	}
	if s.exporter != nil {
		h, err := s.exporter.Export(proofexport.Claim{
			Scheme:    s.Name(),
			Property:  "kem-round-trip",
			Statement: "decapsulate inverts encapsulate for all valid key pairs",
		})
		if err == nil {
			s.handle, s.claimed = h, true
		}
	}
	return s, nil
}

// Name returns the scheme identifier, e.g. "kyber-768".
func (s *Scheme) Name() string { return "kyber-" + strconv.Itoa(s.p.Level) }

// Params returns the scheme's parameter set.
func (s *Scheme) Params() *params.KEM { return s.p }

// ProofHandle returns the certificate handle received for the scheme's
// correctness claim, if an exporter was configured and accepted it.
func (s *Scheme) ProofHandle() (proofexport.Handle, bool) { return s.handle, s.claimed }

// PublicKey is a Kyber encapsulation key: the vector t in the transform
// domain and the matrix seed rho.
type PublicKey struct {
	s   *Scheme
	t   []ring.Poly
	rho [params.SeedSize]byte

	packed []byte   // canonical encoding
	h      [32]byte // H(packed), bound into every shared secret
}

// SecretKey is a Kyber decapsulation key. It owns a reference to its public
// key and the implicit-rejection secret z.
type SecretKey struct {
	s  *Scheme
	sv []ring.Poly // secret vector in the transform domain
	pk *PublicKey
	z  [params.SeedSize]byte
}

// GenerateKeyPair creates a fresh key pair using entropy from rng.
// A nil rng uses the system entropy source.
func (s *Scheme) GenerateKeyPair(rng io.Reader) (*PublicKey, *SecretKey, error) {
	if rng == nil {
		rng = sampling.NewSystemPRNG()
	}
	seed := make([]byte, KeySeedSize)
	if _, err := io.ReadFull(rng, seed); err != nil {
		return nil, nil, err
	}
	return s.NewKeyFromSeed(seed)
}

// NewKeyFromSeed derives a key pair deterministically from a seed of
// KeySeedSize bytes: the first half feeds key generation, the second half
// becomes the implicit-rejection secret.
func (s *Scheme) NewKeyFromSeed(seed []byte) (*PublicKey, *SecretKey, error) {
	if len(seed) != KeySeedSize {
		return nil, nil, ErrSeedSize
	}
	t, sv, rho := s.pkeKeyFromSeed(seed[:params.SeedSize])

	pk := &PublicKey{s: s, t: t, rho: rho}
	pk.pack()

	sk := &SecretKey{s: s, sv: sv, pk: pk}
	copy(sk.z[:], seed[params.SeedSize:])
	return pk, sk, nil
}

func (pk *PublicKey) pack() {
	s := pk.s
	pk.packed = make([]byte, s.p.PublicKeySize)
	packVec12(pk.packed, pk.t)
	copy(pk.packed[s.p.K*packedPolySize(12):], pk.rho[:])
	pk.h = xof.Sum256(pk.packed)
}

// Bytes returns the canonical public key encoding.
func (pk *PublicKey) Bytes() []byte {
	out := make([]byte, len(pk.packed))
	copy(out, pk.packed)
	return out
}

// Public returns the public key owned by sk.
func (sk *SecretKey) Public() *PublicKey { return sk.pk }

// Bytes returns the canonical secret key encoding.
func (sk *SecretKey) Bytes() []byte {
	s := sk.s
	out := make([]byte, s.p.SecretKeySize)
	packVec12(out, sk.sv)
	off := s.p.K * packedPolySize(12)
	copy(out[off:], sk.pk.packed)
	off += s.p.PublicKeySize
	copy(out[off:], sk.pk.h[:])
	copy(out[off+32:], sk.z[:])
	return out
}

// ParsePublicKey decodes a canonical public key encoding.
func (s *Scheme) ParsePublicKey(b []byte) (*PublicKey, error) {
	if len(b) != s.p.PublicKeySize {
		return nil, ErrPublicKeySize
	}
	t, err := unpackVec12(s.rg, b, s.p.K)
	if err != nil {
		return nil, err
	}
	pk := &PublicKey{s: s, t: t}
	copy(pk.rho[:], b[s.p.K*packedPolySize(12):])
	pk.pack()
	return pk, nil
}

// ParseSecretKey decodes a canonical secret key encoding.
func (s *Scheme) ParseSecretKey(b []byte) (*SecretKey, error) {
	if len(b) != s.p.SecretKeySize {
		return nil, ErrPrivateKeySize
	}
	sv, err := unpackVec12(s.rg, b, s.p.K)
	if err != nil {
		return nil, err
	}
	off := s.p.K * packedPolySize(12)
	pk, err := s.ParsePublicKey(b[off : off+s.p.PublicKeySize])
	if err != nil {
		return nil, err
	}
	off += s.p.PublicKeySize
	sk := &SecretKey{s: s, sv: sv, pk: pk}
	copy(sk.z[:], b[off+32:])
	return sk, nil
}

// Encapsulate derives a fresh shared secret for pk and encapsulates it into
// a ciphertext, drawing entropy from rng (nil for the system source).
func (pk *PublicKey) Encapsulate(rng io.Reader) (ct, ss []byte, err error) {
	if rng == nil {
		rng = sampling.NewSystemPRNG()
	}
	seed := make([]byte, params.SeedSize)
	if _, err := io.ReadFull(rng, seed); err != nil {
		return nil, nil, err
	}
	return pk.EncapsulateDeterministically(seed)
}

// EncapsulateDeterministically encapsulates using randomness derived from
// seed. The message is hashed out of the seed rather than used raw, so a
// partially biased seed cannot surface directly in the ciphertext.
func (pk *PublicKey) EncapsulateDeterministically(seed []byte) (ct, ss []byte, err error) {
	if len(seed) != params.SeedSize {
		return nil, nil, ErrSeedSize
	}
	m := xof.Sum256(seed)

	// (K', r) = G(m || H(pk)); c = Enc(pk, m, r); K = KDF(K' || H(c)).
	kr := xof.Sum512(m[:], pk.h[:])
	ct = pk.encrypt(m[:], kr[32:])
	hc := xof.Sum256(ct)
	copy(kr[32:], hc[:])
	return ct, xof.H(pk.s.p.SharedKeySize, kr[:]), nil
}

// Decapsulate recovers the shared secret encapsulated in ct. A ciphertext
// that fails re-encryption yields a pseudorandom secret derived from z and
// the ciphertext; the comparison and both outcomes take constant time.
func (sk *SecretKey) Decapsulate(ct []byte) ([]byte, error) {
	s := sk.s
	if len(ct) != s.p.CiphertextSize {
		return nil, ErrCiphertextSize
	}

	m2 := sk.decrypt(ct)
	kr2 := xof.Sum512(m2[:], sk.pk.h[:])
	ct2 := sk.pk.encrypt(m2[:], kr2[32:])

	hc := xof.Sum256(ct)
	copy(kr2[32:], hc[:])

	// Replace K' with z when re-encryption disagrees, without branching.
	subtle.ConstantTimeCopy(
		1-subtle.ConstantTimeCompare(ct, ct2),
		kr2[:32],
		sk.z[:],
	)
	return xof.H(s.p.SharedKeySize, kr2[:]), nil
}
