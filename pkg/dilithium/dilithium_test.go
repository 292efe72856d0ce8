package dilithium_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"pqlattice/pkg/backend"
	"pqlattice/pkg/dilithium"
	"pqlattice/pkg/params"
	"pqlattice/pkg/proofexport"
)

func newScheme(t *testing.T, level int) *dilithium.Scheme {
	t.Helper()
	s, err := dilithium.New(level, backend.Default())
	require.NoError(t, err)
	return s
}

func testSeed(label string) []byte {
	seed := make([]byte, params.SeedSize)
	copy(seed, label)
	return seed
}

func TestSignVerify(t *testing.T) {
	msg := []byte("test message")
	for _, level := range params.SignatureLevels() {
		s := newScheme(t, level)
		t.Run(s.Name(), func(t *testing.T) {
			pk, sk, err := s.GenerateKey(nil)
			require.NoError(t, err)

			sig, err := sk.Sign(msg)
			require.NoError(t, err)
			require.Len(t, sig, s.Params().SignatureSize)

			require.True(t, pk.Verify(msg, sig))
			require.False(t, pk.Verify([]byte("altered message"), sig))
		})
	}
}

func TestDeterministicSigning(t *testing.T) {
	s := newScheme(t, 3)
	_, sk1, err := s.NewKeyFromSeed(testSeed("det"))
	require.NoError(t, err)
	_, sk2, err := s.NewKeyFromSeed(testSeed("det"))
	require.NoError(t, err)

	msg := []byte("repeatable input")
	sig1, err := sk1.Sign(msg)
	require.NoError(t, err)
	sig2, err := sk2.Sign(msg)
	require.NoError(t, err)
	require.Equal(t, sig1, sig2)

	sig3, err := sk1.Sign([]byte("different input"))
	require.NoError(t, err)
	require.NotEqual(t, sig1, sig3)

	_, _, err = s.NewKeyFromSeed(testSeed("det")[:16])
	require.ErrorIs(t, err, dilithium.ErrSeedSize)
}

func TestKeySizes(t *testing.T) {
	for _, level := range params.SignatureLevels() {
		s := newScheme(t, level)
		pk, sk, err := s.NewKeyFromSeed(testSeed("sizes"))
		require.NoError(t, err)
		require.Len(t, pk.Bytes(), s.Params().PublicKeySize, s.Name())
		require.Len(t, sk.Bytes(), s.Params().SecretKeySize, s.Name())
	}
}

func TestSeedBindsLevel(t *testing.T) {
	// The same seed yields unrelated keys at different levels.
	pk2, _, err := newScheme(t, 2).NewKeyFromSeed(testSeed("bind"))
	require.NoError(t, err)
	pk3, _, err := newScheme(t, 3).NewKeyFromSeed(testSeed("bind"))
	require.NoError(t, err)
	require.NotEqual(t, pk2.Bytes()[:32], pk3.Bytes()[:32])
}

func TestTamperedSignature(t *testing.T) {
	s := newScheme(t, 3)
	pk, sk, err := s.NewKeyFromSeed(testSeed("tamper"))
	require.NoError(t, err)

	msg := []byte("signed exactly once")
	sig, err := sk.Sign(msg)
	require.NoError(t, err)
	require.True(t, pk.Verify(msg, sig))

	p := s.Params()
	flip := func(pos int) []byte {
		bad := make([]byte, len(sig))
		copy(bad, sig)
		bad[pos] ^= 1
		return bad
	}

	// Challenge digest, response vector, hint region.
	require.False(t, pk.Verify(msg, flip(0)))
	require.False(t, pk.Verify(msg, flip(p.Lambda/4+10)))
	require.False(t, pk.Verify(msg, flip(len(sig)-1)))

	require.False(t, pk.Verify(msg, sig[:len(sig)-1]))
	require.False(t, pk.Verify(msg, nil))
}

func TestHintEncodingRejected(t *testing.T) {
	s := newScheme(t, 2)
	pk, sk, err := s.NewKeyFromSeed(testSeed("hint"))
	require.NoError(t, err)

	msg := []byte("hint message")
	sig, err := sk.Sign(msg)
	require.NoError(t, err)

	p := s.Params()
	hintOff := len(sig) - p.Omega - p.K

	// A per-polynomial count above omega is never canonical.
	bad := make([]byte, len(sig))
	copy(bad, sig)
	bad[len(bad)-1] = byte(p.Omega + 1)
	require.False(t, pk.Verify(msg, bad))

	// Unused position bytes must be zero.
	copy(bad, sig)
	bad[hintOff+p.Omega-1] = 0xFF
	if sig[hintOff+p.Omega-1] == 0xFF {
		t.Skip("hint region is full")
	}
	require.False(t, pk.Verify(msg, bad))
}

func TestHintWeightBound(t *testing.T) {
	s := newScheme(t, 5)
	_, sk, err := s.NewKeyFromSeed(testSeed("weight"))
	require.NoError(t, err)

	p := s.Params()
	for i := 0; i < 16; i++ {
		sig, err := sk.Sign([]byte{byte(i)})
		require.NoError(t, err)
		// The last count byte is the total hint weight.
		require.LessOrEqual(t, int(sig[len(sig)-1]), p.Omega)
	}
}

func TestKeyParseRoundTrip(t *testing.T) {
	for _, level := range params.SignatureLevels() {
		s := newScheme(t, level)
		pk, sk, err := s.NewKeyFromSeed(testSeed("parse"))
		require.NoError(t, err)

		pk2, err := s.ParsePublicKey(pk.Bytes())
		require.NoError(t, err)
		require.Equal(t, pk.Bytes(), pk2.Bytes())

		sk2, err := s.ParsePrivateKey(sk.Bytes())
		require.NoError(t, err)
		require.Equal(t, sk.Bytes(), sk2.Bytes())

		// A signature from the parsed key verifies under the original
		// public key, and vice versa.
		msg := []byte("cross check")
		sig, err := sk2.Sign(msg)
		require.NoError(t, err)
		require.True(t, pk.Verify(msg, sig))

		sig2, err := sk.Sign(msg)
		require.NoError(t, err)
		require.True(t, pk2.Verify(msg, sig2))
		require.Equal(t, sig, sig2)
	}
}

func TestParseErrors(t *testing.T) {
	s := newScheme(t, 2)
	pk, sk, err := s.NewKeyFromSeed(testSeed("parse-err"))
	require.NoError(t, err)

	_, err = s.ParsePublicKey(pk.Bytes()[:64])
	require.ErrorIs(t, err, dilithium.ErrPublicKeySize)
	_, err = s.ParsePrivateKey(sk.Bytes()[:64])
	require.ErrorIs(t, err, dilithium.ErrPrivateKeySize)

	// Level 2 packs secrets at 3 bits; the value 7 encodes nothing.
	bad := sk.Bytes()
	bad[128] = 0xFF
	_, err = s.ParsePrivateKey(bad)
	require.ErrorIs(t, err, dilithium.ErrKeyEncoding)

	// A corrupted key digest is detected on parse.
	bad = sk.Bytes()
	bad[64] ^= 1
	_, err = s.ParsePrivateKey(bad)
	require.ErrorIs(t, err, dilithium.ErrKeyEncoding)
}

func TestUnsupportedLevel(t *testing.T) {
	_, err := dilithium.New(4, backend.Default())
	require.ErrorIs(t, err, params.ErrInvalidParameter)
}

func TestProofExport(t *testing.T) {
	rec := proofexport.NewRecorder()
	s, err := dilithium.New(2, backend.Default(), dilithium.WithExporter(rec))
	require.NoError(t, err)

	h, ok := s.ProofHandle()
	require.True(t, ok)
	require.NotEqual(t, proofexport.Handle{}, h)

	claims := rec.Claims()
	require.Len(t, claims, 1)
	require.Equal(t, "dilithium-2", claims[0].Scheme)
	require.Equal(t, "sig-soundness", claims[0].Property)
}
