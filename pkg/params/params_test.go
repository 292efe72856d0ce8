package params_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"pqlattice/pkg/params"
)

func TestKEMSizes(t *testing.T) {
	cases := []struct {
		level      int
		pk, sk, ct int
	}{
		{512, 800, 1632, 768},
		{768, 1184, 2400, 1088},
		{1024, 1568, 3168, 1568},
	}
	for _, c := range cases {
		p, err := params.KEMLevel(c.level)
		require.NoError(t, err)
		require.Equal(t, c.pk, p.PublicKeySize, "level %d", c.level)
		require.Equal(t, c.sk, p.SecretKeySize, "level %d", c.level)
		require.Equal(t, c.ct, p.CiphertextSize, "level %d", c.level)
		require.Equal(t, 32, p.SharedKeySize, "level %d", c.level)
	}
}

func TestSignatureSizes(t *testing.T) {
	cases := []struct {
		level       int
		pk, sk, sig int
	}{
		{2, 1312, 2560, 2420},
		{3, 1952, 4032, 3309},
		{5, 2592, 4896, 4627},
	}
	for _, c := range cases {
		p, err := params.SignatureLevel(c.level)
		require.NoError(t, err)
		require.Equal(t, c.pk, p.PublicKeySize, "level %d", c.level)
		require.Equal(t, c.sk, p.SecretKeySize, "level %d", c.level)
		require.Equal(t, c.sig, p.SignatureSize, "level %d", c.level)
	}
}

func TestSignatureDerivedFields(t *testing.T) {
	for _, level := range params.SignatureLevels() {
		p, err := params.SignatureLevel(level)
		require.NoError(t, err)
		require.Equal(t, uint32(p.Eta*p.Tau), p.Beta)
		require.Equal(t, uint32(1)<<p.Gamma1Bits, p.Gamma1)
		// (Q-1) must split evenly into decomposition bands.
		require.Zero(t, (p.Q-1)%(2*p.Gamma2))
	}
}

func TestUnsupportedLevels(t *testing.T) {
	for _, level := range []int{0, 1, 256, 4, 1025} {
		_, err := params.KEMLevel(level)
		require.ErrorIs(t, err, params.ErrInvalidParameter, "kem level %d", level)
		_, err = params.SignatureLevel(level)
		require.ErrorIs(t, err, params.ErrInvalidParameter, "sig level %d", level)
	}
}

func TestLevelsAreCopies(t *testing.T) {
	a, err := params.KEMLevel(768)
	require.NoError(t, err)
	a.K = 99
	b, err := params.KEMLevel(768)
	require.NoError(t, err)
	require.Equal(t, 3, b.K)
}
