package xof_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"

	"pqlattice/pkg/xof"
)

func TestHMatchesShake256(t *testing.T) {
	want := make([]byte, 100)
	h := sha3.NewShake256()
	h.Write([]byte("part one"))
	h.Write([]byte("part two"))
	h.Read(want)

	got := xof.H(100, []byte("part one"), []byte("part two"))
	require.Equal(t, want, got)

	// Concatenation, not per-part separation.
	require.Equal(t, got, xof.H(100, []byte("part "), []byte("onepart two")))
}

func TestSumDigests(t *testing.T) {
	msg := []byte("digest input")

	want256 := sha3.Sum256(msg)
	require.Equal(t, want256, xof.Sum256(msg))
	require.Equal(t, want256, xof.Sum256(msg[:6], msg[6:]))

	want512 := sha3.Sum512(msg)
	require.Equal(t, want512, xof.Sum512(msg))
}

func TestStream128MatchesDirectRead(t *testing.T) {
	seed := []byte("stream seed")

	h := sha3.NewShake128()
	h.Write(seed)
	want := make([]byte, 3*1000)
	h.Read(want)

	x := xof.NewStream128()
	x.Reset(seed)
	for i := 0; i < 1000; i++ {
		b0, b1, b2 := x.Read3()
		require.Equal(t, want[3*i], b0, "triple %d", i)
		require.Equal(t, want[3*i+1], b1, "triple %d", i)
		require.Equal(t, want[3*i+2], b2, "triple %d", i)
	}
}

func TestStream128Reset(t *testing.T) {
	x := xof.NewStream128()
	x.Reset([]byte("first"))
	a0, a1, a2 := x.Read3()

	x.Reset([]byte("second"))
	x.Read3()

	x.Reset([]byte("first"))
	b0, b1, b2 := x.Read3()
	require.Equal(t, [3]byte{a0, a1, a2}, [3]byte{b0, b1, b2})
}

func TestStream256MatchesDirectRead(t *testing.T) {
	seed := []byte("stream seed")

	h := sha3.NewShake256()
	h.Write(seed)
	want := make([]byte, 500)
	h.Read(want)

	x := xof.NewStream256()
	x.Reset(seed)
	for i := range want {
		require.Equal(t, want[i], x.ReadByte(), "byte %d", i)
	}

	x.Reset(seed)
	got := make([]byte, 500)
	x.Read(got)
	require.Equal(t, want, got)
}

func TestNonce16(t *testing.T) {
	require.Equal(t, []byte{0x34, 0x12}, xof.Nonce16(0x1234))
	require.Equal(t, []byte{0xFF, 0x00}, xof.Nonce16(255))
}
