package proofexport_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"pqlattice/pkg/proofexport"
)

func TestRecorderHandles(t *testing.T) {
	rec := proofexport.NewRecorder()

	c1 := proofexport.Claim{Scheme: "kyber-768", Property: "kem-round-trip", Statement: "s"}
	c2 := proofexport.Claim{Scheme: "dilithium-3", Property: "sig-soundness", Statement: "s"}

	h1, err := rec.Export(c1)
	require.NoError(t, err)
	h2, err := rec.Export(c2)
	require.NoError(t, err)

	// Handles are deterministic in the claim and distinct across claims.
	require.NotEqual(t, h1, h2)
	h1Again, err := rec.Export(c1)
	require.NoError(t, err)
	require.Equal(t, h1, h1Again)

	claims := rec.Claims()
	require.Equal(t, []proofexport.Claim{c1, c2, c1}, claims)

	// The returned slice is a copy.
	claims[0].Scheme = "mutated"
	require.Equal(t, c1, rec.Claims()[0])
}

func TestRecorderFieldSeparation(t *testing.T) {
	rec := proofexport.NewRecorder()
	// "ab"+"c" and "a"+"bc" must not collide across the field boundary.
	h1, err := rec.Export(proofexport.Claim{Scheme: "ab", Property: "c"})
	require.NoError(t, err)
	h2, err := rec.Export(proofexport.Claim{Scheme: "a", Property: "bc"})
	require.NoError(t, err)
	require.NotEqual(t, h1, h2)
}

func TestRecorderConcurrent(t *testing.T) {
	rec := proofexport.NewRecorder()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 32; j++ {
				_, err := rec.Export(proofexport.Claim{Scheme: "s", Property: "p"})
				require.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()
	require.Len(t, rec.Claims(), 8*32)
}
