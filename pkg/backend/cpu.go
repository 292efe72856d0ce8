package backend

import (
	"github.com/klauspost/cpuid/v2"

	"pqlattice/pkg/ring"
	"pqlattice/pkg/sampling"
	"pqlattice/pkg/xof"
)

// cpu is the reference backend. Its outputs define correct behavior for
// every other backend.
type cpu struct {
	name string
}

func newCPU() (Backend, error) {
	return &cpu{name: "cpu/" + simdTag()}, nil
}

// simdTag names the widest SIMD extension the host CPU reports.
func simdTag() string {
	switch {
	case cpuid.CPU.Supports(cpuid.AVX512F):
		return "avx512"
	case cpuid.CPU.Supports(cpuid.AVX2):
		return "avx2"
	case cpuid.CPU.Supports(cpuid.SSE4):
		return "sse4"
	case cpuid.CPU.Supports(cpuid.ASIMD):
		return "neon"
	}
	return "portable"
}

func (c *cpu) Kind() Kind   { return KindCPU }
func (c *cpu) Name() string { return c.name }

func (c *cpu) NTT(rg *ring.Ring, p *ring.Poly) { rg.NTT(p) }

func (c *cpu) InvNTT(rg *ring.Ring, p *ring.Poly) { rg.InvNTT(p) }

func (c *cpu) PolyMul(rg *ring.Ring, a, b, result *ring.Poly) { rg.MulNTT(a, b, result) }

func (c *cpu) LatticeMul(rg *ring.Ring, m [][]ring.Poly, v, out []ring.Poly) {
	if len(m) != len(out) {
		panic("backend: matrix row count does not match output length")
	}
	var t ring.Poly
	for i := range m {
		if len(m[i]) != len(v) {
			panic("backend: matrix column count does not match vector length")
		}
		acc := ring.Poly{Domain: ring.DomainNTT}
		for j := range m[i] {
			rg.MulNTT(&m[i][j], &v[j], &t)
			rg.PolyAdd(&acc, &t, &acc)
		}
		out[i] = acc
	}
}

func (c *cpu) SampleUniform(rg *ring.Ring, seed []byte, n0, n1 byte) ring.Poly {
	x := xof.NewStream128()
	x.Reset(seed, []byte{n0, n1})
	return sampling.UniformPoly(rg, x)
}
