package backend

import (
	"testing"

	"github.com/stretchr/testify/require"

	"pqlattice/pkg/ring"
	"pqlattice/pkg/sampling"
	"pqlattice/pkg/xof"
)

// swapRegistry replaces the plugin table for one test.
func swapRegistry(t *testing.T) {
	t.Helper()
	registryMu.Lock()
	saved := registry
	registry = map[Kind]Factory{}
	registryMu.Unlock()
	t.Cleanup(func() {
		registryMu.Lock()
		registry = saved
		registryMu.Unlock()
	})
}

// fakeAccel wraps the CPU reference under an accelerator identity. It stands
// in for an external plugin in selection and equivalence tests.
type fakeAccel struct {
	kind Kind
	cpu  Backend
}

func newFakeAccel(kind Kind) (Backend, error) {
	c, err := newCPU()
	if err != nil {
		return nil, err
	}
	return &fakeAccel{kind: kind, cpu: c}, nil
}

func (f *fakeAccel) Kind() Kind   { return f.kind }
func (f *fakeAccel) Name() string { return f.kind.String() + "/fake" }

func (f *fakeAccel) NTT(rg *ring.Ring, p *ring.Poly)    { f.cpu.NTT(rg, p) }
func (f *fakeAccel) InvNTT(rg *ring.Ring, p *ring.Poly) { f.cpu.InvNTT(rg, p) }
func (f *fakeAccel) PolyMul(rg *ring.Ring, a, b, result *ring.Poly) {
	f.cpu.PolyMul(rg, a, b, result)
}
func (f *fakeAccel) LatticeMul(rg *ring.Ring, m [][]ring.Poly, v, out []ring.Poly) {
	f.cpu.LatticeMul(rg, m, v, out)
}
func (f *fakeAccel) SampleUniform(rg *ring.Ring, seed []byte, n0, n1 byte) ring.Poly {
	return f.cpu.SampleUniform(rg, seed, n0, n1)
}

func TestSelectDefaultsToCPU(t *testing.T) {
	swapRegistry(t)
	d, err := Select()
	require.NoError(t, err)
	require.Equal(t, KindCPU, d.Kind())
	require.Contains(t, d.Name(), "cpu/")
}

func TestSelectPrefersAccelerator(t *testing.T) {
	swapRegistry(t)
	Register(KindGPU, func() (Backend, error) { return newFakeAccel(KindGPU) })
	d, err := Select()
	require.NoError(t, err)
	require.Equal(t, KindGPU, d.Kind())

	// An NPU outranks the GPU.
	Register(KindNPU, func() (Backend, error) { return newFakeAccel(KindNPU) })
	d, err = Select()
	require.NoError(t, err)
	require.Equal(t, KindNPU, d.Kind())
}

func TestSelectFallsThroughOnInitFailure(t *testing.T) {
	swapRegistry(t)
	Register(KindNPU, func() (Backend, error) { return nil, ErrInitFailed })
	d, err := Select()
	require.NoError(t, err)
	require.Equal(t, KindCPU, d.Kind())

	Register(KindGPU, func() (Backend, error) { return newFakeAccel(KindGPU) })
	d, err = Select()
	require.NoError(t, err)
	require.Equal(t, KindGPU, d.Kind())
}

func TestRegisterCPUPanics(t *testing.T) {
	require.Panics(t, func() {
		Register(KindCPU, func() (Backend, error) { return newCPU() })
	})
}

func TestDefaultIsStable(t *testing.T) {
	d := Default()
	require.NotNil(t, d)
	require.Same(t, d, Default())
}

func TestAcceleratorMatchesReference(t *testing.T) {
	cpu, err := newCPU()
	require.NoError(t, err)
	accel, err := newFakeAccel(KindGPU)
	require.NoError(t, err)

	for name, rg := range map[string]*ring.Ring{
		"kyber":     ring.NewKyberRing(),
		"dilithium": ring.NewDilithiumRing(),
	} {
		t.Run(name, func(t *testing.T) {
			seed := []byte("equivalence seed")
			a := cpu.SampleUniform(rg, seed, 0, 1)
			b := accel.SampleUniform(rg, seed, 0, 1)
			require.Equal(t, a, b)

			p := a
			q := a
			cpu.InvNTT(rg, &p)
			accel.InvNTT(rg, &q)
			require.Equal(t, p, q)

			cpu.NTT(rg, &p)
			accel.NTT(rg, &q)
			require.Equal(t, p, q)

			var r1, r2 ring.Poly
			cpu.PolyMul(rg, &a, &b, &r1)
			accel.PolyMul(rg, &a, &b, &r2)
			require.Equal(t, r1, r2)
		})
	}
}

func TestLatticeMul(t *testing.T) {
	cpu, err := newCPU()
	require.NoError(t, err)
	rg := ring.NewDilithiumRing()

	sample := func(n0, n1 byte) ring.Poly {
		return cpu.SampleUniform(rg, []byte("lattice seed"), n0, n1)
	}

	m := [][]ring.Poly{
		{sample(0, 0), sample(1, 0)},
		{sample(0, 1), sample(1, 1)},
	}
	v := []ring.Poly{sample(9, 0), sample(9, 1)}
	out := make([]ring.Poly, 2)
	cpu.LatticeMul(rg, m, v, out)

	// Row i of the product equals the explicit sum of pairwise products.
	for i := 0; i < 2; i++ {
		var want, t1 ring.Poly
		want.Domain = ring.DomainNTT
		for j := 0; j < 2; j++ {
			rg.MulNTT(&m[i][j], &v[j], &t1)
			rg.PolyAdd(&want, &t1, &want)
		}
		require.Equal(t, want, out[i])
	}

	require.Panics(t, func() { cpu.LatticeMul(rg, m, v, make([]ring.Poly, 3)) })
	require.Panics(t, func() { cpu.LatticeMul(rg, m, v[:1], out) })
}

func TestSampleUniformSeparation(t *testing.T) {
	cpu, err := newCPU()
	require.NoError(t, err)
	rg := ring.NewKyberRing()
	seed := []byte("separation seed")

	a := cpu.SampleUniform(rg, seed, 0, 1)
	b := cpu.SampleUniform(rg, seed, 1, 0)
	require.NotEqual(t, a, b)

	// Matches direct stream expansion over seed || n0 || n1.
	x := xof.NewStream128()
	x.Reset(seed, []byte{0, 1})
	require.Equal(t, a, sampling.UniformPoly(rg, x))
}
