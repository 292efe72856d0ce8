// Package backend selects the execution backend for ring arithmetic and
// routes every transform-domain operation through it. A backend is chosen
// once, at process start, and the resulting Dispatcher is an immutable
// configuration value threaded explicitly into every scheme; there is no
// ambient global selection state.
//
// Accelerator backends are supplied externally and registered before the
// first selection. Whatever the backend, its output must be bit-identical
// to the CPU reference for the same input; that equivalence is the backend
// contract, not an optimization hint.
package backend

import (
	"errors"
	"sync"

	"pqlattice/pkg/ring"
)

// Kind identifies a class of execution hardware.
type Kind int

const (
	// KindCPU is the portable reference backend. It always initializes.
	KindCPU Kind = iota
	// KindGPU is a general-purpose GPU backend.
	KindGPU
	// KindNPU is a specialized matrix/tensor accelerator backend.
	KindNPU
)

func (k Kind) String() string {
	switch k {
	case KindCPU:
		return "cpu"
	case KindGPU:
		return "gpu"
	case KindNPU:
		return "npu"
	}
	return "unknown"
}

// probeOrder lists backend kinds from most to least preferred.
var probeOrder = []Kind{KindNPU, KindGPU, KindCPU}

var (
	// ErrInitFailed reports that a registered backend failed to initialize.
	// Select recovers from it by falling through to the next candidate.
	ErrInitFailed = errors.New("backend: initialization failed")

	// ErrNoBackend reports that no backend could be initialized, including
	// the CPU reference. This is not recoverable.
	ErrNoBackend = errors.New("backend: no backend available")
)

// Backend is the capability set every execution backend implements.
type Backend interface {
	// Kind reports the hardware class of the backend.
	Kind() Kind
	// Name reports a human-readable backend identifier.
	Name() string

	// NTT applies the forward transform in place.
	NTT(rg *ring.Ring, p *ring.Poly)
	// InvNTT applies the inverse transform in place.
	InvNTT(rg *ring.Ring, p *ring.Poly)
	// PolyMul multiplies two transform-domain polynomials.
	PolyMul(rg *ring.Ring, a, b, result *ring.Poly)
	// LatticeMul computes the transform-domain matrix-vector product
	// out[i] = sum_j m[i][j] * v[j]. Dimensions must match.
	LatticeMul(rg *ring.Ring, m [][]ring.Poly, v, out []ring.Poly)
	// SampleUniform derives a uniform transform-domain polynomial from
	// seed and the two domain-separation bytes.
	SampleUniform(rg *ring.Ring, seed []byte, n0, n1 byte) ring.Poly
}

// Factory constructs a backend, probing its hardware. Returning an error
// marks the backend unavailable for this process.
type Factory func() (Backend, error)

var (
	registryMu sync.Mutex
	registry   = map[Kind]Factory{}
)

// Register adds an accelerator factory to the plugin table. It must be
// called before the first Select; the CPU backend is built in and cannot
// be replaced.
func Register(kind Kind, f Factory) {
	if kind == KindCPU {
		panic("backend: the cpu reference backend cannot be replaced")
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[kind] = f
}

// Dispatcher routes ring operations to the selected backend. It is immutable
// after construction and safe for concurrent use.
type Dispatcher struct {
	b Backend
}

// Select probes registered backends in priority order (NPU, GPU, CPU) and
// returns a dispatcher for the first one that initializes. Initialization
// failures are recovered by falling through; the CPU reference terminates
// the walk and always succeeds.
func Select() (*Dispatcher, error) {
	registryMu.Lock()
	defer registryMu.Unlock()
	for _, kind := range probeOrder {
		var f Factory
		if kind == KindCPU {
			f = newCPU
		} else {
			var ok bool
			if f, ok = registry[kind]; !ok {
				continue
			}
		}
		b, err := f()
		if err != nil {
			continue
		}
		return &Dispatcher{b: b}, nil
	}
	return nil, ErrNoBackend
}

var (
	defaultOnce sync.Once
	defaultDisp *Dispatcher
)

// Default returns the process-wide dispatcher, selecting it on first use.
// The selection is permanent for the life of the process.
func Default() *Dispatcher {
	defaultOnce.Do(func() {
		d, err := Select()
		if err != nil {
			// Only possible if even the CPU reference failed.
			panic(err)
		}
		defaultDisp = d
	})
	return defaultDisp
}

// Kind reports the selected backend's hardware class.
func (d *Dispatcher) Kind() Kind { return d.b.Kind() }

// Name reports the selected backend's identifier.
func (d *Dispatcher) Name() string { return d.b.Name() }

// NTT applies the forward transform in place.
func (d *Dispatcher) NTT(rg *ring.Ring, p *ring.Poly) { d.b.NTT(rg, p) }

// InvNTT applies the inverse transform in place.
func (d *Dispatcher) InvNTT(rg *ring.Ring, p *ring.Poly) { d.b.InvNTT(rg, p) }

// PolyMul multiplies two transform-domain polynomials.
func (d *Dispatcher) PolyMul(rg *ring.Ring, a, b, result *ring.Poly) {
	d.b.PolyMul(rg, a, b, result)
}

// LatticeMul computes the transform-domain matrix-vector product.
func (d *Dispatcher) LatticeMul(rg *ring.Ring, m [][]ring.Poly, v, out []ring.Poly) {
	d.b.LatticeMul(rg, m, v, out)
}

// SampleUniform derives a uniform transform-domain polynomial.
func (d *Dispatcher) SampleUniform(rg *ring.Ring, seed []byte, n0, n1 byte) ring.Poly {
	return d.b.SampleUniform(rg, seed, n0, n1)
}
