package ring

// Domain marks the representation of a polynomial's coefficients.
type Domain uint8

const (
	// DomainNormal is the coefficient representation.
	DomainNormal Domain = iota
	// DomainNTT is the transform representation.
	DomainNTT
)

func (d Domain) String() string {
	switch d {
	case DomainNormal:
		return "normal"
	case DomainNTT:
		return "ntt"
	}
	return "unknown"
}

// Poly is a polynomial in Z_q[x]/<x^256+1>, tagged with its domain.
// Coefficients are canonical representatives in [0, Q). Poly is comparable,
// so == tests both coefficients and domain.
type Poly struct {
	Coeffs [N]uint32
	Domain Domain
}

// sameDomain panics when operands of a coefficient-wise operation disagree.
// Mixing domains is a programming error, never a data-dependent condition.
func sameDomain(a, b *Poly) {
	if a.Domain != b.Domain {
		panic("ring: domain mismatch: " + a.Domain.String() + " vs " + b.Domain.String())
	}
}

// PolyAdd computes result = a + b coefficient-wise.
func (r *Ring) PolyAdd(a, b, result *Poly) {
	sameDomain(a, b)
	for i := 0; i < N; i++ {
		result.Coeffs[i] = r.Add(a.Coeffs[i], b.Coeffs[i])
	}
	result.Domain = a.Domain
}

// PolySub computes result = a - b coefficient-wise.
func (r *Ring) PolySub(a, b, result *Poly) {
	sameDomain(a, b)
	for i := 0; i < N; i++ {
		result.Coeffs[i] = r.Sub(a.Coeffs[i], b.Coeffs[i])
	}
	result.Domain = a.Domain
}

// PolyNeg computes result = -a coefficient-wise.
func (r *Ring) PolyNeg(a, result *Poly) {
	for i := 0; i < N; i++ {
		result.Coeffs[i] = r.Neg(a.Coeffs[i])
	}
	result.Domain = a.Domain
}

// SchoolbookMul computes a * b mod (x^256 + 1) by direct convolution.
// Both operands must be in the normal domain. This is the O(n^2) reference
// path; the transform path must agree with it bit for bit.
func (r *Ring) SchoolbookMul(a, b *Poly) Poly {
	if a.Domain != DomainNormal || b.Domain != DomainNormal {
		panic("ring: schoolbook multiplication needs normal-domain operands")
	}
	var s [2 * N]int64
	for i := 0; i < N; i++ {
		for j := 0; j < N; j++ {
			s[i+j] += int64(a.Coeffs[i]) * int64(b.Coeffs[j])
			s[i+j] %= int64(r.Q)
		}
	}
	var out Poly
	// x^256 = -1, so the upper half folds in negated.
	for i := 0; i < N; i++ {
		out.Coeffs[i] = r.Mod(s[i] - s[N+i])
	}
	return out
}

// Norm returns the infinity norm of p: the maximum absolute coefficient
// under the centered interpretation (values > Q/2 count as negative).
func (r *Ring) Norm(p *Poly) uint32 {
	var n uint32
	half := (r.Q - 1) / 2
	for _, c := range p.Coeffs {
		abs := c
		if c > half {
			abs = r.Q - c
		}
		if abs > n {
			n = abs
		}
	}
	return n
}

// VecNorm returns the largest infinity norm across a vector of polynomials.
func (r *Ring) VecNorm(v []Poly) uint32 {
	var n uint32
	for i := range v {
		if m := r.Norm(&v[i]); m > n {
			n = m
		}
	}
	return n
}
