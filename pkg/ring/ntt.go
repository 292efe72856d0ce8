package ring

// NTT computes the forward number-theoretic transform of p in place.
// Input must be in the normal domain; on return p is in the transform domain.
// For the incomplete transform the result consists of 128 degree-one residues
// stored pairwise.
func (r *Ring) NTT(p *Poly) {
	if p.Domain == DomainNTT {
		panic("ring: forward transform applied twice")
	}
	cs := &p.Coeffs
	minLen := N >> r.layers
	k := 1
	for length := N / 2; length >= minLen; length /= 2 {
		for start := 0; start < N; start += 2 * length {
			zeta := r.zetas[k]
			k++
			for j := start; j < start+length; j++ {
				t := r.Mul(zeta, cs[j+length])
				cs[j+length] = r.Sub(cs[j], t)
				cs[j] = r.Add(cs[j], t)
			}
		}
	}
	p.Domain = DomainNTT
}

// InvNTT computes the inverse transform of p in place, cancelling the
// growth factor exactly so that InvNTT(NTT(p)) == p for every valid input.
func (r *Ring) InvNTT(p *Poly) {
	if p.Domain != DomainNTT {
		panic("ring: inverse transform of a non-transform polynomial")
	}
	cs := &p.Coeffs
	minLen := N >> r.layers
	k := len(r.zetas) - 1
	for length := minLen; length < N; length *= 2 {
		for start := 0; start < N; start += 2 * length {
			zeta := r.Q - r.zetas[k]
			k--
			for j := start; j < start+length; j++ {
				t := cs[j]
				cs[j] = r.Add(t, cs[j+length])
				cs[j+length] = r.Mul(zeta, r.Sub(t, cs[j+length]))
			}
		}
	}
	for i := 0; i < N; i++ {
		cs[i] = r.Mul(cs[i], r.scale)
	}
	p.Domain = DomainNormal
}

// MulNTT computes result = a * b in the transform domain. For the complete
// transform this is a coefficient-wise product; for the incomplete transform
// it multiplies pairs modulo the degree-one residues x^2 - gamma_i.
func (r *Ring) MulNTT(a, b, result *Poly) {
	if a.Domain != DomainNTT || b.Domain != DomainNTT {
		panic("ring: transform-domain multiplication of normal-domain operands")
	}
	if r.layers == NBits {
		for i := 0; i < N; i++ {
			result.Coeffs[i] = r.Mul(a.Coeffs[i], b.Coeffs[i])
		}
	} else {
		for i := 0; i < N/2; i++ {
			a0, a1 := a.Coeffs[2*i], a.Coeffs[2*i+1]
			b0, b1 := b.Coeffs[2*i], b.Coeffs[2*i+1]
			result.Coeffs[2*i] = r.Add(r.Mul(a0, b0), r.Mul(r.gammas[i], r.Mul(a1, b1)))
			result.Coeffs[2*i+1] = r.Add(r.Mul(a0, b1), r.Mul(a1, b0))
		}
	}
	result.Domain = DomainNTT
}
