package ring

// divRoundHalfEven returns num/den rounded to nearest, ties to even.
func divRoundHalfEven(num, den uint64) uint64 {
	q := num / den
	rem2 := (num % den) * 2
	if rem2 > den || (rem2 == den && q&1 == 1) {
		q++
	}
	return q
}

// Compress maps a coefficient to a d-bit representative, rounding to nearest
// with ties to even. Ties cannot occur on this direction for odd Q.
func (r *Ring) Compress(v uint32, d uint) uint32 {
	return uint32(divRoundHalfEven(uint64(v)<<d, uint64(r.Q))) & ((1 << d) - 1)
}

// Decompress inverts Compress up to the compression error bound
// (|Decompress(Compress(v)) - v| <= round(Q / 2^(d+1))).
func (r *Ring) Decompress(v uint32, d uint) uint32 {
	return uint32(divRoundHalfEven(uint64(v)*uint64(r.Q), 1<<d))
}

// CompressPoly compresses every coefficient of p to d bits.
// p must be in the normal domain.
func (r *Ring) CompressPoly(p *Poly, d uint) [N]uint32 {
	if p.Domain != DomainNormal {
		panic("ring: compressing a transform-domain polynomial")
	}
	var out [N]uint32
	for i, c := range p.Coeffs {
		out[i] = r.Compress(c, d)
	}
	return out
}

// DecompressPoly expands d-bit representatives back into a normal-domain
// polynomial.
func (r *Ring) DecompressPoly(cs *[N]uint32, d uint) Poly {
	var p Poly
	for i, c := range cs {
		p.Coeffs[i] = r.Decompress(c, d)
	}
	return p
}

// Power2Round splits v into (r1, r0) with v = r1*2^d + r0 mod Q and r0 the
// centered remainder in (-2^(d-1), 2^(d-1)]. r0 is returned as a canonical
// representative in [0, Q).
func (r *Ring) Power2Round(v uint32, d uint) (r1, r0 uint32) {
	r1 = v >> d
	rem := v - r1<<d
	half := uint32(1) << (d - 1)
	if rem > half {
		r1++
		return r1, r.Sub(rem, 1<<d)
	}
	return r1, rem
}

// Decompose splits v into (r1, r0) with v = r1*2*gamma2 + r0 and r0 the
// centered remainder in (-gamma2, gamma2], except at the wrap-around point
// v - r0 = Q - 1 where r1 becomes 0 and r0 absorbs the difference.
// (Q-1) must be divisible by 2*gamma2.
func (r *Ring) Decompose(v, gamma2 uint32) (r1 uint32, r0 int32) {
	r0 = int32(v % (2 * gamma2))
	if r0 > int32(gamma2) {
		r0 -= int32(2 * gamma2)
	}
	rest := uint32(int64(v) - int64(r0))
	if rest == r.Q-1 {
		return 0, r0 - 1
	}
	return rest / (2 * gamma2), r0
}

// HighBits returns the r1 part of Decompose.
func (r *Ring) HighBits(v, gamma2 uint32) uint32 {
	r1, _ := r.Decompose(v, gamma2)
	return r1
}

// LowBits returns the r0 part of Decompose as a canonical representative.
func (r *Ring) LowBits(v, gamma2 uint32) uint32 {
	_, r0 := r.Decompose(v, gamma2)
	return r.Mod(int64(r0))
}

// MakeHint returns 1 when adding the correction z to v changes its high
// bits, 0 otherwise.
func (r *Ring) MakeHint(z, v, gamma2 uint32) uint32 {
	if r.HighBits(r.Add(v, z), gamma2) != r.HighBits(v, gamma2) {
		return 1
	}
	return 0
}

// UseHint recovers the high bits of the uncorrected value from v and the
// hint bit, without access to the correction itself.
func (r *Ring) UseHint(hint, v, gamma2 uint32) uint32 {
	r1, r0 := r.Decompose(v, gamma2)
	if hint == 0 {
		return r1
	}
	m := (r.Q - 1) / (2 * gamma2)
	if r0 > 0 {
		return (r1 + 1) % m
	}
	return (r1 + m - 1) % m
}
