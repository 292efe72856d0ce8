package dilithium

import (
	"pqlattice/pkg/ring"
)

// Canonical byte layouts (multi-bit fields little-endian within the packed
// bit stream, coefficients in index order):
//
//	public key: rho (32) || t1 packed at 10 bits per coefficient (K polys)
//	secret key: rho (32) || key (32) || tr (64)
//	            || s1, s2 packed at EtaBits per coefficient (L+K polys)
//	            || t0 packed at 13 bits per coefficient (K polys)
//	signature:  c~ (Lambda/4) || z packed at Gamma1Bits+1 per coefficient
//	            (L polys) || hint positions (Omega+K)
func packedPolySize(width uint) int {
	return ring.N * int(width) / 8
}

// packPoly appends the low `width` bits of every coefficient to out.
func packPoly(out []byte, cs *[ring.N]uint32, width uint) {
	var acc uint64
	var bits uint
	idx := 0
	for i := 0; i < ring.N; i++ {
		acc |= uint64(cs[i]) << bits
		bits += width
		for bits >= 8 {
			out[idx] = byte(acc)
			acc >>= 8
			bits -= 8
			idx++
		}
	}
}

// unpackPoly reads ring.N fields of `width` bits from b.
func unpackPoly(b []byte, width uint) [ring.N]uint32 {
	var cs [ring.N]uint32
	var acc uint64
	var bits uint
	idx := 0
	mask := uint32(1)<<width - 1
	for i := 0; i < ring.N; i++ {
		for bits < width {
			acc |= uint64(b[idx]) << bits
			bits += 8
			idx++
		}
		cs[i] = uint32(acc) & mask
		acc >>= width
		bits -= width
	}
	return cs
}

// packT1 packs the rounded public vector at 10 bits per coefficient.
func packT1(out []byte, t1 []ring.Poly) {
	for i := range t1 {
		packPoly(out[i*packedPolySize(10):], &t1[i].Coeffs, 10)
	}
}

func unpackT1(b []byte, k int) []ring.Poly {
	v := make([]ring.Poly, k)
	for i := 0; i < k; i++ {
		v[i] = ring.Poly{
			Coeffs: unpackPoly(b[i*packedPolySize(10):], 10),
			Domain: ring.DomainNormal,
		}
	}
	return v
}

// packT0 packs the low rounding remainders, mapping the centered value
// r0 in (-2^12, 2^12] to the 13-bit field 2^12 - r0.
func packT0(rg *ring.Ring, out []byte, t0 []ring.Poly) {
	var cs [ring.N]uint32
	for i := range t0 {
		for j, c := range t0[i].Coeffs {
			cs[j] = rg.Sub(1<<12, c)
		}
		packPoly(out[i*packedPolySize(13):], &cs, 13)
	}
}

func unpackT0(rg *ring.Ring, b []byte, k int) []ring.Poly {
	v := make([]ring.Poly, k)
	for i := 0; i < k; i++ {
		cs := unpackPoly(b[i*packedPolySize(13):], 13)
		p := ring.Poly{Domain: ring.DomainNormal}
		for j, c := range cs {
			p.Coeffs[j] = rg.Sub(1<<12, c)
		}
		v[i] = p
	}
	return v
}

// packEta packs a short secret vector, mapping the centered coefficient
// c in [-eta, eta] to the field eta - c.
func packEta(rg *ring.Ring, out []byte, v []ring.Poly, eta int, width uint) {
	var cs [ring.N]uint32
	for i := range v {
		for j, c := range v[i].Coeffs {
			cs[j] = rg.Sub(uint32(eta), c)
		}
		packPoly(out[i*packedPolySize(width):], &cs, width)
	}
}

func unpackEta(rg *ring.Ring, b []byte, k, eta int, width uint) ([]ring.Poly, error) {
	v := make([]ring.Poly, k)
	for i := 0; i < k; i++ {
		cs := unpackPoly(b[i*packedPolySize(width):], width)
		p := ring.Poly{Domain: ring.DomainNormal}
		for j, c := range cs {
			if c > uint32(2*eta) {
				return nil, ErrKeyEncoding
			}
			p.Coeffs[j] = rg.Sub(uint32(eta), c)
		}
		v[i] = p
	}
	return v, nil
}

// packZ packs the response vector, mapping the centered coefficient
// c in (-gamma1, gamma1] to the field gamma1 - c.
func packZ(rg *ring.Ring, out []byte, z []ring.Poly, gamma1 uint32, width uint) {
	var cs [ring.N]uint32
	for i := range z {
		for j, c := range z[i].Coeffs {
			cs[j] = rg.Sub(gamma1, c)
		}
		packPoly(out[i*packedPolySize(width):], &cs, width)
	}
}

// unpackZ inverts packZ. Every width-bit field is a valid encoding because
// gamma1 is a power of two, so no range check is needed here; the norm bound
// on z is enforced by the caller.
func unpackZ(rg *ring.Ring, b []byte, l int, gamma1 uint32, width uint) []ring.Poly {
	z := make([]ring.Poly, l)
	for i := 0; i < l; i++ {
		cs := unpackPoly(b[i*packedPolySize(width):], width)
		p := ring.Poly{Domain: ring.DomainNormal}
		for j, c := range cs {
			p.Coeffs[j] = rg.Sub(gamma1, c)
		}
		z[i] = p
	}
	return z
}

// packW1 packs the high-bits commitment at W1Bits per coefficient. The
// result feeds the challenge hash, so the layout is part of the scheme.
func packW1(out []byte, w1 []ring.Poly, width uint) {
	for i := range w1 {
		packPoly(out[i*packedPolySize(width):], &w1[i].Coeffs, width)
	}
}

// packHint encodes the hint vector as Omega position bytes followed by K
// running per-polynomial counts. Unused position bytes are zero.
func packHint(out []byte, h []ring.Poly, omega int) {
	idx := 0
	for i := range h {
		for j, c := range h[i].Coeffs {
			if c != 0 {
				out[idx] = byte(j)
				idx++
			}
		}
		out[omega+i] = byte(idx)
	}
	for ; idx < omega; idx++ {
		out[idx] = 0
	}
}

// unpackHint rejects encodings that are not canonical: counts must be
// non-decreasing and bounded by omega, positions strictly increasing within
// each polynomial, and unused position bytes zero.
func unpackHint(b []byte, k, omega int) ([]ring.Poly, error) {
	h := make([]ring.Poly, k)
	idx := 0
	for i := 0; i < k; i++ {
		end := int(b[omega+i])
		if end < idx || end > omega {
			return nil, ErrSignatureEncoding
		}
		h[i].Domain = ring.DomainNormal
		for start := idx; idx < end; idx++ {
			if idx > start && b[idx] <= b[idx-1] {
				return nil, ErrSignatureEncoding
			}
			h[i].Coeffs[b[idx]] = 1
		}
	}
	for ; idx < omega; idx++ {
		if b[idx] != 0 {
			return nil, ErrSignatureEncoding
		}
	}
	return h, nil
}
