package kyber

import (
	"pqlattice/pkg/ring"
)

// Canonical byte layouts (all multi-bit fields little-endian within the
// packed bit stream, coefficients in index order):
//
//	public key:  t packed at 12 bits per coefficient (K polys) || rho (32)
//	secret key:  s packed at 12 bits per coefficient (K polys) || public key
//	             || H(public key) (32) || z (32)
//	ciphertext:  u compressed to Du bits (K polys) || v compressed to Dv bits
func packedPolySize(width uint) int {
	return ring.N * int(width) / 8
}

// packPoly appends the low `width` bits of every coefficient to out.
// out must hold packedPolySize(width) bytes.
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

// packVec12 packs a transform-domain vector at 12 bits per coefficient.
func packVec12(out []byte, v []ring.Poly) {
	for i := range v {
		packPoly(out[i*packedPolySize(12):], &v[i].Coeffs, 12)
	}
}

// unpackVec12 parses a 12-bit-packed vector, rejecting coefficients
// outside [0, Q).
func unpackVec12(rg *ring.Ring, b []byte, k int) ([]ring.Poly, error) {
	v := make([]ring.Poly, k)
	for i := 0; i < k; i++ {
		cs := unpackPoly(b[i*packedPolySize(12):], 12)
		for _, c := range cs {
			if c >= rg.Q {
				return nil, ErrKeyEncoding
			}
		}
		v[i] = ring.Poly{Coeffs: cs, Domain: ring.DomainNTT}
	}
	return v, nil
}

// packCompressedVec compresses every polynomial of a normal-domain vector to
// `width` bits per coefficient and packs the result.
func packCompressedVec(rg *ring.Ring, out []byte, v []ring.Poly, width uint) {
	for i := range v {
		cs := rg.CompressPoly(&v[i], width)
		packPoly(out[i*packedPolySize(width):], &cs, width)
	}
}

// unpackCompressedVec reverses packCompressedVec up to the compression error.
func unpackCompressedVec(rg *ring.Ring, b []byte, k int, width uint) []ring.Poly {
	v := make([]ring.Poly, k)
	for i := 0; i < k; i++ {
		cs := unpackPoly(b[i*packedPolySize(width):], width)
		v[i] = rg.DecompressPoly(&cs, width)
	}
	return v
}

// decompressMessage expands a 32-byte message into a polynomial whose
// coefficients encode one bit each.
func decompressMessage(rg *ring.Ring, m []byte) ring.Poly {
	p := ring.Poly{Domain: ring.DomainNormal}
	for i := 0; i < ring.N; i++ {
		p.Coeffs[i] = rg.Decompress(uint32(m[i/8]>>(i%8))&1, 1)
	}
	return p
}

// compressMessage recovers the 32-byte message from a noisy encoding.
func compressMessage(rg *ring.Ring, p *ring.Poly) [32]byte {
	var m [32]byte
	for i := 0; i < ring.N; i++ {
		m[i/8] |= byte(rg.Compress(p.Coeffs[i], 1)) << (i % 8)
	}
	return m
}
