// Package sampling turns seeds into algebraic objects: uniform ring elements,
// centered-binomial and bounded noise, masking vectors and challenge
// polynomials. Every function is deterministic in its seed and nonces and
// branches only on public parameters, never on secret seed content.
package sampling

import (
	"pqlattice/pkg/ring"
	"pqlattice/pkg/xof"
)

// UniformPoly rejection-samples a transform-domain polynomial with uniform
// coefficients in [0, Q) from a SHAKE-128 stream. Three stream bytes yield
// one 23-bit candidate for the large modulus and two 12-bit candidates for
// the small one; candidates >= Q are discarded.
func UniformPoly(rg *ring.Ring, x *xof.Stream128) ring.Poly {
	p := ring.Poly{Domain: ring.DomainNTT}
	i := 0
	if rg.Q>>12 == 0 {
		for i < ring.N {
			b0, b1, b2 := x.Read3()
			d1 := uint32(b0) | uint32(b1&15)<<8
			d2 := uint32(b1>>4) | uint32(b2)<<4
			if d1 < rg.Q {
				p.Coeffs[i] = d1
				i++
			}
			if i < ring.N && d2 < rg.Q {
				p.Coeffs[i] = d2
				i++
			}
		}
		return p
	}
	for i < ring.N {
		b0, b1, b2 := x.Read3()
		d := (uint32(b0) | uint32(b1)<<8 | uint32(b2)<<16) & 0x7FFFFF
		if d < rg.Q {
			p.Coeffs[i] = d
			i++
		}
	}
	return p
}

// ExpandMatrix derives a rows-by-cols matrix of uniform transform-domain
// polynomials from seed. Cell (i, j) is domain-separated by the byte pair
// (j, i); with transposed set the pair order flips, so that
// ExpandMatrix(seed, cols, rows, true)[i][j] equals
// ExpandMatrix(seed, rows, cols, false)[j][i].
func ExpandMatrix(rg *ring.Ring, seed []byte, rows, cols int, transposed bool) [][]ring.Poly {
	m := make([][]ring.Poly, rows)
	x := xof.NewStream128()
	for i := 0; i < rows; i++ {
		m[i] = make([]ring.Poly, cols)
		for j := 0; j < cols; j++ {
			if transposed {
				x.Reset(seed, []byte{byte(i), byte(j)})
			} else {
				x.Reset(seed, []byte{byte(j), byte(i)})
			}
			m[i][j] = UniformPoly(rg, x)
		}
	}
	return m
}

// CBD samples a normal-domain polynomial from the centered binomial
// distribution of width eta (2 or 3): each coefficient is the difference of
// two eta-bit popcounts, so it is symmetric and bounded by eta in absolute
// value. buf must hold 64*eta bytes of pseudorandom input.
func CBD(rg *ring.Ring, buf []byte, eta int) ring.Poly {
	if len(buf) != 64*eta {
		panic("sampling: centered binomial buffer has wrong length")
	}
	p := ring.Poly{Domain: ring.DomainNormal}
	switch eta {
	case 2:
		for i := 0; i < ring.N/8; i++ {
			t := uint32(buf[4*i]) | uint32(buf[4*i+1])<<8 |
				uint32(buf[4*i+2])<<16 | uint32(buf[4*i+3])<<24
			d := (t & 0x55555555) + ((t >> 1) & 0x55555555)
			for j := 0; j < 8; j++ {
				a := (d >> (4 * j)) & 3
				b := (d >> (4*j + 2)) & 3
				p.Coeffs[8*i+j] = rg.Mod(int64(a) - int64(b))
			}
		}
	case 3:
		for i := 0; i < ring.N/4; i++ {
			t := uint32(buf[3*i]) | uint32(buf[3*i+1])<<8 | uint32(buf[3*i+2])<<16
			d := (t & 0x249249) + ((t >> 1) & 0x249249) + ((t >> 2) & 0x249249)
			for j := 0; j < 4; j++ {
				a := (d >> (6 * j)) & 7
				b := (d >> (6*j + 3)) & 7
				p.Coeffs[4*i+j] = rg.Mod(int64(a) - int64(b))
			}
		}
	default:
		panic("sampling: unsupported centered binomial width")
	}
	return p
}

// BoundedEta rejection-samples a normal-domain polynomial with coefficients
// in [-eta, eta] (eta 2 or 4) from SHAKE-256 over seed and a 16-bit nonce.
func BoundedEta(rg *ring.Ring, seed []byte, eta int, nonce uint16) ring.Poly {
	x := xof.NewStream256()
	x.Reset(seed, xof.Nonce16(nonce))
	p := ring.Poly{Domain: ring.DomainNormal}
	i := 0
	for i < ring.N {
		b := x.ReadByte()
		for _, z := range [2]byte{b & 15, b >> 4} {
			if i >= ring.N {
				break
			}
			switch eta {
			case 2:
				if z < 15 {
					p.Coeffs[i] = rg.Mod(int64(2 - int(z%5)))
					i++
				}
			case 4:
				if z <= 8 {
					p.Coeffs[i] = rg.Mod(int64(4 - int(z)))
					i++
				}
			default:
				panic("sampling: unsupported bounded noise width")
			}
		}
	}
	return p
}

// UniformGamma samples a normal-domain masking polynomial with coefficients
// in the centered range (-gamma1, gamma1], reading gamma1Bits+1 bits per
// coefficient from SHAKE-256 over seed and a 16-bit nonce. Draws outside
// [0, 2*gamma1) would be rejected; with gamma1 a power of two the draw range
// is exact and the rejection branch never fires.
func UniformGamma(rg *ring.Ring, seed []byte, nonce uint16, gamma1Bits uint) ring.Poly {
	x := xof.NewStream256()
	x.Reset(seed, xof.Nonce16(nonce))
	gamma1 := uint32(1) << gamma1Bits
	width := gamma1Bits + 1

	p := ring.Poly{Domain: ring.DomainNormal}
	var acc uint64
	var bits uint
	for i := 0; i < ring.N; {
		for bits < width {
			acc |= uint64(x.ReadByte()) << bits
			bits += 8
		}
		v := uint32(acc) & (2*gamma1 - 1)
		acc >>= width
		bits -= width
		if v >= 2*gamma1 {
			continue
		}
		p.Coeffs[i] = rg.Sub(gamma1, v)
		i++
	}
	return p
}

// InBall samples the challenge polynomial: exactly tau coefficients set to
// +-1 at positions chosen by a Fisher-Yates rejection walk over SHAKE-256
// output, with sign bits drawn from the head of the same stream.
func InBall(rg *ring.Ring, seed []byte, tau int) ring.Poly {
	x := xof.NewStream256()
	x.Reset(seed)

	var signs uint64
	for i := 0; i < 8; i++ {
		signs |= uint64(x.ReadByte()) << (8 * i)
	}

	p := ring.Poly{Domain: ring.DomainNormal}
	for i := ring.N - tau; i < ring.N; i++ {
		var j byte
		for {
			j = x.ReadByte()
			if int(j) <= i {
				break
			}
		}
		p.Coeffs[i] = p.Coeffs[j]
		if signs&1 == 0 {
			p.Coeffs[j] = 1
		} else {
			p.Coeffs[j] = rg.Q - 1
		}
		signs >>= 1
	}
	return p
}
