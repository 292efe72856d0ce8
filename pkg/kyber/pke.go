package kyber

import (
	"pqlattice/pkg/params"
	"pqlattice/pkg/ring"
	"pqlattice/pkg/sampling"
	"pqlattice/pkg/xof"
)

// prf derives length bytes of noise-sampling input from a seed and a
// single-byte nonce.
func prf(length int, seed []byte, nonce byte) []byte {
	return xof.H(length, seed, []byte{nonce})
}

// expandMatrix derives the public matrix from rho through the dispatcher's
// sampling capability. Cell (i, j) is separated by the byte pair (j, i);
// transposed flips the pair, yielding the transpose without materializing
// both matrices.
func (s *Scheme) expandMatrix(rho []byte, transposed bool) [][]ring.Poly {
	k := s.p.K
	m := make([][]ring.Poly, k)
	for i := 0; i < k; i++ {
		m[i] = make([]ring.Poly, k)
		for j := 0; j < k; j++ {
			if transposed {
				m[i][j] = s.disp.SampleUniform(s.rg, rho, byte(i), byte(j))
			} else {
				m[i][j] = s.disp.SampleUniform(s.rg, rho, byte(j), byte(i))
			}
		}
	}
	return m
}

// sampleNoiseVec draws k noise polynomials from the centered binomial
// distribution, consuming consecutive nonces starting at nonce.
func (s *Scheme) sampleNoiseVec(seed []byte, k, eta int, nonce byte) []ring.Poly {
	v := make([]ring.Poly, k)
	for i := range v {
		v[i] = cbdPoly(s.rg, seed, eta, nonce+byte(i))
	}
	return v
}

func cbdPoly(rg *ring.Ring, seed []byte, eta int, nonce byte) ring.Poly {
	return sampling.CBD(rg, prf(64*eta, seed, nonce), eta)
}

// pkeKeyFromSeed derives the IND-CPA key material: t = A*s + e in the
// transform domain, plus the matrix seed rho.
func (s *Scheme) pkeKeyFromSeed(d []byte) (t, sv []ring.Poly, rho [params.SeedSize]byte) {
	expanded := xof.Sum512(d)
	copy(rho[:], expanded[:32])
	sigma := expanded[32:]

	a := s.expandMatrix(rho[:], false)

	sv = s.sampleNoiseVec(sigma, s.p.K, s.p.Eta1, 0)
	e := s.sampleNoiseVec(sigma, s.p.K, s.p.Eta1, byte(s.p.K))
	for i := range sv {
		s.disp.NTT(s.rg, &sv[i])
		s.disp.NTT(s.rg, &e[i])
	}

	t = make([]ring.Poly, s.p.K)
	s.disp.LatticeMul(s.rg, a, sv, t)
	for i := range t {
		s.rg.PolyAdd(&t[i], &e[i], &t[i])
	}
	return t, sv, rho
}

// encrypt is the IND-CPA encryption: u = A^T*r + e1, v = <t, r> + e2 + m.
// coins must be 32 bytes; the output is the compressed ciphertext.
func (pk *PublicKey) encrypt(m, coins []byte) []byte {
	s := pk.s
	k := s.p.K

	at := s.expandMatrix(pk.rho[:], true)

	r := s.sampleNoiseVec(coins, k, s.p.Eta1, 0)
	for i := range r {
		s.disp.NTT(s.rg, &r[i])
	}
	e1 := s.sampleNoiseVec(coins, k, s.p.Eta2, byte(k))
	e2 := cbdPoly(s.rg, coins, s.p.Eta2, byte(2*k))

	u := make([]ring.Poly, k)
	s.disp.LatticeMul(s.rg, at, r, u)
	for i := range u {
		s.disp.InvNTT(s.rg, &u[i])
		s.rg.PolyAdd(&u[i], &e1[i], &u[i])
	}

	var v [1]ring.Poly
	s.disp.LatticeMul(s.rg, [][]ring.Poly{pk.t}, r, v[:])
	s.disp.InvNTT(s.rg, &v[0])
	s.rg.PolyAdd(&v[0], &e2, &v[0])
	mp := decompressMessage(s.rg, m)
	s.rg.PolyAdd(&v[0], &mp, &v[0])

	ct := make([]byte, s.p.CiphertextSize)
	packCompressedVec(s.rg, ct, u, s.p.Du)
	packCompressedVec(s.rg, ct[k*packedPolySize(s.p.Du):], v[:], s.p.Dv)
	return ct
}

// decrypt recovers the 32-byte message from a ciphertext:
// m = Compress(v - <s, u>, 1).
func (sk *SecretKey) decrypt(ct []byte) [32]byte {
	s := sk.s
	k := s.p.K

	u := unpackCompressedVec(s.rg, ct, k, s.p.Du)
	v := unpackCompressedVec(s.rg, ct[k*packedPolySize(s.p.Du):], 1, s.p.Dv)

	for i := range u {
		s.disp.NTT(s.rg, &u[i])
	}
	var su [1]ring.Poly
	s.disp.LatticeMul(s.rg, [][]ring.Poly{sk.sv}, u, su[:])
	s.disp.InvNTT(s.rg, &su[0])

	var m ring.Poly
	s.rg.PolySub(&v[0], &su[0], &m)
	return compressMessage(s.rg, &m)
}
