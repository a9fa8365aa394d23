// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gf256

// An RSEncoder implements Reed-Solomon encoding
// over a given field using a given number of error correction bytes.
type RSEncoder struct {
	f   *Field
	c   int
	gen *Poly
}

// NewRSEncoder returns a new Reed-Solomon encoder
// over the given field and number of error correction bytes.
func NewRSEncoder(f *Field, c int) *RSEncoder {
	if c < 0 {
		panic(ErrDegree)
	}
	return &RSEncoder{f: f, c: c, gen: f.generator(c)}
}

// Generator returns the generator polynomial of rs.
func (rs *RSEncoder) Generator() *Poly { return rs.gen }

// ECC writes to check the error correction bytes
// for data using the given Reed-Solomon parameters.
// check must be at least as long as the number of error
// correction bytes; only that many bytes are written.
func (rs *RSEncoder) ECC(data, check []byte) {
	if len(check) < rs.c {
		panic("gf256: invalid check byte length")
	}
	if rs.c == 0 {
		return
	}
	check = check[:rs.c]
	msg := rs.f.zero
	if len(data) != 0 {
		msg = rs.f.newPoly(append([]byte(nil), data...))
	}
	_, rem := msg.MulMonomial(rs.c, 1).Divide(rs.gen)
	n := rs.c - len(rem.coef)
	clear(check[:n])
	copy(check[n:], rem.coef)
}

// An RSDecoder corrects errors in Reed-Solomon code words
// over a given field.
type RSDecoder struct {
	f *Field
}

// NewRSDecoder returns a new Reed-Solomon decoder over the given field.
func NewRSDecoder(f *Field) *RSDecoder {
	return &RSDecoder{f}
}

// Decode corrects received in place, given that its last twoS bytes
// are error correction bytes.  It returns the number of corrected
// bytes, or ErrRS if the errors cannot be corrected.
func (d *RSDecoder) Decode(received []byte, twoS int) (int, error) {
	if len(received) == 0 || twoS <= 0 {
		return 0, nil
	}
	f := d.f
	poly := f.newPoly(append([]byte(nil), received...))
	synd := make([]byte, twoS)
	ok := true
	for i := range synd {
		v := poly.EvalAt(f.Exp(i + f.base))
		synd[len(synd)-1-i] = v
		if v != 0 {
			ok = false
		}
	}
	if ok {
		return 0, nil
	}
	sigma, omega, err := d.euclid(f.Monomial(twoS, 1), f.newPoly(synd), twoS)
	if err != nil {
		return 0, err
	}
	locs, err := d.errorLocations(sigma)
	if err != nil {
		return 0, err
	}
	mags, err := d.errorMagnitudes(omega, locs)
	if err != nil {
		return 0, err
	}
	for i, loc := range locs {
		pos := len(received) - 1 - f.Log(loc)
		if pos < 0 {
			return 0, ErrRS
		}
		received[pos] ^= mags[i]
	}
	return len(locs), nil
}

// euclid runs the extended Euclidean algorithm on a and b until the
// remainder's degree drops below r/2, returning the error locator
// and error evaluator polynomials.
func (d *RSDecoder) euclid(a, b *Poly, r int) (sigma, omega *Poly, err error) {
	f := d.f
	if a.Degree() < b.Degree() {
		a, b = b, a
	}
	rLast, rCur := a, b
	tLast, tCur := f.zero, f.one
	for 2*rCur.Degree() >= r {
		rLastLast, tLastLast := rLast, tLast
		rLast, tLast = rCur, tCur
		if rLast.IsZero() {
			return nil, nil, ErrRS
		}
		rCur = rLastLast
		q := f.zero
		inv := f.Inv(rLast.coef[0])
		for !rCur.IsZero() && rCur.Degree() >= rLast.Degree() {
			dd := rCur.Degree() - rLast.Degree()
			c := f.Mul(rCur.coef[0], inv)
			q = q.Add(f.Monomial(dd, c))
			rCur = rCur.Add(rLast.MulMonomial(dd, c))
		}
		tCur = q.Mul(tLast).Add(tLastLast)
		if rCur.Degree() >= rLast.Degree() {
			return nil, nil, ErrRS
		}
	}
	s0 := tCur.Coefficient(0)
	if s0 == 0 {
		return nil, nil, ErrRS
	}
	inv := f.Inv(s0)
	return tCur.Scale(inv), rCur.Scale(inv), nil
}

// errorLocations returns the inverses of the roots of sigma
// found by Chien search.
func (d *RSDecoder) errorLocations(sigma *Poly) ([]byte, error) {
	n := sigma.Degree()
	if n < 1 {
		return nil, ErrRS
	}
	if n == 1 {
		return []byte{sigma.Coefficient(1)}, nil
	}
	locs := make([]byte, 0, n)
	for i := 1; i < 256 && len(locs) < n; i++ {
		if sigma.EvalAt(byte(i)) == 0 {
			locs = append(locs, d.f.Inv(byte(i)))
		}
	}
	if len(locs) != n {
		return nil, ErrRS
	}
	return locs, nil
}

// errorMagnitudes returns error values for locs using Forney's formula.
func (d *RSDecoder) errorMagnitudes(omega *Poly, locs []byte) ([]byte, error) {
	f := d.f
	mags := make([]byte, len(locs))
	for i, loc := range locs {
		xinv := f.Inv(loc)
		denom := byte(1)
		for j, l := range locs {
			if i != j {
				denom = f.Mul(denom, f.Mul(l, xinv)^1)
			}
		}
		if denom == 0 {
			return nil, ErrRS
		}
		mags[i] = f.Mul(omega.EvalAt(xinv), f.Inv(denom))
		if f.base != 0 {
			mags[i] = f.Mul(mags[i], xinv)
		}
	}
	return mags, nil
}
