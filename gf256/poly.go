// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gf256

// A Poly is a polynomial over a Field.  Coefficients are stored
// highest degree first, and the leading coefficient is non-zero
// unless the polynomial is zero.  Operations return new polynomials
// and never modify their operands.
type Poly struct {
	f    *Field
	coef []byte
}

// newPoly returns a polynomial using coef, which must not be empty,
// as its coefficients after trimming leading zeros.
func (f *Field) newPoly(coef []byte) *Poly {
	if len(coef) > 1 && coef[0] == 0 {
		n := 1
		for n < len(coef) && coef[n] == 0 {
			n++
		}
		if n == len(coef) {
			return f.zero
		}
		coef = coef[n:]
	}
	return &Poly{f, coef}
}

// Field returns the field of p.
func (p *Poly) Field() *Field { return p.f }

// Degree returns the degree of p.
func (p *Poly) Degree() int { return len(p.coef) - 1 }

// IsZero reports whether p is the zero polynomial.
func (p *Poly) IsZero() bool { return p.coef[0] == 0 }

// Coefficient returns the coefficient of the x^degree term.
func (p *Poly) Coefficient(degree int) byte {
	if degree < 0 || degree >= len(p.coef) {
		return 0
	}
	return p.coef[len(p.coef)-1-degree]
}

// Coefficients returns a copy of the coefficients of p,
// highest degree first.
func (p *Poly) Coefficients() []byte {
	return append([]byte(nil), p.coef...)
}

// Equal reports whether p and q have the same coefficients.
func (p *Poly) Equal(q *Poly) bool {
	if len(p.coef) != len(q.coef) {
		return false
	}
	for i, c := range p.coef {
		if q.coef[i] != c {
			return false
		}
	}
	return true
}

// Add returns p+q, which is also p-q.
func (p *Poly) Add(q *Poly) *Poly {
	if p.IsZero() {
		return q
	}
	if q.IsZero() {
		return p
	}
	small, large := p.coef, q.coef
	if len(small) > len(large) {
		small, large = large, small
	}
	sum := make([]byte, len(large))
	d := len(large) - len(small)
	copy(sum, large[:d])
	for i, c := range small {
		sum[d+i] = large[d+i] ^ c
	}
	return p.f.newPoly(sum)
}

// Mul returns p·q.
func (p *Poly) Mul(q *Poly) *Poly {
	if p.IsZero() || q.IsZero() {
		return p.f.zero
	}
	f := p.f
	prod := make([]byte, len(p.coef)+len(q.coef)-1)
	for i, a := range p.coef {
		for j, b := range q.coef {
			prod[i+j] ^= f.Mul(a, b)
		}
	}
	return f.newPoly(prod)
}

// Scale returns c·p.
func (p *Poly) Scale(c byte) *Poly {
	switch c {
	case 0:
		return p.f.zero
	case 1:
		return p
	}
	prod := make([]byte, len(p.coef))
	for i, a := range p.coef {
		prod[i] = p.f.Mul(a, c)
	}
	return p.f.newPoly(prod)
}

// MulMonomial returns c·x^degree·p.
// It panics with ErrDegree if degree < 0.
func (p *Poly) MulMonomial(degree int, c byte) *Poly {
	if degree < 0 {
		panic(ErrDegree)
	}
	if c == 0 || p.IsZero() {
		return p.f.zero
	}
	prod := make([]byte, len(p.coef)+degree)
	for i, a := range p.coef {
		prod[i] = p.f.Mul(a, c)
	}
	return p.f.newPoly(prod)
}

// EvalAt returns the value of p at x.
func (p *Poly) EvalAt(x byte) byte {
	switch x {
	case 0:
		return p.Coefficient(0)
	case 1:
		var sum byte
		for _, c := range p.coef {
			sum ^= c
		}
		return sum
	}
	v := p.coef[0]
	for _, c := range p.coef[1:] {
		v = p.f.Mul(x, v) ^ c
	}
	return v
}

// Divide returns the quotient and remainder of p divided by q.
// It panics if q is zero.
func (p *Poly) Divide(q *Poly) (quot, rem *Poly) {
	if q.IsZero() {
		panic("gf256: division by zero polynomial")
	}
	f := p.f
	quot, rem = f.zero, p
	inv := f.Inv(q.coef[0])
	for !rem.IsZero() && rem.Degree() >= q.Degree() {
		d := rem.Degree() - q.Degree()
		c := f.Mul(rem.coef[0], inv)
		rem = rem.Add(q.MulMonomial(d, c))
		quot = quot.Add(f.Monomial(d, c))
	}
	return quot, rem
}
