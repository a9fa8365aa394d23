// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package gf256 implements arithmetic over the Galois Field GF(256),
polynomials over it and Reed-Solomon error correction.

A Field is built once and shared: every Poly keeps a pointer to its
Field and never copies the tables.  Fields and polynomials are
immutable and safe for concurrent use.
*/
package gf256 // import "github.com/qrforge/qr/gf256"

import (
	"errors"
	"sync"
)

var (
	ErrEmptyPoly = errors.New("gf256: polynomial has no coefficients")
	ErrDegree    = errors.New("gf256: negative degree")
	ErrRS        = errors.New("gf256: too many errors")
)

// A Field represents an instance of GF(256) defined by a specific
// polynomial, generator and generator base.
type Field struct {
	poly int       // primitive polynomial
	α    int       // generator
	base int       // generator base (b in Reed-Solomon generators)
	log  [256]byte // log[0] is unused
	exp  [510]byte // exp[i] == exp[i+255]

	zero, one *Poly

	genLock sync.Mutex
	gen     []*Poly // cached Reed-Solomon generators by degree
}

// NewField returns a new field corresponding to the polynomial poly,
// generator α and generator base.  The Reed-Solomon encoding in QR
// codes uses poly = 0x11d, α = 2 and base = 0.
//
// NewField panics if poly is not of degree 8 or α does not generate
// the multiplicative group of the field.
func NewField(poly, α, base int) *Field {
	if poly < 0x100 || poly >= 0x200 {
		panic("gf256: invalid polynomial")
	}
	if α <= 1 || α >= 0x100 {
		panic("gf256: invalid generator")
	}
	f := &Field{poly: poly, α: α, base: base}
	x := 1
	for i := 0; i < 255; i++ {
		if x == 1 && i != 0 {
			panic("gf256: invalid generator")
		}
		f.exp[i] = byte(x)
		f.exp[i+255] = byte(x)
		f.log[x] = byte(i)
		x = mul(x, α, poly)
	}
	if x != 1 {
		panic("gf256: invalid generator")
	}
	f.zero = &Poly{f, []byte{0}}
	f.one = &Poly{f, []byte{1}}
	f.gen = []*Poly{f.one}
	return f
}

// mul returns the product x*y mod poly, a GF(256) multiplication
// done the slow way.  It is only used to build the tables.
func mul(x, y, poly int) int {
	z := 0
	for x > 0 {
		if x&1 != 0 {
			z ^= y
		}
		x >>= 1
		y <<= 1
		if y&0x100 != 0 {
			y ^= poly
		}
	}
	return z
}

// Poly returns the primitive polynomial of f.
func (f *Field) Poly() int { return f.poly }

// Base returns the generator base of f.
func (f *Field) Base() int { return f.base }

// Add returns the sum of x and y in the field.  It is also the difference.
func (f *Field) Add(x, y byte) byte { return x ^ y }

// Exp returns the base-α exponential of e in the field.
// If e < 0, Exp returns 0.
func (f *Field) Exp(e int) byte {
	if e < 0 {
		return 0
	}
	return f.exp[e%255]
}

// Log returns the base-α logarithm of x in the field.
// It panics if x == 0.
func (f *Field) Log(x byte) int {
	if x == 0 {
		panic("gf256: log of zero")
	}
	return int(f.log[x])
}

// Inv returns the multiplicative inverse of x in the field.
// It panics if x == 0.
func (f *Field) Inv(x byte) byte {
	if x == 0 {
		panic("gf256: inverse of zero")
	}
	return f.exp[255-int(f.log[x])]
}

// Mul returns the product of x and y in the field.
func (f *Field) Mul(x, y byte) byte {
	if x == 0 || y == 0 {
		return 0
	}
	return f.exp[int(f.log[x])+int(f.log[y])]
}

// Zero returns the zero polynomial.
func (f *Field) Zero() *Poly { return f.zero }

// One returns the polynomial 1.
func (f *Field) One() *Poly { return f.one }

// NewPoly returns the polynomial with the given coefficients, highest
// degree first.  The coefficients are copied and leading zeros are
// trimmed.
func (f *Field) NewPoly(coef []byte) (*Poly, error) {
	if len(coef) == 0 {
		return nil, ErrEmptyPoly
	}
	return f.newPoly(append([]byte(nil), coef...)), nil
}

// Monomial returns c·x^degree.  It panics with ErrDegree if degree < 0.
func (f *Field) Monomial(degree int, c byte) *Poly {
	if degree < 0 {
		panic(ErrDegree)
	}
	if c == 0 {
		return f.zero
	}
	coef := make([]byte, degree+1)
	coef[0] = c
	return &Poly{f, coef}
}

// generator returns the Reed-Solomon generator polynomial of the given
// degree, (x - α^base)(x - α^(base+1))...(x - α^(base+degree-1)).
func (f *Field) generator(degree int) *Poly {
	f.genLock.Lock()
	defer f.genLock.Unlock()
	for d := len(f.gen); d <= degree; d++ {
		last := f.gen[d-1]
		f.gen = append(f.gen,
			last.Mul(&Poly{f, []byte{1, f.Exp(d - 1 + f.base)}}))
	}
	return f.gen[degree]
}
