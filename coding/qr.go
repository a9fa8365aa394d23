// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package coding implements low-level QR coding details.
package coding // import "github.com/qrforge/qr/coding"

import (
	"errors"
	"fmt"
	"sync"
)

// ErrMask is returned for a mask pattern outside 0-7.
var ErrMask = errors.New("qr: invalid mask")

// A Plan describes how to construct a QR code
// with a specific version and level.
type Plan struct {
	Version Version // QR code version
	Level   Level   // QR error correction Level

	DataBits int // number of data bits
	Size     int // number of modules on a side

	fixed *Matrix // function patterns; read only
}

// NewPlan returns a Plan for a QR code with the given version and level.
func NewPlan(version Version, level Level) (*Plan, error) {
	if !version.IsValid() {
		return nil, ErrVersion
	}
	if !level.IsValid() {
		return nil, ErrLevel
	}
	return &Plan{
		Version:  version,
		Level:    level,
		DataBits: version.DataBits(level),
		Size:     version.Size(),
		fixed:    fixedPatterns(version),
	}, nil
}

// Function patterns.  A matrix is created the first time a version
// is used and never modified afterwards.
var fixed [MaxVersion + 1]struct {
	once sync.Once
	m    *Matrix
}

func fixedPatterns(v Version) *Matrix {
	p := &fixed[v]
	p.once.Do(func() { p.m = vplan(v) })
	return p.m
}

// vplan draws the function patterns for version v.  The format
// information areas are reserved and left light.
func vplan(v Version) *Matrix {
	siz := v.Size()
	m := NewMatrix(siz)

	// Timing patterns (overwritten by boxes).
	for i := 0; i < siz; i++ {
		m.reserve(6, i, i%2 == 0)
		m.reserve(i, 6, i%2 == 0)
	}

	// Position boxes with separators.
	for _, c := range [3][2]int{{3, 3}, {siz - 4, 3}, {3, siz - 4}} {
		for dy := -4; dy <= 4; dy++ {
			for dx := -4; dx <= 4; dx++ {
				x, y := c[0]+dx, c[1]+dy
				if 0 <= x && x < siz && 0 <= y && y < siz {
					d := max(abs(dx), abs(dy))
					m.reserve(x, y, d != 2 && d != 4)
				}
			}
		}
	}

	// Alignment boxes, except where they would overlap position boxes.
	pos := v.alignment()
	last := len(pos) - 1
	for i, y := range pos {
		for j, x := range pos {
			if i == 0 && (j == 0 || j == last) || i == last && j == 0 {
				continue
			}
			for dy := -2; dy <= 2; dy++ {
				for dx := -2; dx <= 2; dx++ {
					m.reserve(x+dx, y+dy, max(abs(dx), abs(dy)) != 1)
				}
			}
		}
	}

	m.writeFormat(0) // also one lonely black pixel
	m.WriteVersion(v)
	return m
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Matrix returns a new Matrix with the function patterns of p and
// no data.
func (p *Plan) Matrix() *Matrix { return p.fixed.Clone() }

// walk calls fn for each data module of p in zigzag scan order:
// column pairs from right to left, alternately upwards and downwards,
// skipping function patterns and the vertical timing pattern.
func (p *Plan) walk(fn func(x, y int)) {
	siz := p.Size
	for right := siz - 1; right >= 1; right -= 2 {
		if right == 6 { // vertical timing strip
			right = 5
		}
		upward := (right+1)&2 == 0
		for vert := 0; vert < siz; vert++ {
			y := vert
			if upward {
				y = siz - 1 - vert
			}
			for x := right; x > right-2; x-- {
				if !p.fixed.IsReserved(x, y) {
					fn(x, y)
				}
			}
		}
	}
}

// Serialise writes bits from s to the data modules of m in zigzag
// scan order.  Modules left over after s is exhausted are light.
// Serialise panics if s doesn't fit.
func (p *Plan) Serialise(s BitStream, m *Matrix) {
	p.walk(func(x, y int) {
		m.set(x, y, s.Next() != 0)
	})
	if s.Len() != 0 {
		panic("qr: too much data")
	}
}

// Encoder encodes a QR code.  Code and CodeMask may be called more
// than once; Reset discards the data written so far.
type Encoder struct {
	p *Plan
	b *Bits
	m *Matrix // last finished matrix
}

func newEncoder(p *Plan) *Encoder {
	return &Encoder{p: p, b: NewBits(p.Version, p.Level)}
}

// NewEncoder returns an Encoder for the given version and level.
func NewEncoder(version Version, level Level) (*Encoder, error) {
	p, err := NewPlan(version, level)
	if err != nil {
		return nil, err
	}
	return newEncoder(p), nil
}

// Write adds text to e.  Segments are validated, and their character
// counts checked, before any is written.
func (e *Encoder) Write(text ...Segment) error {
	class := e.p.Version.SizeClass()
	for _, t := range text {
		if !t.IsValid() {
			return SegmentError(t)
		}
		if err := t.checkCount(class); err != nil {
			return err
		}
	}
	for _, t := range text {
		if err := t.Encode(e.b, class); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) Reset() {
	e.b.Reset()
	e.m = nil
}

// data returns the unmasked matrix with data written to e.
// The data in e is left as is.
func (e *Encoder) data() (*Matrix, error) {
	if e.b.Bits() > e.p.DataBits {
		return nil, &CapacityError{
			Version: e.p.Version,
			Level:   e.p.Level,
			Bits:    e.b.Bits(),
			Max:     e.p.DataBits,
		}
	}
	b := NewBits(e.p.Version, e.p.Level)
	b.b = append(b.b, e.b.b...)
	b.nbit = e.b.nbit
	b.AddCheckBytes(e.p.Version, e.p.Level)
	bits := b.Permute(e.p.Version, e.p.Level)
	// Now we have the checksum bytes and the data bytes.
	// Construct the matrix consisting of data and checksum bits.
	m := e.p.Matrix()
	e.p.Serialise(bits, m)
	return m, nil
}

// finish masks m and writes the format information.
func (e *Encoder) finish(m *Matrix, mask int) *Code {
	m.ApplyMask(mask)
	m.WriteFormat(e.p.Level, mask)
	e.m = m
	c := m.Code()
	c.Version, c.Level, c.Mask = e.p.Version, e.p.Level, mask
	return c
}

// Code returns a QR code containing data written to e.
// The mask with the smallest penalty is chosen.
func (e *Encoder) Code() (*Code, error) {
	m, err := e.data()
	if err != nil {
		return nil, err
	}
	mask := bestMask(func(mask int) int { return penalty(m, e.p.Level, mask) })
	return e.finish(m, mask), nil
}

// Matrix returns the finished matrix of the last code returned by
// Code or CodeMask, with function patterns flagged Reserved, or nil
// if there is none.  The caller must not modify it.
func (e *Encoder) Matrix() *Matrix { return e.m }

// penalty returns the penalty of unmasked m with mask applied and
// format information written.
func penalty(m *Matrix, l Level, mask int) int {
	c := m.Clone()
	c.ApplyMask(mask)
	c.WriteFormat(l, mask)
	return c.Penalty()
}

// CodeMask is like Code, but uses the given mask.
func (e *Encoder) CodeMask(mask int) (*Code, error) {
	if mask < 0 || mask > 7 {
		return nil, ErrMask
	}
	m, err := e.data()
	if err != nil {
		return nil, err
	}
	return e.finish(m, mask), nil
}

// Encode is a wrapper around Write and Code.
func (e *Encoder) Encode(text ...Segment) (*Code, error) {
	if err := e.Write(text...); err != nil {
		return nil, err
	}
	return e.Code()
}

// Encode encodes text using a Plan.
func (p *Plan) Encode(text ...Segment) (*Code, error) {
	return newEncoder(p).Encode(text...)
}

// Encode encodes text using an Encoder with the given version and level.
func Encode(version Version, level Level, text ...Segment) (*Code, error) {
	e, err := NewEncoder(version, level)
	if err != nil {
		return nil, err
	}
	return e.Encode(text...)
}

// Penalties returns the penalty of each mask for text encoded with the
// given version and level.
func Penalties(version Version, level Level, text ...Segment) ([8]int, error) {
	var pen [8]int
	e, err := NewEncoder(version, level)
	if err != nil {
		return pen, err
	}
	if err := e.Write(text...); err != nil {
		return pen, err
	}
	m, err := e.data()
	if err != nil {
		return pen, fmt.Errorf("penalties: %w", err)
	}
	for mask := range pen {
		pen[mask] = penalty(m, level, mask)
	}
	return pen, nil
}
