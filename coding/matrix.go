// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

// A Module is the state of one cell of a Matrix.
type Module byte

const (
	Light    Module = 0
	Dark     Module = 1
	Reserved Module = 2 // function pattern flag, combined with Light or Dark
)

// A Matrix is a square grid of modules.  The zero value is not usable;
// use NewMatrix or Plan.Matrix.
type Matrix struct {
	Size int // number of modules on a side
	m    []Module
}

// NewMatrix returns an empty Matrix with size modules on a side.
func NewMatrix(size int) *Matrix {
	return &Matrix{Size: size, m: make([]Module, size*size)}
}

// At returns the module at column x, row y.
func (m *Matrix) At(x, y int) Module { return m.m[y*m.Size+x] }

// Black reports whether the module at (x, y) is dark.
// Modules outside the matrix are light.
func (m *Matrix) Black(x, y int) bool {
	return 0 <= x && x < m.Size && 0 <= y && y < m.Size &&
		m.m[y*m.Size+x]&Dark != 0
}

// IsReserved reports whether the module at (x, y) is part of a
// function pattern.
func (m *Matrix) IsReserved(x, y int) bool { return m.m[y*m.Size+x]&Reserved != 0 }

// set sets a data module.
func (m *Matrix) set(x, y int, dark bool) {
	var v Module
	if dark {
		v = Dark
	}
	m.m[y*m.Size+x] = v
}

// reserve sets a function pattern module.
func (m *Matrix) reserve(x, y int, dark bool) {
	v := Reserved
	if dark {
		v |= Dark
	}
	m.m[y*m.Size+x] = v
}

// Clone returns a copy of m.
func (m *Matrix) Clone() *Matrix {
	return &Matrix{Size: m.Size, m: append([]Module(nil), m.m...)}
}

// maskBit reports whether mask inverts the module at column x, row y.
func maskBit(mask, x, y int) bool {
	switch mask {
	case 0:
		return (x+y)%2 == 0
	case 1:
		return y%2 == 0
	case 2:
		return x%3 == 0
	case 3:
		return (x+y)%3 == 0
	case 4:
		return (x/3+y/2)%2 == 0
	case 5:
		return x*y%2+x*y%3 == 0
	case 6:
		return (x*y%2+x*y%3)%2 == 0
	case 7:
		return ((x+y)%2+x*y%3)%2 == 0
	}
	panic("qr: invalid mask")
}

// ApplyMask inverts the data modules selected by mask.  Applying the
// same mask twice restores the matrix.
func (m *Matrix) ApplyMask(mask int) {
	for y := 0; y < m.Size; y++ {
		row := m.m[y*m.Size : (y+1)*m.Size]
		for x, v := range row {
			if v&Reserved == 0 && maskBit(mask, x, y) {
				row[x] = v ^ Dark
			}
		}
	}
}

// formatCoords returns the positions of format bit i in both copies.
func formatCoords(size, i int) (a, b [2]int) {
	switch {
	case i < 6:
		a = [2]int{8, i}
	case i < 8:
		a = [2]int{8, i + 1}
	case i == 8:
		a = [2]int{7, 8}
	default:
		a = [2]int{14 - i, 8}
	}
	if i < 8 {
		b = [2]int{size - 1 - i, 8}
	} else {
		b = [2]int{8, size - 15 + i}
	}
	return a, b
}

// writeFormat writes 15 format bits to both copies and sets the dark
// module.
func (m *Matrix) writeFormat(bits uint16) {
	for i := 0; i < 15; i++ {
		a, b := formatCoords(m.Size, i)
		bit := bits>>i&1 != 0
		m.reserve(a[0], a[1], bit)
		m.reserve(b[0], b[1], bit)
	}
	m.reserve(8, m.Size-8, true)
}

// readFormat returns both copies of the format bits.
func (m *Matrix) readFormat() (uint16, uint16) {
	var fa, fb uint16
	for i := 0; i < 15; i++ {
		a, b := formatCoords(m.Size, i)
		if m.Black(a[0], a[1]) {
			fa |= 1 << i
		}
		if m.Black(b[0], b[1]) {
			fb |= 1 << i
		}
	}
	return fa, fb
}

// WriteFormat writes the format information for level l and mask.
func (m *Matrix) WriteFormat(l Level, mask int) { m.writeFormat(FormatBits(l, mask)) }

// WriteVersion writes the version information for v, if any.
func (m *Matrix) WriteVersion(v Version) {
	if v < 7 {
		return
	}
	bits := VersionBits(v)
	for i := 0; i < 18; i++ {
		a, b := m.Size-11+i%3, i/3
		bit := bits>>i&1 != 0
		m.reserve(a, b, bit)
		m.reserve(b, a, bit)
	}
}

// readVersion returns both copies of the version bits.
func (m *Matrix) readVersion() (uint32, uint32) {
	var va, vb uint32
	for i := 0; i < 18; i++ {
		a, b := m.Size-11+i%3, i/3
		if m.Black(a, b) {
			va |= 1 << i
		}
		if m.Black(b, a) {
			vb |= 1 << i
		}
	}
	return va, vb
}

// Penalty returns the penalty value used for choosing the mask.
//
// Total penalty is the sum of penalties for runs and boxes
// of same-colour modules, finder patterns and colour balance.
//
//   - RunP: for non-overlapping runs of n modules, n>=5 -> n-2
//   - BoxP: for possibly overlapping 2x2 boxes -> 3
//   - FindP: for possibly overlapping finder patterns -> 40
//     The pattern is 1011101 with 0000 on one side and 0 on the
//     other; may extend into the quiet zone
//   - BalP: for n% of dark modules -> 10*(ceiling(abs(n-50)/5)-1)
//
// https://www.nayuki.io/page/creating-a-qr-code-step-by-step
func (m *Matrix) Penalty() int {
	const (
		BoxPP = 3  // BoxP:  points per box
		BalPP = 10 // BalP:  10 points for every 5%
	)
	siz := m.Size
	p := 0
	for i := 0; i < siz; i++ {
		p += m.linePenalty(i*siz, 1) // row
		p += m.linePenalty(i, siz)   // column
	}

	dark := 0
	for y := 0; y < siz; y++ {
		for x := 0; x < siz; x++ {
			c := m.m[y*siz+x] & Dark
			dark += int(c)
			if x > 0 && y > 0 &&
				c == m.m[y*siz+x-1]&Dark &&
				c == m.m[(y-1)*siz+x]&Dark &&
				c == m.m[(y-1)*siz+x-1]&Dark {
				p += BoxPP // BoxP
			}
		}
	}

	// The number of modules is odd, so the balance is never exactly
	// 50% and k is not negative.
	total := siz * siz
	d := dark*20 - total*10
	if d < 0 {
		d = -d
	}
	k := (d+total-1)/total - 1
	return p + k*BalPP
}

// linePenalty returns RunP and FindP for the line of modules starting
// at offset off with the given step.
func (m *Matrix) linePenalty(off, step int) int {
	const (
		MinRun    = 5  // RunP:  miniumum run length
		RunPDelta = -2 // RunP:  add to run length
		FindPP    = 40 // FindP: points per pattern

		// finder patterns in the last 12 modules
		FindB = 0b0000_1011101_0 // quiet zone before
		FindA = 0b0_1011101_0000 // quiet zone after
		Last  = 1<<12 - 1
	)
	p := 0
	pat := 0 // last 12 modules, starting in the light quiet zone
	run, last := 0, Reserved
	for j := 0; j < m.Size+4; j++ {
		c := Light
		if j < m.Size {
			c = m.m[off+j*step] & Dark
			if c == last {
				run++
			} else {
				if run >= MinRun {
					p += run + RunPDelta // RunP
				}
				run, last = 1, c
			}
		}
		pat = (pat<<1 | int(c)) & Last
		if pat == FindB || pat == FindA {
			p += FindPP // FindP
		}
	}
	if run >= MinRun {
		p += run + RunPDelta // RunP
	}
	return p
}

// bestMask returns the mask with the lowest score.
// The lowest mask wins a tie.
func bestMask(score func(mask int) int) int {
	best, low := 0, score(0)
	for mask := 1; mask < 8; mask++ {
		if p := score(mask); p < low {
			best, low = mask, p
		}
	}
	return best
}

// Code returns the packed bitmap of m.
func (m *Matrix) Code() *Code {
	siz := m.Size
	stride := (siz + 7) >> 3
	c := &Code{Size: siz, Stride: stride, Bitmap: make([]byte, siz*stride)}
	for y := 0; y < siz; y++ {
		for x := 0; x < siz; x++ {
			if m.m[y*siz+x]&Dark != 0 {
				c.Bitmap[y*stride+x>>3] |= 0x80 >> (x & 7)
			}
		}
	}
	return c
}

// A Code is a square pixel grid.
type Code struct {
	Bitmap []byte // 1 is black, 0 is white
	Size   int    // number of pixels on a side
	Stride int    // number of bytes per row

	Version Version
	Level   Level
	Mask    int
}

// Black reports whether the pixel at (x, y) is black.
// Pixels outside the code are white.
func (c *Code) Black(x, y int) bool {
	return 0 <= x && x < c.Size && 0 <= y && y < c.Size &&
		c.Bitmap[y*c.Stride+x/8]&(1<<uint(7&^x)) != 0
}

// matrix returns the modules of c without function pattern flags.
func (c *Code) matrix() *Matrix {
	m := NewMatrix(c.Size)
	for y := 0; y < c.Size; y++ {
		for x := 0; x < c.Size; x++ {
			m.set(x, y, c.Black(x, y))
		}
	}
	return m
}
