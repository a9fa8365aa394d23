// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import (
	"io"

	"github.com/qrforge/qr/gf256"
)

// Field is the field for QR error correction.
var Field = gf256.NewField(0x11d, 2, 0)

// Bits is a bit buffer.  Bits are written most significant first.
// The zero value is an empty buffer ready to use.
type Bits struct {
	b    []byte
	nbit int
}

// NewBits returns Bits with enough capacity for a QR code of the
// given version and level, including room for interleaving.
func NewBits(v Version, l Level) *Bits {
	n := vtab[v].bytes
	if nblock, _ := v.Blocks(l); nblock > 1 {
		n <<= 1
	}
	return &Bits{b: make([]byte, 0, n)}
}

func (b *Bits) Reset() {
	b.b = b.b[:0]
	b.nbit = 0
}

// Bits returns the number of bits written.
func (b *Bits) Bits() int { return b.nbit }

// Bytes returns the written bytes.  It panics if the number of bits
// written is not a multiple of 8.
func (b *Bits) Bytes() []byte {
	if b.nbit%8 != 0 {
		panic("qr: fractional byte")
	}
	return b.b
}

func (b *Bits) growTo(n int) {
	if cap(b.b) < n {
		nb := make([]byte, len(b.b), n)
		copy(nb, b.b)
		b.b = nb
	}
}

// Grow makes room for n more bytes.
func (b *Bits) Grow(n int) { b.growTo(len(b.b) + n) }

// add adds n zero bytes to byte-aligned b and returns the added slice.
func (b *Bits) add(n int) []byte {
	if b.nbit%8 != 0 {
		panic("qr: fractional byte")
	}
	b.Grow(n)
	start := len(b.b)
	b.b = b.b[:start+n]
	clear(b.b[start:])
	b.nbit = 8 * len(b.b)
	return b.b[start:]
}

// Write writes the low nbit bits of v, 0 <= nbit <= 32.
func (b *Bits) Write(v uint32, nbit int) {
	if nbit <= 0 {
		return
	} else if nbit > 32 {
		panic("qr: bad bit count")
	} else if nbit < 32 {
		v &= 1<<nbit - 1
	}
	v <<= 32 - nbit
	if rem := -b.nbit & 7; rem != 0 {
		b.b[len(b.b)-1] |= byte(v >> (32 - rem))
		if rem >= nbit {
			b.nbit += nbit
			return
		}
		b.nbit += rem
		nbit -= rem
		v <<= rem
	}
	for n := nbit; n > 0; n -= 8 {
		b.b = append(b.b, byte(v>>24))
		v <<= 8
	}
	b.nbit += nbit
}

// WriteByte writes 8 bits of c.  It never fails.
func (b *Bits) WriteByte(c byte) error {
	b.Write(uint32(c), 8)
	return nil
}

// writeBytes writes p to w one byte at a time.
func writeBytes(w io.ByteWriter, p []byte) error {
	for _, c := range p {
		if err := w.WriteByte(c); err != nil {
			return err
		}
	}
	return nil
}

// padTo adds up to t zero terminator bits, zero pads to a byte
// boundary and fills up to n bits with alternating 0xec and 0x11.
// n must be a multiple of 8.
func (b *Bits) padTo(t, n int) {
	if b.nbit > n {
		panic("qr: too much data")
	}
	t = min(t, n-b.nbit)
	b.Write(0, t)
	if r := -b.nbit & 7; r != 0 {
		b.Write(0, r)
	}
	for pad := byte(0xec); b.nbit < n; pad ^= 0xec ^ 0x11 {
		b.WriteByte(pad)
	}
}

// PadTo adds up to t terminator bits to b and pads it to n bits,
// which must be a multiple of 8.
func (b *Bits) PadTo(t, n int) {
	b.growTo((n + 7) >> 3)
	b.padTo(t, n)
}

// AddCheckBytes adds terminator, padding and error correction bytes
// to b for the given QR version and level.  The data blocks followed
// by their error correction blocks are stored in order; Permute
// interleaves them.
func (b *Bits) AddCheckBytes(v Version, l Level) {
	nb := v.DataBits(l)
	if b.nbit > nb {
		panic("qr: too much data")
	}
	vt := &vtab[v]
	b.growTo(vt.bytes)
	b.padTo(4, nb)
	nd := nb >> 3

	nblock, check := v.Blocks(l)
	db := nd / nblock
	short := (db+1)*nblock - nd
	rs := gf256.NewRSEncoder(Field, check)
	dat := b.b[:nd]
	for i := 0; i < nblock; i++ {
		if i == short {
			db++
		}
		rs.ECC(dat[:db], b.add(check))
		dat = dat[db:]
	}
	if len(b.b) != vt.bytes {
		panic("qr: internal error")
	}
}

// interleave interleaves nblock blocks from src to dst, which must be
// of equal length.  Trailing blocks may be one byte longer than the
// leading ones.
func interleave(dst, src []byte, nblock int) {
	db := len(src) / nblock
	extra := dst[db*nblock:]
	dst = dst[:db*nblock]
	short := nblock - len(extra)
	for i := 0; i < nblock; i++ {
		for j, v := range src[:db] {
			dst[j*nblock+i] = v
		}
		src = src[db:]
		if i >= short {
			extra[i-short] = src[0]
			src = src[1:]
		}
	}
}

// deinterleave is the inverse of interleave.
func deinterleave(dst, src []byte, nblock int) {
	db := len(dst) / nblock
	extra := src[db*nblock:]
	short := nblock - len(extra)
	for i := 0; i < nblock; i++ {
		for j := range dst[:db] {
			dst[j] = src[j*nblock+i]
		}
		dst = dst[db:]
		if i >= short {
			dst[0] = extra[i-short]
			dst = dst[1:]
		}
	}
}

// Permute returns a BitStream reading data and checksum bits in b
// with blocks interleaved for the given QR code version and level.
// The BitStream may use the same underlying buffer.
func (b *Bits) Permute(v Version, l Level) BitStream {
	vt := &vtab[v]
	src := b.Bytes()
	if len(src) != vt.bytes {
		panic("qr: wrong data length")
	}
	dst := src
	if nblock, _ := v.Blocks(l); nblock != 1 {
		if cap(src) < len(src)*2 {
			dst = make([]byte, vt.bytes)
		} else {
			dst = src[len(src) : len(src)*2]
		}
		nd := v.DataBytes(l)
		interleave(dst[:nd], src[:nd], nblock)
		interleave(dst[nd:], src[nd:], nblock)
	}
	return NewBitStream(dst)
}

// BitStream reads bits from the underlying buffer.
type BitStream struct {
	b   []byte
	pos int
}

// NewBitStream returns a BitStream reading from b.
func NewBitStream(b []byte) BitStream { return BitStream{b: b} }

// Bytes returns the data underlying s.
func (s *BitStream) Bytes() []byte { return s.b }

// Len returns the number of unread bits.
func (s *BitStream) Len() int { return len(s.b)*8 - s.pos }

// Next returns the next bit from s as 0 or 1.
// Past end of buffer Next returns 0.
func (s *BitStream) Next() byte {
	var b byte
	if i := s.pos >> 3; i < len(s.b) {
		b = s.b[i] >> (7 &^ s.pos) & 1
		s.pos++
	}
	return b
}

// Read returns the next n bits, n <= 32, and whether they were all
// available.
func (s *BitStream) Read(n int) (uint32, bool) {
	if n > s.Len() {
		s.pos = len(s.b) * 8
		return 0, false
	}
	var v uint32
	for ; n > 0; n-- {
		v = v<<1 | uint32(s.Next())
	}
	return v, true
}
