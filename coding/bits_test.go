// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import (
	"io"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/google/go-cmp/cmp"
)

// bitString returns the bits written to b as a string of 0s and 1s.
func bitString(b *Bits) string {
	var s strings.Builder
	for i := 0; i < b.nbit; i++ {
		s.WriteByte('0' + b.b[i>>3]>>(7&^i)&1)
	}
	return s.String()
}

var _ io.ByteWriter = (*Bits)(nil)

func TestWrite(t *testing.T) {
	c := qt.New(t)
	var b Bits
	b.Write(1, 1)
	b.Write(0, 2)
	b.Write(0x2d, 7)
	b.Write(0xffffffff, 32)
	b.Write(0xf0, 4) // only the low bits are written
	c.Assert(b.Bits(), qt.Equals, 46)
	c.Assert(bitString(&b), qt.Equals,
		"100"+"0101101"+strings.Repeat("1", 32)+"0000")
	c.Assert(func() { b.Bytes() }, qt.PanicMatches, "qr: fractional byte")

	b.Reset()
	c.Assert(b.Bits(), qt.Equals, 0)
	c.Assert(writeBytes(&b, []byte("Go")), qt.IsNil)
	c.Assert(b.Bytes(), qt.DeepEquals, []byte("Go"))
}

func TestPadTo(t *testing.T) {
	for _, tt := range []struct {
		name string
		bits string
		n    int
		want []byte
	}{
		{"empty", "", 32, []byte{0, 0xec, 0x11, 0xec}},
		{"short terminator", "1010101", 8, []byte{0xaa}},
		{"full terminator", "1", 24, []byte{0x80, 0xec, 0x11}},
		{"aligned", "11111111", 16, []byte{0xff, 0}},
		{"full", "1111111111111111", 16, []byte{0xff, 0xff}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			var b Bits
			for _, c := range tt.bits {
				b.Write(uint32(c-'0'), 1)
			}
			b.PadTo(4, tt.n)
			if diff := cmp.Diff(tt.want, b.Bytes()); diff != "" {
				t.Errorf("PadTo(4, %d) (-want +got):\n%s", tt.n, diff)
			}
		})
	}
}

func TestAddCheckBytes(t *testing.T) {
	c := qt.New(t)
	b := NewBits(1, M)
	c.Assert(Segment{"HELLO WORLD", Alphanumeric}.Encode(b, Class0), qt.IsNil)
	b.AddCheckBytes(1, M)
	want := []byte{
		32, 91, 11, 120, 209, 114, 220, 77, 67, 64, 236, 17, 236, 17, 236, 17,
		196, 35, 39, 119, 235, 215, 231, 226, 93, 23,
	}
	c.Assert(b.Bytes(), qt.DeepEquals, want)

	b = NewBits(1, L)
	writeBytes(b, make([]byte, Version(1).DataBytes(L)))
	b.Write(0, 1)
	c.Assert(func() { b.AddCheckBytes(1, L) }, qt.PanicMatches, "qr: too much data")
}

func TestInterleave(t *testing.T) {
	c := qt.New(t)
	// 5-Q: 4 blocks of 15, 15, 16 and 16 data bytes.
	nd := Version(5).DataBytes(Q)
	c.Assert(nd, qt.Equals, 62)
	src := make([]byte, nd)
	for i := range src {
		src[i] = byte(i)
	}
	dst := make([]byte, nd)
	interleave(dst, src, 4)
	c.Assert(dst[:5], qt.DeepEquals, []byte{0, 15, 30, 46, 1})
	c.Assert(dst[nd-2:], qt.DeepEquals, []byte{45, 61})

	back := make([]byte, nd)
	deinterleave(back, dst, 4)
	c.Assert(back, qt.DeepEquals, src)
}

func TestPermute(t *testing.T) {
	c := qt.New(t)
	for _, v := range []Version{1, 5, 10, 40} {
		for l := L; l <= H; l++ {
			b := NewBits(v, l)
			b.AddCheckBytes(v, l)
			s := b.Permute(v, l)
			c.Assert(s.Len(), qt.Equals, v.Codewords()*8, qt.Commentf("%v-%v", v, l))
		}
	}
}

func TestBitStreamRead(t *testing.T) {
	c := qt.New(t)
	s := NewBitStream([]byte{0xa5, 0x0f})
	v, ok := s.Read(3)
	c.Assert(ok, qt.IsTrue)
	c.Assert(v, qt.Equals, uint32(5))
	v, ok = s.Read(9)
	c.Assert(ok, qt.IsTrue)
	c.Assert(v, qt.Equals, uint32(0x50))
	c.Assert(s.Len(), qt.Equals, 4)
	_, ok = s.Read(5)
	c.Assert(ok, qt.IsFalse)
	c.Assert(s.Len(), qt.Equals, 0)
	c.Assert(s.Next(), qt.Equals, byte(0))
}
