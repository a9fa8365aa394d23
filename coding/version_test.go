// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import (
	"errors"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/google/go-cmp/cmp"
)

func TestCapacity(t *testing.T) {
	c := qt.New(t)
	c.Check(Version(1).DataBytes(M), qt.Equals, 16)
	c.Check(Version(1).DataBytes(L), qt.Equals, 19)
	c.Check(Version(1).DataBytes(H), qt.Equals, 9)
	c.Check(Version(40).DataBytes(L), qt.Equals, 2956)
	c.Check(Version(40).DataBytes(H), qt.Equals, 1276)
	c.Check(Version(40).DataBits(L), qt.Equals, 2956*8)
	for v := MinVersion; v <= MaxVersion; v++ {
		for l := L; l <= H; l++ {
			nblock, check := v.Blocks(l)
			nd := v.DataBytes(l)
			c.Assert(nd > 0 && nd+nblock*check == v.Codewords(), qt.IsTrue,
				qt.Commentf("%v-%v: %d data bytes in %d blocks", v, l, nd, nblock))
			if l > L {
				c.Assert(nd < v.DataBytes(l-1), qt.IsTrue, qt.Commentf("%v-%v", v, l))
			}
		}
	}
}

func TestSizeClass(t *testing.T) {
	c := qt.New(t)
	for v, want := range map[Version]int{1: Class0, 9: Class0, 10: Class1,
		26: Class1, 27: Class2, 40: Class2} {
		c.Check(v.SizeClass(), qt.Equals, want, qt.Commentf("version %v", v))
	}
	c.Check(Version(1).Size(), qt.Equals, 21)
	c.Check(Version(40).Size(), qt.Equals, 177)
}

func TestAlignment(t *testing.T) {
	for v, want := range map[Version][]int{
		1:  nil,
		2:  {6, 18},
		6:  {6, 34},
		7:  {6, 22, 38},
		14: {6, 26, 46, 66},
		32: {6, 34, 60, 86, 112, 138},
		36: {6, 24, 50, 76, 102, 128, 154},
		40: {6, 30, 58, 86, 114, 142, 170},
	} {
		if diff := cmp.Diff(want, v.alignment()); diff != "" {
			t.Errorf("version %v alignment (-want +got):\n%s", v, diff)
		}
	}
}

func TestChoose(t *testing.T) {
	c := qt.New(t)
	sel, err := Choose(M, 0, Segment{"HELLO WORLD", Alphanumeric})
	c.Assert(err, qt.IsNil)
	c.Assert(sel, qt.DeepEquals, Selection{
		Version:       1,
		Level:         M,
		Bits:          74,
		DataCodewords: 16,
		ECPerBlock:    10,
		Blocks:        1,
	})

	// 1-L holds 41 digits, 2-L 77.
	sel, err = Choose(L, 0, Segment{strings.Repeat("7", 41), Numeric})
	c.Assert(err, qt.IsNil)
	c.Assert(sel.Version, qt.Equals, Version(1))
	sel, err = Choose(L, 0, Segment{strings.Repeat("7", 42), Numeric})
	c.Assert(err, qt.IsNil)
	c.Assert(sel.Version, qt.Equals, Version(2))

	// The header grows with the size class.
	sel, err = Choose(L, 0, Segment{strings.Repeat("x", 230), Byte})
	c.Assert(err, qt.IsNil)
	c.Assert(sel.Version, qt.Equals, Version(9))
	sel, err = Choose(L, 0, Segment{strings.Repeat("x", 231), Byte})
	c.Assert(err, qt.IsNil)
	c.Assert(sel.Version, qt.Equals, Version(10))

	sel, err = Choose(Q, 0)
	c.Assert(err, qt.IsNil)
	c.Assert(sel.Version, qt.Equals, Version(1))
	c.Assert(sel.Bits, qt.Equals, 0)
}

func TestChooseErrors(t *testing.T) {
	c := qt.New(t)
	_, err := Choose(H, 1, Segment{strings.Repeat("A", 100), Alphanumeric})
	c.Assert(errors.Is(err, ErrCapacity), qt.IsTrue)
	var ce *CapacityError
	c.Assert(errors.As(err, &ce), qt.IsTrue)
	c.Assert(*ce, qt.Equals, CapacityError{Version: 1, Level: H, Bits: 4 + 9 + 550, Max: 72})
	c.Assert(err, qt.ErrorMatches, `qr: cannot encode 563 bits into 72-bit code 1-H`)

	_, err = Choose(L, 0, Segment{strings.Repeat("x", 2954), Byte})
	c.Assert(err, qt.ErrorMatches, `qr: cannot encode 23652 bits into 23648-bit code 40-L`)
	_, err = Choose(L, 0, Segment{strings.Repeat("x", 2953), Byte})
	c.Assert(err, qt.IsNil)

	_, err = Choose(L, 0, Segment{"a", Numeric})
	c.Assert(err, qt.Equals, error(SegmentError{"a", Numeric}))
	_, err = Choose(Level(4), 0)
	c.Assert(err, qt.Equals, ErrLevel)
	_, err = Choose(L, 41)
	c.Assert(err, qt.Equals, ErrVersion)
	_, err = ChooseRange(L, 10, 9)
	c.Assert(err, qt.Equals, ErrVersion)
}

func TestFormatBits(t *testing.T) {
	c := qt.New(t)
	c.Check(FormatBits(L, 4), qt.Equals, uint16(0x662f))
	c.Check(FormatBits(M, 0), qt.Equals, uint16(0x5412))
	c.Check(FormatBits(H, 7), qt.Equals, uint16(0x083b))
	seen := map[uint16]bool{}
	for l := L; l <= H; l++ {
		for mask := 0; mask < 8; mask++ {
			f := FormatBits(l, mask)
			c.Assert(f>>15, qt.Equals, uint16(0))
			c.Assert(seen[f], qt.IsFalse)
			seen[f] = true
			gl, gm, ok := bestFormat(f^0x0111, f^0x4000)
			c.Assert(ok, qt.IsTrue)
			c.Assert(gl, qt.Equals, l)
			c.Assert(gm, qt.Equals, mask)
		}
	}
}

func TestVersionBits(t *testing.T) {
	c := qt.New(t)
	c.Check(VersionBits(6), qt.Equals, uint32(0))
	c.Check(VersionBits(7), qt.Equals, uint32(0x07c94))
	c.Check(VersionBits(21), qt.Equals, uint32(0x15683))
	c.Check(VersionBits(40), qt.Equals, uint32(0x28c69))
}
