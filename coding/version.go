// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrLevel    = errors.New("qr: invalid level")
	ErrVersion  = errors.New("qr: invalid version")
	ErrCapacity = errors.New("qr: data too long")
)

// A Version represents a QR version.
// The version specifies the size of the QR code:
// a QR code with version v has 4v+17 pixels on a side.
// Versions run from 1 to 40: the larger the version,
// the more information the code can store.
type Version int

const (
	MinVersion Version = 1  // Minimum QR version
	MaxVersion Version = 40 // Maximum QR version
)

func (v Version) String() string { return strconv.Itoa(int(v)) }

// IsValid reports whether v is between MinVersion and MaxVersion.
func (v Version) IsValid() bool { return MinVersion <= v && v <= MaxVersion }

// QR version size classes.  The size class determines the length of
// character count fields.
const (
	Class0 = iota // QR versions 1 to 9
	Class1        // QR versions 10 to 26
	Class2        // QR versions 27 to 40
)

// SizeClass returns the size class of v, as documented under Class0.
func (v Version) SizeClass() int {
	if v <= 9 {
		return Class0
	}
	if v <= 26 {
		return Class1
	}
	return Class2
}

// Size returns the number of modules on a side of a QR code of version v.
func (v Version) Size() int { return int(v)*4 + 17 }

// Codewords returns the total number of data and error correction
// codewords in a QR code of version v.
func (v Version) Codewords() int { return vtab[v].bytes }

// DataBytes returns the number of data bytes that can be
// stored in a QR code with the given version and level.
func (v Version) DataBytes(l Level) int {
	vt := &vtab[v]
	lev := vt.level[l]
	return vt.bytes - lev.nblock*lev.check
}

// DataBits returns the number of data bits that can be
// stored in a QR code with the given version and level.
func (v Version) DataBits(l Level) int { return v.DataBytes(l) * 8 }

// Blocks returns the number of error correction blocks and the number
// of error correction codewords per block for the given version and
// level.
func (v Version) Blocks(l Level) (nblock, check int) {
	lev := vtab[v].level[l]
	return lev.nblock, lev.check
}

// alignment returns the row and column coordinates of alignment
// pattern centres, including 6 for the ones that clash with timing
// patterns.  Version 1 has none.
func (v Version) alignment() []int {
	vt := &vtab[v]
	if vt.apos == 0 {
		return nil
	}
	pos := []int{6}
	for p := vt.apos; ; p += vt.astride {
		pos = append(pos, p)
		if vt.astride == 0 || p >= v.Size()-7 {
			break
		}
	}
	return pos
}

// A Level represents a QR error correction level.
// From least to most tolerant of errors, they are L, M, Q, H.
type Level int

const (
	L Level = iota // 20% redundant
	M              // 38% redundant
	Q              // 55% redundant
	H              // 65% redundant
)

func (l Level) String() string {
	if L <= l && l <= H {
		return "LMQH"[l : l+1]
	}
	return strconv.Itoa(int(l))
}

// IsValid reports whether l is one of L, M, Q and H.
func (l Level) IsValid() bool { return L <= l && l <= H }

// A Selection describes the version and level chosen for some data.
type Selection struct {
	Version       Version
	Level         Level
	Bits          int // encoded data length in bits
	DataCodewords int // data codeword capacity
	ECPerBlock    int // error correction codewords per block
	Blocks        int // number of error correction blocks
}

// CapacityError is returned when data doesn't fit in a QR code.
// It matches ErrCapacity with errors.Is.
type CapacityError struct {
	Version Version // largest version tried
	Level   Level
	Bits    int // required bits, or 0 if a character count overflows
	Max     int // available bits
}

func (e *CapacityError) Error() string {
	if e.Bits == 0 {
		return fmt.Sprintf("qr: segment too long for version %v-%v",
			e.Version, e.Level)
	}
	return fmt.Sprintf("qr: cannot encode %d bits into %d-bit code %v-%v",
		e.Bits, e.Max, e.Version, e.Level)
}

func (e *CapacityError) Is(target error) bool { return target == ErrCapacity }

// Choose returns the smallest version that fits segs at level l.
// If pinned is not zero, only that version is considered and a
// CapacityError is returned if segs don't fit.  The segments are
// validated first; an invalid segment results in a SegmentError.
func Choose(l Level, pinned Version, segs ...Segment) (Selection, error) {
	if pinned != 0 {
		return ChooseRange(l, pinned, pinned, segs...)
	}
	return ChooseRange(l, MinVersion, MaxVersion, segs...)
}

// ChooseRange is like Choose, but tries versions from lo to hi.
func ChooseRange(l Level, lo, hi Version, segs ...Segment) (Selection, error) {
	if !l.IsValid() {
		return Selection{}, ErrLevel
	}
	if !lo.IsValid() || !hi.IsValid() || lo > hi {
		return Selection{}, ErrVersion
	}
	for _, seg := range segs {
		if !seg.IsValid() {
			return Selection{}, SegmentError(seg)
		}
	}
	var err *CapacityError
	class := -1
	need := 0
	for v := lo; v <= hi; v++ {
		if c := v.SizeClass(); c != class {
			class = c
			need = segsLength(segs, class)
		}
		have := v.DataBits(l)
		if need >= 0 && need <= have {
			nblock, check := v.Blocks(l)
			return Selection{
				Version:       v,
				Level:         l,
				Bits:          need,
				DataCodewords: v.DataBytes(l),
				ECPerBlock:    check,
				Blocks:        nblock,
			}, nil
		}
		err = &CapacityError{Version: v, Level: l, Bits: max(need, 0), Max: have}
	}
	return Selection{}, err
}

// segsLength returns the encoded length of segs in size class class,
// or -1 if a character count doesn't fit in its field.
func segsLength(segs []Segment, class int) int {
	n := 0
	for _, seg := range segs {
		if !seg.fits(class) {
			return -1
		}
		n += seg.EncodedLength(class)
	}
	return n
}

// FormatBits returns the 15 bit format information for level l and
// the given mask: 2 bits of level, 3 bits of mask and a BCH(15,5)
// code, XORed with 0x5412.
func FormatBits(l Level, mask int) uint16 {
	const gen = 0x537
	data := uint32(l^1)<<3 | uint32(mask&7) // L=01, M=00, Q=11, H=10
	rem := data << 10
	for i := 14; i >= 10; i-- {
		if rem>>i&1 != 0 {
			rem ^= gen << (i - 10)
		}
	}
	return uint16(data<<10|rem) ^ 0x5412
}

// VersionBits returns the 18 bit version information for v:
// 6 bits of version and a BCH(18,6) code.
// It returns 0 for versions below 7, which carry none.
func VersionBits(v Version) uint32 {
	if v < 7 {
		return 0
	}
	const gen = 0x1f25
	rem := uint32(v) << 12
	for i := 17; i >= 12; i-- {
		if rem>>i&1 != 0 {
			rem ^= gen << (i - 12)
		}
	}
	return uint32(v)<<12 | rem
}
