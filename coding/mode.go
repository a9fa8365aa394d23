// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
)

// A Mode is a QR segment encoding mode.
type Mode int8

// Encoding modes.  Latin1 and ShiftJISKanji are written as byte and
// kanji mode segments respectively; they differ in how Text is read.
const (
	Numeric       Mode = iota // numeric mode, ASCII digits
	Alphanumeric              // alphanumeric mode, ASCII-compatible text
	Byte                      // byte mode, any data
	Kanji                     // kanji mode, UTF-8 text
	Latin1                    // byte mode, UTF-8 text encoded as ISO 8859-1
	ShiftJISKanji             // kanji mode, Shift JIS text
	numModes
)

var modeNames = [numModes]string{
	"numeric", "alphanumeric", "byte", "kanji", "latin-1", "shift-jis-kanji",
}

func (mode Mode) String() string {
	if mode.isValid() {
		return modeNames[mode]
	}
	return strconv.Itoa(int(mode))
}

func (mode Mode) isValid() bool { return 0 <= mode && mode < numModes }

// wire returns the mode written in the segment header.
func (mode Mode) wire() Mode {
	switch mode {
	case Latin1:
		return Byte
	case ShiftJISKanji:
		return Kanji
	}
	return mode
}

// Indicator returns the 4 bit mode indicator of mode.
func (mode Mode) Indicator() uint32 {
	return [...]uint32{Numeric: 1, Alphanumeric: 2, Byte: 4, Kanji: 8}[mode.wire()]
}

// countLength lists lengths of the character count field in the three
// QR version size classes.
var countLength = [Kanji + 1][3]int{
	Numeric:      {10, 12, 14},
	Alphanumeric: {9, 11, 13},
	Byte:         {8, 16, 16},
	Kanji:        {8, 10, 12},
}

// CountLength returns the length of the character count field of mode
// in the given QR version size class.
func (mode Mode) CountLength(class int) int {
	return countLength[mode.wire()][class]
}

// Length returns the length in bits of a valid string of the given
// length in bytes and runes encoded in mode at the given QR version
// size class, including the header.  Length returns 0 if and only if
// mode is invalid.
func (mode Mode) Length(bytes, runes, class int) int {
	var n int
	switch mode {
	case Numeric:
		n = (10*bytes + 2) / 3
	case Alphanumeric:
		n = (11*bytes + 1) / 2
	case Byte:
		n = bytes * 8
	case Kanji:
		n = runes * 13
	case Latin1:
		n = runes * 8
	case ShiftJISKanji:
		n = bytes >> 1 * 13
	default:
		return 0
	}
	return 4 + mode.CountLength(class) + n
}

const alphamask uint64 = 0x07fffffe_07ffec31 // SPACE $% *+ -./ [0-9] : [A-Z]

// Alphanumeric encoding table.  Used after validation.
// "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ $%*+-./:"
var alpha = [64]byte{
	00, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24, // 0x40
	25, 26, 27, 28, 29, 30, 31, 32, 33, 34, 35, 00, 00, 00, 00, 00, // 0x50
	36, 00, 00, 00, 37, 38, 00, 00, 00, 00, 39, 40, 00, 41, 42, 43, // 0x20
	00, 01, 02, 03, 04, 05, 06, 07, 010, 9, 44, 00, 00, 00, 00, 00, // 0x30
}

// alphaChars is the alphanumeric alphabet in encoding order.
const alphaChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ $%*+-./:"

// kanjiValue returns the 13 bit kanji mode value of the Shift JIS
// code c, or -1 if c is not encodable in kanji mode.
func kanjiValue(c uint16) int {
	var d uint16
	switch {
	case 0x8140 <= c && c <= 0x9ffc:
		d = c - 0x8140
	case 0xe040 <= c && c <= 0xebbf:
		d = c - 0xc140
	default:
		return -1
	}
	if lo := c & 0xff; lo < 0x40 || lo == 0x7f || lo > 0xfc {
		return -1
	}
	return int(d>>8)*0xc0 + int(d&0xff)
}

// kanjiCode is the inverse of kanjiValue.
func kanjiCode(v uint32) uint16 {
	c := uint16(v/0xc0)<<8 | uint16(v%0xc0)
	if c < 0x1f00 {
		return c + 0x8140
	}
	return c + 0xc140
}

// sjisCode returns the Shift JIS code of r if it is a double byte
// character.
func sjisCode(r rune) (uint16, bool) {
	if r < 0x80 || r == utf8.RuneError {
		return 0, false
	}
	var src [utf8.UTFMax]byte
	var dst [4]byte
	n := utf8.EncodeRune(src[:], r)
	nd, _, err := japanese.ShiftJIS.NewEncoder().Transform(dst[:], src[:n], true)
	if err != nil || nd != 2 {
		return 0, false
	}
	return uint16(dst[0])<<8 | uint16(dst[1]), true
}

// IsKanji reports whether the Unicode rune r belongs to the QR Kanji
// subset of JIS X 0208.
func IsKanji(r rune) bool {
	c, ok := sjisCode(r)
	return ok && kanjiValue(c) >= 0
}

// Is reports whether r is encodable in mode.  For ShiftJISKanji,
// r is a double byte code with the first byte in bits 8-15.
func Is(r rune, mode Mode) bool {
	switch mode {
	case Numeric:
		return uint32(r-'0') < 10
	case Alphanumeric:
		return alphamask>>(uint32(r)-' ')&1 != 0
	case Byte:
		return true
	case Kanji:
		return IsKanji(r)
	case Latin1:
		return uint32(r) < 0x100
	case ShiftJISKanji:
		return 0 <= r && r <= 0xffff && kanjiValue(uint16(r)) >= 0
	}
	return false
}

// A Segment describes a QR code segment.
type Segment struct {
	Text string // data to encode
	Mode Mode   // encoding mode
}

// SegmentError represents an invalid Segment.
type SegmentError Segment

func (e SegmentError) Error() string {
	if e.Mode.isValid() {
		return fmt.Sprintf("qr: non-%s string %#q", e.Mode, e.Text)
	}
	return fmt.Sprintf("qr: invalid mode %d", e.Mode)
}

// IsValid reports whether seg is encodable.
func (seg Segment) IsValid() bool {
	s := seg.Text
	switch seg.Mode {
	case Numeric, Alphanumeric:
		for i := 0; i < len(s); i++ {
			if !Is(rune(s[i]), seg.Mode) {
				return false
			}
		}
	case Byte:
	case Kanji, Latin1:
		if !utf8.ValidString(s) {
			return false
		}
		for _, r := range s {
			if !Is(r, seg.Mode) {
				return false
			}
		}
	case ShiftJISKanji:
		if len(s)&1 != 0 {
			return false
		}
		for i := 0; i < len(s); i += 2 {
			if !Is(rune(s[i])<<8|rune(s[i+1]), seg.Mode) {
				return false
			}
		}
	default:
		return false
	}
	return true
}

// Count returns the value of the character count field of valid seg.
func (seg Segment) Count() int {
	switch seg.Mode {
	case Kanji, Latin1:
		return utf8.RuneCountInString(seg.Text)
	case ShiftJISKanji:
		return len(seg.Text) >> 1
	}
	return len(seg.Text)
}

// EncodedLength returns the encoded length in bits of seg in the
// given QR version size class.  EncodedLength returns 0 if and only
// if mode is invalid.  The segment is not validated.
func (seg Segment) EncodedLength(class int) int {
	return seg.Mode.Length(len(seg.Text), seg.Count(), class)
}

// fits reports whether the character count of seg fits in its field
// in the given size class.
func (seg Segment) fits(class int) bool {
	return seg.Count() < 1<<seg.Mode.CountLength(class)
}

// checkCount returns an error wrapping ErrCapacity if the character
// count of seg overflows its field.
func (seg Segment) checkCount(class int) error {
	if !seg.fits(class) {
		return fmt.Errorf("qr: %s segment of %d characters: %w",
			seg.Mode, seg.Count(), ErrCapacity)
	}
	return nil
}

// transform returns the bytes written for valid seg in byte and kanji
// modes.
func (seg Segment) transform() ([]byte, error) {
	switch seg.Mode {
	case Latin1:
		return charmap.ISO8859_1.NewEncoder().Bytes([]byte(seg.Text))
	case Kanji:
		return japanese.ShiftJIS.NewEncoder().Bytes([]byte(seg.Text))
	}
	return []byte(seg.Text), nil
}

// Encode writes seg encoded for the given QR version size class to b.
// Nothing is written if seg is invalid.
func (seg Segment) Encode(b *Bits, class int) error {
	if !seg.IsValid() {
		return SegmentError(seg)
	}
	if err := seg.checkCount(class); err != nil {
		return err
	}
	data, err := seg.transform()
	if err != nil {
		return SegmentError(seg)
	}
	// write header
	b.Write(seg.Mode.Indicator(), 4)
	b.Write(uint32(seg.Count()), seg.Mode.CountLength(class))
	// encode the string
	switch s := data; seg.Mode {
	case Numeric:
		for ; len(s) >= 3; s = s[3:] {
			b.Write(uint32(s[0]-'0')*100+uint32(s[1]-'0')*10+uint32(s[2]-'0'), 10)
		}
		switch len(s) {
		case 2:
			b.Write(uint32(s[0]-'0')*10+uint32(s[1]-'0'), 7)
		case 1:
			b.Write(uint32(s[0]-'0'), 4)
		}
	case Alphanumeric:
		for ; len(s) >= 2; s = s[2:] {
			b.Write(uint32(alpha[s[0]&0x3f])*45+uint32(alpha[s[1]&0x3f]), 11)
		}
		if len(s) == 1 {
			b.Write(uint32(alpha[s[0]&0x3f]), 6)
		}
	case Byte, Latin1:
		return writeBytes(b, s)
	case Kanji, ShiftJISKanji:
		for ; len(s) >= 2; s = s[2:] {
			v := kanjiValue(uint16(s[0])<<8 | uint16(s[1]))
			if v < 0 {
				panic("qr: kanji mode internal error")
			}
			b.Write(uint32(v), 13)
		}
	default:
		panic("qr: invalid mode " + seg.Mode.String())
	}
	return nil
}
