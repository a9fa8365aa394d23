// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"

	"github.com/qrforge/qr/gf256"
)

// ErrFormat is returned by Decode for a malformed code.
var ErrFormat = errors.New("qr: bad code format")

// Decoded is the content of a decoded QR code.
type Decoded struct {
	Version   Version
	Level     Level
	Mask      int
	Segments  []Segment // Byte segments hold raw data
	Text      string    // decoded text
	Corrected int       // number of corrected codewords
}

// bestFormat returns the level and mask whose format bits are closest
// to one of fa and fb, within 3 bits.
func bestFormat(fa, fb uint16) (Level, int, bool) {
	bl, bm, bd := L, 0, 4
	for l := L; l <= H; l++ {
		for mask := 0; mask < 8; mask++ {
			f := FormatBits(l, mask)
			d := min(bits.OnesCount16(f^fa), bits.OnesCount16(f^fb))
			if d < bd {
				bl, bm, bd = l, mask, d
			}
		}
	}
	return bl, bm, bd <= 3
}

// Decode reads the content of c.  Errors in data and checksum
// codewords are corrected as long as each block allows it.
//
// Byte mode carries no character set.  Byte segments that are valid
// UTF-8 are returned as Byte, others are decoded as ISO 8859-1 and
// returned as Latin1.  Latin-1 text whose encoding happens to be valid
// UTF-8, such as "Ã©", therefore reads back as different text.
func Decode(c *Code) (*Decoded, error) {
	if c.Size < MinVersion.Size() || (c.Size-17)%4 != 0 {
		return nil, fmt.Errorf("%w: size %d", ErrFormat, c.Size)
	}
	if c.Stride < (c.Size+7)/8 || len(c.Bitmap) < c.Size*c.Stride {
		return nil, fmt.Errorf("%w: bitmap too short", ErrFormat)
	}
	v := Version((c.Size - 17) / 4)
	if !v.IsValid() {
		return nil, fmt.Errorf("%w: size %d", ErrFormat, c.Size)
	}
	m := c.matrix()
	if v >= 7 {
		va, vb := m.readVersion()
		vv := VersionBits(v)
		if min(bits.OnesCount32(vv^va), bits.OnesCount32(vv^vb)) > 3 {
			return nil, fmt.Errorf("%w: version information", ErrFormat)
		}
	}
	l, mask, ok := bestFormat(m.readFormat())
	if !ok {
		return nil, fmt.Errorf("%w: format information", ErrFormat)
	}
	p, err := NewPlan(v, l)
	if err != nil {
		return nil, err
	}

	// Read codewords, unmasking on the way.
	raw := make([]byte, v.Codewords())
	n := 0
	p.walk(func(x, y int) {
		if n >= len(raw)*8 {
			return
		}
		if m.Black(x, y) != maskBit(mask, x, y) {
			raw[n>>3] |= 0x80 >> (n & 7)
		}
		n++
	})

	// De-interleave and correct blocks.
	nblock, check := v.Blocks(l)
	nd := v.DataBytes(l)
	data := make([]byte, nd)
	ecc := make([]byte, len(raw)-nd)
	deinterleave(data, raw[:nd], nblock)
	deinterleave(ecc, raw[nd:], nblock)
	dec := gf256.NewRSDecoder(Field)
	db := nd / nblock
	short := (db+1)*nblock - nd
	block := make([]byte, 0, db+1+check)
	corrected := 0
	for i, dat, chk := 0, data, ecc; i < nblock; i++ {
		if i == short {
			db++
		}
		block = append(append(block[:0], dat[:db]...), chk[:check]...)
		k, err := dec.Decode(block, check)
		if err != nil {
			return nil, fmt.Errorf("qr: block %d: %w", i, err)
		}
		corrected += k
		copy(dat, block[:db])
		dat, chk = dat[db:], chk[check:]
	}

	d := &Decoded{Version: v, Level: l, Mask: mask, Corrected: corrected}
	if err := d.parse(NewBitStream(data)); err != nil {
		return nil, err
	}
	return d, nil
}

// parse reads segments from s.
func (d *Decoded) parse(s BitStream) error {
	class := d.Version.SizeClass()
	var text strings.Builder
	for s.Len() >= 4 {
		ind, _ := s.Read(4)
		var mode Mode
		switch ind {
		case 0: // terminator
			d.Text = text.String()
			return nil
		case 1:
			mode = Numeric
		case 2:
			mode = Alphanumeric
		case 4:
			mode = Byte
		case 8:
			mode = Kanji
		default:
			return fmt.Errorf("%w: mode indicator %d", ErrFormat, ind)
		}
		count, ok := s.Read(mode.CountLength(class))
		if !ok {
			return fmt.Errorf("%w: truncated %s segment", ErrFormat, mode)
		}
		seg, err := readSegment(&s, mode, int(count))
		if err != nil {
			return err
		}
		d.Segments = append(d.Segments, seg)
		text.WriteString(seg.Text)
	}
	d.Text = text.String()
	return nil
}

// readSegment reads count characters in mode from s.
func readSegment(s *BitStream, mode Mode, count int) (Segment, error) {
	errShort := fmt.Errorf("%w: truncated %s segment", ErrFormat, mode)
	var b []byte
	switch mode {
	case Numeric:
		for ; count > 0; count -= 3 {
			n, w := min(count, 3), [4]int{0, 4, 7, 10}[min(count, 3)]
			v, ok := s.Read(w)
			if !ok {
				return Segment{}, errShort
			}
			if v >= [4]uint32{0, 10, 100, 1000}[n] {
				return Segment{}, fmt.Errorf("%w: numeric value %d", ErrFormat, v)
			}
			b = fmt.Appendf(b, "%0*d", n, v)
		}
	case Alphanumeric:
		for ; count >= 2; count -= 2 {
			v, ok := s.Read(11)
			if !ok {
				return Segment{}, errShort
			}
			if v >= 45*45 {
				return Segment{}, fmt.Errorf("%w: alphanumeric value %d", ErrFormat, v)
			}
			b = append(b, alphaChars[v/45], alphaChars[v%45])
		}
		if count == 1 {
			v, ok := s.Read(6)
			if !ok {
				return Segment{}, errShort
			}
			if v >= 45 {
				return Segment{}, fmt.Errorf("%w: alphanumeric value %d", ErrFormat, v)
			}
			b = append(b, alphaChars[v])
		}
	case Byte:
		for ; count > 0; count-- {
			v, ok := s.Read(8)
			if !ok {
				return Segment{}, errShort
			}
			b = append(b, byte(v))
		}
		if !utf8.Valid(b) {
			// ISO 8859-1 is the default character set.
			t, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
			if err != nil {
				return Segment{}, err
			}
			return Segment{string(t), Latin1}, nil
		}
	case Kanji:
		for ; count > 0; count-- {
			v, ok := s.Read(13)
			if !ok {
				return Segment{}, errShort
			}
			c := kanjiCode(v)
			b = append(b, byte(c>>8), byte(c))
		}
		t, err := japanese.ShiftJIS.NewDecoder().Bytes(b)
		if err != nil {
			return Segment{}, fmt.Errorf("%w: kanji: %v", ErrFormat, err)
		}
		b = t
	}
	return Segment{string(b), mode}, nil
}
