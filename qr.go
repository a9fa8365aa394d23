// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package qr encodes QR codes.

Text is split into numeric, alphanumeric, kanji and byte mode segments
so that the encoded length is minimal, and the smallest QR version that
fits at the requested error correction level is chosen.  Lower level
details live in package coding.
*/
package qr // import "github.com/qrforge/qr"

import (
	"context"
	"errors"
	"log/slog"
	"unicode/utf8"

	"github.com/qrforge/qr/coding"
)

// A Level denotes a QR error correction level.
// From least to most tolerant of errors, they are L, M, Q, H.
type Level = coding.Level

const (
	L = coding.L // 20% redundant
	M = coding.M // 38% redundant
	Q = coding.Q // 55% redundant
	H = coding.H // 65% redundant
)

// QuietZone is the width in modules of the light border required
// around a QR code.  Code does not include it.
const QuietZone = 4

var sizeClass = [3]struct {
	min, max coding.Version
}{
	{1, 9}, {10, 26}, {27, 40},
}

// Segmentation modes, cheapest first for the same text.
const (
	numMode   = iota // numeric
	alphaMode        // alphanumeric
	kanjiMode        // kanji
	byteMode         // byte or Latin-1
	modes            // total number of modes
)

const inf = 1 << 30

// A modeSet maps segmentation modes to segment modes.
type modeSet [modes]coding.Mode

// length returns segment size in bits for a string of n bytes and
// k runes at QR version size class class encoded in mode m, or inf
// if the character count doesn't fit.
func (ms *modeSet) length(m byte, n, k, class int) int {
	mode := ms[m]
	count := n
	if mode == coding.Kanji || mode == coding.Latin1 {
		count = k
	}
	if count >= 1<<mode.CountLength(class) {
		return inf
	}
	return mode.Length(n, k, class)
}

type (
	// segment describes a segment encoded in a certain mode.
	segment struct {
		next   *segment // link to next segment in the chain
		start  int      // start of string
		slen   int      // length of string in bytes
		rlen   int      // length of string in runes
		weight int      // encoded size of all segments in the chain
		mode   byte     // encoding mode
	}

	// span describes a span of bytes encodable in the same modes.
	span struct {
		start int            // start of string
		slen  int            // length of string in bytes
		rlen  int            // length of string in runes
		modes byte           // bit field of valid encoding modes
		seg   [modes]segment // segments
	}
)

// classify splits text into spans of runes encodable in the same modes.
func classify(text string, ms *modeSet) ([]span, error) {
	var sp []span
	for i, r := range text {
		var m byte
		if ms[byteMode] == coding.Byte || r != utf8.RuneError {
			switch {
			case coding.Is(r, coding.Numeric):
				m = 1<<numMode | 1<<alphaMode
			case coding.Is(r, coding.Alphanumeric):
				m = 1 << alphaMode
			case ms[kanjiMode] == coding.Kanji && coding.IsKanji(r):
				m = 1 << kanjiMode
			}
			if coding.Is(r, ms[byteMode]) {
				m |= 1 << byteMode
			}
		}
		if m == 0 {
			_, n := utf8.DecodeRuneInString(text[i:])
			return nil, coding.SegmentError{Text: text[i : i+n], Mode: ms[byteMode]}
		}
		if n := len(sp); n == 0 || sp[n-1].modes != m {
			if n != 0 {
				sp[n-1].slen = i - sp[n-1].start
			}
			sp = append(sp, span{start: i, modes: m})
		}
		sp[len(sp)-1].rlen++
	}
	if n := len(sp); n != 0 {
		sp[n-1].slen = len(text) - sp[n-1].start
	}
	return sp, nil
}

/*
split returns the optimal split for the string described by sp at
the given QR version size class.

For last span, for each valid mode j:
  - Create a segment sp[len(sp)-1].seg[j] describing the span
    encoded in mode j.  Calculate the weight (encoded length in
    bits).

Then walk backwards through the rest of the spans.
For each span i, for each valid mode j:
  - For each mode k valid for span i+1, create a segment linking
    to next=sp[i+1].seg[k].  If k==j, merge the segments by
    adding the length of next and linking to next.next instead.
    Calculate the weight of the segment.  If next is not nil, add
    the weight of next to get the combined weight of the chain.
  - From those segments choose the one with the smallest weight.
    Assign it to sp[i].seg[j].

Return the address of the segment in sp[0].seg with the smallest
weight, or nil if sp is empty.  The weight is at least inf if a
character count overflows in every split.
*/
func split(sp []span, ms *modeSet, class int) *segment {
	// Process last span.  Create a segment for each valid mode.
	i := len(sp) - 1
	if i < 0 {
		return nil
	}
	for j := byte(0); j < modes; j++ {
		seg := &sp[i].seg[j]
		*seg = segment{weight: inf}
		if sp[i].modes>>j&1 != 0 {
			*seg = segment{
				start:  sp[i].start,
				slen:   sp[i].slen,
				rlen:   sp[i].rlen,
				weight: ms.length(j, sp[i].slen, sp[i].rlen, class),
				mode:   j,
			}
		}
	}

	// Process the rest of the spans.
	for i--; i >= 0; i-- {
		v := &sp[i]
		for j := byte(0); j < modes; j++ {
			seg := &v.seg[j]
			*seg = segment{weight: inf}
			if v.modes>>j&1 == 0 {
				continue
			}
			weight := ms.length(j, v.slen, v.rlen, class)
			ns := &sp[i+1].seg
			for k := byte(0); k < modes; k++ {
				next := &ns[k]
				if next.weight >= inf {
					continue
				}
				c := segment{
					next:   next,
					start:  v.start,
					slen:   v.slen,
					rlen:   v.rlen,
					weight: weight,
					mode:   j,
				}
				if k == j {
					c.slen += next.slen
					c.rlen += next.rlen
					c.next = next.next
					c.weight = ms.length(j, c.slen, c.rlen, class)
				}
				if c.next != nil {
					c.weight += c.next.weight
				}
				if c.weight < seg.weight {
					*seg = c
				}
			}
		}
	}

	// Choose the first segment with the smallest weight
	seg := &sp[0].seg[0]
	for j := 1; j < modes; j++ {
		if sp[0].seg[j].weight < seg.weight {
			seg = &sp[0].seg[j]
		}
	}
	return seg
}

// segments returns the segment chain starting at seg.
func (ms *modeSet) segments(text string, seg *segment) []coding.Segment {
	n := 0
	for s := seg; s != nil; s = s.next {
		n++
	}
	segs := make([]coding.Segment, 0, n)
	for ; seg != nil; seg = seg.next {
		segs = append(segs, coding.Segment{
			Text: text[seg.start : seg.start+seg.slen],
			Mode: ms[seg.mode],
		})
	}
	return segs
}

// Options control encoding.  The zero value selects level L, the
// smallest version and the best mask, with kanji mode enabled and
// byte mode data encoded as UTF-8.
type Options struct {
	Level   Level          // error correction level
	Version coding.Version // QR version, or 0 for the smallest that fits
	Mask    int            // mask pattern, 0-7, used if ForceMask is set

	ForceMask bool // use Mask instead of the best mask
	Latin1    bool // encode byte mode segments as ISO 8859-1
	NoKanji   bool // disable kanji mode
}

// ErrClass is returned by Options.Segments for a size class outside
// 0-2.
var ErrClass = errors.New("qr: invalid size class")

// Segments returns the optimal split of text into segments for QR
// codes of the given version size class.
func (o *Options) Segments(text string, class int) ([]coding.Segment, error) {
	if !o.Level.IsValid() {
		return nil, coding.ErrLevel
	}
	if class < 0 || class >= len(sizeClass) {
		return nil, ErrClass
	}
	ms := o.modes()
	sp, err := classify(text, &ms)
	if err != nil {
		return nil, err
	}
	seg := split(sp, &ms, class)
	if seg != nil && seg.weight >= inf {
		v := sizeClass[class].max
		return nil, &coding.CapacityError{Version: v, Level: o.Level, Max: v.DataBits(o.Level)}
	}
	return ms.segments(text, seg), nil
}

func (o *Options) modes() modeSet {
	ms := modeSet{coding.Numeric, coding.Alphanumeric, coding.Kanji, coding.Byte}
	if o.NoKanji {
		ms[kanjiMode] = coding.Byte // never selected by classify
	}
	if o.Latin1 {
		ms[byteMode] = coding.Latin1
	}
	return ms
}

// Encode returns an encoding of text at the given error correction level.
func Encode(text string, level Level) (*Code, error) {
	return EncodeWith(text, &Options{Level: level})
}

// EncodeWith returns an encoding of text with the given options.
// A nil o is the same as the zero Options.
func EncodeWith(text string, o *Options) (*Code, error) {
	if o == nil {
		o = &Options{}
	}
	l := o.Level
	if !l.IsValid() {
		return nil, coding.ErrLevel
	}
	if o.Version != 0 && !o.Version.IsValid() {
		return nil, coding.ErrVersion
	}
	if o.ForceMask && (o.Mask < 0 || o.Mask > 7) {
		return nil, coding.ErrMask
	}
	ms := o.modes()
	sp, err := classify(text, &ms)
	if err != nil {
		return nil, err
	}

	// Split string into segments for each size class in turn, as the
	// weight changes with the class, and find the smallest version.
	var capErr error
	for class := range sizeClass {
		lo, hi := sizeClass[class].min, sizeClass[class].max
		if o.Version != 0 {
			if o.Version.SizeClass() != class {
				continue
			}
			lo, hi = o.Version, o.Version
		}
		seg := split(sp, &ms, class)
		if seg != nil && seg.weight >= inf {
			capErr = &coding.CapacityError{Version: hi, Level: l, Max: hi.DataBits(l)}
			continue
		}
		segs := ms.segments(text, seg)
		sel, err := coding.ChooseRange(l, lo, hi, segs...)
		if errors.Is(err, coding.ErrCapacity) {
			capErr = err
			continue
		} else if err != nil {
			return nil, err
		}
		return encode(sel, segs, o)
	}
	return nil, capErr
}

// encode builds the code for segs with the selected version and level.
func encode(sel coding.Selection, segs []coding.Segment, o *Options) (*Code, error) {
	e, err := coding.NewEncoder(sel.Version, sel.Level)
	if err != nil {
		return nil, err
	}
	if err := e.Write(segs...); err != nil {
		return nil, err
	}
	var cc *coding.Code
	if o.ForceMask {
		cc, err = e.CodeMask(o.Mask)
	} else {
		cc, err = e.Code()
	}
	if err != nil {
		return nil, err
	}
	if log := Logger(); log.Enabled(context.Background(), slog.LevelDebug) {
		attrs := []any{
			"version", sel.Version,
			"ec", sel.Level,
			"mask", cc.Mask,
			"segments", len(segs),
			"bits", sel.Bits,
			"capacity", sel.DataCodewords * 8,
		}
		if !o.ForceMask {
			if pen, err := coding.Penalties(sel.Version, sel.Level, segs...); err == nil {
				attrs = append(attrs, "penalties", pen[:])
			}
		}
		log.Debug("qr: encoded", attrs...)
	}
	return &Code{
		Bitmap:  cc.Bitmap,
		Size:    cc.Size,
		Stride:  cc.Stride,
		Version: cc.Version,
		Level:   cc.Level,
		Mask:    cc.Mask,
	}, nil
}

// A Code is a square pixel grid.
type Code struct {
	Bitmap []byte // 1 is black, 0 is white
	Size   int    // number of pixels on a side
	Stride int    // number of bytes per row

	Version coding.Version // QR version
	Level   Level          // error correction level
	Mask    int            // mask pattern
}

// Black returns true if the pixel at (x,y) is black.
// Pixels outside the code, including the quiet zone, are white.
func (c *Code) Black(x, y int) bool {
	return 0 <= x && x < c.Size && 0 <= y && y < c.Size &&
		c.Bitmap[y*c.Stride+x/8]&(1<<uint(7-x&7)) != 0
}

// Decode reads back the text stored in c.  Byte mode data is read as
// UTF-8 if valid and as ISO 8859-1 otherwise, so text encoded with
// Options.Latin1 reads back unchanged only if its Latin-1 encoding is
// not also valid UTF-8.
func (c *Code) Decode() (string, error) {
	d, err := coding.Decode(&coding.Code{
		Bitmap: c.Bitmap,
		Size:   c.Size,
		Stride: c.Stride,
	})
	if err != nil {
		return "", err
	}
	return d.Text, nil
}
