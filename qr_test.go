// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qr

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/google/go-cmp/cmp"

	"github.com/qrforge/qr/coding"
)

func TestClassify(t *testing.T) {
	c := qt.New(t)
	ms := (&Options{}).modes()
	sp, err := classify("123ABC漢字abc", &ms)
	c.Assert(err, qt.IsNil)
	type s struct{ Start, Len, Runes, Modes int }
	var got []s
	for _, v := range sp {
		got = append(got, s{v.start, v.slen, v.rlen, int(v.modes)})
	}
	c.Assert(got, qt.DeepEquals, []s{
		{0, 3, 3, 1<<numMode | 1<<alphaMode | 1<<byteMode},
		{3, 3, 3, 1<<alphaMode | 1<<byteMode},
		{6, 6, 2, 1<<kanjiMode | 1<<byteMode},
		{12, 3, 3, 1 << byteMode},
	})

	sp, err = classify("", &ms)
	c.Assert(err, qt.IsNil)
	c.Assert(sp, qt.HasLen, 0)

	ms = (&Options{Latin1: true, NoKanji: true}).modes()
	_, err = classify("ok 漢", &ms)
	c.Assert(err, qt.Equals, error(coding.SegmentError{Text: "漢", Mode: coding.Latin1}))
	_, err = classify("ok\xff", &ms)
	c.Assert(err, qt.Equals, error(coding.SegmentError{Text: "\xff", Mode: coding.Latin1}))
}

func TestSegments(t *testing.T) {
	for _, tt := range []struct {
		text string
		o    Options
		want []coding.Segment
	}{
		{"HELLO WORLD", Options{}, []coding.Segment{{Text: "HELLO WORLD", Mode: coding.Alphanumeric}}},
		{"0123456789", Options{}, []coding.Segment{{Text: "0123456789", Mode: coding.Numeric}}},
		{"A1", Options{}, []coding.Segment{{Text: "A1", Mode: coding.Alphanumeric}}},
		{"a1234567890", Options{}, []coding.Segment{
			{Text: "a", Mode: coding.Byte},
			{Text: "1234567890", Mode: coding.Numeric},
		}},
		{"a12", Options{}, []coding.Segment{{Text: "a12", Mode: coding.Byte}}},
		{"点茗", Options{}, []coding.Segment{{Text: "点茗", Mode: coding.Kanji}}},
		{"点茗", Options{NoKanji: true}, []coding.Segment{{Text: "点茗", Mode: coding.Byte}}},
		{"café", Options{}, []coding.Segment{{Text: "café", Mode: coding.Byte}}},
		{"café", Options{Latin1: true}, []coding.Segment{{Text: "café", Mode: coding.Latin1}}},
		{"ABCDEFGHIJ漢字漢字漢字", Options{}, []coding.Segment{
			{Text: "ABCDEFGHIJ", Mode: coding.Alphanumeric},
			{Text: "漢字漢字漢字", Mode: coding.Kanji},
		}},
		{"", Options{}, []coding.Segment{}},
	} {
		got, err := tt.o.Segments(tt.text, coding.Class0)
		if err != nil {
			t.Errorf("%q: %v", tt.text, err)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("%q %+v (-want +got):\n%s", tt.text, tt.o, diff)
		}
	}
}

func TestSegmentsCountOverflow(t *testing.T) {
	c := qt.New(t)
	text := strings.Repeat("a", 256)
	_, err := (&Options{}).Segments(text, coding.Class0)
	c.Assert(err, qt.ErrorIs, coding.ErrCapacity)
	segs, err := (&Options{}).Segments(text, coding.Class1)
	c.Assert(err, qt.IsNil)
	c.Assert(segs, qt.DeepEquals, []coding.Segment{{Text: text, Mode: coding.Byte}})
}

func TestSegmentsArgs(t *testing.T) {
	c := qt.New(t)
	text := strings.Repeat("a", 256)
	_, err := (&Options{Level: 9}).Segments(text, coding.Class0)
	c.Check(err, qt.Equals, coding.ErrLevel)
	for _, class := range []int{-1, 3, 5} {
		_, err = (&Options{}).Segments(text, class)
		c.Check(err, qt.Equals, ErrClass, qt.Commentf("class %d", class))
	}
}

func TestEncode(t *testing.T) {
	c := qt.New(t)
	code, err := Encode("HELLO WORLD", M)
	c.Assert(err, qt.IsNil)
	c.Check(code.Version, qt.Equals, coding.Version(1))
	c.Check(code.Level, qt.Equals, M)
	c.Check(code.Size, qt.Equals, 21)

	cc, err := coding.Encode(1, M, coding.Segment{Text: "HELLO WORLD", Mode: coding.Alphanumeric})
	c.Assert(err, qt.IsNil)
	c.Check(code.Bitmap, qt.DeepEquals, cc.Bitmap)
	c.Check(code.Mask, qt.Equals, cc.Mask)
	for y := -QuietZone; y < code.Size+QuietZone; y++ {
		for x := -QuietZone; x < code.Size+QuietZone; x++ {
			if code.Black(x, y) != cc.Black(x, y) {
				t.Fatalf("(%d, %d) differs", x, y)
			}
		}
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	for _, tt := range []struct {
		text string
		o    Options
		v    coding.Version
	}{
		{"", Options{}, 1},
		{"https://example.com/?q=QR", Options{Level: M}, 2},
		{"QRコード 1234567890", Options{Level: Q}, 2},
		{"Grüße aus Köln", Options{Latin1: true}, 1},
		{"漢字", Options{NoKanji: true, Level: H}, 1},
		{strings.Repeat("0123456789", 60), Options{Level: L}, 10},
		{strings.Repeat("Lorem ipsum dolor sit amet. ", 60), Options{Level: L}, 30},
		{"pinned", Options{Version: 5, Level: H}, 5},
	} {
		code, err := EncodeWith(tt.text, &tt.o)
		if err != nil {
			t.Errorf("%.20q: %v", tt.text, err)
			continue
		}
		if code.Version != tt.v {
			t.Errorf("%.20q: version %v, want %v", tt.text, code.Version, tt.v)
		}
		if code.Level != tt.o.Level {
			t.Errorf("%.20q: level %v, want %v", tt.text, code.Level, tt.o.Level)
		}
		got, err := code.Decode()
		if err != nil {
			t.Errorf("%.20q: decode: %v", tt.text, err)
		} else if got != tt.text {
			t.Errorf("decoded %.20q, want %.20q", got, tt.text)
		}
	}
}

func TestEncodeLimits(t *testing.T) {
	c := qt.New(t)
	code, err := Encode(strings.Repeat("9", 7089), L)
	c.Assert(err, qt.IsNil)
	c.Assert(code.Version, qt.Equals, coding.Version(40))
	_, err = Encode(strings.Repeat("9", 7090), L)
	c.Assert(err, qt.ErrorIs, coding.ErrCapacity)

	_, err = Encode(strings.Repeat("a", 2953), L)
	c.Assert(err, qt.IsNil)
	_, err = Encode(strings.Repeat("a", 2954), L)
	var ce *coding.CapacityError
	c.Assert(errors.As(err, &ce), qt.IsTrue)
	c.Assert(ce.Version, qt.Equals, coding.Version(40))

	// A pinned version is never upgraded.
	_, err = EncodeWith(strings.Repeat("A", 30), &Options{Version: 1, Level: H})
	c.Assert(err, qt.ErrorMatches, `qr: cannot encode \d+ bits into 72-bit code 1-H`)
}

func TestEncodeOptions(t *testing.T) {
	c := qt.New(t)
	_, err := EncodeWith("x", &Options{Level: 4})
	c.Check(err, qt.Equals, coding.ErrLevel)
	_, err = EncodeWith("x", &Options{Version: 41})
	c.Check(err, qt.Equals, coding.ErrVersion)
	_, err = EncodeWith("x", &Options{ForceMask: true, Mask: 8})
	c.Check(err, qt.Equals, coding.ErrMask)

	for mask := 0; mask < 8; mask++ {
		code, err := EncodeWith("MASK", &Options{ForceMask: true, Mask: mask})
		c.Assert(err, qt.IsNil)
		c.Check(code.Mask, qt.Equals, mask)
		text, err := code.Decode()
		c.Assert(err, qt.IsNil)
		c.Check(text, qt.Equals, "MASK")
	}

	code, err := EncodeWith("nil options", nil)
	c.Assert(err, qt.IsNil)
	c.Check(code.Level, qt.Equals, L)
}

func TestLogger(t *testing.T) {
	c := qt.New(t)
	c.Check(Logger().Enabled(context.Background(), slog.LevelError), qt.IsFalse)

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	c.Cleanup(func() { SetLogger(nil) })
	_, err := Encode("HELLO WORLD", Q)
	c.Assert(err, qt.IsNil)
	out := buf.String()
	c.Check(out, qt.Contains, `msg="qr: encoded"`)
	c.Check(out, qt.Contains, "version=1 ec=Q")
	c.Check(out, qt.Contains, "penalties=")

	SetLogger(nil)
	buf.Reset()
	_, err = Encode("HELLO WORLD", Q)
	c.Assert(err, qt.IsNil)
	c.Check(buf.Len(), qt.Equals, 0)
}
