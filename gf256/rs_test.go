// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gf256_test

import (
	"math/rand"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/google/go-cmp/cmp"
	"github.com/skip2/go-qrcode/bitset"
	"github.com/skip2/go-qrcode/reedsolomon"

	"github.com/qrforge/qr/gf256"
)

var field = gf256.NewField(0x11d, 2, 0)

func TestECCHelloWorld(t *testing.T) {
	// "HELLO WORLD", version 1-M.
	data := []byte{32, 91, 11, 120, 209, 114, 220, 77, 67, 64, 236, 17, 236, 17, 236, 17}
	want := []byte{196, 35, 39, 119, 235, 215, 231, 226, 93, 23}
	check := make([]byte, len(want))
	gf256.NewRSEncoder(field, len(want)).ECC(data, check)
	if diff := cmp.Diff(want, check); diff != "" {
		t.Errorf("ECC mismatch (-want +got):\n%s", diff)
	}
}

func TestGeneratorRoots(t *testing.T) {
	c := qt.New(t)
	for _, n := range []int{1, 2, 7, 10, 30, 68} {
		g := gf256.NewRSEncoder(field, n).Generator()
		c.Assert(g.Degree(), qt.Equals, n)
		c.Assert(g.Coefficient(n), qt.Equals, byte(1))
		for i := 0; i < n; i++ {
			c.Assert(g.EvalAt(field.Exp(i)), qt.Equals, byte(0),
				qt.Commentf("degree %d, root α^%d", n, i))
		}
	}
}

// skip2ECC computes error correction bytes with github.com/skip2/go-qrcode.
func skip2ECC(data []byte, n int) []byte {
	b := bitset.New()
	b.AppendBytes(data)
	out := reedsolomon.Encode(b, n)
	ecc := make([]byte, n)
	for i := range ecc {
		ecc[i] = out.ByteAt((len(data) + i) * 8)
	}
	return ecc
}

func TestECCMatchesSkip2(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	for i := 0; i < 300; i++ {
		data := make([]byte, 1+r.Intn(120))
		r.Read(data)
		if i%10 == 0 {
			// leading zero codewords must survive
			data[0] = 0
		}
		n := 2 + r.Intn(29)
		check := make([]byte, n)
		gf256.NewRSEncoder(field, n).ECC(data, check)
		if diff := cmp.Diff(skip2ECC(data, n), check); diff != "" {
			t.Fatalf("%d data bytes, %d check bytes (-skip2 +ours):\n%s",
				len(data), n, diff)
		}
	}
}

func TestECCZeroData(t *testing.T) {
	check := []byte{1, 2, 3, 4, 5, 6, 7}
	gf256.NewRSEncoder(field, 7).ECC(make([]byte, 9), check)
	qt.New(t).Assert(check, qt.DeepEquals, make([]byte, 7))
}

func TestDecode(t *testing.T) {
	c := qt.New(t)
	r := rand.New(rand.NewSource(6))
	dec := gf256.NewRSDecoder(field)
	for i := 0; i < 300; i++ {
		nd, nc := 1+r.Intn(100), 2+r.Intn(29)
		msg := make([]byte, nd+nc)
		r.Read(msg[:nd])
		gf256.NewRSEncoder(field, nc).ECC(msg[:nd], msg[nd:])

		got := append([]byte(nil), msg...)
		n, err := dec.Decode(got, nc)
		c.Assert(err, qt.IsNil)
		c.Assert(n, qt.Equals, 0)

		nerr := 1 + r.Intn(nc/2)
		for _, pos := range r.Perm(len(got))[:nerr] {
			got[pos] ^= byte(1 + r.Intn(255))
		}
		n, err = dec.Decode(got, nc)
		c.Assert(err, qt.IsNil, qt.Commentf("%d errors, %d check bytes", nerr, nc))
		c.Assert(n, qt.Equals, nerr)
		c.Assert(got, qt.DeepEquals, msg)
	}
}
