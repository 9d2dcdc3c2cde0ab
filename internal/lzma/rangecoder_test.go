// Copyright 2015 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lzma

import "testing"

// TestRangeCoderBitRoundTrip drives the encoder and decoder over a fixed
// bit sequence through a shared probability model, mirroring how the
// literal/match/length/distance coders above this layer use encodeBit and
// decodeBit.
func TestRangeCoderBitRoundTrip(t *testing.T) {
	bits := []uint32{0, 1, 1, 0, 1, 0, 0, 0, 1, 1, 1, 0, 0, 1, 0, 1}

	out := newCircBuf(256)
	enc := newRangeEncoder(out)
	ep := probInit
	for _, bit := range bits {
		if err := enc.encodeBit(&ep, bit); err != nil {
			t.Fatalf("encodeBit error %s", err)
		}
	}
	if err := enc.flush(); err != nil {
		t.Fatalf("flush error %s", err)
	}

	dec := newRangeDecoder(out)
	if err := dec.init(); err != nil {
		t.Fatalf("init error %s", err)
	}
	dp := probInit
	for i, want := range bits {
		got, err := dec.decodeBit(&dp)
		if err != nil {
			t.Fatalf("decodeBit error at %d: %s", i, err)
		}
		if got != want {
			t.Fatalf("bit %d = %d, want %d", i, got, want)
		}
	}
}

func TestRangeCoderDirectRoundTrip(t *testing.T) {
	values := []struct {
		v uint32
		n int
	}{
		{0, 8}, {255, 8}, {1, 1}, {0, 1}, {12345, 16}, {0, 16},
	}

	out := newCircBuf(256)
	enc := newRangeEncoder(out)
	for _, tc := range values {
		if err := enc.encodeDirect(tc.v, tc.n); err != nil {
			t.Fatalf("encodeDirect error %s", err)
		}
	}
	if err := enc.flush(); err != nil {
		t.Fatalf("flush error %s", err)
	}

	dec := newRangeDecoder(out)
	if err := dec.init(); err != nil {
		t.Fatalf("init error %s", err)
	}
	for i, tc := range values {
		got, err := dec.decodeDirect(tc.n)
		if err != nil {
			t.Fatalf("decodeDirect error at %d: %s", i, err)
		}
		if got != tc.v {
			t.Fatalf("value %d = %d, want %d", i, got, tc.v)
		}
	}
}

func TestRangeMarginExported(t *testing.T) {
	if RangeMargin != rangeMargin {
		t.Fatalf("RangeMargin = %d, want %d (rangeMargin)", RangeMargin, rangeMargin)
	}
}
