// Copyright 2015 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lzma

import "testing"

func TestTreeCodecRoundTrip(t *testing.T) {
	values := []uint32{0, 1, 7, 15, 31, 17}
	out := newCircBuf(512)
	enc := newRangeEncoder(out)
	tc := makeTreeCodec(5)
	for _, v := range values {
		if err := tc.encode(enc, v); err != nil {
			t.Fatalf("encode(%d) error %s", v, err)
		}
	}
	if err := enc.flush(); err != nil {
		t.Fatalf("flush error %s", err)
	}

	dec := newRangeDecoder(out)
	if err := dec.init(); err != nil {
		t.Fatalf("init error %s", err)
	}
	tc2 := makeTreeCodec(5)
	for i, want := range values {
		got, err := tc2.decode(dec)
		if err != nil {
			t.Fatalf("decode error at %d: %s", i, err)
		}
		if got != want {
			t.Fatalf("value %d = %d, want %d", i, got, want)
		}
	}
}

func TestTreeReverseCodecRoundTrip(t *testing.T) {
	values := []uint32{0, 1, 2, 3, 15, 8}
	out := newCircBuf(512)
	enc := newRangeEncoder(out)
	tc := makeTreeReverseCodec(4)
	for _, v := range values {
		if err := tc.encode(enc, v); err != nil {
			t.Fatalf("encode(%d) error %s", v, err)
		}
	}
	if err := enc.flush(); err != nil {
		t.Fatalf("flush error %s", err)
	}

	dec := newRangeDecoder(out)
	if err := dec.init(); err != nil {
		t.Fatalf("init error %s", err)
	}
	tc2 := makeTreeReverseCodec(4)
	for i, want := range values {
		got, err := tc2.decode(dec)
		if err != nil {
			t.Fatalf("decode error at %d: %s", i, err)
		}
		if got != want {
			t.Fatalf("value %d = %d, want %d", i, got, want)
		}
	}
}

func TestDirectCodecRoundTrip(t *testing.T) {
	out := newCircBuf(512)
	enc := newRangeEncoder(out)
	dc := directCodec(10)
	values := []uint32{0, 1023, 512, 1}
	for _, v := range values {
		if err := dc.encode(enc, v); err != nil {
			t.Fatalf("encode(%d) error %s", v, err)
		}
	}
	if err := enc.flush(); err != nil {
		t.Fatalf("flush error %s", err)
	}

	dec := newRangeDecoder(out)
	if err := dec.init(); err != nil {
		t.Fatalf("init error %s", err)
	}
	for i, want := range values {
		got, err := dc.decode(dec)
		if err != nil {
			t.Fatalf("decode error at %d: %s", i, err)
		}
		if got != want {
			t.Fatalf("value %d = %d, want %d", i, got, want)
		}
	}
}
