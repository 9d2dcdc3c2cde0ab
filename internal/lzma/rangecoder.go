// Copyright 2015 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lzma

import "errors"

// errLibrary reports an internal invariant failure: a circBuf that was
// supposed to have been given enough headroom by the caller ran out of
// space or data anyway.
var errLibrary = errors.New("lzma: internal invariant failure")

// rangeMargin bounds, generously, the number of input bytes a single
// decoded symbol can consume, and the number of output bytes a single
// encoded symbol can produce absent a pathological carry-propagation
// run. Callers must ensure at least this much headroom is available
// before starting a symbol.
const rangeMargin = 64

// RangeMargin exports rangeMargin for the container orchestrator: it
// must not call Decoder.Step, Encoder.Step or FastEncoder.Step unless
// at least this many bytes of headroom (input for decode, output
// space for encode) are available, or a false errLibrary invariant
// failure can result instead of an ordinary "need more" suspension.
const RangeMargin = rangeMargin

// topValue is the normalization threshold: whenever range_ falls below
// it, one more byte of the coded stream is due.
const topValue = 1 << 24

// rangeEncoder emits range-coded bits into a circBuf, carrying the
// classic LZMA low/cache/cacheSize scheme so that pending 0xFF runs are
// resolved once a non-carrying byte is produced.
type rangeEncoder struct {
	out       *circBuf
	range_    uint32
	low       uint64
	cacheSize int64
	cache     byte
}

func newRangeEncoder(out *circBuf) *rangeEncoder {
	return &rangeEncoder{out: out, range_: 0xffffffff, cacheSize: 1}
}

// reset prepares the encoder for a fresh member.
func (e *rangeEncoder) reset() {
	e.range_ = 0xffffffff
	e.low = 0
	e.cacheSize = 1
	e.cache = 0
}

func (e *rangeEncoder) shiftLow() error {
	if uint32(e.low) < 0xff000000 || (e.low>>32) != 0 {
		tmp := e.cache
		for {
			if err := e.out.writeByte(tmp + byte(e.low>>32)); err != nil {
				return errLibrary
			}
			tmp = 0xff
			e.cacheSize--
			if e.cacheSize <= 0 {
				break
			}
		}
		e.cache = byte(uint32(e.low) >> 24)
	}
	e.cacheSize++
	e.low = uint64(uint32(e.low) << 8)
	return nil
}

func (e *rangeEncoder) normalize() error {
	if e.range_ >= topValue {
		return nil
	}
	e.range_ <<= 8
	return e.shiftLow()
}

// encodeBit encodes a single bit under probability cell p, updating p.
func (e *rangeEncoder) encodeBit(p *prob, bit uint32) error {
	bound := p.bound(e.range_)
	if bit == 0 {
		e.range_ = bound
		p.inc()
	} else {
		e.low += uint64(bound)
		e.range_ -= bound
		p.dec()
	}
	return e.normalize()
}

// encodeDirect encodes n raw, equiprobable bits from the top of v.
func (e *rangeEncoder) encodeDirect(v uint32, n int) error {
	for n > 0 {
		n--
		e.range_ >>= 1
		bit := (v >> uint(n)) & 1
		e.low += uint64(e.range_) & (0 - uint64(bit))
		if err := e.normalize(); err != nil {
			return err
		}
	}
	return nil
}

// flush drains the final 5 bytes that make the coded value unambiguous
// and returns the encoder to its initial state, so that any bits
// encoded afterward start a fresh segment behind a new 5-byte prime.
func (e *rangeEncoder) flush() error {
	for i := 0; i < 5; i++ {
		if err := e.shiftLow(); err != nil {
			return err
		}
	}
	e.reset()
	return nil
}

// rangeDecoder reads range-coded bits from a circBuf of raw compressed
// bytes, maintaining the classic 32-bit range/code pair.
type rangeDecoder struct {
	in     *circBuf
	range_ uint32
	code   uint32
}

func newRangeDecoder(in *circBuf) *rangeDecoder {
	return &rangeDecoder{in: in}
}

// init primes the decoder with the 5 bytes that begin every LZMA
// stream (and every sync-flush point). The first byte must be zero.
func (d *rangeDecoder) init() error {
	d.range_ = 0xffffffff
	d.code = 0
	b, ok := d.in.readByte()
	if !ok {
		return errLibrary
	}
	if b != 0 {
		return errDataError("range coder prime byte not zero")
	}
	for i := 0; i < 4; i++ {
		c, ok := d.in.readByte()
		if !ok {
			return errLibrary
		}
		d.code = (d.code << 8) | uint32(c)
	}
	return nil
}

func (d *rangeDecoder) normalize() error {
	if d.range_ >= topValue {
		return nil
	}
	d.range_ <<= 8
	c, ok := d.in.readByte()
	if !ok {
		return errLibrary
	}
	d.code = (d.code << 8) | uint32(c)
	return nil
}

// decodeBit decodes a single bit under probability cell p, updating p.
func (d *rangeDecoder) decodeBit(p *prob) (bit uint32, err error) {
	bound := p.bound(d.range_)
	if d.code < bound {
		d.range_ = bound
		p.inc()
		bit = 0
	} else {
		d.code -= bound
		d.range_ -= bound
		p.dec()
		bit = 1
	}
	err = d.normalize()
	return bit, err
}

// decodeDirect decodes n raw, equiprobable bits, most significant
// first.
func (d *rangeDecoder) decodeDirect(n int) (v uint32, err error) {
	for i := 0; i < n; i++ {
		d.range_ >>= 1
		d.code -= d.range_
		t := 0 - (d.code >> 31)
		d.code += d.range_ & t
		if err = d.normalize(); err != nil {
			return 0, err
		}
		v = (v << 1) | (t + 1)
	}
	return v, nil
}

// finishingOK reports whether the decoder consumed its input exactly,
// the expected state once the stop marker and trailer have been read.
func (d *rangeDecoder) finishingOK() bool {
	return d.code == 0
}
