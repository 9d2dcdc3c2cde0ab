// Copyright 2015 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lzma

// posStates is the number of low-order position bits used to select a
// length sub-model. pos_state = data_position & posStateMask.
const (
	posStateBits = 2
	posStates    = 1 << posStateBits
	posStateMask = posStates - 1
)

// minMatchLen and maxMatchLen bound the lengths the length codec can
// represent: 2..273.
const (
	minMatchLen = 2
	maxMatchLen = minMatchLen + 8 + 8 + 256 - 1
)

// lengthCodec encodes lengths in [minMatchLen, maxMatchLen] with two
// choice bits selecting among a low (0..7), mid (8..15) and high
// (16..271) sub-tree, each indexed further by pos_state for low/mid.
type lengthCodec struct {
	choice [2]prob
	low    [posStates]treeCodec
	mid    [posStates]treeCodec
	high   treeCodec
}

func (lc *lengthCodec) init() {
	initProbs(lc.choice[:])
	for i := range lc.low {
		lc.low[i] = makeTreeCodec(3)
	}
	for i := range lc.mid {
		lc.mid[i] = makeTreeCodec(3)
	}
	lc.high = makeTreeCodec(8)
}

func (lc *lengthCodec) encode(e *rangeEncoder, l uint32, posState uint32) error {
	l -= minMatchLen
	if l < 8 {
		if err := e.encodeBit(&lc.choice[0], 0); err != nil {
			return err
		}
		return lc.low[posState].encode(e, l)
	}
	if err := e.encodeBit(&lc.choice[0], 1); err != nil {
		return err
	}
	l -= 8
	if l < 8 {
		if err := e.encodeBit(&lc.choice[1], 0); err != nil {
			return err
		}
		return lc.mid[posState].encode(e, l)
	}
	if err := e.encodeBit(&lc.choice[1], 1); err != nil {
		return err
	}
	return lc.high.encode(e, l-8)
}

func (lc *lengthCodec) decode(d *rangeDecoder, posState uint32) (l uint32, err error) {
	b, err := d.decodeBit(&lc.choice[0])
	if err != nil {
		return 0, err
	}
	if b == 0 {
		l, err = lc.low[posState].decode(d)
		return l + minMatchLen, err
	}
	b, err = d.decodeBit(&lc.choice[1])
	if err != nil {
		return 0, err
	}
	if b == 0 {
		l, err = lc.mid[posState].decode(d)
		return l + minMatchLen + 8, err
	}
	l, err = lc.high.decode(d)
	return l + minMatchLen + 16, err
}
