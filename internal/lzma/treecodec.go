// Copyright 2015 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lzma

// treeCodec is a fixed-depth binary-tree probability model: numBits
// decisions, most significant bit first, each indexed by the bits
// decided so far.
type treeCodec struct {
	numBits int
	probs   []prob
}

func makeTreeCodec(numBits int) treeCodec {
	t := treeCodec{numBits: numBits, probs: make([]prob, 1<<uint(numBits))}
	initProbs(t.probs)
	return t
}

func (t *treeCodec) encode(e *rangeEncoder, v uint32) error {
	m := uint32(1)
	for i := t.numBits - 1; i >= 0; i-- {
		bit := (v >> uint(i)) & 1
		if err := e.encodeBit(&t.probs[m], bit); err != nil {
			return err
		}
		m = (m << 1) | bit
	}
	return nil
}

func (t *treeCodec) decode(d *rangeDecoder) (v uint32, err error) {
	m := uint32(1)
	for i := 0; i < t.numBits; i++ {
		bit, err := d.decodeBit(&t.probs[m])
		if err != nil {
			return 0, err
		}
		m = (m << 1) | bit
	}
	return m - (1 << uint(t.numBits)), nil
}

// treeReverseCodec is a treeCodec that encodes/decodes its bits least
// significant bit first, used for the low bits of large distances.
type treeReverseCodec struct {
	numBits int
	probs   []prob
}

func makeTreeReverseCodec(numBits int) treeReverseCodec {
	t := treeReverseCodec{numBits: numBits, probs: make([]prob, 1<<uint(numBits))}
	initProbs(t.probs)
	return t
}

func (t *treeReverseCodec) encode(e *rangeEncoder, v uint32) error {
	m := uint32(1)
	for i := 0; i < t.numBits; i++ {
		bit := v & 1
		v >>= 1
		if err := e.encodeBit(&t.probs[m], bit); err != nil {
			return err
		}
		m = (m << 1) | bit
	}
	return nil
}

func (t *treeReverseCodec) decode(d *rangeDecoder) (v uint32, err error) {
	m := uint32(1)
	for i := 0; i < t.numBits; i++ {
		bit, err := d.decodeBit(&t.probs[m])
		if err != nil {
			return 0, err
		}
		m = (m << 1) | bit
		v |= bit << uint(i)
	}
	return v, nil
}

// directCodec encodes/decodes a fixed number of equiprobable bits,
// bypassing the probability model entirely; used for the upper bits of
// large distances.
type directCodec int

func (dc directCodec) encode(e *rangeEncoder, v uint32) error {
	return e.encodeDirect(v, int(dc))
}

func (dc directCodec) decode(d *rangeDecoder) (uint32, error) {
	return d.decodeDirect(int(dc))
}
