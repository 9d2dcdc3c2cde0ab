// Copyright 2015 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lzma

// Distance slot layout shared by encoder and decoder. A slot is a
// 6-bit value selected per length-state (0..3, saturating at 3 for any
// length >= 3+minMatchLen); slots below startPosModel equal the
// distance directly, slots up to endPosModel use a per-slot reverse
// tree over the low bits, and slots at or above endPosModel encode the
// high bits directly and the bottom alignBits bits with a single shared
// reverse tree.
const (
	distLenStates = 4
	startPosModel = 4
	endPosModel   = 14
	posSlotBits   = 6
	alignBits     = 4
	maxDistSlot   = 1<<posSlotBits - 1
)

type distCodec struct {
	slotCodec [distLenStates]treeCodec
	posModel  [endPosModel - startPosModel]treeReverseCodec
	alignCodec treeReverseCodec
}

func (dc *distCodec) init() {
	for i := range dc.slotCodec {
		dc.slotCodec[i] = makeTreeCodec(posSlotBits)
	}
	for i := range dc.posModel {
		slot := startPosModel + i
		bits := (slot >> 1) - 1
		dc.posModel[i] = makeTreeReverseCodec(bits)
	}
	dc.alignCodec = makeTreeReverseCodec(alignBits)
}

// distLenState maps a match length to one of the four length states
// used to select a distance-slot sub-model.
func distLenState(l uint32) uint32 {
	l -= minMatchLen
	if l >= distLenStates {
		return distLenStates - 1
	}
	return l
}

// nlz32 returns the number of leading zero bits in x; x must be
// non-zero.
func nlz32(x uint32) uint32 {
	n := uint32(0)
	for x&0x80000000 == 0 {
		x <<= 1
		n++
	}
	return n
}

// distSlot computes the 6-bit slot for a distance offset (the actual
// match distance minus one).
func distSlot(dist uint32) uint32 {
	if dist < startPosModel {
		return dist
	}
	bits := 30 - nlz32(dist)
	slot := (startPosModel - 2) + (bits << 1)
	slot += (dist >> bits) & 1
	return slot
}

func (dc *distCodec) encode(e *rangeEncoder, dist uint32, l uint32) error {
	slot := distSlot(dist)
	if err := dc.slotCodec[distLenState(l)].encode(e, slot); err != nil {
		return err
	}
	switch {
	case slot < startPosModel:
		return nil
	case slot < endPosModel:
		tc := &dc.posModel[slot-startPosModel]
		return tc.encode(e, dist)
	}
	bits := (slot >> 1) - 1
	dic := directCodec(bits - alignBits)
	if err := dic.encode(e, dist>>alignBits); err != nil {
		return err
	}
	return dc.alignCodec.encode(e, dist)
}

func (dc *distCodec) decode(d *rangeDecoder, l uint32) (dist uint32, err error) {
	slot, err := dc.slotCodec[distLenState(l)].decode(d)
	if err != nil {
		return 0, err
	}
	if slot < startPosModel {
		return slot, nil
	}
	bits := (slot >> 1) - 1
	dist = (2 | (slot & 1)) << bits
	if slot < endPosModel {
		tc := &dc.posModel[slot-startPosModel]
		u, err := tc.decode(d)
		if err != nil {
			return 0, err
		}
		return dist + u, nil
	}
	dic := directCodec(bits - alignBits)
	u, err := dic.decode(d)
	if err != nil {
		return 0, err
	}
	dist += u << alignBits
	u, err = dc.alignCodec.decode(d)
	if err != nil {
		return 0, err
	}
	return dist + u, nil
}
