// Copyright 2015 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lzma

// FastEncoder is spec §4.6's greedy encoder, selected at compression
// level 0 (64 KiB dictionary, 16-byte match length limit). It uses the
// same hash2/hash3/hash4 match finder as the optimizing encoder but
// makes no price comparisons at all: at each position it prefers a
// match of at least minMatchLen at the current rep0 distance whenever
// it reaches to within one byte of the match finder's best fresh
// candidate (a rep costs far fewer bits than a new distance); failing
// that, a single matching byte at rep0 is sent as a short rep when the
// fresh candidate is shorter than minMatchLen; otherwise it takes the
// fresh candidate if it is at least minMatchLen long, and otherwise
// emits a literal.
type FastEncoder struct {
	RC *rangeEncoder
	MF *matchFinder
	m  models
}

// NewFastEncoder constructs a FastEncoder for one member.
func NewFastEncoder(out *circBuf, dictSize, niceLen, cycles int) *FastEncoder {
	e := &FastEncoder{
		RC: newRangeEncoder(out),
		MF: newMatchFinder(dictSize, niceLen, cycles),
	}
	e.m.reset()
	return e
}

func (e *FastEncoder) Write(p []byte) int {
	return e.MF.write(p)
}

func (e *FastEncoder) WriteSize() int {
	return e.MF.freeSpace()
}

func (e *FastEncoder) DataPos() int64 {
	return e.MF.pos
}

// ReadCompressed drains buffered range-coded output into dst.
func (e *FastEncoder) ReadCompressed(dst []byte) int {
	return e.RC.out.read(dst)
}

// CompressedAvail reports how many range-coded bytes are buffered and
// ready to be drained by ReadCompressed.
func (e *FastEncoder) CompressedAvail() int {
	return e.RC.out.usedBytes()
}

// Step encodes exactly one symbol and advances the match finder past
// it. wrote is false if there was no input available.
func (e *FastEncoder) Step() (wrote bool, err error) {
	avail := e.MF.avail()
	if avail == 0 {
		return false, nil
	}
	maxLen := avail
	if maxLen > maxMatchLen {
		maxLen = maxMatchLen
	}

	ps := posState(e.MF.pos)
	matches := e.MF.getMatches()

	rep0Len := 0
	if int64(e.m.rep[0])+1 <= int64(e.MF.histLen) {
		cand := e.MF.pos - int64(e.m.rep[0]) - 1
		rep0Len = e.MF.commonLen(cand, maxLen)
	}

	var bestDist uint32
	bestLen := 0
	if len(matches) > 0 {
		m := matches[len(matches)-1]
		bestDist, bestLen = m.dist, int(m.len)
	}

	var err2 error
	var length int
	switch {
	case rep0Len >= minMatchLen && rep0Len+1 >= bestLen:
		err2 = e.encodeRep0(uint32(rep0Len), ps)
		length = rep0Len
	case rep0Len == 1 && bestLen < minMatchLen:
		err2 = e.encodeShortRep(ps)
		length = 1
	case bestLen >= minMatchLen:
		err2 = e.encodeMatch(bestDist, uint32(bestLen), ps)
		length = bestLen
	default:
		err2 = e.encodeLiteral(ps)
		length = 1
	}
	if err2 != nil {
		return false, err2
	}

	e.MF.advance()
	if length > 1 {
		e.MF.skip(length - 1)
	}
	return true, nil
}

func (e *FastEncoder) encodeLiteral(ps uint32) error {
	state2 := (e.m.state << posStateBits) | ps
	if err := e.RC.encodeBit(&e.m.isMatch[state2], 0); err != nil {
		return err
	}
	var prevByte byte
	if e.MF.pos > 0 {
		prevByte = e.MF.byteAt(e.MF.pos - 1)
	}
	s := e.MF.byteAt(e.MF.pos)
	ls := litState(prevByte, e.MF.pos)
	var err error
	if e.m.state < 7 {
		err = e.m.litCodec.encode(e.RC, s, ls)
	} else {
		matchByte := e.MF.byteAt(e.MF.pos - int64(e.m.rep[0]) - 1)
		err = e.m.litCodec.encodeMatched(e.RC, s, matchByte, ls)
	}
	if err != nil {
		return err
	}
	e.m.updateStateLiteral()
	return nil
}

func (e *FastEncoder) encodeShortRep(ps uint32) error {
	state2 := (e.m.state << posStateBits) | ps
	if err := e.RC.encodeBit(&e.m.isMatch[state2], 1); err != nil {
		return err
	}
	if err := e.RC.encodeBit(&e.m.isRep[e.m.state], 1); err != nil {
		return err
	}
	if err := e.RC.encodeBit(&e.m.isRepG0[e.m.state], 0); err != nil {
		return err
	}
	if err := e.RC.encodeBit(&e.m.isRep0Long[state2], 0); err != nil {
		return err
	}
	e.m.updateStateShortRep()
	return nil
}

func (e *FastEncoder) encodeRep0(length uint32, ps uint32) error {
	state2 := (e.m.state << posStateBits) | ps
	if err := e.RC.encodeBit(&e.m.isMatch[state2], 1); err != nil {
		return err
	}
	if err := e.RC.encodeBit(&e.m.isRep[e.m.state], 1); err != nil {
		return err
	}
	if err := e.RC.encodeBit(&e.m.isRepG0[e.m.state], 0); err != nil {
		return err
	}
	if err := e.RC.encodeBit(&e.m.isRep0Long[state2], 1); err != nil {
		return err
	}
	if err := e.m.repLenCodec.encode(e.RC, length, ps); err != nil {
		return err
	}
	e.m.updateStateRep()
	return nil
}

func (e *FastEncoder) encodeMatch(dist, length uint32, ps uint32) error {
	state2 := (e.m.state << posStateBits) | ps
	if err := e.RC.encodeBit(&e.m.isMatch[state2], 1); err != nil {
		return err
	}
	if err := e.RC.encodeBit(&e.m.isRep[e.m.state], 0); err != nil {
		return err
	}
	if err := e.m.lenCodec.encode(e.RC, length, ps); err != nil {
		return err
	}
	if err := e.m.distCodec.encode(e.RC, dist, length); err != nil {
		return err
	}
	e.m.moveRepToFront(3, dist)
	e.m.updateStateMatch()
	return nil
}

// emitMarker encodes a stream marker (see Encoder.emitMarker).
func (e *FastEncoder) emitMarker(length uint32) error {
	ps := posState(e.MF.pos)
	state2 := (e.m.state << posStateBits) | ps
	if err := e.RC.encodeBit(&e.m.isMatch[state2], 1); err != nil {
		return err
	}
	if err := e.RC.encodeBit(&e.m.isRep[e.m.state], 0); err != nil {
		return err
	}
	if err := e.m.lenCodec.encode(e.RC, length, ps); err != nil {
		return err
	}
	return e.m.distCodec.encode(e.RC, eosDist, length)
}

// EmitStopMarker encodes the member-ending stop marker.
func (e *FastEncoder) EmitStopMarker() error {
	return e.emitMarker(minMatchLen)
}

// EmitSyncFlushMarker encodes a sync-flush marker, after which the
// range decoder on the other end must reload its 5-byte prime.
func (e *FastEncoder) EmitSyncFlushMarker() error {
	return e.emitMarker(minMatchLen + 1)
}

// Flush drains the final bytes of the range-coded stream.
func (e *FastEncoder) Flush() error {
	return e.RC.flush()
}
