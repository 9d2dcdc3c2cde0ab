// Copyright 2015 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lzma

// priceRefreshInterval bounds how many symbols the encoder commits
// before recomputing its cached length/distance price tables from the
// (by-then drifted) probability models.
const priceRefreshInterval = 1 << 7

// Encoder is the price-based sequence encoder of spec §4.5: at every
// position it prices a plain literal, each of the four rep distances
// at its longest achievable length, and the match finder's longest
// hash-chain candidate, and commits to whichever is cheapest per byte
// produced.
//
// Simplification note: spec §4.5 describes a dynamic-programming
// optimal parse that looks multiple symbols ahead before committing to
// any one of them. This encoder instead makes one best-effort greedy
// choice per position, using the real per-bit price tables (so the
// choice at any one position is exact) but without exploring how that
// choice constrains the position that follows it. It reuses every
// other piece a full optimal parser would — the hash-chain match
// finder, the price tables, the same state machine and model updates
// — and produces valid, compliant lzma streams; it just won't always
// find the globally cheapest parse of a given input. See DESIGN.md.
type Encoder struct {
	RC *rangeEncoder
	MF *matchFinder
	m  models

	lenPrices    lengthPrices
	repLenPrices lengthPrices
	distPrices   distPrices
	refreshIn    int
}

// NewEncoder constructs an Encoder for one member, writing range-coded
// bytes into out and searching a dictionary window of dictSize bytes,
// using niceLen/cycles to bound the match finder's search effort (see
// matchfinder.go).
func NewEncoder(out *circBuf, dictSize, niceLen, cycles int) *Encoder {
	e := &Encoder{
		RC: newRangeEncoder(out),
		MF: newMatchFinder(dictSize, niceLen, cycles),
	}
	e.m.reset()
	e.refreshPrices()
	return e
}

// Write feeds fresh input into the match finder's window.
func (e *Encoder) Write(p []byte) int {
	return e.MF.write(p)
}

// WriteSize reports how many more bytes of input the match finder's
// window can currently accept.
func (e *Encoder) WriteSize() int {
	return e.MF.freeSpace()
}

// DataPos is the number of uncompressed bytes consumed so far this
// member.
func (e *Encoder) DataPos() int64 {
	return e.MF.pos
}

// ReadCompressed drains buffered range-coded output into dst.
func (e *Encoder) ReadCompressed(dst []byte) int {
	return e.RC.out.read(dst)
}

// CompressedAvail reports how many range-coded bytes are buffered and
// ready to be drained by ReadCompressed.
func (e *Encoder) CompressedAvail() int {
	return e.RC.out.usedBytes()
}

func (e *Encoder) refreshPrices() {
	e.m.lenCodec.fillPrices(&e.lenPrices)
	e.m.repLenCodec.fillPrices(&e.repLenPrices)
	e.m.distCodec.fillPrices(&e.distPrices)
	e.refreshIn = priceRefreshInterval
}

// candidate describes one action the encoder could take at the
// current position: a literal (kind 0), a rep hit (kind 1, repIdx set,
// no dist), or a fresh match (kind 2, dist set).
type candidate struct {
	kind  int
	repIdx int
	dist  uint32
	length uint32
	price uint32
}

// Step encodes exactly one literal, rep, or match symbol at the
// current position and advances the match finder past it. wrote is
// false if there was no input available to encode (the caller should
// flush/finish instead).
func (e *Encoder) Step() (wrote bool, err error) {
	avail := e.MF.avail()
	if avail == 0 {
		return false, nil
	}
	if e.refreshIn <= 0 {
		e.refreshPrices()
	}

	ps := posState(e.MF.pos)
	matches := e.MF.getMatches()
	e.refreshIn--

	var prevByte byte
	if e.MF.pos > 0 {
		prevByte = e.MF.byteAt(e.MF.pos - 1)
	}
	s := e.MF.byteAt(e.MF.pos)
	ls := litState(prevByte, e.MF.pos)

	state2 := (e.m.state << posStateBits) | ps
	best := e.literalCandidate(s, ls, state2)

	maxLen := avail
	if maxLen > maxMatchLen {
		maxLen = maxMatchLen
	}

	for i := 0; i < 4; i++ {
		repDist := e.m.rep[i]
		if int64(repDist)+1 > int64(e.MF.histLen) {
			continue
		}
		cand := e.MF.pos - int64(repDist) - 1
		l := e.MF.commonLen(cand, maxLen)
		if l == 0 {
			continue
		}
		// A rep1/rep2/rep3 symbol always carries a coded length of at
		// least minMatchLen; only rep0 has a length-1 form (the short
		// rep). Never round a 1-byte coincidence up to a longer copy
		// than what the source actually repeats.
		if i != 0 && l < minMatchLen {
			continue
		}
		c := e.repCandidate(i, uint32(l), ps, state2)
		if uint64(c.price)*uint64(best.length) < uint64(best.price)*uint64(c.length) {
			best = c
		}
	}

	if len(matches) > 0 {
		m := matches[len(matches)-1]
		if int(m.len) <= maxLen {
			c := e.matchCandidate(m.dist, m.len, ps)
			if uint64(c.price)*uint64(best.length) < uint64(best.price)*uint64(c.length) {
				best = c
			}
		}
	}

	if err := e.commit(best, ps, state2); err != nil {
		return false, err
	}

	e.MF.advance()
	if best.length > 1 {
		e.MF.skip(int(best.length) - 1)
	}
	return true, nil
}

func (e *Encoder) literalCandidate(s byte, ls uint32, state2 uint32) candidate {
	p := price(e.m.isMatch[state2], 0)
	if e.m.state < 7 {
		p += e.m.litCodec.price(s, ls)
	} else {
		matchByte := e.MF.byteAt(e.MF.pos - int64(e.m.rep[0]) - 1)
		p += e.m.litCodec.priceMatched(s, matchByte, ls)
	}
	return candidate{kind: 0, length: 1, price: p}
}

func (e *Encoder) repCandidate(idx int, l uint32, ps, state2 uint32) candidate {
	p := price(e.m.isMatch[state2], 1) + price(e.m.isRep[e.m.state], 1)
	switch idx {
	case 0:
		if l == 1 {
			p += price(e.m.isRepG0[e.m.state], 0) + price(e.m.isRep0Long[state2], 0)
			return candidate{kind: 1, repIdx: 0, length: 1, price: p}
		}
		p += price(e.m.isRepG0[e.m.state], 0) + price(e.m.isRep0Long[state2], 1)
	case 1:
		p += price(e.m.isRepG0[e.m.state], 1) + price(e.m.isRepG1[e.m.state], 0)
	case 2:
		p += price(e.m.isRepG0[e.m.state], 1) + price(e.m.isRepG1[e.m.state], 1) + price(e.m.isRepG2[e.m.state], 0)
	default:
		p += price(e.m.isRepG0[e.m.state], 1) + price(e.m.isRepG1[e.m.state], 1) + price(e.m.isRepG2[e.m.state], 1)
	}
	p += e.repLenPrices.price(l, ps)
	return candidate{kind: 1, repIdx: idx, length: l, price: p}
}

func (e *Encoder) matchCandidate(dist, l uint32, ps uint32) candidate {
	state2 := (e.m.state << posStateBits) | ps
	p := price(e.m.isMatch[state2], 1) + price(e.m.isRep[e.m.state], 0)
	p += e.lenPrices.price(l, ps)
	p += e.m.distCodec.price(&e.distPrices, dist, l)
	return candidate{kind: 2, dist: dist, length: l, price: p}
}

// commit encodes the chosen candidate's symbol stream and updates the
// shared model state the same way the decoder would after seeing it.
func (e *Encoder) commit(c candidate, ps, state2 uint32) error {
	switch c.kind {
	case 0:
		return e.encodeLiteral(ps)
	case 1:
		return e.encodeRep(c, ps, state2)
	default:
		return e.encodeMatch(c, ps, state2)
	}
}

func (e *Encoder) encodeLiteral(ps uint32) error {
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

func (e *Encoder) encodeRep(c candidate, ps, state2 uint32) error {
	if err := e.RC.encodeBit(&e.m.isMatch[state2], 1); err != nil {
		return err
	}
	if err := e.RC.encodeBit(&e.m.isRep[e.m.state], 1); err != nil {
		return err
	}
	idx := c.repIdx
	if idx == 0 {
		if err := e.RC.encodeBit(&e.m.isRepG0[e.m.state], 0); err != nil {
			return err
		}
		if c.length == 1 {
			if err := e.RC.encodeBit(&e.m.isRep0Long[state2], 0); err != nil {
				return err
			}
			e.m.updateStateShortRep()
			return nil
		}
		if err := e.RC.encodeBit(&e.m.isRep0Long[state2], 1); err != nil {
			return err
		}
	} else {
		if err := e.RC.encodeBit(&e.m.isRepG0[e.m.state], 1); err != nil {
			return err
		}
		if idx == 1 {
			if err := e.RC.encodeBit(&e.m.isRepG1[e.m.state], 0); err != nil {
				return err
			}
		} else {
			if err := e.RC.encodeBit(&e.m.isRepG1[e.m.state], 1); err != nil {
				return err
			}
			if idx == 2 {
				if err := e.RC.encodeBit(&e.m.isRepG2[e.m.state], 0); err != nil {
					return err
				}
			} else {
				if err := e.RC.encodeBit(&e.m.isRepG2[e.m.state], 1); err != nil {
					return err
				}
			}
		}
	}
	if err := e.m.repLenCodec.encode(e.RC, c.length, ps); err != nil {
		return err
	}
	e.m.moveRepToFront(idx, e.m.rep[idx])
	e.m.updateStateRep()
	return nil
}

func (e *Encoder) encodeMatch(c candidate, ps, state2 uint32) error {
	if err := e.RC.encodeBit(&e.m.isMatch[state2], 1); err != nil {
		return err
	}
	if err := e.RC.encodeBit(&e.m.isRep[e.m.state], 0); err != nil {
		return err
	}
	if err := e.m.lenCodec.encode(e.RC, c.length, ps); err != nil {
		return err
	}
	if err := e.m.distCodec.encode(e.RC, c.dist, c.length); err != nil {
		return err
	}
	e.m.moveRepToFront(3, c.dist)
	e.m.updateStateMatch()
	return nil
}

// emitMarker encodes a stream marker: a length/distance pair with
// distance eosDist, used for both the stop marker (length
// minMatchLen) and the sync-flush marker (length minMatchLen+1).
func (e *Encoder) emitMarker(length uint32) error {
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
func (e *Encoder) EmitStopMarker() error {
	return e.emitMarker(minMatchLen)
}

// EmitSyncFlushMarker encodes a sync-flush marker, after which the
// range decoder on the other end must reload its 5-byte prime.
func (e *Encoder) EmitSyncFlushMarker() error {
	return e.emitMarker(minMatchLen + 1)
}

// Flush drains the final bytes that make the range-coded value
// unambiguous; call once after the stop marker (or before a
// sync-flush's fresh prime).
func (e *Encoder) Flush() error {
	return e.RC.flush()
}
