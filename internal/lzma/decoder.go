// Copyright 2015 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lzma

import "github.com/ulikunitz/lzip/internal/crc32table"

// eosDist is the sentinel distance offset that marks a length/distance
// pair as a stream marker rather than a real match.
const eosDist = 0xffffffff

// MarkerKind classifies the two marker symbols the decoder can see in
// place of a normal match.
type MarkerKind int

const (
	noMarker MarkerKind = iota
	StopMarker
	SyncFlushMarker
)

// Decoder runs the per-member LZ decode loop of spec §4.3: it consumes
// symbols from a rangeDecoder, maintains the sliding dictionary window,
// and reconstructs literals and matches. Window output is read out by
// the caller via Decoder.Read; member framing (header parsing, trailer
// verification) is the container orchestrator's job, not this type's.
//
// Win retains two overlapping spans of the same byte stream: the last
// dictSize bytes (needed for match/rep lookback regardless of whether
// the caller has called Read yet) and everything since readPos (needed
// because the caller hasn't taken delivery of it yet). Physical bytes
// are only ever evicted from Win once they fall outside both spans; see
// reclaim. This mirrors matchFinder's winEnd/histLen/advance split on
// the encoder side, which has the same two concerns but no second
// consumer competing for eviction.
type Decoder struct {
	RC       *rangeDecoder
	Win      *circBuf
	m        models
	dictSize int

	// DataPos counts uncompressed bytes produced so far this member; it
	// doubles as Win's monotonic write position (matchFinder calls the
	// analogous field winEnd).
	DataPos int64
	// readPos counts uncompressed bytes delivered to the caller via
	// Read so far this member. DataPos-readPos is the undelivered
	// backlog; readPos is otherwise unrelated to dictionary retention.
	readPos int64
	// CRC accumulates the CRC32 of every byte produced so far this
	// member.
	CRC uint32

	// Marker, once non-zero, records which marker ended the member;
	// the container orchestrator reads it after decodeStep returns
	// errMarker.
	Marker MarkerKind
}

// windowReadSlack bounds how far the caller may lag behind on Read
// before emit reports errNeedOutput, on top of the dictionary itself:
// Win must be able to hold dictSize bytes of retained history and
// windowReadSlack bytes of undelivered backlog at once, since reclaim
// only evicts a byte once it is both out of dictionary range and
// already delivered.
const windowReadSlack = 1 << 16

// NewDecoder constructs a Decoder for one member, reading its range
// code from in (shared with the container's raw input buffer) and
// sized for the member's dictionary.
func NewDecoder(in *circBuf, dictSize int) *Decoder {
	d := &Decoder{
		RC:       newRangeDecoder(in),
		Win:      newCircBuf(dictSize + windowReadSlack),
		dictSize: dictSize,
	}
	d.m.reset()
	return d
}

// Prime reads the 5-byte prefix that initializes (or reinitializes,
// after a sync-flush) the range decoder.
func (d *Decoder) Prime() error {
	return d.RC.init()
}

// WriteCompressed feeds fresh range-coded bytes into the decoder's
// input buffer.
func (d *Decoder) WriteCompressed(p []byte) int {
	return d.RC.in.write(p)
}

// CompressedFree reports how many more range-coded bytes the decoder's
// input buffer can currently accept.
func (d *Decoder) CompressedFree() int {
	return d.RC.in.free()
}

// CompressedAvail reports how many range-coded bytes are currently
// buffered, unconsumed, in the decoder's input buffer.
func (d *Decoder) CompressedAvail() int {
	return d.RC.in.usedBytes()
}

// Read delivers decoded output bytes into dst, advancing readPos. It
// does not evict them from Win directly: a byte stays physically
// present until reclaim determines it is both delivered and outside
// dictSize of lookback range, since a match distance may still need it
// even after Read has handed it to the caller.
func (d *Decoder) Read(dst []byte) int {
	n := 0
	for n < len(dst) && d.readPos < d.DataPos {
		c, ok := d.Win.byteAt(int(d.DataPos - d.readPos))
		if !ok {
			break
		}
		dst[n] = c
		n++
		d.readPos++
	}
	d.reclaim()
	return n
}

// OutputAvail reports how many decoded bytes are buffered and ready
// to be drained by Read.
func (d *Decoder) OutputAvail() int {
	return int(d.DataPos - d.readPos)
}

// reclaim evicts window bytes that are both more than dictSize bytes
// behind DataPos and already delivered via Read, keeping Win's
// physical occupancy independent of how promptly the caller drains
// output. It leaves alone any byte a future match distance could still
// reach, even if Read has already handed that byte to the caller.
func (d *Decoder) reclaim() {
	safe := d.readPos
	if limit := d.DataPos - int64(d.dictSize); limit < safe {
		safe = limit
	}
	if safe < 0 {
		safe = 0
	}
	evicted := d.DataPos - int64(d.Win.usedBytes())
	n := safe - evicted
	var scratch [256]byte
	for n > 0 {
		k := len(scratch)
		if int64(k) > n {
			k = int(n)
		}
		got := d.Win.read(scratch[:k])
		if got == 0 {
			break
		}
		n -= int64(got)
	}
}

// Step decodes exactly one symbol. See decodeStep for the return
// contract; Step is decodeStep's exported name.
func (d *Decoder) Step() error {
	return d.decodeStep()
}

// errMarker is returned by decodeStep when a stream/sync-flush marker
// was decoded; see Decoder.Marker for which one.
var errMarker = errDataError("marker symbol decoded as ordinary length/distance pair")

// ErrMarker lets the root package recognize the marker signal across
// the package boundary; compare a Step error against it with ==.
var ErrMarker = errMarker

// DrainRawInput reads directly from the decoder's raw compressed-byte
// input buffer, bypassing the range decoder. The container
// orchestrator calls this right after a marker is reported: any bytes
// already pushed past the marker belong to the member trailer (or the
// next member entirely), not to this member's LZMA stream.
func (d *Decoder) DrainRawInput(dst []byte) int {
	return d.RC.in.read(dst)
}

// decodeStep decodes exactly one symbol, advancing DataPos/CRC/Win. It
// returns errMarker if the symbol was a stop or sync-flush marker
// (Marker records which), or a DataError for any structural violation.
func (d *Decoder) decodeStep() error {
	ps := posState(d.DataPos)
	state2 := (d.m.state << posStateBits) | ps

	bit, err := d.RC.decodeBit(&d.m.isMatch[state2])
	if err != nil {
		return err
	}
	if bit == 0 {
		return d.decodeLiteral(ps)
	}

	bit, err = d.RC.decodeBit(&d.m.isRep[d.m.state])
	if err != nil {
		return err
	}
	if bit == 0 {
		return d.decodeMatch(ps)
	}
	return d.decodeRep(ps)
}

func (d *Decoder) decodeLiteral(ps uint32) error {
	var prevByte byte
	if d.DataPos > 0 {
		prevByte, _ = d.Win.byteAt(1)
	}
	ls := litState(prevByte, d.DataPos)
	var s byte
	var err error
	if d.m.state < 7 {
		s, err = d.m.litCodec.decode(d.RC, ls)
	} else {
		matchByte, _ := d.Win.byteAt(int(d.m.rep[0]) + 1)
		s, err = d.m.litCodec.decodeMatched(d.RC, matchByte, ls)
	}
	if err != nil {
		return err
	}
	if err := d.emit(s); err != nil {
		return err
	}
	d.m.updateStateLiteral()
	return nil
}

func (d *Decoder) decodeMatch(ps uint32) error {
	l, err := d.m.lenCodec.decode(d.RC, ps)
	if err != nil {
		return err
	}
	dist, err := d.m.distCodec.decode(d.RC, l)
	if err != nil {
		return err
	}
	if dist == eosDist {
		switch l {
		case minMatchLen:
			d.Marker = StopMarker
		case minMatchLen + 1:
			d.Marker = SyncFlushMarker
		default:
			return errDataError("invalid marker length %d", l)
		}
		return errMarker
	}
	if dist >= uint32(d.dictSize) {
		return errDataError("match distance %d exceeds dictionary size %d", dist, d.dictSize)
	}
	d.m.moveRepToFront(3, dist)
	d.m.updateStateMatch()
	return d.copyMatch(int(l))
}

func (d *Decoder) decodeRep(ps uint32) error {
	bit, err := d.RC.decodeBit(&d.m.isRepG0[d.m.state])
	if err != nil {
		return err
	}
	if bit == 0 {
		state2 := (d.m.state << posStateBits) | ps
		bit, err = d.RC.decodeBit(&d.m.isRep0Long[state2])
		if err != nil {
			return err
		}
		if bit == 0 {
			c, ok := d.Win.byteAt(int(d.m.rep[0]) + 1)
			if !ok {
				return errDataError("short rep distance %d before any output", d.m.rep[0])
			}
			if err := d.emit(c); err != nil {
				return err
			}
			d.m.updateStateShortRep()
			return nil
		}
		l, err := d.m.repLenCodec.decode(d.RC, ps)
		if err != nil {
			return err
		}
		d.m.updateStateRep()
		return d.copyMatch(int(l))
	}

	idx := 1
	bit, err = d.RC.decodeBit(&d.m.isRepG1[d.m.state])
	if err != nil {
		return err
	}
	if bit != 0 {
		idx = 2
		bit, err = d.RC.decodeBit(&d.m.isRepG2[d.m.state])
		if err != nil {
			return err
		}
		if bit != 0 {
			idx = 3
		}
	}
	d.m.moveRepToFront(idx, d.m.rep[idx])
	l, err := d.m.repLenCodec.decode(d.RC, ps)
	if err != nil {
		return err
	}
	d.m.updateStateRep()
	return d.copyMatch(int(l))
}

// copyMatch copies length bytes from the current rep0 distance,
// overlap included, into the window, updating CRC and DataPos as it
// goes. It reports a DataError if the distance reaches before the
// start of the member's output.
func (d *Decoder) copyMatch(length int) error {
	dist := int(d.m.rep[0]) + 1
	for i := 0; i < length; i++ {
		c, ok := d.Win.byteAt(dist)
		if !ok {
			return errDataError("match distance %d before start of member output", dist-1)
		}
		if err := d.emit(c); err != nil {
			return err
		}
	}
	return nil
}

// emit appends one decoded byte to the window, accounting it into CRC
// and DataPos. It reports errNeedOutput if the window has no free
// space even after reclaiming everything safe to evict (the container
// must drain a Read before retrying).
func (d *Decoder) emit(c byte) error {
	d.reclaim()
	if d.Win.full() {
		return errNeedOutput
	}
	_ = d.Win.writeByte(c)
	d.CRC = crc32table.Update(d.CRC, c)
	d.DataPos++
	return nil
}
