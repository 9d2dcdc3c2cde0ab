// Copyright 2015 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lzip

import (
	"bytes"
	"io"

	"github.com/ulikunitz/lzip/internal/lzma"
	"github.com/ulikunitz/lzip/xlog"
)

// readerState tracks which part of a member the Reader is currently
// assembling.
type readerState int

const (
	stateHeader readerState = iota
	statePrime
	stateDecoding
	stateTrailer
	stateResync
)

// resyncScanCap bounds how many trailing bytes SyncToMember keeps
// around while hunting for the next valid header, so a pathological
// stream with no recognizable member anywhere doesn't grow scanBuf
// without limit.
const resyncScanCap = 1 << 20

// Reader decompresses a stream of one or more concatenated lzip
// members. Like Writer, it implements both io.Writer (push
// compressed bytes in) and io.Reader (pull uncompressed bytes out);
// the caller interleaves the two until Close.
type Reader struct {
	cfg DecoderConfig

	state readerState
	dec   *lzma.Decoder
	out   bytes.Buffer

	headerBuf  []byte
	trailerBuf []byte
	scanBuf    []byte // only used in stateResync

	memberCompressedBytes int64

	// curVersion/curDictSize describe the member currently (or most
	// recently) being decoded; last* snapshots the same fields plus
	// the trailer-verified CRC/size once dec is retired at member end,
	// so the accessors stay meaningful between members too.
	curVersion  byte
	curDictSize int
	lastVersion  byte
	lastDictSize int
	lastDataCRC  uint32
	lastDataSize int64

	inputClosed bool

	totalIn  int64
	totalOut int64

	err *Error
}

// NewReader creates a Reader using cfg (SetDefaults is applied to a
// copy; cfg itself is not mutated).
func NewReader(cfg DecoderConfig) (*Reader, error) {
	c := cfg.Clone()
	c.SetDefaults()
	if err := c.Verify(); err != nil {
		return nil, err
	}
	return &Reader{cfg: c, state: stateHeader}, nil
}

// Write feeds compressed bytes into the reader. As with Writer.Write,
// a short count is not an error: it means the decoder's internal
// buffering filled up, and the caller should drain output with Read
// before supplying the rest.
func (r *Reader) Write(p []byte) (n int, err error) {
	if r.err != nil {
		return 0, r.err
	}
	if r.inputClosed {
		r.err = newError(SequenceError, "write after close")
		return 0, r.err
	}
	n, e := r.feedAll(p)
	r.totalIn += int64(n)
	if e != nil {
		r.err = e
		return n, e
	}
	return n, nil
}

// feedAll dispatches p through whichever per-state feeder applies,
// advancing across state transitions (and, via handleMarker's
// leftover routing, across member boundaries) until p is exhausted or
// the current state can make no further progress without output being
// drained or an error occurring.
func (r *Reader) feedAll(p []byte) (int, *Error) {
	var total int
	for len(p) > 0 {
		var k int
		var e *Error
		switch r.state {
		case stateHeader:
			k, e = r.feedHeader(p)
		case statePrime:
			k, e = r.feedPrime(p)
		case stateDecoding:
			k, e = r.feedDecoding(p)
		case stateTrailer:
			k, e = r.feedTrailer(p)
		case stateResync:
			k, e = r.feedResync(p)
		}
		total += k
		p = p[k:]
		if e != nil {
			return total, e
		}
		if k == 0 {
			break
		}
	}
	return total, nil
}

func (r *Reader) feedHeader(p []byte) (int, *Error) {
	need := headerLen - len(r.headerBuf)
	k := need
	if k > len(p) {
		k = len(p)
	}
	r.headerBuf = append(r.headerBuf, p[:k]...)
	if len(r.headerBuf) < headerLen {
		return k, nil
	}

	h, _, err := parseHeader(r.headerBuf)
	if err != nil {
		return k, err.(*Error)
	}
	if h.dictSize > r.cfg.MaxDictSize {
		return k, newError(HeaderError, "dictionary size %d exceeds configured maximum %d", h.dictSize, r.cfg.MaxDictSize)
	}

	r.dec = lzma.NewDecoder(lzma.NewRawBuf(rawBufCapacity), h.dictSize)
	r.memberCompressedBytes = headerLen
	r.headerBuf = r.headerBuf[:0]
	r.curVersion = h.version
	r.curDictSize = h.dictSize
	r.state = statePrime
	xlog.Printf(Debug, "lzip: parsed member header, dict_size=%d\n", h.dictSize)
	return k, nil
}

func (r *Reader) feedPrime(p []byte) (int, *Error) {
	k := r.dec.WriteCompressed(p)
	r.memberCompressedBytes += int64(k)
	if r.dec.CompressedAvail() < 5 {
		return k, nil
	}
	if err := r.dec.Prime(); err != nil {
		return k, fromLZMA(err)
	}
	r.state = stateDecoding
	if e := r.pumpDecode(); e != nil {
		return k, e
	}
	return k, nil
}

func (r *Reader) feedDecoding(p []byte) (int, *Error) {
	k := r.dec.WriteCompressed(p)
	r.memberCompressedBytes += int64(k)
	if e := r.pumpDecode(); e != nil {
		return k, e
	}
	return k, nil
}

func (r *Reader) feedTrailer(p []byte) (int, *Error) {
	need := trailerLen - len(r.trailerBuf)
	k := need
	if k > len(p) {
		k = len(p)
	}
	r.trailerBuf = append(r.trailerBuf, p[:k]...)
	if len(r.trailerBuf) < trailerLen {
		return k, nil
	}
	return k, r.verifyTrailer()
}

func (r *Reader) verifyTrailer() *Error {
	t := parseTrailer(r.trailerBuf)
	if t.crc != r.dec.CRC {
		return newError(DataError, "trailer crc %#08x does not match computed crc %#08x", t.crc, r.dec.CRC)
	}
	if t.dataSize != uint64(r.dec.DataPos) {
		return newError(DataError, "trailer data size %d does not match decoded size %d", t.dataSize, r.dec.DataPos)
	}
	wantMemberSize := uint64(r.memberCompressedBytes) + trailerLen
	if t.memberSize != wantMemberSize {
		return newError(DataError, "trailer member size %d does not match observed %d", t.memberSize, wantMemberSize)
	}
	xlog.Printf(Debug, "lzip: verified member trailer, data_size=%d member_size=%d\n", t.dataSize, t.memberSize)
	r.lastVersion = r.curVersion
	r.lastDictSize = r.curDictSize
	r.lastDataCRC = t.crc
	r.lastDataSize = int64(t.dataSize)
	r.trailerBuf = r.trailerBuf[:0]
	r.dec = nil
	r.state = stateHeader
	return nil
}

// SyncToMember clears any latched fatal error and attempts to locate
// the next valid member header in whatever input has already been
// buffered, discarding everything before it (spec's resynchronization
// operation: header_error/data_error on one member should not strand
// the rest of a concatenated stream). If no candidate header is found
// in what's buffered so far, the reader stays in resync mode and
// keeps scanning as further bytes arrive via Write; call Read/Write
// normally afterward to learn whether it succeeded.
func (r *Reader) SyncToMember() {
	r.err = nil
	if r.state != stateResync {
		r.scanBuf = append(r.scanBuf[:0], r.headerBuf...)
		r.headerBuf = r.headerBuf[:0]
		r.state = stateResync
	}
	if e := r.tryResync(); e != nil {
		r.err = e
	}
}

func (r *Reader) feedResync(p []byte) (int, *Error) {
	k := len(p)
	if len(r.scanBuf)+k > resyncScanCap {
		// Keep scanning without unbounded growth: the only useful
		// thing an unfound resync point does is a hunt for a 4-byte
		// magic, which never requires more than magic-length-1 bytes
		// of trailing context, but we keep the whole configured
		// window rather than the bare minimum here for simplicity.
		drop := len(r.scanBuf) + k - resyncScanCap
		if drop > len(r.scanBuf) {
			drop = len(r.scanBuf)
		}
		r.scanBuf = r.scanBuf[drop:]
	}
	r.scanBuf = append(r.scanBuf, p...)
	if e := r.tryResync(); e != nil {
		return k, e
	}
	return k, nil
}

// tryResync scans r.scanBuf for a 4-byte magic candidate whose
// following version and dictionary-size bytes also check out. On
// success it discards everything up to and including the recognized
// header, constructs the member's decoder, and routes any bytes after
// the header back through the normal dispatch. On failure to find a
// complete, valid candidate it trims scanBuf to the unexamined tail
// and leaves the reader in stateResync awaiting more input.
func (r *Reader) tryResync() *Error {
	for {
		i := bytes.Index(r.scanBuf, magic[:])
		if i < 0 {
			// Keep the last few bytes: the magic could straddle the
			// boundary with the next Write.
			keep := len(magic) - 1
			if len(r.scanBuf) > keep {
				r.scanBuf = r.scanBuf[len(r.scanBuf)-keep:]
			}
			return nil
		}
		if i+headerLen > len(r.scanBuf) {
			r.scanBuf = r.scanBuf[i:]
			return nil
		}
		h, _, err := parseHeader(r.scanBuf[i : i+headerLen])
		if err != nil || h.dictSize > r.cfg.MaxDictSize {
			// Not a real header after all; keep scanning past this
			// false-positive magic.
			r.scanBuf = r.scanBuf[i+1:]
			continue
		}
		rest := r.scanBuf[i+headerLen:]
		r.scanBuf = nil
		r.dec = lzma.NewDecoder(lzma.NewRawBuf(rawBufCapacity), h.dictSize)
		r.memberCompressedBytes = headerLen
		r.curVersion = h.version
		r.curDictSize = h.dictSize
		r.state = statePrime
		xlog.Printf(Debug, "lzip: resynchronized at member header, dict_size=%d\n", h.dictSize)
		if len(rest) == 0 {
			return nil
		}
		_, e := r.feedAll(rest)
		return e
	}
}

// Reset abandons any member in progress and clears error state,
// returning the reader to a clean slate awaiting the next header with
// no attempt to salvage already-buffered bytes (unlike SyncToMember).
func (r *Reader) Reset() {
	r.state = stateHeader
	r.dec = nil
	r.headerBuf = r.headerBuf[:0]
	r.trailerBuf = r.trailerBuf[:0]
	r.scanBuf = nil
	r.memberCompressedBytes = 0
	r.err = nil
}

// MemberVersion returns the format version of the member currently or
// most recently being decoded.
func (r *Reader) MemberVersion() byte {
	if r.dec != nil {
		return r.curVersion
	}
	return r.lastVersion
}

// DictionarySize returns the dictionary size of the member currently
// or most recently being decoded.
func (r *Reader) DictionarySize() int {
	if r.dec != nil {
		return r.curDictSize
	}
	return r.lastDictSize
}

// DataCRC returns the CRC32 of the member currently or most recently
// being decoded: the running value while decode is in progress, the
// trailer-verified value once it has completed.
func (r *Reader) DataCRC() uint32 {
	if r.dec != nil {
		return r.dec.CRC
	}
	return r.lastDataCRC
}

// DataPosition returns the uncompressed bytes decoded so far in the
// current member, or the final count of the last completed one.
func (r *Reader) DataPosition() int64 {
	if r.dec != nil {
		return r.dec.DataPos
	}
	return r.lastDataSize
}

// MemberPosition returns the compressed bytes consumed so far for the
// current member (header included).
func (r *Reader) MemberPosition() int64 {
	return r.memberCompressedBytes
}

// MemberFinished reports whether the reader is positioned cleanly
// between members, with no member currently being decoded.
func (r *Reader) MemberFinished() bool {
	return r.dec == nil && r.state != stateResync
}

// Finished reports whether the stream has been read to a clean end
// (Close called, between members, nothing left to deliver).
func (r *Reader) Finished() bool {
	return r.inputClosed && r.MemberFinished() && r.out.Len() == 0
}

// Err returns the latched fatal error, if any.
func (r *Reader) Err() error {
	if r.err == nil {
		return nil
	}
	return r.err
}

// pumpDecode drains the window into r.out and steps the LZ decoder
// forward while enough raw input is buffered to guarantee a full
// symbol's worth of headroom (lzma.RangeMargin); falling short of
// that is "need more input", not an error. Once Close has ended the
// input, it decodes with whatever remains, and running out of bytes
// mid-symbol is UnexpectedEOF.
func (r *Reader) pumpDecode() *Error {
	for {
		r.drainDecoded()
		if r.dec.CompressedAvail() < lzma.RangeMargin && !r.inputClosed {
			return nil
		}
		err := r.dec.Step()
		if err == nil {
			continue
		}
		if err == lzma.ErrMarker {
			return r.handleMarker()
		}
		if err == lzma.ErrLibrary && r.inputClosed {
			return newError(UnexpectedEOF, "input ended mid-member")
		}
		return fromLZMA(err)
	}
}

// drainDecoded copies every byte the decoder's window currently has
// staged for delivery into r.out. Calling this before every single
// Step keeps the undelivered backlog small, but the window also keeps
// up to dictSize bytes of already-delivered history around internally
// for match lookback regardless of how often drainDecoded runs (see
// lzma.Decoder.reclaim).
func (r *Reader) drainDecoded() {
	n := r.dec.OutputAvail()
	if n == 0 {
		return
	}
	buf := make([]byte, n)
	r.dec.Read(buf)
	r.out.Write(buf)
}

// handleMarker reacts to a stop or sync-flush marker just decoded.
func (r *Reader) handleMarker() *Error {
	switch r.dec.Marker {
	case lzma.StopMarker:
		leftover := r.drainAllRaw()
		r.memberCompressedBytes -= int64(len(leftover))
		r.state = stateTrailer
		if len(leftover) == 0 {
			return nil
		}
		// Bytes already pushed past the marker belong to this
		// member's trailer, or even to the next member entirely if
		// the caller handed us a large chunk spanning both; route
		// them back through the normal dispatch.
		if _, e := r.feedAll(leftover); e != nil {
			return e
		}
		return nil
	case lzma.SyncFlushMarker:
		r.state = statePrime
		_, e := r.feedPrime(nil)
		return e
	default:
		return newError(DataError, "unexpected marker kind")
	}
}

// drainAllRaw empties the LZ decoder's raw compressed-byte buffer
// entirely, returning every byte it held unconsumed.
func (r *Reader) drainAllRaw() []byte {
	var out []byte
	var buf [256]byte
	for {
		k := r.dec.DrainRawInput(buf[:])
		if k == 0 {
			break
		}
		out = append(out, buf[:k]...)
	}
	return out
}

// Read drains bytes already decoded and staged for output. It returns
// io.EOF once Close has been called, the stream ended cleanly between
// members, and every staged byte has been delivered.
func (r *Reader) Read(p []byte) (n int, err error) {
	n, _ = r.out.Read(p)
	r.totalOut += int64(n)
	if n > 0 {
		return n, nil
	}
	if r.err != nil {
		return 0, r.err
	}
	if r.inputClosed {
		if r.state == stateHeader && len(r.headerBuf) == 0 {
			return 0, io.EOF
		}
		e := newError(UnexpectedEOF, "input ended mid-member")
		r.err = e
		return 0, e
	}
	return 0, nil
}

// Close tells the reader no more compressed input is coming. It first
// decodes the buffered input that pumpDecode held back for lack of
// lookahead. It is an error if the stream was left mid-member (header,
// prime, decode body, or trailer in progress); ending cleanly between
// members is not.
func (r *Reader) Close() error {
	r.inputClosed = true
	if r.err != nil {
		return r.err
	}
	if r.state == stateDecoding {
		if e := r.pumpDecode(); e != nil {
			r.err = e
			return e
		}
	}
	if r.state == stateHeader && len(r.headerBuf) == 0 {
		return nil
	}
	e := newError(UnexpectedEOF, "input ended mid-member")
	r.err = e
	return e
}

// TotalIn returns the cumulative compressed bytes accepted so far.
func (r *Reader) TotalIn() int64 { return r.totalIn }

// TotalOut returns the cumulative decompressed bytes delivered so
// far.
func (r *Reader) TotalOut() int64 { return r.totalOut }
