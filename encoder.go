// Copyright 2015 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lzip

import (
	"bytes"
	"io"
	"log"

	"github.com/ulikunitz/lzip/internal/lzma"
	"github.com/ulikunitz/lzip/xlog"
)

// Debug holds a logger for the package's internal trace output. It is
// nil by default (no output, and no formatting cost for a discarded
// message); set it with DebugOn for diagnosing a misbehaving stream.
var Debug xlog.Logger

// DebugOn writes trace output to w. If w is nil, debug output is
// switched off.
func DebugOn(w io.Writer) {
	if w == nil {
		Debug = nil
		return
	}
	Debug = log.New(w, "", 0)
}

// DebugOff silences debug trace output.
func DebugOff() {
	Debug = nil
}

// matchFinderCycles derives the hash-chain walk bound from a
// compression level's match length limit: longer limits search
// harder for a match worth that length. This knob has no counterpart
// in spec.md's compression-level table (which only names dictionary
// size and match length limit) because it is an artifact of this
// package's hash-chain match finder, not of the lzip format itself.
func matchFinderCycles(matchLenLimit int) int {
	c := matchLenLimit * 16
	if c < 32 {
		c = 32
	}
	if c > 4096 {
		c = 4096
	}
	return c
}

// rawBufCapacity sizes the raw compressed-byte circular buffer shared
// between a SequenceEncoder/Decoder and its container orchestrator.
// pump/drain calls keep it nearly empty at all times (see pump), so
// this only needs to clear rangeMargin's single-symbol headroom by a
// comfortable margin.
const rawBufCapacity = 1 << 12

func newSequenceEncoder(cfg EncoderConfig) lzma.SequenceEncoder {
	cycles := matchFinderCycles(cfg.MatchLenLimit)
	out := lzma.NewRawBuf(rawBufCapacity)
	if cfg.usesFastEncoder() {
		return lzma.NewFastEncoder(out, cfg.DictSize, cfg.MatchLenLimit, cycles)
	}
	return lzma.NewEncoder(out, cfg.DictSize, cfg.MatchLenLimit, cycles)
}

// Writer compresses data into a stream of one or more lzip members. It
// implements both io.Writer (push uncompressed bytes in) and io.Reader
// (pull compressed bytes out) on the same value, mirroring the
// non-blocking, bidirectional handle spec.md's external-interfaces
// section describes: the caller interleaves Write and Read until
// Close.
type Writer struct {
	cfg EncoderConfig
	enc lzma.SequenceEncoder
	out bytes.Buffer

	crc         uint32
	dataSize    int64
	memberBytes int64 // header + stream bytes emitted so far this member

	memberActive bool
	closed       bool

	totalIn  int64
	totalOut int64

	err *Error
}

// NewWriter creates a Writer using cfg (SetDefaults is applied to a
// copy; cfg itself is not mutated). It immediately starts the first
// member and stages its header for Read.
func NewWriter(cfg EncoderConfig) (*Writer, error) {
	c := cfg.Clone()
	c.SetDefaults()
	if err := c.Verify(); err != nil {
		return nil, err
	}
	w := &Writer{cfg: c}
	if err := w.startMember(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Writer) startMember() error {
	w.enc = newSequenceEncoder(w.cfg)
	w.crc = 0
	w.dataSize = 0
	w.memberBytes = 0
	w.memberActive = true

	var buf [headerLen]byte
	header{version: version, dictSize: w.cfg.DictSize}.put(buf[:])
	w.out.Write(buf[:])
	w.memberBytes += headerLen
	xlog.Printf(Debug, "lzip: started member, dict_size=%d\n", w.cfg.DictSize)
	return nil
}

// Write feeds uncompressed bytes into the current member. It accepts
// as many bytes as the match finder's window currently has room for
// and returns that count; a short write is not an error; call Write
// again (or drain output with Read first) to supply the rest.
func (w *Writer) Write(p []byte) (n int, err error) {
	if w.err != nil {
		return 0, w.err
	}
	if !w.memberActive {
		w.err = newError(SequenceError, "write after finish without restart_member")
		return 0, w.err
	}
	if w.cfg.MemberSize != 0 {
		if room := w.cfg.MemberSize - w.dataSize; int64(len(p)) > room {
			p = p[:room]
		}
	}
	accepted := w.enc.Write(p)
	if accepted > 0 {
		w.crc = crc32UpdateBytes(w.crc, p[:accepted])
		w.dataSize += int64(accepted)
		w.totalIn += int64(accepted)
	}
	if err := w.pump(); err != nil {
		w.err = err
		return accepted, err
	}
	if w.cfg.MemberSize != 0 && w.dataSize >= w.cfg.MemberSize {
		if err := w.Finish(); err != nil {
			w.err = err.(*Error)
			return accepted, err
		}
		if err := w.startMember(); err != nil {
			w.err = fromLZMA(err)
			return accepted, w.err
		}
	}
	return accepted, nil
}

// pump drives the sequence encoder over whatever input is already
// buffered in its match finder. It drains the encoder's raw output
// buffer after every single step, rather than in a batch at the end,
// so that buffer only ever needs headroom for one symbol's worth of
// range-coded bytes.
func (w *Writer) pump() *Error {
	for {
		wrote, err := w.enc.Step()
		if err != nil {
			return fromLZMA(err)
		}
		if err := w.drainEncoder(); err != nil {
			return err
		}
		if !wrote {
			break
		}
	}
	return nil
}

func (w *Writer) drainEncoder() *Error {
	n := w.enc.CompressedAvail()
	if n == 0 {
		return nil
	}
	buf := make([]byte, n)
	w.enc.ReadCompressed(buf)
	w.out.Write(buf)
	w.memberBytes += int64(n)
	return nil
}

// Read drains bytes already compressed and staged for output. It
// returns io.EOF once the writer has been closed and every staged
// byte has been delivered; until then, zero bytes with a nil error
// simply means nothing is ready yet (feed more input with Write, or
// call Finish/Close to force the member to completion).
func (w *Writer) Read(p []byte) (n int, err error) {
	if w.err != nil {
		return 0, w.err
	}
	n, _ = w.out.Read(p)
	w.totalOut += int64(n)
	if n > 0 {
		return n, nil
	}
	if w.closed && !w.memberActive {
		return 0, io.EOF
	}
	return 0, nil
}

// Finish closes out the active member: it drains every remaining
// buffered input byte, emits the stop marker, flushes the range
// coder, and appends the 20-byte trailer. After Finish, Write returns
// a SequenceError until RestartMember is called.
func (w *Writer) Finish() error {
	if w.err != nil {
		return w.err
	}
	if !w.memberActive {
		return newError(SequenceError, "finish called with no active member")
	}
	if err := w.pump(); err != nil {
		w.err = err
		return err
	}
	if err := w.enc.EmitStopMarker(); err != nil {
		w.err = fromLZMA(err)
		return w.err
	}
	if err := w.enc.Flush(); err != nil {
		w.err = fromLZMA(err)
		return w.err
	}
	if err := w.drainEncoder(); err != nil {
		w.err = err
		return err
	}

	memberSize := w.memberBytes + trailerLen
	var buf [trailerLen]byte
	trailer{crc: w.crc, dataSize: uint64(w.dataSize), memberSize: uint64(memberSize)}.put(buf[:])
	w.out.Write(buf[:])
	w.memberBytes += trailerLen
	w.memberActive = false
	xlog.Printf(Debug, "lzip: finished member, data_size=%d member_size=%d\n", w.dataSize, memberSize)
	return nil
}

// RestartMember starts a fresh member once the active one has been
// closed out by Finish, resetting per-member state while keeping the
// cumulative TotalIn/TotalOut counters. It returns a SequenceError if
// the active member has not been finished yet.
func (w *Writer) RestartMember() error {
	if w.memberActive {
		return newError(SequenceError, "restart_member called before the active member finished")
	}
	return w.startMember()
}

// SyncFlush forces every symbol encoded so far to become decodable
// without ending the member: it emits a sync-flush marker and a fresh
// range-coder prime sequence, at the cost of a little compression
// efficiency.
func (w *Writer) SyncFlush() error {
	if !w.memberActive {
		return newError(SequenceError, "sync_flush called with no active member")
	}
	if err := w.pump(); err != nil {
		w.err = err
		return err
	}
	if err := w.enc.EmitSyncFlushMarker(); err != nil {
		w.err = fromLZMA(err)
		return w.err
	}
	if err := w.enc.Flush(); err != nil {
		w.err = fromLZMA(err)
		return w.err
	}
	if err := w.drainEncoder(); err != nil {
		return err
	}
	return nil
}

// Close finishes the active member, if any, and marks the writer
// closed: Read will return io.EOF once every staged byte is drained.
func (w *Writer) Close() error {
	if w.memberActive {
		if err := w.Finish(); err != nil {
			return err
		}
	}
	w.closed = true
	return nil
}

// DataPosition returns the number of uncompressed bytes accepted into
// the active member so far.
func (w *Writer) DataPosition() int64 { return w.dataSize }

// TotalIn returns the cumulative uncompressed bytes accepted across
// every member.
func (w *Writer) TotalIn() int64 { return w.totalIn }

// TotalOut returns the cumulative compressed bytes produced across
// every member.
func (w *Writer) TotalOut() int64 { return w.totalOut }

// MemberPosition returns the compressed bytes emitted so far for the
// active (or just-finished) member, header and trailer included.
func (w *Writer) MemberPosition() int64 { return w.memberBytes }

// MemberFinished reports whether the active member has been closed
// out by Finish (directly, via MemberSize rollover, or via Close).
func (w *Writer) MemberFinished() bool { return !w.memberActive }

// Err returns the latched fatal error, if any.
func (w *Writer) Err() error {
	if w.err == nil {
		return nil
	}
	return w.err
}

// Finished reports whether the writer has been closed and every
// staged byte has been delivered.
func (w *Writer) Finished() bool {
	return w.closed && !w.memberActive && w.out.Len() == 0
}
