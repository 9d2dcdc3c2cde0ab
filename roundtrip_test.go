// Copyright 2015 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lzip

import (
	"bytes"
	"io"
	"math/rand"
	"testing"

	"github.com/kr/pretty"
	"github.com/ulikunitz/lzip/internal/randtxt"
)

// pumpWrite feeds data into w, looping on short writes.
func pumpWrite(t testing.TB, w *Writer, data []byte) {
	t.Helper()
	for len(data) > 0 {
		n, err := w.Write(data)
		if err != nil {
			t.Fatalf("Writer.Write error %s", err)
		}
		if n == 0 {
			t.Fatalf("Writer.Write made no progress")
		}
		data = data[n:]
	}
}

// drainWriter pulls every byte the writer has staged, stopping at EOF.
func drainWriter(t testing.TB, w *Writer) []byte {
	t.Helper()
	var out []byte
	buf := make([]byte, 4096)
	for {
		n, err := w.Read(buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("Writer.Read error %s", err)
		}
		if n == 0 {
			return out
		}
	}
}

// compress runs data through a fresh Writer built from cfg and returns the
// whole compressed stream.
func compress(t testing.TB, cfg EncoderConfig, data []byte) []byte {
	t.Helper()
	w, err := NewWriter(cfg)
	if err != nil {
		t.Fatalf("NewWriter error %s", err)
	}
	pumpWrite(t, w, data)
	if err := w.Close(); err != nil {
		t.Fatalf("Writer.Close error %s", err)
	}
	return drainWriter(t, w)
}

// pumpReaderWrite feeds compressed bytes into r, looping on short writes.
func pumpReaderWrite(t testing.TB, r *Reader, data []byte) {
	t.Helper()
	for len(data) > 0 {
		n, err := r.Write(data)
		if err != nil {
			t.Fatalf("Reader.Write error %s", err)
		}
		if n == 0 {
			t.Fatalf("Reader.Write made no progress")
		}
		data = data[n:]
	}
}

// drainReader reads every decompressed byte available without blocking,
// i.e. until a zero-byte, nil-error Read.
func drainReader(t testing.TB, r *Reader) []byte {
	t.Helper()
	var out []byte
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("Reader.Read error %s", err)
		}
		if n == 0 {
			return out
		}
	}
}

// decompress feeds compressed through a fresh Reader and returns the
// decompressed bytes.
func decompress(t testing.TB, compressed []byte) []byte {
	t.Helper()
	r, err := NewReader(DecoderConfig{})
	if err != nil {
		t.Fatalf("NewReader error %s", err)
	}
	pumpReaderWrite(t, r, compressed)
	if err := r.Close(); err != nil {
		t.Fatalf("Reader.Close error %s", err)
	}
	return drainReader(t, r)
}

func randomText(t testing.TB, n int, seed int64) []byte {
	t.Helper()
	rr := randtxt.NewReader(rand.NewSource(seed))
	buf := make([]byte, n)
	if _, err := io.ReadFull(rr, buf); err != nil {
		t.Fatalf("randtxt read error %s", err)
	}
	return buf
}

// mismatchSummary captures just enough about a failed round trip for
// pretty.Sprint to produce an actionable diff without dumping
// megabytes of raw bytes into a test log.
type mismatchSummary struct {
	GotLen, WantLen         int
	FirstDiffAt             int
	GotContext, WantContext []byte
}

func summarizeMismatch(got, want []byte) mismatchSummary {
	n := len(got)
	if len(want) < n {
		n = len(want)
	}
	first := n
	for i := 0; i < n; i++ {
		if got[i] != want[i] {
			first = i
			break
		}
	}
	context := func(b []byte, at int) []byte {
		lo, hi := at-8, at+8
		if lo < 0 {
			lo = 0
		}
		if hi > len(b) {
			hi = len(b)
		}
		return b[lo:hi]
	}
	return mismatchSummary{
		GotLen: len(got), WantLen: len(want), FirstDiffAt: first,
		GotContext: context(got, first), WantContext: context(want, first),
	}
}

// requireRoundTrip fails t with a pretty-printed diff summary (first
// differing offset, surrounding bytes on each side) if got and want
// disagree, rather than just reporting a length mismatch.
func requireRoundTrip(t testing.TB, got, want []byte) {
	t.Helper()
	if bytes.Equal(got, want) {
		return
	}
	t.Fatalf("round trip mismatch:\n%s", pretty.Sprint(summarizeMismatch(got, want)))
}

func TestRoundTripPresets(t *testing.T) {
	text := randomText(t, 64*1024, 1)
	for level := 0; level <= 9; level++ {
		level := level
		t.Run(string(rune('0'+level)), func(t *testing.T) {
			cfg := Preset(level)
			compressed := compress(t, cfg, text)
			if !bytes.HasPrefix(compressed, magic[:]) {
				t.Fatalf("level %d: compressed stream missing magic prefix", level)
			}
			got := decompress(t, compressed)
			requireRoundTrip(t, got, text)
		})
	}
}

func TestRoundTripEmpty(t *testing.T) {
	compressed := compress(t, Preset(6), nil)
	got := decompress(t, compressed)
	if len(got) != 0 {
		t.Fatalf("empty round trip produced %d bytes", len(got))
	}
}

func TestRoundTripChunkedWrite(t *testing.T) {
	text := randomText(t, 200*1024, 2)
	cfg := Preset(6)
	w, err := NewWriter(cfg)
	if err != nil {
		t.Fatalf("NewWriter error %s", err)
	}
	var compressed []byte
	for _, chunk := range splitChunks(text, 37) {
		pumpWrite(t, w, chunk)
		compressed = append(compressed, drainWriter(t, w)...)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Writer.Close error %s", err)
	}
	compressed = append(compressed, drainWriter(t, w)...)

	r, err := NewReader(DecoderConfig{})
	if err != nil {
		t.Fatalf("NewReader error %s", err)
	}
	var got []byte
	for _, chunk := range splitChunks(compressed, 53) {
		pumpReaderWrite(t, r, chunk)
		got = append(got, drainReader(t, r)...)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Reader.Close error %s", err)
	}
	got = append(got, drainReader(t, r)...)
	requireRoundTrip(t, got, text)
}

func splitChunks(p []byte, size int) [][]byte {
	var chunks [][]byte
	for len(p) > 0 {
		n := size
		if n > len(p) {
			n = len(p)
		}
		chunks = append(chunks, p[:n])
		p = p[n:]
	}
	return chunks
}

func TestRoundTripConcatenatedMembers(t *testing.T) {
	a := randomText(t, 4096, 3)
	b := randomText(t, 8192, 4)

	w, err := NewWriter(Preset(3))
	if err != nil {
		t.Fatalf("NewWriter error %s", err)
	}
	pumpWrite(t, w, a)
	if err := w.Finish(); err != nil {
		t.Fatalf("Finish error %s", err)
	}
	if err := w.RestartMember(); err != nil {
		t.Fatalf("RestartMember error %s", err)
	}
	pumpWrite(t, w, b)
	if err := w.Close(); err != nil {
		t.Fatalf("Writer.Close error %s", err)
	}
	compressed := drainWriter(t, w)

	got := decompress(t, compressed)
	want := append(append([]byte{}, a...), b...)
	requireRoundTrip(t, got, want)
}

func TestMemberSizeRollover(t *testing.T) {
	cfg := Preset(1)
	cfg.MemberSize = minMemberSize
	text := randomText(t, minMemberSize*3, 5)
	compressed := compress(t, cfg, text)

	// Every rollover starts a fresh header, so more than one magic
	// sequence must appear in the stream.
	count := bytes.Count(compressed, magic[:])
	if count < 2 {
		t.Fatalf("expected multiple members from MemberSize rollover, found %d magic occurrences", count)
	}
	got := decompress(t, compressed)
	requireRoundTrip(t, got, text)
}

func TestSyncFlush(t *testing.T) {
	text1 := randomText(t, 2048, 6)
	text2 := randomText(t, 2048, 7)

	w, err := NewWriter(Preset(4))
	if err != nil {
		t.Fatalf("NewWriter error %s", err)
	}
	pumpWrite(t, w, text1)
	if err := w.SyncFlush(); err != nil {
		t.Fatalf("SyncFlush error %s", err)
	}
	flushed := drainWriter(t, w)
	pumpWrite(t, w, text2)
	if err := w.Close(); err != nil {
		t.Fatalf("Writer.Close error %s", err)
	}
	rest := drainWriter(t, w)

	r, err := NewReader(DecoderConfig{})
	if err != nil {
		t.Fatalf("NewReader error %s", err)
	}
	pumpReaderWrite(t, r, flushed)
	got := drainReader(t, r)
	requireRoundTrip(t, got, text1)
	pumpReaderWrite(t, r, rest)
	if err := r.Close(); err != nil {
		t.Fatalf("Reader.Close error %s", err)
	}
	got = append(got, drainReader(t, r)...)
	want := append(append([]byte{}, text1...), text2...)
	requireRoundTrip(t, got, want)
}

func TestTruncatedStreamIsUnexpectedEOF(t *testing.T) {
	text := randomText(t, 8192, 8)
	compressed := compress(t, Preset(5), text)
	truncated := compressed[:len(compressed)-trailerLen-1]

	r, err := NewReader(DecoderConfig{})
	if err != nil {
		t.Fatalf("NewReader error %s", err)
	}
	pumpReaderWrite(t, r, truncated)
	drainReader(t, r)
	err = r.Close()
	if err == nil {
		t.Fatalf("expected an error closing a truncated stream")
	}
	lerr, ok := err.(*Error)
	if !ok || lerr.Kind != UnexpectedEOF {
		t.Fatalf("got error %v, want kind UnexpectedEOF", err)
	}
}

func TestCorruptedTrailerIsDataError(t *testing.T) {
	text := randomText(t, 4096, 9)
	compressed := compress(t, Preset(2), text)
	// Flip a bit in the trailer's CRC field.
	compressed[len(compressed)-trailerLen] ^= 0xff

	r, err := NewReader(DecoderConfig{})
	if err != nil {
		t.Fatalf("NewReader error %s", err)
	}
	var gotErr error
	for len(compressed) > 0 && gotErr == nil {
		n, werr := r.Write(compressed)
		compressed = compressed[n:]
		drainReader(t, r)
		if werr != nil {
			gotErr = werr
			break
		}
		if n == 0 {
			break
		}
	}
	if gotErr == nil {
		gotErr = r.Close()
	}
	lerr, ok := gotErr.(*Error)
	if !ok || lerr.Kind != DataError {
		t.Fatalf("got error %v, want kind DataError", gotErr)
	}
}

func TestBadMagicIsHeaderError(t *testing.T) {
	r, err := NewReader(DecoderConfig{})
	if err != nil {
		t.Fatalf("NewReader error %s", err)
	}
	junk := []byte("not an lzip stream at all, just plain text bytes")
	_, werr := r.Write(junk)
	if werr == nil {
		drainReader(t, r)
		werr = r.Close()
	}
	lerr, ok := werr.(*Error)
	if !ok || lerr.Kind != HeaderError {
		t.Fatalf("got error %v, want kind HeaderError", werr)
	}
}

func TestSyncToMemberResync(t *testing.T) {
	// Noise that contains neither the magic sequence nor happens to
	// parse as a valid header, followed by a genuine member.
	noise := []byte("the quick brown fox jumps over the lazy noisy dog, repeatedly, as noise does")
	b := randomText(t, 2048, 11)
	compressedB := compress(t, Preset(2), b)
	stream := append(append([]byte{}, noise...), compressedB...)

	r, err := NewReader(DecoderConfig{})
	if err != nil {
		t.Fatalf("NewReader error %s", err)
	}
	n, werr := r.Write(stream)
	if werr == nil {
		t.Fatalf("expected a header error reading pure noise, got n=%d err=nil", n)
	}
	lerr, ok := werr.(*Error)
	if !ok || lerr.Kind != HeaderError {
		t.Fatalf("got error %v, want kind HeaderError", werr)
	}
	rest := stream[n:]

	r.SyncToMember()
	if err := r.Err(); err != nil {
		t.Fatalf("SyncToMember error %s", err)
	}
	pumpReaderWrite(t, r, rest)
	got := drainReader(t, r)
	if err := r.Close(); err != nil {
		t.Fatalf("Reader.Close after resync error %s", err)
	}
	got = append(got, drainReader(t, r)...)
	requireRoundTrip(t, got, b)
}

func TestMemberAccessors(t *testing.T) {
	text := randomText(t, 4096, 12)
	cfg := Preset(3)

	w, err := NewWriter(cfg)
	if err != nil {
		t.Fatalf("NewWriter error %s", err)
	}
	pumpWrite(t, w, text)
	if w.MemberFinished() {
		t.Fatalf("writer reports member finished before Finish")
	}
	if got := w.DataPosition(); got != int64(len(text)) {
		t.Fatalf("DataPosition = %d, want %d", got, len(text))
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Writer.Close error %s", err)
	}
	if !w.MemberFinished() {
		t.Fatalf("writer does not report member finished after Close")
	}
	compressed := drainWriter(t, w)
	if !w.Finished() {
		t.Fatalf("writer does not report Finished after draining a closed stream")
	}
	if w.TotalIn() != int64(len(text)) {
		t.Fatalf("TotalIn = %d, want %d", w.TotalIn(), len(text))
	}
	if w.TotalOut() != int64(len(compressed)) {
		t.Fatalf("TotalOut = %d, want %d", w.TotalOut(), len(compressed))
	}

	r, err := NewReader(DecoderConfig{})
	if err != nil {
		t.Fatalf("NewReader error %s", err)
	}
	pumpReaderWrite(t, r, compressed)
	drainReader(t, r)
	if err := r.Close(); err != nil {
		t.Fatalf("Reader.Close error %s", err)
	}
	drainReader(t, r)
	if !r.MemberFinished() {
		t.Fatalf("reader does not report member finished once the trailer is consumed")
	}
	if r.DictionarySize() != cfg.DictSize {
		t.Fatalf("DictionarySize = %d, want %d", r.DictionarySize(), cfg.DictSize)
	}
	if r.MemberVersion() != version {
		t.Fatalf("MemberVersion = %d, want %d", r.MemberVersion(), version)
	}
	if !r.Finished() {
		t.Fatalf("reader does not report Finished")
	}
	if r.TotalIn() != int64(len(compressed)) {
		t.Fatalf("TotalIn = %d, want %d", r.TotalIn(), len(compressed))
	}
	if r.TotalOut() != int64(len(text)) {
		t.Fatalf("TotalOut = %d, want %d", r.TotalOut(), len(text))
	}
}
