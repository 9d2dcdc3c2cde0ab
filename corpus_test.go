// Copyright 2015 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lzip

import (
	"io"
	"io/fs"
	"sync"
	"testing"

	"github.com/ulikunitz/lzip/internal/discard"
	"github.com/ulikunitz/zdata"
)

// corpusFile is one sample file loaded from a zdata corpus.
type corpusFile struct {
	Name string
	Data []byte
}

// loadCorpusFiles walks corpus, the way internal/cmd/tune/corpus.go
// walks zdata.Silesia, collecting every regular file's contents.
func loadCorpusFiles(corpus fs.FS) ([]corpusFile, error) {
	var files []corpusFile
	err := fs.WalkDir(corpus, ".", func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		data, err := fs.ReadFile(corpus, path)
		if err != nil {
			return err
		}
		files = append(files, corpusFile{Name: path, Data: data})
		return nil
	})
	return files, err
}

var (
	silesiaFiles []corpusFile
	silesiaErr   error
	silesiaOnce  sync.Once
)

// loadSilesia lazily loads the Silesia sample corpus shipped by
// github.com/ulikunitz/zdata, the same realistic-file fixture the
// teacher's tuning tools benchmark compression ratio against.
func loadSilesia(t testing.TB) []corpusFile {
	t.Helper()
	silesiaOnce.Do(func() {
		silesiaFiles, silesiaErr = loadCorpusFiles(zdata.Silesia)
	})
	if silesiaErr != nil {
		t.Fatalf("loading Silesia corpus: %s", silesiaErr)
	}
	if len(silesiaFiles) == 0 {
		t.Skip("Silesia corpus is empty")
	}
	return silesiaFiles
}

// TestRoundTripSilesiaSample round trips a handful of real-world files
// rather than synthetic text, catching match-finder/decoder divergences
// that uniform random or letter-frequency text doesn't exercise.
func TestRoundTripSilesiaSample(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping Silesia corpus round trip in short mode")
	}
	files := loadSilesia(t)
	const sampleCount = 3
	for i := 0; i < sampleCount && i < len(files); i++ {
		f := files[i]
		t.Run(f.Name, func(t *testing.T) {
			compressed := compress(t, Preset(6), f.Data)
			got := decompress(t, compressed)
			requireRoundTrip(t, got, f.Data)
		})
	}
}

// pushPullReader adapts a Reader's push/pull Write/Read pair into a
// blocking io.Reader by feeding buffered compressed bytes on demand.
// Since the whole compressed stream already sits in memory here, there
// is no producer/consumer concurrency to coordinate: each call either
// returns freshly decoded bytes or feeds more compressed input and
// tries again.
type pushPullReader struct {
	r          *Reader
	compressed []byte
	closed     bool
}

func (p *pushPullReader) Read(buf []byte) (int, error) {
	for {
		n, err := p.r.Read(buf)
		if n > 0 || err != nil {
			return n, err
		}
		if len(p.compressed) == 0 {
			if !p.closed {
				p.closed = true
				if err := p.r.Close(); err != nil {
					return 0, err
				}
			}
			continue
		}
		k, err := p.r.Write(p.compressed)
		if err != nil {
			return 0, err
		}
		p.compressed = p.compressed[k:]
	}
}

// BenchmarkDecompressThroughputSilesia measures decompression throughput
// over a Silesia corpus file, discarding decoded output with
// internal/discard.Wrap instead of copying it into a throwaway buffer:
// the benchmark only needs bytes consumed, not their contents.
func BenchmarkDecompressThroughputSilesia(b *testing.B) {
	files, err := loadCorpusFiles(zdata.Silesia)
	if err != nil {
		b.Fatalf("loading Silesia corpus: %s", err)
	}
	if len(files) == 0 {
		b.Skip("Silesia corpus is empty")
	}
	f := files[0]
	compressed := compress(b, Preset(6), f.Data)

	b.SetBytes(int64(len(f.Data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r, err := NewReader(DecoderConfig{})
		if err != nil {
			b.Fatalf("NewReader error %s", err)
		}
		dr := discard.Wrap(&pushPullReader{r: r, compressed: compressed})
		n, err := dr.Discard64(int64(len(f.Data)))
		if err != nil && err != io.EOF {
			b.Fatalf("Discard64 error %s", err)
		}
		if n != int64(len(f.Data)) {
			b.Fatalf("Discard64 discarded %d bytes, want %d", n, len(f.Data))
		}
	}
}
