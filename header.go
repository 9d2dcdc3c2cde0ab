// Copyright 2015 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lzip

import "encoding/binary"

// magic is the 4-byte prefix identifying every lzip member.
var magic = [4]byte{0x4C, 0x5A, 0x49, 0x50}

// version is the only member format version this package understands.
const version = 0x01

// headerLen and trailerLen are the fixed framing sizes around every
// member's LZMA stream.
const (
	headerLen  = 6
	trailerLen = 20
)

const (
	minDictSize = 1 << 12
	maxDictSize = 1 << 29
)

// header is the 6-byte prefix of a member: magic, version, and the
// packed dictionary-size descriptor.
type header struct {
	version  byte
	dictSize int
}

// decodeDictSize unpacks the header's dictionary-size byte: bits 0..4
// are a base-2 log, bits 5..7 a sixteenths reduction applied to the
// resulting power of two. It reports ok=false if the result falls
// outside [minDictSize, maxDictSize].
func decodeDictSize(b byte) (dictSize int, ok bool) {
	base := 1 << uint(b&0x1F)
	reduction := int(b>>5) & 7
	dictSize = base - (base/16)*reduction
	if dictSize < minDictSize || dictSize > maxDictSize {
		return 0, false
	}
	return dictSize, true
}

// encodeDictSize packs dictSize into a header byte. It picks the exact
// encoding for dictSize if one exists (true of every size named in the
// compression-level table), otherwise the smallest power of two at or
// above dictSize with no reduction.
func encodeDictSize(dictSize int) byte {
	for exp := 12; exp <= 29; exp++ {
		base := 1 << uint(exp)
		for reduction := 0; reduction < 8; reduction++ {
			if base-(base/16)*reduction == dictSize {
				return byte(exp) | byte(reduction<<5)
			}
		}
	}
	exp := 12
	for (1 << uint(exp)) < dictSize {
		exp++
	}
	return byte(exp)
}

// headerDataErrorThreshold is the headerMismatchScore at or above which
// a bad magic sequence is treated as a damaged member (DataError)
// rather than input that was never lzip at all (HeaderError).
const headerDataErrorThreshold = 2

// parseHeader validates a 6-byte buffer as a member header. headerMismatchScore
// counts how many of the 4 magic bytes matched, used to distinguish a
// corrupt member (likely the right format, damaged) from data that was
// never an lzip stream at all: a score at or above
// headerDataErrorThreshold surfaces as DataError, anything below it as
// HeaderError.
func parseHeader(buf []byte) (h header, headerMismatchScore int, err error) {
	for i, m := range magic {
		if buf[i] == m {
			headerMismatchScore++
		}
	}
	if headerMismatchScore < len(magic) {
		if headerMismatchScore >= headerDataErrorThreshold {
			return header{}, headerMismatchScore, newError(DataError, "corrupted magic (%d/%d bytes matched)", headerMismatchScore, len(magic))
		}
		return header{}, headerMismatchScore, newError(HeaderError, "bad magic")
	}
	if buf[4] != version {
		return header{}, headerMismatchScore, newError(HeaderError, "unsupported version %d", buf[4])
	}
	dictSize, ok := decodeDictSize(buf[5])
	if !ok {
		return header{}, headerMismatchScore, newError(HeaderError, "invalid dictionary-size byte %#x", buf[5])
	}
	return header{version: buf[4], dictSize: dictSize}, headerMismatchScore, nil
}

// put writes the 6-byte wire encoding of h into buf, which must be at
// least headerLen bytes.
func (h header) put(buf []byte) {
	copy(buf[:4], magic[:])
	buf[4] = h.version
	buf[5] = encodeDictSize(h.dictSize)
}

// trailer is the 20-byte little-endian suffix of a member.
type trailer struct {
	crc        uint32
	dataSize   uint64
	memberSize uint64
}

func (t trailer) put(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], t.crc)
	binary.LittleEndian.PutUint64(buf[4:12], t.dataSize)
	binary.LittleEndian.PutUint64(buf[12:20], t.memberSize)
}

func parseTrailer(buf []byte) trailer {
	return trailer{
		crc:        binary.LittleEndian.Uint32(buf[0:4]),
		dataSize:   binary.LittleEndian.Uint64(buf[4:12]),
		memberSize: binary.LittleEndian.Uint64(buf[12:20]),
	}
}
