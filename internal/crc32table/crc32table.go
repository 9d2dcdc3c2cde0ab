// Copyright 2015 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package crc32table provides the rolling CRC32 (IEEE polynomial)
// needed for the lzip member trailer. The stdlib hash/crc32 package
// only exposes a batch hash.Hash32, which can't be driven one byte at a
// time interleaved with ring-buffer copies the way the decoder and
// encoder need; this package wraps the same stdlib-generated table
// (see crc.go in the teacher package for the pattern this follows) with
// an Update function suited to that incremental use.
package crc32table

import "hash/crc32"

// table is the standard IEEE CRC32 table, built once at package
// initialization and never mutated afterward.
var table = crc32.MakeTable(crc32.IEEE)

// Update folds a single byte into the running CRC value crc (start with
// 0; the final value needs no finishing step, matching hash/crc32's
// convention). Indexing the stdlib-built table directly avoids the
// per-byte slice allocation crc32.Update would otherwise cost on the
// decoder and encoder's hot path.
func Update(crc uint32, b byte) uint32 {
	crc = ^crc
	return ^(table[byte(crc)^b] ^ (crc >> 8))
}

// UpdateBytes folds a full slice into the running CRC value.
func UpdateBytes(crc uint32, p []byte) uint32 {
	return crc32.Update(crc, table, p)
}
