// Copyright 2015 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lzip

import "github.com/ulikunitz/lzip/internal/crc32table"

// crc32Update folds one byte into the running CRC, matching the IEEE
// polynomial lzip's trailer uses.
func crc32Update(crc uint32, b byte) uint32 {
	return crc32table.Update(crc, b)
}

// crc32UpdateBytes folds a full slice into the running CRC.
func crc32UpdateBytes(crc uint32, p []byte) uint32 {
	return crc32table.UpdateBytes(crc, p)
}
