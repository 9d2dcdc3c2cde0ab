// Copyright 2015 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package lzip supports the reading and writing of lzip files.
//
// A stream is a sequence of one or more concatenated members, each an
// independent header, LZMA-coded body, and CRC32/size trailer. Writer
// compresses into such a stream; Reader decompresses one. Both push
// and pull bytes non-blockingly: a short Write or a zero-byte Read
// with a nil error means "try again once more input is supplied, or
// output drained", not an error.
package lzip
