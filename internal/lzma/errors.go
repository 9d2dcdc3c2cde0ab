// Copyright 2015 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lzma

import "fmt"

// DataError reports a structural or integrity problem discovered while
// decoding a member's LZMA stream, such as an out-of-range distance,
// an invalid marker or a non-zero range-coder prime byte. Trailer
// mismatches are detected by the root package, not here. The root
// package maps it to the public data_error kind.
type DataError struct {
	Msg string
}

func (e DataError) Error() string {
	return "lzma: " + e.Msg
}

func errDataError(format string, args ...interface{}) error {
	return DataError{Msg: fmt.Sprintf(format, args...)}
}

// needInput and needOutput are not errors; they are sentinel values a
// step function returns to tell its caller that it made all the
// progress it can until more input arrives or more output space frees
// up. Callers compare against them with ==, never wrap them.
var (
	errNeedInput  = fmt.Errorf("lzma: need more input")
	errNeedOutput = fmt.Errorf("lzma: need more output space")
)

// ErrNeedInput and ErrNeedOutput let the root package's orchestrator
// recognize the same suspension signals across the package boundary.
var (
	ErrNeedInput  = errNeedInput
	ErrNeedOutput = errNeedOutput
)

// ErrLibrary is errLibrary (see rangecoder.go), exported so the root
// package can distinguish an internal invariant failure from an
// ordinary DataError when mapping to the public error taxonomy.
var ErrLibrary = errLibrary
