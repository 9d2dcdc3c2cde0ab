// Copyright 2015 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lzip

import (
	"fmt"

	"github.com/ulikunitz/lzip/internal/lzma"
)

// ErrorKind classifies every error a Reader or Writer can report, as
// described in spec.md's error-handling design.
type ErrorKind int

const (
	// OK means no error.
	OK ErrorKind = iota
	// BadArgument means open parameters were invalid, or a method was
	// called in a way that misuses the handle.
	BadArgument
	// MemError means an allocation failed.
	MemError
	// SequenceError means the operation is invalid in the handle's
	// current state, such as RestartMember before the active member
	// finished.
	SequenceError
	// HeaderError means the member magic, version, or dictionary-size
	// field was invalid.
	HeaderError
	// UnexpectedEOF means the stream ended mid-member, before the
	// header completed or before the trailer was read.
	UnexpectedEOF
	// DataError means the trailer did not match, a distance or marker
	// was out of range, or the member was otherwise corrupt.
	DataError
	// LibraryError means an internal invariant failed; the handle is
	// poisoned and cannot make further progress.
	LibraryError
)

//go:generate stringer -type=ErrorKind

func (k ErrorKind) String() string {
	switch k {
	case OK:
		return "ok"
	case BadArgument:
		return "bad_argument"
	case MemError:
		return "mem_error"
	case SequenceError:
		return "sequence_error"
	case HeaderError:
		return "header_error"
	case UnexpectedEOF:
		return "unexpected_eof"
	case DataError:
		return "data_error"
	case LibraryError:
		return "library_error"
	default:
		return "unknown_error"
	}
}

// Error is the error type returned by every Reader and Writer method
// that can fail. Kind lets a caller branch on the taxonomy from
// spec.md §7 without string matching.
type Error struct {
	Kind ErrorKind
	Msg  string
	// Cause is the lower-level error this one was derived from, if
	// any (e.g. the internal/lzma error fromLZMA translated). It is
	// nil for errors constructed directly at the container level.
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("lzip: %s: %s", e.Kind, e.Msg)
}

// Unwrap exposes Cause to errors.Is/errors.As/errors.Unwrap so a
// caller can recover the internal/lzma error that produced this one.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is one of the exported kind sentinels
// (ErrBadArgument, ErrDataError, ...) naming the same Kind, so callers
// can write errors.Is(err, lzip.ErrDataError) instead of a type
// assertion followed by a Kind comparison. Any other *Error, including
// one with the same Kind but constructed elsewhere, also matches: Is
// only ever compares Kind, never Msg or Cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Kind sentinels for errors.Is(err, lzip.ErrDataError) style checks.
// Their Msg/Cause fields are unset and irrelevant: Error.Is compares
// Kind alone.
var (
	ErrBadArgument   = &Error{Kind: BadArgument}
	ErrMemError      = &Error{Kind: MemError}
	ErrSequenceError = &Error{Kind: SequenceError}
	ErrHeaderError   = &Error{Kind: HeaderError}
	ErrUnexpectedEOF = &Error{Kind: UnexpectedEOF}
	ErrDataError     = &Error{Kind: DataError}
	ErrLibraryError  = &Error{Kind: LibraryError}
)

func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// wrapError is newError plus a recorded Cause, for errors derived from
// a lower-level failure a caller might want to recover with
// errors.As/errors.Unwrap.
func wrapError(kind ErrorKind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

// fromLZMA maps an internal/lzma error to the public taxonomy. A
// DataError becomes DataError; lzma.ErrLibrary (the "pre-verified
// headroom ran out anyway" invariant failure) and anything else
// unrecognized become LibraryError, since internal/lzma promises not
// to return anything else. The original internal/lzma error is kept as
// Cause so errors.As can still recover it.
func fromLZMA(err error) *Error {
	if err == nil {
		return nil
	}
	if de, ok := err.(lzma.DataError); ok {
		return wrapError(DataError, de, "%s", de.Error())
	}
	return wrapError(LibraryError, err, "%s", err.Error())
}
