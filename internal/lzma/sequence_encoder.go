// Copyright 2015 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lzma

// SequenceEncoder is the common surface of Encoder and FastEncoder.
// The container orchestrator holds one SequenceEncoder per member,
// choosing which concrete type to construct from the member's
// dictionary size and match length limit (spec §9's "dynamic dispatch
// between normal and fast encoders... no vtable required" maps
// naturally onto a plain Go interface).
type SequenceEncoder interface {
	Write(p []byte) int
	WriteSize() int
	DataPos() int64
	Step() (wrote bool, err error)
	EmitStopMarker() error
	EmitSyncFlushMarker() error
	Flush() error
	ReadCompressed(dst []byte) int
	CompressedAvail() int
}

var (
	_ SequenceEncoder = (*Encoder)(nil)
	_ SequenceEncoder = (*FastEncoder)(nil)
)
