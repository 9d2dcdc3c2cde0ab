// Copyright 2015 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lzip

import "fmt"

const (
	minMatchLenLimit = 5
	maxMatchLenLimit = 273
	minMemberSize    = 1 << 12
	maxMemberSize    = 1 << 51
)

// EncoderConfig parameters drive Writer construction: dictionary size,
// greedy-vs-optimizing match length limit, and the member-size budget
// at which the writer rolls over to a fresh member on its own.
type EncoderConfig struct {
	// DictSize is the LZ dictionary size in bytes, in [2^12, 2^29].
	DictSize int `json:",omitempty"`
	// MatchLenLimit bounds how long a match the encoder will search
	// for, in [5, 273]. 16 combined with a 64 KiB DictSize selects the
	// fast (greedy) encoder; any other combination selects the
	// optimizing encoder.
	MatchLenLimit int `json:",omitempty"`
	// MemberSize caps the uncompressed bytes accepted into a single
	// member before the writer starts a new one automatically. Zero
	// means unbounded (a single member for the whole stream).
	MemberSize int64 `json:",omitempty"`
}

// presets holds the ten named compression levels from spec.md §6.
var presets = [10]EncoderConfig{
	0: {DictSize: 1 << 16, MatchLenLimit: 16},
	1: {DictSize: 1 << 20, MatchLenLimit: 5},
	2: {DictSize: 1 << 19, MatchLenLimit: 6},
	3: {DictSize: 1 << 21, MatchLenLimit: 8},
	4: {DictSize: 1 << 20, MatchLenLimit: 12},
	5: {DictSize: 1 << 22, MatchLenLimit: 20},
	6: {DictSize: 1 << 23, MatchLenLimit: 36},
	7: {DictSize: 1 << 24, MatchLenLimit: 68},
	8: {DictSize: 1 << 23, MatchLenLimit: 132},
	9: {DictSize: 1 << 25, MatchLenLimit: 273},
}

// Preset returns the EncoderConfig for a named compression level,
// 0 through 9. It panics if level is out of range, matching the
// package's convention of surfacing caller-side misuse early rather
// than through the Error taxonomy (no handle exists yet to latch it
// on).
func Preset(level int) EncoderConfig {
	if level < 0 || level > 9 {
		panic(fmt.Sprintf("lzip: invalid compression level %d", level))
	}
	return presets[level]
}

// SetDefaults fills unset fields with level 6's preset, the reference
// lzip tool's default.
func (cfg *EncoderConfig) SetDefaults() {
	def := presets[6]
	if cfg.DictSize == 0 {
		cfg.DictSize = def.DictSize
	}
	if cfg.MatchLenLimit == 0 {
		cfg.MatchLenLimit = def.MatchLenLimit
	}
}

// Verify checks that cfg's fields are within the bounds spec.md places
// on them.
func (cfg *EncoderConfig) Verify() error {
	if cfg == nil {
		return newError(BadArgument, "encoder config is nil")
	}
	if cfg.DictSize < minDictSize || cfg.DictSize > maxDictSize {
		return newError(BadArgument, "dictionary size %d outside [%d, %d]", cfg.DictSize, minDictSize, maxDictSize)
	}
	if cfg.MatchLenLimit < minMatchLenLimit || cfg.MatchLenLimit > maxMatchLenLimit {
		return newError(BadArgument, "match length limit %d outside [%d, %d]", cfg.MatchLenLimit, minMatchLenLimit, maxMatchLenLimit)
	}
	if cfg.MemberSize != 0 && (cfg.MemberSize < minMemberSize || cfg.MemberSize > maxMemberSize) {
		return newError(BadArgument, "member size %d outside [%d, %d]", cfg.MemberSize, minMemberSize, maxMemberSize)
	}
	return nil
}

// Clone returns an independent copy of cfg.
func (cfg EncoderConfig) Clone() EncoderConfig {
	return cfg
}

// usesFastEncoder reports whether cfg selects the greedy
// encoder rather than the price-optimizing one (spec.md §6 level 0).
func (cfg EncoderConfig) usesFastEncoder() bool {
	return (cfg.DictSize == 1<<16-1 || cfg.DictSize == 1<<16) && cfg.MatchLenLimit == 16
}

// DecoderConfig parameters drive Reader construction. Unlike the
// encoder, nothing about the decoder needs caller-supplied tuning —
// the dictionary size and version are read from each member's header
// — but config.go is kept symmetric with EncoderConfig so both handle
// types follow the same construction idiom.
type DecoderConfig struct {
	// MaxDictSize caps how large a dictionary size a header is allowed
	// to declare, guarding a hostile header from demanding an
	// unreasonable allocation. Zero means maxDictSize (2^29).
	MaxDictSize int `json:",omitempty"`
}

func (cfg *DecoderConfig) SetDefaults() {
	if cfg.MaxDictSize == 0 {
		cfg.MaxDictSize = maxDictSize
	}
}

func (cfg *DecoderConfig) Verify() error {
	if cfg == nil {
		return newError(BadArgument, "decoder config is nil")
	}
	if cfg.MaxDictSize < minDictSize || cfg.MaxDictSize > maxDictSize {
		return newError(BadArgument, "max dictionary size %d outside [%d, %d]", cfg.MaxDictSize, minDictSize, maxDictSize)
	}
	return nil
}

func (cfg DecoderConfig) Clone() DecoderConfig {
	return cfg
}
