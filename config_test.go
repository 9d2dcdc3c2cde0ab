// Copyright 2015 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lzip

import "testing"

func TestPresetBounds(t *testing.T) {
	for level := 0; level <= 9; level++ {
		cfg := Preset(level)
		if err := cfg.Verify(); err != nil {
			t.Fatalf("level %d: Verify error %s", level, err)
		}
	}
}

func TestPresetPanicsOutOfRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected Preset(10) to panic")
		}
	}()
	Preset(10)
}

func TestSetDefaults(t *testing.T) {
	var cfg EncoderConfig
	cfg.SetDefaults()
	want := Preset(6)
	if cfg != want {
		t.Fatalf("SetDefaults produced %+v, want level 6 preset %+v", cfg, want)
	}
}

func TestVerifyRejectsOutOfRangeFields(t *testing.T) {
	cases := []EncoderConfig{
		{DictSize: minDictSize - 1, MatchLenLimit: 16},
		{DictSize: maxDictSize + 1, MatchLenLimit: 16},
		{DictSize: 1 << 20, MatchLenLimit: minMatchLenLimit - 1},
		{DictSize: 1 << 20, MatchLenLimit: maxMatchLenLimit + 1},
		{DictSize: 1 << 20, MatchLenLimit: 16, MemberSize: minMemberSize - 1},
	}
	for i, cfg := range cases {
		if err := cfg.Verify(); err == nil {
			t.Fatalf("case %d: expected Verify to reject %+v", i, cfg)
		}
	}
}

func TestUsesFastEncoder(t *testing.T) {
	if !Preset(0).usesFastEncoder() {
		t.Fatalf("level 0 preset should select the fast encoder")
	}
	for level := 1; level <= 9; level++ {
		if Preset(level).usesFastEncoder() {
			t.Fatalf("level %d preset should not select the fast encoder", level)
		}
	}
}

func TestDecoderConfigDefaults(t *testing.T) {
	var cfg DecoderConfig
	cfg.SetDefaults()
	if cfg.MaxDictSize != maxDictSize {
		t.Fatalf("MaxDictSize default = %d, want %d", cfg.MaxDictSize, maxDictSize)
	}
	if err := cfg.Verify(); err != nil {
		t.Fatalf("Verify error %s", err)
	}
}

func TestDecoderConfigRejectsHugeMaxDictSize(t *testing.T) {
	cfg := DecoderConfig{MaxDictSize: maxDictSize + 1}
	if err := cfg.Verify(); err == nil {
		t.Fatalf("expected Verify to reject MaxDictSize beyond maxDictSize")
	}
}
