// Copyright 2015 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lzma

import "testing"

func TestModelsResetIsEquiprobable(t *testing.T) {
	var m models
	m.reset()
	if m.state != 0 {
		t.Fatalf("state after reset = %d, want 0", m.state)
	}
	for _, d := range m.rep {
		if d != 0 {
			t.Fatalf("rep distances after reset = %v, want all zero", m.rep)
		}
	}
	for i, p := range m.isMatch {
		if p != probInit {
			t.Fatalf("isMatch[%d] after reset = %d, want %d", i, p, probInit)
		}
	}
}

func TestModelsResetReusesLiteralProbs(t *testing.T) {
	var m models
	m.reset()
	first := m.litCodec.probs
	m.litCodec.probs[0] = 1
	m.reset()
	if &m.litCodec.probs[0] != &first[0] {
		t.Fatalf("reset reallocated litCodec.probs instead of reusing it")
	}
	if m.litCodec.probs[0] != probInit {
		t.Fatalf("litCodec.probs[0] after second reset = %d, want %d", m.litCodec.probs[0], probInit)
	}
}

func TestStateTransitions(t *testing.T) {
	var m models
	m.reset()

	m.updateStateMatch()
	if m.state != 7 {
		t.Fatalf("state after match from 0 = %d, want 7", m.state)
	}
	m.updateStateMatch()
	if m.state != 10 {
		t.Fatalf("state after match from 7 = %d, want 10", m.state)
	}
	m.updateStateLiteral()
	if m.state != 4 {
		t.Fatalf("state after literal from 10 = %d, want 4", m.state)
	}
	m.updateStateLiteral()
	if m.state != 1 {
		t.Fatalf("state after literal from 4 = %d, want 1", m.state)
	}
}

func TestMoveRepToFront(t *testing.T) {
	var m models
	m.rep = [4]uint32{1, 2, 3, 4}

	m.moveRepToFront(2, m.rep[2])
	want := [4]uint32{3, 1, 2, 4}
	if m.rep != want {
		t.Fatalf("moveRepToFront(2, ...) = %v, want %v", m.rep, want)
	}

	m.rep = [4]uint32{1, 2, 3, 4}
	m.moveRepToFront(0, 99)
	want = [4]uint32{99, 2, 3, 4}
	if m.rep != want {
		t.Fatalf("moveRepToFront(0, 99) = %v, want %v", m.rep, want)
	}
}

func TestLitState(t *testing.T) {
	// literalPosBits is 0 for lzip, so only the previous byte's top
	// literalContextBits bits feed the literal state.
	got := litState(0xff, 123)
	want := uint32(0xff >> (8 - literalContextBits))
	if got != want {
		t.Fatalf("litState(0xff, 123) = %d, want %d", got, want)
	}
}
