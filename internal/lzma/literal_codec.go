// Copyright 2015 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lzma

// literalCodec encodes/decodes literal bytes. It keeps 0x300
// probability cells per literal-context slot: the lower 0x100 model a
// plain 8-bit literal, the upper 0x200 model a literal coded in the
// context of the byte at rep0 ("matched literal"), used right after a
// match or rep.
type literalCodec struct {
	probs []prob
}

func (lc *literalCodec) init() {
	initProbs(lc.probs)
}

// newLiteralProbs allocates the probability slice for litStates
// contexts (litStates = 1<<(lc+lp), see state.go).
func newLiteralProbs(litStates uint32) []prob {
	p := make([]prob, 0x300*litStates)
	initProbs(p)
	return p
}

func (lc *literalCodec) encode(e *rangeEncoder, s byte, litState uint32) error {
	k := litState * 0x300
	probs := lc.probs[k : k+0x300]
	symbol := uint32(1)
	r := uint32(s)
	for symbol < 0x100 {
		bit := (r >> 7) & 1
		r <<= 1
		if err := e.encodeBit(&probs[symbol], bit); err != nil {
			return err
		}
		symbol = (symbol << 1) | bit
	}
	return nil
}

func (lc *literalCodec) encodeMatched(e *rangeEncoder, s, match byte, litState uint32) error {
	k := litState * 0x300
	probs := lc.probs[k : k+0x300]
	symbol := uint32(1)
	r := uint32(s)
	m := uint32(match)
	for symbol < 0x100 {
		matchBit := (m >> 7) & 1
		m <<= 1
		bit := (r >> 7) & 1
		r <<= 1
		i := ((1 + matchBit) << 8) | symbol
		if err := e.encodeBit(&probs[i], bit); err != nil {
			return err
		}
		symbol = (symbol << 1) | bit
		if matchBit != bit {
			for symbol < 0x100 {
				bit := (r >> 7) & 1
				r <<= 1
				if err := e.encodeBit(&probs[symbol], bit); err != nil {
					return err
				}
				symbol = (symbol << 1) | bit
			}
			break
		}
	}
	return nil
}

// price returns the bit cost of encoding s as a plain literal, without
// touching any probability cell; used by the encoder to compare a
// literal against a match/rep candidate of the same length.
func (lc *literalCodec) price(s byte, litState uint32) uint32 {
	k := litState * 0x300
	probs := lc.probs[k : k+0x300]
	symbol := uint32(1)
	r := uint32(s)
	var cost uint32
	for symbol < 0x100 {
		bit := (r >> 7) & 1
		r <<= 1
		cost += price(probs[symbol], bit)
		symbol = (symbol << 1) | bit
	}
	return cost
}

// priceMatched is price's counterpart for the matched-literal context.
func (lc *literalCodec) priceMatched(s, match byte, litState uint32) uint32 {
	k := litState * 0x300
	probs := lc.probs[k : k+0x300]
	symbol := uint32(1)
	r := uint32(s)
	m := uint32(match)
	var cost uint32
	for symbol < 0x100 {
		matchBit := (m >> 7) & 1
		m <<= 1
		bit := (r >> 7) & 1
		r <<= 1
		i := ((1 + matchBit) << 8) | symbol
		cost += price(probs[i], bit)
		symbol = (symbol << 1) | bit
		if matchBit != bit {
			for symbol < 0x100 {
				bit := (r >> 7) & 1
				r <<= 1
				cost += price(probs[symbol], bit)
				symbol = (symbol << 1) | bit
			}
			break
		}
	}
	return cost
}

func (lc *literalCodec) decode(d *rangeDecoder, litState uint32) (s byte, err error) {
	k := litState * 0x300
	probs := lc.probs[k : k+0x300]
	symbol := uint32(1)
	for symbol < 0x100 {
		bit, err := d.decodeBit(&probs[symbol])
		if err != nil {
			return 0, err
		}
		symbol = (symbol << 1) | bit
	}
	return byte(symbol - 0x100), nil
}

func (lc *literalCodec) decodeMatched(d *rangeDecoder, match byte, litState uint32) (s byte, err error) {
	k := litState * 0x300
	probs := lc.probs[k : k+0x300]
	symbol := uint32(1)
	m := uint32(match)
	for symbol < 0x100 {
		matchBit := (m >> 7) & 1
		m <<= 1
		i := ((1 + matchBit) << 8) | symbol
		bit, err := d.decodeBit(&probs[i])
		if err != nil {
			return 0, err
		}
		symbol = (symbol << 1) | bit
		if matchBit != bit {
			for symbol < 0x100 {
				bit, err := d.decodeBit(&probs[symbol])
				if err != nil {
					return 0, err
				}
				symbol = (symbol << 1) | bit
			}
			break
		}
	}
	return byte(symbol - 0x100), nil
}
