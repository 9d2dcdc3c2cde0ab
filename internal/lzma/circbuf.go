// Copyright 2015 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lzma

import "errors"

// errBufFull indicates that a circBuf has no more free space for a
// write.
var errBufFull = errors.New("lzma: circular buffer full")

// circBuf is a fixed-capacity byte ring. It backs both the range coder's
// byte streams and the LZ decoder's sliding dictionary window; one slot
// is always kept empty so that get==put can mean "empty" rather than
// requiring a separate flag.
type circBuf struct {
	data []byte
	get  int
	put  int
	used int
}

// newCircBuf allocates a circBuf with the given capacity. The buffer can
// hold at most capacity-1 bytes at a time.
func newCircBuf(capacity int) *circBuf {
	if capacity < 2 {
		capacity = 2
	}
	return &circBuf{data: make([]byte, capacity)}
}

// NewRawBuf allocates a raw compressed-byte circular buffer of the
// given capacity, for the container orchestrator to feed into
// NewEncoder, NewFastEncoder or NewDecoder as their range-coder byte
// stream. Its type is unexported (callers hold the returned value
// without naming it), keeping circBuf itself an internal
// implementation detail.
func NewRawBuf(capacity int) *circBuf {
	return newCircBuf(capacity)
}

// capacity returns the number of bytes that data can hold.
func (b *circBuf) capacity() int {
	return len(b.data)
}

// usedBytes returns the number of bytes currently buffered.
func (b *circBuf) usedBytes() int {
	return b.used
}

// free returns the number of bytes that can still be written without
// overwriting unread data. One slot is always reserved.
func (b *circBuf) free() int {
	return len(b.data) - b.used - 1
}

func (b *circBuf) empty() bool {
	return b.used == 0
}

func (b *circBuf) full() bool {
	return b.free() == 0
}

// reset empties the buffer without releasing its storage.
func (b *circBuf) reset() {
	b.get, b.put, b.used = 0, 0, 0
}

// write copies as much of src as fits into the free space and returns
// the number of bytes accepted.
func (b *circBuf) write(src []byte) (accepted int) {
	n := len(b.data)
	free := b.free()
	if len(src) > free {
		src = src[:free]
	}
	for len(src) > 0 {
		k := copy(b.data[b.put:], src)
		src = src[k:]
		b.put += k
		if b.put == n {
			b.put = 0
		}
		accepted += k
	}
	b.used += accepted
	return accepted
}

// writeByte writes a single byte; it reports errBufFull if there is no
// free space.
func (b *circBuf) writeByte(c byte) error {
	if b.full() {
		return errBufFull
	}
	b.data[b.put] = c
	b.put++
	if b.put == len(b.data) {
		b.put = 0
	}
	b.used++
	return nil
}

// read copies buffered bytes into dst and returns the number delivered.
func (b *circBuf) read(dst []byte) (delivered int) {
	n := len(b.data)
	if len(dst) > b.used {
		dst = dst[:b.used]
	}
	for len(dst) > 0 {
		k := copy(dst, b.data[b.get:])
		dst = dst[k:]
		b.get += k
		if b.get == n {
			b.get = 0
		}
		delivered += k
	}
	b.used -= delivered
	return delivered
}

// readByte removes and returns a single byte. ok is false if the buffer
// is empty.
func (b *circBuf) readByte() (c byte, ok bool) {
	if b.used == 0 {
		return 0, false
	}
	c = b.data[b.get]
	b.get++
	if b.get == len(b.data) {
		b.get = 0
	}
	b.used--
	return c, true
}

// unread rolls the read position back by n bytes, as if the last n
// bytes read had not been. It fails, leaving the buffer unchanged, if n
// exceeds the free space (the bytes would no longer be guaranteed to be
// present, or would overrun what has ever been written).
func (b *circBuf) unread(n int) bool {
	if n < 0 || n > b.free() {
		return false
	}
	n2 := len(b.data)
	b.get -= n
	b.get %= n2
	if b.get < 0 {
		b.get += n2
	}
	b.used += n
	return true
}

// byteAt returns the byte that is dist bytes behind the current write
// position (dist==1 is the most recently written byte). ok is false if
// dist is zero or exceeds the number of bytes currently buffered
// (written and not yet read).
//
// A match distance is only ever valid up to dictionary_size bytes
// behind put, and the buffer's capacity is always allocated larger than
// dictionary_size; a caller that
// falls behind on reading decompressed output simply sees free() shrink
// toward zero ("need output space") before any byte still reachable by
// a match distance could be overwritten.
func (b *circBuf) byteAt(dist int) (c byte, ok bool) {
	if dist <= 0 || dist > b.used {
		return 0, false
	}
	n := len(b.data)
	i := b.put - dist
	i %= n
	if i < 0 {
		i += n
	}
	return b.data[i], true
}

// copyMatch copies n bytes from dist bytes behind put to put, byte by
// byte, allowing source and destination ranges to overlap as LZ matches
// require. It returns the number of bytes actually copied, which is
// less than n only if the buffer ran out of free space.
func (b *circBuf) copyMatch(dist, n int) (copied int) {
	for copied < n {
		if b.full() {
			break
		}
		c, ok := b.byteAt(dist)
		if !ok {
			break
		}
		if err := b.writeByte(c); err != nil {
			break
		}
		copied++
	}
	return copied
}
