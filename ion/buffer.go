/*
 * Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License").
 * You may not use this file except in compliance with the License.
 * A copy of the License is located at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * or in the "license" file accompanying this file. This file is distributed
 * on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either
 * express or implied. See the License for the specific language governing
 * permissions and limitations under the License.
 */

package ion

import (
	"io"

	"github.com/pkg/errors"
)

type bufferState uint8

const (
	// The requested bytes are available.
	bufferReady bufferState = iota
	// A skip is in progress; bytes must be discarded before anything else.
	bufferSeek
	// More bytes must be buffered to satisfy the last request.
	bufferFill
	// A fatal error occurred; nothing more can be read.
	bufferTerminated
)

func (s bufferState) String() string {
	switch s {
	case bufferReady:
		return "ready"
	case bufferSeek:
		return "seek"
	case bufferFill:
		return "fill"
	case bufferTerminated:
		return "terminated"
	default:
		return "<unknown buffer state>"
	}
}

type bufferBacking uint8

const (
	fixedBacking bufferBacking = iota
	refillableBacking
)

type fillStatus uint8

const (
	fillReady fillStatus = iota
	fillPending
	// The request cannot fit within the maximum buffer size.
	fillOverflow
)

// A buffer holds the bytes between the start of the value currently being read
// and the end of the input seen so far. Indexes into it are int64 so that they
// can be shifted below zero when bytes are discarded.
type buffer struct {
	backing bufferBacking
	bytes   []byte
	// The first byte not yet released.
	offset int64
	// The first byte not yet written.
	limit int64
	state bufferState
	// Bytes still needed (bufferFill) or still to be discarded (bufferSeek).
	requested int64
	// The number of stream bytes that precede index zero.
	shifted int64

	src         io.Reader
	initialSize int64
	maxSize     int64
	// Set when the last read from src reported io.EOF.
	eof bool

	// Called whenever the coordinate space moves left by delta bytes.
	onShift func(delta int64)
}

func newFixedBuffer(data []byte) *buffer {
	return &buffer{
		backing: fixedBacking,
		bytes:   data,
		limit:   int64(len(data)),
		eof:     true,
	}
}

func newRefillableBuffer(src io.Reader, initialSize, maxSize int) *buffer {
	return &buffer{
		backing:     refillableBacking,
		bytes:       make([]byte, initialSize),
		src:         src,
		initialSize: int64(initialSize),
		maxSize:     int64(maxSize),
	}
}

// Available returns the number of buffered bytes at or after index.
func (b *buffer) availableAt(index int64) int64 {
	return b.limit - index
}

// Position returns the stream offset of the byte at index.
func (b *buffer) position(index int64) uint64 {
	pos := b.shifted + index
	if pos < 0 {
		return 0
	}
	return uint64(pos)
}

// Exhausted reports whether the last attempt to read from the source found
// nothing more. A fixed buffer is always exhausted.
func (b *buffer) exhausted() bool {
	return b.eof
}

// FillAt makes sure the n bytes starting at index are buffered.
func (b *buffer) fillAt(index, n int64) (fillStatus, error) {
	if index+n <= b.limit {
		b.state = bufferReady
		return fillReady, nil
	}
	if b.backing == fixedBacking {
		return b.fillAtFixed(index, n), nil
	}
	return b.fillAtRefillable(index, n)
}

func (b *buffer) fillAtFixed(index, n int64) fillStatus {
	// Nothing more is coming.
	b.state = bufferFill
	b.requested = index + n - b.offset
	return fillPending
}

func (b *buffer) fillAtRefillable(index, n int64) (fillStatus, error) {
	// Measure from offset, which stays put while indexes move.
	need := index - b.offset + n
	if need > b.maxSize {
		b.state = bufferReady
		return fillOverflow, nil
	}
	b.ensureCapacity(need)

	if err := b.refill(b.offset + need); err != nil {
		return fillPending, err
	}
	if b.limit-b.offset >= need {
		b.state = bufferReady
		return fillReady, nil
	}

	b.state = bufferFill
	b.requested = need
	return fillPending, nil
}

// EnsureCapacity makes room for n bytes after offset, compacting when that is
// enough and growing otherwise. n must not exceed maxSize.
func (b *buffer) ensureCapacity(n int64) {
	capacity := int64(len(b.bytes))
	if capacity-b.offset >= n {
		return
	}

	if n <= capacity {
		copy(b.bytes, b.bytes[b.offset:b.limit])
		b.shift(b.offset)
		return
	}

	grow := n - capacity
	if grow < b.initialSize {
		grow = b.initialSize
	}
	size := capacity + grow
	if size > b.maxSize {
		size = b.maxSize
	}

	bs := make([]byte, size)
	copy(bs, b.bytes[b.offset:b.limit])
	b.bytes = bs
	b.shift(b.offset)
}

// Shift moves the coordinate space left by delta bytes after the bytes before
// offset have been dropped from the front of the storage.
func (b *buffer) shift(delta int64) {
	if delta == 0 {
		return
	}
	b.offset -= delta
	b.limit -= delta
	b.discarded(delta)
}

// Discarded records that delta bytes were dropped from the stream ahead of index
// zero without ever occupying storage.
func (b *buffer) discarded(delta int64) {
	b.shifted += delta
	if b.onShift != nil {
		b.onShift(delta)
	}
}

// Refill reads from the source into free space until limit reaches want, the
// source has nothing more right now, or the storage is full.
func (b *buffer) refill(want int64) error {
	for b.limit < want && b.limit < int64(len(b.bytes)) {
		n, err := b.src.Read(b.bytes[b.limit:])
		b.limit += int64(n)
		if n > 0 {
			b.eof = false
		}

		if err == io.EOF {
			b.eof = true
			return nil
		}
		if err != nil {
			return &IOError{errors.Wrap(err, "refilling buffer")}
		}
		if n == 0 {
			return nil
		}
	}
	return nil
}

// Seek releases the next n bytes.
func (b *buffer) seek(n int64) (bool, error) {
	if avail := b.limit - b.offset; n <= avail {
		b.offset += n
		b.state = bufferReady
		return true, nil
	}
	if b.backing == fixedBacking {
		return b.seekFixed(n), nil
	}
	return b.seekRefillable(n)
}

// SeekTo releases every byte before index.
func (b *buffer) seekTo(index int64) (bool, error) {
	if index < b.offset {
		index = b.offset
	}
	return b.seek(index - b.offset)
}

func (b *buffer) seekFixed(n int64) bool {
	b.requested = n - (b.limit - b.offset)
	b.offset = b.limit
	b.state = bufferSeek
	return false
}

func (b *buffer) seekRefillable(n int64) (bool, error) {
	remaining := n - (b.limit - b.offset)

	// Everything buffered is being skipped; drop it so the rest can be
	// discarded straight from the source.
	b.offset = b.limit
	b.shift(b.limit)

	skipped, err := io.CopyN(io.Discard, b.src, remaining)
	if skipped > 0 {
		b.eof = false
		b.discarded(skipped)
	}
	if err != nil && err != io.EOF {
		b.state = bufferTerminated
		return false, &IOError{errors.Wrapf(err, "skipping %v bytes", remaining)}
	}

	if skipped < remaining {
		b.eof = true
		b.requested = remaining - skipped
		b.state = bufferSeek
		return false, nil
	}

	b.state = bufferReady
	return true, nil
}

// MakeReady finishes any skip left pending by an earlier call. A pending fill is
// dropped; whoever asked for it will ask again.
func (b *buffer) makeReady() (bool, error) {
	switch b.state {
	case bufferSeek:
		if b.backing == fixedBacking {
			return false, nil
		}
		b.state = bufferReady
		return b.seekRefillable(b.requested + (b.limit - b.offset))
	case bufferFill:
		b.state = bufferReady
		return true, nil
	case bufferTerminated:
		return false, nil
	default:
		return true, nil
	}
}

func (b *buffer) terminate() {
	b.state = bufferTerminated
}
