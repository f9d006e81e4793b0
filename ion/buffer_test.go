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
	"bytes"
	"testing"
	"testing/iotest"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequence(n int) []byte {
	bs := make([]byte, n)
	for i := range bs {
		bs[i] = byte(i)
	}
	return bs
}

func TestBufferFixedFill(t *testing.T) {
	b := newFixedBuffer([]byte{1, 2, 3})
	assert.True(t, b.exhausted())

	st, err := b.fillAt(0, 3)
	require.NoError(t, err)
	assert.Equal(t, fillReady, st)
	assert.Equal(t, bufferReady, b.state)

	st, err = b.fillAt(1, 3)
	require.NoError(t, err)
	assert.Equal(t, fillPending, st)
	assert.Equal(t, bufferFill, b.state)
	assert.Equal(t, int64(4), b.requested)
	assert.Equal(t, int64(-1), b.availableAt(4))
}

func TestBufferFixedSeek(t *testing.T) {
	b := newFixedBuffer([]byte{1, 2, 3})

	ok, err := b.seek(2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(2), b.offset)

	ok, err = b.seek(3)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, bufferSeek, b.state)
	assert.Equal(t, int64(2), b.requested)
	assert.Equal(t, int64(3), b.offset)

	ok, err = b.makeReady()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBufferGrows(t *testing.T) {
	src := sequence(20)
	b := newRefillableBuffer(bytes.NewReader(src), 8, 32)

	var deltas []int64
	b.onShift = func(delta int64) { deltas = append(deltas, delta) }

	st, err := b.fillAt(0, 4)
	require.NoError(t, err)
	assert.Equal(t, fillReady, st)
	assert.Equal(t, int64(8), b.limit)

	ok, err := b.seek(6)
	require.NoError(t, err)
	require.True(t, ok)

	st, err = b.fillAt(6, 10)
	require.NoError(t, err)
	assert.Equal(t, fillReady, st)

	assert.Len(t, b.bytes, 16)
	assert.Equal(t, int64(0), b.offset)
	assert.Equal(t, int64(14), b.limit)
	assert.Equal(t, src[6:20], b.bytes[:b.limit])
	assert.Equal(t, []int64{6}, deltas)
	assert.Equal(t, uint64(6), b.position(0))
}

func TestBufferGrowthIsCapped(t *testing.T) {
	b := newRefillableBuffer(bytes.NewReader(sequence(40)), 8, 12)

	st, err := b.fillAt(0, 10)
	require.NoError(t, err)
	assert.Equal(t, fillReady, st)
	assert.Len(t, b.bytes, 12)
	assert.Equal(t, int64(12), b.limit)
}

func TestBufferCompacts(t *testing.T) {
	src := sequence(12)
	b := newRefillableBuffer(bytes.NewReader(src), 8, 8)

	_, err := b.fillAt(0, 8)
	require.NoError(t, err)
	_, err = b.seek(5)
	require.NoError(t, err)

	st, err := b.fillAt(5, 4)
	require.NoError(t, err)
	assert.Equal(t, fillReady, st)

	assert.Len(t, b.bytes, 8)
	assert.Equal(t, int64(0), b.offset)
	assert.Equal(t, int64(7), b.limit)
	assert.Equal(t, src[5:], b.bytes[:b.limit])
	assert.Equal(t, uint64(5), b.position(0))
	assert.Equal(t, uint64(7), b.position(2))
}

func TestBufferOverflow(t *testing.T) {
	b := newRefillableBuffer(bytes.NewReader(sequence(20)), 8, 8)

	st, err := b.fillAt(0, 9)
	require.NoError(t, err)
	assert.Equal(t, fillOverflow, st)
	assert.Equal(t, int64(0), b.limit, "an overflowing request reads nothing")

	_, err = b.fillAt(0, 8)
	require.NoError(t, err)
	_, err = b.seek(3)
	require.NoError(t, err)

	st, err = b.fillAt(3, 6)
	require.NoError(t, err)
	assert.Equal(t, fillReady, st, "requests are measured from offset")

	st, err = b.fillAt(b.offset, 9)
	require.NoError(t, err)
	assert.Equal(t, fillOverflow, st)
}

func TestBufferPendingFill(t *testing.T) {
	src := bytes.NewBuffer([]byte{1, 2})
	b := newRefillableBuffer(src, 8, 8)

	st, err := b.fillAt(0, 4)
	require.NoError(t, err)
	assert.Equal(t, fillPending, st)
	assert.Equal(t, bufferFill, b.state)
	assert.Equal(t, int64(4), b.requested)
	assert.True(t, b.exhausted())

	src.Write([]byte{3, 4})

	ok, err := b.makeReady()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, bufferReady, b.state)

	st, err = b.fillAt(0, 4)
	require.NoError(t, err)
	assert.Equal(t, fillReady, st)
	assert.False(t, b.exhausted())
	assert.Equal(t, []byte{1, 2, 3, 4}, b.bytes[:b.limit])
}

func TestBufferSeekPastBuffered(t *testing.T) {
	src := sequence(20)
	b := newRefillableBuffer(bytes.NewReader(src), 8, 8)

	var total int64
	b.onShift = func(delta int64) { total += delta }

	_, err := b.fillAt(0, 1)
	require.NoError(t, err)

	ok, err := b.seek(12)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(12), total)
	assert.Equal(t, int64(0), b.offset)
	assert.Equal(t, int64(0), b.limit)

	_, err = b.fillAt(0, 1)
	require.NoError(t, err)
	assert.Equal(t, src[12], b.bytes[0])
	assert.Equal(t, uint64(12), b.position(0))
}

func TestBufferSeekResumes(t *testing.T) {
	src := sequence(20)
	in := bytes.NewBuffer(append([]byte(nil), src[:10]...))
	b := newRefillableBuffer(in, 8, 8)

	_, err := b.fillAt(0, 1)
	require.NoError(t, err)

	ok, err := b.seek(15)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, bufferSeek, b.state)
	assert.Equal(t, int64(5), b.requested)

	ok, err = b.makeReady()
	require.NoError(t, err)
	assert.False(t, ok, "nothing new to discard")

	in.Write(src[10:])

	ok, err = b.makeReady()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, bufferReady, b.state)

	_, err = b.fillAt(0, 1)
	require.NoError(t, err)
	assert.Equal(t, src[15], b.bytes[0])
	assert.Equal(t, uint64(15), b.position(0))
}

func TestBufferSeekTo(t *testing.T) {
	b := newFixedBuffer(sequence(10))

	ok, err := b.seekTo(4)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(4), b.offset)

	ok, err = b.seekTo(2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(4), b.offset, "seeking backwards releases nothing")
}

func TestBufferReadError(t *testing.T) {
	boom := errors.New("boom")
	b := newRefillableBuffer(iotest.ErrReader(boom), 8, 8)

	_, err := b.fillAt(0, 1)
	require.Error(t, err)
	require.IsType(t, &IOError{}, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, boom, errors.Cause(err.(*IOError).Err))
}

func TestBufferSkipError(t *testing.T) {
	boom := errors.New("boom")
	b := newRefillableBuffer(iotest.ErrReader(boom), 8, 8)

	ok, err := b.seek(4)
	assert.False(t, ok)
	assert.IsType(t, &IOError{}, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, bufferTerminated, b.state)

	ok, err = b.makeReady()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBufferStateString(t *testing.T) {
	assert.Equal(t, "ready", bufferReady.String())
	assert.Equal(t, "seek", bufferSeek.String())
	assert.Equal(t, "fill", bufferFill.String())
	assert.Equal(t, "terminated", bufferTerminated.String())
}
