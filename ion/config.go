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
	"fmt"
	"math"
)

const (
	// DefaultInitialBufferSize is the initial size of a refillable reader's buffer.
	DefaultInitialBufferSize = 32 * 1024

	// DefaultMaximumBufferSize is the largest a refillable reader's buffer may grow.
	DefaultMaximumBufferSize = math.MaxInt32

	// MinimumBufferSize is the smallest permitted buffer size. It leaves room for a
	// version marker and a value header.
	MinimumBufferSize = 8
)

// BufferConfiguration controls how an IncrementalReader buffers its input.
type BufferConfiguration struct {
	// InitialBufferSize is the size of the buffer allocated up front. The buffer
	// grows by at least this much when it must grow.
	InitialBufferSize int

	// MaximumBufferSize bounds the buffer. A value that cannot fit is skipped
	// and reported to OnOversizedValue.
	MaximumBufferSize int

	// OnOversizedValue is called once for every value that does not fit in the
	// maximum buffer size. Returning an error stops the reader; returning nil
	// skips the value. May be nil.
	OnOversizedValue func() error

	// OnOversizedSymbolTable is called when a local symbol table does not fit in
	// the maximum buffer size. The reader always stops afterwards. May be nil.
	OnOversizedSymbolTable func() error

	// OnData is called with the number of bytes the reader has finished with each
	// time it moves past them. May be nil.
	OnData func(n int64)
}

// DefaultBufferConfiguration returns the configuration used when none is given.
func DefaultBufferConfiguration() BufferConfiguration {
	return BufferConfiguration{
		InitialBufferSize: DefaultInitialBufferSize,
		MaximumBufferSize: DefaultMaximumBufferSize,
	}
}

func (c *BufferConfiguration) validate() error {
	if c.InitialBufferSize < MinimumBufferSize {
		return &UsageError{"BufferConfiguration", fmt.Sprintf("initial buffer size must be at least %v", MinimumBufferSize)}
	}
	if c.MaximumBufferSize < c.InitialBufferSize {
		return &UsageError{"BufferConfiguration", "maximum buffer size must not be smaller than the initial buffer size"}
	}
	return nil
}
