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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeToString(t *testing.T) {
	for i := NoType; i <= StructType+1; i++ {
		assert.NotEmpty(t, i.String(), "expected a non-empty string for type %v", uint8(i))
	}
}

func TestIntSizeToString(t *testing.T) {
	for i := NullInt; i <= BigInt+1; i++ {
		assert.NotEmpty(t, i.String(), "expected a non-empty string for type %v", uint8(i))
	}
}

func TestIsScalar(t *testing.T) {
	scalarTypes := []Type{NullType, BoolType, IntType, FloatType, DecimalType,
		TimestampType, SymbolType, StringType, ClobType, BlobType}

	for _, ionType := range scalarTypes {
		assert.True(t, IsScalar(ionType))
	}

	nonScalarTypes := []Type{NoType, ListType, SexpType, StructType}

	for _, ionType := range nonScalarTypes {
		assert.False(t, IsScalar(ionType))
	}
}

func TestIsContainer(t *testing.T) {
	containerTypes := []Type{ListType, SexpType, StructType}

	for _, ionType := range containerTypes {
		assert.True(t, IsContainer(ionType))
	}

	nonContainerTypes := []Type{NoType, NullType, BoolType, IntType, FloatType, DecimalType,
		TimestampType, SymbolType, StringType, ClobType, BlobType}

	for _, ionType := range nonContainerTypes {
		assert.False(t, IsContainer(ionType))
	}
}

func TestIsLob(t *testing.T) {
	assert.True(t, IsLob(ClobType))
	assert.True(t, IsLob(BlobType))
	assert.False(t, IsLob(StringType))
	assert.False(t, IsLob(NoType))
}

func TestEventToString(t *testing.T) {
	assert.Equal(t, "NEEDS_DATA", NeedsData.String())
	assert.Equal(t, "END_CONTAINER", EndContainer.String())
	assert.Equal(t, "<unknown event 42>", Event(42).String())
}

func TestInstructionToString(t *testing.T) {
	assert.Equal(t, "NEXT_VALUE", NextValue.String())
	assert.Equal(t, "LOAD_VALUE", LoadValue.String())
	assert.Equal(t, "STEP_OUT", StepOut.String())
	assert.Equal(t, "<unknown instruction 42>", Instruction(42).String())
}
