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

const (
	// A low nibble of 0xE means the length follows as a VarUInt.
	lengthVarUInt = 0x0E
	// A low nibble of 0xF means the value is a typed null.
	lengthNull = 0x0F

	// The first byte of a binary version marker.
	ivmStart = 0xE0
	// The last byte of a binary version marker.
	ivmEnd = 0xEA
)

// A typeID describes everything that can be learned about a value from its first
// byte.
type typeID struct {
	typ       Type
	lowNibble byte
	// The inline length; meaningless when variableLength is set.
	length int64

	variableLength      bool
	isNull              bool
	isNopPad            bool
	isNegativeInt       bool
	isAnnotationWrapper bool
	valid               bool
}

// Types indexed by high nibble, for the nibbles that denote values.
var nibbleTypes = [...]Type{
	NullType,      // 0x00
	BoolType,      // 0x10
	IntType,       // 0x20
	IntType,       // 0x30
	FloatType,     // 0x40
	DecimalType,   // 0x50
	TimestampType, // 0x60
	SymbolType,    // 0x70
	StringType,    // 0x80
	ClobType,      // 0x90
	BlobType,      // 0xA0
	ListType,      // 0xB0
	SexpType,      // 0xC0
	StructType,    // 0xD0
}

// typeIDs holds a descriptor for every possible type ID byte. It is never
// modified after initialization.
var typeIDs = func() [256]typeID {
	var ids [256]typeID
	for i := range ids {
		ids[i] = newTypeID(byte(i))
	}
	return ids
}()

func newTypeID(b byte) typeID {
	high, low := b>>4, b&0x0F
	id := typeID{lowNibble: low}

	switch {
	case high == 0x0F:
		// Reserved.
		return id

	case high == 0x0E:
		// Annotation wrappers hold at least an annotation length, one
		// annotation, and a one-byte value. 0xE0 is the version marker and is
		// handled before this table is consulted.
		id.isAnnotationWrapper = true
		switch {
		case low == lengthVarUInt:
			id.variableLength = true
			id.valid = true
		case low >= 3 && low < lengthVarUInt:
			id.length = int64(low)
			id.valid = true
		}
		return id
	}

	id.typ = nibbleTypes[high]
	id.valid = true

	if low == lengthNull {
		id.isNull = true
		return id
	}

	switch high {
	case 0x0:
		id.isNopPad = true
		id.typ = NoType

	case 0x1:
		// The low nibble is the value itself.
		id.valid = low <= 1
		return id

	case 0x3:
		// There is no negative zero.
		id.isNegativeInt = true
		id.valid = low != 0

	case 0x4:
		id.valid = low == 0 || low == 4 || low == 8

	case 0x6:
		// An offset and a year take at least two bytes.
		id.valid = low >= 2

	case 0xD:
		if low == 1 {
			// Ordered structs always carry a VarUInt length.
			id.variableLength = true
			return id
		}
	}

	if low == lengthVarUInt {
		id.variableLength = true
	} else {
		id.length = int64(low)
	}
	return id
}

// isOrderedStruct reports whether this type ID introduces a struct whose fields
// are sorted by symbol ID.
func (t *typeID) isOrderedStruct() bool {
	return t.typ == StructType && t.lowNibble == 1
}

func (t *typeID) boolValue() bool {
	return t.lowNibble == 1
}
