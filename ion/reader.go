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
	"math/big"
)

// A Reader reads a stream of binary Ion values, blocking on its source when it
// needs more input.
//
// The Reader has a logical position within the stream of values, influencing the
// values returned from its methods. Initially, the Reader is positioned before the
// first value in the stream. A call to Next advances the Reader to the first value
// in the stream, with subsequent calls advancing to subsequent values. When a call to
// Next moves the Reader to the position after the final value in the stream, it returns
// false, making it easy to loop through the values in a stream.
//
//	var r Reader
//	for r.Next() {
//		// ...
//	}
//
// Next also returns false in case of error. This should be checked using Err after
// the loop.
type Reader interface {
	// SymbolTable returns the symbol table in effect.
	SymbolTable() SymbolTable

	// Next advances the Reader to the next position in the current value stream.
	// It returns true if this is the position of an Ion value, and false if it
	// is not. On error, it returns false and sets Err.
	Next() bool

	// Err returns an error if a previous call to Next has failed.
	Err() error

	// Type returns the type of the Ion value the Reader is currently positioned on.
	// It returns NoType if the Reader is positioned before or after a value.
	Type() Type

	// IsNull returns true if the current value is an explicit null. This may be true
	// even if the Type is not NullType (for example, null.struct has type Struct).
	IsNull() bool

	// Depth returns the number of containers the Reader has stepped into.
	Depth() int

	// IsInStruct returns true if the Reader is directly inside a struct.
	IsInStruct() bool

	// FieldName returns the field name associated with the current value. It returns
	// nil if there is no current value or the current value has no field name.
	FieldName() (*SymbolToken, error)

	// Annotations returns the set of annotations associated with the current value.
	// It returns nil if there is no current value or the current value has no annotations.
	Annotations() ([]SymbolToken, error)

	// StepIn steps in to the current value if it is a container. It returns an error if there
	// is no current value or if the value is not a container. On success, the Reader is
	// positioned before the first value in the container.
	StepIn() error

	// StepOut steps out of the current container value being read. It returns an error if
	// this Reader is not currently stepped in to a container. On success, the Reader is
	// positioned after the end of the container, but before any subsequent values in the
	// stream.
	StepOut() error

	// BoolValue returns the current value as a boolean. It returns an error if the
	// current value is not an Ion bool.
	BoolValue() (bool, error)

	// IntSize returns the size of integer needed to losslessly represent the current value.
	// It returns an error if the current value is not an Ion int.
	IntSize() (IntSize, error)

	// IntValue returns the current value as a 32-bit integer. It returns an error if
	// the current value is not an Ion integer or requires more than 32 bits to represent
	// losslessly.
	IntValue() (int, error)

	// Int64Value returns the current value as a 64-bit integer. It returns an error if
	// the current value is not an Ion integer or requires more than 64 bits to represent
	// losslessly.
	Int64Value() (int64, error)

	// BigIntValue returns the current value as a big.Integer. It returns an error if
	// the current value is not an Ion integer.
	BigIntValue() (*big.Int, error)

	// FloatValue returns the current value as a 64-bit floating point number. It returns
	// an error if the current value is not an Ion float.
	FloatValue() (float64, error)

	// DecimalValue returns the current value as an arbitrary-precision Decimal. It
	// returns an error if the current value is not an Ion decimal.
	DecimalValue() (*Decimal, error)

	// TimestampValue returns the current value as a timestamp. It returns an error if
	// the current value is not an Ion timestamp.
	TimestampValue() (Timestamp, error)

	// StringValue returns the current value as a string. It returns an error if the
	// current value is not an Ion symbol or an Ion string.
	StringValue() (string, error)

	// SymbolValue returns the current value as a symbol token. It returns an error if
	// the current value is not an Ion symbol.
	SymbolValue() (SymbolToken, error)

	// ByteValue returns the current value as a byte slice. It returns an error if the
	// current value is not an Ion clob or an Ion blob.
	ByteValue() ([]byte, error)
}

// NewReader creates a new Reader over a binary Ion stream.
func NewReader(in io.Reader) Reader {
	return NewReaderCat(in, nil)
}

// NewReaderCat creates a new Reader over a binary Ion stream, resolving shared
// symbol table imports through cat.
func NewReaderCat(in io.Reader, cat Catalog) Reader {
	ir, _ := NewIncrementalReaderCat(in, DefaultBufferConfiguration(), cat)
	return &reader{in: ir}
}

// NewReaderBytes creates a new Reader over the given bytes.
func NewReaderBytes(in []byte) Reader {
	return NewReaderBytesCat(in, nil)
}

// NewReaderBytesCat creates a new Reader over the given bytes, resolving shared
// symbol table imports through cat.
func NewReaderBytesCat(in []byte, cat Catalog) Reader {
	ir, _ := NewIncrementalReaderBytesCat(in, DefaultBufferConfiguration(), cat)
	return &reader{in: ir}
}

// A reader drives an IncrementalReader, treating NeedsData from an exhausted
// source as the end of the input.
type reader struct {
	in  *IncrementalReader
	err error
	eof bool
}

func (r *reader) Next() bool {
	if r.err != nil || r.eof {
		return false
	}

	for {
		ev, err := r.in.NextValue()
		if err != nil {
			r.err = err
			return false
		}

		switch ev {
		case StartScalar, StartContainer:
			return true
		case EndContainer:
			r.eof = true
			return false
		case NeedsData:
			if !r.in.buf.exhausted() {
				continue
			}
			if r.in.atTopLevelBoundary() {
				r.eof = true
				return false
			}
			r.err = r.unexpectedEOF()
			return false
		}
	}
}

func (r *reader) unexpectedEOF() error {
	return &UnexpectedEOFError{r.in.buf.position(r.in.lex.peekIndex)}
}

func (r *reader) Err() error {
	return r.err
}

// Wait repeats an instruction until it gets past NeedsData.
func (r *reader) wait(ins Instruction) (Event, error) {
	if r.err != nil {
		return NeedsData, r.err
	}

	for {
		ev, err := r.in.Next(ins)
		if err != nil {
			if _, ok := err.(*UsageError); !ok {
				r.err = err
			}
			return ev, err
		}
		if ev != NeedsData {
			return ev, nil
		}
		if r.in.buf.exhausted() {
			r.err = r.unexpectedEOF()
			return ev, r.err
		}
	}
}

func (r *reader) StepIn() error {
	if _, err := r.wait(StepIn); err != nil {
		return err
	}
	r.eof = false
	return nil
}

func (r *reader) StepOut() error {
	if _, err := r.wait(StepOut); err != nil {
		return err
	}
	r.eof = false
	return nil
}

// Load buffers the current value before a getter decodes it.
func (r *reader) load() error {
	tid := r.in.lex.tid
	if tid == nil || tid.isNull || !IsScalar(tid.typ) {
		return nil
	}

	ev, err := r.wait(LoadValue)
	if err != nil {
		return err
	}
	if ev != ValueReady {
		return &UsageError{"Reader", "current value exceeds the maximum buffer size and was skipped"}
	}
	return nil
}

func (r *reader) SymbolTable() SymbolTable {
	return r.in.SymbolTable()
}

func (r *reader) Type() Type {
	return r.in.Type()
}

func (r *reader) IsNull() bool {
	return r.in.IsNull()
}

func (r *reader) Depth() int {
	return r.in.Depth()
}

func (r *reader) IsInStruct() bool {
	return r.in.IsInStruct()
}

func (r *reader) FieldName() (*SymbolToken, error) {
	return r.in.FieldName()
}

func (r *reader) Annotations() ([]SymbolToken, error) {
	return r.in.Annotations()
}

func (r *reader) BoolValue() (bool, error) {
	return r.in.BoolValue()
}

func (r *reader) IntSize() (IntSize, error) {
	if err := r.load(); err != nil {
		return NullInt, err
	}
	return r.in.IntSize()
}

func (r *reader) IntValue() (int, error) {
	if err := r.load(); err != nil {
		return 0, err
	}
	return r.in.IntValue()
}

func (r *reader) Int64Value() (int64, error) {
	if err := r.load(); err != nil {
		return 0, err
	}
	return r.in.Int64Value()
}

func (r *reader) BigIntValue() (*big.Int, error) {
	if err := r.load(); err != nil {
		return nil, err
	}
	return r.in.BigIntValue()
}

func (r *reader) FloatValue() (float64, error) {
	if err := r.load(); err != nil {
		return 0, err
	}
	return r.in.FloatValue()
}

func (r *reader) DecimalValue() (*Decimal, error) {
	if err := r.load(); err != nil {
		return nil, err
	}
	return r.in.DecimalValue()
}

func (r *reader) TimestampValue() (Timestamp, error) {
	if err := r.load(); err != nil {
		return Timestamp{}, err
	}
	return r.in.TimestampValue()
}

func (r *reader) StringValue() (string, error) {
	if err := r.load(); err != nil {
		return "", err
	}
	return r.in.StringValue()
}

func (r *reader) SymbolValue() (SymbolToken, error) {
	if err := r.load(); err != nil {
		return SymbolToken{}, err
	}
	return r.in.SymbolValue()
}

func (r *reader) ByteValue() ([]byte, error) {
	if err := r.load(); err != nil {
		return nil, err
	}
	return r.in.ByteValue()
}
