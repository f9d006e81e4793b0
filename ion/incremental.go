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
	"io"
	"math"
	"math/big"
)

// An IncrementalReader reads binary Ion without ever blocking. Each instruction
// returns an Event; NeedsData means the instruction could not finish with the
// input available so far, and repeating it once more input has arrived picks
// up where it left off.
//
// Fatal errors stop the reader: the instruction that hit one and every later
// instruction return the same error. A *UsageError leaves the reader as it was.
type IncrementalReader struct {
	buf *buffer
	lex *lexer
	cfg BufferConfiguration
	cat Catalog

	st       symtabReader
	symtab   *lst
	snapshot *lst

	err  error
	busy bool
	// The instruction that last returned NeedsData, if it has not finished.
	suspended   Instruction
	isSuspended bool
}

// NewIncrementalReader creates a reader that pulls input from in as it needs
// it. A read returning io.EOF only means nothing more is available yet.
func NewIncrementalReader(in io.Reader, cfg BufferConfiguration) (*IncrementalReader, error) {
	return NewIncrementalReaderCat(in, cfg, nil)
}

// NewIncrementalReaderCat creates a reader that pulls input from in, resolving
// shared symbol table imports through cat.
func NewIncrementalReaderCat(in io.Reader, cfg BufferConfiguration, cat Catalog) (*IncrementalReader, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	buf := newRefillableBuffer(in, cfg.InitialBufferSize, cfg.MaximumBufferSize)
	return newIncrementalReader(buf, cfg, cat), nil
}

// NewIncrementalReaderBytes creates a reader over a complete input. The buffer
// sizes in cfg are not used.
func NewIncrementalReaderBytes(in []byte, cfg BufferConfiguration) (*IncrementalReader, error) {
	return NewIncrementalReaderBytesCat(in, cfg, nil)
}

// NewIncrementalReaderBytesCat creates a reader over a complete input,
// resolving shared symbol table imports through cat.
func NewIncrementalReaderBytesCat(in []byte, cfg BufferConfiguration, cat Catalog) (*IncrementalReader, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return newIncrementalReader(newFixedBuffer(in), cfg, cat), nil
}

func newIncrementalReader(buf *buffer, cfg BufferConfiguration, cat Catalog) *IncrementalReader {
	r := &IncrementalReader{
		buf:    buf,
		lex:    newLexer(buf),
		cfg:    cfg,
		cat:    cat,
		symtab: newLocalSymbolTable(nil, nil),
	}
	r.lex.onData = cfg.OnData
	r.lex.onVersionMarker = r.onVersionMarker
	r.lex.onOversized = r.onOversized
	return r
}

// NextValue moves to the next value at the current depth. It returns
// StartScalar, StartContainer, EndContainer at the end of the current
// container, or NeedsData.
func (r *IncrementalReader) NextValue() (Event, error) {
	return r.Next(NextValue)
}

// FillValue buffers the whole of the current value, returning ValueReady. A
// value too large for the maximum buffer size is reported to the
// configuration's OnOversizedValue and skipped instead, after which the reader
// returns NeedsInstruction.
func (r *IncrementalReader) FillValue() (Event, error) {
	return r.Next(LoadValue)
}

// StepIn moves into the current container, returning NeedsInstruction.
func (r *IncrementalReader) StepIn() (Event, error) {
	return r.Next(StepIn)
}

// StepOut skips the rest of the current container and moves out of it,
// returning NeedsInstruction.
func (r *IncrementalReader) StepOut() (Event, error) {
	return r.Next(StepOut)
}

// Next carries out the given instruction. After NeedsData, the same
// instruction must be repeated until it finishes; only a FillValue may be
// abandoned for another instruction.
func (r *IncrementalReader) Next(ins Instruction) (Event, error) {
	api := "IncrementalReader." + ins.String()
	if r.busy {
		return r.lex.event, &UsageError{api, "called from within a callback"}
	}
	if r.err != nil {
		return NeedsData, r.err
	}
	if r.st.active() && ins != NextValue {
		return NeedsData, &UsageError{api, "a symbol table is being read; repeat NextValue"}
	}
	// A pending fill may be abandoned. Anything else holds a position in the
	// stream that only it knows how to resume from.
	if r.isSuspended && ins != r.suspended && r.suspended != LoadValue {
		msg := fmt.Sprintf("%v is unfinished; repeat it once more data is available", r.suspended)
		return NeedsData, &UsageError{api, msg}
	}

	r.busy = true
	defer func() {
		r.busy = false
	}()

	var ev Event
	var err error
	switch ins {
	case NextValue:
		ev, err = r.nextValue()
	case LoadValue:
		ev, err = r.fillValue(api)
	case StepIn:
		ev, err = r.stepIn(api)
	case StepOut:
		ev, err = r.stepOut(api)
	default:
		return r.lex.event, &UsageError{api, "unknown instruction"}
	}

	if err != nil {
		if _, ok := err.(*UsageError); !ok {
			r.fail(err)
		}
		return ev, err
	}
	r.suspended, r.isSuspended = ins, ev == NeedsData
	return ev, nil
}

// Fail stops the reader for good.
func (r *IncrementalReader) fail(err error) {
	r.err = err
	r.buf.terminate()
}

func (r *IncrementalReader) nextValue() (Event, error) {
	for {
		if r.st.active() {
			done, err := r.readSymbolTable()
			if err != nil || !done {
				return NeedsData, err
			}
		}

		ev, err := r.lex.next()
		if err != nil || ev != StartContainer || !r.atSymbolTable() {
			return ev, err
		}

		if r.lex.isNull() {
			// A null symbol table leaves only the system symbols.
			r.symtab = newLocalSymbolTable(nil, nil)
			r.snapshot = nil
			continue
		}
		r.st.begin()
	}
}

// AtSymbolTable reports whether the current value is a local symbol table.
func (r *IncrementalReader) atSymbolTable() bool {
	if r.lex.depth() != 0 || r.lex.tid.typ != StructType {
		return false
	}
	sid, _, err := decodeVarUint(r.lex.annotationBytes())
	return err == nil && sid == symbolTableSID
}

func (r *IncrementalReader) fillValue(api string) (Event, error) {
	if r.lex.tid == nil && !r.lex.skipping {
		return r.lex.event, &UsageError{api, "not positioned on a value"}
	}
	return r.lex.fill()
}

func (r *IncrementalReader) stepIn(api string) (Event, error) {
	tid := r.lex.tid
	if tid == nil || !IsContainer(tid.typ) {
		return r.lex.event, &UsageError{api, "not positioned on a container"}
	}
	if tid.isNull {
		return r.lex.event, &UsageError{api, "cannot step into a null container"}
	}
	return r.lex.stepIn()
}

func (r *IncrementalReader) stepOut(api string) (Event, error) {
	if r.lex.depth() == 0 {
		return r.lex.event, &UsageError{api, "not inside a container"}
	}
	return r.lex.stepOut()
}

func (r *IncrementalReader) onVersionMarker(major, minor int) {
	r.symtab = newLocalSymbolTable(nil, nil)
	r.snapshot = nil
}

// OnOversized decides what an oversized value means: a symbol table that
// cannot be read stops the reader, anything else is up to the configuration.
func (r *IncrementalReader) onOversized(symbolTableShaped bool) error {
	if r.st.active() || symbolTableShaped {
		if r.cfg.OnOversizedSymbolTable != nil {
			if err := r.cfg.OnOversizedSymbolTable(); err != nil {
				return err
			}
		}
		return &OversizedSymbolTableError{r.buf.position(r.lex.peekIndex)}
	}

	if r.cfg.OnOversizedValue != nil {
		return r.cfg.OnOversizedValue()
	}
	return nil
}

// AtTopLevelBoundary reports whether the reader stopped cleanly between two
// top-level values with nothing buffered.
func (r *IncrementalReader) atTopLevelBoundary() bool {
	return r.lex.depth() == 0 &&
		!r.st.active() &&
		r.lex.location == beforeUnannotatedTypeID &&
		r.lex.checkpoint == r.buf.limit
}

// Event returns the event the last instruction returned.
func (r *IncrementalReader) Event() Event {
	return r.lex.event
}

// Err returns the error that stopped the reader, if any.
func (r *IncrementalReader) Err() error {
	return r.err
}

// Type returns the type of the current value, or NoType if the reader is not
// positioned on a value.
func (r *IncrementalReader) Type() Type {
	if r.lex.tid == nil {
		return NoType
	}
	return r.lex.tid.typ
}

// IsNull returns true if the current value is an explicit null of any type.
func (r *IncrementalReader) IsNull() bool {
	return r.lex.isNull()
}

// Depth returns the number of containers the reader has stepped into.
func (r *IncrementalReader) Depth() int {
	return r.lex.depth()
}

// IsInStruct returns true if the reader is directly inside a struct.
func (r *IncrementalReader) IsInStruct() bool {
	return r.lex.inStruct()
}

// MajorVersion returns the major version of the Ion data being read.
func (r *IncrementalReader) MajorVersion() int {
	return r.lex.major
}

// MinorVersion returns the minor version of the Ion data being read.
func (r *IncrementalReader) MinorVersion() int {
	return r.lex.minor
}

// SymbolTable returns the symbol table in effect. The table returned does not
// change as the reader moves on.
func (r *IncrementalReader) SymbolTable() SymbolTable {
	if r.snapshot == nil {
		r.snapshot = r.symtab.snapshot()
	}
	return r.snapshot
}

// FieldNameSID returns the symbol ID of the current value's field name, or -1
// if it has none.
func (r *IncrementalReader) FieldNameSID() int64 {
	if r.lex.tid == nil {
		return -1
	}
	return r.lex.fieldSID
}

// FieldName returns the current value's field name, or nil if it has none.
func (r *IncrementalReader) FieldName() (*SymbolToken, error) {
	sid := r.FieldNameSID()
	if sid < 0 {
		return nil, nil
	}

	tok, err := r.resolve(uint64(sid))
	if err != nil {
		return nil, err
	}
	return &tok, nil
}

// AnnotationSIDs returns the symbol IDs of the current value's annotations.
func (r *IncrementalReader) AnnotationSIDs() ([]uint64, error) {
	if r.lex.tid == nil {
		return nil, nil
	}

	sids, err := decodeAnnotationSIDs(r.lex.annotationBytes())
	if err != nil {
		return nil, &SyntaxError{err.Error(), r.buf.position(r.lex.annotationMarker.start)}
	}
	return sids, nil
}

// Annotations returns the current value's annotations.
func (r *IncrementalReader) Annotations() ([]SymbolToken, error) {
	sids, err := r.AnnotationSIDs()
	if err != nil || len(sids) == 0 {
		return nil, err
	}

	toks := make([]SymbolToken, len(sids))
	for i, sid := range sids {
		if toks[i], err = r.resolve(sid); err != nil {
			return nil, err
		}
	}
	return toks, nil
}

// HasAnnotation returns true if the current value is annotated with text.
func (r *IncrementalReader) HasAnnotation(text string) bool {
	toks, err := r.Annotations()
	if err != nil {
		return false
	}
	for _, tok := range toks {
		if tok.Text != nil && *tok.Text == text {
			return true
		}
	}
	return false
}

// Resolve looks up a symbol ID in the symbol table in effect.
func (r *IncrementalReader) resolve(sid uint64) (SymbolToken, error) {
	tok, ok := r.symtab.token(sid)
	if !ok {
		msg := fmt.Sprintf("symbol ID %v is out of range (max ID %v)", sid, r.symtab.MaxID())
		return SymbolToken{}, &SyntaxError{msg, r.buf.position(r.lex.valueMarker.start)}
	}
	return tok, nil
}

// ValueError gives a decoding error the offset of the current value.
func (r *IncrementalReader) valueError(err error) error {
	return &SyntaxError{err.Error(), r.buf.position(r.lex.valueMarker.start)}
}

// ValueBytes returns the current value's bytes, checking that the value is of
// type t and entirely buffered. It returns nil bytes for a null.
func (r *IncrementalReader) valueBytes(api string, t Type) ([]byte, bool, error) {
	tid := r.lex.tid
	if tid == nil {
		return nil, false, &UsageError{api, "not positioned on a value"}
	}
	if tid.typ != t {
		return nil, false, &UsageError{api, fmt.Sprintf("current value is a %v, not a %v", tid.typ, t)}
	}
	if tid.isNull {
		return nil, true, nil
	}
	if r.lex.valueMarker.end > r.buf.limit {
		return nil, false, &UsageError{api, "value is not buffered; call FillValue first"}
	}
	return r.lex.valueBytes(), false, nil
}

// BoolValue returns the current value as a bool.
func (r *IncrementalReader) BoolValue() (bool, error) {
	tid := r.lex.tid
	if tid == nil || tid.typ != BoolType {
		return false, &UsageError{"IncrementalReader.BoolValue", "current value is not a bool"}
	}
	return !tid.isNull && tid.boolValue(), nil
}

func (r *IncrementalReader) intValue(api string) (int64, *big.Int, error) {
	bs, null, err := r.valueBytes(api, IntType)
	if err != nil || null {
		return 0, nil, err
	}

	v, bi, err := decodeInt(bs, r.lex.tid.isNegativeInt)
	if err != nil {
		return 0, nil, r.valueError(err)
	}
	return v, bi, nil
}

// IntSize returns the size of integer needed to represent the current value.
// It returns NullInt for null.int.
func (r *IncrementalReader) IntSize() (IntSize, error) {
	if r.lex.tid != nil && r.lex.tid.typ == IntType && r.lex.tid.isNull {
		return NullInt, nil
	}

	v, bi, err := r.intValue("IncrementalReader.IntSize")
	if err != nil {
		return NullInt, err
	}
	return intSizeOf(v, bi), nil
}

// IntValue returns the current value as an int, which must fit in 32 bits.
func (r *IncrementalReader) IntValue() (int, error) {
	v, bi, err := r.intValue("IncrementalReader.IntValue")
	if err != nil {
		return 0, err
	}
	if bi != nil || v < math.MinInt32 || v > math.MaxInt32 {
		return 0, &UsageError{"IncrementalReader.IntValue", "value does not fit in 32 bits"}
	}
	return int(v), nil
}

// Int64Value returns the current value as an int64.
func (r *IncrementalReader) Int64Value() (int64, error) {
	v, bi, err := r.intValue("IncrementalReader.Int64Value")
	if err != nil {
		return 0, err
	}
	if bi != nil {
		return 0, &UsageError{"IncrementalReader.Int64Value", "value does not fit in 64 bits"}
	}
	return v, nil
}

// BigIntValue returns the current value as a big.Int, or nil for null.int.
func (r *IncrementalReader) BigIntValue() (*big.Int, error) {
	if r.lex.tid != nil && r.lex.tid.typ == IntType && r.lex.tid.isNull {
		return nil, nil
	}

	v, bi, err := r.intValue("IncrementalReader.BigIntValue")
	if err != nil || bi != nil {
		return bi, err
	}
	return big.NewInt(v), nil
}

// FloatValue returns the current value as a float64.
func (r *IncrementalReader) FloatValue() (float64, error) {
	bs, null, err := r.valueBytes("IncrementalReader.FloatValue", FloatType)
	if err != nil || null {
		return 0, err
	}

	f, err := decodeFloat(bs)
	if err != nil {
		return 0, r.valueError(err)
	}
	return f, nil
}

// DecimalValue returns the current value as a Decimal, or nil for null.decimal.
func (r *IncrementalReader) DecimalValue() (*Decimal, error) {
	bs, null, err := r.valueBytes("IncrementalReader.DecimalValue", DecimalType)
	if err != nil || null {
		return nil, err
	}

	d, err := decodeDecimal(bs)
	if err != nil {
		return nil, r.valueError(err)
	}
	return d, nil
}

// TimestampValue returns the current value as a Timestamp.
func (r *IncrementalReader) TimestampValue() (Timestamp, error) {
	bs, null, err := r.valueBytes("IncrementalReader.TimestampValue", TimestampType)
	if err != nil || null {
		return Timestamp{}, err
	}

	ts, err := decodeTimestamp(bs)
	if err != nil {
		return Timestamp{}, r.valueError(err)
	}
	return ts, nil
}

// StringValue returns the current value's text. It works for strings and for
// symbols whose text is known.
func (r *IncrementalReader) StringValue() (string, error) {
	if r.lex.tid != nil && r.lex.tid.typ == SymbolType {
		tok, err := r.SymbolValue()
		if err != nil || r.lex.tid.isNull {
			return "", err
		}
		if tok.Text == nil {
			return "", &UsageError{"IncrementalReader.StringValue", fmt.Sprintf("symbol $%v has unknown text", tok.LocalSID)}
		}
		return *tok.Text, nil
	}

	bs, null, err := r.valueBytes("IncrementalReader.StringValue", StringType)
	if err != nil || null {
		return "", err
	}

	s, err := decodeString(bs)
	if err != nil {
		return "", r.valueError(err)
	}
	return s, nil
}

// SymbolValue returns the current symbol, along with where it was defined.
func (r *IncrementalReader) SymbolValue() (SymbolToken, error) {
	bs, null, err := r.valueBytes("IncrementalReader.SymbolValue", SymbolType)
	if err != nil || null {
		return SymbolToken{LocalSID: SymbolIDUnknown}, err
	}

	sid, err := decodeUint(bs)
	if err != nil {
		return SymbolToken{}, r.valueError(err)
	}
	return r.resolve(sid)
}

func (r *IncrementalReader) lobBytes(api string) ([]byte, bool, error) {
	tid := r.lex.tid
	if tid == nil || !IsLob(tid.typ) {
		return nil, false, &UsageError{api, "current value is not a blob or clob"}
	}
	return r.valueBytes(api, tid.typ)
}

// ByteSize returns the length of the current blob or clob. The value does not
// have to be buffered.
func (r *IncrementalReader) ByteSize() (int, error) {
	tid := r.lex.tid
	if tid == nil || !IsLob(tid.typ) {
		return 0, &UsageError{"IncrementalReader.ByteSize", "current value is not a blob or clob"}
	}
	if tid.isNull {
		return 0, nil
	}
	return int(r.lex.valueMarker.length()), nil
}

// ByteValue returns a copy of the current blob or clob, or nil for a null.
func (r *IncrementalReader) ByteValue() ([]byte, error) {
	bs, null, err := r.lobBytes("IncrementalReader.ByteValue")
	if err != nil || null {
		return nil, err
	}
	return append([]byte{}, bs...), nil
}

// ReadBytes copies the bytes of the current blob or clob starting at offset
// into dst, returning how many it copied.
func (r *IncrementalReader) ReadBytes(dst []byte, offset int) (int, error) {
	bs, _, err := r.lobBytes("IncrementalReader.ReadBytes")
	if err != nil {
		return 0, err
	}
	if offset < 0 || offset > len(bs) {
		return 0, &UsageError{"IncrementalReader.ReadBytes", fmt.Sprintf("offset %v is out of range", offset)}
	}
	return copy(dst, bs[offset:]), nil
}
