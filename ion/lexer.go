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

import "math"

// A checkpointLocation says how decoding resumes from the checkpoint.
type checkpointLocation uint8

const (
	// Before a field name (in a struct) and a type ID.
	beforeUnannotatedTypeID checkpointLocation = iota
	// Inside an annotation wrapper, before the wrapped value's type ID.
	beforeAnnotatedTypeID
	// After a scalar's header, before its bytes.
	afterScalarHeader
	// After a container's header, before its contents.
	afterContainerHeader
)

func (c checkpointLocation) String() string {
	switch c {
	case beforeUnannotatedTypeID:
		return "before unannotated type ID"
	case beforeAnnotatedTypeID:
		return "before annotated type ID"
	case afterScalarHeader:
		return "after scalar header"
	case afterContainerHeader:
		return "after container header"
	default:
		return "<unknown checkpoint location>"
	}
}

type lexerMode uint8

const (
	// Every read asks the buffer for its bytes first.
	modeCareful lexerMode = iota
	// All input is already in memory; reads only check bounds.
	modeQuick
)

// A marker denotes the span [start, end) of the buffer. A negative start means
// the marker is absent.
type marker struct {
	start, end int64
}

var noMarker = marker{-1, -1}

func (m marker) present() bool {
	return m.start >= 0
}

func (m marker) length() int64 {
	return m.end - m.start
}

// The widest VarUInt that fits in an int64.
const maxVarUintLength = 9

// A lexer walks the headers of binary Ion values. It never blocks: when it runs
// out of bytes it returns NeedsData, and the same instruction picks up from the
// last checkpoint once more bytes are available.
type lexer struct {
	buf   *buffer
	stack containerStack
	mode  lexerMode

	event Event
	// The current value's type ID, or nil when not positioned on a value.
	tid        *typeID
	location   checkpointLocation
	checkpoint int64
	peekIndex  int64
	fieldSID   int64

	valueMarker      marker
	annotationMarker marker

	major, minor int

	// Set once the current value is known to be oversized and its handler has
	// run; the value is being skipped.
	skipping bool
	// Set when a wrapper's annotations were too large to buffer; the handler
	// runs once the wrapped value's header has been read.
	discarding    bool
	discardSymtab bool

	onData          func(n int64)
	onVersionMarker func(major, minor int)
	onOversized     func(symbolTableShaped bool) error
}

func newLexer(buf *buffer) *lexer {
	l := &lexer{
		buf:              buf,
		fieldSID:         -1,
		valueMarker:      noMarker,
		annotationMarker: noMarker,
		major:            1,
	}
	if buf.backing == fixedBacking {
		l.mode = modeQuick
	}
	buf.onShift = l.shiftIndicesLeft
	return l
}

// Next advances to the next value at the current depth.
func (l *lexer) next() (Event, error) {
	if l.mode == modeQuick {
		return l.nextQuick()
	}
	return l.nextCareful()
}

// Fill buffers the whole of the current value.
func (l *lexer) fill() (Event, error) {
	if l.mode == modeQuick {
		return l.fillQuick()
	}
	return l.fillCareful()
}

func (l *lexer) depth() int {
	return l.stack.depth
}

func (l *lexer) inStruct() bool {
	parent := l.stack.peek()
	return parent != nil && parent.typ == StructType
}

func (l *lexer) isNull() bool {
	return l.tid != nil && l.tid.isNull
}

// ValueBytes returns the current value's bytes. They are only all there once
// the value has been filled.
func (l *lexer) valueBytes() []byte {
	return l.buf.bytes[l.valueMarker.start:l.valueMarker.end]
}

func (l *lexer) annotationBytes() []byte {
	if !l.annotationMarker.present() {
		return nil
	}
	return l.buf.bytes[l.annotationMarker.start:l.annotationMarker.end]
}

func (l *lexer) syntaxError(msg string, index int64) error {
	return &SyntaxError{msg, l.buf.position(index)}
}

func (l *lexer) nextCareful() (Event, error) {
	l.peekIndex = l.checkpoint
	l.event = NeedsData
	l.tid = nil

	for {
		ready, err := l.buf.makeReady()
		if err != nil || !ready {
			return l.event, err
		}
		if end, err := l.checkContainerEnd(); end || err != nil {
			return l.event, err
		}

		switch l.location {
		case beforeUnannotatedTypeID:
			l.fieldSID = -1
			if l.inStruct() {
				sid, ok, err := l.readVarUint()
				if err != nil || !ok {
					return l.event, err
				}
				l.fieldSID = int64(sid)
			}

			b, ok, err := l.readByte()
			if err != nil || !ok {
				return l.event, err
			}

			if b == ivmStart && l.stack.empty() {
				ok, err := l.readVersionMarker()
				if err != nil || !ok {
					return l.event, err
				}
				continue
			}

			done, err := l.parseTypeID(b)
			if err != nil || done {
				return l.event, err
			}

		case beforeAnnotatedTypeID:
			b, ok, err := l.readByte()
			if err != nil || !ok {
				return l.event, err
			}
			done, err := l.parseTypeID(b)
			if err != nil || done {
				return l.event, err
			}

		case afterScalarHeader, afterContainerHeader:
			ok, err := l.skipRemainingValueBytes()
			if err != nil || !ok {
				return l.event, err
			}
		}
	}
}

// CheckContainerEnd reports whether the reader has reached the end of the
// current container.
func (l *lexer) checkContainerEnd() (bool, error) {
	parent := l.stack.peek()
	if parent == nil || l.peekIndex < parent.end {
		return false, nil
	}
	if l.peekIndex == parent.end {
		l.event = EndContainer
		l.tid = nil
		return true, nil
	}
	return true, l.syntaxError("contained values overflowed the parent container length", parent.end)
}

// ReadByte reads one header byte, reporting !ok if it is not yet available.
func (l *lexer) readByte() (byte, bool, error) {
	st, err := l.buf.fillAt(l.peekIndex, 1)
	if err != nil {
		return 0, false, err
	}
	switch st {
	case fillPending:
		return 0, false, nil
	case fillOverflow:
		return 0, false, l.syntaxError("value header exceeds the maximum buffer size", l.peekIndex)
	}

	b := l.buf.bytes[l.peekIndex]
	l.peekIndex++
	return b, true, nil
}

// ReadVarUint reads a VarUInt header field, reporting !ok if it is not yet
// entirely available.
func (l *lexer) readVarUint() (uint64, bool, error) {
	start := l.peekIndex
	val := uint64(0)

	for i := 0; i < maxVarUintLength; i++ {
		b, ok, err := l.readByte()
		if err != nil || !ok {
			return 0, false, err
		}

		val <<= 7
		val |= uint64(b & 0x7F)
		if b&0x80 != 0 {
			return val, true, nil
		}
	}

	return 0, false, l.syntaxError("varuint too large", start)
}

// ReadVersionMarker reads the three bytes following a 0xE0 at the top level.
func (l *lexer) readVersionMarker() (bool, error) {
	st, err := l.buf.fillAt(l.peekIndex, 3)
	if err != nil {
		return false, err
	}
	switch st {
	case fillPending:
		return false, nil
	case fillOverflow:
		return false, l.syntaxError("version marker exceeds the maximum buffer size", l.peekIndex-1)
	}

	if err := l.checkVersionMarker(l.peekIndex - 1); err != nil {
		return false, err
	}
	l.peekIndex += 3
	l.setCheckpoint(beforeUnannotatedTypeID)
	return true, nil
}

// CheckVersionMarker validates the four byte version marker starting at start
// and notifies the observer.
func (l *lexer) checkVersionMarker(start int64) error {
	bs := l.buf.bytes[start : start+4]
	if bs[3] != ivmEnd {
		return l.syntaxError("invalid binary version marker", start)
	}

	major, minor := int(bs[1]), int(bs[2])
	if major != 1 || minor != 0 {
		return &UnsupportedVersionError{major, minor, l.buf.position(start)}
	}

	l.major, l.minor = major, minor
	if l.onVersionMarker != nil {
		l.onVersionMarker(major, minor)
	}
	return nil
}

// ParseTypeID interprets a type ID byte that has just been read. It reports
// done when the instruction should return, either because it produced an event
// or because it needs more data.
func (l *lexer) parseTypeID(b byte) (bool, error) {
	tid := &typeIDs[b]
	if !tid.valid {
		return true, &InvalidTagByteError{b, l.buf.position(l.peekIndex - 1)}
	}

	if tid.isAnnotationWrapper {
		if l.location == beforeAnnotatedTypeID {
			return true, l.syntaxError("nested annotation wrappers", l.peekIndex-1)
		}
		return l.readAnnotationWrapper(tid)
	}
	return l.readValueHeader(tid)
}

func (l *lexer) readAnnotationWrapper(tid *typeID) (bool, error) {
	length := tid.length
	if tid.variableLength {
		n, ok, err := l.readVarUint()
		if err != nil || !ok {
			return true, err
		}
		length = int64(n)
	}
	if err := l.setValueMarker(length, false); err != nil {
		return true, err
	}

	n, ok, err := l.readVarUint()
	if err != nil || !ok {
		return true, err
	}
	annotationsLength := int64(n)
	if annotationsLength == 0 {
		return true, l.syntaxError("annotation wrapper has no annotations", l.peekIndex)
	}
	if annotationsLength >= l.valueMarker.end-l.peekIndex {
		return true, l.syntaxError("annotation wrapper has no wrapped value", l.peekIndex)
	}

	st, err := l.buf.fillAt(l.peekIndex, annotationsLength)
	if err != nil {
		return true, err
	}
	switch st {
	case fillPending:
		return true, nil
	case fillOverflow:
		// Only the first annotation is needed to tell a symbol table apart.
		start := l.peekIndex
		sid, ok, err := l.readVarUint()
		if err != nil || !ok {
			return true, err
		}
		l.peekIndex = start
		return l.discardAnnotations(annotationsLength, sid == symbolTableSID)
	}

	l.annotationMarker = marker{l.peekIndex, l.peekIndex + annotationsLength}
	l.peekIndex = l.annotationMarker.end
	l.setCheckpoint(beforeAnnotatedTypeID)
	return false, nil
}

// DiscardAnnotations skips annotations too large to buffer. The wrapped value
// is read as usual and then skipped.
func (l *lexer) discardAnnotations(length int64, symtab bool) (bool, error) {
	l.discardSymtab = symtab
	l.discarding = true

	l.annotationMarker = marker{l.peekIndex, l.peekIndex + length}
	ok, err := l.buf.seekTo(l.annotationMarker.end)
	if err != nil {
		return true, err
	}

	l.peekIndex = l.annotationMarker.end
	l.annotationMarker = noMarker
	l.setCheckpoint(beforeAnnotatedTypeID)
	return !ok, nil
}

func (l *lexer) readValueHeader(tid *typeID) (bool, error) {
	annotated := l.location == beforeAnnotatedTypeID

	length := tid.length
	if tid.variableLength {
		n, ok, err := l.readVarUint()
		if err != nil || !ok {
			return true, err
		}
		length = int64(n)
	}

	if tid.isNopPad {
		if annotated {
			return true, l.syntaxError("annotated NOP padding", l.peekIndex)
		}
		if err := l.setValueMarker(length, false); err != nil {
			return true, err
		}
		l.setCheckpoint(afterScalarHeader)
		ok, err := l.skipRemainingValueBytes()
		return err != nil || !ok, err
	}

	if err := l.setValueMarker(length, annotated); err != nil {
		return true, err
	}
	if tid.isOrderedStruct() && length == 0 {
		return true, l.syntaxError("ordered struct must not be empty", l.peekIndex)
	}

	if l.discarding {
		return l.skipDiscardedValue(tid)
	}

	l.tid = tid
	if IsContainer(tid.typ) {
		l.setCheckpoint(afterContainerHeader)
		l.event = StartContainer
	} else {
		l.setCheckpoint(afterScalarHeader)
		l.event = StartScalar
	}
	return true, nil
}

// SkipDiscardedValue reports and skips a value whose annotations were discarded.
func (l *lexer) skipDiscardedValue(tid *typeID) (bool, error) {
	l.discarding = false
	l.skipping = true
	l.setCheckpoint(afterScalarHeader)

	symtab := l.discardSymtab && tid.typ == StructType && l.stack.empty()
	if err := l.notifyOversized(symtab); err != nil {
		return true, err
	}

	ok, err := l.skipRemainingValueBytes()
	return err != nil || !ok, err
}

// SetValueMarker marks the next length bytes as the current value, checking
// that they fit in the parent container and, for a wrapped value, that they end
// where the wrapper does.
func (l *lexer) setValueMarker(length int64, annotated bool) error {
	if length < 0 || length > math.MaxInt64-l.peekIndex {
		return l.syntaxError("value length too large", l.peekIndex)
	}

	end := l.peekIndex + length
	if parent := l.stack.peek(); parent != nil && end > parent.end {
		return l.syntaxError("value overflows its container", l.peekIndex)
	}
	if annotated && end != l.valueMarker.end {
		return l.syntaxError("annotation wrapper length does not match the wrapped value", l.peekIndex)
	}

	l.valueMarker = marker{l.peekIndex, end}
	return nil
}

// SkipRemainingValueBytes moves past the rest of the current value, reporting
// !ok if the skip is not yet complete.
func (l *lexer) skipRemainingValueBytes() (bool, error) {
	if l.valueMarker.end > l.buf.limit {
		ok, err := l.buf.seekTo(l.valueMarker.end)
		if err != nil || !ok {
			return false, err
		}
	}

	l.peekIndex = l.valueMarker.end
	l.setCheckpoint(beforeUnannotatedTypeID)
	return true, nil
}

func (l *lexer) notifyOversized(symbolTableShaped bool) error {
	if l.onOversized == nil {
		return nil
	}
	return l.onOversized(symbolTableShaped)
}

// SetCheckpoint records that decoding can resume from peekIndex at loc.
func (l *lexer) setCheckpoint(loc checkpointLocation) {
	if loc == beforeUnannotatedTypeID {
		l.resetValue()
		l.buf.offset = l.peekIndex
	}
	if l.onData != nil && l.peekIndex > l.checkpoint {
		l.onData(l.peekIndex - l.checkpoint)
	}
	l.location = loc
	l.checkpoint = l.peekIndex
}

func (l *lexer) resetValue() {
	l.valueMarker = noMarker
	l.annotationMarker = noMarker
	l.fieldSID = -1
	l.tid = nil
	l.skipping = false
	l.discarding = false
	l.discardSymtab = false
}

func (l *lexer) fillCareful() (Event, error) {
	if l.skipping {
		return l.continueSkip()
	}

	ready, err := l.buf.makeReady()
	if err != nil || !ready {
		l.event = NeedsData
		return l.event, err
	}

	st, err := l.buf.fillAt(l.valueMarker.start, l.valueMarker.length())
	if err != nil {
		return l.event, err
	}

	switch st {
	case fillReady:
		l.event = ValueReady
	case fillPending:
		l.event = NeedsData
	case fillOverflow:
		l.skipping = true
		l.tid = nil
		if err := l.notifyOversized(false); err != nil {
			return l.event, err
		}
		return l.continueSkip()
	}
	return l.event, nil
}

// ContinueSkip carries on discarding an oversized value.
func (l *lexer) continueSkip() (Event, error) {
	l.event = NeedsData

	ready, err := l.buf.makeReady()
	if err != nil || !ready {
		return l.event, err
	}
	ok, err := l.skipRemainingValueBytes()
	if err != nil || !ok {
		return l.event, err
	}

	l.event = NeedsInstruction
	return l.event, nil
}

// StepIn moves into the current container.
func (l *lexer) stepIn() (Event, error) {
	ready, err := l.buf.makeReady()
	if err != nil || !ready {
		l.event = NeedsData
		return l.event, err
	}

	frame := l.stack.push()
	frame.typ = l.tid.typ
	frame.end = l.valueMarker.end

	l.peekIndex = l.valueMarker.start
	l.setCheckpoint(beforeUnannotatedTypeID)
	l.event = NeedsInstruction
	return l.event, nil
}

// StepOut skips whatever is left of the current container and moves out of it.
func (l *lexer) stepOut() (Event, error) {
	l.event = NeedsData
	ready, err := l.buf.makeReady()
	if err != nil || !ready {
		return l.event, err
	}

	ok, err := l.buf.seekTo(l.stack.peek().end)
	if err != nil || !ok {
		return l.event, err
	}

	l.peekIndex = l.stack.peek().end
	l.stack.pop()
	l.setCheckpoint(beforeUnannotatedTypeID)
	l.event = NeedsInstruction
	return l.event, nil
}

// ShiftIndicesLeft keeps every index in step with the buffer when it drops
// delta bytes from its front.
func (l *lexer) shiftIndicesLeft(delta int64) {
	l.peekIndex -= delta
	l.checkpoint -= delta
	l.valueMarker.start -= delta
	l.valueMarker.end -= delta
	l.annotationMarker.start -= delta
	l.annotationMarker.end -= delta
	l.stack.each(func(f *containerFrame) {
		f.end -= delta
	})
}
