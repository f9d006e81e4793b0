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

// NextQuick is next for input that is entirely in memory. Reads check bounds
// against the buffer's limit instead of asking it for bytes, and a truncated
// header rewinds to the checkpoint.
func (l *lexer) nextQuick() (Event, error) {
	l.event = NeedsData
	l.tid = nil

	for {
		if l.valueMarker.end > l.peekIndex {
			if l.valueMarker.end > l.buf.limit {
				return l.event, nil
			}
			l.peekIndex = l.valueMarker.end
		}
		l.setCheckpoint(beforeUnannotatedTypeID)

		if end, err := l.checkContainerEnd(); end || err != nil {
			return l.event, err
		}
		if l.peekIndex >= l.buf.limit {
			return l.event, nil
		}

		if l.inStruct() {
			sid, ok, err := l.quickVarUint()
			if err != nil {
				return l.event, err
			}
			if !ok {
				return l.truncated()
			}
			l.fieldSID = int64(sid)
		}

		if l.peekIndex >= l.buf.limit {
			return l.truncated()
		}
		b := l.buf.bytes[l.peekIndex]
		l.peekIndex++

		if b == ivmStart && l.stack.empty() {
			if l.peekIndex+3 > l.buf.limit {
				return l.truncated()
			}
			if err := l.checkVersionMarker(l.peekIndex - 1); err != nil {
				return l.event, err
			}
			l.peekIndex += 3
			continue
		}

		done, err := l.quickTypeID(b)
		if err != nil || done {
			return l.event, err
		}
	}
}

// Truncated rewinds to the checkpoint after running out of bytes mid-header.
func (l *lexer) truncated() (Event, error) {
	l.peekIndex = l.checkpoint
	l.resetValue()
	l.location = beforeUnannotatedTypeID
	l.event = NeedsData
	return l.event, nil
}

func (l *lexer) quickVarUint() (uint64, bool, error) {
	start := l.peekIndex
	val := uint64(0)

	for i := 0; i < maxVarUintLength; i++ {
		if l.peekIndex >= l.buf.limit {
			return 0, false, nil
		}
		b := l.buf.bytes[l.peekIndex]
		l.peekIndex++

		val <<= 7
		val |= uint64(b & 0x7F)
		if b&0x80 != 0 {
			return val, true, nil
		}
	}

	return 0, false, l.syntaxError("varuint too large", start)
}

// QuickTypeID reads a value header, including any annotation wrapper around it.
func (l *lexer) quickTypeID(b byte) (bool, error) {
	tid := &typeIDs[b]
	if !tid.valid {
		return true, &InvalidTagByteError{b, l.buf.position(l.peekIndex - 1)}
	}

	if tid.isAnnotationWrapper {
		done, err := l.quickAnnotationWrapper(tid)
		if err != nil || done {
			return true, err
		}

		b = l.buf.bytes[l.peekIndex]
		l.peekIndex++

		tid = &typeIDs[b]
		if !tid.valid {
			return true, &InvalidTagByteError{b, l.buf.position(l.peekIndex - 1)}
		}
		if tid.isAnnotationWrapper {
			return true, l.syntaxError("nested annotation wrappers", l.peekIndex-1)
		}
	}

	return l.quickValueHeader(tid)
}

// QuickAnnotationWrapper reads a wrapper's length and annotations, leaving the
// lexer at the wrapped value's type ID. It reports done if the header is
// truncated.
func (l *lexer) quickAnnotationWrapper(tid *typeID) (bool, error) {
	length := tid.length
	if tid.variableLength {
		n, ok, err := l.quickVarUint()
		if err != nil {
			return true, err
		}
		if !ok {
			_, err := l.truncated()
			return true, err
		}
		length = int64(n)
	}
	if err := l.setValueMarker(length, false); err != nil {
		return true, err
	}

	n, ok, err := l.quickVarUint()
	if err != nil {
		return true, err
	}
	if !ok {
		_, err := l.truncated()
		return true, err
	}

	annotationsLength := int64(n)
	if annotationsLength == 0 {
		return true, l.syntaxError("annotation wrapper has no annotations", l.peekIndex)
	}
	if annotationsLength >= l.valueMarker.end-l.peekIndex {
		return true, l.syntaxError("annotation wrapper has no wrapped value", l.peekIndex)
	}

	l.annotationMarker = marker{l.peekIndex, l.peekIndex + annotationsLength}
	l.peekIndex = l.annotationMarker.end
	if l.peekIndex >= l.buf.limit {
		_, err := l.truncated()
		return true, err
	}

	l.location = beforeAnnotatedTypeID
	return false, nil
}

func (l *lexer) quickValueHeader(tid *typeID) (bool, error) {
	annotated := l.location == beforeAnnotatedTypeID

	length := tid.length
	if tid.variableLength {
		n, ok, err := l.quickVarUint()
		if err != nil {
			return true, err
		}
		if !ok {
			_, err := l.truncated()
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
		l.location = afterScalarHeader
		return false, nil
	}

	if err := l.setValueMarker(length, annotated); err != nil {
		return true, err
	}
	if tid.isOrderedStruct() && length == 0 {
		return true, l.syntaxError("ordered struct must not be empty", l.peekIndex)
	}

	l.tid = tid
	if IsContainer(tid.typ) {
		l.location = afterContainerHeader
		l.event = StartContainer
	} else {
		l.location = afterScalarHeader
		l.event = StartScalar
	}
	return true, nil
}

func (l *lexer) fillQuick() (Event, error) {
	if l.valueMarker.end <= l.buf.limit {
		l.event = ValueReady
	} else {
		l.event = NeedsData
	}
	return l.event, nil
}
