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

import "fmt"

// An Event is the outcome of an instruction given to an IncrementalReader.
type Event uint8

const (
	// NeedsData means the reader needs more bytes before it can make progress. Supply
	// them and repeat the same instruction.
	NeedsData Event = iota

	// NeedsInstruction means the reader finished the previous instruction and is not
	// positioned on a value.
	NeedsInstruction

	// StartScalar means the reader is positioned on a scalar whose bytes may not have
	// been buffered yet.
	StartScalar

	// ValueReady means the current value's bytes are fully buffered.
	ValueReady

	// StartContainer means the reader is positioned on a list, sexp, or struct.
	StartContainer

	// EndContainer means the reader reached the end of the current container.
	EndContainer
)

func (e Event) String() string {
	switch e {
	case NeedsData:
		return "NEEDS_DATA"
	case NeedsInstruction:
		return "NEEDS_INSTRUCTION"
	case StartScalar:
		return "START_SCALAR"
	case ValueReady:
		return "VALUE_READY"
	case StartContainer:
		return "START_CONTAINER"
	case EndContainer:
		return "END_CONTAINER"
	default:
		return fmt.Sprintf("<unknown event %d>", uint8(e))
	}
}

// An Instruction tells an IncrementalReader what to do next.
type Instruction uint8

const (
	// NextValue advances to the next value at the current depth.
	NextValue Instruction = iota

	// LoadValue buffers the whole current value.
	LoadValue

	// StepIn steps into the current container.
	StepIn

	// StepOut steps out of the current container, skipping any values not yet visited.
	StepOut
)

func (i Instruction) String() string {
	switch i {
	case NextValue:
		return "NEXT_VALUE"
	case LoadValue:
		return "LOAD_VALUE"
	case StepIn:
		return "STEP_IN"
	case StepOut:
		return "STEP_OUT"
	default:
		return fmt.Sprintf("<unknown instruction %d>", uint8(i))
	}
}
