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

// A containerFrame represents a container value the reader has stepped into,
// including its type and the index at which its contents (supposedly) end.
type containerFrame struct {
	typ Type
	end int64
}

// A containerStack holds the frames of the containers the reader is currently in.
// Frames below the deepest depth ever reached are kept and reused.
type containerStack struct {
	frames []containerFrame
	depth  int
}

// Empty returns true if the reader is at the top level.
func (s *containerStack) empty() bool {
	return s.depth == 0
}

// Peek returns the innermost frame, or nil at the top level.
func (s *containerStack) peek() *containerFrame {
	if s.depth == 0 {
		return nil
	}
	return &s.frames[s.depth-1]
}

// Push returns a frame for the caller to fill in. It is valid until the next push.
func (s *containerStack) push() *containerFrame {
	if s.depth == len(s.frames) {
		s.frames = append(s.frames, containerFrame{})
	}
	s.depth++
	return &s.frames[s.depth-1]
}

// Pop discards the innermost frame.
func (s *containerStack) pop() {
	if s.depth == 0 {
		panic("pop called on empty containerStack")
	}
	s.depth--
	s.frames[s.depth] = containerFrame{}
}

// Each calls fn on every frame in use, outermost first.
func (s *containerStack) each(fn func(f *containerFrame)) {
	for i := 0; i < s.depth; i++ {
		fn(&s.frames[i])
	}
}
