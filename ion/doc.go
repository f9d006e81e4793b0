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

// Package ion reads the Ion binary format incrementally.
//
// An IncrementalReader never blocks waiting for input. It is driven by
// Instructions, and each call to Next reports an Event saying how far it got:
//
//	r, err := ion.NewIncrementalReader(src, ion.DefaultBufferConfiguration())
//	for {
//		e, err := r.NextValue()
//		if err != nil {
//			return err
//		}
//		if e == ion.NeedsData {
//			// Wait until src has more bytes, then call NextValue again.
//		}
//		...
//	}
//
// When the reader reports NeedsData it keeps every byte it has buffered, so
// the same instruction can be retried once the source has grown. Values that
// do not fit in the configured MaximumBufferSize are skipped, and the
// OnOversizedValue callback is invoked for each of them. Local symbol tables
// are decoded transparently and never surface as values.
//
// Reader wraps an IncrementalReader behind a conventional blocking Next
// interface for callers whose source is a complete stream.
//
// Ion binary format documentation:
//
//	https://amazon-ion.github.io/ion-docs/docs/binary.html
package ion
