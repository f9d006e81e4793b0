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
	"strings"
	"time"
)

// TimestampPrecision is for tracking the precision of a timestamp.
type TimestampPrecision uint8

// Possible TimestampPrecision values.
const (
	TimestampNoPrecision TimestampPrecision = iota
	TimestampPrecisionYear
	TimestampPrecisionMonth
	TimestampPrecisionDay
	TimestampPrecisionMinute
	TimestampPrecisionSecond
	TimestampPrecisionNanosecond
)

func (tp TimestampPrecision) String() string {
	switch tp {
	case TimestampNoPrecision:
		return "<no precision>"
	case TimestampPrecisionYear:
		return "Year"
	case TimestampPrecisionMonth:
		return "Month"
	case TimestampPrecisionDay:
		return "Day"
	case TimestampPrecisionMinute:
		return "Minute"
	case TimestampPrecisionSecond:
		return "Second"
	case TimestampPrecisionNanosecond:
		return "Nanosecond"
	default:
		return fmt.Sprintf("<unknown precision %v>", uint8(tp))
	}
}

func (tp TimestampPrecision) layout(kind TimezoneKind, digits uint8) string {
	// An unknown offset is written as -00:00, which no zone layout produces.
	zone := "Z07:00"
	if kind == TimezoneUnspecified {
		zone = "-00:00"
	}

	switch tp {
	case TimestampPrecisionYear:
		return "2006T"
	case TimestampPrecisionMonth:
		return "2006-01T"
	case TimestampPrecisionDay:
		return "2006-01-02T"
	case TimestampPrecisionMinute:
		return "2006-01-02T15:04" + zone
	case TimestampPrecisionSecond:
		return "2006-01-02T15:04:05" + zone
	case TimestampPrecisionNanosecond:
		if digits == 0 {
			return "2006-01-02T15:04:05" + zone
		}
		return "2006-01-02T15:04:05." + strings.Repeat("0", int(digits)) + zone
	}
	return time.RFC3339Nano
}

// TimezoneKind tracks the type of timezone.
type TimezoneKind uint8

const (
	// TimezoneUnspecified is for timestamps without a known offset: those with
	// year, month or day precision, and those with an offset of -00:00.
	TimezoneUnspecified TimezoneKind = iota

	// TimezoneUTC is for timestamps with an offset of +00:00.
	TimezoneUTC

	// TimezoneLocal is for timestamps with a non-zero offset.
	TimezoneLocal
)

// Timestamp is an Ion timestamp: a point in time together with the precision
// it was written at and what is known about its offset.
type Timestamp struct {
	dateTime             time.Time
	precision            TimestampPrecision
	kind                 TimezoneKind
	numFractionalSeconds uint8
}

// NewTimestamp constructs a Timestamp. Timestamps of day precision or coarser
// always have an unspecified timezone.
func NewTimestamp(dateTime time.Time, precision TimestampPrecision, kind TimezoneKind) Timestamp {
	if precision <= TimestampPrecisionDay {
		kind = TimezoneUnspecified
	}
	return Timestamp{dateTime, precision, kind, 0}
}

// NewTimestampWithFractionalSeconds constructs a Timestamp with the given
// number of fractional second digits, at most nine.
func NewTimestampWithFractionalSeconds(dateTime time.Time, precision TimestampPrecision, kind TimezoneKind, fractionPrecision uint8) Timestamp {
	if fractionPrecision > 9 {
		fractionPrecision = 9
	}
	return Timestamp{dateTime, precision, kind, fractionPrecision}
}

// GetDateTime returns the timestamp's point in time.
func (ts Timestamp) GetDateTime() time.Time {
	return ts.dateTime
}

// GetPrecision returns the timestamp's precision.
func (ts Timestamp) GetPrecision() TimestampPrecision {
	return ts.precision
}

// GetTimezoneKind returns what is known about the timestamp's offset.
func (ts Timestamp) GetTimezoneKind() TimezoneKind {
	return ts.kind
}

// GetNumberOfFractionalSeconds returns the number of fractional second digits.
func (ts Timestamp) GetNumberOfFractionalSeconds() uint8 {
	return ts.numFractionalSeconds
}

// String formats the timestamp in Ion text notation.
func (ts Timestamp) String() string {
	layout := ts.precision.layout(ts.kind, ts.numFractionalSeconds)
	return ts.dateTime.Format(layout)
}

// Equal figures out if two timestamps are equal for each component.
func (ts Timestamp) Equal(o Timestamp) bool {
	return ts.dateTime.Equal(o.dateTime) &&
		ts.precision == o.precision &&
		ts.kind == o.kind &&
		ts.numFractionalSeconds == o.numFractionalSeconds
}

// Equivalent figures out if two timestamps have equal dateTime and precision.
func (ts Timestamp) Equivalent(o Timestamp) bool {
	return ts.dateTime.Equal(o.dateTime) && ts.precision == o.precision
}

// NewTimestampFromComponents validates the given UTC date and time components
// and builds a timestamp at the given offset in minutes.
func newTimestampFromComponents(ts [6]int, nsecs int, offset int64, unknownOffset bool, precision TimestampPrecision, digits uint8) (Timestamp, error) {
	date := time.Date(ts[0], time.Month(ts[1]), ts[2], ts[3], ts[4], ts[5], nsecs, time.UTC)
	// time.Date normalizes 2000-01-32 to 2000-02-01.
	if ts[0] != date.Year() || time.Month(ts[1]) != date.Month() || ts[2] != date.Day() ||
		ts[3] != date.Hour() || ts[4] != date.Minute() || ts[5] != date.Second() {
		return Timestamp{}, fmt.Errorf("ion: invalid timestamp %04d-%02d-%02dT%02d:%02d:%02d", ts[0], ts[1], ts[2], ts[3], ts[4], ts[5])
	}

	date = date.In(time.FixedZone("fixed", int(offset)*60))

	switch {
	case precision <= TimestampPrecisionDay:
		return NewTimestamp(date, precision, TimezoneUnspecified), nil
	case unknownOffset:
		return NewTimestampWithFractionalSeconds(date, precision, TimezoneUnspecified, digits), nil
	case offset == 0:
		return NewTimestampWithFractionalSeconds(date, precision, TimezoneUTC, digits), nil
	default:
		return NewTimestampWithFractionalSeconds(date, precision, TimezoneLocal, digits), nil
	}
}
