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
	"encoding/binary"
	"math"
	"math/big"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// The decoders below work on the complete, buffered representation of a value
// or header field. Their errors carry no offset; the reader adds it.

// DecodeVarUint decodes a VarUInt from the front of bs, returning its value
// and length in bytes.
func decodeVarUint(bs []byte) (uint64, int, error) {
	val := uint64(0)
	for i, b := range bs {
		if i >= maxVarUintLength {
			return 0, 0, errors.New("varuint too large")
		}

		val <<= 7
		val |= uint64(b & 0x7F)
		if b&0x80 != 0 {
			return val, i + 1, nil
		}
	}
	return 0, 0, errors.New("truncated varuint")
}

// DecodeVarInt decodes a VarInt from the front of bs, returning its value, its
// length in bytes and whether it was a negative zero.
func decodeVarInt(bs []byte) (int64, int, bool, error) {
	if len(bs) == 0 {
		return 0, 0, false, errors.New("truncated varint")
	}

	c := bs[0]
	neg := c&0x40 != 0
	val := int64(c & 0x3F)

	n := 1
	for c&0x80 == 0 {
		if n >= len(bs) {
			return 0, 0, false, errors.New("truncated varint")
		}
		if n >= maxVarUintLength {
			return 0, 0, false, errors.New("varint too large")
		}

		c = bs[n]
		val <<= 7
		val |= int64(c & 0x7F)
		n++
	}

	if neg {
		return -val, n, val == 0, nil
	}
	return val, n, false, nil
}

// DecodeAnnotationSIDs decodes the symbol IDs making up an annotation list.
func decodeAnnotationSIDs(bs []byte) ([]uint64, error) {
	var sids []uint64
	for len(bs) > 0 {
		sid, n, err := decodeVarUint(bs)
		if err != nil {
			return nil, errors.Wrap(err, "malformed annotation")
		}
		sids = append(sids, sid)
		bs = bs[n:]
	}
	return sids, nil
}

// DecodeUint decodes a big-endian unsigned integer of at most eight bytes.
func decodeUint(bs []byte) (uint64, error) {
	if len(bs) > 8 {
		return 0, errors.New("symbol id too large")
	}

	ret := uint64(0)
	for _, b := range bs {
		ret <<= 8
		ret |= uint64(b)
	}
	return ret, nil
}

// DecodeInt decodes an int's magnitude, negating it for a negative int type
// ID. Values that fit are returned as an int64; the rest as a big.Int.
func decodeInt(bs []byte, negative bool) (int64, *big.Int, error) {
	for len(bs) > 0 && bs[0] == 0 {
		bs = bs[1:]
	}
	if len(bs) == 0 {
		if negative {
			return 0, nil, errors.New("negative zero int")
		}
		return 0, nil, nil
	}

	if len(bs) <= 8 {
		mag, _ := decodeUint(bs)
		switch {
		case mag <= math.MaxInt64 && negative:
			return -int64(mag), nil, nil
		case mag <= math.MaxInt64:
			return int64(mag), nil, nil
		case negative && mag == 1<<63:
			return math.MinInt64, nil, nil
		}
	}

	i := new(big.Int).SetBytes(bs)
	if negative {
		i.Neg(i)
	}
	return 0, i, nil
}

// IntSizeOf classifies a decoded int.
func intSizeOf(v int64, bi *big.Int) IntSize {
	switch {
	case bi != nil:
		return BigInt
	case v >= math.MinInt32 && v <= math.MaxInt32:
		return Int32
	default:
		return Int64
	}
}

// DecodeSignedInt decodes a sign-and-magnitude Int field, as used for decimal
// coefficients. It reports whether the value was a negative zero.
func decodeSignedInt(bs []byte) (*big.Int, bool) {
	ret := new(big.Int)
	if len(bs) == 0 {
		return ret, false
	}

	neg := bs[0]&0x80 != 0
	mag := make([]byte, len(bs))
	copy(mag, bs)
	mag[0] &= 0x7F

	ret.SetBytes(mag)
	if neg {
		ret.Neg(ret)
	}
	return ret, neg && ret.Sign() == 0
}

func decodeFloat(bs []byte) (float64, error) {
	switch len(bs) {
	case 0:
		return 0, nil
	case 4:
		return float64(math.Float32frombits(binary.BigEndian.Uint32(bs))), nil
	case 8:
		return math.Float64frombits(binary.BigEndian.Uint64(bs)), nil
	default:
		return 0, errors.Errorf("invalid float size %v", len(bs))
	}
}

// DecodeDecimal decodes an exponent VarInt followed by a coefficient Int taking
// up the rest of the bytes.
func decodeDecimal(bs []byte) (*Decimal, error) {
	if len(bs) == 0 {
		return NewDecimal(new(big.Int), 0, false), nil
	}

	exp, n, _, err := decodeVarInt(bs)
	if err != nil {
		return nil, err
	}
	if exp > math.MaxInt32 || exp < math.MinInt32 {
		return nil, errors.Errorf("decimal exponent out of range: %v", exp)
	}

	coef, negZero := decodeSignedInt(bs[n:])
	return NewDecimal(coef, int32(exp), negZero), nil
}

// DecodeTimestamp decodes an offset VarInt followed by VarUInt date and time
// components and an optional decimal fraction of a second.
func decodeTimestamp(bs []byte) (Timestamp, error) {
	offset, n, unknownOffset, err := decodeVarInt(bs)
	if err != nil {
		return Timestamp{}, err
	}
	bs = bs[n:]

	ts := [6]int{1, 1, 1, 0, 0, 0}
	precision := TimestampNoPrecision
	for i := 0; len(bs) > 0 && i < 6; i++ {
		val, n, err := decodeVarUint(bs)
		if err != nil {
			return Timestamp{}, err
		}
		if val > math.MaxInt32 {
			return Timestamp{}, errors.Errorf("timestamp component out of range: %v", val)
		}
		bs = bs[n:]
		ts[i] = int(val)

		switch i {
		case 0:
			precision = TimestampPrecisionYear
		case 1:
			precision = TimestampPrecisionMonth
		case 2:
			precision = TimestampPrecisionDay
		case 3:
			// An hour must be followed by a minute.
			if len(bs) == 0 {
				return Timestamp{}, errors.New("timestamp hour without minute")
			}
		case 4:
			precision = TimestampPrecisionMinute
		case 5:
			precision = TimestampPrecisionSecond
		}
	}
	if precision == TimestampNoPrecision {
		return Timestamp{}, errors.New("timestamp has no year")
	}

	nsecs, digits := 0, uint8(0)
	if len(bs) > 0 {
		if precision != TimestampPrecisionSecond {
			return Timestamp{}, errors.New("timestamp fraction without seconds")
		}

		frac, err := decodeDecimal(bs)
		if err != nil {
			return Timestamp{}, err
		}
		nsecs, digits, err = fractionToNanos(frac)
		if err != nil {
			return Timestamp{}, err
		}
		if digits > 0 {
			precision = TimestampPrecisionNanosecond
		}
	}

	return newTimestampFromComponents(ts, nsecs, offset, unknownOffset, precision, digits)
}

// FractionToNanos converts a fraction of a second to nanoseconds, along with
// the number of digits it was written with.
func fractionToNanos(frac *Decimal) (int, uint8, error) {
	coef, exp := frac.CoEx()
	if coef.Sign() < 0 || (coef.Sign() > 0 && exp >= 0) {
		return 0, 0, errors.Errorf("invalid timestamp fraction: %v", frac)
	}
	if exp >= 0 {
		return 0, 0, nil
	}

	digits := -int64(exp)
	nsec := new(big.Int)
	switch {
	case digits <= 9:
		nsec = scaleUp(coef, 9-digits)
	case digits-9 < int64(len(coef.String())):
		// Digits beyond nanoseconds are truncated.
		pow := new(big.Int).Exp(big.NewInt(10), big.NewInt(digits-9), nil)
		nsec.Quo(coef, pow)
	}
	if nsec.Cmp(big.NewInt(999999999)) > 0 {
		return 0, 0, errors.Errorf("invalid timestamp fraction: %v", frac)
	}

	if digits > 9 {
		digits = 9
	}
	return int(nsec.Int64()), uint8(digits), nil
}

func decodeString(bs []byte) (string, error) {
	if !utf8.Valid(bs) {
		return "", errors.New("invalid utf-8 in string")
	}
	return string(bs), nil
}
