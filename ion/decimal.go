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
	"math"
	"math/big"
	"strconv"
	"strings"
)

// A ParseError is returned if ParseDecimal is called with a parameter that
// cannot be parsed as a Decimal.
type ParseError struct {
	Num string
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("ion: ParseDecimal(%v): %v", e.Num, e.Msg)
}

// Decimal is an arbitrary-precision decimal value, coef * 10^exp. Precision
// is preserved: 1.0 and 1.00 are distinct values that compare equal.
type Decimal struct {
	coef    *big.Int
	exp     int32
	negZero bool
}

// NewDecimal creates a new decimal whose value is equal to coef * 10^exp.
// negZero marks a zero coefficient written with a minus sign.
func NewDecimal(coef *big.Int, exp int32, negZero bool) *Decimal {
	return &Decimal{
		coef:    coef,
		exp:     exp,
		negZero: negZero && coef.Sign() == 0,
	}
}

// MustParseDecimal parses the given string into a decimal object,
// panicking on error.
func MustParseDecimal(in string) *Decimal {
	d, err := ParseDecimal(in)
	if err != nil {
		panic(err)
	}
	return d
}

// ParseDecimal parses a decimal in Ion text notation, such as 1.5 or -2d-3.
func ParseDecimal(in string) (*Decimal, error) {
	if in == "" {
		return nil, &ParseError{in, "empty string"}
	}

	mantissa, expText, hasExp := strings.Cut(strings.ToLower(in), "d")
	exp := int64(0)
	if hasExp {
		if expText == "" {
			return nil, &ParseError{in, "missing exponent"}
		}
		v, err := strconv.ParseInt(expText, 10, 32)
		if err != nil {
			return nil, &ParseError{in, err.Error()}
		}
		exp = v
	}

	whole, frac, _ := strings.Cut(mantissa, ".")
	exp -= int64(len(frac))
	if exp < math.MinInt32 {
		return nil, &ParseError{in, "exponent out of range"}
	}

	digits := whole + frac
	coef, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, &ParseError{in, "invalid coefficient"}
	}
	return NewDecimal(coef, int32(exp), strings.HasPrefix(digits, "-")), nil
}

// CoEx returns this decimal's coefficient and exponent.
func (d *Decimal) CoEx() (*big.Int, int32) {
	return d.coef, d.exp
}

// IsNegativeZero reports whether this decimal is a zero with a negative sign.
func (d *Decimal) IsNegativeZero() bool {
	return d.negZero
}

// Sign returns -1, 0 or +1 depending on the sign of the value. Negative zero
// is 0.
func (d *Decimal) Sign() int {
	return d.coef.Sign()
}

// Cmp compares the values of two decimals, ignoring precision.
func (d *Decimal) Cmp(o *Decimal) int {
	a, b := d.coef, o.coef
	switch {
	case d.exp > o.exp:
		a = scaleUp(a, int64(d.exp)-int64(o.exp))
	case d.exp < o.exp:
		b = scaleUp(b, int64(o.exp)-int64(d.exp))
	}
	return a.Cmp(b)
}

// Equal reports whether two decimals have the same value, ignoring precision.
func (d *Decimal) Equal(o *Decimal) bool {
	return d.Cmp(o) == 0
}

// ScaleUp returns n * 10^digits.
func scaleUp(n *big.Int, digits int64) *big.Int {
	pow := new(big.Int).Exp(big.NewInt(10), big.NewInt(digits), nil)
	return pow.Mul(pow, n)
}

// String formats the decimal in Ion text notation. Values whose digits all
// sit right of the decimal point use a d exponent instead of leading zeros.
func (d *Decimal) String() string {
	str := d.coef.String()
	if d.negZero {
		str = "-0"
	}

	switch {
	case d.exp == 0:
		return str + "."
	case d.exp > 0:
		return str + "d" + strconv.Itoa(int(d.exp))
	}

	sign := ""
	if str[0] == '-' {
		sign, str = "-", str[1:]
	}

	point := len(str) + int(d.exp)
	if point > 0 {
		return sign + str[:point] + "." + str[point:]
	}

	mantissa := str[:1]
	if len(str) > 1 {
		mantissa += "." + str[1:]
	}
	return sign + mantissa + "d" + strconv.Itoa(point-1)
}
