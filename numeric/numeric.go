// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package numeric holds the null-propagating number helpers shared by the
// per-share builder, the growth engine and the screener. A nil *float64 is a
// blank value; none of these functions panic or return an error on bad input.
package numeric

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// FloorValue is what FloorToPositive substitutes for zero or negative values.
const FloorValue = 0.01

// Ptr returns a pointer to a copy of f
func Ptr(f float64) *float64 {
	return &f
}

func finite(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// ToNumber coerces v to a finite float. Blank strings, nil, booleans, values
// that do not parse and non-finite numbers all yield nil.
func ToNumber(v any) *float64 {
	switch val := v.(type) {
	case nil:
		return nil
	case *float64:
		if val == nil {
			return nil
		}
		return finite(*val)
	case bool:
		return nil
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return nil
		}
		v = s
	}

	f, err := cast.ToFloat64E(v)
	if err != nil {
		return nil
	}

	return finite(f)
}

// Round rounds v half away from zero at the given number of decimals
func Round(v *float64, decimals int) *float64 {
	if v == nil || finite(*v) == nil {
		return nil
	}

	rounded, _ := decimal.NewFromFloat(*v).Round(int32(decimals)).Float64()
	return &rounded
}

// FloorToPositive clamps zero and negative values to FloorValue so that a
// growth ratio can be computed across a loss-making period. Non-finite
// input yields nil.
func FloorToPositive(v *float64) *float64 {
	if v == nil || finite(*v) == nil {
		return nil
	}

	if *v <= 0 {
		return Ptr(FloorValue)
	}

	return Ptr(*v)
}

// IsNonPositive reports whether the raw value is present and <= 0, which is
// exactly the case where FloorToPositive substitutes FloorValue.
func IsNonPositive(v *float64) bool {
	return v != nil && *v <= 0
}

// SafeDivide returns numerator / denominator, or nil when either side is
// missing or non-finite, or the denominator is zero.
func SafeDivide(numerator, denominator *float64) *float64 {
	if numerator == nil || denominator == nil {
		return nil
	}

	if finite(*numerator) == nil || finite(*denominator) == nil || *denominator == 0 {
		return nil
	}

	return finite(*numerator / *denominator)
}

// FirstNonNull returns the first value that is not nil, a nil *float64 or an
// empty string.
func FirstNonNull(values ...any) any {
	for _, v := range values {
		switch val := v.(type) {
		case nil:
			continue
		case *float64:
			if val == nil {
				continue
			}
		case string:
			if strings.TrimSpace(val) == "" {
				continue
			}
		}
		return v
	}

	return nil
}
