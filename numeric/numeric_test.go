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

package numeric_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/pvgrowth/numeric"
)

var _ = Describe("Numeric", func() {
	DescribeTable("ToNumber",
		func(in any, expected *float64) {
			if expected == nil {
				Expect(numeric.ToNumber(in)).To(BeNil())
			} else {
				Expect(numeric.ToNumber(in)).To(HaveValue(BeNumerically("==", *expected)))
			}
		},
		Entry("nil", nil, nil),
		Entry("empty string", "", nil),
		Entry("blank string", "   ", nil),
		Entry("garbage", "n/a", nil),
		Entry("bool", true, nil),
		Entry("NaN", math.NaN(), nil),
		Entry("+Inf", math.Inf(1), nil),
		Entry("nil pointer", (*float64)(nil), nil),
		Entry("float", 1.5, numeric.Ptr(1.5)),
		Entry("int", 42, numeric.Ptr(42)),
		Entry("numeric string", " -3.25 ", numeric.Ptr(-3.25)),
		Entry("pointer", numeric.Ptr(7), numeric.Ptr(7)),
	)

	DescribeTable("Round",
		func(in float64, decimals int, expected float64) {
			Expect(numeric.Round(&in, decimals)).To(HaveValue(Equal(expected)))
		},
		Entry("half away from zero", 1.005, 2, 1.01),
		Entry("negative half", -2.5, 0, -3.0),
		Entry("four decimals", 2.129134644531898, 4, 2.1291),
		Entry("already rounded", 0.125, 3, 0.125),
	)

	It("propagates nil through Round", func() {
		Expect(numeric.Round(nil, 2)).To(BeNil())
		nan := math.NaN()
		Expect(numeric.Round(&nan, 2)).To(BeNil())
	})

	DescribeTable("FloorToPositive",
		func(in *float64, expected *float64) {
			if expected == nil {
				Expect(numeric.FloorToPositive(in)).To(BeNil())
			} else {
				Expect(numeric.FloorToPositive(in)).To(HaveValue(Equal(*expected)))
			}
		},
		Entry("nil", nil, nil),
		Entry("negative", numeric.Ptr(-2), numeric.Ptr(numeric.FloorValue)),
		Entry("zero", numeric.Ptr(0), numeric.Ptr(numeric.FloorValue)),
		Entry("tiny positive", numeric.Ptr(0.001), numeric.Ptr(0.001)),
		Entry("positive", numeric.Ptr(3), numeric.Ptr(3)),
		Entry("infinite", numeric.Ptr(math.Inf(-1)), nil),
	)

	It("is idempotent when flooring", func() {
		for _, x := range []float64{-1e9, -2, -0.01, 0, 0.005, 0.01, 0.5, 1, 3, 1e12} {
			once := numeric.FloorToPositive(numeric.Ptr(x))
			Expect(numeric.FloorToPositive(once)).To(Equal(once))
		}
	})

	It("returns a copy of positive values", func() {
		v := numeric.Ptr(5)
		floored := numeric.FloorToPositive(v)
		*v = 6
		Expect(*floored).To(Equal(5.0))
	})

	DescribeTable("SafeDivide",
		func(n, d *float64, expected *float64) {
			if expected == nil {
				Expect(numeric.SafeDivide(n, d)).To(BeNil())
			} else {
				Expect(numeric.SafeDivide(n, d)).To(HaveValue(Equal(*expected)))
			}
		},
		Entry("nil numerator", nil, numeric.Ptr(2), nil),
		Entry("nil denominator", numeric.Ptr(2), nil, nil),
		Entry("zero denominator", numeric.Ptr(2), numeric.Ptr(0), nil),
		Entry("NaN operand", numeric.Ptr(math.NaN()), numeric.Ptr(2), nil),
		Entry("regular", numeric.Ptr(10), numeric.Ptr(4), numeric.Ptr(2.5)),
		Entry("zero numerator", numeric.Ptr(0), numeric.Ptr(4), numeric.Ptr(0)),
	)

	It("reports raw non-positive values", func() {
		Expect(numeric.IsNonPositive(nil)).To(BeFalse())
		Expect(numeric.IsNonPositive(numeric.Ptr(0))).To(BeTrue())
		Expect(numeric.IsNonPositive(numeric.Ptr(-0.5))).To(BeTrue())
		Expect(numeric.IsNonPositive(numeric.Ptr(numeric.FloorValue))).To(BeFalse())
	})

	It("returns the first usable value", func() {
		Expect(numeric.FirstNonNull(nil, "", "  ", (*float64)(nil), 4.0, 5.0)).To(Equal(4.0))
		Expect(numeric.FirstNonNull("x", 1.0)).To(Equal("x"))
		Expect(numeric.FirstNonNull(0.0, 1.0)).To(Equal(0.0))
		Expect(numeric.FirstNonNull(nil, "")).To(BeNil())
		Expect(numeric.FirstNonNull()).To(BeNil())
	})
})
