// Copyright 2025 The WarpIR Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package mathutil holds the small integer and sequence helpers shared
// by the analysis packages.
package mathutil

// Integer is the constraint for the helpers in this package.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// NextPowerOfTwo returns the smallest power of two that is >= n, or 1
// for n <= 0. Hardware reduction trees require power-of-two fan-in, so
// non-power-of-two participant counts are padded up to the next power
// of two.
func NextPowerOfTwo[T Integer](n T) T {
	if n <= 0 {
		return 1
	}
	n--
	for shift := uint(1); shift < 64; shift <<= 1 {
		n |= n >> shift
	}
	return n + 1
}

// Product returns the product of all elements, 1 for an empty slice.
func Product[T Integer](xs []T) T {
	p := T(1)
	for _, x := range xs {
		p *= x
	}
	return p
}

// CeilDiv returns m divided by n, rounded up.
func CeilDiv[T Integer](m, n T) T {
	return (m + n - 1) / n
}
