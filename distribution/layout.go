// Copyright 2026 The Prometheus Authors
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

package distribution

import (
	"fmt"
	"math"
)

// MaxBucketCount is the largest number of buckets a Distribution may have.
// Asking for more fails with ErrResourceExhausted.
const MaxBucketCount = 1 << 20

// NewLinear creates a Distribution with 'bucketCount' buckets of equal
// 'width'. Bucket i covers [i*width, (i+1)*width), except for the last one,
// which covers [(bucketCount-1)*width, +Inf).
//
// It fails with ErrInvalidArgument if 'bucketCount' is not positive or if
// 'width' is not a positive number.
func NewLinear(bucketCount int, width float64) (*Distribution, error) {
	if err := checkBucketCount(bucketCount); err != nil {
		return nil, err
	}
	if !(width > 0) {
		return nil, fmt.Errorf("%w: linear distribution needs a positive width, got %g", ErrInvalidArgument, width)
	}
	bounds := make([]float64, bucketCount-1)
	for i := range bounds {
		bounds[i] = float64(i+1) * width
	}
	return newDistribution(bounds)
}

// NewExponential creates a Distribution with 'bucketCount' buckets whose
// upper bounds grow geometrically. The first bucket covers [0, scale), bucket
// i covers [scale*growth^(i-1), scale*growth^i), and the last bucket covers
// [scale*growth^(bucketCount-2), +Inf).
//
// It fails with ErrInvalidArgument if 'bucketCount' is not positive, if
// 'scale' is not positive, or if 'growth' is not greater than 1.
func NewExponential(bucketCount int, scale, growth float64) (*Distribution, error) {
	if err := checkBucketCount(bucketCount); err != nil {
		return nil, err
	}
	if !(scale > 0) {
		return nil, fmt.Errorf("%w: exponential distribution needs a positive scale, got %g", ErrInvalidArgument, scale)
	}
	if !(growth > 1) {
		return nil, fmt.Errorf("%w: exponential distribution needs a growth factor greater than 1, got %g", ErrInvalidArgument, growth)
	}
	bounds := make([]float64, bucketCount-1)
	for i := range bounds {
		bounds[i] = scale * math.Pow(growth, float64(i))
	}
	return newDistribution(bounds)
}

// NewCustom creates a Distribution from explicit upper bounds. The result has
// len(bounds)+1 buckets: [0, bounds[0]), [bounds[0], bounds[1]), ... and
// finally [bounds[len(bounds)-1], +Inf). The bounds are copied.
//
// It fails with ErrInvalidArgument if 'bounds' is empty, is not strictly
// increasing, starts at a value not greater than 0, or contains +Inf (the
// unbounded last bucket is always added implicitly).
func NewCustom(bounds []float64) (*Distribution, error) {
	if len(bounds) == 0 {
		return nil, fmt.Errorf("%w: custom distribution needs at least one bound", ErrInvalidArgument)
	}
	if err := checkBucketCount(len(bounds) + 1); err != nil {
		return nil, err
	}
	return newDistribution(append(make([]float64, 0, len(bounds)), bounds...))
}

func checkBucketCount(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: distribution needs a positive bucket count, got %d", ErrInvalidArgument, n)
	}
	if n > MaxBucketCount {
		return fmt.Errorf("%w: %d buckets requested, at most %d allowed", ErrResourceExhausted, n, MaxBucketCount)
	}
	return nil
}

// newDistribution builds the buckets for the given finite upper bounds and
// takes ownership of the slice.
func newDistribution(upperBounds []float64) (*Distribution, error) {
	if err := validateBounds(upperBounds); err != nil {
		return nil, err
	}
	buckets := make([]Bucket, len(upperBounds)+1)
	lower := 0.0
	for i, upper := range upperBounds {
		buckets[i] = Bucket{MinBoundary: lower, MaxBoundary: upper}
		lower = upper
	}
	buckets[len(upperBounds)] = Bucket{MinBoundary: lower, MaxBoundary: math.Inf(+1)}
	return &Distribution{
		buckets:     buckets,
		upperBounds: upperBounds,
	}, nil
}

// validateBounds checks that the finite upper bounds are all finite, start
// above 0 and are in strictly increasing order. Generated layouts go through
// here as well, so a width or growth factor that overflows is caught.
func validateBounds(upperBounds []float64) error {
	prev := 0.0
	for i, b := range upperBounds {
		if math.IsInf(b, 0) || math.IsNaN(b) {
			return fmt.Errorf("%w: bucket bound %d is %g, bounds must be finite", ErrInvalidArgument, i, b)
		}
		if b <= prev {
			return fmt.Errorf("%w: bucket bounds must be in increasing order starting above 0: %g >= %g", ErrInvalidArgument, prev, b)
		}
		prev = b
	}
	return nil
}
