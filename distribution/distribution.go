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
	"bytes"
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	// ErrInvalidArgument is returned (wrapped) for every rejected argument:
	// bad layouts, out-of-range percentiles, non-positive observations and
	// operations on a nil or destroyed Distribution.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrResourceExhausted is returned (wrapped) when a layout asks for more
	// than MaxBucketCount buckets.
	ErrResourceExhausted = errors.New("resource exhausted")

	errAbsent = fmt.Errorf("%w: nil or destroyed distribution", ErrInvalidArgument)
)

// A Distribution counts observations in an immutable set of contiguous
// buckets covering [0, +Inf). It also tracks the number and the sum of all
// observations.
//
// A Distribution is not safe for concurrent use. See Synced for a guarded
// variant.
//
// To create Distribution instances, use NewLinear, NewExponential or
// NewCustom.
type Distribution struct {
	// buckets[i].MaxBoundary == buckets[i+1].MinBoundary, and only the last
	// bucket is unbounded above.
	buckets []Bucket
	// upperBounds are the finite MaxBoundary values of all but the last
	// bucket, kept separately for the search in Update.
	upperBounds []float64

	totalCount uint64
	sum        float64
}

func (d *Distribution) absent() bool {
	return d == nil || len(d.buckets) == 0
}

// Update adds a single observation. Only positive values are accepted; zero,
// negative values and NaN fail with ErrInvalidArgument and leave the
// Distribution unchanged.
func (d *Distribution) Update(v float64) error {
	if d.absent() {
		return errAbsent
	}
	if !(v > 0) {
		return fmt.Errorf("%w: observed value must be positive, got %g", ErrInvalidArgument, v)
	}
	d.buckets[d.findBucket(v)].Counter++
	d.totalCount++
	d.sum += v
	return nil
}

// findBucket returns the index of the bucket with MinBoundary <= v <
// MaxBoundary, i.e. the first bucket whose upper bound is greater than v. If
// there is none among the finite bounds, v belongs to the last bucket.
func (d *Distribution) findBucket(v float64) int {
	return sort.Search(len(d.upperBounds), func(i int) bool {
		return d.upperBounds[i] > v
	})
}

// Average returns the arithmetic mean of all observations. It returns NaN if
// there are no observations or if d is nil or destroyed.
func (d *Distribution) Average() float64 {
	if d.absent() || d.totalCount == 0 {
		return math.NaN()
	}
	return d.sum / float64(d.totalCount)
}

// Percentile returns an estimate of the p-th percentile (0 <= p <= 100) of
// the observations: the MaxBoundary of the first bucket at which the
// cumulative count reaches p/100 times the total count. The estimate is
// bucket-resolution only and may be +Inf if the percentile falls into the
// last bucket. For a Distribution without observations the upper bound of
// the first bucket is returned.
//
// If p is out of range, or d is nil or destroyed, Percentile returns NaN and
// an error wrapping ErrInvalidArgument.
func (d *Distribution) Percentile(p float64) (float64, error) {
	if d.absent() {
		return math.NaN(), errAbsent
	}
	if !(p >= 0 && p <= 100) {
		return math.NaN(), fmt.Errorf("%w: percentile must be within [0, 100], got %g", ErrInvalidArgument, p)
	}
	target := p / 100 * float64(d.totalCount)
	var cumulative uint64
	for _, b := range d.buckets {
		cumulative += b.Counter
		if float64(cumulative) >= target {
			return b.MaxBoundary, nil
		}
	}
	// Only reached if totalCount exceeds the sum of all counters.
	return d.buckets[len(d.buckets)-1].MaxBoundary, nil
}

// Clone returns a deep copy of d. The copy shares no state with d, so
// updates to either one are not visible in the other. Cloning a nil or
// destroyed Distribution fails with ErrInvalidArgument.
func (d *Distribution) Clone() (*Distribution, error) {
	if d.absent() {
		return nil, errAbsent
	}
	return &Distribution{
		buckets:     append(make([]Bucket, 0, len(d.buckets)), d.buckets...),
		upperBounds: d.upperBounds, // Never written after construction.
		totalCount:  d.totalCount,
		sum:         d.sum,
	}, nil
}

// Destroy releases the buckets. Afterwards d behaves like a nil
// Distribution. Destroy is a no-op on a nil Distribution.
func (d *Distribution) Destroy() {
	if d == nil {
		return
	}
	d.buckets = nil
	d.upperBounds = nil
	d.totalCount = 0
	d.sum = 0
}

// Buckets returns a copy of the buckets in ascending order, or nil if d is
// nil or destroyed.
func (d *Distribution) Buckets() []Bucket {
	if d.absent() {
		return nil
	}
	return append(make([]Bucket, 0, len(d.buckets)), d.buckets...)
}

// BucketCount returns the number of buckets, or -1 if d is nil or destroyed.
func (d *Distribution) BucketCount() int {
	if d.absent() {
		return -1
	}
	return len(d.buckets)
}

// TotalCount returns the number of accepted observations, or -1 if d is nil
// or destroyed.
func (d *Distribution) TotalCount() int64 {
	if d.absent() {
		return -1
	}
	return int64(d.totalCount)
}

// Sum returns the sum of all accepted observations, or NaN if d is nil or
// destroyed.
func (d *Distribution) Sum() float64 {
	if d.absent() {
		return math.NaN()
	}
	return d.sum
}

func (d *Distribution) String() string {
	if d.absent() {
		return "[Distribution (Absent)]"
	}
	buf := &bytes.Buffer{}
	fmt.Fprintf(buf, "[Distribution with %d observations, sum %f { ", d.totalCount, d.sum)
	for _, b := range d.buckets {
		fmt.Fprintf(buf, "%s, ", b)
	}
	buf.WriteString("}]")
	return buf.String()
}
