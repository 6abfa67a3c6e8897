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

// A Bucket counts the observations that fell into the half-open range
// [MinBoundary, MaxBoundary). MaxBoundary is +Inf for the last bucket of a
// Distribution and for no other.
type Bucket struct {
	Counter     uint64
	MinBoundary float64
	MaxBoundary float64
}

// Contains reports whether v falls into the bucket's range.
func (b Bucket) Contains(v float64) bool {
	return v >= b.MinBoundary && v < b.MaxBoundary
}

func (b Bucket) String() string {
	if math.IsInf(b.MaxBoundary, +1) {
		return fmt.Sprintf("[%f, inf) = %d", b.MinBoundary, b.Counter)
	}
	return fmt.Sprintf("[%f, %f) = %d", b.MinBoundary, b.MaxBoundary, b.Counter)
}
