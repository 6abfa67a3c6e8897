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

// Package distribution tracks the distribution of a stream of positive
// measurements (latencies, sizes, ...) in a fixed set of buckets without
// keeping the raw samples.
//
// A Distribution is created with one of three layouts:
//
//   - NewLinear creates buckets of equal width.
//   - NewExponential creates buckets whose upper bounds grow geometrically.
//   - NewCustom uses explicitly given upper bounds.
//
// In every layout the first bucket starts at 0 and the last bucket is
// unbounded above. Each bucket covers the half-open range [min, max), so a
// value equal to a boundary is counted in the upper of the two adjacent
// buckets.
//
// Besides the per-bucket counters, a Distribution keeps the number and the
// sum of all observations, from which Average is derived. Percentile returns
// the upper bound of the bucket in which the requested percentile falls; the
// result is only as precise as the bucket layout.
//
// A Distribution does no locking. Either serialize all access to it, take a
// Clone before reading concurrently with updates, or use Synced, which guards
// a Distribution with a read-write mutex.
package distribution
