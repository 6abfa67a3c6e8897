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
	"errors"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/beorn7/perks/quantile"
	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"
)

var (
	gaugesA = []float64{
		20.25, 19.3, 5.5, 89, 75.5, 60.8, 40.2, 38, 31, 130.8,
		111, 102.4, 95.5, 60, 98, 45, 53.3, 9, 12, 140.5,
	}
	gaugesB = []float64{
		2, 4.3, 78, 19, 55.5, 20.3, 32.9, 39, 200.8, 130,
		101, 52.4, 95.5, 40, 108.9, 36, 53.3, 98, 12, 300,
	}
	gaugesC = []float64{
		2, 4.3, 78, 19, 55.5, 20.3, 32.9, 39, 200.8, 130,
		101, 52.4, 95.5, 40, 108.9, 36, 53.3, 98, 12, 240.7,
	}
)

func approxEqual(a, b float64) bool {
	if a == b {
		return true
	}
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Abs(b))
}

func mustLinear(t testing.TB, bucketCount int, width float64) *Distribution {
	t.Helper()

	d, err := NewLinear(bucketCount, width)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestUpdate(t *testing.T) {
	scenarios := []struct {
		bucketCount int
		width       float64
		value       float64
		wantIndex   int
		wantSum     float64
		wantErr     bool
	}{
		{bucketCount: 20, width: 5, value: 5.5, wantIndex: 1, wantSum: 27.5},
		// Lands in the unbounded bucket.
		{bucketCount: 20, width: 5, value: 300, wantIndex: 19, wantSum: 1500},
		{bucketCount: 10, width: 5, value: 11.5, wantIndex: 2, wantSum: 57.5},
		{bucketCount: 10, width: 5, value: 5, wantIndex: 1, wantSum: 25},
		{bucketCount: 10, width: 5, value: 4.999, wantIndex: 0, wantSum: 24.995},
		{bucketCount: 10, width: 5, value: 45, wantIndex: 9, wantSum: 225},
		{bucketCount: 10, width: 5, value: math.Inf(+1), wantIndex: 9, wantSum: math.Inf(+1)},
		{bucketCount: 1, width: 5, value: 3, wantIndex: 0, wantSum: 15},
		{bucketCount: 240, width: 20, value: -1, wantErr: true},
		{bucketCount: 240, width: 20, value: 0, wantErr: true},
		{bucketCount: 240, width: 20, value: math.NaN(), wantErr: true},
	}

	for i, s := range scenarios {
		d := mustLinear(t, s.bucketCount, s.width)

		if s.wantErr {
			if err := d.Update(s.value); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("%d. expected ErrInvalidArgument, got %v", i, err)
			}
			if got := d.TotalCount(); got != 0 {
				t.Errorf("%d. rejected update changed total count to %d", i, got)
			}
			if got := d.Sum(); got != 0 {
				t.Errorf("%d. rejected update changed sum to %g", i, got)
			}
			continue
		}

		for j := 0; j < 5; j++ {
			if err := d.Update(s.value); err != nil {
				t.Fatalf("%d. unexpected error: %v", i, err)
			}
		}
		buckets := d.Buckets()
		if got := buckets[s.wantIndex].Counter; got != 5 {
			t.Errorf("%d. expected 5 observations in bucket %d, got %d: %s", i, s.wantIndex, got, spew.Sdump(buckets))
		}
		if got := d.BucketCount(); got != s.bucketCount {
			t.Errorf("%d. expected %d buckets, got %d", i, s.bucketCount, got)
		}
		if got := d.TotalCount(); got != 5 {
			t.Errorf("%d. expected total count 5, got %d", i, got)
		}
		if got := d.Sum(); !approxEqual(got, s.wantSum) {
			t.Errorf("%d. expected sum %g, got %g", i, s.wantSum, got)
		}
	}
}

func TestUpdateKeepsTotalCountConsistent(t *testing.T) {
	d, err := NewExponential(20, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	r := rand.New(rand.NewSource(42))

	var (
		accepted int64
		sum      float64
	)
	for i := 0; i < 10000; i++ {
		v := r.NormFloat64()*1000 + 500
		if err := d.Update(v); err != nil {
			if v > 0 {
				t.Fatalf("positive value %g rejected: %v", v, err)
			}
			continue
		}
		accepted++
		sum += v

		if b := d.buckets[d.findBucket(v)]; !b.Contains(v) {
			t.Fatalf("value %g sorted into bucket %s", v, b)
		}
	}

	var counted uint64
	for _, b := range d.Buckets() {
		counted += b.Counter
	}
	if int64(counted) != accepted || d.TotalCount() != accepted {
		t.Errorf("expected %d observations, bucket counters add up to %d, total count is %d", accepted, counted, d.TotalCount())
	}
	if got := d.Sum(); got != sum {
		t.Errorf("expected sum %g, got %g", sum, got)
	}
}

func TestAverage(t *testing.T) {
	scenarios := []struct {
		bucketCount int
		width       float64
		gauges      []float64
		want        float64
	}{
		{bucketCount: 20, width: 15, gauges: gaugesA, want: 61.8525},
		{bucketCount: 10, width: 25, want: math.NaN()},
		{bucketCount: 25, width: 10, gauges: gaugesB, want: 73.945},
	}

	for i, s := range scenarios {
		d := mustLinear(t, s.bucketCount, s.width)
		for _, g := range s.gauges {
			if err := d.Update(g); err != nil {
				t.Fatal(err)
			}
		}
		if got := d.Average(); !approxEqual(got, s.want) {
			t.Errorf("%d. expected average %g, got %g", i, s.want, got)
		}
	}

	var absent *Distribution
	if got := absent.Average(); !math.IsNaN(got) {
		t.Errorf("expected NaN for nil distribution, got %g", got)
	}
}

func TestPercentile(t *testing.T) {
	scenarios := []struct {
		bucketCount int
		width       float64
		counters    []uint64
		totalCount  uint64
		percent     float64
		want        float64
		wantErr     bool
	}{
		{
			bucketCount: 20,
			width:       15,
			counters:    []uint64{5, 10, 4, 3, 2, 2, 3, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
			totalCount:  30,
			percent:     40,
			want:        30,
		},
		{
			bucketCount: 25,
			width:       30,
			counters:    []uint64{19, 20, 5, 14, 8, 7, 2, 2, 1, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
			totalCount:  70,
			percent:     85,
			want:        150,
		},
		{
			bucketCount: 15,
			width:       20,
			counters:    []uint64{0, 0, 2, 3, 5, 8, 10, 12, 14, 1, 0, 0, 0, 0, 0},
			totalCount:  55,
			percent:     25,
			want:        120,
		},
		{
			bucketCount: 15,
			width:       20,
			counters:    []uint64{0, 0, 2, 3, 5, 8, 10, 12, 14, 1, 0, 0, 0, 0, 0},
			totalCount:  55,
			percent:     0,
			want:        20,
		},
		{
			bucketCount: 15,
			width:       20,
			counters:    []uint64{0, 0, 2, 3, 5, 8, 10, 12, 14, 1, 0, 0, 0, 0, 0},
			totalCount:  55,
			percent:     100,
			want:        200,
		},
		{
			bucketCount: 5,
			width:       20,
			counters:    []uint64{1, 0, 0, 0, 4},
			totalCount:  5,
			percent:     100,
			want:        math.Inf(+1),
		},
		{
			bucketCount: 15,
			width:       20,
			counters:    make([]uint64, 15),
			percent:     50,
			want:        20,
		},
		{
			bucketCount: 15,
			width:       20,
			counters:    make([]uint64, 15),
			percent:     100.5,
			wantErr:     true,
		},
		{
			bucketCount: 15,
			width:       20,
			counters:    make([]uint64, 15),
			percent:     -0.5,
			wantErr:     true,
		},
		{
			bucketCount: 15,
			width:       20,
			counters:    make([]uint64, 15),
			percent:     math.NaN(),
			wantErr:     true,
		},
		// Total count above the sum of all counters.
		{
			bucketCount: 5,
			width:       20,
			counters:    []uint64{3, 1, 0, 0, 0},
			totalCount:  10,
			percent:     30,
			want:        20,
		},
		{
			bucketCount: 5,
			width:       20,
			counters:    []uint64{3, 1, 0, 0, 0},
			totalCount:  10,
			percent:     100,
			want:        math.Inf(+1),
		},
	}

	for i, s := range scenarios {
		d := mustLinear(t, s.bucketCount, s.width)
		for j, c := range s.counters {
			d.buckets[j].Counter = c
		}
		d.totalCount = s.totalCount

		got, err := d.Percentile(s.percent)
		if s.wantErr {
			if !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("%d. expected ErrInvalidArgument, got %v", i, err)
			}
			if !math.IsNaN(got) {
				t.Errorf("%d. expected NaN on error, got %g", i, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%d. unexpected error: %v", i, err)
		}
		if got != s.want {
			t.Errorf("%d. expected percentile %g to be %g, got %g", i, s.percent, s.want, got)
		}
	}
}

func TestPercentileWithinOneBucket(t *testing.T) {
	const width = 10

	d := mustLinear(t, 100, width)
	stream := quantile.NewTargeted(map[float64]float64{
		0.5:  0.005,
		0.9:  0.001,
		0.99: 0.0001,
	})
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 10000; i++ {
		v := 1 + r.Float64()*900
		stream.Insert(v)
		if err := d.Update(v); err != nil {
			t.Fatal(err)
		}
	}

	for _, q := range []float64{0.5, 0.9, 0.99} {
		got, err := d.Percentile(q * 100)
		if err != nil {
			t.Fatal(err)
		}
		// The bucketed estimate is the upper bound of the bucket holding
		// the quantile, so the streamed estimate must lie just below it.
		want := stream.Query(q)
		if want > got+width || want < got-2*width {
			t.Errorf("quantile %g: bucketed estimate %g too far from streamed estimate %g", q, got, want)
		}
	}
}

func TestClone(t *testing.T) {
	d := mustLinear(t, 50, 45)
	for _, g := range gaugesA {
		if err := d.Update(g); err != nil {
			t.Fatal(err)
		}
	}

	c, err := d.Clone()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(d.Buckets(), c.Buckets()); diff != "" {
		t.Errorf("clone has different buckets (-orig +clone):\n%s", diff)
	}
	if d.BucketCount() != c.BucketCount() || d.TotalCount() != c.TotalCount() || d.Sum() != c.Sum() {
		t.Errorf("clone differs from original:\n%s\n%s", d, c)
	}

	before := c.Buckets()
	if err := d.Update(1000); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(before, c.Buckets()); diff != "" {
		t.Errorf("updating the original changed the clone (-before +after):\n%s", diff)
	}
	if c.TotalCount() != int64(len(gaugesA)) {
		t.Errorf("updating the original changed the clone's total count to %d", c.TotalCount())
	}

	before = d.Buckets()
	if err := c.Update(3); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(before, d.Buckets()); diff != "" {
		t.Errorf("updating the clone changed the original (-before +after):\n%s", diff)
	}

	var absent *Distribution
	if c, err := absent.Clone(); !errors.Is(err, ErrInvalidArgument) || c != nil {
		t.Errorf("expected ErrInvalidArgument and no clone, got %v and %s", err, c)
	}
}

func TestBucketsReturnsCopy(t *testing.T) {
	d := mustLinear(t, 35, 20)
	buckets := d.Buckets()
	buckets[0].Counter = 42
	buckets[0].MaxBoundary = 1

	if got := d.Buckets()[0]; got.Counter != 0 || got.MaxBoundary != 20 {
		t.Errorf("modifying returned buckets changed the distribution: %s", got)
	}
}

func TestAccessors(t *testing.T) {
	scenarios := []struct {
		bucketCount int
		width       float64
		gauges      []float64
		wantSum     float64
	}{
		{bucketCount: 50, width: 45, gauges: gaugesA, wantSum: 1237.05},
		{bucketCount: 35, width: 20, gauges: gaugesC, wantSum: 1419.6},
	}

	for i, s := range scenarios {
		d := mustLinear(t, s.bucketCount, s.width)
		for _, g := range s.gauges {
			if err := d.Update(g); err != nil {
				t.Fatal(err)
			}
		}
		if got := d.BucketCount(); got != s.bucketCount {
			t.Errorf("%d. expected %d buckets, got %d", i, s.bucketCount, got)
		}
		if got := len(d.Buckets()); got != s.bucketCount {
			t.Errorf("%d. expected %d buckets, got %d", i, s.bucketCount, got)
		}
		if got := d.TotalCount(); got != int64(len(s.gauges)) {
			t.Errorf("%d. expected total count %d, got %d", i, len(s.gauges), got)
		}
		if got := d.Sum(); !approxEqual(got, s.wantSum) {
			t.Errorf("%d. expected sum %g, got %g", i, s.wantSum, got)
		}
	}
}

func TestAbsentDistribution(t *testing.T) {
	destroyed := mustLinear(t, 10, 5)
	if err := destroyed.Update(3); err != nil {
		t.Fatal(err)
	}
	destroyed.Destroy()

	for name, d := range map[string]*Distribution{
		"nil":       nil,
		"destroyed": destroyed,
	} {
		if got := d.Buckets(); got != nil {
			t.Errorf("%s: expected no buckets, got %s", name, spew.Sdump(got))
		}
		if got := d.BucketCount(); got != -1 {
			t.Errorf("%s: expected bucket count -1, got %d", name, got)
		}
		if got := d.TotalCount(); got != -1 {
			t.Errorf("%s: expected total count -1, got %d", name, got)
		}
		if got := d.Sum(); !math.IsNaN(got) {
			t.Errorf("%s: expected NaN sum, got %g", name, got)
		}
		if got := d.Average(); !math.IsNaN(got) {
			t.Errorf("%s: expected NaN average, got %g", name, got)
		}
		if err := d.Update(1); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("%s: expected ErrInvalidArgument from Update, got %v", name, err)
		}
		if got, err := d.Percentile(50); !errors.Is(err, ErrInvalidArgument) || !math.IsNaN(got) {
			t.Errorf("%s: expected NaN and ErrInvalidArgument from Percentile, got %g and %v", name, got, err)
		}
		if _, err := d.Clone(); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("%s: expected ErrInvalidArgument from Clone, got %v", name, err)
		}
		if got := d.String(); got != "[Distribution (Absent)]" {
			t.Errorf("%s: unexpected string %q", name, got)
		}
		d.Destroy() // Must not panic.
	}
}

func TestString(t *testing.T) {
	d, err := NewCustom([]float64{5, 10})
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Update(7); err != nil {
		t.Fatal(err)
	}

	want := "[Distribution with 1 observations, sum 7.000000 { [0.000000, 5.000000) = 0, [5.000000, 10.000000) = 1, [10.000000, inf) = 0, }]"
	if got := d.String(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if !strings.Contains(d.Buckets()[2].String(), "inf") {
		t.Errorf("last bucket does not render as unbounded: %s", d.Buckets()[2])
	}
}
