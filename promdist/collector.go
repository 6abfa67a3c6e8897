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

// Package promdist exposes distributions to Prometheus.
package promdist

import (
	"fmt"
	"math"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/prometheus/distribution/distribution"
	"github.com/prometheus/distribution/distvec"
)

// Opts bundles the options for creating a Collector. Name is mandatory.
type Opts struct {
	// Namespace, Subsystem, and Name are joined with "_" to the
	// fully-qualified name of the histogram.
	Namespace string
	Subsystem string
	Name      string

	Help        string
	ConstLabels prometheus.Labels

	// Percentiles, each within [0, 100], are additionally exported as the
	// quantiles of a summary named <fully-qualified name>_percentiles. They
	// carry the bucket resolution of the distribution. No summary is
	// exported if Percentiles is empty.
	Percentiles []float64
}

// Collector implements prometheus.Collector for all distributions of a
// distvec.Vec. Each distribution is exported as a histogram whose buckets
// are the finite upper bounds of the distribution.
//
// Note that Prometheus buckets include their upper bound while the buckets
// of a Distribution exclude it. An observation exactly on a boundary is thus
// counted in the next higher Prometheus bucket.
type Collector struct {
	vec            *distvec.Vec
	histDesc       *prometheus.Desc
	percentileDesc *prometheus.Desc
	percentiles    []float64
}

// NewChecked creates a Collector for vec. It fails if Name is empty or a
// percentile is out of range.
func NewChecked(vec *distvec.Vec, opts Opts) (*Collector, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("%w: collector needs a name", distribution.ErrInvalidArgument)
	}
	for _, p := range opts.Percentiles {
		if !(p >= 0 && p <= 100) {
			return nil, fmt.Errorf("%w: percentile must be within [0, 100], got %g", distribution.ErrInvalidArgument, p)
		}
	}
	fqName := prometheus.BuildFQName(opts.Namespace, opts.Subsystem, opts.Name)
	c := &Collector{
		vec:         vec,
		histDesc:    prometheus.NewDesc(fqName, opts.Help, vec.LabelNames(), opts.ConstLabels),
		percentiles: append([]float64(nil), opts.Percentiles...),
	}
	if len(c.percentiles) > 0 {
		c.percentileDesc = prometheus.NewDesc(
			fqName+"_percentiles",
			opts.Help+" (bucketed percentiles)",
			vec.LabelNames(),
			opts.ConstLabels,
		)
	}
	return c, nil
}

// New works like NewChecked but panics on invalid options.
func New(vec *distvec.Vec, opts Opts) *Collector {
	c, err := NewChecked(vec, opts)
	if err != nil {
		panic(err)
	}
	return c
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.histDesc
	if c.percentileDesc != nil {
		ch <- c.percentileDesc
	}
}

// Collect implements prometheus.Collector. It works on a snapshot of every
// distribution, so it does not block updates for longer than a copy takes.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	samples, err := c.vec.Snapshot()
	if err != nil {
		ch <- prometheus.NewInvalidMetric(c.histDesc, err)
		return
	}
	for _, s := range samples {
		c.collectSample(ch, s)
	}
}

func (c *Collector) collectSample(ch chan<- prometheus.Metric, s distvec.Sample) {
	d := s.Distribution
	count := uint64(d.TotalCount())

	buckets := map[float64]uint64{}
	var cumulative uint64
	for _, b := range d.Buckets() {
		cumulative += b.Counter
		if !math.IsInf(b.MaxBoundary, +1) {
			buckets[b.MaxBoundary] = cumulative
		}
	}
	m, err := prometheus.NewConstHistogram(c.histDesc, count, d.Sum(), buckets, s.LabelValues...)
	if err != nil {
		m = prometheus.NewInvalidMetric(c.histDesc, err)
	}
	ch <- m

	if c.percentileDesc == nil {
		return
	}
	quantiles := make(map[float64]float64, len(c.percentiles))
	for _, p := range c.percentiles {
		v, err := d.Percentile(p)
		if err != nil {
			ch <- prometheus.NewInvalidMetric(c.percentileDesc, err)
			return
		}
		quantiles[p/100] = v
	}
	m, err = prometheus.NewConstSummary(c.percentileDesc, count, d.Sum(), quantiles, s.LabelValues...)
	if err != nil {
		m = prometheus.NewInvalidMetric(c.percentileDesc, err)
	}
	ch <- m
}
