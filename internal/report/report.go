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

// Package report renders snapshots of distributions as a JSON summary.
package report

import (
	"sort"
	"strconv"

	jsoniter "github.com/json-iterator/go"

	"github.com/prometheus/distribution/distvec"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Report summarizes all distributions of one name. Numbers are rendered as
// strings so that NaN and +Inf survive.
type Report struct {
	Name          string   `json:"name"`
	LabelNames    []string `json:"label_names,omitempty"`
	Distributions []Entry  `json:"distributions"`
}

// Entry summarizes one distribution.
type Entry struct {
	Labels      map[string]string `json:"labels,omitempty"`
	Count       int64             `json:"count"`
	Sum         string            `json:"sum"`
	Average     string            `json:"average"`
	Percentiles map[string]string `json:"percentiles,omitempty"`
	Buckets     []Bucket          `json:"buckets"`
}

// Bucket is one range of a distribution.
type Bucket struct {
	Min   string `json:"min"`
	Max   string `json:"max"`
	Count uint64 `json:"count"`
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// Build creates a Report from a distvec snapshot. Entries are sorted by their
// label values.
func Build(name string, labelNames []string, samples []distvec.Sample, percentiles []float64) Report {
	r := Report{
		Name:          name,
		LabelNames:    labelNames,
		Distributions: make([]Entry, 0, len(samples)),
	}
	sorted := append([]distvec.Sample(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i].LabelValues, sorted[j].LabelValues
		for k := 0; k < len(a) && k < len(b); k++ {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return len(a) < len(b)
	})

	for _, s := range sorted {
		d := s.Distribution
		e := Entry{
			Count:   d.TotalCount(),
			Sum:     formatFloat(d.Sum()),
			Average: formatFloat(d.Average()),
		}
		if len(labelNames) > 0 {
			e.Labels = make(map[string]string, len(labelNames))
			for i, n := range labelNames {
				if i < len(s.LabelValues) {
					e.Labels[n] = s.LabelValues[i]
				}
			}
		}
		if len(percentiles) > 0 {
			e.Percentiles = make(map[string]string, len(percentiles))
			for _, p := range percentiles {
				v, err := d.Percentile(p)
				if err != nil {
					continue
				}
				e.Percentiles[strconv.FormatFloat(p, 'g', -1, 64)] = formatFloat(v)
			}
		}
		for _, b := range d.Buckets() {
			e.Buckets = append(e.Buckets, Bucket{
				Min:   formatFloat(b.MinBoundary),
				Max:   formatFloat(b.MaxBoundary),
				Count: b.Counter,
			})
		}
		r.Distributions = append(r.Distributions, e)
	}
	return r
}

// JSON renders the report.
func (r Report) JSON() ([]byte, error) {
	return json.Marshal(r)
}
