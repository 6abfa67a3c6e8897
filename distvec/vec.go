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

// Package distvec bundles distributions that share a bucket layout but differ
// in their label values, e.g. one latency distribution per handler.
package distvec

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
	"github.com/prometheus/common/model"

	"github.com/prometheus/distribution/distribution"
)

// ErrInconsistentCardinality is returned when the number of label values
// does not match the number of label names of a Vec.
var ErrInconsistentCardinality = errors.New("inconsistent label cardinality")

// NewFunc creates an empty Distribution. It is called once per distinct set
// of label values, so all children of a Vec get the same layout.
type NewFunc func() (*distribution.Distribution, error)

// A Sample is a point-in-time copy of one child of a Vec.
type Sample struct {
	LabelValues  []string
	Distribution *distribution.Distribution
}

// Vec is a set of distributions keyed by label values. It is safe for
// concurrent use; every child is guarded by its own lock, so updates to
// different children do not contend.
type Vec struct {
	mtx        sync.RWMutex // Protects children.
	children   map[uint64][]child
	labelNames []string
	newDist    NewFunc
}

type child struct {
	labelValues []string
	dist        *distribution.Synced
}

// New creates a Vec with the given label names. newDist is invoked once right
// away so that an invalid layout is reported here rather than on the first
// observation.
func New(newDist NewFunc, labelNames ...string) (*Vec, error) {
	if newDist == nil {
		return nil, fmt.Errorf("%w: no distribution constructor", distribution.ErrInvalidArgument)
	}
	seen := make(map[string]struct{}, len(labelNames))
	for _, n := range labelNames {
		if !model.LabelName(n).IsValid() {
			return nil, fmt.Errorf("%w: %q is not a valid label name", distribution.ErrInvalidArgument, n)
		}
		if _, ok := seen[n]; ok {
			return nil, fmt.Errorf("%w: duplicate label name %q", distribution.ErrInvalidArgument, n)
		}
		seen[n] = struct{}{}
	}
	if _, err := newDist(); err != nil {
		return nil, err
	}
	return &Vec{
		children:   map[uint64][]child{},
		labelNames: append([]string(nil), labelNames...),
		newDist:    newDist,
	}, nil
}

// LabelNames returns the label names of the Vec in order.
func (v *Vec) LabelNames() []string {
	return append([]string(nil), v.labelNames...)
}

// GetWithLabelValues returns the distribution for the given label values,
// creating it if it does not exist yet. The order of the values must match
// the label names passed to New.
func (v *Vec) GetWithLabelValues(lvs ...string) (*distribution.Synced, error) {
	if err := v.validateLabelValues(lvs); err != nil {
		return nil, err
	}
	h := hashLabelValues(lvs)

	v.mtx.RLock()
	d, ok := v.lookup(h, lvs)
	v.mtx.RUnlock()
	if ok {
		return d, nil
	}

	fresh, err := v.newDist()
	if err != nil {
		return nil, err
	}

	v.mtx.Lock()
	defer v.mtx.Unlock()

	// Someone else may have created it in the meantime.
	if d, ok := v.lookup(h, lvs); ok {
		return d, nil
	}
	d = distribution.NewSynced(fresh)
	v.children[h] = append(v.children[h], child{
		labelValues: append(make([]string, 0, len(lvs)), lvs...),
		dist:        d,
	})
	return d, nil
}

// WithLabelValues works as GetWithLabelValues, but panics where
// GetWithLabelValues would have returned an error. Not returning an error
// allows shortcuts like
//
//	latencies.WithLabelValues("GET", "/api").Update(0.042)
func (v *Vec) WithLabelValues(lvs ...string) *distribution.Synced {
	d, err := v.GetWithLabelValues(lvs...)
	if err != nil {
		panic(err)
	}
	return d
}

// Observe adds v to the distribution for the given label values.
func (v *Vec) Observe(value float64, lvs ...string) error {
	d, err := v.GetWithLabelValues(lvs...)
	if err != nil {
		return err
	}
	return d.Update(value)
}

// DeleteLabelValues removes the distribution for the given label values. It
// returns true if a distribution was deleted.
func (v *Vec) DeleteLabelValues(lvs ...string) bool {
	if len(lvs) != len(v.labelNames) {
		return false
	}
	h := hashLabelValues(lvs)

	v.mtx.Lock()
	defer v.mtx.Unlock()

	children := v.children[h]
	for i, c := range children {
		if equalLabelValues(c.labelValues, lvs) {
			if len(children) == 1 {
				delete(v.children, h)
			} else {
				v.children[h] = append(children[:i], children[i+1:]...)
			}
			return true
		}
	}
	return false
}

// Reset deletes all distributions.
func (v *Vec) Reset() {
	v.mtx.Lock()
	defer v.mtx.Unlock()

	v.children = map[uint64][]child{}
}

// Snapshot returns an independent copy of every distribution in the Vec, in
// hash order. Each copy is consistent in itself; copies of different children
// are taken one after another.
func (v *Vec) Snapshot() ([]Sample, error) {
	v.mtx.RLock()
	hashes := make([]uint64, 0, len(v.children))
	for h := range v.children {
		hashes = append(hashes, h)
	}
	sort.Slice(hashes, func(i, j int) bool { return hashes[i] < hashes[j] })

	children := make([]child, 0, len(hashes))
	for _, h := range hashes {
		children = append(children, v.children[h]...)
	}
	v.mtx.RUnlock()

	samples := make([]Sample, 0, len(children))
	for _, c := range children {
		d, err := c.dist.Snapshot()
		if err != nil {
			return nil, err
		}
		samples = append(samples, Sample{
			LabelValues:  c.labelValues,
			Distribution: d,
		})
	}
	return samples, nil
}

// lookup must be called with at least the read lock held.
func (v *Vec) lookup(h uint64, lvs []string) (*distribution.Synced, bool) {
	for _, c := range v.children[h] {
		if equalLabelValues(c.labelValues, lvs) {
			return c.dist, true
		}
	}
	return nil, false
}

func (v *Vec) validateLabelValues(lvs []string) error {
	if len(lvs) != len(v.labelNames) {
		return fmt.Errorf(
			"%w: %d label values for %d label names %q",
			ErrInconsistentCardinality, len(lvs), len(v.labelNames), v.labelNames,
		)
	}
	for _, val := range lvs {
		if !utf8.ValidString(val) {
			return fmt.Errorf("%w: label value %q is not valid UTF-8", distribution.ErrInvalidArgument, val)
		}
	}
	return nil
}

func hashLabelValues(lvs []string) uint64 {
	h := xxhash.New()
	for _, val := range lvs {
		h.WriteString(val)
		h.Write([]byte{model.SeparatorByte})
	}
	return h.Sum64()
}

func equalLabelValues(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
