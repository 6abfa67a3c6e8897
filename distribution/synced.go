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

import "sync"

// Synced guards a Distribution with a read-write mutex so that it can be
// updated and read from multiple goroutines. Reads that need more than one
// value from the same state should go through Snapshot.
type Synced struct {
	mtx sync.RWMutex
	d   *Distribution
}

// NewSynced returns a Synced taking ownership of d. The caller must not use d
// directly afterwards.
func NewSynced(d *Distribution) *Synced {
	return &Synced{d: d}
}

// Update works like Distribution.Update under the write lock.
func (s *Synced) Update(v float64) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	return s.d.Update(v)
}

// Average works like Distribution.Average under the read lock.
func (s *Synced) Average() float64 {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return s.d.Average()
}

// Percentile works like Distribution.Percentile under the read lock.
func (s *Synced) Percentile(p float64) (float64, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return s.d.Percentile(p)
}

// Snapshot returns a consistent, independent copy of the guarded
// Distribution.
func (s *Synced) Snapshot() (*Distribution, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return s.d.Clone()
}
