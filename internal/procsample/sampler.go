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

// Package procsample reads per-process measurements from procfs and feeds
// them into distributions.
package procsample

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/procfs"

	"github.com/prometheus/distribution/config"
	"github.com/prometheus/distribution/distribution"
	"github.com/prometheus/distribution/distvec"
)

// Measurement holds the values read for one process.
type Measurement struct {
	PID           int
	Comm          string
	State         string
	ResidentBytes float64
	VirtualBytes  float64
	CPUSeconds    float64
}

// Value returns the measurement for the given config source.
func (m Measurement) Value(source string) (float64, error) {
	switch source {
	case config.SourceResidentMemory:
		return m.ResidentBytes, nil
	case config.SourceVirtualMemory:
		return m.VirtualBytes, nil
	case config.SourceCPUTime:
		return m.CPUSeconds, nil
	}
	return 0, fmt.Errorf("unknown source %q", source)
}

// LabelValue returns the value of the given config label for the process.
func (m Measurement) LabelValue(label string) string {
	switch label {
	case config.LabelState:
		return m.State
	case config.LabelComm:
		return m.Comm
	}
	return ""
}

// A Target is a Vec fed with one source, partitioned by Labels. Labels must
// match the label names of Vec.
type Target struct {
	Source string
	Labels []string
	Vec    *distvec.Vec
}

// Sampler reads processes from a procfs mount.
type Sampler struct {
	fs     procfs.FS
	logger log.Logger
}

// New returns a Sampler reading from fs. A nil logger discards all output.
func New(fs procfs.FS, logger log.Logger) *Sampler {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Sampler{fs: fs, logger: logger}
}

// Sample reads all processes. Processes that exit while being read are
// skipped.
func (s *Sampler) Sample() ([]Measurement, error) {
	procs, err := s.fs.AllProcs()
	if err != nil {
		return nil, fmt.Errorf("listing processes: %w", err)
	}
	ms := make([]Measurement, 0, len(procs))
	for _, p := range procs {
		stat, err := p.Stat()
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				level.Debug(s.logger).Log("msg", "Process vanished", "pid", p.PID)
				continue
			}
			return nil, fmt.Errorf("reading stat of pid %d: %w", p.PID, err)
		}
		ms = append(ms, Measurement{
			PID:           p.PID,
			Comm:          stat.Comm,
			State:         stat.State,
			ResidentBytes: float64(stat.ResidentMemory()),
			VirtualBytes:  float64(stat.VirtualMemory()),
			CPUSeconds:    stat.CPUTime(),
		})
	}
	return ms, nil
}

// Feed adds every measurement to every target. Values a distribution does
// not accept, such as the zero memory of kernel threads, are skipped. Feed
// returns the number of skipped values.
func (s *Sampler) Feed(ms []Measurement, targets []Target) (int, error) {
	skipped := 0
	lvs := []string{}
	for _, t := range targets {
		for _, m := range ms {
			v, err := m.Value(t.Source)
			if err != nil {
				return skipped, err
			}
			lvs = lvs[:0]
			for _, l := range t.Labels {
				lvs = append(lvs, m.LabelValue(l))
			}
			err = t.Vec.Observe(v, lvs...)
			if errors.Is(err, distribution.ErrInvalidArgument) {
				skipped++
				level.Debug(s.logger).Log("msg", "Skipping value", "source", t.Source, "pid", m.PID, "comm", m.Comm, "value", v, "err", err)
				continue
			}
			if err != nil {
				return skipped, err
			}
		}
	}
	return skipped, nil
}
