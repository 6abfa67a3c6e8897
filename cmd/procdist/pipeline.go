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

package main

import (
	"io"
	"time"

	"github.com/efficientgo/core/errors"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/prometheus/distribution/config"
	"github.com/prometheus/distribution/distvec"
	"github.com/prometheus/distribution/internal/procsample"
	"github.com/prometheus/distribution/internal/report"
	"github.com/prometheus/distribution/promdist"
)

// pipeline wires the configured distributions to the sampler and to
// Prometheus.
type pipeline struct {
	cfg        *config.Config
	sampler    *procsample.Sampler
	targets    []procsample.Target
	collectors []*promdist.Collector
	logger     log.Logger

	samples, skipped prometheus.Counter
	duration         prometheus.Histogram
}

func newPipeline(cfg *config.Config, sampler *procsample.Sampler, reg prometheus.Registerer, logger log.Logger) (*pipeline, error) {
	p := &pipeline{
		cfg:     cfg,
		sampler: sampler,
		logger:  logger,
		samples: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "procdist_samples_total",
			Help: "Number of process measurements taken.",
		}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "procdist_skipped_values_total",
			Help: "Number of measurements not accepted by a distribution.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "procdist_sample_duration_seconds",
			Help:    "Time taken to read and record all processes.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
	}
	if err := registerAll(reg, p.samples, p.skipped, p.duration); err != nil {
		return nil, err
	}

	for _, dc := range cfg.Distributions {
		vec, err := distvec.New(dc.Layout.NewFunc(), dc.Labels...)
		if err != nil {
			return nil, errors.Wrapf(err, "distribution %q", dc.Name)
		}
		c, err := promdist.NewChecked(vec, promdist.Opts{
			Name:        dc.Name,
			Help:        dc.Help,
			Percentiles: dc.Percentiles,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "distribution %q", dc.Name)
		}
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrapf(err, "registering distribution %q", dc.Name)
		}
		p.targets = append(p.targets, procsample.Target{
			Source: dc.Source,
			Labels: dc.Labels,
			Vec:    vec,
		})
		p.collectors = append(p.collectors, c)
	}
	return p, nil
}

func registerAll(reg prometheus.Registerer, cs ...prometheus.Collector) error {
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// sample reads all processes once and records them.
func (p *pipeline) sample() error {
	start := time.Now()
	defer func() { p.duration.Observe(time.Since(start).Seconds()) }()

	ms, err := p.sampler.Sample()
	if err != nil {
		return errors.Wrap(err, "sampling processes")
	}
	skipped, err := p.sampler.Feed(ms, p.targets)
	p.samples.Add(float64(len(ms)))
	p.skipped.Add(float64(skipped))
	if err != nil {
		return errors.Wrap(err, "recording measurements")
	}
	level.Debug(p.logger).Log("msg", "Sampled processes", "processes", len(ms), "skipped", skipped)
	return nil
}

// writeReport writes one JSON report per distribution, one per line.
func (p *pipeline) writeReport(w io.Writer) error {
	for i, dc := range p.cfg.Distributions {
		vec := p.targets[i].Vec
		samples, err := vec.Snapshot()
		if err != nil {
			return err
		}
		out, err := report.Build(dc.Name, vec.LabelNames(), samples, dc.Percentiles).JSON()
		if err != nil {
			return errors.Wrapf(err, "rendering report for %q", dc.Name)
		}
		if _, err := w.Write(append(out, '\n')); err != nil {
			return err
		}
	}
	return nil
}
