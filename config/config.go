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

// Package config loads the distribution definitions of procdist from YAML.
package config

import (
	"fmt"
	"os"

	"github.com/prometheus/common/model"
	"gopkg.in/yaml.v2"

	"github.com/prometheus/distribution/distribution"
	"github.com/prometheus/distribution/distvec"
)

// Layout types.
const (
	LayoutLinear      = "linear"
	LayoutExponential = "exponential"
	LayoutCustom      = "custom"
)

// Sources are the per-process measurements a distribution can be fed with.
const (
	SourceResidentMemory = "rss"
	SourceVirtualMemory  = "vsize"
	SourceCPUTime        = "cpu"
)

// Labels a distribution can be partitioned by.
const (
	LabelState = "state"
	LabelComm  = "comm"
)

// DefaultPercentiles are used when a distribution does not list any.
var DefaultPercentiles = []float64{50, 90, 99}

// Config is the top-level configuration.
type Config struct {
	Distributions []*DistributionConfig `yaml:"distributions"`
}

// UnmarshalYAML implements the yaml.Unmarshaler interface.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type plain Config
	if err := unmarshal((*plain)(c)); err != nil {
		return err
	}
	if len(c.Distributions) == 0 {
		return fmt.Errorf("no distributions configured")
	}
	names := map[string]struct{}{}
	for _, d := range c.Distributions {
		if d == nil {
			return fmt.Errorf("empty distribution entry")
		}
		if _, ok := names[d.Name]; ok {
			return fmt.Errorf("found multiple distributions named %q", d.Name)
		}
		names[d.Name] = struct{}{}
	}
	return nil
}

// DistributionConfig describes one distribution exported by procdist.
type DistributionConfig struct {
	Name        string    `yaml:"name"`
	Help        string    `yaml:"help,omitempty"`
	Source      string    `yaml:"source"`
	Labels      []string  `yaml:"labels,omitempty"`
	Percentiles []float64 `yaml:"percentiles,omitempty"`
	Layout      Layout    `yaml:"layout"`
}

// UnmarshalYAML implements the yaml.Unmarshaler interface.
func (c *DistributionConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type plain DistributionConfig
	if err := unmarshal((*plain)(c)); err != nil {
		return err
	}
	if !model.IsValidMetricName(model.LabelValue(c.Name)) {
		return fmt.Errorf("invalid distribution name %q", c.Name)
	}
	switch c.Source {
	case SourceResidentMemory, SourceVirtualMemory, SourceCPUTime:
	default:
		return fmt.Errorf("distribution %q: unknown source %q", c.Name, c.Source)
	}
	for _, l := range c.Labels {
		if l != LabelState && l != LabelComm {
			return fmt.Errorf("distribution %q: unsupported label %q", c.Name, l)
		}
	}
	if c.Percentiles == nil {
		c.Percentiles = append([]float64(nil), DefaultPercentiles...)
	}
	for _, p := range c.Percentiles {
		if !(p >= 0 && p <= 100) {
			return fmt.Errorf("distribution %q: percentile %g not within [0, 100]", c.Name, p)
		}
	}
	if c.Help == "" {
		c.Help = fmt.Sprintf("Distribution of %s across processes.", c.Source)
	}
	if _, err := c.Layout.New(); err != nil {
		return fmt.Errorf("distribution %q: %w", c.Name, err)
	}
	return nil
}

// Layout selects and parameterizes one of the distribution constructors.
type Layout struct {
	Type        string    `yaml:"type"`
	BucketCount int       `yaml:"bucket_count,omitempty"`
	Width       float64   `yaml:"width,omitempty"`
	Scale       float64   `yaml:"scale,omitempty"`
	Growth      float64   `yaml:"growth,omitempty"`
	Bounds      []float64 `yaml:"bounds,omitempty"`
}

// New creates an empty Distribution with this layout.
func (l Layout) New() (*distribution.Distribution, error) {
	switch l.Type {
	case LayoutLinear:
		return distribution.NewLinear(l.BucketCount, l.Width)
	case LayoutExponential:
		return distribution.NewExponential(l.BucketCount, l.Scale, l.Growth)
	case LayoutCustom:
		return distribution.NewCustom(l.Bounds)
	default:
		return nil, fmt.Errorf("%w: unknown layout type %q", distribution.ErrInvalidArgument, l.Type)
	}
}

// NewFunc returns New as a distvec.NewFunc.
func (l Layout) NewFunc() distvec.NewFunc {
	return l.New
}

// Load parses the YAML input s into a Config.
func Load(s string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.UnmarshalStrict([]byte(s), cfg); err != nil {
		return nil, err
	}
	// UnmarshalYAML is not called for an empty document.
	if len(cfg.Distributions) == 0 {
		return nil, fmt.Errorf("no distributions configured")
	}
	return cfg, nil
}

// LoadFile parses the given YAML file into a Config.
func LoadFile(filename string) (*Config, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	cfg, err := Load(string(content))
	if err != nil {
		return nil, fmt.Errorf("parsing YAML file %s: %w", filename, err)
	}
	return cfg, nil
}
