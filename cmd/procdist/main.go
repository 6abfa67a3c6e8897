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

// Command procdist records the distribution of per-process measurements
// (resident memory, virtual memory, CPU time) in bucketed distributions and
// exposes them to Prometheus.
package main

import (
	"context"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/efficientgo/core/errcapture"
	"github.com/efficientgo/core/errors"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/promlog"
	"github.com/prometheus/common/promlog/flag"
	"github.com/prometheus/common/version"
	"github.com/prometheus/procfs"

	"github.com/prometheus/distribution/config"
	"github.com/prometheus/distribution/internal/procsample"
)

func main() {
	var (
		configFile    = kingpin.Flag("config.file", "Distribution configuration file.").Default("procdist.yml").String()
		listenAddress = kingpin.Flag("web.listen-address", "Address on which to expose metrics.").Default(":9797").String()
		metricsPath   = kingpin.Flag("web.telemetry-path", "Path under which to expose metrics.").Default("/metrics").String()
		procfsPath    = kingpin.Flag("path.procfs", "procfs mountpoint.").Default(procfs.DefaultMountPoint).String()
		interval      = kingpin.Flag("sample.interval", "How often to sample all processes.").Default("15s").Duration()
		once          = kingpin.Flag("once", "Sample once, write a JSON report and exit.").Bool()
		reportFile    = kingpin.Flag("report.file", "Where --once writes its report. Use - for stdout.").Default("-").String()
	)

	promlogConfig := &promlog.Config{}
	flag.AddFlags(kingpin.CommandLine, promlogConfig)
	kingpin.Version(version.Print("procdist"))
	kingpin.CommandLine.UsageWriter(os.Stdout)
	kingpin.HelpFlag.Short('h')
	kingpin.Parse()
	logger := promlog.New(promlogConfig)

	level.Info(logger).Log("msg", "Starting procdist", "version", version.Info())
	level.Info(logger).Log("msg", "Build context", "build_context", version.BuildContext())

	cfg, err := config.LoadFile(*configFile)
	if err != nil {
		level.Error(logger).Log("msg", "Error loading config", "err", err)
		os.Exit(1)
	}
	fs, err := procfs.NewFS(*procfsPath)
	if err != nil {
		level.Error(logger).Log("msg", "Error opening procfs", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	p, err := newPipeline(cfg, procsample.New(fs, log.With(logger, "component", "sampler")), reg, logger)
	if err != nil {
		level.Error(logger).Log("msg", "Error setting up distributions", "err", err)
		os.Exit(1)
	}

	if *once {
		if err := p.sample(); err != nil {
			level.Error(logger).Log("err", err)
			os.Exit(1)
		}
		if err := writeReportFile(p, *reportFile); err != nil {
			level.Error(logger).Log("msg", "Error writing report", "err", err)
			os.Exit(1)
		}
		return
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := serve(p, reg, *listenAddress, *metricsPath, *interval, logger); err != nil {
		level.Error(logger).Log("err", err)
		os.Exit(1)
	}
}

func writeReportFile(p *pipeline, filename string) (err error) {
	if filename == "-" {
		return p.writeReport(os.Stdout)
	}
	f, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "creating report file")
	}
	defer errcapture.Do(&err, f.Close, "close report file %s", filename)

	return p.writeReport(f)
}

func serve(p *pipeline, reg *prometheus.Registry, addr, path string, interval time.Duration, logger log.Logger) error {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux}

	g := &run.Group{}
	ctx, cancel := context.WithCancel(context.Background())
	g.Add(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			if err := p.sample(); err != nil {
				level.Warn(logger).Log("msg", "Sampling failed", "err", err)
			}
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	}, func(error) {
		cancel()
	})
	g.Add(func() error {
		level.Info(logger).Log("msg", "Listening on", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, "starting web server")
		}
		return nil
	}, func(error) {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			level.Error(logger).Log("msg", "Failed to stop web server", "err", err)
		}
	})
	g.Add(run.SignalHandler(context.Background(), syscall.SIGINT, syscall.SIGTERM))

	err := g.Run()
	if sigErr, ok := err.(run.SignalError); ok {
		level.Info(logger).Log("msg", "Received signal, exiting", "signal", sigErr.Signal)
		return nil
	}
	return err
}
