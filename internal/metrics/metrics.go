/*
Copyright 2026 Flant JSC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package metrics exposes the outcome of a pass as Prometheus metrics.
//
// The process exits after a single pass, so nothing scrapes it. Metrics are
// collected in a dedicated registry and pushed to a Pushgateway when one is
// configured.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/deckhouse/sds-volume-limit/internal/pass"
)

const (
	namespace = "sds_volume_limit"

	// JobName groups pushed metrics on the Pushgateway.
	JobName = "sds-volume-limit"
)

type Recorder struct {
	registry *prometheus.Registry

	nodes             prometheus.Gauge
	taintedNodes      prometheus.Gauge
	transitions       *prometheus.CounterVec
	failedNodes       prometheus.Gauge
	passDuration      prometheus.Gauge
	lastSuccess       prometheus.Gauge
	lastPassSucceeded prometheus.Gauge

	now func() time.Time
}

var _ pass.Observer = (*Recorder)(nil)

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "nodes",
			Help:      "Number of nodes inspected by the last pass",
		}),
		taintedNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tainted_nodes",
			Help:      "Number of nodes carrying the limit reached taint after the last pass",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "taint_transitions_total",
			Help:      "Number of taints added or removed, by action",
		}, []string{"action"}),
		failedNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "failed_nodes",
			Help:      "Number of nodes whose reconciliation failed in the last pass",
		}),
		passDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pass_duration_seconds",
			Help:      "Duration of the last pass in seconds",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful pass",
		}),
		lastPassSucceeded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_pass_success",
			Help:      "Whether the last pass succeeded (1 = success, 0 = failure)",
		}),
		now: time.Now,
	}

	r.registry.MustRegister(
		r.nodes,
		r.taintedNodes,
		r.transitions,
		r.failedNodes,
		r.passDuration,
		r.lastSuccess,
		r.lastPassSucceeded,
	)
	return r
}

// Registry returns the registry holding every metric of the Recorder.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObservePass records the summary of a finished pass.
func (r *Recorder) ObservePass(s pass.Summary, duration time.Duration, err error) {
	r.nodes.Set(float64(s.Nodes))
	r.taintedNodes.Set(float64(s.Tainted + s.RemainTainted))
	r.transitions.WithLabelValues("taint").Add(float64(s.Tainted))
	r.transitions.WithLabelValues("untaint").Add(float64(s.Untainted))
	r.failedNodes.Set(float64(s.Failed))
	r.passDuration.Set(duration.Seconds())

	if err != nil {
		r.lastPassSucceeded.Set(0)
		return
	}
	r.lastPassSucceeded.Set(1)
	r.lastSuccess.Set(float64(r.now().Unix()))
}

// Push replaces the metrics of JobName on the Pushgateway at url.
func (r *Recorder) Push(ctx context.Context, url string) error {
	if err := push.New(url, JobName).Gatherer(r.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("pushing metrics to %s: %w", url, err)
	}
	return nil
}
