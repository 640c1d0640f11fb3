/*
   Copyright 2025 The DIRPX Authors.

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

// Package metrics exposes Prometheus collectors for conversion services.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"dirpx.dev/convx/apis"
)

const (
	namespace = "convx"
)

// Conversion results.
const (
	ResultIdentity = "identity"
	ResultNil      = "nil"
	ResultSuccess  = "success"
	ResultError    = "error"
)

// Registry mutation kinds.
const (
	OpRegister   = "register"
	OpUnregister = "unregister"
	OpDeclare    = "declare"
	OpReset      = "reset"
	OpRebuild    = "rebuild"
)

// Metrics holds the collectors of one conversion service.
type Metrics struct {
	conversions     *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	resolutionTime  *prometheus.HistogramVec
	registryChanges *prometheus.CounterVec
	graphVertices   prometheus.Gauge
	graphEdges      prometheus.Gauge
	graphGeneration prometheus.Gauge

	// Curried children for the hot paths.
	identity  prometheus.Counter
	nilInput  prometheus.Counter
	succeeded prometheus.Counter
	failed    prometheus.Counter
	cacheHit  prometheus.Counter
	cacheMiss prometheus.Counter
}

// New returns unregistered collectors. Register them with MustRegister.
func New() *Metrics {
	m := &Metrics{
		conversions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "conversions_total",
				Help:      "Number of conversions, by result.",
			},
			[]string{"result"}, // "identity", "nil", "success" or "error"
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "lookups_total",
				Help:      "Number of resolution cache lookups, by result.",
			},
			[]string{"result"}, // "hit" or "miss"
		),
		resolutionTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "resolver",
				Name:      "resolution_duration_seconds",
				Help:      "Time spent resolving a conversion path on a cache miss.",
				Buckets:   prometheus.ExponentialBuckets(0.000001, 4, 10), // 1µs to ~0.26s
			},
			[]string{"result"}, // "success" or "error"
		),
		registryChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "registry",
				Name:      "mutations_total",
				Help:      "Number of registry mutations that published a new graph.",
			},
			[]string{"op"},
		),
		graphVertices: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "vertices",
			Help:      "Number of type vertices in the published converter graph.",
		}),
		graphEdges: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "edges",
			Help:      "Number of converter edges, parallel edges included, in the published graph.",
		}),
		graphGeneration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "generation",
			Help:      "Generation of the published converter graph.",
		}),
	}

	m.identity = m.conversions.WithLabelValues(ResultIdentity)
	m.nilInput = m.conversions.WithLabelValues(ResultNil)
	m.succeeded = m.conversions.WithLabelValues(ResultSuccess)
	m.failed = m.conversions.WithLabelValues(ResultError)
	m.cacheHit = m.cacheLookups.WithLabelValues("hit")
	m.cacheMiss = m.cacheLookups.WithLabelValues("miss")
	return m
}

// ObserveConversion counts one conversion outcome.
func (m *Metrics) ObserveConversion(result string) {
	switch result {
	case ResultIdentity:
		m.identity.Inc()
	case ResultNil:
		m.nilInput.Inc()
	case ResultSuccess:
		m.succeeded.Inc()
	case ResultError:
		m.failed.Inc()
	default:
		m.conversions.WithLabelValues(result).Inc()
	}
}

// ObserveCacheLookup counts a cache hit or miss.
func (m *Metrics) ObserveCacheLookup(hit bool) {
	if hit {
		m.cacheHit.Inc()
		return
	}
	m.cacheMiss.Inc()
}

// ObserveResolution records a path resolution duration.
func (m *Metrics) ObserveResolution(durationSeconds float64, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	m.resolutionTime.WithLabelValues(result).Observe(durationSeconds)
}

// ObserveMutation counts a registry mutation and records the resulting graph size.
func (m *Metrics) ObserveMutation(op string, snap *apis.Snapshot) {
	m.registryChanges.WithLabelValues(op).Inc()
	m.ObserveSnapshot(snap)
}

// ObserveSnapshot records the size and generation of snap.
func (m *Metrics) ObserveSnapshot(snap *apis.Snapshot) {
	if snap == nil || snap.Graph == nil {
		return
	}
	m.graphVertices.Set(float64(len(snap.Graph.Vertices())))
	m.graphEdges.Set(float64(len(snap.Graph.Edges())))
	m.graphGeneration.Set(float64(snap.Generation))
}

// MustRegister registers the metrics with the given Prometheus registry.
func (m *Metrics) MustRegister(registry prometheus.Registerer) {
	registry.MustRegister(
		m.conversions,
		m.cacheLookups,
		m.resolutionTime,
		m.registryChanges,
		m.graphVertices,
		m.graphEdges,
		m.graphGeneration,
	)
}
