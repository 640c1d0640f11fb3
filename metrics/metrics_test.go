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

package metrics

import (
	"errors"
	"strconv"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/convx/apis"
	"dirpx.dev/convx/config"
	"dirpx.dev/convx/converter"
	"dirpx.dev/convx/graph"
)

func TestConversionCounters(t *testing.T) {
	m := New()

	m.ObserveConversion(ResultIdentity)
	m.ObserveConversion(ResultIdentity)
	m.ObserveConversion(ResultNil)
	m.ObserveConversion(ResultSuccess)
	m.ObserveConversion(ResultError)
	m.ObserveConversion("other")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.conversions.WithLabelValues(ResultIdentity)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.conversions.WithLabelValues(ResultNil)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.conversions.WithLabelValues(ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.conversions.WithLabelValues(ResultError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.conversions.WithLabelValues("other")))
}

func TestCacheLookups(t *testing.T) {
	m := New()
	m.ObserveCacheLookup(true)
	m.ObserveCacheLookup(false)
	m.ObserveCacheLookup(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
}

func TestResolutionHistogram(t *testing.T) {
	m := New()
	m.ObserveResolution(0.0001, nil)
	m.ObserveResolution(0.0002, errors.New("no path"))

	assert.Equal(t, 2, testutil.CollectAndCount(m.resolutionTime))
}

func TestObserveMutation(t *testing.T) {
	m := New()
	c := converter.Func(strconv.Atoi)
	g, err := graph.Build([]apis.Registration{{ID: "1", Converter: c, Source: c.SourceType(), Target: c.TargetType()}}, nil, nil, config.NewConfig())
	require.NoError(t, err)

	m.ObserveMutation(OpRegister, &apis.Snapshot{Generation: 3, Graph: g})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.registryChanges.WithLabelValues(OpRegister)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.graphVertices))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.graphEdges))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.graphGeneration))

	// A nil snapshot only counts the mutation.
	m.ObserveMutation(OpReset, nil)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.registryChanges.WithLabelValues(OpReset)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.graphGeneration))
}

func TestMetricsRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New()

	// Should not panic
	require.NotPanics(t, func() {
		m.MustRegister(registry)
	})

	m.ObserveResolution(0.001, nil)
	m.ObserveMutation(OpDeclare, nil)

	metricFamilies, err := registry.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, mf := range metricFamilies {
		names[mf.GetName()] = true
	}
	for _, name := range []string{
		"convx_conversions_total",
		"convx_cache_lookups_total",
		"convx_resolver_resolution_duration_seconds",
		"convx_registry_mutations_total",
		"convx_graph_vertices",
		"convx_graph_edges",
		"convx_graph_generation",
	} {
		assert.True(t, names[name], "metric %s should be registered", name)
	}

	// Registering twice on the same registry must panic.
	assert.Panics(t, func() { m.MustRegister(registry) })
}
