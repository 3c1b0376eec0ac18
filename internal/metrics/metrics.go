// Copyright 2019 Ross Light
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package metrics defines the OpenCensus measures recorded while serving
// GraphQL requests.
package metrics

import (
	"context"
	"time"

	"contrib.go.opencensus.io/exporter/prometheus"
	"github.com/golang/glog"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
	"golang.org/x/xerrors"
)

var (
	NumQueries = stats.Int64("num_queries_total",
		"Total number of GraphQL operations executed", stats.UnitDimensionless)
	LatencyMs = stats.Float64("query_latency",
		"Latency of GraphQL operations", stats.UnitMilliseconds)
	NumFieldErrors = stats.Int64("num_field_errors_total",
		"Total number of errors returned by field resolvers", stats.UnitDimensionless)
	NumCacheHits = stats.Int64("operation_cache_hits_total",
		"Total number of operations served from the parsed query cache", stats.UnitDimensionless)

	// Tag keys.
	KeyStatus = tag.MustNewKey("status")
	KeyField  = tag.MustNewKey("field")

	// Tag values.
	TagValueStatusOK    = "ok"
	TagValueStatusError = "error"

	defaultLatencyMsDistribution = view.Distribution(
		0.1, 0.25, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000)

	// Views lists every view exported by this package.
	Views = []*view.View{
		{
			Name:        NumQueries.Name(),
			Measure:     NumQueries,
			Description: NumQueries.Description(),
			Aggregation: view.Count(),
			TagKeys:     []tag.Key{KeyStatus},
		},
		{
			Name:        LatencyMs.Name(),
			Measure:     LatencyMs,
			Description: LatencyMs.Description(),
			Aggregation: defaultLatencyMsDistribution,
			TagKeys:     []tag.Key{KeyStatus},
		},
		{
			Name:        NumFieldErrors.Name(),
			Measure:     NumFieldErrors,
			Description: NumFieldErrors.Description(),
			Aggregation: view.Count(),
			TagKeys:     []tag.Key{KeyField},
		},
		{
			Name:        NumCacheHits.Name(),
			Measure:     NumCacheHits,
			Description: NumCacheHits.Description(),
			Aggregation: view.Count(),
		},
	}
)

// Register registers Views with OpenCensus. Measurements are dropped until
// their views are registered.
func Register() error {
	if err := view.Register(Views...); err != nil {
		return xerrors.Errorf("register metrics views: %w", err)
	}
	return nil
}

// NewExporter returns a Prometheus exporter for the registered views. The
// exporter is an http.Handler that serves the metrics.
func NewExporter(namespace string) (*prometheus.Exporter, error) {
	pe, err := prometheus.NewExporter(prometheus.Options{
		Namespace: namespace,
		OnError:   func(err error) { glog.Errorf("%v", err) },
	})
	if err != nil {
		return nil, xerrors.Errorf("create prometheus exporter: %w", err)
	}
	view.RegisterExporter(pe)
	return pe, nil
}

// RecordQuery records the outcome and latency of one operation.
func RecordQuery(ctx context.Context, ok bool, latency time.Duration) {
	status := TagValueStatusOK
	if !ok {
		status = TagValueStatusError
	}
	ms := float64(latency) / float64(time.Millisecond)
	_ = stats.RecordWithTags(ctx, []tag.Mutator{tag.Upsert(KeyStatus, status)},
		NumQueries.M(1), LatencyMs.M(ms))
}

// RecordFieldError records an error returned by the resolver for field.
func RecordFieldError(ctx context.Context, field string) {
	_ = stats.RecordWithTags(ctx, []tag.Mutator{tag.Upsert(KeyField, field)}, NumFieldErrors.M(1))
}

// RecordCacheHit records an operation served from the parsed query cache.
func RecordCacheHit(ctx context.Context) {
	stats.Record(ctx, NumCacheHits.M(1))
}
