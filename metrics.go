package rower

import (
	"log/slog"

	"github.com/hashicorp/go-metrics"
)

var (
	MetricRowerFetchCount      = []string{"rower", "fetch", "count"}
	MetricRowerFetchErrorCount = []string{"rower", "fetch", "error", "count"}
	MetricRowerFetchInBytes    = []string{"rower", "fetch", "in", "bytes"}
	MetricRowerDownloadCount   = []string{"rower", "download", "count"}
	MetricRowerDownloadBytes   = []string{"rower", "download", "bytes"}
	MetricRowerCacheHitCount   = []string{"rower", "cache", "hit", "count"}
	MetricRowerCacheMissCount  = []string{"rower", "cache", "miss", "count"}
	MetricRowerCacheEntries    = []string{"rower", "cache", "entries"}
	MetricRowerPrefetchCount   = []string{"rower", "prefetch", "count"}
	MetricRowerNavigationCount = []string{"rower", "navigation", "count"}
)

type TelemetryLabel string

var (
	LabelError      TelemetryLabel = "error"
	LabelHost       TelemetryLabel = "host"
	LabelPort       TelemetryLabel = "port"
	LabelSelector   TelemetryLabel = "selector"
	LabelStage      TelemetryLabel = "stage"
	LabelEntityType TelemetryLabel = "entity_type"
	LabelCache      TelemetryLabel = "cache"
	LabelAddr       TelemetryLabel = "addr"
)

func (lab TelemetryLabel) M(val string) metrics.Label {
	return metrics.Label{Name: string(lab), Value: val}
}

func (lab TelemetryLabel) L(val any) slog.Attr {
	return slog.Attr{
		Key:   string(lab),
		Value: slog.AnyValue(val),
	}
}

// withLabels returns a fresh slice so callers never write into the static
// labels backing array.
func withLabels(static []metrics.Label, extra ...metrics.Label) []metrics.Label {
	labels := make([]metrics.Label, 0, len(static)+len(extra))
	labels = append(labels, static...)
	return append(labels, extra...)
}
