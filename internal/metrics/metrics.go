// Package metrics exposes build counters in the Prometheus text format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "avatar_manifest"

// Build holds the metrics of a single build run
type Build struct {
	registry *prometheus.Registry

	Groups        prometheus.Gauge
	Items         prometheus.Gauge
	SkippedFiles  prometheus.Counter
	ChangedAssets prometheus.Counter
	AssetBytes    prometheus.Counter
	Duration      prometheus.Gauge
	LastSuccess   prometheus.Gauge
	Info          *prometheus.GaugeVec
}

// NewBuild creates and registers build metrics on a private registry
func NewBuild() *Build {
	b := &Build{
		registry: prometheus.NewRegistry(),
		Groups: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "groups",
			Help:      "Groups written to the manifest.",
		}),
		Items: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "items",
			Help:      "Items written to the manifest.",
		}),
		SkippedFiles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_files_total",
			Help:      "Files ignored because their extension is not a recognized image type.",
		}),
		ChangedAssets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "changed_assets_total",
			Help:      "Assets whose hash differs from the previous build.",
		}),
		AssetBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asset_bytes_total",
			Help:      "Bytes of optimized assets written.",
		}),
		Duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Wall time of the last build.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful build.",
		}),
		Info: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Build metadata; always 1.",
		}, []string{"mode", "revision"}),
	}

	b.registry.MustRegister(
		b.Groups, b.Items, b.SkippedFiles, b.ChangedAssets,
		b.AssetBytes, b.Duration, b.LastSuccess, b.Info,
	)
	return b
}

// Succeeded records the outcome of a finished build
func (b *Build) Succeeded(mode, revision string, groups, items int, elapsed time.Duration, now time.Time) {
	b.Groups.Set(float64(groups))
	b.Items.Set(float64(items))
	b.Duration.Set(elapsed.Seconds())
	b.LastSuccess.Set(float64(now.Unix()))
	// build_info holds a single series describing the latest build
	b.Info.Reset()
	b.Info.WithLabelValues(mode, revision).Set(1)
}

// WriteTextfile writes all metrics to path in the textfile-collector format
func (b *Build) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, b.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
