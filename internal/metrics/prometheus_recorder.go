package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "sitemirror"

// verbatimLabel stands in for the transform label of untransformed files.
const verbatimLabel = "copy"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	fileDuration    *prom.HistogramVec
	fileResults     *prom.CounterVec
	buildDuration   prom.Histogram
	buildOutcome    *prom.CounterVec
	rebuildResults  *prom.CounterVec
	rebuildsDropped prom.Counter
	watchedPaths    prom.Gauge
}

// NewPrometheusRecorder constructs the metrics and registers them on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		fileDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "file_duration_seconds",
			Help:      "Time spent producing one output file",
			Buckets:   prom.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"transform"}),
		fileResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "file_results_total",
			Help:      "Walked entries by result",
		}, []string{"result"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total full build duration",
			Buckets:   prom.DefBuckets,
		}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Full builds by final status",
		}, []string{"outcome"}),
		rebuildResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "rebuild_results_total",
			Help:      "Watch-triggered single file rebuilds by result",
		}, []string{"result"}),
		rebuildsDropped: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "rebuilds_dropped_total",
			Help:      "Change notifications ignored because the file was already rebuilding",
		}),
		watchedPaths: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "watched_paths",
			Help:      "Source and dependency paths currently watched",
		}),
	}
	reg.MustRegister(pr.fileDuration, pr.fileResults, pr.buildDuration, pr.buildOutcome,
		pr.rebuildResults, pr.rebuildsDropped, pr.watchedPaths)
	return pr
}

func (p *PrometheusRecorder) ObserveFileDuration(transform string, d time.Duration) {
	if p == nil {
		return
	}
	if transform == "" {
		transform = verbatimLabel
	}
	p.fileDuration.WithLabelValues(transform).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncFileResult(result ResultLabel) {
	if p == nil {
		return
	}
	p.fileResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncRebuildResult(result ResultLabel) {
	if p == nil {
		return
	}
	p.rebuildResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncRebuildDropped() {
	if p == nil {
		return
	}
	p.rebuildsDropped.Inc()
}

func (p *PrometheusRecorder) SetWatchedPaths(n int) {
	if p == nil {
		return
	}
	p.watchedPaths.Set(float64(n))
}
