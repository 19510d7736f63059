package metrics

import (
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "sitebuilder"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg            *prom.Registry
	stageDuration  *prom.HistogramVec
	buildDuration  prom.Histogram
	stageResults   *prom.CounterVec
	buildOutcome   *prom.CounterVec
	renderDuration prom.Histogram
	documents      *prom.CounterVec
	files          *prom.CounterVec
	brokenLinks    prom.Gauge
	workers        prom.Gauge
}

// NewPrometheusRecorder constructs the metrics and registers them on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		renderDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "document_render_duration_seconds",
			Help:      "Duration of rendering a single document",
			Buckets:   prom.ExponentialBuckets(0.0005, 2, 12),
		}),
		documents: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Documents processed by result",
		}, []string{"result"}),
		files: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "output_files_total",
			Help:      "Output files by write result",
		}, []string{"result"}),
		brokenLinks: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "broken_internal_links",
			Help:      "Broken internal links found by the last build",
		}),
		workers: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "workers",
			Help:      "Worker pool size used by the last build",
		}),
	}
	reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults, pr.buildOutcome,
		pr.renderDuration, pr.documents, pr.files, pr.brokenLinks, pr.workers)
	return pr
}

// Registry returns the registry the metrics are registered on.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.reg }

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) ObserveRenderDuration(d time.Duration) {
	p.renderDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncDocuments(result DocumentResult, n int) {
	p.documents.WithLabelValues(string(result)).Add(float64(n))
}

func (p *PrometheusRecorder) IncFiles(result FileResult, n int) {
	p.files.WithLabelValues(string(result)).Add(float64(n))
}

func (p *PrometheusRecorder) SetBrokenLinks(n int) { p.brokenLinks.Set(float64(n)) }

func (p *PrometheusRecorder) SetWorkers(n int) { p.workers.Set(float64(n)) }

// WriteTextfile writes the current metric values in the Prometheus text
// format to path, for pickup by a node exporter textfile collector.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := prom.WriteToTextfile(path, p.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
