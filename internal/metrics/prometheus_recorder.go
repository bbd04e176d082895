package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	batchDuration  prom.Histogram
	renderDuration prom.Histogram
	pageResults    *prom.CounterVec
	fullRebuilds   prom.Counter
	trackedFiles   prom.Gauge
	queueDepth     prom.Gauge
	reloadClients  prom.Gauge
}

// NewPrometheusRecorder constructs and registers the pipeline metrics on reg.
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		batchDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "tn",
			Name:      "batch_duration_seconds",
			Help:      "Duration of processing one change batch",
			Buckets:   prom.DefBuckets,
		}),
		renderDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "tn",
			Name:      "page_render_duration_seconds",
			Help:      "Duration of rendering and writing a single page",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		pageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "tn",
			Name:      "page_results_total",
			Help:      "Candidate outcomes by result",
		}, []string{"result"}),
		fullRebuilds: prom.NewCounter(prom.CounterOpts{
			Namespace: "tn",
			Name:      "full_rebuilds_total",
			Help:      "Full regenerations triggered by navigation changes",
		}),
		trackedFiles: prom.NewGauge(prom.GaugeOpts{
			Namespace: "tn",
			Name:      "tracked_files",
			Help:      "Number of source files tracked by the content cache",
		}),
		queueDepth: prom.NewGauge(prom.GaugeOpts{
			Namespace: "tn",
			Name:      "batch_queue_depth",
			Help:      "Change batches waiting for the generator",
		}),
		reloadClients: prom.NewGauge(prom.GaugeOpts{
			Namespace: "tn",
			Name:      "livereload_clients",
			Help:      "Connected live reload clients",
		}),
	}
	reg.MustRegister(pr.batchDuration, pr.renderDuration, pr.pageResults, pr.fullRebuilds, pr.trackedFiles, pr.queueDepth, pr.reloadClients)
	return pr
}

func (p *PrometheusRecorder) ObserveBatchDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.batchDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveRenderDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.renderDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPageResult(result ResultLabel) {
	if p == nil {
		return
	}
	p.pageResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncFullRebuild() {
	if p == nil {
		return
	}
	p.fullRebuilds.Inc()
}

func (p *PrometheusRecorder) SetTrackedFiles(n int) {
	if p == nil {
		return
	}
	p.trackedFiles.Set(float64(n))
}

func (p *PrometheusRecorder) SetQueueDepth(n int) {
	if p == nil {
		return
	}
	p.queueDepth.Set(float64(n))
}

func (p *PrometheusRecorder) SetLiveReloadClients(n int) {
	if p == nil {
		return
	}
	p.reloadClients.Set(float64(n))
}
