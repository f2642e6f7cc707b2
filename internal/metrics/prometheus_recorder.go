package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "productbuilder"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once             sync.Once
	sectionDuration  *prom.HistogramVec
	sectionResults   *prom.CounterVec
	buildDuration    prom.Histogram
	buildOutcome     *prom.CounterVec
	filesStaged      prom.Counter
	checksumDuration prom.Histogram
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg.
// A nil registry gets a private one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.sectionDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "section_duration_seconds",
			Help:      "Duration of individual document sections",
			Buckets:   prom.DefBuckets,
		}, []string{"section"})
		pr.sectionResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "section_results_total",
			Help:      "Section result counts by outcome",
		}, []string{"section", "result"})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total product build duration",
			Buckets:   prom.DefBuckets,
		})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"})
		pr.filesStaged = prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "files_staged_total",
			Help:      "Files copied into upload staging trees",
		})
		pr.checksumDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "checksum_duration_seconds",
			Help:      "Duration of checksum manifest generation",
			Buckets:   prom.DefBuckets,
		})
		reg.MustRegister(pr.sectionDuration, pr.sectionResults, pr.buildDuration, pr.buildOutcome, pr.filesStaged, pr.checksumDuration)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveSectionDuration(section string, d time.Duration) {
	if p == nil || p.sectionDuration == nil {
		return
	}
	p.sectionDuration.WithLabelValues(section).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncSectionResult(section string, result ResultLabel) {
	if p == nil || p.sectionResults == nil {
		return
	}
	p.sectionResults.WithLabelValues(section, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) AddFilesStaged(n int) {
	if p == nil || p.filesStaged == nil || n <= 0 {
		return
	}
	p.filesStaged.Add(float64(n))
}

func (p *PrometheusRecorder) ObserveChecksumDuration(d time.Duration) {
	if p == nil || p.checksumDuration == nil {
		return
	}
	p.checksumDuration.Observe(d.Seconds())
}
