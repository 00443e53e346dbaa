// Package metrics records scan latency, processed image count and
// violation counts, and reads them back for the query endpoints.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// Sink receives the measurements produced by a scan. Implementations must
// be safe for concurrent use.
type Sink interface {
	ObserveResponseTime(d time.Duration)
	AddImages(n int)
	RecordViolations(n int)
}

// Reader exposes the aggregated values of a Sink.
type Reader interface {
	AverageResponseTimeMillis() float64
	ImageCount() float64
	TotalViolations() float64
}

// Registry is a Prometheus backed Sink and Reader. Collectors are created
// once and live as long as the Registry.
type Registry struct {
	registry     *prometheus.Registry
	responseTime prometheus.Summary
	imageCount   prometheus.Counter
	violations   prometheus.Summary
}

// NewRegistry creates the collectors and registers them on a private
// Prometheus registry. Runtime collectors are added when withRuntime is set.
func NewRegistry(withRuntime bool) *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		responseTime: prometheus.NewSummary(prometheus.SummaryOpts{
			Name: "response_time_seconds",
			Help: "Wall-clock duration of bucket scans.",
		}),
		imageCount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "count_image_total",
			Help: "Number of images listed for scanning.",
		}),
		violations: prometheus.NewSummary(prometheus.SummaryOpts{
			Name: "total_violation",
			Help: "Violating images found per scan.",
		}),
	}

	r.registry.MustRegister(r.responseTime, r.imageCount, r.violations)
	if withRuntime {
		r.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return r
}

// ObserveResponseTime records the duration of one scan.
func (r *Registry) ObserveResponseTime(d time.Duration) {
	r.responseTime.Observe(d.Seconds())
}

// AddImages increments the processed image counter. Non-positive values are ignored.
func (r *Registry) AddImages(n int) {
	if n <= 0 {
		return
	}
	r.imageCount.Add(float64(n))
}

// RecordViolations records the number of violating images found by one scan.
func (r *Registry) RecordViolations(n int) {
	r.violations.Observe(float64(n))
}

// AverageResponseTimeMillis returns the mean scan duration in milliseconds,
// or 0 before the first scan completes.
func (r *Registry) AverageResponseTimeMillis() float64 {
	s := readSummary(r.responseTime)
	if s.GetSampleCount() == 0 {
		return 0
	}
	return s.GetSampleSum() / float64(s.GetSampleCount()) * 1000
}

// ImageCount returns the total number of images listed so far.
func (r *Registry) ImageCount() float64 {
	var m dto.Metric
	if err := r.imageCount.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

// TotalViolations returns the sum of all recorded per-scan violation counts.
func (r *Registry) TotalViolations() float64 {
	return readSummary(r.violations).GetSampleSum()
}

// ViolationSamples returns how many scans recorded a violation count.
func (r *Registry) ViolationSamples() uint64 {
	return readSummary(r.violations).GetSampleCount()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

func readSummary(s prometheus.Summary) *dto.Summary {
	var m dto.Metric
	if err := s.Write(&m); err != nil {
		return &dto.Summary{}
	}
	return m.GetSummary()
}
