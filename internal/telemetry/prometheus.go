package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "divemeets"

// PrometheusAPI forwards every report to an inner API and also records it as
// a prometheus metric so breakages and counts can be scraped from /metrics.
type PrometheusAPI struct {
	inner    API
	broken   *prometheus.CounterVec
	warnings *prometheus.CounterVec
	counts   *prometheus.GaugeVec
}

func NewPrometheusAPI(inner API, reg prometheus.Registerer) (PrometheusAPI, error) {
	p := PrometheusAPI{
		inner: inner,
		broken: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "broken_total",
			Help:      "Number of broken component reports by id.",
		}, []string{"id"}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "warnings_total",
			Help:      "Number of warning reports by id.",
		}, []string{"id"}),
		counts: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "count",
			Help:      "Last reported value of a count by id.",
		}, []string{"id"}),
	}
	for _, c := range []prometheus.Collector{p.broken, p.warnings, p.counts} {
		if err := reg.Register(c); err != nil {
			return PrometheusAPI{}, err
		}
	}
	return p, nil
}

func (p PrometheusAPI) ReportBroken(id string, params ...any) {
	p.broken.WithLabelValues(id).Inc()
	p.inner.ReportBroken(id, params...)
}

func (p PrometheusAPI) ReportWarning(id string, params ...any) {
	p.warnings.WithLabelValues(id).Inc()
	p.inner.ReportWarning(id, params...)
}

func (p PrometheusAPI) ReportDebug(msg string, params ...any) {
	p.inner.ReportDebug(msg, params...)
}

func (p PrometheusAPI) ReportCount(id string, count int64) {
	p.counts.WithLabelValues(id).Set(float64(count))
	p.inner.ReportCount(id, count)
}
