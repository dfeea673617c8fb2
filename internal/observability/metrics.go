package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace is the metric name prefix used by the service.
const Namespace = "citation_service"

// Metrics contains all Prometheus metrics for the citation service.
// Metrics are organized by subsystem: API requests, searches, candidates,
// pipeline output and source requests. All counters and histograms are
// registered via promauto with the default Prometheus registry.
//
// Metrics implements citation.Recorder and papersources.RequestRecorder.
type Metrics struct {
	// RequestsTotal counts API requests, labeled by endpoint and status code.
	RequestsTotal *prometheus.CounterVec

	// RequestDuration observes API request duration in seconds, labeled by endpoint.
	RequestDuration *prometheus.HistogramVec

	// SearchesStarted counts searches initiated, labeled by source.
	SearchesStarted *prometheus.CounterVec

	// SearchesCompleted counts successful searches, labeled by source.
	SearchesCompleted *prometheus.CounterVec

	// SearchesFailed counts failed searches, labeled by source.
	SearchesFailed *prometheus.CounterVec

	// SearchDuration observes search duration in seconds, labeled by source.
	SearchDuration *prometheus.HistogramVec

	// ArticlesPerSearch observes the articles returned per search, labeled by source.
	ArticlesPerSearch *prometheus.HistogramVec

	// CandidatesAdmitted counts articles that passed the relevance threshold.
	CandidatesAdmitted *prometheus.CounterVec

	// CandidatesRejected counts articles discarded by the relevance threshold.
	CandidatesRejected *prometheus.CounterVec

	// ArticlesSelected observes the number of articles selected per request.
	ArticlesSelected prometheus.Histogram

	// CitationsInserted counts inline citation markers inserted into documents.
	CitationsInserted prometheus.Counter

	// StagesDegraded counts pipeline stages that fell back to their default, by component.
	StagesDegraded *prometheus.CounterVec

	// SourceRequestsTotal counts HTTP requests to sources, labeled by source and endpoint.
	SourceRequestsTotal *prometheus.CounterVec

	// SourceRequestsFailed counts failed HTTP requests to sources, labeled by source, endpoint, and error type.
	SourceRequestsFailed *prometheus.CounterVec

	// SourceRequestDuration observes HTTP request duration to sources in seconds.
	SourceRequestDuration *prometheus.HistogramVec

	// SourceRateLimited counts rate-limited responses from sources, labeled by source.
	SourceRateLimited *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		// API
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of API requests by endpoint and status",
		}, []string{"endpoint", "status"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Duration of API requests in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 20, 30, 60},
		}, []string{"endpoint"}),

		// Searches
		SearchesStarted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_started_total",
			Help:      "Total number of article searches started by source",
		}, []string{"source"}),
		SearchesCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_completed_total",
			Help:      "Total number of article searches completed by source",
		}, []string{"source"}),
		SearchesFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_failed_total",
			Help:      "Total number of article searches that failed by source",
		}, []string{"source"}),
		SearchDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Duration of article searches in seconds by source",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30},
		}, []string{"source"}),
		ArticlesPerSearch: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "articles_per_search",
			Help:      "Number of articles returned per search by source",
			Buckets:   []float64{0, 1, 2, 3, 5, 10},
		}, []string{"source"}),

		// Candidates
		CandidatesAdmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_admitted_total",
			Help:      "Total number of candidate articles above the relevance threshold by source",
		}, []string{"source"}),
		CandidatesRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_rejected_total",
			Help:      "Total number of candidate articles below the relevance threshold by source",
		}, []string{"source"}),

		// Pipeline
		ArticlesSelected: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "articles_selected",
			Help:      "Number of articles selected per request",
			Buckets:   []float64{0, 1, 2, 3, 4, 5},
		}),
		CitationsInserted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "citations_inserted_total",
			Help:      "Total number of inline citations inserted",
		}),
		StagesDegraded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stages_degraded_total",
			Help:      "Total number of pipeline stages that fell back to their default by component",
		}, []string{"component"}),

		// Sources
		SourceRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_total",
			Help:      "Total number of requests to bibliographic sources",
		}, []string{"source", "endpoint"}),
		SourceRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_failed_total",
			Help:      "Total number of failed requests to bibliographic sources",
		}, []string{"source", "endpoint", "error_type"}),
		SourceRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_request_duration_seconds",
			Help:      "Duration of requests to bibliographic sources in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source", "endpoint"}),
		SourceRateLimited: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_rate_limited_total",
			Help:      "Total number of rate limit responses from bibliographic sources",
		}, []string{"source"}),
	}
}

// RecordRequest records a served API request.
func (m *Metrics) RecordRequest(endpoint string, status int, durationSeconds float64) {
	m.RequestsTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(endpoint).Observe(durationSeconds)
}

// RecordSearchStarted records that a search has started.
func (m *Metrics) RecordSearchStarted(source string) {
	m.SearchesStarted.WithLabelValues(source).Inc()
}

// RecordSearchCompleted records that a search has completed.
func (m *Metrics) RecordSearchCompleted(source string, articleCount int, durationSeconds float64) {
	m.SearchesCompleted.WithLabelValues(source).Inc()
	m.SearchDuration.WithLabelValues(source).Observe(durationSeconds)
	m.ArticlesPerSearch.WithLabelValues(source).Observe(float64(articleCount))
}

// RecordSearchFailed records that a search has failed.
func (m *Metrics) RecordSearchFailed(source string, durationSeconds float64) {
	m.SearchesFailed.WithLabelValues(source).Inc()
	m.SearchDuration.WithLabelValues(source).Observe(durationSeconds)
}

// RecordCandidates records the relevance filter outcome for one source.
func (m *Metrics) RecordCandidates(source string, admitted, rejected int) {
	m.CandidatesAdmitted.WithLabelValues(source).Add(float64(admitted))
	m.CandidatesRejected.WithLabelValues(source).Add(float64(rejected))
}

// RecordArticlesSelected records the selection size of one request.
func (m *Metrics) RecordArticlesSelected(count int) {
	m.ArticlesSelected.Observe(float64(count))
}

// RecordCitationsInserted records the markers inserted into one document.
func (m *Metrics) RecordCitationsInserted(count int) {
	m.CitationsInserted.Add(float64(count))
}

// RecordStageDegraded records a stage that fell back to its default.
func (m *Metrics) RecordStageDegraded(component string) {
	m.StagesDegraded.WithLabelValues(component).Inc()
}

// RecordSourceRequest records a request to a source.
func (m *Metrics) RecordSourceRequest(source, endpoint string, durationSeconds float64) {
	m.SourceRequestsTotal.WithLabelValues(source, endpoint).Inc()
	m.SourceRequestDuration.WithLabelValues(source, endpoint).Observe(durationSeconds)
}

// RecordSourceRequestFailed records a failed request to a source. Rate limit
// responses are also counted separately.
func (m *Metrics) RecordSourceRequestFailed(source, endpoint, errorType string) {
	m.SourceRequestsFailed.WithLabelValues(source, endpoint, errorType).Inc()
	if errorType == "rate_limited" {
		m.SourceRateLimited.WithLabelValues(source).Inc()
	}
}
