// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "video_transcript"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Request metrics
	RequestsTotal    prometheus.Counter
	RequestsActive   prometheus.Gauge
	RequestsByStatus *prometheus.CounterVec
	RequestDuration  prometheus.Histogram
	StageFailures    *prometheus.CounterVec

	// Acquisition metrics
	AcquireLatency    prometheus.Histogram
	AudioBytesFetched prometheus.Counter

	// Model stream metrics
	ModelLatency      prometheus.Histogram
	FragmentsReceived prometheus.Counter
	BytesStreamed     prometheus.Counter
	StreamsDiscarded  *prometheus.CounterVec

	// Extraction metrics
	ExtractionOutcomes *prometheus.CounterVec
	SegmentsExtracted  prometheus.Counter

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec

	// RPC metrics
	RPCRequests *prometheus.CounterVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of transcription requests started",
		}),
		RequestsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "requests_active",
			Help:      "Number of transcription requests in flight",
		}),
		RequestsByStatus: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_completed_total",
			Help:      "Total number of completed requests by result status",
		}, []string{"status"}),
		RequestDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "End-to-end pipeline duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 180, 300},
		}),
		StageFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_failures_total",
			Help:      "Total number of pipeline failures by error category",
		}, []string{"category"}),

		AcquireLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "acquire_latency_seconds",
			Help:      "Audio acquisition latency in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		AudioBytesFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_fetched_total",
			Help:      "Total bytes of acquired audio",
		}),

		ModelLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_stream_latency_seconds",
			Help:      "Time to fully drain the model response stream",
			Buckets:   []float64{1, 2, 5, 10, 30, 60, 120, 300},
		}),
		FragmentsReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_fragments_total",
			Help:      "Total number of response fragments received from the model",
		}),
		BytesStreamed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_bytes_streamed_total",
			Help:      "Total response bytes streamed from the model",
		}),
		StreamsDiscarded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_streams_discarded_total",
			Help:      "Total number of response buffers discarded before completion",
		}, []string{"reason"}),

		ExtractionOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_outcomes_total",
			Help:      "Total number of extraction results by outcome",
		}, []string{"outcome"}),
		SegmentsExtracted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_extracted_total",
			Help:      "Total number of transcript segments decoded from structured output",
		}),

		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),

		RPCRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "Total number of RPC calls by method and code",
		}, []string{"method", "code"}),
	}
}

// RecordRequestStart records a new pipeline run starting.
func (m *Metrics) RecordRequestStart() {
	m.RequestsTotal.Inc()
	m.RequestsActive.Inc()
}

// RecordRequestEnd records a pipeline run ending with the given status.
func (m *Metrics) RecordRequestEnd(status string, durationSeconds float64) {
	m.RequestsActive.Dec()
	m.RequestDuration.Observe(durationSeconds)
	m.RequestsByStatus.WithLabelValues(status).Inc()
}

// RecordFailure records a failed run by error category.
func (m *Metrics) RecordFailure(category string) {
	m.StageFailures.WithLabelValues(category).Inc()
}

// RecordAcquired records a completed audio acquisition.
func (m *Metrics) RecordAcquired(bytes int64, latencySeconds float64) {
	m.AcquireLatency.Observe(latencySeconds)
	m.AudioBytesFetched.Add(float64(bytes))
}

// RecordFragment records one response fragment.
func (m *Metrics) RecordFragment(bytes int) {
	m.FragmentsReceived.Inc()
	m.BytesStreamed.Add(float64(bytes))
}

// RecordStreamDrained records the time taken to drain a model stream.
func (m *Metrics) RecordStreamDrained(latencySeconds float64) {
	m.ModelLatency.Observe(latencySeconds)
}

// RecordStreamDiscarded records a buffer dropped before the stream completed.
func (m *Metrics) RecordStreamDiscarded(reason string) {
	m.StreamsDiscarded.WithLabelValues(reason).Inc()
}

// RecordExtraction records an extraction outcome and decoded segment count.
func (m *Metrics) RecordExtraction(outcome string, segments int) {
	m.ExtractionOutcomes.WithLabelValues(outcome).Inc()
	if segments > 0 {
		m.SegmentsExtracted.Add(float64(segments))
	}
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}

// RecordRPC records a completed RPC call.
func (m *Metrics) RecordRPC(method, code string) {
	m.RPCRequests.WithLabelValues(method, code).Inc()
}
