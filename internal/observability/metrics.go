package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Capture metrics
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voicord_active_sessions",
		Help: "Number of active recording sessions",
	})

	activeStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voicord_active_capture_streams",
		Help: "Number of open per-speaker capture streams",
	})

	captureBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voicord_capture_bytes_total",
		Help: "Total PCM bytes written by the capture sink",
	})

	// Segmentation metrics
	chunksProduced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicord_chunks_total",
		Help: "Total audio chunks produced by the segmenter",
	}, []string{"cut"}) // cut: "silence" or "fixed"

	// Transcription metrics
	transcriptionRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicord_transcription_requests_total",
		Help: "Total transcription backend requests",
	}, []string{"status"})

	transcriptionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voicord_transcription_latency_seconds",
		Help:    "Transcription backend latency in seconds",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	})

	// Summarization metrics
	summarizationRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicord_summarization_requests_total",
		Help: "Total summarization backend requests",
	}, []string{"status"})

	summarizationRounds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voicord_summarization_rounds",
		Help:    "Hierarchical summarization recursion rounds per call",
		Buckets: []float64{0, 1, 2, 3, 4, 5, 6, 7, 8},
	})

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicord_errors_total",
		Help: "Total number of errors",
	}, []string{"component"})
)

// RecordSessionStart records a recording session starting
func RecordSessionStart() {
	activeSessions.Inc()
}

// RecordSessionEnd records a recording session ending
func RecordSessionEnd() {
	activeSessions.Dec()
}

// RecordStreamOpened records a per-speaker capture stream opening
func RecordStreamOpened() {
	activeStreams.Inc()
}

// RecordStreamClosed records a per-speaker capture stream closing
func RecordStreamClosed() {
	activeStreams.Dec()
}

// RecordCaptureBytes records PCM bytes appended to a capture stream
func RecordCaptureBytes(n int) {
	captureBytes.Add(float64(n))
}

// RecordChunk records one chunk emitted by the segmenter.
// cut is "silence" when the boundary came from a silence point, "fixed" otherwise.
func RecordChunk(cut string) {
	chunksProduced.WithLabelValues(cut).Inc()
}

// RecordTranscription records a transcription backend call
func RecordTranscription(start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
		errorsTotal.WithLabelValues("transcribe").Inc()
	}
	transcriptionRequests.WithLabelValues(status).Inc()
	transcriptionLatency.Observe(time.Since(start).Seconds())
}

// RecordSummarization records a summarization backend call
func RecordSummarization(err error) {
	status := "success"
	if err != nil {
		status = "error"
		errorsTotal.WithLabelValues("summarize").Inc()
	}
	summarizationRequests.WithLabelValues(status).Inc()
}

// RecordSummarizationRounds records how many hierarchical rounds a summary took
func RecordSummarizationRounds(rounds int) {
	summarizationRounds.Observe(float64(rounds))
}

// RecordError records an error for a component
func RecordError(component string) {
	errorsTotal.WithLabelValues(component).Inc()
}
