package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_requests_total",
	Help: "Total number of requests labelled by path and status",
}, []string{"path", "status"})

var countJobsInQueue = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "count_index_jobs_in_queue",
	Help: "Number of index jobs waiting for a worker",
})

var dispatcherSignalCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "dispatcher_worker_starts_total",
	Help: "How often the dispatcher has started a worker",
})

var activeWorkerCount = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "active_worker_count",
	Help: "Number of active workers",
})

var indexJobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rag_index_jobs_total",
	Help: "Finished index jobs labelled by type and final status",
}, []string{"type", "status"})

var indexJobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "rag_index_job_duration_seconds",
	Help:    "Time spent processing one index job.",
	Buckets: []float64{.1, .5, 1, 2, 5, 10, 30, 60, 300},
}, []string{"type"})

var answersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rag_answers_total",
	Help: "Answered questions labelled by outcome",
}, []string{"outcome"})

var answerConfidence = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "rag_answer_confidence",
	Help:    "Confidence reported with each answer.",
	Buckets: []float64{0, .2, .4, .6, .7, .8, .9, 1},
})

var answerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "rag_answer_duration_seconds",
	Help:    "Total time spent answering one question.",
	Buckets: []float64{.1, .5, 1, 2, 5, 10, 30},
}, []string{"outcome"})

var dependencyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "dependency_latency_seconds",
	Help:    "Latency of external service calls.",
	Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10},
}, []string{"service"})

// HttpStatusRecorder remembers the status code written by a handler.
type HttpStatusRecorder struct {
	http.ResponseWriter
	Status int
}

func NewHttpStatusRecorder(w http.ResponseWriter) *HttpStatusRecorder {
	return &HttpStatusRecorder{ResponseWriter: w, Status: http.StatusOK}
}

func (r *HttpStatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *HttpStatusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *HttpStatusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func CaptureHttpRequest(path string, status int) {
	HttpRequestsTotal.WithLabelValues(path, strconv.Itoa(status)).Inc()
}

func IncrementJobsInQueue() {
	countJobsInQueue.Inc()
}

func DecrementJobsInQueue() {
	countJobsInQueue.Dec()
}

func StartDispatcherSignalCount() {
	dispatcherSignalCount.Inc()
}

func IncrementActiveWorkerCount() {
	activeWorkerCount.Inc()
}

func DecrementActiveWorkerCount() {
	activeWorkerCount.Dec()
}

func CaptureExecutionMetrics(label string, timeElapsed time.Duration) {
	dependencyLatency.WithLabelValues(label).Observe(timeElapsed.Seconds())
}

func CaptureAnswer(outcome string, confidence float64, timeElapsed time.Duration) {
	answersTotal.WithLabelValues(outcome).Inc()
	answerConfidence.Observe(confidence)
	answerDuration.WithLabelValues(outcome).Observe(timeElapsed.Seconds())
}

func CaptureIndexJob(jobType, status string, timeElapsed time.Duration) {
	indexJobsTotal.WithLabelValues(jobType, status).Inc()
	indexJobDuration.WithLabelValues(jobType).Observe(timeElapsed.Seconds())
}
