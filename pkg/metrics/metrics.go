package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ml_requests_total",
		Help: "Total HTTP requests by path and status",
	}, []string{"path", "status"})

	RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ml_request_duration_seconds",
		Help:    "Latency of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"path"})

	PredictionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ml_predictions_total",
		Help: "Total predictions served, tagged by experiment variant",
	}, []string{"variant"})

	PredictionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ml_prediction_duration_seconds",
		Help:    "Latency of recommendation scoring",
		Buckets: prometheus.DefBuckets,
	})

	FeedbackTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ml_feedback_total",
		Help: "Total feedback events by action",
	}, []string{"action"})

	ErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ml_errors_total",
		Help: "Total errors by kind",
	}, []string{"kind"})

	TrainingDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ml_training_duration_seconds",
		Help:    "Wall time of model training runs",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
	})

	ModelCoveragePercent = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ml_model_coverage_percent",
		Help: "Nonzero-cell coverage of the active interaction matrix",
	})

	ModelAvgUserSimilarity = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ml_model_avg_user_similarity",
		Help: "Mean of the active user-user similarity matrix",
	})

	ModelNumUsers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ml_model_num_users",
		Help: "Users in the active model snapshot",
	})

	ModelNumEvents = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ml_model_num_events",
		Help: "Events in the active model snapshot",
	})
)

func Init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		PredictionsTotal,
		PredictionDuration,
		FeedbackTotal,
		ErrorsTotal,
		TrainingDuration,
		ModelCoveragePercent,
		ModelAvgUserSimilarity,
		ModelNumUsers,
		ModelNumEvents,
	)
}

// SetValidationMetrics publishes post-training validation gauges.
func SetValidationMetrics(coverage, avgSimilarity float64, numUsers, numEvents int) {
	ModelCoveragePercent.Set(coverage)
	ModelAvgUserSimilarity.Set(avgSimilarity)
	ModelNumUsers.Set(float64(numUsers))
	ModelNumEvents.Set(float64(numEvents))
}
