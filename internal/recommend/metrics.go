package recommend

import "github.com/prometheus/client_golang/prometheus"

var (
	aiRequestsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "booking_service",
		Subsystem: "recommend",
		Name:      "ai_requests_total",
		Help:      "Number of augmentation attempts against the AI service.",
	})

	aiFallbacksCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "booking_service",
		Subsystem: "recommend",
		Name:      "ai_fallbacks_total",
		Help:      "Number of augmentations that fell back to the rule-based score, labeled by stage.",
	}, []string{"stage"})

	rankDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "booking_service",
		Subsystem: "recommend",
		Name:      "rank_duration_seconds",
		Help:      "Time spent producing a ranked suggestion list.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	})

	breakerRejections = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "booking_service",
		Subsystem: "recommend",
		Name:      "ai_breaker_rejections_total",
		Help:      "Number of AI calls rejected by the open circuit breaker.",
	})
)

func init() {
	prometheus.MustRegister(aiRequestsCounter, aiFallbacksCounter, rankDuration, breakerRejections)
}
