package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RegistrationsTotal counts Register calls by outcome
	RegistrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "excentrica_registrations_total",
			Help: "Event registration attempts by result",
		},
		[]string{"result"}, // created, not_found, deadline, capacity, duplicate, error
	)

	// DrawDuration tracks how long winner selection takes, including the transaction
	DrawDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "excentrica_draw_duration_seconds",
			Help: "Duration of sorteo winner selection in seconds",
			Buckets: []float64{
				0.001, // 1ms
				0.005, // 5ms
				0.01,  // 10ms
				0.05,  // 50ms
				0.1,   // 100ms
				0.5,   // 500ms
				1.0,   // 1s
				5.0,   // 5s
			},
		},
		[]string{"status"}, // success or failure
	)

	WinnersSelectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "excentrica_winners_selected_total",
			Help: "Number of sorteo participants marked as winners",
		},
	)

	// HTTPRequestDuration tracks API latency by route template
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "excentrica_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

func RecordRegistration(result string) {
	RegistrationsTotal.WithLabelValues(result).Inc()
}

// RecordDraw records the duration of a draw and the winners it produced
func RecordDraw(status string, duration float64, winners int) {
	DrawDuration.WithLabelValues(status).Observe(duration)
	if winners > 0 {
		WinnersSelectedTotal.Add(float64(winners))
	}
}

func RecordHTTPRequest(method, route, status string, duration float64) {
	HTTPRequestDuration.WithLabelValues(method, route, status).Observe(duration)
}
