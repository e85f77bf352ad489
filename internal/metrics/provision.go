package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	provisionOnce sync.Once

	provisionTotal    *prometheus.CounterVec
	provisionDuration prometheus.Histogram
	compensationTotal *prometheus.CounterVec
)

func initProvision() {
	provisionOnce.Do(func() {
		provisionTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "provision_attempts_total",
			Help: "Altas de usuario por resultado",
		}, []string{"outcome"})

		provisionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "provision_duration_seconds",
			Help:    "Duración de la secuencia completa de provisioning",
			Buckets: prometheus.DefBuckets,
		})

		compensationTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "provision_compensations_total",
			Help: "Acciones de compensación ejecutadas",
		}, []string{"step", "result"})

		prometheus.MustRegister(provisionTotal, provisionDuration, compensationTotal)
	})
}

// ObserveProvision registra el resultado y la duración de un intento.
// outcome: created | validation_error | identity_error | avatar_error |
// profile_error | internal_error.
func ObserveProvision(outcome string, d time.Duration) {
	initProvision()
	provisionTotal.WithLabelValues(outcome).Inc()
	provisionDuration.Observe(d.Seconds())
}

// ObserveCompensation registra una compensación (delete de identidad o
// de blob) y si funcionó.
func ObserveCompensation(step string, ok bool) {
	initProvision()
	result := "ok"
	if !ok {
		result = "failed"
	}
	compensationTotal.WithLabelValues(step, result).Inc()
}
