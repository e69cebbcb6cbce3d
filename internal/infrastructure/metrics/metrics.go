// Package metrics expone las métricas Prometheus del ledger y de la API HTTP.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jhoicas/pos-ledger-api/internal/application/ledger"
	"github.com/jhoicas/pos-ledger-api/internal/domain/entity"
)

var _ ledger.Metrics = (*LedgerMetrics)(nil)

// LedgerMetrics contadores e histograma de mutaciones del ledger.
// Se observan dentro de la transacción: una mutación "ok" puede terminar en rollback.
type LedgerMetrics struct {
	mutations         *prometheus.CounterVec
	latency           *prometheus.HistogramVec
	insufficientStock prometheus.Counter
	lockTimeouts      prometheus.Counter
}

// NewLedgerMetrics registra las métricas en reg.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	m := &LedgerMetrics{
		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pos_ledger_mutations_total",
				Help: "Mutaciones del ledger por operación, tipo de movimiento y resultado",
			},
			[]string{"op", "type", "result"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pos_ledger_mutation_duration_seconds",
				Help:    "Duración de las mutaciones del ledger (incluye la espera del bloqueo)",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		insufficientStock: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pos_ledger_insufficient_stock_total",
			Help: "Decrementos rechazados por stock insuficiente",
		}),
		lockTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pos_ledger_lock_timeouts_total",
			Help: "Mutaciones que agotaron la espera del bloqueo de fila",
		}),
	}
	reg.MustRegister(m.mutations, m.latency, m.insufficientStock, m.lockTimeouts)
	return m
}

func (m *LedgerMetrics) ObserveMutation(op string, movementType entity.MovementType, result string, elapsed time.Duration) {
	m.mutations.WithLabelValues(op, string(movementType), result).Inc()
	m.latency.WithLabelValues(op).Observe(elapsed.Seconds())
	switch result {
	case ledger.ResultInsufficientStock:
		m.insufficientStock.Inc()
	case ledger.ResultLockTimeout:
		m.lockTimeouts.Inc()
	}
}

// HTTPMetrics peticiones por método, ruta y estado.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewHTTPMetrics registra las métricas en reg.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pos_http_requests_total",
				Help: "Peticiones HTTP por método, ruta y estado",
			},
			[]string{"method", "route", "status"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pos_http_request_duration_seconds",
				Help:    "Duración de las peticiones HTTP",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
	reg.MustRegister(m.requests, m.latency)
	return m
}

// Middleware mide cada petición usando la ruta registrada (no la URL) para acotar las etiquetas.
func (m *HTTPMetrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		route := c.Route().Path
		m.requests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		m.latency.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}
