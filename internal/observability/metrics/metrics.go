// Package metrics expone contadores e histogramas Prometheus del motor.
// Si Init no se llamó, las funciones Observe*/Inc* no hacen nada.
package metrics

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/procurement-api/internal/domain"
)

const (
	metricPrefix = "procurement_"

	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	registerOnce sync.Once

	tenderTransitions *prometheus.CounterVec
	pricingConfirmed  *prometheus.CounterVec
	deliveriesTotal   *prometheus.CounterVec
	deliveryLatency   *prometheus.HistogramVec
	unitsReceived     *prometheus.CounterVec
	stockAdjustments  *prometheus.CounterVec
	eventsReplayed    prometheus.Counter
	projectionDrift   prometheus.Counter
	dashboardLatency  prometheus.Histogram
)

// Init registra las métricas en el registry por defecto. Es seguro llamarla más de una vez.
func Init() {
	registerOnce.Do(func() {
		tenderTransitions = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "tender_transitions_total",
				Help: "Lifecycle transitions by target state and result",
			},
			[]string{"to", "result"},
		)
		pricingConfirmed = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "pricing_confirmations_total",
				Help: "Pricing confirmations by result",
			},
			[]string{"result"},
		)
		deliveriesTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "deliveries_total",
				Help: "Delivery registrations by result and derived status",
			},
			[]string{"result", "status"},
		)
		deliveryLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "delivery_latency_seconds",
				Help:    "Delivery registration latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		unitsReceived = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "units_received_total",
				Help: "Units received by condition",
			},
			[]string{"condition"},
		)
		stockAdjustments = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "stock_adjustments_total",
				Help: "Manual stock adjustments by kind and result",
			},
			[]string{"kind", "result"},
		)
		eventsReplayed = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "events_replayed_total",
				Help: "Events replayed during projection rebuilds",
			},
		)
		projectionDrift = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "projection_drift_total",
				Help: "Items whose materialized stock differs from the event log",
			},
		)
		dashboardLatency = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "dashboard_latency_seconds",
				Help:    "Dashboard aggregation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
		)

		prometheus.MustRegister(
			tenderTransitions,
			pricingConfirmed,
			deliveriesTotal,
			deliveryLatency,
			unitsReceived,
			stockAdjustments,
			eventsReplayed,
			projectionDrift,
			dashboardLatency,
		)
	})
}

// Handler handler HTTP de Prometheus.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Result traduce un error en la etiqueta result. Los errores de dominio se etiquetan por su sentinel.
func Result(err error) string {
	switch {
	case err == nil:
		return ResultSuccess
	case errors.Is(err, domain.ErrOverDelivery):
		return "over_delivery"
	case errors.Is(err, domain.ErrQuantityMismatch):
		return "quantity_mismatch"
	case errors.Is(err, domain.ErrUnknownAcquisitionItem):
		return "unknown_item"
	case errors.Is(err, domain.ErrInvalidStateTransition), errors.Is(err, domain.ErrImmutableEntity):
		return "invalid_state"
	case errors.Is(err, domain.ErrRecordNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	default:
		return ResultError
	}
}

func IncTenderTransition(to string, err error) {
	if tenderTransitions != nil {
		tenderTransitions.WithLabelValues(to, Result(err)).Inc()
	}
}

func IncPricingConfirmed(err error) {
	if pricingConfirmed != nil {
		pricingConfirmed.WithLabelValues(Result(err)).Inc()
	}
}

// ObserveDelivery status vacío cuando la entrega fue rechazada.
func ObserveDelivery(status string, err error, duration time.Duration) {
	if status == "" {
		status = "none"
	}
	result := Result(err)
	if deliveriesTotal != nil {
		deliveriesTotal.WithLabelValues(result, status).Inc()
	}
	if deliveryLatency != nil {
		deliveryLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

func AddUnitsReceived(good, damaged, rejected int64) {
	if unitsReceived == nil {
		return
	}
	if good > 0 {
		unitsReceived.WithLabelValues("good").Add(float64(good))
	}
	if damaged > 0 {
		unitsReceived.WithLabelValues("damaged").Add(float64(damaged))
	}
	if rejected > 0 {
		unitsReceived.WithLabelValues("rejected").Add(float64(rejected))
	}
}

func IncStockAdjustment(kind string, err error) {
	if kind == "" {
		kind = "unknown"
	}
	if stockAdjustments != nil {
		stockAdjustments.WithLabelValues(kind, Result(err)).Inc()
	}
}

func AddEventsReplayed(n int) {
	if n <= 0 {
		return
	}
	if eventsReplayed != nil {
		eventsReplayed.Add(float64(n))
	}
}

func IncProjectionDrift() {
	if projectionDrift != nil {
		projectionDrift.Inc()
	}
}

func ObserveDashboard(duration time.Duration) {
	if dashboardLatency != nil {
		dashboardLatency.Observe(duration.Seconds())
	}
}
