package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "checkout_service",
		Subsystem: "checkout",
		Name:      "orders_created_total",
		Help:      "Total number of orders persisted at checkout.",
	})

	checkoutFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "checkout_service",
		Subsystem: "checkout",
		Name:      "failed_total",
		Help:      "Total number of failed checkout submissions by stage.",
	}, []string{"stage"})

	reconciliationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "checkout_service",
		Subsystem: "reconcile",
		Name:      "events_total",
		Help:      "Total number of processed reconciliation events by result.",
	}, []string{"result"})

	reconcileDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "checkout_service",
		Subsystem: "reconcile",
		Name:      "duration_seconds",
		Help:      "Histogram of reconciliation durations in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	anomaliesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "checkout_service",
		Subsystem: "reconcile",
		Name:      "anomalies_total",
		Help:      "Total number of recorded reconciliation anomalies by reason.",
	}, []string{"reason"})

	eventsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "checkout_service",
		Subsystem: "reconcile",
		Name:      "events_dropped_total",
		Help:      "Total number of webhook events dropped because the queue was full.",
	})
)
