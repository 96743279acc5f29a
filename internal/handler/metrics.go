package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var webhooksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "checkout_service",
	Subsystem: "webhook",
	Name:      "requests_total",
	Help:      "Total number of inbound payment webhooks by outcome.",
}, []string{"outcome"})
