// Package metrics declares the Prometheus collectors of the fare service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TicketsPurchased = promauto.NewCounter(prometheus.CounterOpts{
		Name: "metro_tickets_purchased_total",
		Help: "The total number of tickets bought from a wallet",
	})
	TicketsSoldOffline = promauto.NewCounter(prometheus.CounterOpts{
		Name: "metro_tickets_sold_offline_total",
		Help: "The total number of tickets issued at a counter",
	})
	PurchasesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "metro_purchases_rejected_total",
		Help: "The total number of purchases refused, by reason",
	}, []string{"reason"})
	Scans = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "metro_ticket_scans_total",
		Help: "The total number of gate scans, by direction and outcome",
	}, []string{"direction", "outcome"})
	TopUps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "metro_wallet_topups_total",
		Help: "The total number of successful wallet top-ups",
	})
	GraphRebuilds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "metro_graph_rebuilds_total",
		Help: "The total number of network graph rebuilds",
	})
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "metro_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
