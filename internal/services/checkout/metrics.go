package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	checkoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_checkouts_total",
		Help: "Checkout attempts by outcome.",
	}, []string{"outcome"})

	orderLinesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_order_lines_total",
		Help: "Cart lines processed at checkout by result.",
	}, []string{"result"})

	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_notifications_total",
		Help: "Order confirmation publications by outcome.",
	}, []string{"outcome"})
)
