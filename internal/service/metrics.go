package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	balanceComputations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splitsmart_balance_computations_total",
		Help: "Number of balance engine runs.",
	})

	settlementTransfers = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splitsmart_settlement_transfers_total",
		Help: "Number of settle-up transfers emitted by settlement plans.",
	})

	rejectedDivisions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splitsmart_rejected_divisions_total",
		Help: "Number of expense divisions rejected by validation.",
	})
)
