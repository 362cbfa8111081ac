package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "signals_total", Help: "Decision signals received"},
		[]string{"action"},
	)
	ExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "executions_total", Help: "Trade attempts by terminal status"},
		[]string{"action", "status"},
	)
	RiskDenialsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "risk_denials_total", Help: "Trades denied by the risk gate"},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(SignalsTotal, ExecutionsTotal, RiskDenialsTotal)
}
