package analysis

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultOK    = "ok"
	resultError = "error"
)

var analyzeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "unveil",
	Subsystem: "analysis",
	Name:      "requests_total",
	Help:      "Bias analysis calls by result.",
}, []string{"result"})
