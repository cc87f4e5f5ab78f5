package stories

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultOK    = "ok"
	resultEmpty = "empty"
	resultError = "error"
)

var fetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "unveil",
	Subsystem: "stories",
	Name:      "fetches_total",
	Help:      "Story fetches by result. Empty and failed fetches show the placeholder.",
}, []string{"result"})
