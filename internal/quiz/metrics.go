package quiz

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeCorrect   = "correct"
	outcomeIncorrect = "incorrect"
	outcomeTimeout   = "timeout"
)

var (
	sessionsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "unveil",
		Subsystem: "quiz",
		Name:      "sessions_started_total",
		Help:      "Number of quiz sessions that entered play, by difficulty.",
	}, []string{"difficulty"})

	sessionsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "unveil",
		Subsystem: "quiz",
		Name:      "sessions_completed_total",
		Help:      "Number of quiz sessions that reached the results, by difficulty.",
	}, []string{"difficulty"})

	answers = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "unveil",
		Subsystem: "quiz",
		Name:      "answers_total",
		Help:      "Number of resolved questions, by outcome.",
	}, []string{"outcome"})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "unveil",
		Subsystem: "quiz",
		Name:      "active_sessions",
		Help:      "Number of sessions held by the manager.",
	})
)
