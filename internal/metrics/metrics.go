// Package metrics exposes the service's Prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_sessions_created_total",
			Help: "Total number of assessment sessions created",
		},
		[]string{"strategy"},
	)

	SessionTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_session_transitions_total",
			Help: "Total number of session lifecycle transitions",
		},
		[]string{"status"},
	)

	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_submissions_total",
			Help: "Total number of answer submissions",
		},
		[]string{"result"}, // correct, incorrect, rejected
	)

	SubmissionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "assessment_submission_duration_seconds",
			Help:    "Time spent committing an answer submission",
			Buckets: prometheus.DefBuckets,
		},
	)

	AnswerTime = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "assessment_answer_time_seconds",
			Help:    "Candidate-reported time taken per answer",
			Buckets: []float64{5, 10, 20, 30, 60, 120, 300, 600},
		},
	)

	SelectionShortfall = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "assessment_selection_shortfall_total",
			Help: "Sessions created with fewer questions than requested",
		},
	)

	CommitCompensations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_commit_compensations_total",
			Help: "Submission commits rolled back, by failing step",
		},
		[]string{"step"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "assessment_active_sessions_current",
			Help: "Current number of active or paused sessions in this instance",
		},
	)
)

// Submission results.
const (
	ResultCorrect   = "correct"
	ResultIncorrect = "incorrect"
	ResultRejected  = "rejected"
)
