package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RetryAttempts tracks every attempt made by the retry driver
	RetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buswatch_retry_attempts_total",
			Help: "Total number of attempts per retried operation",
		},
		[]string{"operation", "outcome"},
	)

	// SignalsReceived tracks matched signals delivered by the bus
	SignalsReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "buswatch_signals_received_total",
			Help: "Total number of matched signals received",
		},
	)

	// DecodeFailures tracks signals whose payload could not be decoded
	DecodeFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "buswatch_decode_failures_total",
			Help: "Total number of signal payloads that failed to decode",
		},
	)

	// StreamErrors tracks bus-level errors on the signal stream
	StreamErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buswatch_stream_errors_total",
			Help: "Total number of errors receiving from the signal stream",
		},
		[]string{"kind"},
	)

	// LinesEmitted tracks lines written for the status bar
	LinesEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buswatch_lines_emitted_total",
			Help: "Total number of output lines written",
		},
		[]string{"type"},
	)

	// StateTransitions tracks watcher lifecycle transitions
	StateTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buswatch_state_transitions_total",
			Help: "Total number of watcher state transitions",
		},
		[]string{"from", "to"},
	)
)
