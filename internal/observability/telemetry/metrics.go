package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	VoiceCommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicebridge_commands_total",
		Help: "Transcript submissions by outcome",
	}, []string{"status"})

	CommandLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voicebridge_command_latency_seconds",
		Help:    "Round-trip latency of transcript interpretation",
		Buckets: prometheus.DefBuckets,
	})

	StateSyncsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicebridge_state_syncs_total",
		Help: "UI state sync attempts by result",
	}, []string{"result"})

	SyncsSuppressedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voicebridge_syncs_suppressed_total",
		Help: "Syncs skipped because the state signature was unchanged",
	})

	VerificationOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicebridge_verification_outcomes_total",
		Help: "Post-execution verification outcomes by action type",
	}, []string{"action", "outcome"})

	ActionsRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voicebridge_actions_rejected_total",
		Help: "Raw resolver actions rejected by the validator",
	})

	PendingConfirmations = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voicebridge_pending_confirmations",
		Help: "Actions parked awaiting explicit user confirmation",
	})
)
