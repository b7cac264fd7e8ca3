package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Tracker counters and histograms.

var (
	// Poll coordinator
	PollRoundsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cellstate",
		Subsystem: "poll",
		Name:      "rounds_total",
		Help:      "Total poll rounds by outcome (completed, offline, aborted, canceled)",
	}, []string{"outcome"})

	PollStaleReplies = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cellstate",
		Subsystem: "poll",
		Name:      "stale_replies_total",
		Help:      "Replies dropped because their round was superseded",
	})

	PollReplyErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cellstate",
		Subsystem: "poll",
		Name:      "reply_errors_total",
		Help:      "Replies that carried an error or a malformed payload",
	}, []string{"request"})

	PollRoundLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cellstate",
		Subsystem: "poll",
		Name:      "round_duration_seconds",
		Help:      "Time from round start to completion",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})

	// Service state
	ServiceTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cellstate",
		Subsystem: "service",
		Name:      "transitions_total",
		Help:      "Service state transitions by event kind",
	}, []string{"kind"})

	ServiceInService = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "cellstate",
		Subsystem: "service",
		Name:      "in_service",
		Help:      "1 while the committed state is in service",
	})

	ServiceRoaming = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "cellstate",
		Subsystem: "service",
		Name:      "roaming",
		Help:      "1 while the committed state is roaming",
	})

	// Radio link
	RadioState = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "cellstate",
		Subsystem: "radio",
		Name:      "state",
		Help:      "Radio state (0 unavailable, 1 off, 2 on)",
	})

	// Signal strength
	SignalLevel = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "cellstate",
		Subsystem: "signal",
		Name:      "level",
		Help:      "Latest signal measurement (cdma_dbm, cdma_ecio, evdo_dbm, evdo_ecio, evdo_snr)",
	}, []string{"measure"})

	SignalReports = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cellstate",
		Subsystem: "signal",
		Name:      "reports_total",
		Help:      "Signal measurements received by source (poll, unsolicited, error)",
	}, []string{"source"})

	// Clock sync
	ClockSignalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cellstate",
		Subsystem: "clock",
		Name:      "signals_total",
		Help:      "Network time signals by outcome",
	}, []string{"outcome"})

	ClockZoneFixes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cellstate",
		Subsystem: "clock",
		Name:      "zone_changes_total",
		Help:      "Committed time zone changes",
	})

	// HTTP surface
	APIRateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cellstate",
		Subsystem: "api",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter",
	})

	TelemetryClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "cellstate",
		Subsystem: "telemetry",
		Name:      "clients",
		Help:      "Connected telemetry stream clients",
	})
)
