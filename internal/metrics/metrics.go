package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "actionserver_requests_received_total",
		Help: "Total number of webhook requests accepted for dispatch.",
	})

	UnknownActions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "actionserver_unknown_actions_total",
		Help: "Total number of requests naming an action with no stored descriptor.",
	})

	ActionsExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "actionserver_actions_executed_total",
		Help: "Total number of actions executed, labelled by type and status.",
	}, []string{"action_type", "status"})

	DispatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "actionserver_dispatch_duration_ms",
		Help:    "End-to-end action dispatch latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"action_type"})

	ScriptEvaluations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "actionserver_script_evaluations_total",
		Help: "Total number of script evaluations, labelled by outcome.",
	}, []string{"outcome"})

	AuditWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "actionserver_audit_records_written_total",
		Help: "Total number of audit records handed to a sink, labelled by sink and status.",
	}, []string{"sink", "status"})

	AuditDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "actionserver_audit_records_dropped_total",
		Help: "Total number of audit records rejected due to a full queue.",
	})

	AuditQueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "actionserver_audit_queue_utilization_ratio",
		Help: "Current audit queue utilization (0–1).",
	})

	StoreReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "actionserver_store_reloads_total",
		Help: "Total number of action store reloads, labelled by result.",
	}, []string{"result"})
)
