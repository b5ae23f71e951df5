package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var RulesCreated = promauto.NewCounter(prometheus.CounterOpts{
	Name: "wellnessbot_rules_created_total",
	Help: "number of moderation rules created",
})

var WarningsIssued = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "wellnessbot_warnings_issued_total",
	Help: "number of warnings issued, by rule severity",
}, []string{"severity"})

var WarningsCleared = promauto.NewCounter(prometheus.CounterOpts{
	Name: "wellnessbot_warnings_cleared_total",
	Help: "number of warning rows retired by a clear action",
})

var ChecksCreated = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "wellnessbot_wellness_checks_created_total",
	Help: "number of wellness checks created",
}, []string{"auto_dm"})

var ChecksResolved = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "wellnessbot_wellness_checks_resolved_total",
	Help: "number of wellness checks resolved, by reason",
}, []string{"reason"})

var RemindersSent = promauto.NewCounter(prometheus.CounterOpts{
	Name: "wellnessbot_wellness_reminders_sent_total",
	Help: "number of wellness check reminders posted to the moderator chat",
})

var DMsFailed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "wellnessbot_dm_failures_total",
	Help: "number of direct messages that could not be delivered",
})

var MilestonesAnnounced = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "wellnessbot_milestones_announced_total",
	Help: "number of no-contact milestones announced, by day threshold",
}, []string{"days"})

var SweepRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "wellnessbot_sweep_runs_total",
	Help: "number of periodic sweep executions",
}, []string{"sweep", "result"})

var SweepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "wellnessbot_sweep_duration_seconds",
	Help:    "duration of periodic sweeps",
	Buckets: prometheus.DefBuckets,
}, []string{"sweep"})

var CommandsHandled = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "wellnessbot_commands_handled_total",
	Help: "number of bot commands handled",
}, []string{"command"})
