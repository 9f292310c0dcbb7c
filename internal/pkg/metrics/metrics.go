package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

var (
	AttendanceWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "site_attendance",
		Name:      "attendance_writes_total",
		Help:      "Attendance write operations by operation, resulting state and outcome.",
	}, []string{"operation", "state", "outcome"})

	ReconciledGroups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "site_attendance",
		Name:      "reconciled_groups_total",
		Help:      "Duplicate or legacy record groups processed by the reconciliation run.",
	}, []string{"outcome"})

	ReconciledRecordsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "site_attendance",
		Name:      "reconciled_records_deleted_total",
		Help:      "Duplicate records removed while merging groups.",
	})

	MigrationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "site_attendance",
		Name:      "migration_duration_seconds",
		Help:      "Wall time of migration runs.",
		Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
	}, []string{"migration", "outcome"})

	ReportDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "site_attendance",
		Name:      "report_duration_seconds",
		Help:      "Rollup query latency by report.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"report", "outcome"})
)

// Outcome maps an error to its outcome label.
func Outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}
