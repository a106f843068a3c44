package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// Config labels every series exported by the process.
type Config struct {
	ServiceName string
	Environment string
}

const (
	TaskReasonDeadlineExceeded     = "deadline_exceeded"
	TaskReasonDBLockTimeout        = "db_lock_timeout"
	TaskReasonSerializationFailure = "serialization_failure"
	TaskReasonUniqueViolation      = "unique_violation"
	TaskReasonDecode               = "decode"
	TaskReasonUnknown              = "unknown"
)

const (
	MeasurementAdded   = "added"
	MeasurementUpdated = "updated"
	MeasurementRemoved = "removed"
)

// Metrics groups the operational counters of the sync and metering workers.
type Metrics struct {
	syncOutcomes        *prometheus.CounterVec
	staleDeleted        prometheus.Counter
	measurementChanges  *prometheus.CounterVec
	offeringSyncResults *prometheus.CounterVec
	eventsSaved         *prometheus.CounterVec
	meteringErrors      *prometheus.CounterVec
	eventsPurged        prometheus.Counter
	taskDuration        *prometheus.HistogramVec
	taskErrors          *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	instance    *Metrics
)

// Default returns the process wide metrics registered on the default registerer.
func Default() *Metrics {
	return WithConfig(Config{})
}

func WithConfig(cfg Config) *Metrics {
	metricsOnce.Do(func() {
		instance = newMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return instance
}

// ResetForTest resets the metrics singleton for tests.
func ResetForTest() {
	metricsOnce = sync.Once{}
	instance = nil
}

// NewForRegistry builds an unshared instance, mostly for tests.
func NewForRegistry(registerer prometheus.Registerer, cfg Config) *Metrics {
	return newMetrics(registerer, cfg)
}

func newMetrics(registerer prometheus.Registerer, cfg Config) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "tally"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	m := &Metrics{
		syncOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "tally_subscription_sync_total",
			Help:        "Remote subscriptions processed by sync outcome.",
			ConstLabels: constLabels,
		}, []string{"outcome"}),
		staleDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "tally_subscription_stale_deleted_total",
			Help:        "Local subscriptions deleted because the upstream no longer reports them.",
			ConstLabels: constLabels,
		}),
		measurementChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "tally_capacity_measurement_changes_total",
			Help:        "Capacity measurement changes applied during reconciliation.",
			ConstLabels: constLabels,
		}, []string{"change"}),
		offeringSyncResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "tally_offering_sync_total",
			Help:        "Offering syncs by result.",
			ConstLabels: constLabels,
		}, []string{"result"}),
		eventsSaved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "tally_usage_events_saved_total",
			Help:        "Usage events persisted from metering queries.",
			ConstLabels: constLabels,
		}, []string{"product_tag"}),
		meteringErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "tally_metering_query_errors_total",
			Help:        "Metering queries that returned an error status.",
			ConstLabels: constLabels,
		}, []string{"product_tag"}),
		eventsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "tally_usage_events_purged_total",
			Help:        "Usage events removed by the retention policy.",
			ConstLabels: constLabels,
		}),
		taskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "tally_task_duration_seconds",
			Help:        "Task handler latency by topic.",
			Buckets:     []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			ConstLabels: constLabels,
		}, []string{"topic"}),
		taskErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "tally_task_errors_total",
			Help:        "Task handler failures by topic and low-cardinality reason.",
			ConstLabels: constLabels,
		}, []string{"topic", "reason"}),
	}

	registerer.MustRegister(
		m.syncOutcomes,
		m.staleDeleted,
		m.measurementChanges,
		m.offeringSyncResults,
		m.eventsSaved,
		m.meteringErrors,
		m.eventsPurged,
		m.taskDuration,
		m.taskErrors,
	)
	return m
}

func (m *Metrics) IncSyncOutcome(outcome string) {
	if m == nil {
		return
	}
	m.syncOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AddStaleDeleted(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.staleDeleted.Add(float64(count))
}

// AddMeasurementChanges records how many measurements were added, updated or removed.
func (m *Metrics) AddMeasurementChanges(change string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.measurementChanges.WithLabelValues(change).Add(float64(count))
}

func (m *Metrics) IncOfferingSync(result string) {
	if m == nil {
		return
	}
	m.offeringSyncResults.WithLabelValues(result).Inc()
}

func (m *Metrics) AddEventsSaved(productTag string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.eventsSaved.WithLabelValues(productTag).Add(float64(count))
}

func (m *Metrics) IncMeteringError(productTag string) {
	if m == nil {
		return
	}
	m.meteringErrors.WithLabelValues(productTag).Inc()
}

func (m *Metrics) AddEventsPurged(count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.eventsPurged.Add(float64(count))
}

func (m *Metrics) ObserveTaskDuration(topic string, duration time.Duration) {
	if m == nil {
		return
	}
	m.taskDuration.WithLabelValues(topic).Observe(duration.Seconds())
}

func (m *Metrics) IncTaskError(topic string, err error) {
	if m == nil || err == nil {
		return
	}
	m.taskErrors.WithLabelValues(topic, ClassifyTaskReason(err)).Inc()
}

// ErrDecode marks payloads that could not be decoded.
var ErrDecode = errors.New("task_payload_decode_failed")

// ClassifyTaskReason maps handler errors to low-cardinality reasons.
func ClassifyTaskReason(err error) string {
	switch {
	case err == nil:
		return TaskReasonUnknown
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return TaskReasonDeadlineExceeded
	case errors.Is(err, ErrDecode):
		return TaskReasonDecode
	case hasPGCode(err, "55P03"):
		return TaskReasonDBLockTimeout
	case hasPGCode(err, "40001"):
		return TaskReasonSerializationFailure
	case errors.Is(err, gorm.ErrDuplicatedKey) || hasPGCode(err, "23505"):
		return TaskReasonUniqueViolation
	default:
		return TaskReasonUnknown
	}
}

func hasPGCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}
