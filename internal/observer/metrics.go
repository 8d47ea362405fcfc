package observer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricsEnabled = true // Flag to control metric collection

	// Labels for webhook delivery metrics
	webhookLabels       = []string{"provider", "tenant_id", "status"}
	webhookDurationOpts = []string{"provider", "tenant_id"}

	WebhooksReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_ingestor_webhooks_received_total",
			Help: "Total number of inbound webhook calls, labeled by final audit status.",
		},
		webhookLabels,
	)

	WebhookProcessingDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webhook_ingestor_processing_duration_seconds",
			Help:    "Histogram of webhook processing durations.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
		},
		webhookDurationOpts,
	)

	ContactsAttributedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_ingestor_contacts_attributed_total",
			Help: "Total number of contact upserts, labeled by origin classification.",
		},
		[]string{"tenant_id", "origin"},
	)

	AuditWriteFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_ingestor_audit_write_failures_total",
			Help: "Total number of audit rows that could not be written.",
		},
		[]string{"tenant_id"},
	)
)

// Labels for database operations
var (
	dbOperationLabels = []string{"operation", "entity", "tenant_id", "status"}

	DatabaseOperationDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webhook_ingestor_db_operation_duration_seconds",
			Help:    "Histogram of database operation durations.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
		},
		dbOperationLabels,
	)
)

// --- Lead Trigger Worker Pool Metrics ---
var (
	leadLabels       = []string{"tenant_id"}
	leadStatusLabels = []string{"tenant_id", "status"}

	leadTriggersSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_ingestor_lead_triggers_submitted_total",
			Help: "Total number of lead-creation triggers submitted to the worker pool.",
		},
		leadLabels,
	)
	leadTriggersProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_ingestor_lead_triggers_processed_total",
			Help: "Total number of lead-creation triggers processed, labeled by final status.",
		},
		leadStatusLabels,
	)
	leadTriggerDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webhook_ingestor_lead_trigger_duration_seconds",
			Help:    "Histogram of lead-creation call durations.",
			Buckets: prometheus.DefBuckets,
		},
		leadLabels,
	)
	leadQueueLength = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "webhook_ingestor_lead_queue_length",
		Help: "Approximate number of tasks waiting in the lead trigger worker pool queue.",
	})
)

// InitMetrics initializes the Prometheus metrics if enabled.
// Call this function during application startup.
func InitMetrics(enabled bool) {
	metricsEnabled = enabled
}

// IncWebhooksReceived increments the webhook counter for a final audit status.
func IncWebhooksReceived(provider, tenant, status string) {
	if !metricsEnabled {
		return
	}
	WebhooksReceivedTotal.WithLabelValues(provider, sanitizeTenant(tenant), status).Inc()
}

// ObserveWebhookProcessingDuration records the processing time for one webhook call.
func ObserveWebhookProcessingDuration(provider, tenant string, duration time.Duration) {
	if !metricsEnabled {
		return
	}
	WebhookProcessingDurationSeconds.WithLabelValues(provider, sanitizeTenant(tenant)).Observe(duration.Seconds())
}

// IncContactsAttributed increments the contact upsert counter by origin.
func IncContactsAttributed(tenant, origin string) {
	if !metricsEnabled {
		return
	}
	ContactsAttributedTotal.WithLabelValues(sanitizeTenant(tenant), origin).Inc()
}

// IncAuditWriteFailures increments the counter for failed audit log writes.
func IncAuditWriteFailures(tenant string) {
	if !metricsEnabled {
		return
	}
	AuditWriteFailuresTotal.WithLabelValues(sanitizeTenant(tenant)).Inc()
}

// ObserveDbOperationDuration records the duration for a database operation.
func ObserveDbOperationDuration(operation, entity, tenant string, duration time.Duration, err error) {
	if !metricsEnabled {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	DatabaseOperationDurationSeconds.WithLabelValues(operation, entity, sanitizeTenant(tenant), status).Observe(duration.Seconds())
}

// --- Lead Trigger Metric Helpers ---

// IncLeadTriggersSubmitted increments the counter for submitted lead triggers.
func IncLeadTriggersSubmitted(tenant string) {
	if !metricsEnabled {
		return
	}
	leadTriggersSubmittedTotal.WithLabelValues(sanitizeTenant(tenant)).Inc()
}

// IncLeadTriggersProcessed increments the counter for processed lead triggers by status.
func IncLeadTriggersProcessed(tenant, status string) {
	if !metricsEnabled {
		return
	}
	leadTriggersProcessedTotal.WithLabelValues(sanitizeTenant(tenant), status).Inc()
}

// ObserveLeadTriggerDuration records the duration of one lead-creation call.
func ObserveLeadTriggerDuration(tenant string, duration time.Duration) {
	if !metricsEnabled {
		return
	}
	leadTriggerDurationSeconds.WithLabelValues(sanitizeTenant(tenant)).Observe(duration.Seconds())
}

// SetLeadQueueLength sets the current lead trigger queue length.
func SetLeadQueueLength(length int) {
	if !metricsEnabled {
		return
	}
	leadQueueLength.Set(float64(length))
}

// sanitizeTenant ensures the tenant label is valid or returns a default value.
func sanitizeTenant(tenant string) string {
	if tenant == "" {
		return "unknown"
	}
	return tenant
}
