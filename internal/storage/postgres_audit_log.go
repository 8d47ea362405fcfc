package storage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/model"
	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/observer"
	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/pkg/logger"
	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/pkg/utils"
)

// SaveAuditLog appends one audit row. Runs without a tenant context check:
// auth failures must be audited too, before any tenant was resolved.
func (r *PostgresRepo) SaveAuditLog(ctx context.Context, log model.WebhookAuditLog) error {
	if log.ReceivedAt.IsZero() {
		log.ReceivedAt = utils.Now()
	}

	operation := func() error {
		if err := r.db.WithContext(ctx).Create(&log).Error; err != nil {
			return checkConstraintViolation(err)
		}
		return nil // Success
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "SaveAuditLog Commit", operation)
	observer.ObserveDbOperationDuration("insert", "audit_log", log.TenantID, time.Since(startTime), commitErr)

	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to save audit log after retries",
			zap.String("tenant_id", log.TenantID),
			zap.String("status", log.Status),
			zap.Error(commitErr))
		return commitErr // Already wrapped
	}

	return nil
}
