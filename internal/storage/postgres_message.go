package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm/clause"

	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/apperrors"
	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/model"
	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/observer"
	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/tenant"
	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/pkg/logger"
	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/pkg/utils"
)

// SaveMessage upserts a message on the (tenant_id, message_id) idempotency
// key. Redelivery of the same message id refreshes the stored row.
func (r *PostgresRepo) SaveMessage(ctx context.Context, message model.InboundMessage) error {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to get tenant ID: %w", apperrors.ErrUnauthorized, err)
	}
	if tenantID != message.TenantID {
		return fmt.Errorf("%w: message TenantID %s does not match tenant ID %s", apperrors.ErrBadRequest, message.TenantID, tenantID)
	}

	message.UpdatedAt = utils.Now() // Ensure UpdatedAt is set for potential update

	operation := func() error {
		result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "message_id"}},
			DoUpdates: clause.AssignmentColumns(message.GetUpdatableFields()),
		}).Create(&message)

		if result.Error != nil {
			return checkConstraintViolation(result.Error)
		}
		return nil // Success
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "SaveMessage Commit", operation)
	observer.ObserveDbOperationDuration("upsert", "message", tenantID, time.Since(startTime), commitErr)

	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to save message after retries", zap.String("message_id", message.MessageID), zap.Error(commitErr))
		return commitErr // Already wrapped
	}

	return nil
}
