package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/apperrors"
	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/model"
	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/observer"
	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/tenant"
	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/pkg/logger"
	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/pkg/utils"
)

// SaveContact saves or updates a contact record keyed by (tenant_id, jid).
// The existing row is locked first so the caller's read-merge-write sequence
// is not clobbered by a concurrent save of the same contact.
func (r *PostgresRepo) SaveContact(ctx context.Context, contact model.Contact) error {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to get tenant ID from context: %w", apperrors.ErrUnauthorized, err)
	}
	if tenantID != contact.TenantID {
		return fmt.Errorf("%w: contact TenantID %s does not match tenant ID %s", apperrors.ErrBadRequest, contact.TenantID, tenantID)
	}

	operation := func() error {
		tx := r.db.WithContext(ctx).Begin()
		if tx.Error != nil {
			return fmt.Errorf("%w: failed to begin transaction: %w", apperrors.ErrDatabase, tx.Error)
		}
		var txErr error
		defer func() {
			if r := recover(); r != nil {
				tx.Rollback()
				panic(r)
			} else if txErr != nil {
				if rbErr := tx.Rollback().Error; rbErr != nil {
					logger.FromContext(ctx).Error("Failed to rollback transaction after error", zap.Error(rbErr), zap.NamedError("originalTxError", txErr))
				}
			}
		}()

		var existingContact model.Contact
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tenant_id = ? AND jid = ?", contact.TenantID, contact.Jid).
			First(&existingContact)
		findErr := result.Error

		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				// Contact doesn't exist, create it
				if createErr := tx.Create(&contact).Error; createErr != nil {
					txErr = checkConstraintViolation(createErr)
					return txErr
				}
			} else {
				txErr = fmt.Errorf("%w: failed to lock contact row: %w", apperrors.ErrDatabase, findErr)
				return txErr
			}
		} else {
			contact.ID = existingContact.ID
			contact.CreatedAt = existingContact.CreatedAt // Preserve created_at
			if updateErr := tx.Model(&existingContact).
				Select(contact.GetUpdatableFields()).
				Updates(contact).Error; updateErr != nil {
				txErr = checkConstraintViolation(updateErr)
				return txErr
			}
		}
		if commitErr := tx.Commit().Error; commitErr != nil {
			txErr = fmt.Errorf("%w: failed to commit save transaction: %w", apperrors.ErrDatabase, commitErr)
			return txErr
		}
		return nil // Success
	}

	commitPolicy := newRetryPolicy(ctx, commitRetryMaxElapsedTime)
	startTime := utils.Now()
	commitErr := retryableOperation(ctx, commitPolicy, "SaveContact Commit", operation)
	observer.ObserveDbOperationDuration("save", "contact", tenantID, time.Since(startTime), commitErr)
	if commitErr != nil {
		logger.FromContext(ctx).Error("Failed to save contact after retries", zap.Error(commitErr))
		return commitErr
	}
	return nil
}

// FindContactByJid finds a contact by its canonical sender identifier.
func (r *PostgresRepo) FindContactByJid(ctx context.Context, jid string) (*model.Contact, error) {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get tenant ID from context: %w", apperrors.ErrUnauthorized, err)
	}
	loggerCtx := logger.FromContext(ctx)

	var contact model.Contact
	operation := func() error {
		result := r.db.WithContext(ctx).Where("tenant_id = ? AND jid = ?", tenantID, jid).First(&contact)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: jid %s: %w", apperrors.ErrNotFound, jid, result.Error)
			}
			return fmt.Errorf("%w: query failed: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil // Success
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	findErr := retryableOperation(ctx, readPolicy, "FindContactByJid", operation)
	observer.ObserveDbOperationDuration("find_by_jid", "contact", tenantID, time.Since(startTime), findErr)

	if findErr != nil {
		if errors.Is(findErr, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		loggerCtx.Error("Failed to find contact by jid after retries",
			zap.String("jid", jid),
			zap.String("tenant_id", tenantID),
			zap.Error(findErr))
		return nil, findErr
	}
	return &contact, nil
}
