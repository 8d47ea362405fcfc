package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/apperrors"
	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/model"
	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/observer"
	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/pkg/logger"
	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/pkg/utils"
)

// The webhook config and profile lookups run during authentication, before
// any tenant ID is placed in the request context. They intentionally do not
// require a tenant context.

// FindWebhookConfigByTenantID loads the enabled webhook config for a tenant.
func (r *PostgresRepo) FindWebhookConfigByTenantID(ctx context.Context, tenantID string) (*model.WebhookConfig, error) {
	loggerCtx := logger.FromContext(ctx)

	var cfg model.WebhookConfig
	operation := func() error {
		result := r.db.WithContext(ctx).Where("tenant_id = ? AND enabled = ?", tenantID, true).First(&cfg)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: webhook config for tenant %s: %w", apperrors.ErrNotFound, tenantID, result.Error)
			}
			return fmt.Errorf("%w: query failed: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil // Success
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	findErr := retryableOperation(ctx, readPolicy, "FindWebhookConfigByTenantID", operation)
	observer.ObserveDbOperationDuration("find_by_tenant", "webhook_config", tenantID, time.Since(startTime), findErr)

	if findErr != nil {
		if errors.Is(findErr, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		loggerCtx.Error("Failed to find webhook config by tenant after retries",
			zap.String("tenant_id", tenantID),
			zap.Error(findErr))
		return nil, findErr
	}
	return &cfg, nil
}

// FindWebhookConfigsBySecret lists all enabled webhook configs whose stored
// secret equals the supplied one. The resolver accepts the result only when
// exactly one tenant matches.
func (r *PostgresRepo) FindWebhookConfigsBySecret(ctx context.Context, secret string) ([]model.WebhookConfig, error) {
	loggerCtx := logger.FromContext(ctx)

	var configs []model.WebhookConfig
	operation := func() error {
		result := r.db.WithContext(ctx).Where("secret = ? AND enabled = ?", secret, true).Find(&configs)
		if result.Error != nil {
			return fmt.Errorf("%w: query failed: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil // Success, even if no records found
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	findErr := retryableOperation(ctx, readPolicy, "FindWebhookConfigsBySecret", operation)
	observer.ObserveDbOperationDuration("find_by_secret", "webhook_config", "", time.Since(startTime), findErr)

	if findErr != nil {
		loggerCtx.Error("Failed to find webhook configs by secret after retries", zap.Error(findErr))
		return nil, findErr // Already wrapped
	}
	if configs == nil { // Ensure empty slice is returned, not nil
		return []model.WebhookConfig{}, nil
	}
	return configs, nil
}

// FindProfileByUserID resolves a provider-side user identifier to its tenant.
func (r *PostgresRepo) FindProfileByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	loggerCtx := logger.FromContext(ctx)

	var profile model.Profile
	operation := func() error {
		result := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: profile for user %s: %w", apperrors.ErrNotFound, userID, result.Error)
			}
			return fmt.Errorf("%w: query failed: %w", apperrors.ErrDatabase, result.Error)
		}
		return nil // Success
	}

	readPolicy := newRetryPolicy(ctx, readRetryMaxElapsedTime)
	startTime := utils.Now()
	findErr := retryableOperation(ctx, readPolicy, "FindProfileByUserID", operation)
	observer.ObserveDbOperationDuration("find_by_user", "profile", "", time.Since(startTime), findErr)

	if findErr != nil {
		if errors.Is(findErr, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		loggerCtx.Error("Failed to find profile by user ID after retries",
			zap.String("user_id", userID),
			zap.Error(findErr))
		return nil, findErr
	}
	return &profile, nil
}
