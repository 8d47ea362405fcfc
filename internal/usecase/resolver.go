package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/apperrors"
	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/storage"
	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/pkg/logger"
)

// AuthHint carries the credentials extracted from an inbound request: an
// optional explicit tenant id, an optional provider-side user id, and the
// shared secret from query or bearer header.
type AuthHint struct {
	TenantID string
	UserID   string
	Secret   string
}

// TenantResolver validates a shared secret against the stored webhook
// configuration and resolves which tenant an inbound call belongs to.
type TenantResolver struct {
	configRepo storage.WebhookConfigRepo
}

func NewTenantResolver(configRepo storage.WebhookConfigRepo) *TenantResolver {
	return &TenantResolver{configRepo: configRepo}
}

// Resolve returns the tenant ID for the supplied credentials.
// Resolution order: explicit tenant hint, then user hint via profile lookup,
// then a global secret search that succeeds only on a unique match.
// Read-only: no side effects.
func (r *TenantResolver) Resolve(ctx context.Context, hint AuthHint) (string, error) {
	if hint.Secret == "" {
		return "", apperrors.ErrMissingCredentials
	}

	if hint.TenantID != "" {
		return r.validateSecretForTenant(ctx, hint.TenantID, hint.Secret)
	}

	if hint.UserID != "" {
		profile, err := r.configRepo.FindProfileByUserID(ctx, hint.UserID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return "", fmt.Errorf("%w: no profile for user hint", apperrors.ErrInvalidSecret)
			}
			return "", err
		}
		return r.validateSecretForTenant(ctx, profile.TenantID, hint.Secret)
	}

	// No hint at all: the secret itself must identify exactly one tenant.
	configs, err := r.configRepo.FindWebhookConfigsBySecret(ctx, hint.Secret)
	if err != nil {
		return "", err
	}
	switch len(configs) {
	case 1:
		return configs[0].TenantID, nil
	case 0:
		return "", fmt.Errorf("%w: secret matches no tenant", apperrors.ErrInvalidSecret)
	default:
		logger.FromContext(ctx).Warn("Webhook secret matches multiple tenants, rejecting ambiguous auth",
			zap.Int("matches", len(configs)))
		return "", fmt.Errorf("%w: secret matches multiple tenants", apperrors.ErrInvalidSecret)
	}
}

func (r *TenantResolver) validateSecretForTenant(ctx context.Context, tenantID, secret string) (string, error) {
	cfg, err := r.configRepo.FindWebhookConfigByTenantID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", fmt.Errorf("%w: no webhook config for tenant %s", apperrors.ErrInvalidSecret, tenantID)
		}
		return "", err
	}
	if cfg.Secret != secret {
		return "", fmt.Errorf("%w: secret mismatch for tenant %s", apperrors.ErrInvalidSecret, tenantID)
	}
	return tenantID, nil
}
