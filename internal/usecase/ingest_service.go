package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/apperrors"
	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/model"
	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/normalizer"
	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/observer"
	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/tenant"
	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/validator"
	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/pkg/logger"
	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/pkg/utils"
)

// ProcessResult summarizes what one inbound call produced. A call with no
// extractable sender succeeds with an empty Jid: only the audit log
// distinguishes it.
type ProcessResult struct {
	Jid          string
	Phone        string
	MessageID    string
	Origin       string
	ContactSaved bool
}

// ProcessInbound runs the full ingestion pipeline for an authenticated call.
// The tenant must already be present in the context. Exactly one audit row is
// written no matter which path the call takes.
func (s *WebhookService) ProcessInbound(ctx context.Context, provider string, rawBody []byte) (*ProcessResult, error) {
	tenantID, err := tenant.FromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get tenant ID: %w", apperrors.ErrUnauthorized, err)
	}
	log := logger.FromContext(ctx).With(
		zap.String("provider", provider),
		zap.String("tenant_id", tenantID),
	)

	start := time.Now()
	defer func() {
		observer.ObserveWebhookProcessingDuration(provider, tenantID, time.Since(start))
	}()

	dec := json.NewDecoder(bytes.NewReader(rawBody))
	dec.UseNumber() // Numeric ids must not be float-mangled
	var root map[string]interface{}
	if decodeErr := dec.Decode(&root); decodeErr != nil {
		log.Warn("Rejecting non-JSON webhook body", zap.Error(decodeErr))
		s.audit(ctx, model.WebhookAuditLog{
			TenantID:    tenantID,
			Provider:    provider,
			Status:      model.AuditStatusMalformed,
			Detail:      decodeErr.Error(),
			BodyPreview: truncate(string(rawBody), s.bodyPreviewChars()),
		})
		observer.IncWebhooksReceived(provider, tenantID, model.AuditStatusMalformed)
		return nil, fmt.Errorf("%w: %w", apperrors.ErrMalformedPayload, decodeErr)
	}

	payloadKeys := topLevelKeys(root)

	msg, containers := normalizer.Normalize(root)
	if msg.Jid == "" {
		// Known aliases found nothing; deep-scan the whole tree.
		if raw := normalizer.ScanForSender(root, s.scanMaxDepth()); raw != "" {
			msg.Jid, msg.Phone = normalizer.DeriveJid(raw)
			log.Debug("Sender recovered by fallback scan", zap.String("jid", msg.Jid))
		}
	}
	if msg.Jid != "" && msg.MessageID == "" {
		msg.MessageID = msg.Jid + "_" + strconv.FormatInt(utils.Now().Unix(), 10)
	}

	if msg.Jid == "" {
		// Not an error: accept and log so operators can see the tenant
		// received something unusable.
		log.Info("Webhook payload carries no recognizable sender", zap.Strings("payload_keys", keysAsStrings(payloadKeys)))
		s.audit(ctx, model.WebhookAuditLog{
			TenantID:    tenantID,
			Provider:    provider,
			Status:      model.AuditStatusOK,
			Detail:      "no sender identifier found",
			BodyPreview: truncate(msg.Body, s.bodyPreviewChars()),
			PayloadKeys: payloadKeys,
			RawPayload:  datatypes.JSON(rawBody),
		})
		observer.IncWebhooksReceived(provider, tenantID, model.AuditStatusOK)
		return &ProcessResult{}, nil
	}

	origin, td := normalizer.ExtractAttribution(containers)

	contact, err := s.upsertContact(ctx, tenantID, msg, td, origin)
	if err != nil {
		s.auditPipelineError(ctx, tenantID, provider, msg, payloadKeys, rawBody, err)
		return nil, err
	}

	message := model.InboundMessage{
		TenantID:         tenantID,
		MessageID:        msg.MessageID,
		Jid:              msg.Jid,
		PushName:         msg.PushName,
		Phone:            msg.Phone,
		MessageType:      msg.MessageType,
		Body:             msg.Body,
		IsGroup:          msg.IsGroup,
		GroupName:        msg.GroupName,
		AvatarURL:        msg.AvatarURL,
		MessageTimestamp: msg.Timestamp.Unix(),
		RawPayload:       datatypes.JSON(rawBody),
	}
	if err := validator.Validate(&message); err != nil {
		validationErr := fmt.Errorf("%w: %w", apperrors.ErrValidation, err)
		s.auditPipelineError(ctx, tenantID, provider, msg, payloadKeys, rawBody, validationErr)
		return nil, validationErr
	}
	if err := s.messageRepo.SaveMessage(ctx, message); err != nil {
		s.auditPipelineError(ctx, tenantID, provider, msg, payloadKeys, rawBody, err)
		return nil, err
	}

	s.audit(ctx, model.WebhookAuditLog{
		TenantID:    tenantID,
		Provider:    provider,
		Jid:         msg.Jid,
		MessageID:   msg.MessageID,
		Status:      model.AuditStatusOK,
		MessageType: msg.MessageType,
		BodyPreview: truncate(msg.Body, s.bodyPreviewChars()),
		PayloadKeys: payloadKeys,
		RawPayload:  datatypes.JSON(rawBody),
	})
	observer.IncWebhooksReceived(provider, tenantID, model.AuditStatusOK)

	// Fire-and-forget: the lead trigger never affects the response.
	if s.leadWorker != nil {
		task := LeadTaskData{
			Ctx:       context.WithoutCancel(ctx),
			TenantID:  tenantID,
			Jid:       msg.Jid,
			Phone:     msg.Phone,
			PushName:  msg.PushName,
			AvatarURL: msg.AvatarURL,
		}
		if submitErr := s.leadWorker.SubmitTask(task); submitErr != nil {
			log.Warn("Lead trigger dropped", zap.Error(submitErr))
		}
	}

	return &ProcessResult{
		Jid:          msg.Jid,
		Phone:        msg.Phone,
		MessageID:    msg.MessageID,
		Origin:       contact.Origin,
		ContactSaved: true,
	}, nil
}

// upsertContact loads, merges and saves the contact for the resolved sender.
func (s *WebhookService) upsertContact(ctx context.Context, tenantID string, msg *normalizer.NormalizedMessage, td *model.TrackingData, origin string) (*model.Contact, error) {
	log := logger.FromContext(ctx)

	contact, err := s.contactRepo.FindContactByJid(ctx, msg.Jid)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		contact = &model.Contact{
			ID:          uuid.New().String(),
			TenantID:    tenantID,
			Jid:         msg.Jid,
			FirstSeenAt: msg.Timestamp,
		}
	}

	// Profile fields are not attribution: refresh them when the payload
	// carries fresher values.
	if msg.Phone != "" {
		contact.Phone = msg.Phone
	}
	if msg.PushName != "" {
		contact.PushName = msg.PushName
	}
	if msg.AvatarURL != "" {
		contact.AvatarURL = msg.AvatarURL
	}
	if msg.Timestamp.After(contact.LastSeenAt) {
		contact.LastSeenAt = msg.Timestamp
	}
	if contact.FirstSeenAt.IsZero() {
		contact.FirstSeenAt = msg.Timestamp
	}

	if err := applyAttribution(contact, td, origin, msg.Timestamp, s.historyLimit()); err != nil {
		log.Error("Failed to encode contact tracking data", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", apperrors.ErrValidation, err)
	}

	if err := validator.Validate(contact); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrValidation, err)
	}

	if err := s.contactRepo.SaveContact(ctx, *contact); err != nil {
		return nil, err
	}
	observer.IncContactsAttributed(tenantID, contact.Origin)
	return contact, nil
}

// AuditAuthFailure records a delivery rejected before (or during) tenant
// resolution. TenantID may be empty when nothing resolved.
func (s *WebhookService) AuditAuthFailure(ctx context.Context, tenantID, provider string, rawBody []byte, authErr error) {
	s.audit(ctx, model.WebhookAuditLog{
		TenantID:    tenantID,
		Provider:    provider,
		Status:      model.AuditStatusUnauthorized,
		Detail:      authErr.Error(),
		BodyPreview: truncate(string(rawBody), s.bodyPreviewChars()),
	})
	observer.IncWebhooksReceived(provider, tenantID, model.AuditStatusUnauthorized)
}

// AuditInternalFailure records a delivery that failed before the pipeline
// could run, such as a tenant-resolution lookup error or an unreadable body.
// TenantID may be empty when nothing resolved.
func (s *WebhookService) AuditInternalFailure(ctx context.Context, tenantID, provider string, rawBody []byte, cause error) {
	s.audit(ctx, model.WebhookAuditLog{
		TenantID:    tenantID,
		Provider:    provider,
		Status:      model.AuditStatusError,
		Detail:      cause.Error(),
		BodyPreview: truncate(string(rawBody), s.bodyPreviewChars()),
	})
	observer.IncWebhooksReceived(provider, tenantID, model.AuditStatusError)
}

// audit writes one audit row. A failure to audit-log is logged to the side
// channel and never fails the request.
func (s *WebhookService) audit(ctx context.Context, entry model.WebhookAuditLog) {
	entry.ReceivedAt = utils.Now()
	if err := s.auditRepo.SaveAuditLog(ctx, entry); err != nil {
		observer.IncAuditWriteFailures(entry.TenantID)
		logger.FromContext(ctx).Error("Failed to write webhook audit log",
			zap.String("provider", entry.Provider),
			zap.String("status", entry.Status),
			zap.Error(err))
	}
}

func (s *WebhookService) auditPipelineError(ctx context.Context, tenantID, provider string, msg *normalizer.NormalizedMessage, payloadKeys datatypes.JSON, rawBody []byte, pipelineErr error) {
	s.audit(ctx, model.WebhookAuditLog{
		TenantID:    tenantID,
		Provider:    provider,
		Jid:         msg.Jid,
		MessageID:   msg.MessageID,
		Status:      model.AuditStatusError,
		Detail:      pipelineErr.Error(),
		MessageType: msg.MessageType,
		BodyPreview: truncate(msg.Body, s.bodyPreviewChars()),
		PayloadKeys: payloadKeys,
		RawPayload:  datatypes.JSON(rawBody),
	})
	observer.IncWebhooksReceived(provider, tenantID, model.AuditStatusError)
}

// topLevelKeys renders the sorted top-level keys of a payload as a JSON array.
func topLevelKeys(root map[string]interface{}) datatypes.JSON {
	if len(root) == 0 {
		return nil
	}
	keys := make([]string, 0, len(root))
	for k := range root {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return datatypes.JSON(utils.MustMarshalJSON(keys))
}

func keysAsStrings(raw datatypes.JSON) []string {
	var keys []string
	if len(raw) > 0 {
		_ = utils.UnmarshalJSON(raw, &keys)
	}
	return keys
}

func truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
