package storage

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"

	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/model"
	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/pkg/utils"
)

func TestPostgresRepo_SaveAuditLog_Ok(t *testing.T) {
	repo, mock := newTestRepo(t)
	log := model.WebhookAuditLog{
		TenantID:    testTenantID,
		Provider:    "wasender",
		Jid:         "6281234567890@s.whatsapp.net",
		MessageID:   "msg-1",
		Status:      model.AuditStatusOK,
		BodyPreview: "halo",
		RawPayload:  datatypes.JSON(utils.MustMarshalJSON(map[string]interface{}{"from": "6281234567890"})),
		ReceivedAt:  utils.Now(),
	}

	mock.ExpectQuery(`INSERT INTO "webhook_audit_logs" .* RETURNING "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	err := repo.SaveAuditLog(contextWithTenant(), log)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_SaveAuditLog_WithoutTenantContext(t *testing.T) {
	// Auth failures are audited before a tenant is resolved; the write must
	// not require a tenant context.
	repo, mock := newTestRepo(t)
	log := model.WebhookAuditLog{
		Provider: "wasender",
		Status:   model.AuditStatusUnauthorized,
		Detail:   "invalid webhook secret",
	}

	mock.ExpectQuery(`INSERT INTO "webhook_audit_logs" .* RETURNING "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))

	err := repo.SaveAuditLog(context.Background(), log)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
