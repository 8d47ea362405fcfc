package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/apperrors"
	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/model"
	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/pkg/utils"
)

func TestPostgresRepo_SaveContact_Insert(t *testing.T) {
	repo, mock := newTestRepo(t)
	ctx := contextWithTenant()
	contact := model.Contact{
		ID:           "11111111-2222-3333-4444-555555555555",
		TenantID:     testTenantID,
		Jid:          "6281234567890@s.whatsapp.net",
		Phone:        "6281234567890",
		PushName:     "Budi",
		Origin:       model.OriginMetaAds,
		UtmSource:    "facebook",
		TrackingData: datatypes.JSON(utils.MustMarshalJSON(map[string]interface{}{"utm_source": "facebook"})),
		FirstSeenAt:  utils.Now(),
		LastSeenAt:   utils.Now(),
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "contacts" WHERE tenant_id = \$1 AND jid = \$2 .* FOR UPDATE`).
		WithArgs(contact.TenantID, contact.Jid, 1).
		WillReturnError(gorm.ErrRecordNotFound)
	mock.ExpectExec(`INSERT INTO "contacts"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.SaveContact(ctx, contact)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_SaveContact_Update(t *testing.T) {
	repo, mock := newTestRepo(t)
	ctx := contextWithTenant()
	now := time.Now()
	contact := model.Contact{
		ID:       "11111111-2222-3333-4444-555555555555",
		TenantID: testTenantID,
		Jid:      "6281234567890@s.whatsapp.net",
		PushName: "Budi Updated",
	}
	existingCols := []string{"id", "tenant_id", "jid", "push_name", "created_at", "updated_at"}
	existingRows := sqlmock.NewRows(existingCols).
		AddRow(contact.ID, contact.TenantID, contact.Jid, "Budi", now.Add(-time.Hour), now.Add(-time.Minute))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "contacts" WHERE tenant_id = \$1 AND jid = \$2 .* FOR UPDATE`).
		WithArgs(contact.TenantID, contact.Jid, 1).
		WillReturnRows(existingRows)
	mock.ExpectExec(`UPDATE "contacts" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.SaveContact(ctx, contact)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_SaveContact_TenantMismatch(t *testing.T) {
	repo, mock := newTestRepo(t)
	ctx := contextWithTenant()
	contact := model.Contact{ID: "contact-mismatch", TenantID: "wrong-tenant", Jid: "jid"}

	err := repo.SaveContact(ctx, contact)
	assert.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_FindContactByJid_Found(t *testing.T) {
	repo, mock := newTestRepo(t)
	ctx := contextWithTenant()
	now := time.Now()
	cols := []string{"id", "tenant_id", "jid", "push_name", "origin", "created_at", "updated_at"}
	rows := sqlmock.NewRows(cols).
		AddRow("contact-id-1", testTenantID, "6281234567890@s.whatsapp.net", "Budi", model.OriginMetaAds, now.Add(-time.Hour), now.Add(-time.Minute))

	mock.ExpectQuery(`SELECT \* FROM "contacts" WHERE tenant_id = \$1 AND jid = \$2`).
		WithArgs(testTenantID, "6281234567890@s.whatsapp.net", 1).
		WillReturnRows(rows)

	found, err := repo.FindContactByJid(ctx, "6281234567890@s.whatsapp.net")
	assert.NoError(t, err)
	assert.NotNil(t, found)
	assert.Equal(t, "contact-id-1", found.ID)
	assert.Equal(t, model.OriginMetaAds, found.Origin)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_FindContactByJid_NotFound(t *testing.T) {
	repo, mock := newTestRepo(t)
	ctx := contextWithTenant()

	mock.ExpectQuery(`SELECT \* FROM "contacts" WHERE tenant_id = \$1 AND jid = \$2`).
		WithArgs(testTenantID, "missing@s.whatsapp.net", 1).
		WillReturnError(gorm.ErrRecordNotFound)

	found, err := repo.FindContactByJid(ctx, "missing@s.whatsapp.net")
	assert.Nil(t, found)
	assert.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_SaveContact_LockError(t *testing.T) {
	repo, mock := newTestRepo(t)
	ctx := contextWithTenant()
	contact := model.Contact{ID: "contact-lock-err", TenantID: testTenantID, Jid: "jid-1"}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "contacts" WHERE tenant_id = \$1 AND jid = \$2 .* FOR UPDATE`).
		WithArgs(contact.TenantID, contact.Jid, 1).
		WillReturnError(errors.New("permission denied for table contacts"))
	mock.ExpectRollback()

	err := repo.SaveContact(ctx, contact)
	assert.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDatabase)
	assert.NoError(t, mock.ExpectationsWereMet())
}
