package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodgeway/checkin-server/internal/secrets"
)

func newTestStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	vault := secrets.NewVault(secrets.NewKeyManager("test-key-material", false), false)
	return NewStore(db, vault), mock
}

func emailConfigRows(password string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "user_id", "mail_server", "mail_port", "mail_use_tls", "mail_use_ssl",
		"mail_username", "mail_password", "mail_default_sender_name", "mail_default_sender_email",
		"provider_type", "provider_config", "is_active", "created_at", "updated_at",
	}).AddRow(1, 42, "smtp.example.com", 587, true, false,
		"mailer@example.com", password, "B&B Chapeau", "mailer@example.com",
		"smtp", `{}`, true, now, now)
}

func TestGetActiveEmailConfig(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectQuery(`SELECT .+ FROM email_config WHERE user_id = \$1 AND is_active = TRUE`).
		WithArgs(int64(42)).
		WillReturnRows(emailConfigRows("ciphertext"))

	cfg, err := store.GetActiveEmailConfig(context.Background(), 42)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, int64(42), cfg.UserID)
	assert.Equal(t, "smtp.example.com", cfg.MailServer)
	assert.True(t, cfg.MailUseTLS)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetActiveEmailConfigMissing(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectQuery(`SELECT .+ FROM email_config WHERE user_id = \$1 AND is_active = TRUE`).
		WithArgs(int64(7)).
		WillReturnError(sql.ErrNoRows)

	cfg, err := store.GetActiveEmailConfig(context.Background(), 7)
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestUpsertEmailConfigInsertsWhenMissing(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectQuery(`SELECT .+ FROM email_config WHERE user_id = \$1`).
		WithArgs(int64(42)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`INSERT INTO email_config`).
		WillReturnRows(emailConfigRows("ciphertext"))

	cfg, err := store.UpsertEmailConfig(context.Background(), 42, EmailConfigParams{
		MailServer:             "smtp.example.com",
		MailPort:               587,
		MailUseTLS:             true,
		MailUsername:           "mailer@example.com",
		MailPassword:           "app-password",
		MailDefaultSenderEmail: "mailer@example.com",
	})
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.True(t, cfg.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertEmailConfigUpdatesExisting(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectQuery(`SELECT .+ FROM email_config WHERE user_id = \$1`).
		WithArgs(int64(42)).
		WillReturnRows(emailConfigRows("old-ciphertext"))
	mock.ExpectQuery(`UPDATE email_config SET`).
		WillReturnRows(emailConfigRows("new-ciphertext"))

	cfg, err := store.UpsertEmailConfig(context.Background(), 42, EmailConfigParams{
		MailServer:             "smtp.example.com",
		MailPort:               587,
		MailUsername:           "mailer@example.com",
		MailPassword:           "rotated-password",
		MailDefaultSenderEmail: "mailer@example.com",
		ProviderType:           ProviderSMTP,
	})
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertEncryptsPasswordBeforePersisting(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectQuery(`SELECT .+ FROM email_config WHERE user_id = \$1`).
		WithArgs(int64(42)).
		WillReturnError(sql.ErrNoRows)
	// The persisted password must be ciphertext, never the plaintext value.
	mock.ExpectQuery(`INSERT INTO email_config`).
		WithArgs(int64(42), "smtp.example.com", 587, false, false, "u",
			notEqual("p"), "", "sender@example.com", "smtp", `{}`).
		WillReturnRows(emailConfigRows("ciphertext"))

	_, err := store.UpsertEmailConfig(context.Background(), 42, EmailConfigParams{
		MailServer:             "smtp.example.com",
		MailPort:               587,
		MailUsername:           "u",
		MailPassword:           "p",
		MailDefaultSenderEmail: "sender@example.com",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// notEqual matches any driver value except the given string.
type notEqual string

func (n notEqual) Match(v driver.Value) bool {
	s, ok := v.(string)
	return ok && s != string(n) && s != ""
}

func TestDeleteEmailConfig(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM email_config WHERE user_id = $1`)).
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.DeleteEmailConfig(context.Background(), 42))
}

func TestDeleteEmailConfigMissing(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM email_config WHERE user_id = $1`)).
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.DeleteEmailConfig(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMigrateEmailConfigMailgun(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectQuery(`UPDATE email_config SET provider_type = \$2`).
		WithArgs(int64(42), ProviderMailgun, "smtp.mailgun.org",
			`{"api_key":"key-123","domain":"mg.example.com"}`).
		WillReturnRows(emailConfigRows("ciphertext"))

	cfg, err := store.MigrateEmailConfig(context.Background(), 42, ProviderMailgun,
		map[string]string{"domain": "mg.example.com", "api_key": "key-123"})
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateEmailConfigUnknownProvider(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.MigrateEmailConfig(context.Background(), 42, "postmark", nil)
	assert.Error(t, err)
}

func TestProviderSettings(t *testing.T) {
	cfg := &EmailConfig{ProviderConfig: `{"domain":"mg.example.com","api_key":"key-123"}`}
	settings, err := cfg.ProviderSettings()
	require.NoError(t, err)
	assert.Equal(t, "mg.example.com", settings["domain"])
	assert.Equal(t, "key-123", settings["api_key"])

	empty := &EmailConfig{}
	settings, err = empty.ProviderSettings()
	require.NoError(t, err)
	assert.Empty(t, settings)

	bad := &EmailConfig{ProviderConfig: `{not json`}
	_, err = bad.ProviderSettings()
	assert.Error(t, err)
}
