package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodgeway/checkin-server/internal/email"
	"github.com/lodgeway/checkin-server/internal/secrets"
	"github.com/lodgeway/checkin-server/internal/storage"
)

// configRowWithPassword mirrors activeConfigRow but with a caller-chosen
// stored password value.
func configRowWithPassword(password string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "user_id", "mail_server", "mail_port", "mail_use_tls", "mail_use_ssl",
		"mail_username", "mail_password", "mail_default_sender_name", "mail_default_sender_email",
		"provider_type", "provider_config", "is_active", "created_at", "updated_at",
	}).AddRow(1, int64(0), "smtp.example.com", 587, true, false,
		"mailer@example.com", password, "B&B Chapeau", "mailer@example.com",
		"smtp", `{}`, true, now, now)
}

func TestGetEmailConfigMasksPassword(t *testing.T) {
	handler, mock, _ := newTestAPI(t)

	mock.ExpectQuery(`SELECT .+ FROM email_config`).WillReturnRows(configRowWithPassword("ciphertext"))

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/email-config/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp emailConfigResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "***", resp.MailPassword)
	assert.Equal(t, "smtp.example.com", resp.MailServer)
}

func TestGetEmailConfigIncludePassword(t *testing.T) {
	handler, mock, _ := newTestAPI(t)

	// A vault built from the same key material can produce tokens the
	// handler's vault will decrypt.
	vault := secrets.NewVault(secrets.NewKeyManager("api-test-key", false), false)
	encrypted, err := vault.Encrypt("app-password")
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT .+ FROM email_config`).WillReturnRows(configRowWithPassword(encrypted))

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/email-config/?include_password=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp emailConfigResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "app-password", resp.MailPassword)
}

func TestGetEmailConfigDecryptFailureReturnsEmptyPassword(t *testing.T) {
	handler, mock, _ := newTestAPI(t)

	mock.ExpectQuery(`SELECT .+ FROM email_config`).WillReturnRows(configRowWithPassword("garbage-token"))

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/email-config/?include_password=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp emailConfigResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "", resp.MailPassword)
}

func TestGetEmailConfigNotFound(t *testing.T) {
	handler, mock, _ := newTestAPI(t)

	mock.ExpectQuery(`SELECT .+ FROM email_config`).WillReturnError(sql.ErrNoRows)

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/email-config/", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSaveEmailConfigValidatesRequiredFields(t *testing.T) {
	handler, _, _ := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/email-config/", map[string]interface{}{
		"mail_server": "smtp.example.com",
		"mail_port":   587,
		// mail_username, mail_password, mail_default_sender_email missing
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing required field: mail_username")
}

func TestSaveEmailConfig(t *testing.T) {
	handler, mock, _ := newTestAPI(t)

	mock.ExpectQuery(`SELECT .+ FROM email_config WHERE user_id`).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`INSERT INTO email_config`).WillReturnRows(configRowWithPassword("ciphertext"))

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/email-config/", map[string]interface{}{
		"mail_server":               "smtp.example.com",
		"mail_port":                 587,
		"mail_username":             "mailer@example.com",
		"mail_password":             "app-password",
		"mail_default_sender_email": "mailer@example.com",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email configuration saved successfully")
	// The saved password is never echoed back.
	assert.Contains(t, rec.Body.String(), `"mail_password":"***"`)
}

func TestDeleteEmailConfigNotFound(t *testing.T) {
	handler, mock, _ := newTestAPI(t)

	mock.ExpectExec(`DELETE FROM email_config`).WillReturnResult(sqlmock.NewResult(0, 0))

	rec := doJSON(t, handler, http.MethodDelete, "/api/v1/email-config/", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListEmailPresets(t *testing.T) {
	handler, _, _ := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/email-config/presets", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var presets map[string]storage.Preset
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &presets))
	assert.Contains(t, presets, "gmail")
	assert.Contains(t, presets, "sendgrid")

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/email-config/presets/gmail", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/email-config/presets/fastmail", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTestEmailConfig(t *testing.T) {
	handler, mock, stub := newTestAPI(t)

	mock.ExpectQuery(`SELECT .+ FROM email_config`).WillReturnRows(configRowWithPassword("ciphertext"))

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/email-config/test",
		map[string]string{"test_email": "probe@example.com"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, stub.confirmations)
	assert.Equal(t, "probe@example.com", stub.lastTo)
	assert.Equal(t, "TEST123", stub.lastFields["reservation_number"])
	assert.Equal(t, "Test User", stub.lastFields["guest_name"])
}

func TestTestEmailConfigRequiresAddress(t *testing.T) {
	handler, _, _ := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/email-config/test", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTestEmailConfigFailureReturns400(t *testing.T) {
	handler, mock, stub := newTestAPI(t)
	stub.result = email.DispatchResult{
		Status:    email.StatusError,
		Message:   "Failed to send email: auth failed",
		ErrorType: email.ErrorTypeSend,
	}

	mock.ExpectQuery(`SELECT .+ FROM email_config`).WillReturnRows(configRowWithPassword("ciphertext"))

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/email-config/test",
		map[string]string{"test_email": "probe@example.com"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to send test email")
}

func TestMigrateEmailConfig(t *testing.T) {
	handler, mock, _ := newTestAPI(t)

	mock.ExpectQuery(`UPDATE email_config SET provider_type`).
		WillReturnRows(configRowWithPassword("ciphertext"))

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/email-config/migrate", map[string]string{
		"provider_type": "mailgun",
		"domain":        "mg.example.com",
		"api_key":       "key-123",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "migrated successfully")
}

func TestMigrateEmailConfigRequiresProvider(t *testing.T) {
	handler, _, _ := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/email-config/migrate", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/email-config/migrate",
		map[string]string{"provider_type": "postmark"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMigrateEmailConfigRequiresCredentials(t *testing.T) {
	handler, _, _ := newTestAPI(t)

	// Mailgun needs both domain and api_key.
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/email-config/migrate",
		map[string]string{"provider_type": "mailgun", "domain": "mg.example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "domain and api_key")

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/email-config/migrate",
		map[string]string{"provider_type": "mailgun", "api_key": "key-123"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/email-config/migrate",
		map[string]string{"provider_type": "sendgrid"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "api_key")
}
