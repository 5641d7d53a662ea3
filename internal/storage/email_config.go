package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Provider type tags stored in email_config.provider_type
const (
	ProviderSMTP     = "smtp"
	ProviderMailgun  = "mailgun"
	ProviderSendGrid = "sendgrid"
)

// EmailConfig is a tenant's outbound-mail configuration. MailPassword always
// holds ciphertext; it is decrypted through the vault only at dispatch time
// or when a caller explicitly opts in for an edit flow.
type EmailConfig struct {
	ID                     int64     `json:"id"`
	UserID                 int64     `json:"user_id"`
	MailServer             string    `json:"mail_server"`
	MailPort               int       `json:"mail_port"`
	MailUseTLS             bool      `json:"mail_use_tls"`
	MailUseSSL             bool      `json:"mail_use_ssl"`
	MailUsername           string    `json:"mail_username"`
	MailPassword           string    `json:"mail_password"`
	MailDefaultSenderName  string    `json:"mail_default_sender_name"`
	MailDefaultSenderEmail string    `json:"mail_default_sender_email"`
	ProviderType           string    `json:"provider_type"`
	ProviderConfig         string    `json:"provider_config"`
	IsActive               bool      `json:"is_active"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// ProviderSettings parses the provider_config JSON blob. A missing or empty
// blob yields an empty map.
func (c *EmailConfig) ProviderSettings() (map[string]string, error) {
	settings := map[string]string{}
	if c.ProviderConfig == "" {
		return settings, nil
	}
	if err := json.Unmarshal([]byte(c.ProviderConfig), &settings); err != nil {
		return nil, fmt.Errorf("parsing provider_config: %w", err)
	}
	return settings, nil
}

// EmailConfigParams carries the writable fields of an email configuration.
// Password is plaintext here; Upsert encrypts it before persisting.
type EmailConfigParams struct {
	MailServer             string
	MailPort               int
	MailUseTLS             bool
	MailUseSSL             bool
	MailUsername           string
	MailPassword           string
	MailDefaultSenderName  string
	MailDefaultSenderEmail string
	ProviderType           string
	ProviderConfig         map[string]string
}

const emailConfigColumns = `id, user_id, mail_server, mail_port, mail_use_tls, mail_use_ssl,
	mail_username, mail_password, mail_default_sender_name, mail_default_sender_email,
	provider_type, COALESCE(provider_config, ''), is_active, created_at, updated_at`

func scanEmailConfig(row *sql.Row) (*EmailConfig, error) {
	cfg := &EmailConfig{}
	err := row.Scan(&cfg.ID, &cfg.UserID, &cfg.MailServer, &cfg.MailPort, &cfg.MailUseTLS,
		&cfg.MailUseSSL, &cfg.MailUsername, &cfg.MailPassword, &cfg.MailDefaultSenderName,
		&cfg.MailDefaultSenderEmail, &cfg.ProviderType, &cfg.ProviderConfig, &cfg.IsActive,
		&cfg.CreatedAt, &cfg.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return cfg, err
}

// GetActiveEmailConfig retrieves the tenant's active configuration, or nil
// when none exists. At most one active row per user is guaranteed by a
// partial unique index on (user_id) WHERE is_active.
func (s *Store) GetActiveEmailConfig(ctx context.Context, userID int64) (*EmailConfig, error) {
	query := `SELECT ` + emailConfigColumns + ` FROM email_config WHERE user_id = $1 AND is_active = TRUE`
	return scanEmailConfig(s.db.QueryRowContext(ctx, query, userID))
}

// GetEmailConfig retrieves the tenant's configuration regardless of the
// active flag, or nil when none exists.
func (s *Store) GetEmailConfig(ctx context.Context, userID int64) (*EmailConfig, error) {
	query := `SELECT ` + emailConfigColumns + ` FROM email_config WHERE user_id = $1`
	return scanEmailConfig(s.db.QueryRowContext(ctx, query, userID))
}

// UpsertEmailConfig creates the tenant's configuration or updates the
// existing row in place, re-encrypting the password through the vault and
// leaving exactly one active row for the user.
func (s *Store) UpsertEmailConfig(ctx context.Context, userID int64, params EmailConfigParams) (*EmailConfig, error) {
	encrypted, err := s.vault.Encrypt(params.MailPassword)
	if err != nil {
		return nil, fmt.Errorf("encrypting mail password: %w", err)
	}

	providerType := params.ProviderType
	if providerType == "" {
		providerType = ProviderSMTP
	}
	providerConfig, err := json.Marshal(params.ProviderConfig)
	if err != nil {
		return nil, fmt.Errorf("encoding provider_config: %w", err)
	}
	if params.ProviderConfig == nil {
		providerConfig = []byte("{}")
	}

	existing, err := s.GetEmailConfig(ctx, userID)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		query := `INSERT INTO email_config (user_id, mail_server, mail_port, mail_use_tls, mail_use_ssl,
			mail_username, mail_password, mail_default_sender_name, mail_default_sender_email,
			provider_type, provider_config, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, TRUE, NOW(), NOW())
			RETURNING ` + emailConfigColumns
		return scanEmailConfig(s.db.QueryRowContext(ctx, query, userID, params.MailServer,
			params.MailPort, params.MailUseTLS, params.MailUseSSL, params.MailUsername,
			encrypted, params.MailDefaultSenderName, params.MailDefaultSenderEmail,
			providerType, string(providerConfig)))
	}

	query := `UPDATE email_config SET mail_server = $2, mail_port = $3, mail_use_tls = $4,
		mail_use_ssl = $5, mail_username = $6, mail_password = $7, mail_default_sender_name = $8,
		mail_default_sender_email = $9, provider_type = $10, provider_config = $11,
		is_active = TRUE, updated_at = NOW()
		WHERE user_id = $1
		RETURNING ` + emailConfigColumns
	return scanEmailConfig(s.db.QueryRowContext(ctx, query, userID, params.MailServer,
		params.MailPort, params.MailUseTLS, params.MailUseSSL, params.MailUsername,
		encrypted, params.MailDefaultSenderName, params.MailDefaultSenderEmail,
		providerType, string(providerConfig)))
}

// DeleteEmailConfig removes the tenant's configuration.
func (s *Store) DeleteEmailConfig(ctx context.Context, userID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM email_config WHERE user_id = $1`, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// MigrateEmailConfig switches an existing configuration to one of the HTTP
// delivery providers, overwriting transport defaults to match the provider
// and storing API credentials in provider_config.
func (s *Store) MigrateEmailConfig(ctx context.Context, userID int64, providerType string, params map[string]string) (*EmailConfig, error) {
	var server string
	settings := map[string]string{}

	switch providerType {
	case ProviderMailgun:
		server = "smtp.mailgun.org"
		settings["domain"] = params["domain"]
		settings["api_key"] = params["api_key"]
	case ProviderSendGrid:
		server = "smtp.sendgrid.net"
		settings["api_key"] = params["api_key"]
	default:
		return nil, fmt.Errorf("unsupported migration target %q", providerType)
	}

	providerConfig, err := json.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("encoding provider_config: %w", err)
	}

	query := `UPDATE email_config SET provider_type = $2, mail_server = $3, mail_port = 587,
		mail_use_tls = TRUE, mail_use_ssl = FALSE, provider_config = $4, updated_at = NOW()
		WHERE user_id = $1
		RETURNING ` + emailConfigColumns
	cfg, err := scanEmailConfig(s.db.QueryRowContext(ctx, query, userID, providerType, server, string(providerConfig)))
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, ErrNotFound
	}
	return cfg, nil
}
