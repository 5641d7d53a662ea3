package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lodgeway/checkin-server/internal/email"
	"github.com/lodgeway/checkin-server/internal/storage"
)

// emailConfigResponse is the read shape for a tenant configuration. The
// password is masked by default; include_password=true returns the
// decrypted value for edit flows only.
type emailConfigResponse struct {
	ID                     int64  `json:"id"`
	UserID                 int64  `json:"user_id"`
	MailServer             string `json:"mail_server"`
	MailPort               int    `json:"mail_port"`
	MailUseTLS             bool   `json:"mail_use_tls"`
	MailUseSSL             bool   `json:"mail_use_ssl"`
	MailUsername           string `json:"mail_username"`
	MailPassword           string `json:"mail_password"`
	MailDefaultSenderName  string `json:"mail_default_sender_name"`
	MailDefaultSenderEmail string `json:"mail_default_sender_email"`
	ProviderType           string `json:"provider_type"`
	ProviderConfig         string `json:"provider_config"`
	IsActive               bool   `json:"is_active"`
}

func (h *Handlers) configResponse(cfg *storage.EmailConfig, password string) emailConfigResponse {
	return emailConfigResponse{
		ID:                     cfg.ID,
		UserID:                 cfg.UserID,
		MailServer:             cfg.MailServer,
		MailPort:               cfg.MailPort,
		MailUseTLS:             cfg.MailUseTLS,
		MailUseSSL:             cfg.MailUseSSL,
		MailUsername:           cfg.MailUsername,
		MailPassword:           password,
		MailDefaultSenderName:  cfg.MailDefaultSenderName,
		MailDefaultSenderEmail: cfg.MailDefaultSenderEmail,
		ProviderType:           cfg.ProviderType,
		ProviderConfig:         cfg.ProviderConfig,
		IsActive:               cfg.IsActive,
	}
}

// GetEmailConfig returns the caller's active configuration.
func (h *Handlers) GetEmailConfig(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)

	cfg, err := h.store.GetActiveEmailConfig(r.Context(), userID)
	if err != nil {
		log.Printf("api: loading email config for user %d: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "Failed to retrieve email configuration")
		return
	}
	if cfg == nil {
		respondError(w, http.StatusNotFound, "No email configuration found")
		return
	}

	password := "***"
	if r.URL.Query().Get("include_password") == "true" {
		decrypted, err := h.vault.Decrypt(cfg.MailPassword)
		if err != nil {
			// Edit flows get an empty field rather than a hard failure.
			log.Printf("api: decrypting password for user %d: %v", userID, err)
			decrypted = ""
		}
		password = decrypted
	}

	respondJSON(w, http.StatusOK, h.configResponse(cfg, password))
}

type saveEmailConfigRequest struct {
	MailServer             string            `json:"mail_server"`
	MailPort               int               `json:"mail_port"`
	MailUseTLS             *bool             `json:"mail_use_tls"`
	MailUseSSL             bool              `json:"mail_use_ssl"`
	MailUsername           string            `json:"mail_username"`
	MailPassword           string            `json:"mail_password"`
	MailDefaultSenderName  string            `json:"mail_default_sender_name"`
	MailDefaultSenderEmail string            `json:"mail_default_sender_email"`
	ProviderType           string            `json:"provider_type"`
	ProviderConfig         map[string]string `json:"provider_config"`
}

// SaveEmailConfig creates or replaces the caller's configuration.
func (h *Handlers) SaveEmailConfig(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)

	var req saveEmailConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	required := []struct {
		name string
		ok   bool
	}{
		{"mail_server", req.MailServer != ""},
		{"mail_port", req.MailPort != 0},
		{"mail_username", req.MailUsername != ""},
		{"mail_password", req.MailPassword != ""},
		{"mail_default_sender_email", req.MailDefaultSenderEmail != ""},
	}
	for _, f := range required {
		if !f.ok {
			respondError(w, http.StatusBadRequest, "Missing required field: "+f.name)
			return
		}
	}

	useTLS := true
	if req.MailUseTLS != nil {
		useTLS = *req.MailUseTLS
	}

	cfg, err := h.store.UpsertEmailConfig(r.Context(), userID, storage.EmailConfigParams{
		MailServer:             req.MailServer,
		MailPort:               req.MailPort,
		MailUseTLS:             useTLS,
		MailUseSSL:             req.MailUseSSL,
		MailUsername:           req.MailUsername,
		MailPassword:           req.MailPassword,
		MailDefaultSenderName:  req.MailDefaultSenderName,
		MailDefaultSenderEmail: req.MailDefaultSenderEmail,
		ProviderType:           req.ProviderType,
		ProviderConfig:         req.ProviderConfig,
	})
	if err != nil {
		log.Printf("api: saving email config for user %d: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "Failed to save email configuration")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Email configuration saved successfully",
		"config":  h.configResponse(cfg, "***"),
	})
}

// DeleteEmailConfig removes the caller's configuration.
func (h *Handlers) DeleteEmailConfig(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)

	if err := h.store.DeleteEmailConfig(r.Context(), userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "No email configuration found")
			return
		}
		log.Printf("api: deleting email config for user %d: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "Failed to delete email configuration")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Email configuration deleted successfully",
	})
}

// ListEmailPresets returns the static provider preset catalog.
func (h *Handlers) ListEmailPresets(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, storage.Presets())
}

// GetEmailPreset returns one preset by name.
func (h *Handlers) GetEmailPreset(w http.ResponseWriter, r *http.Request) {
	preset, ok := storage.PresetByName(chi.URLParam(r, "name"))
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid preset name")
		return
	}
	respondJSON(w, http.StatusOK, preset)
}

type testEmailConfigRequest struct {
	TestEmail string `json:"test_email"`
}

// TestEmailConfig sends a synthetic confirmation to an address of the
// caller's choosing so they can verify their stored credentials.
func (h *Handlers) TestEmailConfig(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)

	var req testEmailConfigRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.TestEmail == "" {
		req.TestEmail = r.URL.Query().Get("test_email")
	}
	if req.TestEmail == "" {
		respondError(w, http.StatusBadRequest, "Test email address is required")
		return
	}

	cfg, err := h.store.GetActiveEmailConfig(r.Context(), userID)
	if err != nil {
		log.Printf("api: loading email config for user %d: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "Failed to retrieve email configuration")
		return
	}
	if cfg == nil {
		respondError(w, http.StatusNotFound, "No email configuration found")
		return
	}

	svc, err := h.newNotifier(cfg)
	if err != nil {
		log.Printf("api: building email service for user %d: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "Test failed: "+err.Error())
		return
	}

	result := svc.SendReservationConfirmation(r.Context(), req.TestEmail, map[string]interface{}{
		"reservation_number": "TEST123",
		"guest_name":         "Test User",
		"start_date":         "2024-01-01",
		"end_date":           "2024-01-03",
		"room_name":          "Test Room",
	})

	if result.Status == email.StatusSuccess {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"message": "Test email sent successfully",
			"result":  result,
		})
		return
	}
	respondJSON(w, http.StatusBadRequest, map[string]interface{}{
		"error":  "Failed to send test email",
		"result": result,
	})
}

type migrateEmailConfigRequest struct {
	ProviderType string `json:"provider_type"`
	Domain       string `json:"domain"`
	APIKey       string `json:"api_key"`
}

// MigrateEmailConfig switches the caller's configuration to one of the
// HTTP delivery providers.
func (h *Handlers) MigrateEmailConfig(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)

	var req migrateEmailConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProviderType == "" {
		respondError(w, http.StatusBadRequest, "Provider type is required")
		return
	}
	// Catch missing credentials now rather than on the first failed send.
	switch req.ProviderType {
	case storage.ProviderMailgun:
		if req.Domain == "" || req.APIKey == "" {
			respondError(w, http.StatusBadRequest, "Mailgun migration requires domain and api_key")
			return
		}
	case storage.ProviderSendGrid:
		if req.APIKey == "" {
			respondError(w, http.StatusBadRequest, "SendGrid migration requires api_key")
			return
		}
	}

	cfg, err := h.store.MigrateEmailConfig(r.Context(), userID, req.ProviderType, map[string]string{
		"domain":  req.Domain,
		"api_key": req.APIKey,
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "No email configuration found")
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Email configuration migrated successfully",
		"config":  h.configResponse(cfg, "***"),
	})
}
