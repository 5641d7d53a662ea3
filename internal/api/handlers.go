package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/lodgeway/checkin-server/internal/email"
	"github.com/lodgeway/checkin-server/internal/secrets"
	"github.com/lodgeway/checkin-server/internal/storage"
)

// notifier is the slice of the email façade the handlers dispatch through.
type notifier interface {
	SendReservationConfirmation(ctx context.Context, to string, fields map[string]interface{}) email.DispatchResult
	SendReservationApprovalNotification(ctx context.Context, to string, fields map[string]interface{}) email.DispatchResult
	SendReservationRevisionNotification(ctx context.Context, to string, fields map[string]interface{}) email.DispatchResult
	SendAdminCheckinNotification(ctx context.Context, to string, fields map[string]interface{}) email.DispatchResult
}

// Handlers contains all HTTP handlers.
type Handlers struct {
	store *storage.Store
	vault *secrets.Vault

	// newNotifier builds the email façade for a tenant configuration.
	// Tests swap it for a stub.
	newNotifier func(cfg *storage.EmailConfig) (notifier, error)
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(store *storage.Store, vault *secrets.Vault) *Handlers {
	h := &Handlers{store: store, vault: vault}
	h.newNotifier = func(cfg *storage.EmailConfig) (notifier, error) {
		return email.NewService(cfg, vault)
	}
	return h
}

// HealthCheck reports server liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
