package email

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/lodgeway/checkin-server/internal/secrets"
	"github.com/lodgeway/checkin-server/internal/storage"
)

// Service is the notification façade: it decrypts the tenant's credential
// once at construction, selects the transport, and exposes one send method
// per notification kind. Every send performs validate → render → dispatch
// and reports through DispatchResult; errors never escape to the caller's
// business transaction.
type Service struct {
	cfg      *storage.EmailConfig
	composer *Composer
	sender   Sender

	// senderErr is set when the configuration cannot produce a working
	// transport (e.g. an HTTP provider missing its API key). Sends then
	// fail closed without network traffic.
	senderErr error
}

// NewService builds the façade for one tenant configuration. A decryption
// failure on the stored credential is returned as an error: it indicates a
// configuration-integrity problem (wrong or rotated key) that needs
// operator attention, not a per-send condition.
func NewService(cfg *storage.EmailConfig, vault *secrets.Vault) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("email configuration is required")
	}

	password, err := vault.Decrypt(cfg.MailPassword)
	if err != nil {
		return nil, fmt.Errorf("decrypting mail password: %w", err)
	}

	svc := &Service{
		cfg:      cfg,
		composer: NewComposer(),
	}
	svc.sender, svc.senderErr = NewSender(cfg, password)
	return svc, nil
}

// SendReservationConfirmation sends the reservation confirmation to a
// guest-entered address, applying the strict-then-lenient validation
// cascade first.
func (s *Service) SendReservationConfirmation(ctx context.Context, to string, fields map[string]interface{}) DispatchResult {
	return s.dispatchValidated(ctx, KindConfirmation, to, fields)
}

// SendReservationUpdate notifies a guest that their reservation changed.
func (s *Service) SendReservationUpdate(ctx context.Context, to string, fields map[string]interface{}) DispatchResult {
	return s.dispatch(ctx, KindUpdate, to, fields)
}

// SendReservationCancellation notifies a guest of a cancelled reservation.
func (s *Service) SendReservationCancellation(ctx context.Context, to string, fields map[string]interface{}) DispatchResult {
	return s.dispatch(ctx, KindCancellation, to, fields)
}

// SendReservationApprovalNotification notifies a guest that their
// reservation was approved.
func (s *Service) SendReservationApprovalNotification(ctx context.Context, to string, fields map[string]interface{}) DispatchResult {
	return s.dispatch(ctx, KindApproval, to, fields)
}

// SendReservationRevisionNotification asks a guest to revise and resubmit
// their reservation details.
func (s *Service) SendReservationRevisionNotification(ctx context.Context, to string, fields map[string]interface{}) DispatchResult {
	return s.dispatch(ctx, KindRevision, to, fields)
}

// SendAdminCheckinNotification tells the structure admin that a guest
// finished the check-in flow. The admin address goes through the same
// validation cascade as guest addresses.
func (s *Service) SendAdminCheckinNotification(ctx context.Context, to string, fields map[string]interface{}) DispatchResult {
	return s.dispatchValidated(ctx, KindAdminCheckin, to, fields)
}

func (s *Service) dispatchValidated(ctx context.Context, kind Kind, to string, fields map[string]interface{}) DispatchResult {
	validated, err := validateRecipient(to)
	if err != nil {
		log.Printf("email: validation failed for %q: %v", to, err)
		return DispatchResult{
			Status:    StatusError,
			Message:   fmt.Sprintf("Invalid email address: %v", err),
			ErrorType: ErrorTypeValidation,
		}
	}
	return s.dispatch(ctx, kind, validated, fields)
}

func (s *Service) dispatch(ctx context.Context, kind Kind, to string, fields map[string]interface{}) DispatchResult {
	id := uuid.New().String()

	subject, text, html, err := s.composer.Compose(kind, fields)
	if err != nil {
		log.Printf("email %s: composing %s notification failed: %v", id, kind, err)
		return DispatchResult{
			Status:    StatusError,
			Message:   fmt.Sprintf("Error creating email: %v", err),
			ErrorType: ErrorTypeCreation,
		}
	}

	if s.senderErr != nil {
		log.Printf("email %s: no usable transport: %v", id, s.senderErr)
		return DispatchResult{
			Status:    StatusError,
			Message:   fmt.Sprintf("Failed to send email: %v", s.senderErr),
			To:        to,
			Subject:   subject,
			ErrorType: ErrorTypeSend,
		}
	}

	msg := &Message{
		To:      to,
		Subject: subject,
		Text:    text,
		HTML:    html,
	}

	log.Printf("email %s: sending %s notification to %s via %s", id, kind, to, s.sender.Provider())
	if err := s.sender.Send(ctx, msg); err != nil {
		log.Printf("email %s: send failed: %v", id, err)
		return DispatchResult{
			Status:    StatusError,
			Message:   fmt.Sprintf("Failed to send email: %v", err),
			Provider:  s.sender.Provider(),
			To:        to,
			Subject:   subject,
			ErrorType: ErrorTypeSend,
		}
	}

	return DispatchResult{
		Status:   StatusSuccess,
		Message:  "Email sent successfully",
		Provider: s.sender.Provider(),
		To:       to,
		Subject:  subject,
	}
}
