package email

import (
	"context"
	"fmt"

	"github.com/lodgeway/checkin-server/internal/storage"
)

// Sender delivers a composed message through one transport. Implementations
// perform exactly one synchronous attempt; there is no retry.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
	Provider() string
}

// NewSender selects the transport for a tenant's configuration. Anything
// other than the two HTTP providers, including an empty or unrecognized
// provider_type, falls back to SMTP. The returned error means the
// configuration cannot produce a working transport (for the HTTP providers,
// missing API credentials); no network traffic has happened at that point.
func NewSender(cfg *storage.EmailConfig, password string) (Sender, error) {
	settings, err := cfg.ProviderSettings()
	if err != nil {
		return nil, fmt.Errorf("parsing provider_config: %w", err)
	}

	switch cfg.ProviderType {
	case storage.ProviderMailgun:
		return newMailgunSender(cfg, settings)
	case storage.ProviderSendGrid:
		return newSendGridSender(cfg, settings)
	default:
		return newSMTPSender(cfg, password, settings), nil
	}
}
