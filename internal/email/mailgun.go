package email

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lodgeway/checkin-server/internal/storage"
)

const defaultMailgunBaseURL = "https://api.mailgun.net/v3"

// MailgunSender posts messages to the Mailgun API, authenticated with basic
// auth under the fixed "api" username. The endpoint is keyed by the
// tenant's sending domain.
type MailgunSender struct {
	baseURL    string
	domain     string
	apiKey     string
	fromName   string
	fromEmail  string
	httpClient *http.Client
}

func newMailgunSender(cfg *storage.EmailConfig, settings map[string]string) (*MailgunSender, error) {
	domain := settings["domain"]
	apiKey := settings["api_key"]
	if domain == "" || apiKey == "" {
		return nil, fmt.Errorf("mailgun domain and API key are required")
	}

	baseURL := settings["base_url"]
	if baseURL == "" {
		baseURL = defaultMailgunBaseURL
	}

	return &MailgunSender{
		baseURL:   baseURL,
		domain:    domain,
		apiKey:    apiKey,
		fromName:  cfg.MailDefaultSenderName,
		fromEmail: cfg.MailDefaultSenderEmail,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Provider implements Sender.
func (s *MailgunSender) Provider() string { return storage.ProviderMailgun }

// Send implements Sender. Mailgun signals acceptance with HTTP 200; any
// other status is a send failure with the response body preserved in the
// error.
func (s *MailgunSender) Send(ctx context.Context, msg *Message) error {
	endpoint := fmt.Sprintf("%s/%s/messages", s.baseURL, s.domain)

	form := url.Values{}
	form.Set("from", fmt.Sprintf("%s <%s>", senderDisplayName(s.fromName), s.fromEmail))
	form.Set("to", msg.To)
	form.Set("subject", msg.Subject)
	form.Set("text", msg.Text)
	if msg.HTML != "" {
		form.Set("html", msg.HTML)
	}
	if len(msg.CC) > 0 {
		form.Set("cc", strings.Join(msg.CC, ", "))
	}
	if len(msg.BCC) > 0 {
		form.Set("bcc", strings.Join(msg.BCC, ", "))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.SetBasicAuth("api", s.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("mailgun API error (status %d): %s", resp.StatusCode, string(body))
	}
	return nil
}
