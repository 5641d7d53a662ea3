package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lodgeway/checkin-server/internal/storage"
)

const defaultSendGridBaseURL = "https://api.sendgrid.com"

// SendGridSender posts JSON to the SendGrid v3 mail API with bearer-token
// auth. SendGrid acknowledges queued messages with HTTP 202.
type SendGridSender struct {
	baseURL    string
	apiKey     string
	fromName   string
	fromEmail  string
	httpClient *http.Client
}

type sgAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sgPersonalization struct {
	To      []sgAddress `json:"to"`
	CC      []sgAddress `json:"cc,omitempty"`
	BCC     []sgAddress `json:"bcc,omitempty"`
	Subject string      `json:"subject"`
}

type sgContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sgAttachment struct {
	Content     string `json:"content"`
	Filename    string `json:"filename"`
	Disposition string `json:"disposition"`
}

type sgPayload struct {
	Personalizations []sgPersonalization `json:"personalizations"`
	From             sgAddress           `json:"from"`
	Content          []sgContent         `json:"content"`
	Attachments      []sgAttachment      `json:"attachments,omitempty"`
}

func newSendGridSender(cfg *storage.EmailConfig, settings map[string]string) (*SendGridSender, error) {
	apiKey := settings["api_key"]
	if apiKey == "" {
		return nil, fmt.Errorf("sendgrid API key is required")
	}

	baseURL := settings["base_url"]
	if baseURL == "" {
		baseURL = defaultSendGridBaseURL
	}

	return &SendGridSender{
		baseURL:   baseURL,
		apiKey:    apiKey,
		fromName:  cfg.MailDefaultSenderName,
		fromEmail: cfg.MailDefaultSenderEmail,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Provider implements Sender.
func (s *SendGridSender) Provider() string { return storage.ProviderSendGrid }

// Send implements Sender.
func (s *SendGridSender) Send(ctx context.Context, msg *Message) error {
	p := sgPersonalization{
		To:      []sgAddress{{Email: msg.To}},
		Subject: msg.Subject,
	}
	for _, cc := range msg.CC {
		p.CC = append(p.CC, sgAddress{Email: cc})
	}
	for _, bcc := range msg.BCC {
		p.BCC = append(p.BCC, sgAddress{Email: bcc})
	}

	payload := sgPayload{
		Personalizations: []sgPersonalization{p},
		From: sgAddress{
			Email: s.fromEmail,
			Name:  senderDisplayName(s.fromName),
		},
		Content: []sgContent{{Type: "text/plain", Value: msg.Text}},
	}
	if msg.HTML != "" {
		payload.Content = append(payload.Content, sgContent{Type: "text/html", Value: msg.HTML})
	}
	for _, a := range msg.Attachments {
		payload.Attachments = append(payload.Attachments, sgAttachment{
			Content:     base64.StdEncoding.EncodeToString(a.Data),
			Filename:    a.Filename,
			Disposition: "attachment",
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v3/mail/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("sendgrid API error (status %d): %s", resp.StatusCode, string(respBody))
	}
	return nil
}
