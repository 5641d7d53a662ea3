package email

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	mail "github.com/go-mail/mail"

	"github.com/lodgeway/checkin-server/internal/storage"
)

const defaultSMTPTimeout = 30 * time.Second

// SMTPSender delivers through an authenticated SMTP session. The dialer
// owns the socket for the duration of one send and closes it on every exit
// path, including mid-protocol failures.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	useTLS    bool
	useSSL    bool
	fromName  string
	fromEmail string
	timeout   time.Duration
}

func newSMTPSender(cfg *storage.EmailConfig, password string, settings map[string]string) *SMTPSender {
	timeout := defaultSMTPTimeout
	if raw, ok := settings["timeout_seconds"]; ok {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			timeout = time.Duration(secs) * time.Second
		}
	}
	return &SMTPSender{
		host:      cfg.MailServer,
		port:      cfg.MailPort,
		username:  cfg.MailUsername,
		password:  password,
		useTLS:    cfg.MailUseTLS,
		useSSL:    cfg.MailUseSSL,
		fromName:  cfg.MailDefaultSenderName,
		fromEmail: cfg.MailDefaultSenderEmail,
		timeout:   timeout,
	}
}

// Provider implements Sender.
func (s *SMTPSender) Provider() string { return storage.ProviderSMTP }

// Send implements Sender. The context is not consulted mid-session; the
// dialer's timeout bounds the whole exchange instead.
func (s *SMTPSender) Send(_ context.Context, msg *Message) error {
	m := mail.NewMessage()
	m.SetAddressHeader("From", s.fromEmail, senderDisplayName(s.fromName))
	m.SetHeader("To", msg.To)
	if len(msg.CC) > 0 {
		m.SetHeader("Cc", msg.CC...)
	}
	if len(msg.BCC) > 0 {
		m.SetHeader("Bcc", msg.BCC...)
	}
	m.SetHeader("Subject", msg.Subject)

	m.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}
	for _, a := range msg.Attachments {
		m.AttachReader(a.Filename, bytes.NewReader(a.Data))
	}

	d := mail.NewDialer(s.host, s.port, s.username, s.password)
	d.Timeout = s.timeout
	if s.useSSL {
		d.SSL = true
	} else if s.useTLS {
		d.StartTLSPolicy = mail.MandatoryStartTLS
	}

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
