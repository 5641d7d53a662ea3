package storage

// Preset holds known defaults for a mail provider, surfaced to the
// configuration UI so admins do not have to look up server details.
type Preset struct {
	Name         string `json:"name"`
	MailServer   string `json:"mail_server"`
	MailPort     int    `json:"mail_port"`
	MailUseTLS   bool   `json:"mail_use_tls"`
	MailUseSSL   bool   `json:"mail_use_ssl"`
	ProviderType string `json:"provider_type,omitempty"`
	Instructions string `json:"instructions"`
}

var emailProviderPresets = map[string]Preset{
	"gmail": {
		Name:         "Gmail",
		MailServer:   "smtp.gmail.com",
		MailPort:     587,
		MailUseTLS:   true,
		Instructions: "Use App Password, not regular password. Enable 2FA and generate App Password.",
	},
	"outlook": {
		Name:         "Outlook/Hotmail",
		MailServer:   "smtp-mail.outlook.com",
		MailPort:     587,
		MailUseTLS:   true,
		Instructions: "Use your Outlook email and password.",
	},
	"yahoo": {
		Name:         "Yahoo",
		MailServer:   "smtp.mail.yahoo.com",
		MailPort:     587,
		MailUseTLS:   true,
		Instructions: "Use App Password for Yahoo accounts.",
	},
	"mailgun": {
		Name:         "Mailgun",
		MailServer:   "smtp.mailgun.org",
		MailPort:     587,
		MailUseTLS:   true,
		ProviderType: ProviderMailgun,
		Instructions: "Use your Mailgun SMTP credentials.",
	},
	"sendgrid": {
		Name:         "SendGrid",
		MailServer:   "smtp.sendgrid.net",
		MailPort:     587,
		MailUseTLS:   true,
		ProviderType: ProviderSendGrid,
		Instructions: "Use your SendGrid API key as password.",
	},
	"custom": {
		Name:         "Custom SMTP",
		MailPort:     587,
		MailUseTLS:   true,
		Instructions: "Enter your custom SMTP server details.",
	},
}

// Presets returns the static catalog of provider presets keyed by name.
func Presets() map[string]Preset {
	out := make(map[string]Preset, len(emailProviderPresets))
	for k, v := range emailProviderPresets {
		out[k] = v
	}
	return out
}

// PresetByName looks up a single preset.
func PresetByName(name string) (Preset, bool) {
	p, ok := emailProviderPresets[name]
	return p, ok
}
