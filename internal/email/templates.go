package email

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/osteele/liquid"
)

// Kind identifies one of the notification templates.
type Kind string

const (
	KindConfirmation Kind = "confirmation"
	KindUpdate       Kind = "update"
	KindCancellation Kind = "cancellation"
	KindApproval     Kind = "approval"
	KindRevision     Kind = "revision"
	KindAdminCheckin Kind = "admin_checkin"
)

// Composer renders the notification templates. Rendering is pure: the same
// field mapping always produces byte-identical output. Missing fields fall
// back to "N/A" ("Guest" for the guest name in approval/revision).
type Composer struct {
	engine *liquid.Engine
	cache  sync.Map // map[string]*liquid.Template
}

// NewComposer builds a composer with the default-value filter registered.
func NewComposer() *Composer {
	engine := liquid.NewEngine()

	// {{ room_name | default: "N/A" }}
	engine.RegisterFilter("default", func(value interface{}, defaultVal string) interface{} {
		if value == nil {
			return defaultVal
		}
		strVal := fmt.Sprintf("%v", value)
		if strVal == "" || strVal == "<nil>" {
			return defaultVal
		}
		return value
	})

	return &Composer{engine: engine}
}

type templateSet struct {
	subject string
	text    string
	html    string
}

// Compose renders the subject, plain-text body and HTML body for a
// notification kind from a loosely-typed field mapping.
func (c *Composer) Compose(kind Kind, fields map[string]interface{}) (subject, text, html string, err error) {
	set, ok := notificationTemplates[kind]
	if !ok {
		return "", "", "", fmt.Errorf("unknown notification kind %q", kind)
	}

	bindings := make(map[string]interface{}, len(fields)+6)
	for k, v := range fields {
		bindings[k] = v
	}
	if kind == KindAdminCheckin {
		addUploadBadges(bindings)
	}

	if subject, err = c.render(string(kind)+"/subject", set.subject, bindings); err != nil {
		return "", "", "", fmt.Errorf("rendering subject: %w", err)
	}
	if text, err = c.render(string(kind)+"/text", set.text, bindings); err != nil {
		return "", "", "", fmt.Errorf("rendering text body: %w", err)
	}
	if html, err = c.render(string(kind)+"/html", set.html, bindings); err != nil {
		return "", "", "", fmt.Errorf("rendering html body: %w", err)
	}
	return subject, text, html, nil
}

func (c *Composer) render(cacheKey, templateStr string, bindings map[string]interface{}) (string, error) {
	if cached, ok := c.cache.Load(cacheKey); ok {
		return cached.(*liquid.Template).RenderString(bindings)
	}

	tpl, err := c.engine.ParseString(templateStr)
	if err != nil {
		return "", err
	}
	c.cache.Store(cacheKey, tpl)
	return tpl.RenderString(bindings)
}

// addUploadBadges derives the per-document status badges shown in the admin
// check-in notification from the has_* flags.
func addUploadBadges(bindings map[string]interface{}) {
	for _, doc := range []struct{ flag, status, class string }{
		{"has_front_image", "front_status", "front_class"},
		{"has_back_image", "back_status", "back_class"},
		{"has_selfie", "selfie_status", "selfie_class"},
	} {
		if truthy(bindings[doc.flag]) {
			bindings[doc.status] = "✓ Uploaded"
			bindings[doc.class] = "uploaded"
		} else {
			bindings[doc.status] = "✗ Missing"
			bindings[doc.class] = "missing"
		}
	}
}

func truthy(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		b, err := strconv.ParseBool(val)
		if err != nil {
			return val != ""
		}
		return b
	case int:
		return val != 0
	case float64:
		return val != 0
	default:
		return true
	}
}

var notificationTemplates = map[Kind]templateSet{
	KindConfirmation: {
		subject: `Reservation Confirmation - {{ reservation_number | default: "N/A" }}`,
		text: `Dear Guest,

Your reservation has been confirmed successfully!

Reservation Details:
- Reservation Number: {{ reservation_number | default: "N/A" }}
- Guest Name: {{ guest_name | default: "N/A" }}
- Check-in Date: {{ start_date | default: "N/A" }}
- Check-out Date: {{ end_date | default: "N/A" }}
- Room: {{ room_name | default: "N/A" }}

We look forward to welcoming you!

Best regards,
The Remote Check-in Team`,
		html: `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Reservation Confirmation</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #4CAF50; color: white; padding: 20px; text-align: center; }
        .content { padding: 20px; background-color: #f9f9f9; }
        .details { background-color: white; padding: 15px; margin: 20px 0; border-left: 4px solid #4CAF50; }
        .footer { text-align: center; padding: 20px; color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Reservation Confirmed!</h1>
        </div>
        <div class="content">
            <p>Dear Guest,</p>
            <p>Your reservation has been confirmed successfully!</p>

            <div class="details">
                <h3>Reservation Details:</h3>
                <p><strong>Reservation Number:</strong> {{ reservation_number | default: "N/A" }}</p>
                <p><strong>Guest Name:</strong> {{ guest_name | default: "N/A" }}</p>
                <p><strong>Check-in Date:</strong> {{ start_date | default: "N/A" }}</p>
                <p><strong>Check-out Date:</strong> {{ end_date | default: "N/A" }}</p>
                <p><strong>Room:</strong> {{ room_name | default: "N/A" }}</p>
            </div>

            <p>We look forward to welcoming you!</p>
        </div>
        <div class="footer">
            <p>Best regards,<br>The Remote Check-in Team</p>
        </div>
    </div>
</body>
</html>`,
	},
	KindUpdate: {
		subject: `Reservation Update - {{ reservation_number | default: "N/A" }}`,
		text: `Dear Guest,

Your reservation has been updated successfully!

Updated Reservation Details:
- Reservation Number: {{ reservation_number | default: "N/A" }}
- Guest Name: {{ guest_name | default: "N/A" }}
- Check-in Date: {{ start_date | default: "N/A" }}
- Check-out Date: {{ end_date | default: "N/A" }}
- Room: {{ room_name | default: "N/A" }}

If you have any questions, please don't hesitate to contact us.

Best regards,
The Remote Check-in Team`,
		html: `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Reservation Update</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #2196F3; color: white; padding: 20px; text-align: center; }
        .content { padding: 20px; background-color: #f9f9f9; }
        .details { background-color: white; padding: 15px; margin: 20px 0; border-left: 4px solid #2196F3; }
        .footer { text-align: center; padding: 20px; color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Reservation Updated</h1>
        </div>
        <div class="content">
            <p>Dear Guest,</p>
            <p>Your reservation has been updated successfully!</p>

            <div class="details">
                <h3>Updated Reservation Details:</h3>
                <p><strong>Reservation Number:</strong> {{ reservation_number | default: "N/A" }}</p>
                <p><strong>Guest Name:</strong> {{ guest_name | default: "N/A" }}</p>
                <p><strong>Check-in Date:</strong> {{ start_date | default: "N/A" }}</p>
                <p><strong>Check-out Date:</strong> {{ end_date | default: "N/A" }}</p>
                <p><strong>Room:</strong> {{ room_name | default: "N/A" }}</p>
            </div>

            <p>If you have any questions, please don't hesitate to contact us.</p>
        </div>
        <div class="footer">
            <p>Best regards,<br>The Remote Check-in Team</p>
        </div>
    </div>
</body>
</html>`,
	},
	KindCancellation: {
		subject: `Reservation Cancellation - {{ reservation_number | default: "N/A" }}`,
		text: `Dear Guest,

Your reservation has been cancelled.

Cancelled Reservation Details:
- Reservation Number: {{ reservation_number | default: "N/A" }}
- Guest Name: {{ guest_name | default: "N/A" }}
- Check-in Date: {{ start_date | default: "N/A" }}
- Check-out Date: {{ end_date | default: "N/A" }}
- Room: {{ room_name | default: "N/A" }}

If you have any questions or if this cancellation was made in error, please contact us immediately.

Best regards,
The Remote Check-in Team`,
		html: `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Reservation Cancellation</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #f44336; color: white; padding: 20px; text-align: center; }
        .content { padding: 20px; background-color: #f9f9f9; }
        .details { background-color: white; padding: 15px; margin: 20px 0; border-left: 4px solid #f44336; }
        .footer { text-align: center; padding: 20px; color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Reservation Cancelled</h1>
        </div>
        <div class="content">
            <p>Dear Guest,</p>
            <p>Your reservation has been cancelled.</p>

            <div class="details">
                <h3>Cancelled Reservation Details:</h3>
                <p><strong>Reservation Number:</strong> {{ reservation_number | default: "N/A" }}</p>
                <p><strong>Guest Name:</strong> {{ guest_name | default: "N/A" }}</p>
                <p><strong>Check-in Date:</strong> {{ start_date | default: "N/A" }}</p>
                <p><strong>Check-out Date:</strong> {{ end_date | default: "N/A" }}</p>
                <p><strong>Room:</strong> {{ room_name | default: "N/A" }}</p>
            </div>

            <p>If you have any questions or if this cancellation was made in error, please contact us immediately.</p>
        </div>
        <div class="footer">
            <p>Best regards,<br>The Remote Check-in Team</p>
        </div>
    </div>
</body>
</html>`,
	},
	KindApproval: {
		subject: `Reservation Approved - {{ reservation_number | default: "N/A" }}`,
		text: `Reservation Approved

Dear {{ guest_name | default: "Guest" }},

Great news! Your reservation has been approved.

Reservation Details:
- Reservation #{{ reservation_number | default: "N/A" }}
- Check-in Date: {{ start_date | default: "N/A" }}
- Check-out Date: {{ end_date | default: "N/A" }}
- Room: {{ room_name | default: "N/A" }}

You can now proceed with the online check-in process.

We look forward to welcoming you!

Best regards,
The Remote Check-in Team`,
		html: `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Reservation Approved</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #4CAF50; color: white; padding: 20px; text-align: center; }
        .content { padding: 20px; background-color: #f9f9f9; }
        .details { background-color: white; padding: 15px; margin: 20px 0; border-left: 4px solid #4CAF50; }
        .footer { text-align: center; padding: 20px; color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Reservation Approved</h1>
        </div>
        <div class="content">
            <p>Dear {{ guest_name | default: "Guest" }},</p>
            <p>Great news! Your reservation has been approved.</p>

            <div class="details">
                <h3>Reservation Details:</h3>
                <p><strong>Reservation #{{ reservation_number | default: "N/A" }}</strong></p>
                <p><strong>Check-in Date:</strong> {{ start_date | default: "N/A" }}</p>
                <p><strong>Check-out Date:</strong> {{ end_date | default: "N/A" }}</p>
                <p><strong>Room:</strong> {{ room_name | default: "N/A" }}</p>
            </div>

            <p>You can now proceed with the online check-in process.</p>
            <p>We look forward to welcoming you!</p>
        </div>
        <div class="footer">
            <p>Best regards,<br>The Remote Check-in Team</p>
        </div>
    </div>
</body>
</html>`,
	},
	KindRevision: {
		subject: `Reservation Requires Revision - {{ reservation_number | default: "N/A" }}`,
		text: `Reservation Requires Revision

Dear {{ guest_name | default: "Guest" }},

Your reservation has been sent back to you for revision. Please review your details and resubmit.

Reservation Details:
- Reservation #{{ reservation_number | default: "N/A" }}
- Check-in Date: {{ start_date | default: "N/A" }}
- Check-out Date: {{ end_date | default: "N/A" }}
- Room: {{ room_name | default: "N/A" }}

If you have any questions, please don't hesitate to contact us.

Best regards,
The Remote Check-in Team`,
		html: `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Reservation Requires Revision</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #ff9800; color: white; padding: 20px; text-align: center; }
        .content { padding: 20px; background-color: #f9f9f9; }
        .details { background-color: white; padding: 15px; margin: 20px 0; border-left: 4px solid #ff9800; }
        .footer { text-align: center; padding: 20px; color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Reservation Requires Revision</h1>
        </div>
        <div class="content">
            <p>Dear {{ guest_name | default: "Guest" }},</p>
            <p>Your reservation has been sent back to you for revision. Please review your details and resubmit.</p>

            <div class="details">
                <h3>Reservation Details:</h3>
                <p><strong>Reservation #{{ reservation_number | default: "N/A" }}</strong></p>
                <p><strong>Check-in Date:</strong> {{ start_date | default: "N/A" }}</p>
                <p><strong>Check-out Date:</strong> {{ end_date | default: "N/A" }}</p>
                <p><strong>Room:</strong> {{ room_name | default: "N/A" }}</p>
            </div>

            <p>If you have any questions, please don't hesitate to contact us.</p>
        </div>
        <div class="footer">
            <p>Best regards,<br>The Remote Check-in Team</p>
        </div>
    </div>
</body>
</html>`,
	},
	KindAdminCheckin: {
		subject: `New Check-in Completed - {{ reservation_number | default: "N/A" }}`,
		text: `New Check-in Completed

A client has completed the check-in process for the following reservation:

Reservation Details:
- Reservation Number: {{ reservation_number | default: "N/A" }}
- Guest Name: {{ guest_name | default: "N/A" }}
- Check-in Date: {{ start_date | default: "N/A" }}
- Check-out Date: {{ end_date | default: "N/A" }}
- Room: {{ room_name | default: "N/A" }}

Client Information:
- Name: {{ client_name | default: "N/A" }}
- Surname: {{ client_surname | default: "N/A" }}
- Email: {{ client_email | default: "N/A" }}
- Phone: {{ client_phone | default: "N/A" }}
- Document Type: {{ document_type | default: "N/A" }}
- Document Number: {{ document_number | default: "N/A" }}

Uploaded Documents:
- Front Document: {{ front_status }}
- Back Document: {{ back_status }}
- Selfie: {{ selfie_status }}

Please review the uploaded documents and client information in the admin panel.

Best regards,
Remote Check-in System`,
		html: `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>New Check-in Completed</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #2c3e50; color: white; padding: 20px; text-align: center; border-radius: 8px 8px 0 0; }
        .content { background-color: #f8f9fa; padding: 20px; border-radius: 0 0 8px 8px; }
        .section { margin-bottom: 20px; padding: 15px; background-color: white; border-radius: 5px; border-left: 4px solid #3498db; }
        .section h3 { margin-top: 0; color: #2c3e50; }
        .info-row { display: flex; justify-content: space-between; margin-bottom: 8px; padding: 5px 0; border-bottom: 1px solid #eee; }
        .info-row:last-child { border-bottom: none; }
        .label { font-weight: bold; color: #555; }
        .value { color: #333; }
        .status { display: inline-block; padding: 4px 8px; border-radius: 4px; font-size: 12px; font-weight: bold; }
        .status.uploaded { background-color: #d4edda; color: #155724; }
        .status.missing { background-color: #f8d7da; color: #721c24; }
        .footer { text-align: center; margin-top: 20px; padding: 15px; background-color: #e9ecef; border-radius: 5px; font-size: 14px; color: #6c757d; }
    </style>
</head>
<body>
    <div class="header">
        <h1>New Check-in Completed</h1>
        <p>A client has completed the check-in process</p>
    </div>

    <div class="content">
        <div class="section">
            <h3>Reservation Details</h3>
            <div class="info-row">
                <span class="label">Reservation Number:</span>
                <span class="value">{{ reservation_number | default: "N/A" }}</span>
            </div>
            <div class="info-row">
                <span class="label">Guest Name:</span>
                <span class="value">{{ guest_name | default: "N/A" }}</span>
            </div>
            <div class="info-row">
                <span class="label">Check-in Date:</span>
                <span class="value">{{ start_date | default: "N/A" }}</span>
            </div>
            <div class="info-row">
                <span class="label">Check-out Date:</span>
                <span class="value">{{ end_date | default: "N/A" }}</span>
            </div>
            <div class="info-row">
                <span class="label">Room:</span>
                <span class="value">{{ room_name | default: "N/A" }}</span>
            </div>
        </div>

        <div class="section">
            <h3>Client Information</h3>
            <div class="info-row">
                <span class="label">Name:</span>
                <span class="value">{{ client_name | default: "N/A" }}</span>
            </div>
            <div class="info-row">
                <span class="label">Surname:</span>
                <span class="value">{{ client_surname | default: "N/A" }}</span>
            </div>
            <div class="info-row">
                <span class="label">Email:</span>
                <span class="value">{{ client_email | default: "N/A" }}</span>
            </div>
            <div class="info-row">
                <span class="label">Phone:</span>
                <span class="value">{{ client_phone | default: "N/A" }}</span>
            </div>
            <div class="info-row">
                <span class="label">Document Type:</span>
                <span class="value">{{ document_type | default: "N/A" }}</span>
            </div>
            <div class="info-row">
                <span class="label">Document Number:</span>
                <span class="value">{{ document_number | default: "N/A" }}</span>
            </div>
        </div>

        <div class="section">
            <h3>Uploaded Documents</h3>
            <div class="info-row">
                <span class="label">Front Document:</span>
                <span class="status {{ front_class }}">{{ front_status }}</span>
            </div>
            <div class="info-row">
                <span class="label">Back Document:</span>
                <span class="status {{ back_class }}">{{ back_status }}</span>
            </div>
            <div class="info-row">
                <span class="label">Selfie:</span>
                <span class="status {{ selfie_class }}">{{ selfie_status }}</span>
            </div>
        </div>

        <div class="footer">
            <p><strong>Action Required:</strong> Please review the uploaded documents and client information in the admin panel.</p>
            <p>Best regards,<br>Remote Check-in System</p>
        </div>
    </div>
</body>
</html>`,
	},
}
