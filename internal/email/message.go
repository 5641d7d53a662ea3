package email

import (
	"fmt"
	"strings"
)

// Status values reported by every dispatch.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error types carried by DispatchResult when Status is error.
const (
	ErrorTypeValidation = "validation_error"
	ErrorTypeSend       = "send_error"
	ErrorTypeCreation   = "creation_error"
)

// Attachment is a file attached to an outgoing message. Data is the raw
// file content; transports apply their own transfer encoding.
type Attachment struct {
	Filename string
	Data     []byte
}

// Message is a fully composed email ready for a Sender. To holds a single
// validated recipient; CC and BCC are appended to the delivery set.
type Message struct {
	To          string
	Subject     string
	Text        string
	HTML        string
	CC          []string
	BCC         []string
	Attachments []Attachment
}

// DispatchResult is the normalized outcome of a send attempt. ErrorType is
// empty on success.
type DispatchResult struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Provider  string `json:"provider,omitempty"`
	To        string `json:"to,omitempty"`
	Subject   string `json:"subject,omitempty"`
	ErrorType string `json:"error_type,omitempty"`
}

// OK reports whether the dispatch succeeded.
func (r DispatchResult) OK() bool { return r.Status == StatusSuccess }

// senderDisplayName renders the fixed From display phrase around the
// tenant's configured sender name, falling back when blank.
func senderDisplayName(name string) string {
	display := strings.TrimSpace(name)
	if display == "" {
		display = "Remote Check-in"
	}
	return fmt.Sprintf("Remote Check-in System ('%s')", display)
}
