package email

import (
	"fmt"
	"net/mail"
	"strings"

	"golang.org/x/net/idna"
)

// ValidationError reports why an address was rejected.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// ValidateStrict performs a full syntactic check (no deliverability probe)
// and returns the normalized form: internationalized domains are converted
// to their ASCII (punycode) representation and lowercased, the local part
// is preserved as written.
func ValidateStrict(address string) (string, error) {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return "", &ValidationError{Reason: "Email address is required"}
	}

	parsed, err := mail.ParseAddress(trimmed)
	if err != nil {
		return "", &ValidationError{Reason: fmt.Sprintf("Invalid email address: %v", err)}
	}
	// A bare address only; display names indicate a malformed input here.
	if parsed.Name != "" || parsed.Address != trimmed {
		return "", &ValidationError{Reason: "Invalid email address: unexpected display name"}
	}

	at := strings.LastIndex(parsed.Address, "@")
	local, domain := parsed.Address[:at], parsed.Address[at+1:]

	asciiDomain, err := idna.Lookup.ToASCII(domain)
	if err != nil {
		return "", &ValidationError{Reason: fmt.Sprintf("Invalid email domain: %v", err)}
	}
	asciiDomain = strings.ToLower(asciiDomain)
	if !strings.Contains(asciiDomain, ".") {
		return "", &ValidationError{Reason: "Invalid email address: domain must contain a dot"}
	}

	return local + "@" + asciiDomain, nil
}

// ValidateLenient accepts any non-empty string containing an @ and a dotted
// domain, trimming whitespace and lowercasing. It is the fallback when the
// strict check rejects an address a provider would still deliver to.
func ValidateLenient(address string) (string, error) {
	if strings.TrimSpace(address) == "" {
		return "", &ValidationError{Reason: "Email address is required"}
	}

	cleaned := strings.ToLower(strings.TrimSpace(address))
	at := strings.LastIndex(cleaned, "@")
	if at < 1 || !strings.Contains(cleaned[at+1:], ".") {
		return "", &ValidationError{Reason: "Invalid email format"}
	}
	return cleaned, nil
}

// ValidateList applies ValidateStrict to each address and collects every
// failure into a single error listing all invalid entries.
func ValidateList(addresses []string) ([]string, error) {
	var validated []string
	var invalid []string

	for _, addr := range addresses {
		norm, err := ValidateStrict(addr)
		if err != nil {
			invalid = append(invalid, addr)
			continue
		}
		validated = append(validated, norm)
	}

	if len(invalid) > 0 {
		return nil, &ValidationError{
			Reason: fmt.Sprintf("Invalid email addresses: %s", strings.Join(invalid, ", ")),
		}
	}
	return validated, nil
}

// validateRecipient runs the strict-then-lenient cascade used by the sends
// that accept guest-entered addresses.
func validateRecipient(address string) (string, error) {
	norm, err := ValidateStrict(address)
	if err == nil {
		return norm, nil
	}
	return ValidateLenient(address)
}
