package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateStrict(t *testing.T) {
	norm, err := ValidateStrict("user@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", norm)

	norm, err = ValidateStrict("user@EXAMPLE.com")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", norm)

	_, err = ValidateStrict("not-an-email")
	assert.Error(t, err)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = ValidateStrict("")
	assert.Error(t, err)

	_, err = ValidateStrict("user@localhost")
	assert.Error(t, err, "domain without a dot is rejected")
}

func TestValidateStrictInternationalizedDomain(t *testing.T) {
	norm, err := ValidateStrict("user@bücher.example")
	require.NoError(t, err)
	assert.Equal(t, "user@xn--bcher-kva.example", norm)
}

func TestValidateLenient(t *testing.T) {
	norm, err := ValidateLenient(" USER@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", norm)

	_, err = ValidateLenient("no-at-sign.com")
	assert.Error(t, err)
	assert.EqualError(t, err, "Invalid email format")

	_, err = ValidateLenient("user@nodot")
	assert.Error(t, err)

	_, err = ValidateLenient("")
	assert.EqualError(t, err, "Email address is required")

	_, err = ValidateLenient("   ")
	assert.EqualError(t, err, "Email address is required")
}

func TestValidateListAggregatesFailures(t *testing.T) {
	valid, err := ValidateList([]string{"a@b.com", "bad", "c@d.com"})
	require.Error(t, err)
	assert.Nil(t, valid)
	assert.Equal(t, "Invalid email addresses: bad", err.Error())

	_, err = ValidateList([]string{"bad-one", "a@b.com", "bad-two"})
	require.Error(t, err)
	assert.Equal(t, "Invalid email addresses: bad-one, bad-two", err.Error())

	valid, err = ValidateList([]string{"a@b.com", "c@d.com"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a@b.com", "c@d.com"}, valid)
}

func TestValidateRecipientCascade(t *testing.T) {
	// Strict passes.
	norm, err := validateRecipient("user@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", norm)

	// Strict rejects the malformed local part; lenient still lets it
	// through so the provider can make the final call.
	norm, err = validateRecipient("user@@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user@@example.com", norm)

	// Both fail.
	_, err = validateRecipient("nonsense")
	assert.Error(t, err)
}
