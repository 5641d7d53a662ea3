package secrets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	vault := NewVault(NewKeyManager("dGVzdC1rZXktbWF0ZXJpYWw", false), false)

	for _, plaintext := range []string{
		"p",
		"hunter2",
		"app password with spaces",
		"påsswörd-ünïcode",
		strings.Repeat("x", 4096),
	} {
		token, err := vault.Encrypt(plaintext)
		require.NoError(t, err)
		require.NotEmpty(t, token)
		assert.NotEqual(t, plaintext, token)

		decrypted, err := vault.Decrypt(token)
		require.NoError(t, err)
		assert.Equal(t, plaintext, decrypted)
	}
}

func TestEncryptEmptyInput(t *testing.T) {
	vault := NewVault(NewKeyManager("key-material", false), false)

	token, err := vault.Encrypt("")
	require.NoError(t, err)
	assert.Equal(t, "", token)
}

func TestDecryptEmptyInput(t *testing.T) {
	vault := NewVault(NewKeyManager("key-material", false), false)

	_, err := vault.Decrypt("")
	assert.ErrorIs(t, err, ErrEmptyCiphertext)
}

func TestTokenIsURLSafe(t *testing.T) {
	vault := NewVault(NewKeyManager("key-material", false), false)

	token, err := vault.Encrypt("secret")
	require.NoError(t, err)
	assert.NotContains(t, token, "+")
	assert.NotContains(t, token, "/")
}

func TestDecryptWithWrongKeyFails(t *testing.T) {
	right := NewVault(NewKeyManager("right-key", false), false)
	wrong := NewVault(NewKeyManager("wrong-key", false), false)

	token, err := right.Encrypt("secret")
	require.NoError(t, err)

	_, err = wrong.Decrypt(token)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestDecryptCorruptTokenFails(t *testing.T) {
	vault := NewVault(NewKeyManager("key-material", false), false)

	_, err := vault.Decrypt("not-a-real-token")
	assert.Error(t, err)

	_, err = vault.Decrypt("AA")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestNoKeyFailsClosedByDefault(t *testing.T) {
	vault := NewVault(NewKeyManager("", false), false)

	_, err := vault.Encrypt("secret")
	assert.ErrorIs(t, err, ErrNoKey)

	_, err = vault.Decrypt("sometoken")
	assert.ErrorIs(t, err, ErrNoKey)
}

func TestNoKeyLegacyModeReturnsStoredValue(t *testing.T) {
	vault := NewVault(NewKeyManager("", false), true)

	decrypted, err := vault.Decrypt("plaintext-password")
	require.NoError(t, err)
	assert.Equal(t, "plaintext-password", decrypted)
}

func TestGeneratedKeyRoundTrips(t *testing.T) {
	// No configured material; the manager mints an ephemeral key and caches
	// it, so encrypt/decrypt within the process still round-trip.
	vault := NewVault(NewKeyManager("", true), false)

	token, err := vault.Encrypt("secret")
	require.NoError(t, err)

	decrypted, err := vault.Decrypt(token)
	require.NoError(t, err)
	assert.Equal(t, "secret", decrypted)
}

func TestSameMaterialSameKey(t *testing.T) {
	// Two managers with identical material must derive the same key, the way
	// separate processes sharing EMAIL_ENCRYPTION_KEY do.
	a := NewVault(NewKeyManager("shared-material", false), false)
	b := NewVault(NewKeyManager("shared-material", false), false)

	token, err := a.Encrypt("secret")
	require.NoError(t, err)

	decrypted, err := b.Decrypt(token)
	require.NoError(t, err)
	assert.Equal(t, "secret", decrypted)
}
