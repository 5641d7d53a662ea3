package secrets

import "errors"

var (
	// ErrNoKey means no key is configured and generation is disabled.
	ErrNoKey = errors.New("no encryption key available")

	// ErrEmptyCiphertext is returned by Decrypt for empty input.
	ErrEmptyCiphertext = errors.New("encrypted value is empty")

	ErrEncryptionFailed  = errors.New("encryption failed")
	ErrDecryptionFailed  = errors.New("decryption failed")
	ErrInvalidCiphertext = errors.New("invalid ciphertext format")
)
