// Package secrets protects per-tenant mail credentials at rest. Stored
// passwords are AES-256-GCM ciphertexts encoded as URL-safe base64 tokens;
// the key is resolved once per process by KeyManager.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"log"
	"strings"
)

// Vault encrypts and decrypts stored provider credentials.
type Vault struct {
	keys *KeyManager
	// unencryptedLegacy returns stored values unchanged when no key is
	// resolvable, for deployments migrating from plaintext storage. A
	// resolvable-but-wrong key still fails loudly.
	unencryptedLegacy bool
}

// NewVault creates a vault over the given key manager.
func NewVault(keys *KeyManager, unencryptedLegacy bool) *Vault {
	return &Vault{keys: keys, unencryptedLegacy: unencryptedLegacy}
}

// Encrypt encrypts a plaintext credential for storage. Empty input returns an
// empty string without error, so optional credentials round-trip cleanly.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	key, err := v.keys.Key()
	if err != nil {
		return "", err
	}

	aesGCM, err := newGCM(key)
	if err != nil {
		return "", errors.Join(ErrEncryptionFailed, err)
	}

	nonce := make([]byte, aesGCM.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errors.Join(ErrEncryptionFailed, err)
	}

	// Nonce is prepended to the sealed payload for storage
	ciphertext := aesGCM.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(ciphertext), nil
}

// Decrypt decrypts a stored credential token. Empty input is an error. When
// no key is resolvable and the vault runs in unencrypted-legacy mode, the
// stored value is returned unchanged; every other failure is surfaced to the
// caller as a configuration-integrity problem.
func (v *Vault) Decrypt(token string) (string, error) {
	if token == "" {
		return "", ErrEmptyCiphertext
	}

	key, err := v.keys.Key()
	if err != nil {
		if errors.Is(err, ErrNoKey) && v.unencryptedLegacy {
			log.Println("[secrets] WARNING: no encryption key resolvable, treating stored credential as plaintext (unencrypted-legacy mode)")
			return token, nil
		}
		return "", err
	}

	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(token, "="))
	if err != nil {
		return "", errors.Join(ErrInvalidCiphertext, err)
	}

	aesGCM, err := newGCM(key)
	if err != nil {
		return "", errors.Join(ErrDecryptionFailed, err)
	}

	nonceSize := aesGCM.NonceSize()
	if len(raw) < nonceSize {
		return "", ErrInvalidCiphertext
	}

	nonce, sealed := raw[:nonceSize], raw[nonceSize:]
	plaintext, err := aesGCM.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", errors.Join(ErrDecryptionFailed, err)
	}

	return string(plaintext), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
