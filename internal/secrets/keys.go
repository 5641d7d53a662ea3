package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"
	"log"
	"sync"

	"golang.org/x/crypto/hkdf"
)

const (
	// KeySize is the AES-256 key length in bytes
	KeySize = 32

	// keyInfo provides HKDF domain separation for this key's purpose
	keyInfo = "checkin-email-credentials-v1"
)

// KeyManager resolves and caches the process-wide credential encryption key.
// It is constructed once in main and shared by reference; the resolved key is
// cached for the process lifetime.
//
// Operational invariant: in multi-process deployments every process must be
// configured with the same key material (EMAIL_ENCRYPTION_KEY), or ciphertexts
// written by one process cannot be read by another.
type KeyManager struct {
	mu       sync.Mutex
	key      []byte
	material string
	generate bool
}

// NewKeyManager creates a key manager from configured key material. When
// material is empty and generateIfMissing is true, a fresh random key is
// minted on first use.
func NewKeyManager(material string, generateIfMissing bool) *KeyManager {
	return &KeyManager{material: material, generate: generateIfMissing}
}

// Key returns the resolved encryption key, resolving and caching it on first
// call. Resolution order: in-memory cache, configured material, generated key.
func (m *KeyManager) Key() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.key != nil {
		return m.key, nil
	}

	if m.material != "" {
		key, err := deriveKey([]byte(m.material))
		if err != nil {
			return nil, err
		}
		m.key = key
		log.Println("[secrets] using configured EMAIL_ENCRYPTION_KEY")
		return m.key, nil
	}

	if !m.generate {
		return nil, ErrNoKey
	}

	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, errors.Join(ErrNoKey, err)
	}
	m.key = key
	log.Println("[secrets] WARNING: generated ephemeral encryption key - existing encrypted passwords may not be readable")
	log.Println("[secrets] WARNING: set EMAIL_ENCRYPTION_KEY to maintain consistency across restarts")
	return m.key, nil
}

// deriveKey stretches arbitrary-length key material to a 32-byte AES key
// using HKDF-SHA256.
func deriveKey(material []byte) ([]byte, error) {
	reader := hkdf.New(sha256.New, material, nil, []byte(keyInfo))
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, errors.Join(ErrNoKey, err)
	}
	return key, nil
}
