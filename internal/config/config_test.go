package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "server:\n  host: \"\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5, cfg.Database.MaxIdleConns)
	assert.True(t, cfg.Encryption.ShouldGenerate())
	assert.False(t, cfg.Encryption.UnencryptedLegacy)
	assert.NotEmpty(t, cfg.CORS.AllowedOrigins)
}

func TestLoadExplicitValues(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 0.0.0.0
  port: 9090
database:
  url: postgres://app:secret@db:5432/checkin
encryption:
  key: dGVzdC1rZXktbWF0ZXJpYWw
  generate_if_missing: false
  unencrypted_legacy: true
auth:
  enabled: true
  jwt_secret: supersecret
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres://app:secret@db:5432/checkin", cfg.Database.URL)
	assert.False(t, cfg.Encryption.ShouldGenerate())
	assert.True(t, cfg.Encryption.UnencryptedLegacy)
	assert.True(t, cfg.Auth.Enabled)
	assert.Equal(t, "supersecret", cfg.Auth.JWTSecret)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	path := writeConfig(t, "database:\n  url: postgres://file-value\n")

	t.Setenv("DATABASE_URL", "postgres://env-value")
	t.Setenv("EMAIL_ENCRYPTION_KEY", "ZW52LWtleQ")
	t.Setenv("JWT_SECRET", "env-secret")

	cfg, err := LoadFromEnv(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://env-value", cfg.Database.URL)
	assert.Equal(t, "ZW52LWtleQ", cfg.Encryption.Key)
	assert.Equal(t, "env-secret", cfg.Auth.JWTSecret)
	assert.True(t, cfg.Auth.Enabled)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestServerAddr(t *testing.T) {
	cfg := ServerConfig{Host: "localhost", Port: 8080}
	assert.Equal(t, "localhost:8080", cfg.Addr())
}
