// Package storage provides Postgres-backed persistence for rooms,
// reservations and per-tenant email configurations.
package storage

import (
	"database/sql"
	"errors"

	"github.com/lodgeway/checkin-server/internal/config"
	"github.com/lodgeway/checkin-server/internal/secrets"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store provides database operations for all entities
type Store struct {
	db    *sql.DB
	vault *secrets.Vault
}

// NewStore creates a new store. The vault is used to re-encrypt mail
// passwords before they are persisted.
func NewStore(db *sql.DB, vault *secrets.Vault) *Store {
	return &Store{db: db, vault: vault}
}

// Open connects to Postgres and applies pool settings.
func Open(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnLifetime())

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
