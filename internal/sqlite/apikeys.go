package sqlite

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/chronos/internal/repository"
)

// APIKeyRepository maps hashed bearer tokens to principals
type APIKeyRepository struct {
	db *DB
}

// NewAPIKeyRepository creates a new APIKeyRepository
func NewAPIKeyRepository(db *DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// Add stores the hash of token for principal
func (r *APIKeyRepository) Add(ctx context.Context, token, principal, description string) error {
	if token == "" || principal == "" {
		return repository.ErrInvalidInput
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO api_keys (key_hash, principal, created_at, description) VALUES (?, ?, ?, ?)`,
		hashToken(token), principal, formatTime(time.Now()), description,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to add api key: %w", err)
	}
	return nil
}

// ResolvePrincipal returns the principal owning token and records its use
func (r *APIKeyRepository) ResolvePrincipal(ctx context.Context, token string) (string, error) {
	hash := hashToken(token)
	var principal string
	err := r.db.QueryRowContext(ctx, `SELECT principal FROM api_keys WHERE key_hash = ?`, hash).Scan(&principal)
	if errors.Is(err, sql.ErrNoRows) {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve api key: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `UPDATE api_keys SET last_used = ? WHERE key_hash = ?`, formatTime(time.Now()), hash); err != nil {
		return "", fmt.Errorf("failed to touch api key: %w", err)
	}
	return principal, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
