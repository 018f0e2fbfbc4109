package sqlrepo

import (
	"context"
	"fmt"
	"time"
)

// RevokeToken blacklists a refresh token id. The primary key on jti makes
// the insert the claim: a second revocation fails with ErrConflict.
func (s *Store) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO revoked_tokens (jti, expires_at) VALUES (?, ?)`, jti, expiresAt.UTC())
	if err != nil {
		return fmt.Errorf("revoke token: %w", classify(err))
	}
	// Expired entries can no longer be replayed.
	if _, err := s.db.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at < ?`, time.Now().UTC()); err != nil {
		return fmt.Errorf("prune revoked tokens: %w", err)
	}
	return nil
}

func (s *Store) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM revoked_tokens WHERE jti = ?`, jti).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}
