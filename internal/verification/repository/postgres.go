package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"kyc-onboarding/backend/internal/verification/domain"
)

const (
	insertChallenge = `
		INSERT INTO verification_challenges (id, channel, destination, code_hash, attempts, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	selectChallenge = `
		SELECT id, channel, destination, code_hash, attempts, expires_at, consumed_at, created_at
		FROM verification_challenges
		WHERE id = $1`
	reserveAttempt = `
		UPDATE verification_challenges
		SET attempts = attempts + 1
		WHERE id = $1 AND consumed_at IS NULL AND expires_at > $2 AND attempts < $3`
	consumeChallenge = `
		UPDATE verification_challenges
		SET consumed_at = $2
		WHERE id = $1 AND consumed_at IS NULL`
	deleteChallenge = `DELETE FROM verification_challenges WHERE id = $1`
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a challenge repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the challenge. The challenge must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, c *domain.Challenge) error {
	_, err := r.db.ExecContext(ctx, insertChallenge,
		c.ID, c.Channel, c.Destination, c.CodeHash, c.Attempts, c.ExpiresAt, c.CreatedAt)
	return err
}

// GetByID returns the challenge for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Challenge, error) {
	var (
		c        domain.Challenge
		consumed sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, selectChallenge, id).Scan(
		&c.ID, &c.Channel, &c.Destination, &c.CodeHash, &c.Attempts, &c.ExpiresAt, &consumed, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if consumed.Valid {
		t := consumed.Time
		c.ConsumedAt = &t
	}
	return &c, nil
}

// ReserveAttempt increments attempts with a conditional UPDATE; the row lock serialises
// concurrent callers, so at most maxAttempts of them see a row affected.
func (r *PostgresRepository) ReserveAttempt(ctx context.Context, id string, maxAttempts int, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, reserveAttempt, id, now, maxAttempts)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Consume sets consumed_at only if it is still NULL, so exactly one caller wins.
func (r *PostgresRepository) Consume(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, consumeChallenge, id, at)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Delete removes the challenge row.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, deleteChallenge, id)
	return err
}
