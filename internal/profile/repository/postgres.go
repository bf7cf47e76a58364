package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"kyc-onboarding/backend/internal/profile/domain"
)

const uniqueViolation = "23505"

const profileColumns = `id, address, email, phone, created_at, updated_at`

// PostgresRepository stores profiles in the profiles table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a profile repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) getBy(ctx context.Context, column, value string) (*domain.Profile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE `+column+` = $1`, value)
	var p domain.Profile
	var email, phone sql.NullString
	if err := row.Scan(&p.ID, &p.Address, &email, &phone, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	p.Email, p.Phone = email.String, phone.String
	return &p, nil
}

// GetByAddress returns the profile for address, or nil if not found.
func (r *PostgresRepository) GetByAddress(ctx context.Context, address string) (*domain.Profile, error) {
	return r.getBy(ctx, "lower(address)", strings.ToLower(address))
}

// GetByEmail returns the profile holding email, or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	return r.getBy(ctx, "email", email)
}

// GetByPhone returns the profile holding phone, or nil if not found.
func (r *PostgresRepository) GetByPhone(ctx context.Context, phone string) (*domain.Profile, error) {
	return r.getBy(ctx, "phone", phone)
}

// Create inserts p. The ID must be set. A unique violation is reported as ErrConflict.
func (r *PostgresRepository) Create(ctx context.Context, p *domain.Profile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (`+profileColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.Address, nullable(p.Email), nullable(p.Phone), p.CreatedAt, p.UpdatedAt)
	return mapErr(err)
}

// Update overwrites email, phone and updated_at. A missing row is not an error.
func (r *PostgresRepository) Update(ctx context.Context, p *domain.Profile) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET email = $2, phone = $3, updated_at = $4 WHERE id = $1`,
		p.ID, nullable(p.Email), nullable(p.Phone), p.UpdatedAt)
	return mapErr(err)
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func mapErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
	}
	return err
}
