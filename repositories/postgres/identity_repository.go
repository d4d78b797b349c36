package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/upb/property-listings/models"
	"github.com/upb/property-listings/repositories"
	"go.uber.org/zap"
)

// IdentityRepository implements the repositories.IdentityRepository interface
type IdentityRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewIdentityRepository creates a new identity repository
func NewIdentityRepository(db *DB, logger *zap.Logger) repositories.IdentityRepository {
	return &IdentityRepository{db: db, logger: logger}
}

// Create stores a new identity
func (r *IdentityRepository) Create(ctx context.Context, identity *models.Identity) error {
	query := `
		INSERT INTO auth_identities (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		identity.ID,
		identity.Email,
		identity.PasswordHash,
		identity.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("identity %q: %w", identity.Email, repositories.ErrDuplicate)
		}
		return fmt.Errorf("failed to create identity: %w", err)
	}

	r.logger.Debug("identity created", zap.String("id", identity.ID.String()))
	return nil
}

// GetByEmail retrieves an identity by email
func (r *IdentityRepository) GetByEmail(ctx context.Context, email string) (*models.Identity, error) {
	query := `
		SELECT id, email, password_hash, created_at, last_sign_in_at
		FROM auth_identities
		WHERE email = $1
	`

	identity := &models.Identity{}
	var lastSignIn sql.NullTime

	err := GetExecutor(ctx, r.db).QueryRowContext(ctx, query, email).Scan(
		&identity.ID,
		&identity.Email,
		&identity.PasswordHash,
		&identity.CreatedAt,
		&lastSignIn,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("identity %q: %w", email, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}

	if lastSignIn.Valid {
		t := lastSignIn.Time
		identity.LastSignInAt = &t
	}
	return identity, nil
}

// TouchLastSignIn sets last_sign_in_at
func (r *IdentityRepository) TouchLastSignIn(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE auth_identities SET last_sign_in_at = $2 WHERE id = $1`

	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("failed to update identity: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("identity %s: %w", id, repositories.ErrNotFound)
	}
	return nil
}
