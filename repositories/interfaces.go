package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/upb/property-listings/models"
)

var (
	// ErrNotFound is returned when the requested row does not exist
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when a unique constraint rejects an insert
	ErrDuplicate = errors.New("record already exists")
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// UserRepository handles user record operations
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetByUsername retrieves a user by the username exactly as stored
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// TouchLastLogin sets last_login_at for the user
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error

	// TouchLastLogout sets last_logout_at for the user
	TouchLastLogout(ctx context.Context, id uuid.UUID, at time.Time) error
}

// IdentityRepository handles sign-in credentials
type IdentityRepository interface {
	// Create stores a new identity; ErrDuplicate when the email is taken
	Create(ctx context.Context, identity *models.Identity) error

	// GetByEmail retrieves an identity by email
	GetByEmail(ctx context.Context, email string) (*models.Identity, error)

	// TouchLastSignIn sets last_sign_in_at for the identity
	TouchLastSignIn(ctx context.Context, id uuid.UUID, at time.Time) error
}

// ListingRepository handles listing operations
type ListingRepository interface {
	// List retrieves all listings, most recently updated first
	List(ctx context.Context) ([]*models.Listing, error)

	// GetByID retrieves a listing by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)

	// Create inserts a new listing
	Create(ctx context.Context, listing *models.Listing) error

	// Update overwrites the mutable fields of a listing
	Update(ctx context.Context, listing *models.Listing) error

	// Delete deletes a listing
	Delete(ctx context.Context, id uuid.UUID) error
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Users      UserRepository
	Identities IdentityRepository
	Listings   ListingRepository
}
