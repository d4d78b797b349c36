package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/upb/property-listings/models"
	"github.com/upb/property-listings/services"
)

// UserService defines the account operations the user handler needs
type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error)
	Login(ctx context.Context, in services.LoginInput) (*services.AuthResult, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	Refresh(ctx context.Context, refreshToken string) (*services.RefreshResult, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// ListingService defines the listing operations the listing handler needs
type ListingService interface {
	List(ctx context.Context) ([]*models.Listing, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	Create(ctx context.Context, in services.CreateListingInput) (*models.Listing, error)
	Update(ctx context.Context, id uuid.UUID, in services.UpdateListingInput) (*models.Listing, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ListingsResponse is the body of GET /api/listings
type ListingsResponse struct {
	Listings []*models.Listing `json:"listings"`
}
