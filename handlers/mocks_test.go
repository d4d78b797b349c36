package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/upb/property-listings/models"
	"github.com/upb/property-listings/services"
)

// MockUserService is a mock implementation of UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error) {
	args := m.Called(ctx, in)
	if r := args.Get(0); r != nil {
		return r.(*services.AuthResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserService) Login(ctx context.Context, in services.LoginInput) (*services.AuthResult, error) {
	args := m.Called(ctx, in)
	if r := args.Get(0); r != nil {
		return r.(*services.AuthResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserService) Logout(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockUserService) Refresh(ctx context.Context, refreshToken string) (*services.RefreshResult, error) {
	args := m.Called(ctx, refreshToken)
	if r := args.Get(0); r != nil {
		return r.(*services.RefreshResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if r := args.Get(0); r != nil {
		return r.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockListingService is a mock implementation of ListingService
type MockListingService struct {
	mock.Mock
}

func (m *MockListingService) List(ctx context.Context) ([]*models.Listing, error) {
	args := m.Called(ctx)
	if l := args.Get(0); l != nil {
		return l.([]*models.Listing), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockListingService) Get(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	args := m.Called(ctx, id)
	if r := args.Get(0); r != nil {
		return r.(*models.Listing), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockListingService) Create(ctx context.Context, in services.CreateListingInput) (*models.Listing, error) {
	args := m.Called(ctx, in)
	if l := args.Get(0); l != nil {
		return l.(*models.Listing), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockListingService) Update(ctx context.Context, id uuid.UUID, in services.UpdateListingInput) (*models.Listing, error) {
	args := m.Called(ctx, id, in)
	if l := args.Get(0); l != nil {
		return l.(*models.Listing), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockListingService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}
