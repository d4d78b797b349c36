package services

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/upb/property-listings/identity"
	"github.com/upb/property-listings/models"
	"github.com/upb/property-listings/repositories"
	"github.com/upb/property-listings/session"
)

// MockTransactionManager is a mock implementation of TransactionManager
type MockTransactionManager struct {
	mock.Mock
}

func (m *MockTransactionManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	args := m.Called(ctx)
	if tx := args.Get(0); tx != nil {
		return tx.(repositories.Transaction), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTransactionManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	args := m.Called(ctx, fn)
	return args.Error(0)
}

// MockTransaction is a mock implementation of Transaction
type MockTransaction struct {
	mock.Mock
	committed  bool
	rolledback bool
}

func (m *MockTransaction) Commit() error {
	args := m.Called()
	m.committed = true
	return args.Error(0)
}

func (m *MockTransaction) Rollback() error {
	args := m.Called()
	m.rolledback = true
	return args.Error(0)
}

func (m *MockTransaction) Context() context.Context {
	args := m.Called()
	return args.Get(0).(context.Context)
}

// expectCommit wires a transaction manager that begins and commits one transaction
func expectCommit(txMgr *MockTransactionManager, ctx context.Context) *MockTransaction {
	tx := new(MockTransaction)
	txMgr.On("Begin", ctx).Return(tx, nil)
	tx.On("Context").Return(ctx)
	tx.On("Commit").Return(nil)
	return tx
}

// expectRollback wires a transaction manager that begins and rolls back one transaction
func expectRollback(txMgr *MockTransactionManager, ctx context.Context) *MockTransaction {
	tx := new(MockTransaction)
	txMgr.On("Begin", ctx).Return(tx, nil)
	tx.On("Context").Return(ctx)
	tx.On("Rollback").Return(nil)
	return tx
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *MockUserRepository) TouchLastLogout(ctx context.Context, id uuid.UUID, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

// MockIdentityProvider is a mock implementation of IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) EmailFor(username string) string {
	return m.Called(username).String(0)
}

func (m *MockIdentityProvider) SignUp(ctx context.Context, email, password string) (*models.Identity, error) {
	args := m.Called(ctx, email, password)
	if i := args.Get(0); i != nil {
		return i.(*models.Identity), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIdentityProvider) SignInWithPassword(ctx context.Context, email, password string) (*identity.Session, error) {
	args := m.Called(ctx, email, password)
	if s := args.Get(0); s != nil {
		return s.(*identity.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockAccessIssuer is a mock implementation of AccessTokenIssuer
type MockAccessIssuer struct {
	mock.Mock
}

func (m *MockAccessIssuer) IssueAccess(subject uuid.UUID, email, sessionID string) (string, time.Time, error) {
	args := m.Called(subject, email, sessionID)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockAccessIssuer) AccessTTL() time.Duration {
	return m.Called().Get(0).(time.Duration)
}

// MockRefreshVerifier is a mock implementation of RefreshVerifier
type MockRefreshVerifier struct {
	mock.Mock
}

func (m *MockRefreshVerifier) CheckToken(ctx context.Context, token string) (*session.Claims, *models.User, error) {
	args := m.Called(ctx, token)
	var claims *session.Claims
	if c := args.Get(0); c != nil {
		claims = c.(*session.Claims)
	}
	var user *models.User
	if u := args.Get(1); u != nil {
		user = u.(*models.User)
	}
	return claims, user, args.Error(2)
}

// MockListingRepository is a mock implementation of ListingRepository
type MockListingRepository struct {
	mock.Mock
}

func (m *MockListingRepository) List(ctx context.Context) ([]*models.Listing, error) {
	args := m.Called(ctx)
	if l := args.Get(0); l != nil {
		return l.([]*models.Listing), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockListingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	args := m.Called(ctx, id)
	if l := args.Get(0); l != nil {
		return l.(*models.Listing), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockListingRepository) Create(ctx context.Context, listing *models.Listing) error {
	return m.Called(ctx, listing).Error(0)
}

func (m *MockListingRepository) Update(ctx context.Context, listing *models.Listing) error {
	return m.Called(ctx, listing).Error(0)
}

func (m *MockListingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockUploader is a mock implementation of storage.Uploader
type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, bucket, object, contentType string, r io.Reader) (string, error) {
	args := m.Called(ctx, bucket, object, contentType, r)
	return args.String(0), args.Error(1)
}
