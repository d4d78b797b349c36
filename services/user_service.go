package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/upb/property-listings/identity"
	"github.com/upb/property-listings/models"
	"github.com/upb/property-listings/repositories"
	"github.com/upb/property-listings/session"
	"github.com/upb/property-listings/utils"
	"go.uber.org/zap"
)

// IdentityProvider signs identities up and in
type IdentityProvider interface {
	EmailFor(username string) string
	SignUp(ctx context.Context, email, password string) (*models.Identity, error)
	SignInWithPassword(ctx context.Context, email, password string) (*identity.Session, error)
}

// AccessTokenIssuer issues access tokens for an existing session
type AccessTokenIssuer interface {
	IssueAccess(subject uuid.UUID, email, sessionID string) (string, time.Time, error)
	AccessTTL() time.Duration
}

// RefreshVerifier validates refresh tokens against the session epoch
type RefreshVerifier interface {
	CheckToken(ctx context.Context, token string) (*session.Claims, *models.User, error)
}

// RegisterInput is the registration request
type RegisterInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	FullName string `json:"full_name" validate:"required"`
}

// LoginInput is the login request
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is returned by Register and Login
type AuthResult struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
	User         *models.User `json:"user"`
}

// RefreshResult is returned by Refresh
type RefreshResult struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// UserService handles registration, login, logout and token refresh.
// Login and logout move the session epoch the session checker enforces.
type UserService struct {
	users    repositories.UserRepository
	identity IdentityProvider
	tokens   AccessTokenIssuer
	refresh  RefreshVerifier
	txMgr    repositories.TransactionManager
	logger   *zap.Logger
	now      func() time.Time
}

// NewUserService creates a new UserService
func NewUserService(
	users repositories.UserRepository,
	identityProvider IdentityProvider,
	tokens AccessTokenIssuer,
	refresh RefreshVerifier,
	txMgr repositories.TransactionManager,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		users:    users,
		identity: identityProvider,
		tokens:   tokens,
		refresh:  refresh,
		txMgr:    txMgr,
		logger:   logger,
		now:      time.Now,
	}
}

// Register creates the identity and the user record in one transaction, then
// signs the new user in. If sign-in fails after commit the account exists and
// the client can log in normally.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Password = strings.TrimSpace(in.Password)
	in.FullName = strings.TrimSpace(in.FullName)

	if err := utils.ValidateStruct(&in); err != nil {
		return nil, withFields(ErrMissingRegisterFields, err)
	}

	email := s.identity.EmailFor(in.Username)

	user, err := WithTransactionResult(ctx, s.txMgr, func(ctx context.Context, _ repositories.Transaction) (*models.User, error) {
		created, err := s.identity.SignUp(ctx, email, in.Password)
		if err != nil {
			return nil, err
		}

		user := models.NewUser(created.ID, in.Username, in.FullName)
		if err := s.users.Create(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrWeakPassword):
			return nil, ErrWeakPassword.Wrap(err)
		case errors.Is(err, identity.ErrEmailTaken), errors.Is(err, repositories.ErrDuplicate):
			return nil, ErrDuplicateUsername.Wrap(err)
		}
		return nil, WrapInternal("failed to register user", err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID.String()))

	result, err := s.startSession(ctx, email, in.Password, user)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Login looks up the user record, verifies credentials and moves last_login_at to now
func (s *UserService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Password = strings.TrimSpace(in.Password)

	if err := utils.ValidateStruct(&in); err != nil {
		var vErr *utils.ValidationError
		if errors.As(err, &vErr) {
			switch {
			case vErr.Has("username") && vErr.Has("password"):
				return nil, ErrMissingCredentials
			case vErr.Has("username"):
				return nil, ErrMissingUsername
			default:
				return nil, ErrMissingPassword
			}
		}
		return nil, ErrInvalidInput.Wrap(err)
	}

	// no tokens are minted for a username without a user record
	user, err := s.users.GetByUsername(ctx, in.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound.Wrap(err)
		}
		return nil, ErrDatabaseError.Wrap(err)
	}

	sess, err := s.identity.SignInWithPassword(ctx, s.identity.EmailFor(in.Username), in.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			return nil, ErrInvalidCredentials
		}
		return nil, WrapInternal("failed to sign in", err)
	}

	return s.finishLogin(ctx, sess, user)
}

// Logout moves last_logout_at to now, invalidating every token issued before it
func (s *UserService) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.users.TouchLastLogout(ctx, userID, s.now().UTC()); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrSessionUserMissing.Wrap(err)
		}
		return WrapInternal("Failed to logout user", err)
	}

	s.logger.Info("user logged out", zap.String("user_id", userID.String()))
	return nil
}

// Refresh exchanges a refresh token for a new access token in the same session.
// The refresh token is subject to the same epoch rule as access tokens.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, ErrMissingRefreshToken
	}

	claims, user, err := s.refresh.CheckToken(ctx, refreshToken)
	if err != nil {
		return nil, FromSessionError(err)
	}

	access, expiresAt, err := s.tokens.IssueAccess(user.ID, claims.Email, claims.ID)
	if err != nil {
		return nil, WrapInternal("failed to issue access token", err)
	}

	return &RefreshResult{
		AccessToken: access,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.tokens.AccessTTL().Seconds()),
		ExpiresAt:   expiresAt,
	}, nil
}

// GetUser returns a user record by ID
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound.Wrap(err)
		}
		return nil, ErrDatabaseError.Wrap(err)
	}
	return user, nil
}

func (s *UserService) startSession(ctx context.Context, email, password string, user *models.User) (*AuthResult, error) {
	sess, err := s.identity.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, WrapInternal("registered but failed to sign in", err)
	}
	return s.finishLogin(ctx, sess, user)
}

// finishLogin records the login after the tokens were issued, so the new
// tokens fall inside the grace window of the epoch they create.
func (s *UserService) finishLogin(ctx context.Context, sess *identity.Session, user *models.User) (*AuthResult, error) {
	now := s.now().UTC()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, WrapInternal("failed to record login", err)
	}
	user.LastLoginAt = &now

	s.logger.Info("user logged in", zap.String("user_id", user.ID.String()))

	return &AuthResult{
		AccessToken:  sess.Tokens.AccessToken,
		RefreshToken: sess.Tokens.RefreshToken,
		TokenType:    sess.Tokens.TokenType,
		ExpiresIn:    sess.Tokens.ExpiresIn,
		User:         user,
	}, nil
}

// withFields returns a copy of base carrying the field errors of a validation failure
func withFields(base *DomainError, err error) *DomainError {
	out := NewDomainError(base.Type, base.Message, err)
	for k, v := range utils.FieldDetails(err) {
		out.WithDetail(k, v)
	}
	return out
}
