package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/upb/property-listings/models"
	"github.com/upb/property-listings/repositories"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password SignUp accepts
const MinPasswordLength = 6

var (
	// ErrInvalidCredentials is returned when the email is unknown or the password does not match
	ErrInvalidCredentials = errors.New("invalid login credentials")

	// ErrEmailTaken is returned when an identity with the email already exists
	ErrEmailTaken = errors.New("user already registered")

	// ErrWeakPassword is returned when the password is too short or too long to hash
	ErrWeakPassword = errors.New("password should be between 6 and 72 characters")
)

// Session is a signed-in identity with its tokens
type Session struct {
	Identity *models.Identity
	Tokens   *TokenPair
}

// Provider signs identities up and in. Passwords are stored as bcrypt hashes.
type Provider struct {
	identities  repositories.IdentityRepository
	tokens      *TokenIssuer
	emailDomain string
	cost        int
	logger      *zap.Logger
	now         func() time.Time
}

// NewProvider creates a Provider. A zero cost uses bcrypt.DefaultCost.
func NewProvider(identities repositories.IdentityRepository, tokens *TokenIssuer, emailDomain string, cost int, logger *zap.Logger) *Provider {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Provider{
		identities:  identities,
		tokens:      tokens,
		emailDomain: emailDomain,
		cost:        cost,
		logger:      logger,
		now:         time.Now,
	}
}

// EmailFor maps a username to its identity email. Usernames that already look
// like an email are used as is; others get the configured domain appended.
func (p *Provider) EmailFor(username string) string {
	if strings.Contains(username, "@") {
		return strings.ToLower(username)
	}
	return strings.ToLower(username) + "@" + p.emailDomain
}

// SignUp creates a new identity
func (p *Provider) SignUp(ctx context.Context, email, password string) (*models.Identity, error) {
	if len(password) < MinPasswordLength || len(password) > 72 {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	identity := models.NewIdentity(email, string(hash))
	if err := p.identities.Create(ctx, identity); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	p.logger.Info("identity created", zap.String("identity_id", identity.ID.String()))
	return identity, nil
}

// SignInWithPassword verifies the password and issues a token pair
func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	identity, err := p.identities.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	tokens, err := p.tokens.IssuePair(identity.ID, identity.Email)
	if err != nil {
		return nil, err
	}

	if err := p.identities.TouchLastSignIn(ctx, identity.ID, p.now().UTC()); err != nil {
		p.logger.Warn("failed to record sign-in", zap.String("identity_id", identity.ID.String()), zap.Error(err))
	}

	return &Session{Identity: identity, Tokens: tokens}, nil
}
