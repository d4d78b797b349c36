package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/upb/property-listings/models"
	"github.com/upb/property-listings/repositories"
	"go.uber.org/zap"
)

const (
	bearerPrefix = "Bearer "

	// DefaultGrace absorbs skew between token issuance and a concurrent login or logout write
	DefaultGrace = 5 * time.Second
)

// UserLookup reads the user record a token subject refers to.
// Implementations return an error wrapping repositories.ErrNotFound when there is no such user.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Config configures a Checker
type Config struct {
	Secret   []byte
	Grace    time.Duration
	Issuer   string // when set, the iss claim must match
	TokenUse string // expected token_use; defaults to access
}

// Checker validates bearer credentials against the stored session epoch.
// It holds no mutable state and is safe for concurrent use.
type Checker struct {
	secret   []byte
	grace    time.Duration
	tokenUse string
	users    UserLookup
	parser   *jwt.Parser
	logger   *zap.Logger
}

// NewChecker creates a Checker
func NewChecker(cfg Config, users UserLookup, logger *zap.Logger) (*Checker, error) {
	if len(cfg.Secret) == 0 {
		return nil, fmt.Errorf("session: secret is required")
	}
	if users == nil {
		return nil, fmt.Errorf("session: user lookup is required")
	}
	if cfg.Grace < 0 {
		return nil, fmt.Errorf("session: grace must not be negative")
	}
	if cfg.TokenUse == "" {
		cfg.TokenUse = TokenUseAccess
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	return &Checker{
		secret:   cfg.Secret,
		grace:    cfg.Grace,
		tokenUse: cfg.TokenUse,
		users:    users,
		parser:   jwt.NewParser(opts...),
		logger:   logger,
	}, nil
}

// Check validates the Authorization header value and returns the decoded claims.
// The returned error is one of the sentinel errors of this package, possibly wrapped.
func (c *Checker) Check(ctx context.Context, authorization string, allowedRoles []string) (*Claims, error) {
	claims, _, err := c.check(ctx, authorization, allowedRoles)
	return claims, err
}

// CheckUser is Check that also returns the user record the token resolved to
func (c *Checker) CheckUser(ctx context.Context, authorization string, allowedRoles []string) (*Claims, *models.User, error) {
	return c.check(ctx, authorization, allowedRoles)
}

// CheckToken validates a raw token without the bearer header framing and
// without a role requirement. Used for refresh tokens submitted in a body.
func (c *Checker) CheckToken(ctx context.Context, token string) (*Claims, *models.User, error) {
	return c.verify(ctx, token)
}

func (c *Checker) check(ctx context.Context, authorization string, allowedRoles []string) (*Claims, *models.User, error) {
	if !strings.HasPrefix(authorization, bearerPrefix) {
		return nil, nil, ErrUnauthorized
	}

	claims, user, err := c.verify(ctx, strings.TrimSpace(strings.TrimPrefix(authorization, bearerPrefix)))
	if err != nil {
		return nil, nil, err
	}

	if !roleAllowed(user.Role, allowedRoles) {
		return nil, nil, ErrForbidden
	}

	return claims, user, nil
}

func (c *Checker) verify(ctx context.Context, token string) (*Claims, *models.User, error) {
	if token == "" {
		return nil, nil, ErrInvalidToken
	}

	claims := &Claims{}
	if _, err := c.parser.ParseWithClaims(token, claims, c.keyFunc); err != nil {
		c.logger.Debug("token verification failed", zap.Error(err))
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return nil, nil, ErrInvalidToken
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}
	issuedAtMs, ok := claims.IssuedAtMillis()
	if !ok {
		return nil, nil, fmt.Errorf("%w: missing iat", ErrInvalidToken)
	}
	if claims.TokenUse != c.tokenUse {
		return nil, nil, fmt.Errorf("%w: token_use %q", ErrInvalidToken, claims.TokenUse)
	}

	user, err := c.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil, ErrUserNotFound
		}
		c.logger.Error("session user lookup failed", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, nil, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	if user == nil {
		return nil, nil, ErrUserNotFound
	}

	if issuedAtMs+c.grace.Milliseconds() < Epoch(user) {
		return nil, nil, ErrTokenExpired
	}

	return claims, user, nil
}

func (c *Checker) keyFunc(*jwt.Token) (interface{}, error) {
	return c.secret, nil
}

// Epoch returns the user's session epoch in milliseconds: the later of the
// last login and last logout, with a missing timestamp counting as zero.
func Epoch(user *models.User) int64 {
	var epoch int64
	if user.LastLoginAt != nil {
		epoch = user.LastLoginAt.UnixMilli()
	}
	if user.LastLogoutAt != nil {
		if ms := user.LastLogoutAt.UnixMilli(); ms > epoch {
			epoch = ms
		}
	}
	return epoch
}

func roleAllowed(role models.UserRole, allowed []string) bool {
	if role == "" {
		return false
	}
	for _, r := range allowed {
		if string(role) == r {
			return true
		}
	}
	return false
}
