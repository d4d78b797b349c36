package identity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/upb/property-listings/session"
)

// claimRole is the informational role placed in issued tokens; authorization reads the user record
const claimRole = "authenticated"

// TokenPair is the result of a successful sign-in
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// TokenIssuer signs HS256 access and refresh tokens with the shared secret
type TokenIssuer struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenIssuer creates a TokenIssuer
func NewTokenIssuer(secret []byte, issuer string, accessTTL, refreshTTL time.Duration) (*TokenIssuer, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("identity: signing secret is required")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, fmt.Errorf("identity: token TTLs must be positive")
	}
	return &TokenIssuer{
		secret:     secret,
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

// IssuePair issues an access and a refresh token sharing one session ID
func (i *TokenIssuer) IssuePair(subject uuid.UUID, email string) (*TokenPair, error) {
	sessionID := uuid.NewString()
	now := i.now()

	access, expiresAt, err := i.sign(subject, email, session.TokenUseAccess, sessionID, now, i.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, _, err := i.sign(subject, email, session.TokenUseRefresh, sessionID, now, i.refreshTTL)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(i.accessTTL.Seconds()),
		ExpiresAt:    expiresAt,
	}, nil
}

// IssueAccess issues a new access token for an existing session
func (i *TokenIssuer) IssueAccess(subject uuid.UUID, email, sessionID string) (string, time.Time, error) {
	return i.sign(subject, email, session.TokenUseAccess, sessionID, i.now(), i.accessTTL)
}

// AccessTTL returns the lifetime of access tokens
func (i *TokenIssuer) AccessTTL() time.Duration {
	return i.accessTTL
}

func (i *TokenIssuer) sign(subject uuid.UUID, email, use, sessionID string, now time.Time, ttl time.Duration) (string, time.Time, error) {
	expiresAt := now.Add(ttl)
	claims := &session.Claims{
		Email:    email,
		Role:     claimRole,
		TokenUse: use,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   subject.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        sessionID,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign %s token: %w", use, err)
	}
	return signed, expiresAt, nil
}
