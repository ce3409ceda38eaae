package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	defaultIssuer = "chapterhub"
	clockSkew     = 5 * time.Second
)

// Claims represents JWT claims used across the service.
type Claims struct {
	Roles  RoleTags `json:"roles"`
	Status string   `json:"status,omitempty"`
	jwt.RegisteredClaims
}

// TokenVerifier validates HS256 bearer tokens and turns them into principals.
// Credential issuance belongs to the identity provider; GenerateToken exists
// for local development and tests.
type TokenVerifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// VerifierOption configures a TokenVerifier.
type VerifierOption func(*TokenVerifier)

// WithIssuer overrides the expected issuer claim.
func WithIssuer(issuer string) VerifierOption {
	return func(v *TokenVerifier) {
		if issuer = strings.TrimSpace(issuer); issuer != "" {
			v.issuer = issuer
		}
	}
}

// WithClock replaces the time source used for expiry checks.
func WithClock(now func() time.Time) VerifierOption {
	return func(v *TokenVerifier) {
		if now != nil {
			v.now = now
		}
	}
}

// NewTokenVerifier builds a verifier for the given shared secret.
func NewTokenVerifier(secret string, opts ...VerifierOption) (*TokenVerifier, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrMissingSecret
	}
	v := &TokenVerifier{
		secret: []byte(secret),
		issuer: defaultIssuer,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// GenerateToken signs a JWT for the given principal id and role tags.
func (v *TokenVerifier) GenerateToken(subject string, roles []string, status string, ttl time.Duration) (string, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", errors.New("subject is required")
	}
	if ttl <= 0 {
		return "", errors.New("ttl must be greater than zero")
	}

	now := v.now()
	claims := Claims{
		Roles:  normalizeRoles(roles),
		Status: strings.TrimSpace(strings.ToLower(status)),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    v.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseAndValidate verifies the token signature and required claims.
func (v *TokenVerifier) ParseAndValidate(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	}, jwt.WithTimeFunc(v.now), jwt.WithLeeway(clockSkew))
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if err := v.validateClaims(claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

// Authenticate verifies the bearer token and returns the principal it names.
func (v *TokenVerifier) Authenticate(_ context.Context, token string) (Principal, error) {
	claims, err := v.ParseAndValidate(token)
	if err != nil {
		return Principal{}, err
	}
	return Principal{
		ID:     strings.TrimSpace(claims.Subject),
		Roles:  []string(claims.Roles),
		Active: claims.Status == "" || claims.Status == StatusActive,
	}, nil
}

func (v *TokenVerifier) validateClaims(claims *Claims) error {
	if claims.Issuer != v.issuer {
		return fmt.Errorf("unexpected issuer: %s", claims.Issuer)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return errors.New("subject missing")
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return errors.New("timestamps missing")
	}
	now := v.now()
	if claims.IssuedAt.Time.After(now.Add(clockSkew)) {
		return errors.New("token issued in the future")
	}
	if claims.ExpiresAt.Time.Before(claims.IssuedAt.Time) {
		return errors.New("token expiry precedes issued-at")
	}
	return nil
}
