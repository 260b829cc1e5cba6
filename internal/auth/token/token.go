// Package token issues and parses the HS256 bearer tokens handed out at login.
// The token id (jti) is the session id so a token can be revoked server side.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/golang-jwt/jwt/v4"
	"github.com/smallbiznis/catalog/internal/auth/domain"
	"github.com/smallbiznis/catalog/internal/config"
	"github.com/smallbiznis/catalog/pkg/clock"
)

const (
	defaultTTL = 24 * time.Hour
	issuer     = "catalog"
)

var (
	ErrInvalidToken = errors.New("invalid_token")
	ErrExpiredToken = errors.New("expired_token")
	ErrMissingKey   = errors.New("auth_jwt_secret_missing")
)

type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type Issuer struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

func New(cfg config.Config, clk clock.Clock) (*Issuer, error) {
	ttl := time.Duration(cfg.AuthTokenTTLMin) * time.Minute
	return NewIssuer([]byte(cfg.AuthJWTSecret), ttl, clk)
}

func NewIssuer(secret []byte, ttl time.Duration, clk clock.Clock) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, ErrMissingKey
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &Issuer{secret: secret, ttl: ttl, clock: clk}, nil
}

func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue signs a token for user bound to sessionID. The returned time is the expiry.
func (i *Issuer) Issue(user domain.User, sessionID snowflake.ID) (string, time.Time, error) {
	now := i.clock.Now()
	expiresAt := now.Add(i.ttl)

	claims := Claims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   user.ID.String(),
			ID:        sessionID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse verifies raw and returns the principal it carries.
func (i *Issuer) Parse(raw string) (*domain.Principal, error) {
	parser := jwt.Parser{
		ValidMethods:         []string{jwt.SigningMethodHS256.Alg()},
		SkipClaimsValidation: true,
	}

	var claims Claims
	_, err := parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	now := i.clock.Now()
	if claims.ExpiresAt == nil || !now.Before(claims.ExpiresAt.Time) {
		return nil, ErrExpiredToken
	}
	if claims.NotBefore != nil && now.Before(claims.NotBefore.Time) {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != issuer {
		return nil, ErrInvalidToken
	}

	userID, err := parseID(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}
	sessionID, err := parseID(claims.ID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &domain.Principal{
		UserID:    userID,
		SessionID: sessionID,
		Email:     claims.Email,
		Role:      claims.Role,
	}, nil
}

func parseID(raw string) (snowflake.ID, error) {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("parse id %q: %w", raw, ErrInvalidToken)
	}
	return snowflake.ID(v), nil
}
