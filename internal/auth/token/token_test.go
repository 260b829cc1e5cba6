package token

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/golang-jwt/jwt/v4"
	"github.com/smallbiznis/catalog/internal/auth/domain"
	"github.com/smallbiznis/catalog/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIssuer(t *testing.T, clk clock.Clock) *Issuer {
	t.Helper()
	iss, err := NewIssuer([]byte("test-secret"), time.Hour, clk)
	require.NoError(t, err)
	return iss
}

func TestIssueAndParse(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	iss := newIssuer(t, clk)

	user := domain.User{ID: snowflake.ID(42), Email: "user@example.com", Role: domain.RoleAdmin}
	raw, expiresAt, err := iss.Issue(user, snowflake.ID(7))
	require.NoError(t, err)
	assert.Equal(t, clk.Now().Add(time.Hour), expiresAt)

	p, err := iss.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(42), p.UserID)
	assert.Equal(t, snowflake.ID(7), p.SessionID)
	assert.Equal(t, "user@example.com", p.Email)
	assert.Equal(t, domain.RoleAdmin, p.Role)
}

func TestParseExpired(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	iss := newIssuer(t, clk)

	raw, _, err := iss.Issue(domain.User{ID: 1, Role: domain.RoleMember}, 2)
	require.NoError(t, err)

	clk.Advance(time.Hour)
	_, err = iss.Parse(raw)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestParseRejectsForeignSignature(t *testing.T) {
	iss := newIssuer(t, clock.System{})
	other, err := NewIssuer([]byte("other-secret"), time.Hour, clock.System{})
	require.NoError(t, err)

	raw, _, err := other.Issue(domain.User{ID: 1}, 2)
	require.NoError(t, err)

	_, err = iss.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = iss.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsOtherAlgorithms(t *testing.T) {
	iss := newIssuer(t, clock.System{})
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   "1",
		ID:        "2",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = iss.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewIssuerRequiresSecret(t *testing.T) {
	_, err := NewIssuer(nil, time.Hour, nil)
	assert.ErrorIs(t, err, ErrMissingKey)

	iss, err := NewIssuer([]byte("x"), 0, nil)
	require.NoError(t, err)
	assert.Equal(t, defaultTTL, iss.TTL())
}
