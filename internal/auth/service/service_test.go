package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/catalog/internal/auth/domain"
	"github.com/smallbiznis/catalog/internal/auth/repository"
	"github.com/smallbiznis/catalog/internal/auth/token"
	"github.com/smallbiznis/catalog/internal/validation"
	"github.com/smallbiznis/catalog/pkg/clock"
	"github.com/smallbiznis/catalog/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	svc   authdomain.Service
	clock *clock.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dbConn, err := db.NewTest(t.Name())
	require.NoError(t, err)
	require.NoError(t, dbConn.AutoMigrate(&authdomain.User{}, &authdomain.Session{}))

	repo, sessionRepo := repository.New(dbConn)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	issuer, err := token.NewIssuer([]byte("test-secret"), time.Hour, clk)
	require.NoError(t, err)

	svc := New(Params{
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       clk,
		Repo:        repo,
		SessionRepo: sessionRepo,
		Tokens:      issuer,
	})
	return &fixture{svc: svc, clock: clk}
}

func (f *fixture) register(t *testing.T, email string) *authdomain.User {
	t.Helper()
	user, err := f.svc.Register(context.Background(), authdomain.RegisterRequest{
		Name:     "Alice",
		Email:    email,
		Password: "correct-password",
	})
	require.NoError(t, err)
	return user
}

func TestRegisterDefaultsToMember(t *testing.T) {
	f := newFixture(t)

	user := f.register(t, "  Alice@Example.com ")
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, authdomain.RoleMember, user.Role)
	assert.NotEqual(t, "correct-password", user.PasswordHash)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Register(context.Background(), authdomain.RegisterRequest{
		Email:    "not-an-email",
		Password: "short",
	})
	verrs, ok := validation.As(err)
	require.True(t, ok, "expected validation errors, got %v", err)
	assert.True(t, verrs.Has("name"))
	assert.True(t, verrs.Has("email"))
	assert.True(t, verrs.Has("password"))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice@example.com")

	_, err := f.svc.Register(context.Background(), authdomain.RegisterRequest{
		Name:     "Other",
		Email:    "ALICE@example.com",
		Password: "another-password",
	})
	verrs, ok := validation.As(err)
	require.True(t, ok)
	require.Len(t, verrs.Fields, 1)
	assert.Equal(t, "unique", verrs.Fields[0].Code)
	assert.Equal(t, "The email has already been taken.", verrs.Fields[0].Message)
}

func TestLoginWrongPassword(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice@example.com")

	_, err := f.svc.Login(context.Background(), authdomain.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong-password",
	})
	assert.ErrorIs(t, err, authdomain.ErrInvalidCredentials)

	_, err = f.svc.Login(context.Background(), authdomain.LoginRequest{
		Email:    "nobody@example.com",
		Password: "wrong-password",
	})
	assert.ErrorIs(t, err, authdomain.ErrInvalidCredentials)
}

func TestLoginAuthenticateLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.register(t, "alice@example.com")

	res, err := f.svc.Login(ctx, authdomain.LoginRequest{
		Email:     "alice@example.com",
		Password:  "correct-password",
		UserAgent: "go-test",
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, res.User.ID)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, f.clock.Now().Add(time.Hour), res.ExpiresAt)

	principal, err := f.svc.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, principal.UserID)
	assert.Equal(t, authdomain.RoleMember, principal.Role)

	me, err := f.svc.CurrentUser(ctx, *principal)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", me.Email)

	require.NoError(t, f.svc.Logout(ctx, *principal))
	_, err = f.svc.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, authdomain.ErrSessionRevoked)

	require.NoError(t, f.svc.Logout(ctx, *principal))
}

func TestAuthenticateExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice@example.com")

	res, err := f.svc.Login(ctx, authdomain.LoginRequest{Email: "alice@example.com", Password: "correct-password"})
	require.NoError(t, err)

	f.clock.Advance(2 * time.Hour)
	_, err = f.svc.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, authdomain.ErrSessionExpired)
}

func TestAuthenticateRejectsGarbage(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, authdomain.ErrInvalidSession)

	_, err = f.svc.Authenticate(context.Background(), "abc.def.ghi")
	assert.ErrorIs(t, err, authdomain.ErrInvalidSession)
}

func TestLogoutUnknownSession(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Logout(context.Background(), authdomain.Principal{SessionID: snowflake.ID(99)})
	assert.ErrorIs(t, err, authdomain.ErrInvalidSession)
}
