package authorization

import (
	"context"
	"testing"

	"github.com/smallbiznis/catalog/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) Service {
	t.Helper()

	conn, err := db.NewTest(t.Name())
	require.NoError(t, err)

	enforcer, err := NewEnforcer(conn)
	require.NoError(t, err)

	return NewService(Params{Log: zap.NewNop(), Enforcer: enforcer})
}

func TestAuthorizeByRole(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		role    string
		action  string
		allowed bool
	}{
		{"admin", ActionProductDelete, true},
		{"admin", ActionProductImport, true},
		{"member", ActionProductCreate, true},
		{"member", ActionProductDelete, true},
		{"member", ActionProductImport, true},
		{"viewer", ActionProductView, true},
		{"viewer", ActionProductExport, true},
		{"viewer", ActionProductCreate, false},
		{"viewer", ActionProductDelete, false},
		{"ghost", ActionProductView, false},
	}

	for _, tc := range cases {
		t.Run(tc.role+"/"+tc.action, func(t *testing.T) {
			err := svc.Authorize(ctx, "user:"+tc.role, tc.role, ObjectProduct, tc.action)
			if tc.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrForbidden)
			}
		})
	}
}

func TestAuthorizeFollowsRoleChange(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Authorize(ctx, "user:1", "member", ObjectProduct, ActionProductDelete))
	assert.ErrorIs(t, svc.Authorize(ctx, "user:1", "viewer", ObjectProduct, ActionProductDelete), ErrForbidden)
	assert.NoError(t, svc.Authorize(ctx, "user:1", "viewer", ObjectProduct, ActionProductView))
}

func TestAuthorizeRejectsBlankArguments(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Authorize(ctx, " ", "admin", ObjectProduct, ActionProductView), ErrInvalidActor)
	assert.ErrorIs(t, svc.Authorize(ctx, "user:1", "", ObjectProduct, ActionProductView), ErrInvalidRole)
	assert.ErrorIs(t, svc.Authorize(ctx, "user:1", "admin", "", ActionProductView), ErrInvalidObject)
	assert.ErrorIs(t, svc.Authorize(ctx, "user:1", "admin", ObjectProduct, ""), ErrInvalidAction)
}

func TestNewEnforcerSeedsIdempotently(t *testing.T) {
	conn, err := db.NewTest(t.Name())
	require.NoError(t, err)

	first, err := NewEnforcer(conn)
	require.NoError(t, err)
	second, err := NewEnforcer(conn)
	require.NoError(t, err)

	p1, err := first.GetPolicy()
	require.NoError(t, err)
	p2, err := second.GetPolicy()
	require.NoError(t, err)
	assert.Len(t, p2, len(p1))
}
