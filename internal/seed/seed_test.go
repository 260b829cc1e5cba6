package seed

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gocarina/gocsv"
	authdomain "github.com/smallbiznis/catalog/internal/auth/domain"
	"github.com/smallbiznis/catalog/internal/auth/password"
	productdomain "github.com/smallbiznis/catalog/internal/product/domain"
	"github.com/smallbiznis/catalog/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return node
}

func TestGenerateProducts(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	items := GenerateProducts(newNode(t), ProductOptions{Count: 50, Seed: 42, Now: now})
	require.Len(t, items, 50)

	skus := map[string]struct{}{}
	for i, p := range items {
		skus[p.SKU] = struct{}{}
		assert.True(t, p.Price.IntPart() >= minPrice && p.Price.IntPart() <= maxPrice, p.Price.String())
		require.NotNil(t, p.Image)
		assert.Equal(t, "products/default.jpg", *p.Image)
		if i > 0 {
			assert.True(t, p.CreatedAt.After(items[i-1].CreatedAt))
		}
	}
	assert.Len(t, skus, 50)
	assert.True(t, items[len(items)-1].CreatedAt.Before(now))

	again := GenerateProducts(newNode(t), ProductOptions{Count: 50, Seed: 42, Now: now})
	assert.Equal(t, items[7].Name, again[7].Name)
	assert.Equal(t, items[7].SKU, again[7].SKU)
}

func TestProductsAndDefaultUser(t *testing.T) {
	conn, err := db.NewTest(t.Name())
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&productdomain.Product{}, &authdomain.User{}))
	ctx := context.Background()
	node := newNode(t)

	n, err := Products(ctx, conn, node, ProductOptions{Count: 120, Seed: 7})
	require.NoError(t, err)
	assert.Equal(t, 120, n)

	var count int64
	require.NoError(t, conn.Model(&productdomain.Product{}).Count(&count).Error)
	assert.Equal(t, int64(120), count)

	created, err := EnsureDefaultUser(ctx, conn, node)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = EnsureDefaultUser(ctx, conn, node)
	require.NoError(t, err)
	assert.False(t, created)

	var user authdomain.User
	require.NoError(t, conn.Where("email = ?", DefaultUserEmail).First(&user).Error)
	assert.Equal(t, authdomain.RoleAdmin, user.Role)
	assert.True(t, password.Verify(DefaultUserPassword, user.PasswordHash))
}

func TestFixtureCSVParses(t *testing.T) {
	var rows []struct {
		Name  string `csv:"name"`
		SKU   string `csv:"sku"`
		Price string `csv:"price"`
	}
	require.NoError(t, gocsv.Unmarshal(FixtureCSV(), &rows))
	assert.NotEmpty(t, rows)
	for _, r := range rows {
		assert.NotEmpty(t, r.SKU)
		assert.NotEmpty(t, r.Price)
	}
}
