// Package seed creates the default login and demo catalog data.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	authdomain "github.com/smallbiznis/catalog/internal/auth/domain"
	"github.com/smallbiznis/catalog/internal/auth/password"
	productdomain "github.com/smallbiznis/catalog/internal/product/domain"
	"gorm.io/gorm"
)

const (
	DefaultUserEmail    = "user@example.com"
	DefaultUserPassword = "password"
	defaultUserName     = "Catalog Admin"

	DefaultProductCount = 200
	defaultImage        = "products/default.jpg"
	minPrice            = 1000
	maxPrice            = 100000
)

//go:embed products.csv
var fixtureCSV []byte

// FixtureCSV returns the bundled product import file.
func FixtureCSV() io.Reader {
	return bytes.NewReader(fixtureCSV)
}

// EnsureDefaultUser creates the admin login when it does not exist yet.
func EnsureDefaultUser(ctx context.Context, db *gorm.DB, node *snowflake.Node) (bool, error) {
	if db == nil {
		return false, errors.New("seed database handle is required")
	}

	var existing authdomain.User
	err := db.WithContext(ctx).Where("email = ?", DefaultUserEmail).First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	hashed, err := password.Hash(DefaultUserPassword)
	if err != nil {
		return false, err
	}

	now := time.Now().UTC()
	user := authdomain.User{
		ID:           node.Generate(),
		Name:         defaultUserName,
		Email:        DefaultUserEmail,
		PasswordHash: hashed,
		Role:         authdomain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return false, err
	}
	return true, nil
}

// ProductOptions controls demo product generation. A zero Seed picks a random one.
type ProductOptions struct {
	Count int
	Seed  uint64
	Now   time.Time
}

// GenerateProducts builds Count demo products with distinct skus and created_at
// values one second apart, newest last.
func GenerateProducts(node *snowflake.Node, opts ProductOptions) []*productdomain.Product {
	count := opts.Count
	if count <= 0 {
		count = DefaultProductCount
	}
	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	rng := rand.New(rand.NewPCG(seed, seed>>1|1))
	batch := strings.ToUpper(fmt.Sprintf("%x", seed))
	if len(batch) > 6 {
		batch = batch[:6]
	}

	image := defaultImage
	out := make([]*productdomain.Product, 0, count)
	for i := 0; i < count; i++ {
		adj := adjectives[rng.IntN(len(adjectives))]
		noun := nouns[rng.IntN(len(nouns))]
		category := categories[rng.IntN(len(categories))]
		desc := fmt.Sprintf("%s %s for everyday use.", adj, strings.ToLower(noun))
		created := now.Add(time.Duration(i-count) * time.Second)

		out = append(out, &productdomain.Product{
			ID:          node.Generate().Int64(),
			Name:        fmt.Sprintf("%s %s", adj, noun),
			SKU:         fmt.Sprintf("DEMO-%s-%05d", batch, i+1),
			Price:       decimal.NewFromInt(int64(minPrice + rng.IntN(maxPrice-minPrice+1))),
			Description: &desc,
			Categories:  category,
			Image:       &image,
			CreatedAt:   created,
			UpdatedAt:   created,
		})
	}
	return out
}

// Products inserts generated demo products in batches.
func Products(ctx context.Context, db *gorm.DB, node *snowflake.Node, opts ProductOptions) (int, error) {
	items := GenerateProducts(node, opts)
	if err := db.WithContext(ctx).CreateInBatches(items, 100).Error; err != nil {
		return 0, err
	}
	return len(items), nil
}

var adjectives = []string{
	"Classic", "Organic", "Premium", "Compact", "Rustic", "Smart", "Vintage", "Eco",
	"Deluxe", "Handmade", "Portable", "Everyday",
}

var nouns = []string{
	"Coffee Grinder", "Water Bottle", "Desk Lamp", "Notebook", "Backpack", "Tea Kettle",
	"Candle", "Cutting Board", "Headphones", "Plant Pot", "Wall Clock", "Towel Set",
}

var categories = []string{
	"Kitchen", "Office", "Home", "Outdoor", "Electronics", "Beverages", "Accessories",
}
