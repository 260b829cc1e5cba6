package repository

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/catalog/internal/product/domain"
	"github.com/smallbiznis/catalog/pkg/db"
	"github.com/smallbiznis/catalog/pkg/db/option"
	"github.com/smallbiznis/catalog/pkg/db/pagination"
	pkgrepo "github.com/smallbiznis/catalog/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{})
	require.NoError(t, err)
	return gormDB, mock
}

func setupSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := db.NewTest(t.Name())
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Product{}))
	t.Cleanup(func() {
		_ = conn.Migrator().DropTable(&domain.Product{})
	})
	return conn
}

var baseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func seedProduct(t *testing.T, conn *gorm.DB, id int64, name, sku, price, categories string, description *string) *domain.Product {
	t.Helper()
	p := &domain.Product{
		ID:          id,
		Name:        name,
		SKU:         sku,
		Price:       decimal.RequireFromString(price),
		Description: description,
		Categories:  categories,
		CreatedAt:   baseTime.Add(time.Duration(id) * time.Minute),
		UpdatedAt:   baseTime.Add(time.Duration(id) * time.Minute),
	}
	require.NoError(t, Provide().Create(context.Background(), conn, p))
	return p
}

func strPtr(v string) *string { return &v }

func TestSearch_PostgresSQLShape(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	predicate := `WHERE (LOWER(name) LIKE $1 ESCAPE '!' OR LOWER(sku) LIKE $2 ESCAPE '!' OR LOWER(categories) LIKE $3 ESCAPE '!' OR CAST(price AS TEXT) LIKE $4 ESCAPE '!' OR LOWER(description) LIKE $5 ESCAPE '!')`

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "products" ` + predicate)).
		WithArgs("%5000%", "%5000%", "%5000%", "%5000%", "%5000%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products" `+predicate) + `.*` + regexp.QuoteMeta(`ORDER BY "created_at" DESC,"id" LIMIT`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "sku", "price", "description", "categories", "image", "created_at", "updated_at"}).
			AddRow(1, "Desk", "DSK-1", "5000.00", nil, "furniture", nil, now, now))

	items, total, err := Provide().Search(context.Background(), gormDB, domain.SearchFilter{
		Term: "5000",
		Page: pagination.Pagination{Page: 1, Limit: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "5000.00", items[0].Price.StringFixed(2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearch_NoTermHasNoWhere(t *testing.T) {
	gormDB, mock := setupMockDB(t)

	mock.ExpectQuery(`^` + regexp.QuoteMeta(`SELECT count(*) FROM "products"`) + `$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	items, total, err := Provide().Search(context.Background(), gormDB, domain.SearchFilter{
		Page: pagination.Pagination{Page: 1, Limit: 10},
	})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearch_DefaultPageNewestFirst(t *testing.T) {
	conn := setupSQLite(t)
	for i := int64(1); i <= 15; i++ {
		seedProduct(t, conn, i, fmt.Sprintf("Item %02d", i), fmt.Sprintf("SKU-%02d", i), "100", "misc", nil)
	}

	items, total, err := Provide().Search(context.Background(), conn, domain.SearchFilter{
		Page: pagination.Pagination{Page: 1, Limit: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(15), total)
	require.Len(t, items, 10)
	assert.Equal(t, int64(15), items[0].ID)
	assert.Equal(t, int64(6), items[9].ID)

	items, _, err = Provide().Search(context.Background(), conn, domain.SearchFilter{
		Page: pagination.Pagination{Page: 2, Limit: 10},
	})
	require.NoError(t, err)
	require.Len(t, items, 5)
	assert.Equal(t, int64(5), items[0].ID)
	assert.Equal(t, int64(1), items[4].ID)
}

func TestSearch_TiedCreatedAtKeepsInsertionOrder(t *testing.T) {
	conn := setupSQLite(t)
	for _, id := range []int64{10, 20, 30} {
		p := &domain.Product{
			ID:         id,
			Name:       fmt.Sprintf("Item %d", id),
			SKU:        fmt.Sprintf("SKU-%d", id),
			Price:      decimal.NewFromInt(100),
			Categories: "misc",
			CreatedAt:  baseTime,
			UpdatedAt:  baseTime,
		}
		require.NoError(t, Provide().Create(context.Background(), conn, p))
	}
	seedProduct(t, conn, 1, "Newer", "NEW-1", "100", "misc", nil)

	items, total, err := Provide().Search(context.Background(), conn, domain.SearchFilter{
		Page: pagination.Pagination{Page: 1, Limit: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)

	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	assert.Equal(t, []int64{1, 10, 20, 30}, ids)
}

func TestSearch_CaseInsensitiveAcrossColumns(t *testing.T) {
	conn := setupSQLite(t)
	seedProduct(t, conn, 1, "Smart Phone", "SP-1", "2500", "electronics", nil)
	seedProduct(t, conn, 2, "Desk", "DSK-1", "700", "furniture", strPtr("Oak desk with PHONE holder"))
	seedProduct(t, conn, 3, "Chair", "CHR-1", "300", "furniture", nil)
	seedProduct(t, conn, 4, "Cable", "PHONE-CBL", "15", "accessories", nil)

	items, total, err := Provide().Search(context.Background(), conn, domain.SearchFilter{
		Term: "PhOnE",
		Page: pagination.Pagination{Page: 1, Limit: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	ids := []int64{}
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	assert.Equal(t, []int64{4, 2, 1}, ids)

	_, total, err = Provide().Search(context.Background(), conn, domain.SearchFilter{
		Term: "FURNITURE",
		Page: pagination.Pagination{Page: 1, Limit: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestSearch_PriceAsText(t *testing.T) {
	conn := setupSQLite(t)
	seedProduct(t, conn, 1, "Laptop", "LP-1", "5000", "electronics", nil)
	seedProduct(t, conn, 2, "Monitor", "MN-1", "1500", "electronics", nil)
	seedProduct(t, conn, 3, "Server", "SV-1", "25000", "electronics", nil)

	items, total, err := Provide().Search(context.Background(), conn, domain.SearchFilter{
		Term: "5000",
		Page: pagination.Pagination{Page: 1, Limit: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 2)
	assert.Equal(t, "SV-1", items[0].SKU)
	assert.Equal(t, "LP-1", items[1].SKU)
}

func TestSearch_WildcardsAreLiteral(t *testing.T) {
	conn := setupSQLite(t)
	seedProduct(t, conn, 1, "Promo 50% off", "PR-1", "10", "promo", nil)
	seedProduct(t, conn, 2, "Plain", "PL-1", "10", "misc", nil)

	_, total, err := Provide().Search(context.Background(), conn, domain.SearchFilter{
		Term: "%",
		Page: pagination.Pagination{Page: 1, Limit: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	_, total, err = Provide().Search(context.Background(), conn, domain.SearchFilter{
		Term: "_",
		Page: pagination.Pagination{Page: 1, Limit: 10},
	})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestSearch_PageBeyondLast(t *testing.T) {
	conn := setupSQLite(t)
	seedProduct(t, conn, 1, "Only", "ONLY-1", "1", "misc", nil)

	items, total, err := Provide().Search(context.Background(), conn, domain.SearchFilter{
		Page: pagination.Pagination{Page: 5, Limit: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Empty(t, items)
}

func TestSearchExpression_DoesNotWidenOtherPredicates(t *testing.T) {
	conn := setupSQLite(t)
	seedProduct(t, conn, 1, "Red Lamp", "LMP-1", "40", "lighting", nil)
	seedProduct(t, conn, 2, "Red Chair", "CHR-9", "90", "furniture", nil)
	seedProduct(t, conn, 3, "Blue Chair", "CHR-10", "95", "furniture", nil)

	store := pkgrepo.ProvideStore[domain.Product](conn)
	items, err := store.Find(context.Background(), &domain.Product{Categories: "furniture"},
		option.ApplyExpression(SearchExpression("red", conn.Dialector.Name())),
	)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "CHR-9", items[0].SKU)
}

func TestSKUTaken(t *testing.T) {
	conn := setupSQLite(t)
	p := seedProduct(t, conn, 1, "Lamp", "LMP-1", "40", "lighting", nil)
	r := Provide()
	ctx := context.Background()

	taken, err := r.SKUTaken(ctx, conn, "LMP-1", 0)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = r.SKUTaken(ctx, conn, "LMP-1", p.ID)
	require.NoError(t, err)
	assert.False(t, taken)

	taken, err = r.SKUTaken(ctx, conn, "NEW-1", 0)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestCreate_DuplicateSKU(t *testing.T) {
	conn := setupSQLite(t)
	seedProduct(t, conn, 1, "Lamp", "LMP-1", "40", "lighting", nil)

	err := Provide().Create(context.Background(), conn, &domain.Product{
		ID: 2, Name: "Other", SKU: "LMP-1", Price: decimal.NewFromInt(1), Categories: "x",
		CreatedAt: baseTime, UpdatedAt: baseTime,
	})
	require.Error(t, err)
	assert.True(t, db.IsDuplicateKeyErr(err))
}

func TestUpdateAndDelete(t *testing.T) {
	conn := setupSQLite(t)
	p := seedProduct(t, conn, 1, "Lamp", "LMP-1", "40", "lighting", strPtr("desc"))
	r := Provide()
	ctx := context.Background()

	require.NoError(t, r.Update(ctx, conn, p.ID, map[string]any{
		"name":        "Floor Lamp",
		"description": (*string)(nil),
	}))
	got, err := r.FindByID(ctx, conn, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Floor Lamp", got.Name)
	assert.Equal(t, "LMP-1", got.SKU)
	assert.Nil(t, got.Description)

	require.NoError(t, r.Delete(ctx, conn, p.ID))
	got, err = r.FindByID(ctx, conn, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
