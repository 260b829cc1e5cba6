package migration

import (
	"io/fs"
	"sort"
	"strings"
	"testing"

	authdomain "github.com/smallbiznis/catalog/internal/auth/domain"
	productdomain "github.com/smallbiznis/catalog/internal/product/domain"
	"github.com/smallbiznis/catalog/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(embeddedMigrations, migrationsDir)
	require.NoError(t, err)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Fatalf("unexpected migration file %s", name)
		}
	}
	require.NotEmpty(t, ups)
	assert.Equal(t, ups, downs)

	versions := make([]string, 0, len(ups))
	for v := range ups {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	assert.True(t, strings.HasPrefix(versions[0], "000001_"))

	_, err = newSource()
	require.NoError(t, err)
}

func TestRunAutoMigratesNonPostgres(t *testing.T) {
	conn, err := db.NewTest(t.Name())
	require.NoError(t, err)

	require.NoError(t, Run(conn))
	assert.True(t, conn.Migrator().HasTable(&productdomain.Product{}))
	assert.True(t, conn.Migrator().HasTable(&authdomain.User{}))
	assert.True(t, conn.Migrator().HasTable(&authdomain.Session{}))
	assert.True(t, conn.Migrator().HasIndex(&productdomain.Product{}, "ux_products_sku"))

	require.NoError(t, Run(conn))
}

func TestRunRequiresConnection(t *testing.T) {
	assert.Error(t, Run(nil))
	assert.Error(t, RunMigrations(nil))
	assert.Error(t, Rollback(nil, 0))
}
