package testutil

import (
	"path/filepath"
	"testing"

	"directory-backend/internal/database"
	"directory-backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB returns a migrated sqlite database in a temp dir with foreign keys on.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)"
	db, err := database.Open(sqlite.Open(dsn))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// Fixture holds a small reference graph used by branch tests.
type Fixture struct {
	Region    models.Region
	District  models.District
	District2 models.District
	BrandA    models.Brand
	BrandB    models.Brand
}

func SeedFixture(t *testing.T, db *gorm.DB) Fixture {
	t.Helper()

	f := Fixture{
		Region: models.Region{Name: "Tashkent"},
		BrandA: models.Brand{Name: "A"},
		BrandB: models.Brand{Name: "B"},
	}
	require.NoError(t, db.Create(&f.Region).Error)
	require.NoError(t, db.Create(&f.BrandA).Error)
	require.NoError(t, db.Create(&f.BrandB).Error)

	f.District = models.District{Name: "D1", RegionID: f.Region.ID}
	f.District2 = models.District{Name: "D2", RegionID: f.Region.ID}
	require.NoError(t, db.Create(&f.District).Error)
	require.NoError(t, db.Create(&f.District2).Error)
	return f
}
