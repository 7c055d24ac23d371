package database

import (
	"fmt"

	"directory-backend/internal/models"

	"gorm.io/gorm"
)

var regionNames = []string{
	"Karakalpakstan",
	"Andijon",
	"Bukhara",
	"Jizzakh",
	"Qashqadaryo",
	"Navoiy",
	"Namangan",
	"Samarqand",
	"Surxondaryo",
	"Sirdaryo",
	"Tashkent",
	"Fergana",
	"Khorezm",
	"Tashkent City",
}

// SeedRegions inserts the fixed region list with ids 1..14 when the table is
// empty. Returns the number of rows inserted.
func SeedRegions(db *gorm.DB) (int, error) {
	var count int64
	if err := db.Model(&models.Region{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count regions: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	regions := make([]models.Region, 0, len(regionNames))
	for i, name := range regionNames {
		regions = append(regions, models.Region{ID: uint(i + 1), Name: name})
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&regions).Error; err != nil {
			return err
		}
		// explicit ids leave the postgres sequence behind
		if tx.Dialector.Name() == "postgres" {
			return tx.Exec("SELECT setval(pg_get_serial_sequence('regions', 'id'), (SELECT MAX(id) FROM regions))").Error
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("seed regions: %w", err)
	}
	return len(regions), nil
}
