// Package reference serves the region and district lookup tables.
package reference

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"directory-backend/internal/apperr"
	"directory-backend/internal/models"

	"gorm.io/gorm"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) ListRegions(ctx context.Context) ([]models.Region, error) {
	var regions []models.Region
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&regions).Error; err != nil {
		return nil, fmt.Errorf("list regions: %w", err)
	}
	return regions, nil
}

// ListDistricts returns all districts, or only those of regionID when it is non-zero.
func (s *Service) ListDistricts(ctx context.Context, regionID uint) ([]models.District, error) {
	q := s.db.WithContext(ctx).Order("id ASC")
	if regionID != 0 {
		q = q.Where("region_id = ?", regionID)
	}

	var districts []models.District
	if err := q.Find(&districts).Error; err != nil {
		return nil, fmt.Errorf("list districts: %w", err)
	}
	return districts, nil
}

func (s *Service) CreateDistrict(ctx context.Context, name string, regionID uint) (*models.District, error) {
	var region models.Region
	err := s.db.WithContext(ctx).Select("id").First(&region, regionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Validation(apperr.Fields{"region_id": {"The selected region id is invalid."}})
	}
	if err != nil {
		return nil, fmt.Errorf("find region %d: %w", regionID, err)
	}

	d := models.District{Name: strings.TrimSpace(name), RegionID: regionID}
	if err := s.db.WithContext(ctx).Create(&d).Error; err != nil {
		return nil, fmt.Errorf("create district: %w", err)
	}
	return &d, nil
}
