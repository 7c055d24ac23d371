package branch

import (
	"context"
	"errors"
	"fmt"

	"directory-backend/internal/apperr"
	"directory-backend/internal/models"

	"gorm.io/gorm"
)

// ErrNoBranches means the region exists but none of its districts has a branch.
var ErrNoBranches = errors.New("no branches found in the region")

type BrandCount struct {
	Name            string `json:"name"`
	CountOfBranches int64  `json:"countOfBranches"`
}

type DistrictCounts struct {
	Name   string       `json:"name"`
	Brands []BrandCount `json:"brands"`
}

type RegionCounts struct {
	Region    string           `json:"region"`
	Districts []DistrictCounts `json:"districts"`
}

// countRow is one (district, brand name) group of the aggregation query.
type countRow struct {
	DistrictID   uint
	DistrictName string
	BrandName    string
	Total        int64
	FirstID      uint
}

// CountsByRegion groups the region's branches by district and brand name.
// Districts without branches are left out. Districts follow id order and
// brands the order of their first branch.
func (s *Service) CountsByRegion(ctx context.Context, regionID uint) (*RegionCounts, error) {
	region, err := s.findRegion(ctx, regionID)
	if err != nil {
		return nil, err
	}

	rows, err := s.countRows(ctx, region.ID)
	if err != nil {
		return nil, err
	}
	return buildRegionCounts(region.Name, rows)
}

func (s *Service) findRegion(ctx context.Context, id uint) (models.Region, error) {
	var region models.Region
	err := s.db.WithContext(ctx).First(&region, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return region, apperr.NotFound("Region not found")
	}
	if err != nil {
		return region, fmt.Errorf("find region %d: %w", id, err)
	}
	return region, nil
}

func (s *Service) countRows(ctx context.Context, regionID uint) ([]countRow, error) {
	var rows []countRow
	err := s.db.WithContext(ctx).
		Table("branches AS b").
		Select("d.id AS district_id, d.name AS district_name, br.name AS brand_name, COUNT(b.id) AS total, MIN(b.id) AS first_id").
		Joins("JOIN districts AS d ON d.id = b.district_id").
		Joins("JOIN brands AS br ON br.id = b.brand_id").
		Where("d.region_id = ?", regionID).
		Group("d.id, d.name, br.name").
		Order("d.id, first_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count branches of region %d: %w", regionID, err)
	}
	return rows, nil
}

// buildRegionCounts folds rows, already ordered by district then first
// branch, into the nested shape.
func buildRegionCounts(regionName string, rows []countRow) (*RegionCounts, error) {
	if len(rows) == 0 {
		return nil, ErrNoBranches
	}

	out := &RegionCounts{Region: regionName, Districts: []DistrictCounts{}}
	var current uint
	for _, r := range rows {
		if r.Total == 0 {
			continue
		}
		if len(out.Districts) == 0 || r.DistrictID != current {
			out.Districts = append(out.Districts, DistrictCounts{Name: r.DistrictName, Brands: []BrandCount{}})
			current = r.DistrictID
		}
		last := &out.Districts[len(out.Districts)-1]
		last.Brands = append(last.Brands, BrandCount{Name: r.BrandName, CountOfBranches: r.Total})
	}

	if len(out.Districts) == 0 {
		return nil, ErrNoBranches
	}
	return out, nil
}
