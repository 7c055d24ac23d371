package branch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"directory-backend/internal/apperr"
	"directory-backend/internal/assets"
	"directory-backend/internal/audit"
	"directory-backend/internal/models"
	"directory-backend/internal/opt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db     *gorm.DB
	assets *assets.Manager
	log    *zap.Logger
}

func NewService(db *gorm.DB, am *assets.Manager, log *zap.Logger) *Service {
	return &Service{db: db, assets: am, log: log}
}

type CreateInput struct {
	Name       string
	RegionID   uint
	DistrictID uint
	BrandID    uint
	Images     []assets.Upload
}

// Patch carries the scalar fields of an update. Only the first supplied one
// is applied, see Patch.first.
type Patch struct {
	Name       opt.Field[string]
	BrandID    opt.Field[uint]
	RegionID   opt.Field[uint]
	DistrictID opt.Field[uint]
}

// Result reports the branch and the outcome of every uploaded image.
// SavedImages holds stored file names, FailedImages the client file names.
type Result struct {
	Branch       models.Branch `json:"branch"`
	SavedImages  []string      `json:"saved_images"`
	FailedImages []string      `json:"failed_images"`
}

func (r *Result) Partial() bool {
	return len(r.FailedImages) > 0
}

func newResult(b models.Branch) *Result {
	return &Result{Branch: b, SavedImages: []string{}, FailedImages: []string{}}
}

func (s *Service) List(ctx context.Context) ([]models.Branch, error) {
	var branches []models.Branch
	err := s.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Region").
		Preload("District").
		Preload("Brand").
		Order("id").
		Find(&branches).Error
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	return branches, nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Result, error) {
	name := strings.TrimSpace(in.Name)

	fields := apperr.Fields{}
	if name == "" {
		fields.Add("name", "The name field is required.")
	}
	if err := s.checkRef(ctx, fields, "brand_id", &models.Brand{}, in.BrandID); err != nil {
		return nil, err
	}
	if err := s.checkRef(ctx, fields, "region_id", &models.Region{}, in.RegionID); err != nil {
		return nil, err
	}
	if err := s.checkRef(ctx, fields, "district_id", &models.District{}, in.DistrictID); err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		return nil, apperr.Validation(fields)
	}

	branch := models.Branch{
		Name:       name,
		RegionID:   in.RegionID,
		DistrictID: in.DistrictID,
		BrandID:    in.BrandID,
	}
	if err := s.db.WithContext(ctx).Create(&branch).Error; err != nil {
		return nil, fmt.Errorf("create branch: %w", err)
	}

	// the branch row stays even if every image fails
	res := newResult(branch)
	s.attachImages(ctx, &res.Branch, in.Images, res)

	s.writeAudit(ctx, audit.LogOptions{
		EntityType:  "branch",
		EntityID:    branch.ID,
		Action:      models.AuditActionCreate,
		Description: fmt.Sprintf("branch %q created", branch.Name),
		After:       res.Branch,
	})
	return res, nil
}

func (s *Service) Update(ctx context.Context, id uint, p Patch, uploads []assets.Upload) (*Result, error) {
	branch, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	before := branch

	fields := apperr.Fields{}
	if v, ok := p.Name.Get(); ok && strings.TrimSpace(v) == "" {
		fields.Add("name", "The name field must not be empty.")
	}
	if v, ok := p.BrandID.Get(); ok {
		if err := s.checkRef(ctx, fields, "brand_id", &models.Brand{}, v); err != nil {
			return nil, err
		}
	}
	if v, ok := p.RegionID.Get(); ok {
		if err := s.checkRef(ctx, fields, "region_id", &models.Region{}, v); err != nil {
			return nil, err
		}
	}
	if v, ok := p.DistrictID.Get(); ok {
		if err := s.checkRef(ctx, fields, "district_id", &models.District{}, v); err != nil {
			return nil, err
		}
	}
	if len(fields) > 0 {
		return nil, apperr.Validation(fields)
	}

	if column, value, ok := p.first(); ok {
		if err := s.db.WithContext(ctx).Model(&branch).Update(column, value).Error; err != nil {
			return nil, fmt.Errorf("update branch %d: %w", id, err)
		}
	}

	res := newResult(branch)
	s.attachImages(ctx, &res.Branch, uploads, res)

	err = s.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&res.Branch, branch.ID).Error
	if err != nil {
		return nil, fmt.Errorf("reload branch %d: %w", id, err)
	}

	s.writeAudit(ctx, audit.LogOptions{
		EntityType:  "branch",
		EntityID:    branch.ID,
		Action:      models.AuditActionUpdate,
		Description: fmt.Sprintf("branch %q updated", res.Branch.Name),
		Before:      before,
		After:       res.Branch,
	})
	return res, nil
}

// first picks the single field an update applies. Precedence is name,
// brand_id, region_id, district_id; any later supplied field is ignored.
// Explicit nulls count as not supplied.
func (p Patch) first() (string, any, bool) {
	if v, ok := p.Name.Get(); ok {
		return "name", strings.TrimSpace(v), true
	}
	if v, ok := p.BrandID.Get(); ok {
		return "brand_id", v, true
	}
	if v, ok := p.RegionID.Get(); ok {
		return "region_id", v, true
	}
	if v, ok := p.DistrictID.Get(); ok {
		return "district_id", v, true
	}
	return "", nil, false
}

// Delete removes image files first, then the image rows and the branch in one
// transaction. A file that cannot be removed is logged and left behind.
func (s *Service) Delete(ctx context.Context, id uint) error {
	var branch models.Branch
	err := s.db.WithContext(ctx).Preload("Images").First(&branch, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("Branch not found")
	}
	if err != nil {
		return fmt.Errorf("find branch %d: %w", id, err)
	}

	for _, img := range branch.Images {
		if err := s.assets.Delete(ctx, img.Image, assets.CategoryBranch); err != nil {
			s.log.Warn("orphaned branch image",
				zap.Uint("branch_id", branch.ID),
				zap.String("image", img.Image),
				zap.Error(err),
			)
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("branch_id = ?", branch.ID).Delete(&models.BranchImage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Branch{}, branch.ID).Error
	})
	if err != nil {
		return fmt.Errorf("delete branch %d: %w", id, err)
	}

	s.writeAudit(ctx, audit.LogOptions{
		EntityType:  "branch",
		EntityID:    branch.ID,
		Action:      models.AuditActionDelete,
		Description: fmt.Sprintf("branch %q deleted", branch.Name),
		Before:      branch,
	})
	return nil
}

// attachImages stores each upload independently. A stored file whose row
// cannot be written is removed again.
func (s *Service) attachImages(ctx context.Context, branch *models.Branch, uploads []assets.Upload, res *Result) {
	for _, up := range uploads {
		name, err := s.assets.StoreUpload(ctx, up, assets.CategoryBranch)
		if err != nil {
			s.log.Info("branch image rejected",
				zap.Uint("branch_id", branch.ID),
				zap.String("file", up.Filename),
				zap.Error(err),
			)
			res.FailedImages = append(res.FailedImages, up.Filename)
			continue
		}

		img := models.BranchImage{Image: name, BranchID: branch.ID}
		if err := s.db.WithContext(ctx).Create(&img).Error; err != nil {
			s.log.Error("branch image row not written", zap.Uint("branch_id", branch.ID), zap.Error(err))
			if delErr := s.assets.Delete(ctx, name, assets.CategoryBranch); delErr != nil {
				s.log.Warn("orphaned branch image", zap.String("image", name), zap.Error(delErr))
			}
			res.FailedImages = append(res.FailedImages, up.Filename)
			continue
		}

		branch.Images = append(branch.Images, img)
		res.SavedImages = append(res.SavedImages, name)
	}
}

func (s *Service) find(ctx context.Context, id uint) (models.Branch, error) {
	var branch models.Branch
	err := s.db.WithContext(ctx).First(&branch, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return branch, apperr.NotFound("Branch not found")
	}
	if err != nil {
		return branch, fmt.Errorf("find branch %d: %w", id, err)
	}
	return branch, nil
}

// checkRef adds a field error when id is zero or has no row in model's table.
func (s *Service) checkRef(ctx context.Context, fields apperr.Fields, field string, model any, id uint) error {
	label := strings.ReplaceAll(field, "_", " ")
	if id == 0 {
		fields.Add(field, fmt.Sprintf("The %s field is required.", label))
		return nil
	}

	var n int64
	if err := s.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return fmt.Errorf("check %s: %w", field, err)
	}
	if n == 0 {
		fields.Add(field, fmt.Sprintf("The selected %s is invalid.", label))
	}
	return nil
}

func (s *Service) writeAudit(ctx context.Context, opts audit.LogOptions) {
	if err := audit.WriteLog(ctx, s.db, opts); err != nil {
		s.log.Warn("audit log not written", zap.String("entity", opts.EntityType), zap.Error(err))
	}
}
