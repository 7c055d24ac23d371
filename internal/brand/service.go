package brand

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

func (s *Service) List(ctx context.Context) ([]models.Brand, error) {
	var brands []models.Brand
	if err := s.db.WithContext(ctx).Order("id").Find(&brands).Error; err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	return brands, nil
}

// Create stores the optional image first; an invalid image rejects the brand.
func (s *Service) Create(ctx context.Context, name string, image *assets.Upload) (*models.Brand, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation(apperr.Fields{"name": {"The name field is required."}})
	}

	b := models.Brand{Name: name}
	if image != nil {
		stored, err := s.assets.StoreUpload(ctx, *image, assets.CategoryBrand)
		if err != nil {
			return nil, err
		}
		b.Image = &stored
	}

	if err := s.db.WithContext(ctx).Create(&b).Error; err != nil {
		if b.Image != nil {
			s.removeImage(ctx, *b.Image)
		}
		return nil, fmt.Errorf("create brand: %w", err)
	}

	s.writeAudit(ctx, audit.LogOptions{
		EntityType:  "brand",
		EntityID:    b.ID,
		Action:      models.AuditActionCreate,
		Description: fmt.Sprintf("brand %q created", b.Name),
		After:       b,
	})
	return &b, nil
}

// Update renames when a name is supplied and swaps the image when a new one
// is uploaded; the old file is removed after the row points at the new one.
func (s *Service) Update(ctx context.Context, id uint, name opt.Field[string], image *assets.Upload) (*models.Brand, error) {
	b, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	before := b

	updates := map[string]any{}
	if v, ok := name.Get(); ok {
		v = strings.TrimSpace(v)
		if v == "" {
			return nil, apperr.Validation(apperr.Fields{"name": {"The name field must not be empty."}})
		}
		updates["name"] = v
	}

	var oldImage string
	if image != nil {
		stored, err := s.assets.StoreUpload(ctx, *image, assets.CategoryBrand)
		if err != nil {
			return nil, err
		}
		if b.Image != nil {
			oldImage = *b.Image
		}
		updates["image"] = stored
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.Brand{}).Where("id = ?", b.ID).Updates(updates).Error; err != nil {
			if stored, ok := updates["image"].(string); ok {
				s.removeImage(ctx, stored)
			}
			return nil, fmt.Errorf("update brand %d: %w", id, err)
		}
		if oldImage != "" {
			s.removeImage(ctx, oldImage)
		}
	}

	updated, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	s.writeAudit(ctx, audit.LogOptions{
		EntityType:  "brand",
		EntityID:    b.ID,
		Action:      models.AuditActionUpdate,
		Description: fmt.Sprintf("brand %q updated", updated.Name),
		Before:      before,
		After:       updated,
	})
	return &updated, nil
}

// Delete refuses brands that still have branches.
func (s *Service) Delete(ctx context.Context, id uint) error {
	b, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	var branches int64
	if err := s.db.WithContext(ctx).Model(&models.Branch{}).Where("brand_id = ?", b.ID).Count(&branches).Error; err != nil {
		return fmt.Errorf("count branches of brand %d: %w", id, err)
	}
	if branches > 0 {
		return apperr.Conflict(fmt.Sprintf("Brand has %d branches", branches))
	}

	if err := s.db.WithContext(ctx).Delete(&models.Brand{}, b.ID).Error; err != nil {
		return fmt.Errorf("delete brand %d: %w", id, err)
	}
	if b.Image != nil {
		s.removeImage(ctx, *b.Image)
	}

	s.writeAudit(ctx, audit.LogOptions{
		EntityType:  "brand",
		EntityID:    b.ID,
		Action:      models.AuditActionDelete,
		Description: fmt.Sprintf("brand %q deleted", b.Name),
		Before:      b,
	})
	return nil
}

func (s *Service) ImageURL(b models.Brand) string {
	if b.Image == nil {
		return ""
	}
	return s.assets.URL(assets.CategoryBrand, *b.Image)
}

func (s *Service) find(ctx context.Context, id uint) (models.Brand, error) {
	var b models.Brand
	err := s.db.WithContext(ctx).First(&b, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return b, apperr.NotFound("Brand not found")
	}
	if err != nil {
		return b, fmt.Errorf("find brand %d: %w", id, err)
	}
	return b, nil
}

func (s *Service) removeImage(ctx context.Context, name string) {
	if err := s.assets.Delete(ctx, name, assets.CategoryBrand); err != nil {
		s.log.Warn("orphaned brand image", zap.String("image", name), zap.Error(err))
	}
}

func (s *Service) writeAudit(ctx context.Context, opts audit.LogOptions) {
	if err := audit.WriteLog(ctx, s.db, opts); err != nil {
		s.log.Warn("audit log not written", zap.String("entity", opts.EntityType), zap.Error(err))
	}
}
