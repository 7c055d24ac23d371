package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"directory-backend/internal/apperr"
	"directory-backend/internal/models"
	"directory-backend/internal/opt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewService(db *gorm.DB, log *zap.Logger) *Service {
	return &Service{db: db, log: log}
}

// Patch changes at most one attribute: phone wins over password.
type Patch struct {
	Phone    opt.Field[string]
	Password opt.Field[string]
}

func (s *Service) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *Service) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("phone = ?", phone).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find user by phone: %w", err)
	}
	return &u, nil
}

func (s *Service) find(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find user %d: %w", id, err)
	}
	return &u, nil
}

func (s *Service) Update(ctx context.Context, id uint, p Patch) (*models.User, error) {
	u, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if phone, ok := p.Phone.Get(); ok && strings.TrimSpace(phone) != "" {
		phone = strings.TrimSpace(phone)
		var taken int64
		if err := s.db.WithContext(ctx).Model(&models.User{}).
			Where("phone = ? AND id <> ?", phone, id).Count(&taken).Error; err != nil {
			return nil, fmt.Errorf("check phone: %w", err)
		}
		if taken > 0 {
			return nil, apperr.Validation(apperr.Fields{"phone": {"The phone has already been taken."}})
		}
		updates["phone"] = phone
	} else if pw, ok := p.Password.Get(); ok && pw != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		updates["password_hash"] = string(hash)
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(u).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update user %d: %w", id, err)
		}
	}
	return s.find(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete user %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("User not found")
	}
	return nil
}

// BlockInactive blocks active users whose last login is older than after.
// Users that never logged in are left alone.
func (s *Service) BlockInactive(ctx context.Context, now time.Time, after time.Duration) (int64, error) {
	cutoff := now.Add(-after).UTC()
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("last_login_at IS NOT NULL AND last_login_at < ? AND status = ?", cutoff, models.UserStatusActive).
		Update("status", models.UserStatusBlock)
	if res.Error != nil {
		return 0, fmt.Errorf("block inactive users: %w", res.Error)
	}

	s.log.Info("inactive users blocked",
		zap.Int64("count", res.RowsAffected),
		zap.Time("cutoff", cutoff),
	)
	return res.RowsAffected, nil
}
