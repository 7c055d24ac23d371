package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"directory-backend/internal/apperr"
	"directory-backend/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Service struct {
	db     *gorm.DB
	secret string
	ttl    time.Duration
	now    func() time.Time
}

func NewService(db *gorm.DB, secret string, ttl time.Duration) *Service {
	return &Service{db: db, secret: secret, ttl: ttl, now: time.Now}
}

// Register creates an active user and returns it with a fresh token.
func (s *Service) Register(ctx context.Context, phone, password string) (*models.User, string, error) {
	phone = strings.TrimSpace(phone)

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("phone = ?", phone).Count(&count).Error; err != nil {
		return nil, "", fmt.Errorf("check phone: %w", err)
	}
	if count > 0 {
		return nil, "", apperr.Validation(apperr.Fields{"phone": {"The phone has already been taken."}})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Phone:        phone,
		PasswordHash: string(hash),
		Status:       models.UserStatusActive,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := GenerateToken(s.secret, s.ttl, &user)
	if err != nil {
		return nil, "", fmt.Errorf("sign token: %w", err)
	}
	return &user, token, nil
}

// Login checks credentials, rejects blocked users and stamps last_login_at.
func (s *Service) Login(ctx context.Context, phone, password string) (*models.User, string, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("phone = ?", strings.TrimSpace(phone)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", apperr.Unauthorized("Phone & Password does not match with our record.")
	}
	if err != nil {
		return nil, "", fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", apperr.Unauthorized("Phone & Password does not match with our record.")
	}
	if user.Blocked() {
		return nil, "", apperr.Forbidden("User is blocked")
	}

	now := s.now().UTC()
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login_at", now).Error; err != nil {
		return nil, "", fmt.Errorf("stamp last login: %w", err)
	}
	user.LastLoginAt = &now

	token, err := GenerateToken(s.secret, s.ttl, &user)
	if err != nil {
		return nil, "", fmt.Errorf("sign token: %w", err)
	}
	return &user, token, nil
}

func (s *Service) Me(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find user %d: %w", id, err)
	}
	return &user, nil
}
