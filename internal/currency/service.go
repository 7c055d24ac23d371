package currency

import (
	"context"
	"fmt"
	"sort"

	"directory-backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Fetcher interface {
	Fetch(ctx context.Context) (map[string]string, error)
}

type Service struct {
	db      *gorm.DB
	fetcher Fetcher
	log     *zap.Logger
}

func NewService(db *gorm.DB, fetcher Fetcher, log *zap.Logger) *Service {
	return &Service{db: db, fetcher: fetcher, log: log}
}

func (s *Service) List(ctx context.Context) ([]models.Currency, error) {
	var list []models.Currency
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list currencies: %w", err)
	}
	return list, nil
}

// Sync pulls the upstream table and upserts every entry keyed by name.
func (s *Service) Sync(ctx context.Context) (int, error) {
	table, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return 0, err
	}

	codes := make([]string, 0, len(table))
	for code := range table {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	rows := make([]models.Currency, 0, len(codes))
	seen := make(map[string]bool, len(codes))
	for _, code := range codes {
		name := table[code]
		// later codes sharing a name would collide inside one statement
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		rows = append(rows, models.Currency{Code: code, Name: name})
	}

	if len(rows) == 0 {
		return 0, nil
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"code", "updated_at"}),
	}).CreateInBatches(&rows, 100).Error
	if err != nil {
		return 0, fmt.Errorf("upsert currencies: %w", err)
	}

	s.log.Info("currencies synced", zap.Int("count", len(rows)))
	return len(rows), nil
}
