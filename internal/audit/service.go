package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"directory-backend/internal/models"

	"gorm.io/gorm"
)

type Actor struct {
	UserID uint
	Phone  string
}

type actorKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFrom returns the zero Actor for unauthenticated or background work.
func ActorFrom(ctx context.Context) Actor {
	a, _ := ctx.Value(actorKey{}).(Actor)
	return a
}

type LogOptions struct {
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

func WriteLog(ctx context.Context, db *gorm.DB, opts LogOptions) error {
	// jsonb needs "null" rather than an empty string
	beforeStr := "null"
	afterStr := "null"

	if opts.Before != nil {
		if b, err := json.Marshal(opts.Before); err == nil {
			beforeStr = string(b)
		}
	}
	if opts.After != nil {
		if b, err := json.Marshal(opts.After); err == nil {
			afterStr = string(b)
		}
	}

	actor := ActorFrom(ctx)
	entry := models.AuditLog{
		UserID:      actor.UserID,
		UserPhone:   actor.Phone,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  beforeStr,
		AfterData:   afterStr,
	}

	if err := db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}
