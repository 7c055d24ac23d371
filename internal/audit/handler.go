package audit

import (
	"strconv"

	"directory-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AuditLogResponse struct {
	ID          uint               `json:"id"`
	CreatedAt   string             `json:"created_at"`
	UserID      uint               `json:"user_id"`
	UserPhone   string             `json:"user_phone"`
	EntityType  string             `json:"entity_type"`
	EntityID    uint               `json:"entity_id"`
	Action      models.AuditAction `json:"action"`
	Description string             `json:"description"`
}

// GET /api/audit-logs?entity_type=branch&entity_id=1&user_id=1
func ListAuditLogsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := db.WithContext(c.UserContext()).Model(&models.AuditLog{})

		if uid, err := strconv.ParseUint(c.Query("user_id"), 10, 64); err == nil && uid > 0 {
			dbq = dbq.Where("user_id = ?", uid)
		}
		if entityType := c.Query("entity_type"); entityType != "" {
			dbq = dbq.Where("entity_type = ?", entityType)
		}
		if eid, err := strconv.ParseUint(c.Query("entity_id"), 10, 64); err == nil && eid > 0 {
			dbq = dbq.Where("entity_id = ?", eid)
		}

		limit := c.QueryInt("limit", 100)
		if limit <= 0 || limit > 500 {
			limit = 100
		}

		var logs []models.AuditLog
		if err := dbq.Order("created_at DESC, id DESC").Limit(limit).Find(&logs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list audit logs")
		}

		resp := make([]AuditLogResponse, 0, len(logs))
		for _, l := range logs {
			resp = append(resp, AuditLogResponse{
				ID:          l.ID,
				CreatedAt:   l.CreatedAt.Format("2006-01-02 15:04:05"),
				UserID:      l.UserID,
				UserPhone:   l.UserPhone,
				EntityType:  l.EntityType,
				EntityID:    l.EntityID,
				Action:      l.Action,
				Description: l.Description,
			})
		}

		return c.JSON(fiber.Map{"status": true, "data": resp})
	}
}
