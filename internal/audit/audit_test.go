package audit

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"directory-backend/internal/models"
	"directory-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteLog(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := WithActor(context.Background(), Actor{UserID: 7, Phone: "+998901234567"})

	err := WriteLog(ctx, db, LogOptions{
		EntityType:  "branch",
		EntityID:    3,
		Action:      models.AuditActionCreate,
		Description: "branch created",
		After:       map[string]string{"name": "Chilonzor"},
	})
	require.NoError(t, err)

	var got models.AuditLog
	require.NoError(t, db.First(&got).Error)
	assert.Equal(t, uint(7), got.UserID)
	assert.Equal(t, "+998901234567", got.UserPhone)
	assert.Equal(t, "null", got.BeforeData)
	assert.JSONEq(t, `{"name":"Chilonzor"}`, got.AfterData)
}

func TestActorFrom_Empty(t *testing.T) {
	assert.Equal(t, Actor{}, ActorFrom(context.Background()))
}

func TestListAuditLogsHandler_Filters(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	require.NoError(t, WriteLog(ctx, db, LogOptions{EntityType: "branch", EntityID: 1, Action: models.AuditActionCreate}))
	require.NoError(t, WriteLog(ctx, db, LogOptions{EntityType: "brand", EntityID: 1, Action: models.AuditActionCreate}))
	require.NoError(t, WriteLog(ctx, db, LogOptions{EntityType: "branch", EntityID: 2, Action: models.AuditActionDelete}))

	app := fiber.New()
	app.Get("/audit-logs", ListAuditLogsHandler(db))

	resp, err := app.Test(httptest.NewRequest("GET", "/audit-logs?entity_type=branch", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	raw, _ := io.ReadAll(resp.Body)
	var body struct {
		Data []AuditLogResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	require.Len(t, body.Data, 2)
	for _, l := range body.Data {
		assert.Equal(t, "branch", l.EntityType)
	}
}
