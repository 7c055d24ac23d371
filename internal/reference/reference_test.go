package reference

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"directory-backend/internal/apperr"
	"directory-backend/internal/models"
	"directory-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestListDistricts_Filter(t *testing.T) {
	db := testutil.NewDB(t)
	fx := testutil.SeedFixture(t, db)
	other := models.Region{Name: "Bukhara"}
	require.NoError(t, db.Create(&other).Error)
	require.NoError(t, db.Create(&models.District{Name: "Gijduvon", RegionID: other.ID}).Error)

	svc := NewService(db)

	all, err := svc.ListDistricts(t.Context(), 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	filtered, err := svc.ListDistricts(t.Context(), fx.Region.ID)
	require.NoError(t, err)
	require.Len(t, filtered, 2)
	assert.Equal(t, "D1", filtered[0].Name)

	regions, err := svc.ListRegions(t.Context())
	require.NoError(t, err)
	assert.Len(t, regions, 2)
}

func TestCreateDistrict_UnknownRegion(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewService(db)

	_, err := svc.CreateDistrict(t.Context(), "Yunusobod", 42)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	var count int64
	require.NoError(t, db.Model(&models.District{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestHandlers(t *testing.T) {
	db := testutil.NewDB(t)
	fx := testutil.SeedFixture(t, db)
	svc := NewService(db)

	app := fiber.New(fiber.Config{ErrorHandler: apperr.ErrorHandler(zap.NewNop())})
	app.Get("/regions", ListRegionsHandler(svc))
	app.Get("/districts", ListDistrictsHandler(svc))
	app.Post("/district", CreateDistrictHandler(svc))

	post := func(body string) (int, map[string]any) {
		req := httptest.NewRequest("POST", "/district", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		var out map[string]any
		require.NoError(t, json.Unmarshal(raw, &out))
		return resp.StatusCode, out
	}

	code, body := post(`{"name":"Yunusobod","region_id":` + jsonNum(fx.Region.ID) + `}`)
	assert.Equal(t, fiber.StatusCreated, code)
	assert.Equal(t, "Yunusobod", body["data"].(map[string]any)["name"])

	code, body = post(`{"region_id":0}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, code)
	errs := body["errors"].(map[string]any)
	assert.Contains(t, errs, "name")
	assert.Contains(t, errs, "region_id")

	resp, err := app.Test(httptest.NewRequest("GET", "/districts?region_id="+jsonNum(fx.Region.ID), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func jsonNum(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
