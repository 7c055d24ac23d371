package user

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"directory-backend/internal/apperr"
	"directory-backend/internal/models"
	"directory-backend/internal/opt"
	"directory-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func seedUser(t *testing.T, db *gorm.DB, phone string, lastLogin *time.Time) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)
	u := models.User{
		Phone:        phone,
		PasswordHash: string(hash),
		Status:       models.UserStatusActive,
		LastLoginAt:  lastLogin,
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func TestGetByPhone(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewService(db, zap.NewNop())
	seedUser(t, db, "111", nil)

	u, err := svc.GetByPhone(t.Context(), "111")
	require.NoError(t, err)
	assert.Equal(t, "111", u.Phone)

	_, err = svc.GetByPhone(t.Context(), "999")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestUpdate_PhoneWinsOverPassword(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewService(db, zap.NewNop())
	u := seedUser(t, db, "111", nil)

	got, err := svc.Update(t.Context(), u.ID, Patch{
		Phone:    opt.Of("222"),
		Password: opt.Of("changed-password"),
	})
	require.NoError(t, err)
	assert.Equal(t, "222", got.Phone)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(got.PasswordHash), []byte("secret1")))
}

func TestUpdate_Password(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewService(db, zap.NewNop())
	u := seedUser(t, db, "111", nil)

	got, err := svc.Update(t.Context(), u.ID, Patch{Phone: opt.Null[string](), Password: opt.Of("changed-password")})
	require.NoError(t, err)
	assert.Equal(t, "111", got.Phone)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(got.PasswordHash), []byte("changed-password")))
}

func TestUpdate_Errors(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewService(db, zap.NewNop())
	u := seedUser(t, db, "111", nil)
	seedUser(t, db, "222", nil)

	_, err := svc.Update(t.Context(), 9999, Patch{Phone: opt.Of("333")})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = svc.Update(t.Context(), u.ID, Patch{Phone: opt.Of("222")})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestDelete(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewService(db, zap.NewNop())
	u := seedUser(t, db, "111", nil)

	require.NoError(t, svc.Delete(t.Context(), u.ID))
	err := svc.Delete(t.Context(), u.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestBlockInactive(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewService(db, zap.NewNop())

	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	old := now.Add(-96 * time.Hour)
	recent := now.Add(-time.Hour)

	stale := seedUser(t, db, "111", &old)
	fresh := seedUser(t, db, "222", &recent)
	never := seedUser(t, db, "333", nil)

	n, err := svc.BlockInactive(t.Context(), now, 72*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	status := func(id uint) models.UserStatus {
		var u models.User
		require.NoError(t, db.First(&u, id).Error)
		return u.Status
	}
	assert.Equal(t, models.UserStatusBlock, status(stale.ID))
	assert.Equal(t, models.UserStatusActive, status(fresh.ID))
	assert.Equal(t, models.UserStatusActive, status(never.ID))

	// second pass finds nothing new
	n, err = svc.BlockInactive(t.Context(), now, 72*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestHandlers(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewService(db, zap.NewNop())
	u := seedUser(t, db, "111", nil)

	app := fiber.New(fiber.Config{ErrorHandler: apperr.ErrorHandler(zap.NewNop())})
	app.Get("/users", ListUsersHandler(svc))
	app.Get("/user/:phone", GetUserByPhoneHandler(svc))
	app.Put("/user/:id", UpdateUserHandler(svc))
	app.Delete("/user/:id", DeleteUserHandler(svc))

	read := func(r io.Reader) map[string]any {
		raw, err := io.ReadAll(r)
		require.NoError(t, err)
		var out map[string]any
		require.NoError(t, json.Unmarshal(raw, &out))
		return out
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/users", nil))
	require.NoError(t, err)
	body := read(resp.Body)
	assert.Len(t, body["data"], 1)

	resp, err = app.Test(httptest.NewRequest("GET", "/user/404", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	req := httptest.NewRequest("PUT", "/user/"+itoa(u.ID), strings.NewReader(`{"password":"123"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	req = httptest.NewRequest("PUT", "/user/"+itoa(u.ID), strings.NewReader(`{"phone":"555"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	data := read(resp.Body)["data"].(map[string]any)
	assert.Equal(t, "555", data["phone"])
	assert.NotContains(t, data, "password_hash")

	resp, err = app.Test(httptest.NewRequest("DELETE", "/user/"+itoa(u.ID), nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
