package metrics

import (
	"errors"
	"net/http/httptest"
	"testing"

	"directory-backend/internal/apperr"

	"github.com/gofiber/fiber/v2"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestResult(t *testing.T) {
	assert.Equal(t, "ok", Result(nil))
	assert.Equal(t, "error", Result(errors.New("x")))
}

func TestMiddleware_LabelsByRouteAndStatus(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: apperr.ErrorHandler(zap.NewNop())})
	app.Use(Middleware())
	app.Get("/branch/:id", func(c *fiber.Ctx) error {
		if c.Params("id") == "0" {
			return apperr.NotFound("Branch not found")
		}
		return c.SendString("ok")
	})

	ok := HTTPRequests.WithLabelValues("GET", "/branch/:id", "200")
	missing := HTTPRequests.WithLabelValues("GET", "/branch/:id", "404")
	okBefore, missingBefore := promtest.ToFloat64(ok), promtest.ToFloat64(missing)

	_, err := app.Test(httptest.NewRequest("GET", "/branch/5", nil))
	require.NoError(t, err)
	_, err = app.Test(httptest.NewRequest("GET", "/branch/0", nil))
	require.NoError(t, err)

	assert.Equal(t, okBefore+1, promtest.ToFloat64(ok))
	assert.Equal(t, missingBefore+1, promtest.ToFloat64(missing))
}
