package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"catalog/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	app := fiber.New()
	app.Use(middleware.RequestLogger(zap.New(core)))
	app.Get("/ok", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(middleware.RequestIDKey).(string))
	})
	app.Get("/missing", func(c *fiber.Ctx) error {
		return fiber.ErrNotFound
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
	resp.Body.Close()

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set(fiber.HeaderXRequestID, "abc-123")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "abc-123", resp.Header.Get(fiber.HeaderXRequestID))
	resp.Body.Close()

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "request", entries[0].Message)
	assert.Equal(t, "request rejected", entries[1].Message)
	assert.Equal(t, int64(http.StatusNotFound), entries[1].ContextMap()["status"])
	assert.Equal(t, "abc-123", entries[1].ContextMap()["request_id"])
}
