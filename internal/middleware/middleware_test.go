package middleware

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/waorder/internal/utils"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWebhookSignature(t *testing.T) {
	app := fiber.New()
	app.Post("/hook", WebhookSignature("app-secret", discardLogger()), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	body := `{"entry":[]}`
	send := func(signature string) int {
		req := httptest.NewRequest("POST", "/hook", strings.NewReader(body))
		if signature != "" {
			req.Header.Set(SignatureHeader, signature)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusOK, send(Sign("app-secret", []byte(body))))
	assert.Equal(t, fiber.StatusOK, send(strings.TrimPrefix(Sign("app-secret", []byte(body)), "sha256=")))
	assert.Equal(t, fiber.StatusUnauthorized, send(Sign("wrong", []byte(body))))
	assert.Equal(t, fiber.StatusUnauthorized, send("sha256=zz"))
	assert.Equal(t, fiber.StatusUnauthorized, send(""))
}

func TestWebhookSignature_NoSecretSkips(t *testing.T) {
	app := fiber.New()
	app.Post("/hook", WebhookSignature("", discardLogger()), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	resp, err := app.Test(httptest.NewRequest("POST", "/hook", strings.NewReader("{}")))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAdminAuth(t *testing.T) {
	app := fiber.New()
	app.Get("/admin", AdminAuth("jwt-secret"), func(c *fiber.Ctx) error {
		subject, ok := CurrentAdmin(c)
		assert.True(t, ok)
		return c.SendString(subject)
	})

	call := func(header string) (int, string) {
		req := httptest.NewRequest("GET", "/admin", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(body)
	}

	token, err := utils.GenerateToken("jwt-secret", "root", time.Hour)
	require.NoError(t, err)

	status, body := call("Bearer " + token)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "root", body)

	status, _ = call("")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	status, _ = call("Token " + token)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	status, _ = call("Bearer garbage")
	assert.Equal(t, fiber.StatusUnauthorized, status)
}
