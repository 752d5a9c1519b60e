package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(token string) *fiber.App {
	app := fiber.New()
	app.Use(ToolToken(token))
	app.Post("/tools/ping", func(c fiber.Ctx) error { return c.SendString("pong") })
	return app
}

func TestToolToken(t *testing.T) {
	tests := []struct {
		name   string
		token  string
		header string
		want   int
	}{
		{"disabled", "", "", fiber.StatusOK},
		{"valid", "s3cret", "s3cret", fiber.StatusOK},
		{"missing", "s3cret", "", fiber.StatusForbidden},
		{"wrong", "s3cret", "guess", fiber.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodPost, "/tools/ping", nil)
			if tt.header != "" {
				req.Header.Set(ToolTokenHeader, tt.header)
			}
			resp, err := newApp(tt.token).Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
