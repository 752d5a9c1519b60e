package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v3"
)

const ToolTokenHeader = "X-TW-Token"

// ToolToken проверяет общий токен инструментов. Пустой токен отключает проверку.
func ToolToken(token string) fiber.Handler {
	return func(c fiber.Ctx) error {
		if token == "" {
			return c.Next()
		}
		got := c.Get(ToolTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"ok": false,
				"error": fiber.Map{
					"code":  "Forbidden",
					"title": "invalid tool token",
					"hint":  "send the shared token in the " + ToolTokenHeader + " header",
				},
			})
		}
		return c.Next()
	}
}
