// Package handlers содержит HTTP-слой ядра: инструменты (tool API), элементы, планы.
package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v3"

	kerr "plan-kernel/internal/common/errors"
)

// ============================================================
// Envelope
// ============================================================

type errorBody struct {
	Code    string         `json:"code"`
	Title   string         `json:"title"`
	Hint    string         `json:"hint,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

func ok(c fiber.Ctx, result any) error {
	return c.JSON(fiber.Map{"ok": true, "result": result})
}

// fail переводит ошибку ядра в статус и тело {ok:false, error:{code,title,hint}}.
func fail(c fiber.Ctx, err error) error {
	body := errorBody{Code: "Internal", Title: err.Error()}
	status := fiber.StatusInternalServerError

	var ke *kerr.Error
	if errors.As(err, &ke) {
		body.Code = string(ke.Kind)
		body.Title = ke.Message
		body.Context = ke.Context
		body.Hint = hints[ke.Kind]
		status = statusOf(ke.Kind)
		if ke.Cause != nil {
			body.Title += ": " + ke.Cause.Error()
		}
	} else {
		log.Printf("[KERNEL] request %s %s failed: %v", c.Method(), c.Path(), err)
	}

	return c.Status(status).JSON(fiber.Map{"ok": false, "error": body})
}

func badRequest(c fiber.Ctx, msg string) error {
	return fail(c, kerr.New(kerr.KindInvalidParams, msg))
}

func statusOf(kind kerr.Kind) int {
	switch kind {
	case kerr.KindElementNotFound, kerr.KindTemplateNotFound:
		return fiber.StatusNotFound
	case kerr.KindInvalidGeometry, kerr.KindOpeningConflict, kerr.KindJoineryConflict:
		return fiber.StatusUnprocessableEntity
	case kerr.KindInvalidParams:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

var hints = map[kerr.Kind]string{
	kerr.KindInvalidGeometry:  "check that the wall has positive length, height and thickness",
	kerr.KindOpeningConflict:  "move the opening inside the wall or away from neighbouring openings",
	kerr.KindJoineryConflict:  "shorten the adjustment or lengthen the wall, then rerun joinery",
	kerr.KindElementNotFound:  "list elements to get a valid id",
	kerr.KindTemplateNotFound: "list templates to get a valid templateId",
	kerr.KindInvalidParams:    "fix the request body and retry",
}
