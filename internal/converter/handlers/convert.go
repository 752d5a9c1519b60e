package handlers

import (
	"bytes"
	"io"
	"log"

	"plan-kernel/internal/converter/mapper"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Convert Handler
// ============================================================

type ConvertHandler struct {
	importer *mapper.Importer
}

func NewConvertHandler(im *mapper.Importer) *ConvertHandler {
	return &ConvertHandler{importer: im}
}

// ConvertSVG импортирует SVG-план в ядро: файл в multipart/form-data (поле file)
// или SVG прямо в теле запроса.
func (h *ConvertHandler) ConvertSVG(c fiber.Ctx) error {
	log.Printf("[CONVERTER] Received request, Content-Type: %s, Content-Length: %d", c.Get("Content-Type"), len(c.Body()))

	data, err := readSVG(c)
	if err != nil {
		log.Printf("[CONVERTER] read error: %v", err)
		return c.Status(400).JSON(fiber.Map{
			"ok":    false,
			"error": fiber.Map{"code": "InvalidParams", "title": err.Error(), "hint": "send the plan as multipart field \"file\" or as the raw body"},
		})
	}

	report, err := h.importer.Import(bytes.NewReader(data))
	if err != nil {
		log.Printf("[CONVERTER] Conversion error: %v", err)
		return c.Status(422).JSON(fiber.Map{
			"ok":    false,
			"error": fiber.Map{"code": "InvalidParams", "title": err.Error()},
		})
	}

	log.Printf("[CONVERTER] Conversion successful: %d walls", report.Walls)
	return c.JSON(fiber.Map{"ok": true, "result": report})
}

func readSVG(c fiber.Ctx) ([]byte, error) {
	file, err := c.FormFile("file")
	if err != nil {
		if body := c.Body(); len(body) > 0 {
			return body, nil
		}
		return nil, fiber.NewError(400, "file required in multipart/form-data")
	}

	log.Printf("[CONVERTER] File received: %s, size: %d", file.Filename, file.Size)
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
