package handlers

import (
	"github.com/gofiber/fiber/v3"

	"plan-kernel/internal/kernel/models"
	"plan-kernel/internal/kernel/service"
)

// ============================================================
// Element API
// ============================================================

type ElementHandler struct {
	kernel *service.Kernel
}

func NewElementHandler(k *service.Kernel) *ElementHandler {
	return &ElementHandler{kernel: k}
}

// List: GET /elements?type=wall&wallId=...&geometry=true
func (h *ElementHandler) List(c fiber.Ctx) error {
	f := service.Filter{
		Type:         models.ElementType(c.Query("type")),
		WallID:       c.Query("wallId"),
		WithGeometry: c.Query("geometry") == "true",
	}
	items := h.kernel.ListElements(f)
	if items == nil {
		items = []models.Snapshot{}
	}
	return ok(c, items)
}

func (h *ElementHandler) Get(c fiber.Ctx) error {
	s, err := h.kernel.GetElement(c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, s)
}

// Create: POST /elements/:type с params в теле (адаптер импорта).
func (h *ElementHandler) Create(c fiber.Ctx) error {
	id, err := h.kernel.CreateElementJSON(models.ElementType(c.Params("type")), c.Body())
	if err != nil {
		return fail(c, err)
	}
	s, err := h.kernel.GetElement(id)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "result": s})
}

func (h *ElementHandler) Delete(c fiber.Ctx) error {
	id := c.Params("id")
	if err := h.kernel.DeleteElement(id); err != nil {
		return fail(c, err)
	}
	return ok(c, idResult{ID: id})
}

// Templates: GET /templates.
func (h *ElementHandler) Templates(c fiber.Ctx) error {
	return ok(c, h.kernel.Catalog().Templates())
}

// LastPass: GET /joinery/last.
func (h *ElementHandler) LastPass(c fiber.Ctx) error {
	return ok(c, h.kernel.LastPass())
}
