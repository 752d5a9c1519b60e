package handlers

import (
	"context"
	"encoding/json"
	"log"

	"github.com/gofiber/fiber/v3"

	"plan-kernel/internal/kernel/models"
	"plan-kernel/internal/kernel/repository"
	"plan-kernel/internal/kernel/service"
)

// ============================================================
// Plan API
// ============================================================

// PlanStore: хранилище сохраненных планов.
type PlanStore interface {
	SavePlan(ctx context.Context, id, name string, snapshots []models.Snapshot) error
	LoadPlan(ctx context.Context, id string) ([]models.Snapshot, error)
	ListPlans(ctx context.Context) ([]repository.Plan, error)
	DeletePlan(ctx context.Context, id string) error
}

type PlanHandler struct {
	kernel *service.Kernel
	plans  PlanStore
}

func NewPlanHandler(k *service.Kernel, plans PlanStore) *PlanHandler {
	return &PlanHandler{kernel: k, plans: plans}
}

type saveArgs struct {
	Name string `json:"name"`
}

// Save (POST /plans/:id) дожидается стыковки и сохраняет текущее состояние ядра.
func (h *PlanHandler) Save(c fiber.Ctx) error {
	var args saveArgs
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &args); err != nil {
			return badRequest(c, "invalid JSON payload")
		}
	}

	ctx := c.Context()
	if _, err := h.kernel.Flush(ctx); err != nil {
		return fail(c, err)
	}

	id := c.Params("id")
	snapshots := h.kernel.Export()
	if err := h.plans.SavePlan(ctx, id, args.Name, snapshots); err != nil {
		return fail(c, err)
	}

	log.Printf("[PLANS] saved %s: %d elements", id, len(snapshots))
	return ok(c, fiber.Map{"id": id, "elements": len(snapshots)})
}

// Load (GET /plans/:id) заменяет состояние ядра сохраненным планом.
func (h *PlanHandler) Load(c fiber.Ctx) error {
	ctx := c.Context()
	id := c.Params("id")

	snapshots, err := h.plans.LoadPlan(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	if err := h.kernel.Import(snapshots, true); err != nil {
		return fail(c, err)
	}
	if _, err := h.kernel.Flush(ctx); err != nil {
		return fail(c, err)
	}

	log.Printf("[PLANS] loaded %s: %d elements", id, len(snapshots))
	return ok(c, fiber.Map{"id": id, "elements": len(snapshots), "joinery": h.kernel.LastPass()})
}

func (h *PlanHandler) List(c fiber.Ctx) error {
	plans, err := h.plans.ListPlans(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, plans)
}

func (h *PlanHandler) Delete(c fiber.Ctx) error {
	id := c.Params("id")
	if err := h.plans.DeletePlan(c.Context(), id); err != nil {
		return fail(c, err)
	}
	return ok(c, idResult{ID: id})
}
