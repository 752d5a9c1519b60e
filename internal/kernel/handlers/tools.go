package handlers

import (
	"context"
	"encoding/json"
	"log"

	"github.com/gofiber/fiber/v3"

	kerr "plan-kernel/internal/common/errors"
	"plan-kernel/internal/kernel/joinery"
	"plan-kernel/internal/kernel/models"
	"plan-kernel/internal/kernel/service"
)

// ============================================================
// Tool API
// ============================================================

// Размеры по умолчанию для инструментов проемов, м.
const (
	defaultCutWidth     = 1.0
	defaultCutHeight    = 2.1
	defaultDoorWidth    = 0.9
	defaultDoorHeight   = 2.1
	defaultWindowWidth  = 1.2
	defaultWindowHeight = 1.4
	defaultWindowSill   = 0.9
)

type ToolHandler struct {
	kernel *service.Kernel
	tools  map[string]toolFunc
}

type toolFunc func(ctx context.Context, body []byte) (any, error)

func NewToolHandler(k *service.Kernel) *ToolHandler {
	h := &ToolHandler{kernel: k}
	h.tools = map[string]toolFunc{
		"wall.create":     h.wallCreate,
		"wall.update":     h.wallUpdate,
		"wall.delete":     h.wallDelete,
		"wall.cutOpening": h.wallCutOpening,
		"door.place":      h.doorPlace,
		"window.place":    h.windowPlace,
		"column.create":   h.columnCreate,
		"transform.move":  h.transformMove,
		"joinery.run":     h.joineryRun,
	}
	return h
}

// Names: список инструментов для GET /tools.
func (h *ToolHandler) Names() []string {
	return []string{
		"wall.create", "wall.update", "wall.delete", "wall.cutOpening",
		"door.place", "window.place", "column.create", "transform.move", "joinery.run",
	}
}

func (h *ToolHandler) List(c fiber.Ctx) error {
	return ok(c, h.Names())
}

// Call: POST /tools/:name.
func (h *ToolHandler) Call(c fiber.Ctx) error {
	name := c.Params("name")
	tool, found := h.tools[name]
	if !found {
		return fail(c, kerr.New(kerr.KindInvalidParams, "unknown tool").With("tool", name))
	}

	body := c.Body()
	if len(body) == 0 {
		body = []byte("{}")
	}

	result, err := tool(c.Context(), body)
	if err != nil {
		log.Printf("[TOOLS] %s failed: %v", name, err)
		return fail(c, err)
	}
	log.Printf("[TOOLS] %s ok", name)
	return ok(c, result)
}

// ============================================================
// Tools
// ============================================================

type idResult struct {
	ID string `json:"id"`
}

type wallUpdateArgs struct {
	ID string `json:"id"`
	models.WallParams
}

type idArgs struct {
	ID string `json:"id"`
}

type cutArgs struct {
	WallID          string             `json:"wallId"`
	Type            models.OpeningType `json:"type"`
	Width           float64            `json:"width"`
	Height          float64            `json:"height"`
	Position        float64            `json:"positionAlongWall"`
	OffsetFromFloor float64            `json:"offsetFromFloor"`
	FrameDepth      float64            `json:"frameDepth"`
}

type moveArgs struct {
	ID string  `json:"id"`
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

type joineryArgs struct {
	Tolerance float64 `json:"tolerance"`
	Style     string  `json:"jointStyle"`
}

func (h *ToolHandler) wallCreate(_ context.Context, body []byte) (any, error) {
	var p models.WallParams
	if err := decode(body, &p); err != nil {
		return nil, err
	}
	id, err := h.kernel.CreateWall(p)
	if err != nil {
		return nil, err
	}
	return h.kernel.GetElement(id)
}

func (h *ToolHandler) wallUpdate(_ context.Context, body []byte) (any, error) {
	var args wallUpdateArgs
	if err := decode(body, &args); err != nil {
		return nil, err
	}
	if args.ID == "" {
		return nil, kerr.New(kerr.KindInvalidParams, "id required")
	}
	if err := h.kernel.UpdateWall(args.ID, args.WallParams); err != nil {
		return nil, err
	}
	return h.kernel.GetElement(args.ID)
}

func (h *ToolHandler) wallDelete(_ context.Context, body []byte) (any, error) {
	var args idArgs
	if err := decode(body, &args); err != nil {
		return nil, err
	}
	if err := h.kernel.DeleteWall(args.ID); err != nil {
		return nil, err
	}
	return idResult{ID: args.ID}, nil
}

func (h *ToolHandler) wallCutOpening(_ context.Context, body []byte) (any, error) {
	args := cutArgs{Type: models.OpeningDoor, Width: defaultCutWidth, Height: defaultCutHeight}
	if err := decode(body, &args); err != nil {
		return nil, err
	}
	if err := h.positionOrCenter(body, args.WallID, &args.Position); err != nil {
		return nil, err
	}
	id, err := h.kernel.AddOpening(args.WallID, models.Opening{
		Type:            args.Type,
		Width:           args.Width,
		Height:          args.Height,
		Position:        args.Position,
		OffsetFromFloor: args.OffsetFromFloor,
		FrameDepth:      args.FrameDepth,
	})
	if err != nil {
		return nil, err
	}
	return h.kernel.GetElement(id)
}

func (h *ToolHandler) doorPlace(_ context.Context, body []byte) (any, error) {
	p := models.DoorParams{Width: defaultDoorWidth, Height: defaultDoorHeight}
	if err := decode(body, &p); err != nil {
		return nil, err
	}
	if err := h.positionOrCenter(body, p.WallID, &p.Position); err != nil {
		return nil, err
	}
	id, err := h.kernel.PlaceDoor(p)
	if err != nil {
		return nil, err
	}
	return h.kernel.GetElement(id)
}

func (h *ToolHandler) windowPlace(_ context.Context, body []byte) (any, error) {
	p := models.WindowParams{Width: defaultWindowWidth, Height: defaultWindowHeight, SillHeight: defaultWindowSill}
	if err := decode(body, &p); err != nil {
		return nil, err
	}
	if err := h.positionOrCenter(body, p.WallID, &p.Position); err != nil {
		return nil, err
	}
	id, err := h.kernel.PlaceWindow(p)
	if err != nil {
		return nil, err
	}
	return h.kernel.GetElement(id)
}

func (h *ToolHandler) columnCreate(_ context.Context, body []byte) (any, error) {
	var p models.ColumnParams
	if err := decode(body, &p); err != nil {
		return nil, err
	}
	id, err := h.kernel.CreateColumn(p)
	if err != nil {
		return nil, err
	}
	return h.kernel.GetElement(id)
}

func (h *ToolHandler) transformMove(_ context.Context, body []byte) (any, error) {
	var args moveArgs
	if err := decode(body, &args); err != nil {
		return nil, err
	}
	if err := h.kernel.MoveElement(args.ID, args.DX, args.DY); err != nil {
		return nil, err
	}
	return h.kernel.GetElement(args.ID)
}

// joineryRun: пустые допуск и стиль берутся из настроек ядра.
func (h *ToolHandler) joineryRun(ctx context.Context, body []byte) (any, error) {
	var args joineryArgs
	if err := decode(body, &args); err != nil {
		return nil, err
	}
	var style joinery.Style
	if args.Style != "" {
		var err error
		if style, err = joinery.ParseStyle(args.Style); err != nil {
			return nil, err
		}
	}
	return h.kernel.RunJoinery(ctx, args.Tolerance, style)
}

// positionOrCenter: без positionAlongWall проем ставится в середину стены.
func (h *ToolHandler) positionOrCenter(body []byte, wallID string, position *float64) error {
	var given struct {
		Position *float64 `json:"positionAlongWall"`
	}
	if err := decode(body, &given); err != nil {
		return err
	}
	if given.Position != nil {
		return nil
	}
	center, err := h.kernel.WallCenter(wallID)
	if err != nil {
		return err
	}
	*position = center
	return nil
}

func decode(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return kerr.Wrap(err, kerr.KindInvalidParams, "invalid JSON payload")
	}
	return nil
}
