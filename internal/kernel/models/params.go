package models

import (
	"math"

	kerr "plan-kernel/internal/common/errors"
	"plan-kernel/internal/kernel/geom"
)

// ============================================================
// Tagged params
// ============================================================

// Params: параметры создания элемента конкретного типа.
// Проверяются на границе ядра: пропущенные поля не подменяются молча.
type Params interface {
	ElementType() ElementType
	Validate() error
}

type WallParams struct {
	StartPoint geom.Point2 `json:"startPoint"`
	EndPoint   geom.Point2 `json:"endPoint"`
	Thickness  float64     `json:"thickness"`
	Height     float64     `json:"height"`
	TemplateID string      `json:"templateId,omitempty"`
	Openings   []Opening   `json:"openings,omitempty"`
}

func (p WallParams) ElementType() ElementType { return TypeWall }

func (p WallParams) Validate() error {
	if !p.StartPoint.Finite() || !p.EndPoint.Finite() {
		return kerr.New(kerr.KindInvalidParams, "wall endpoints must be finite")
	}
	if length := geom.Distance(p.StartPoint, p.EndPoint); length <= geom.Epsilon {
		return kerr.New(kerr.KindInvalidGeometry, "wall length must be positive").
			With("startPoint", p.StartPoint).With("endPoint", p.EndPoint)
	}
	if !(p.Height > 0) || math.IsInf(p.Height, 0) {
		return kerr.New(kerr.KindInvalidGeometry, "wall height must be positive").With("height", p.Height)
	}
	if p.TemplateID == "" && !(p.Thickness > 0) {
		return kerr.New(kerr.KindInvalidGeometry, "wall thickness must be positive").With("thickness", p.Thickness)
	}
	if p.Thickness < 0 {
		return kerr.New(kerr.KindInvalidGeometry, "wall thickness must not be negative").With("thickness", p.Thickness)
	}
	return nil
}

type DoorParams struct {
	ID         string  `json:"id,omitempty"`
	WallID     string  `json:"wallId"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Position   float64 `json:"positionAlongWall"`
	FrameDepth float64 `json:"frameDepth"`
}

func (p DoorParams) ElementType() ElementType { return TypeDoor }

func (p DoorParams) Validate() error {
	if p.WallID == "" {
		return kerr.New(kerr.KindInvalidParams, "wallId required")
	}
	return validateOpeningSize(p.Width, p.Height, 0, p.FrameDepth)
}

func (p DoorParams) Opening() Opening {
	return Opening{
		ID:         p.ID,
		Type:       OpeningDoor,
		Width:      p.Width,
		Height:     p.Height,
		Position:   p.Position,
		FrameDepth: p.FrameDepth,
	}
}

type WindowParams struct {
	ID         string  `json:"id,omitempty"`
	WallID     string  `json:"wallId"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Position   float64 `json:"positionAlongWall"`
	SillHeight float64 `json:"offsetFromFloor"`
	FrameDepth float64 `json:"frameDepth"`
}

func (p WindowParams) ElementType() ElementType { return TypeWindow }

func (p WindowParams) Validate() error {
	if p.WallID == "" {
		return kerr.New(kerr.KindInvalidParams, "wallId required")
	}
	return validateOpeningSize(p.Width, p.Height, p.SillHeight, p.FrameDepth)
}

func (p WindowParams) Opening() Opening {
	return Opening{
		ID:              p.ID,
		Type:            OpeningWindow,
		Width:           p.Width,
		Height:          p.Height,
		Position:        p.Position,
		OffsetFromFloor: p.SillHeight,
		FrameDepth:      p.FrameDepth,
	}
}

type ColumnParams struct {
	Center   geom.Point2 `json:"center"`
	Width    float64     `json:"width"`
	Depth    float64     `json:"depth"`
	Height   float64     `json:"height"`
	Rotation float64     `json:"rotation"`
}

func (p ColumnParams) ElementType() ElementType { return TypeColumn }

func (p ColumnParams) Validate() error {
	if !p.Center.Finite() {
		return kerr.New(kerr.KindInvalidParams, "column center must be finite")
	}
	if !(p.Width > 0) || !(p.Depth > 0) || !(p.Height > 0) {
		return kerr.New(kerr.KindInvalidGeometry, "column dimensions must be positive").
			With("width", p.Width).With("depth", p.Depth).With("height", p.Height)
	}
	return nil
}

// ValidateOpening проверяет размеры отдельного проема (без привязки к стене).
func ValidateOpening(o Opening) error {
	if o.Type != OpeningDoor && o.Type != OpeningWindow {
		return kerr.New(kerr.KindInvalidParams, "opening type must be door or window").With("type", string(o.Type))
	}
	return validateOpeningSize(o.Width, o.Height, o.OffsetFromFloor, o.FrameDepth)
}

func validateOpeningSize(width, height, offset, frame float64) error {
	if !(width > 0) || !(height > 0) {
		return kerr.New(kerr.KindInvalidGeometry, "opening width and height must be positive").
			With("width", width).With("height", height)
	}
	if offset < 0 || frame < 0 || math.IsNaN(offset) || math.IsNaN(frame) {
		return kerr.New(kerr.KindInvalidGeometry, "opening offset and frame depth must not be negative").
			With("offsetFromFloor", offset).With("frameDepth", frame)
	}
	return nil
}
