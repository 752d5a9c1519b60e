package models

import "plan-kernel/internal/kernel/geom"

// ============================================================
// SVG Elements
// ============================================================

type Kind string

const (
	KindWall   Kind = "wall"
	KindDoor   Kind = "door"
	KindWindow Kind = "window"
	KindColumn Kind = "column"
)

// SVGElement: распознанный по id элемент плана в координатах SVG.
type SVGElement struct {
	ID       string
	Kind     Kind
	Geometry Shape
}

// Shape: RectGeometry или PathGeometry.
type Shape interface {
	Outline() []geom.Point2
}

type RectGeometry struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

func (r RectGeometry) Outline() []geom.Point2 {
	return []geom.Point2{
		{X: r.X, Y: r.Y},
		{X: r.X + r.Width, Y: r.Y},
		{X: r.X + r.Width, Y: r.Y + r.Height},
		{X: r.X, Y: r.Y + r.Height},
	}
}

// PathGeometry: разобранный path (без повтора первой точки при Z).
type PathGeometry struct {
	D      string
	Points []geom.Point2
}

func (p PathGeometry) Outline() []geom.Point2 { return p.Points }

// ============================================================
// Import results
// ============================================================

// Centerline: ось стены после снаппинга, в метрах.
type Centerline struct {
	SourceID  string      `json:"sourceId"`
	Start     geom.Point2 `json:"start"`
	End       geom.Point2 `json:"end"`
	Thickness float64     `json:"thickness"`
}

func (c Centerline) Segment() geom.Segment {
	return geom.Segment{A: c.Start, B: c.End}
}

// Skipped: элемент SVG, который не удалось передать в ядро.
type Skipped struct {
	SourceID string `json:"sourceId"`
	Reason   string `json:"reason"`
}

type Report struct {
	Walls    int               `json:"walls"`
	Openings int               `json:"openings"`
	Columns  int               `json:"columns"`
	IDs      map[string]string `json:"ids"` // id в SVG → id элемента ядра
	Skipped  []Skipped         `json:"skipped"`
}
