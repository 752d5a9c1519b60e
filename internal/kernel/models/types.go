package models

import (
	"time"

	"plan-kernel/internal/kernel/geom"
)

// ============================================================
// Element kinds
// ============================================================

type ElementType string

const (
	TypeWall   ElementType = "wall"
	TypeDoor   ElementType = "door"
	TypeWindow ElementType = "window"
	TypeColumn ElementType = "column"
)

type OpeningType string

const (
	OpeningDoor   OpeningType = "door"
	OpeningWindow OpeningType = "window"
)

// ============================================================
// Geometry
// ============================================================

// Solid описывает ориентированный параллелепипед: центр, размеры (длина вдоль
// стены, высота, толщина) и поворот вокруг вертикальной оси.
type Solid struct {
	Name     string      `json:"name"`
	Role     string      `json:"role"`
	Material string      `json:"material,omitempty"`
	Center   geom.Point3 `json:"center"`
	Length   float64     `json:"length"`
	Height   float64     `json:"height"`
	Depth    float64     `json:"depth"`
	Rotation float64     `json:"rotation"`
}

// Роли тел.
const (
	RoleLayer   = "layer"
	RoleSegment = "segment"
	RoleInfill  = "infill"
	RoleJamb    = "jamb"
	RoleHead    = "head"
	RoleSill    = "sill"
	RoleColumn  = "column"
)

type Polyline struct {
	Points []geom.Point2 `json:"points"`
	Closed bool          `json:"closed"`
}

// Geometry: производная геометрия элемента, пишет ее только Object Store.
type Geometry struct {
	Solids          []Solid       `json:"solids"`
	Outline         []Polyline    `json:"outline"`
	Divisions       []Polyline    `json:"divisions,omitempty"`
	EffectiveLength float64       `json:"effectiveLength"`
	EffectiveStart  geom.Point2   `json:"effectiveStart"`
	EffectiveEnd    geom.Point2   `json:"effectiveEnd"`
	Center          geom.Point2   `json:"center"`
	Rotation        float64       `json:"rotation"`
	Thickness       float64       `json:"thickness"`
	Segments        []SpanSegment `json:"segments,omitempty"`
}

// SpanSegment: интервал вдоль локальной оси стены (от эффективного начала).
type SpanSegment struct {
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Solid     bool    `json:"solid"`
	OpeningID string  `json:"openingId,omitempty"`
}

func (s SpanSegment) Len() float64 { return s.End - s.Start }

func (g Geometry) clone() Geometry {
	g.Solids = append([]Solid(nil), g.Solids...)
	g.Outline = clonePolylines(g.Outline)
	g.Divisions = clonePolylines(g.Divisions)
	g.Segments = append([]SpanSegment(nil), g.Segments...)
	return g
}

func clonePolylines(in []Polyline) []Polyline {
	if in == nil {
		return nil
	}
	out := make([]Polyline, len(in))
	for i, p := range in {
		out[i] = Polyline{Points: append([]geom.Point2(nil), p.Points...), Closed: p.Closed}
	}
	return out
}

// ============================================================
// Records
// ============================================================

type Opening struct {
	ID              string      `json:"id"`
	Type            OpeningType `json:"type"`
	Width           float64     `json:"width"`
	Height          float64     `json:"height"`
	Position        float64     `json:"positionAlongWall"`
	OffsetFromFloor float64     `json:"offsetFromFloor"`
	FrameDepth      float64     `json:"frameDepth"`
}

// Left и Right дают края проема вдоль номинальной оси стены.
func (o Opening) Left() float64  { return o.Position - o.Width/2 }
func (o Opening) Right() float64 { return o.Position + o.Width/2 }
func (o Opening) Top() float64   { return o.OffsetFromFloor + o.Height }

type WallElement struct {
	Start           geom.Point2 `json:"startPoint"`
	End             geom.Point2 `json:"endPoint"`
	Height          float64     `json:"height"`
	Thickness       float64     `json:"thickness"`
	TemplateID      string      `json:"templateId"`
	StartAdjustment float64     `json:"startAdjustment"`
	EndAdjustment   float64     `json:"endAdjustment"`
	Openings        []Opening   `json:"openings"`
}

// NominalLength: длина по исходным точкам, без поправок стыковки.
func (w WallElement) NominalLength() float64 {
	return geom.Distance(w.Start, w.End)
}

func (w WallElement) Centerline() geom.Segment {
	return geom.Segment{A: w.Start, B: w.End}
}

func (w WallElement) Opening(id string) (Opening, int, bool) {
	for i, o := range w.Openings {
		if o.ID == id {
			return o, i, true
		}
	}
	return Opening{}, -1, false
}

type ColumnElement struct {
	Center   geom.Point2 `json:"center"`
	Width    float64     `json:"width"`
	Depth    float64     `json:"depth"`
	Height   float64     `json:"height"`
	Rotation float64     `json:"rotation"`
}

// Element: запись Object Store.
type Element struct {
	ID        string
	Type      ElementType
	Wall      *WallElement
	Column    *ColumnElement
	Geometry  Geometry
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone: глубокая копия; снаружи хранилища записи живут только копиями.
func (e *Element) Clone() *Element {
	if e == nil {
		return nil
	}
	cp := *e
	if e.Wall != nil {
		w := *e.Wall
		w.Openings = append([]Opening(nil), e.Wall.Openings...)
		cp.Wall = &w
	}
	if e.Column != nil {
		c := *e.Column
		cp.Column = &c
	}
	cp.Geometry = e.Geometry.clone()
	return &cp
}
