package models

import (
	"encoding/json"
	"fmt"

	"plan-kernel/internal/kernel/geom"
)

// ============================================================
// Snapshot
// ============================================================

// Snapshot: сериализуемая копия элемента. Изменение снимка не влияет на хранилище.
type Snapshot struct {
	ID               string        `json:"id"`
	Type             ElementType   `json:"type"`
	Params           Params        `json:"params"`
	DerivedLength    float64       `json:"derivedLength"`
	DerivedEndpoints []geom.Point2 `json:"derivedEndpoints"`
	Adjustments      *Adjustments  `json:"adjustments,omitempty"`
	Geometry         *Geometry     `json:"geometry,omitempty"`
	Version          int           `json:"version"`
}

type Adjustments struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type snapshotJSON struct {
	ID               string          `json:"id"`
	Type             ElementType     `json:"type"`
	Params           json.RawMessage `json:"params"`
	DerivedLength    float64         `json:"derivedLength"`
	DerivedEndpoints []geom.Point2   `json:"derivedEndpoints"`
	Adjustments      *Adjustments    `json:"adjustments,omitempty"`
	Geometry         *Geometry       `json:"geometry,omitempty"`
	Version          int             `json:"version"`
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var raw snapshotJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	params, err := DecodeParams(raw.Type, raw.Params)
	if err != nil {
		return err
	}

	*s = Snapshot{
		ID:               raw.ID,
		Type:             raw.Type,
		Params:           params,
		DerivedLength:    raw.DerivedLength,
		DerivedEndpoints: raw.DerivedEndpoints,
		Adjustments:      raw.Adjustments,
		Geometry:         raw.Geometry,
		Version:          raw.Version,
	}
	return nil
}

// DecodeParams разбирает params по тегу типа элемента.
func DecodeParams(t ElementType, data []byte) (Params, error) {
	var p Params
	switch t {
	case TypeWall:
		var wp WallParams
		if err := unmarshalParams(data, &wp); err != nil {
			return nil, err
		}
		p = wp
	case TypeDoor:
		var dp DoorParams
		if err := unmarshalParams(data, &dp); err != nil {
			return nil, err
		}
		p = dp
	case TypeWindow:
		var wp WindowParams
		if err := unmarshalParams(data, &wp); err != nil {
			return nil, err
		}
		p = wp
	case TypeColumn:
		var cp ColumnParams
		if err := unmarshalParams(data, &cp); err != nil {
			return nil, err
		}
		p = cp
	default:
		return nil, fmt.Errorf("unknown element type %q", t)
	}
	return p, nil
}

func unmarshalParams(data []byte, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("params required")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode params: %w", err)
	}
	return nil
}

// ============================================================
// Builders
// ============================================================

// SnapshotOf строит снимок стены или колонны.
func SnapshotOf(e *Element, withGeometry bool) Snapshot {
	cp := e.Clone()
	s := Snapshot{
		ID:      cp.ID,
		Type:    cp.Type,
		Version: cp.Version,
	}

	switch {
	case cp.Wall != nil:
		w := cp.Wall
		s.Params = WallParams{
			StartPoint: w.Start,
			EndPoint:   w.End,
			Thickness:  w.Thickness,
			Height:     w.Height,
			TemplateID: w.TemplateID,
			Openings:   w.Openings,
		}
		s.DerivedLength = cp.Geometry.EffectiveLength
		s.DerivedEndpoints = []geom.Point2{cp.Geometry.EffectiveStart, cp.Geometry.EffectiveEnd}
		s.Adjustments = &Adjustments{Start: w.StartAdjustment, End: w.EndAdjustment}
	case cp.Column != nil:
		c := cp.Column
		s.Params = ColumnParams{Center: c.Center, Width: c.Width, Depth: c.Depth, Height: c.Height, Rotation: c.Rotation}
		s.DerivedLength = c.Width
		s.DerivedEndpoints = []geom.Point2{c.Center}
	}

	if withGeometry {
		g := cp.Geometry
		s.Geometry = &g
	}
	return s
}

// OpeningSnapshot строит снимок двери или окна, принадлежащего стене.
func OpeningSnapshot(wall *Element, o Opening) Snapshot {
	w := wall.Wall
	dir, _ := w.End.Sub(w.Start).Normalize()

	s := Snapshot{
		ID:            o.ID,
		DerivedLength: o.Width,
		DerivedEndpoints: []geom.Point2{
			w.Start.Add(dir.Scale(o.Left())),
			w.Start.Add(dir.Scale(o.Right())),
		},
		Version: wall.Version,
	}

	switch o.Type {
	case OpeningWindow:
		s.Type = TypeWindow
		s.Params = WindowParams{
			ID: o.ID, WallID: wall.ID, Width: o.Width, Height: o.Height,
			Position: o.Position, SillHeight: o.OffsetFromFloor, FrameDepth: o.FrameDepth,
		}
	default:
		s.Type = TypeDoor
		s.Params = DoorParams{
			ID: o.ID, WallID: wall.ID, Width: o.Width, Height: o.Height,
			Position: o.Position, FrameDepth: o.FrameDepth,
		}
	}
	return s
}
