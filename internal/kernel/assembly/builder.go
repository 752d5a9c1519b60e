// Package assembly строит геометрию многослойной стены: тела слоев в 3D
// и контур с линиями раздела слоев в плане.
package assembly

import (
	"fmt"
	"math"

	kerr "plan-kernel/internal/common/errors"
	"plan-kernel/internal/kernel/catalog"
	"plan-kernel/internal/kernel/geom"
	"plan-kernel/internal/kernel/models"
)

// ============================================================
// Wall Assembly Builder
// ============================================================

// Build строит геометрию стены с учетом поправок начала и конца.
// Проемы здесь не учитываются, их накладывает пакет opening.
func Build(w models.WallElement, tpl catalog.WallTemplate) (models.Geometry, error) {
	span := w.End.Sub(w.Start)
	dir, ok := span.Normalize()
	if !ok {
		return models.Geometry{}, kerr.New(kerr.KindInvalidGeometry, "degenerate wall direction").
			With("startPoint", w.Start).With("endPoint", w.End)
	}
	if !(w.Height > 0) {
		return models.Geometry{}, kerr.New(kerr.KindInvalidGeometry, "wall height must be positive").With("height", w.Height)
	}

	total := tpl.TotalThickness()
	if !(total > 0) {
		return models.Geometry{}, kerr.New(kerr.KindInvalidGeometry, "template thickness must be positive").
			With("templateId", tpl.ID)
	}

	length := span.Len()
	effective := length - w.StartAdjustment - w.EndAdjustment
	if effective <= 0 {
		return models.Geometry{}, kerr.New(kerr.KindInvalidGeometry, "effective wall length must be positive").
			With("length", length).
			With("startAdjustment", w.StartAdjustment).
			With("endAdjustment", w.EndAdjustment).
			With("effectiveLength", effective)
	}

	// Ось Z в 3D совпадает с Y плана.
	rotation := math.Atan2(dir.Y, dir.X)
	center := geom.Midpoint(w.Start, w.End).Add(dir.Scale((w.StartAdjustment - w.EndAdjustment) / 2))
	effStart := w.Start.Add(dir.Scale(w.StartAdjustment))
	effEnd := w.End.Sub(dir.Scale(w.EndAdjustment))
	normal := dir.Perp()

	g := models.Geometry{
		EffectiveLength: effective,
		EffectiveStart:  effStart,
		EffectiveEnd:    effEnd,
		Center:          center,
		Rotation:        rotation,
		Thickness:       total,
	}

	offset := -total / 2
	for i, layer := range tpl.Layers {
		mid := offset + layer.Thickness/2
		g.Solids = append(g.Solids, models.Solid{
			Name:     fmt.Sprintf("layer_%d_%s", i, layer.Function),
			Role:     models.RoleLayer,
			Material: layer.MaterialID,
			Center:   center.Add(normal.Scale(mid)).Lift(w.Height / 2),
			Length:   effective,
			Height:   w.Height,
			Depth:    layer.Thickness,
			Rotation: rotation,
		})
		offset += layer.Thickness

		if i < len(tpl.Layers)-1 {
			g.Divisions = append(g.Divisions, models.Polyline{Points: []geom.Point2{
				effStart.Add(normal.Scale(offset)),
				effEnd.Add(normal.Scale(offset)),
			}})
		}
	}

	half := normal.Scale(total / 2)
	g.Outline = []models.Polyline{{
		Points: []geom.Point2{
			effStart.Sub(half),
			effEnd.Sub(half),
			effEnd.Add(half),
			effStart.Add(half),
		},
		Closed: true,
	}}

	return g, nil
}

// CutLayers режет тела слоев по сплошным участкам пролета: каждый слой
// повторяется на каждом участке, состав стены сохраняется между проемами.
// Участки заданы от эффективного начала стены.
func CutLayers(g models.Geometry, segments []models.SpanSegment) []models.Solid {
	dir := geom.Point2{X: math.Cos(g.Rotation), Y: math.Sin(g.Rotation)}

	var out []models.Solid
	for _, layer := range g.Solids {
		if layer.Role != models.RoleLayer {
			continue
		}
		lateral := geom.Point2{X: layer.Center.X, Y: layer.Center.Z}.Sub(g.Center)
		for i, seg := range segments {
			if !seg.Solid {
				continue
			}
			piece := layer
			piece.Name = fmt.Sprintf("%s_seg_%d", layer.Name, i)
			piece.Center = g.EffectiveStart.Add(dir.Scale((seg.Start + seg.End) / 2)).Add(lateral).Lift(layer.Center.Y)
			piece.Length = seg.Len()
			out = append(out, piece)
		}
	}
	return out
}

// Faces возвращает смещения граней слоев от осевой линии (от -t/2 до +t/2).
func Faces(tpl catalog.WallTemplate) []float64 {
	total := tpl.TotalThickness()
	faces := make([]float64, 0, len(tpl.Layers)+1)
	offset := -total / 2
	faces = append(faces, offset)
	for _, l := range tpl.Layers {
		offset += l.Thickness
		faces = append(faces, offset)
	}
	return faces
}
