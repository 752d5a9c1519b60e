// Package opening делит пролет стены на сплошные участки и проемы
// (одномерное разбиение вдоль локальной оси) и строит обрамление проемов.
package opening

import (
	"fmt"
	"sort"

	kerr "plan-kernel/internal/common/errors"
	"plan-kernel/internal/kernel/geom"
	"plan-kernel/internal/kernel/models"
)

// MinSegment: сплошные участки короче 1 см не создаются.
const MinSegment = 0.01

// boundsTolerance гасит ошибку округления на границах стены.
const boundsTolerance = 1e-9

// ============================================================
// Validation
// ============================================================

// Validate проверяет проем против стены и уже существующих проемов.
// Нарушения возвращаются как OpeningConflict, ничего не обрезается.
func Validate(o models.Opening, wallLength, wallHeight float64, existing []models.Opening) error {
	if err := models.ValidateOpening(o); err != nil {
		return err
	}

	if o.Left() < -boundsTolerance || o.Right() > wallLength+boundsTolerance {
		return kerr.New(kerr.KindOpeningConflict, "opening exceeds wall span").
			With("openingId", o.ID).
			With("left", o.Left()).
			With("right", o.Right()).
			With("wallLength", wallLength)
	}
	if wallHeight > 0 && o.Top() > wallHeight+boundsTolerance {
		return kerr.New(kerr.KindOpeningConflict, "opening exceeds wall height").
			With("openingId", o.ID).
			With("top", o.Top()).
			With("wallHeight", wallHeight)
	}

	for _, other := range existing {
		if other.ID == o.ID {
			continue
		}
		if overlaps(o, other) {
			return kerr.New(kerr.KindOpeningConflict, "openings overlap").
				With("openingId", o.ID).
				With("conflictsWith", other.ID).
				With("overlap", overlapWidth(o, other))
		}
	}
	return nil
}

// overlaps: пересекаются и горизонтальные, и вертикальные диапазоны.
func overlaps(a, b models.Opening) bool {
	horizontal := a.Left() < b.Right()-boundsTolerance && b.Left() < a.Right()-boundsTolerance
	vertical := a.OffsetFromFloor < b.Top()-boundsTolerance && b.OffsetFromFloor < a.Top()-boundsTolerance
	return horizontal && vertical
}

func overlapWidth(a, b models.Opening) float64 {
	lo := a.Left()
	if b.Left() > lo {
		lo = b.Left()
	}
	hi := a.Right()
	if b.Right() < hi {
		hi = b.Right()
	}
	return hi - lo
}

// ============================================================
// Span splitting
// ============================================================

// Split делит эффективный пролет на участки. shift переводит позиции
// проемов (от номинального начала) в локальные координаты пролета:
// local = position - startAdjustment.
func Split(effectiveLength, shift float64, openings []models.Opening) []models.SpanSegment {
	sorted := append([]models.Opening(nil), openings...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })

	var out []models.SpanSegment
	cursor := 0.0
	for _, o := range sorted {
		left := clamp(o.Left()-shift, 0, effectiveLength)
		right := clamp(o.Right()-shift, 0, effectiveLength)
		if right <= cursor {
			continue
		}
		if left-cursor >= MinSegment {
			out = append(out, models.SpanSegment{Start: cursor, End: left, Solid: true})
		}
		start := left
		if start < cursor {
			start = cursor
		}
		out = append(out, models.SpanSegment{Start: start, End: right, OpeningID: o.ID})
		cursor = right
	}
	if effectiveLength-cursor >= MinSegment {
		out = append(out, models.SpanSegment{Start: cursor, End: effectiveLength, Solid: true})
	}
	return out
}

// SolidLength: суммарная длина сплошных участков.
func SolidLength(segments []models.SpanSegment) float64 {
	var sum float64
	for _, s := range segments {
		if s.Solid {
			sum += s.Len()
		}
	}
	return sum
}

// ============================================================
// Solids
// ============================================================

// Frame описывает стену, на которую накладываются проемы.
type Frame struct {
	Start     geom.Point2 // эффективное начало
	Direction geom.Point2 // единичный вектор оси
	Rotation  float64
	Height    float64
	Thickness float64
	Shift     float64 // startAdjustment стены
}

// Apply строит тела стены с проемами: сплошные участки на полную высоту,
// заполнение над и под проемами и коробки проемов с frameDepth > 0.
func Apply(f Frame, effectiveLength float64, openings []models.Opening) ([]models.SpanSegment, []models.Solid) {
	segments := Split(effectiveLength, f.Shift, openings)
	byID := make(map[string]models.Opening, len(openings))
	for _, o := range openings {
		byID[o.ID] = o
	}

	var solids []models.Solid
	for i, seg := range segments {
		if seg.Solid {
			solids = append(solids, f.box(fmt.Sprintf("segment_%d", i), models.RoleSegment, seg.Start, seg.End, 0, f.Height))
			continue
		}

		o, ok := byID[seg.OpeningID]
		if !ok {
			continue
		}
		if top := o.Top(); top < f.Height-MinSegment {
			solids = append(solids, f.box(o.ID+"_above", models.RoleInfill, seg.Start, seg.End, top, f.Height))
		}
		if o.OffsetFromFloor >= MinSegment {
			solids = append(solids, f.box(o.ID+"_below", models.RoleInfill, seg.Start, seg.End, 0, o.OffsetFromFloor))
		}
		solids = append(solids, f.frame(o)...)
	}
	return segments, solids
}

// frame: два косяка, перемычка и, для окон над полом, подоконная доска.
func (f Frame) frame(o models.Opening) []models.Solid {
	d := o.FrameDepth
	if d <= 0 {
		return nil
	}
	left := o.Left() - f.Shift
	right := o.Right() - f.Shift
	bottom := o.OffsetFromFloor
	top := o.Top()

	solids := []models.Solid{
		f.box(o.ID+"_jamb_left", models.RoleJamb, left, left+d, bottom, top),
		f.box(o.ID+"_jamb_right", models.RoleJamb, right-d, right, bottom, top),
		f.box(o.ID+"_head", models.RoleHead, left, right, top-d, top),
	}
	if o.Type == models.OpeningWindow && o.OffsetFromFloor > 0 {
		solids = append(solids, f.box(o.ID+"_sill", models.RoleSill, left, right, bottom, bottom+d))
	}
	return solids
}

// box: тело на интервале [from, to] вдоль оси и [bottom, top] по высоте.
func (f Frame) box(name, role string, from, to, bottom, top float64) models.Solid {
	mid := (from + to) / 2
	center := f.Start.Add(f.Direction.Scale(mid))
	return models.Solid{
		Name:     name,
		Role:     role,
		Center:   center.Lift((bottom + top) / 2),
		Length:   to - from,
		Height:   top - bottom,
		Depth:    f.Thickness,
		Rotation: f.Rotation,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
