// Package junction находит места, где сходятся осевые линии стен,
// и классифицирует их: L-угол, T-примыкание, X-пересечение, продолжение.
package junction

import (
	"math"
	"sort"

	"plan-kernel/internal/kernel/geom"
)

// ============================================================
// Tolerances
// ============================================================

const DefaultTolerance = 0.2     // Допуск сближения осевых линий, м
const DefaultEndTolerance = 0.05 // Насколько близко к концу стены считается «у конца», м
const endFraction = 0.05         // Или в пределах 5% длины от конца
const parallelEpsilon = 1e-6     // Нормированный определитель для параллельных прямых

var rightAngleTolerance = geom.Radians(5)
var straightTolerance = geom.Radians(15)

// ============================================================
// Types
// ============================================================

type Kind string

const (
	KindLCorner       Kind = "L"
	KindAngledCorner  Kind = "angled_L"
	KindStraight      Kind = "straight"
	KindTJunction     Kind = "T"
	KindXIntersection Kind = "X"
)

// Corner: угловые стыки (оба конца), они разрешаются раньше T/X.
func (k Kind) Corner() bool {
	return k == KindLCorner || k == KindAngledCorner || k == KindStraight
}

func (k Kind) rank() int {
	switch k {
	case KindLCorner:
		return 0
	case KindAngledCorner:
		return 1
	case KindStraight:
		return 2
	case KindTJunction:
		return 3
	default:
		return 4
	}
}

type End string

const (
	EndStart End = "start"
	EndEnd   End = "end"
	EndNone  End = "" // пересечение в пролете
)

// Wall: то, что детектору нужно знать о стене.
type Wall struct {
	ID          string
	Start       geom.Point2
	End         geom.Point2
	Thickness   float64
	LoadBearing bool

	// Интервал, занятый проемами, от номинального начала стены.
	HasOpenings   bool
	OpeningsLeft  float64
	OpeningsRight float64
}

func (w Wall) segment() geom.Segment { return geom.Segment{A: w.Start, B: w.End} }

// Junction существует только в пределах одного прохода стыковки.
type Junction struct {
	WallA string      `json:"wallA"`
	WallB string      `json:"wallB"`
	EndA  End         `json:"endA"`
	EndB  End         `json:"endB"`
	Point geom.Point2 `json:"point"`
	Angle float64     `json:"angleRadians"`
	Kind  Kind        `json:"kind"`

	loadBearing bool
}

// Options: допуски детектора.
type Options struct {
	Tolerance    float64
	EndTolerance float64
}

func (o Options) withDefaults() Options {
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.EndTolerance <= 0 {
		o.EndTolerance = DefaultEndTolerance
	}
	return o
}

// ============================================================
// Detector
// ============================================================

// Detect перебирает все неупорядоченные пары стен (O(n²)) и возвращает
// стыки в порядке приоритета разрешения.
func Detect(walls []Wall, opts Options) []Junction {
	opts = opts.withDefaults()

	sorted := append([]Wall(nil), walls...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var out []Junction
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if jn, ok := DetectPair(sorted[i], sorted[j], opts); ok {
				out = append(out, jn)
			}
		}
	}

	Prioritize(out)
	return out
}

// DetectPair проверяет одну пару стен.
func DetectPair(a, b Wall, opts Options) (Junction, bool) {
	opts = opts.withDefaults()
	sa, sb := a.segment(), b.segment()

	p, _, _, ok := geom.Intersect(sa, sb, parallelEpsilon)
	if !ok {
		return collinearJoin(a, b, opts)
	}

	if sa.DistanceTo(p) > opts.Tolerance || sb.DistanceTo(p) > opts.Tolerance {
		return Junction{}, false
	}

	endA := classifyEnd(a, p, opts)
	endB := classifyEnd(b, p, opts)
	angle := geom.Angle(awayDirection(a, endA), awayDirection(b, endB))

	jn := Junction{
		WallA:       a.ID,
		WallB:       b.ID,
		EndA:        endA,
		EndB:        endB,
		Point:       p,
		Angle:       angle,
		loadBearing: a.LoadBearing || b.LoadBearing,
	}

	switch {
	case endA != EndNone && endB != EndNone:
		jn.Kind = cornerKind(angle)
	case endA != EndNone || endB != EndNone:
		jn.Kind = KindTJunction
	default:
		jn.Kind = KindXIntersection
	}
	return jn, true
}

// collinearJoin: параллельные стены образуют стык, только если лежат на одной
// прямой и касаются концами. Параллельные несовпадающие стены не стыкуются.
func collinearJoin(a, b Wall, opts Options) (Junction, bool) {
	sa := a.segment()
	if sa.DistanceToLine(b.Start) > opts.Tolerance || sa.DistanceToLine(b.End) > opts.Tolerance {
		return Junction{}, false
	}

	best := math.MaxFloat64
	var jn Junction
	for _, ea := range []End{EndStart, EndEnd} {
		for _, eb := range []End{EndStart, EndEnd} {
			pa, pb := endpoint(a, ea), endpoint(b, eb)
			d := geom.Distance(pa, pb)
			if d <= opts.Tolerance && d < best {
				best = d
				p := geom.Midpoint(pa, pb)
				jn = Junction{
					WallA:       a.ID,
					WallB:       b.ID,
					EndA:        ea,
					EndB:        eb,
					Point:       p,
					Angle:       geom.Angle(awayDirection(a, ea), awayDirection(b, eb)),
					loadBearing: a.LoadBearing || b.LoadBearing,
				}
			}
		}
	}
	if best == math.MaxFloat64 {
		return Junction{}, false
	}

	jn.Kind = cornerKind(jn.Angle)
	return jn, true
}

func cornerKind(angle float64) Kind {
	switch {
	case math.Abs(angle-math.Pi/2) <= rightAngleTolerance:
		return KindLCorner
	case math.Abs(angle-math.Pi) <= straightTolerance:
		return KindStraight
	default:
		return KindAngledCorner
	}
}

// classifyEnd определяет, у какого конца стены лежит точка.
func classifyEnd(w Wall, p geom.Point2, opts Options) End {
	s := w.segment()
	t := s.Project(p)
	switch {
	case geom.Distance(p, w.Start) <= opts.EndTolerance || t <= endFraction:
		return EndStart
	case geom.Distance(p, w.End) <= opts.EndTolerance || t >= 1-endFraction:
		return EndEnd
	default:
		return EndNone
	}
}

// awayDirection: направление стены от точки стыка. Для пересечения
// в пролете берется направление самой стены.
func awayDirection(w Wall, end End) geom.Point2 {
	if end == EndEnd {
		return w.Start.Sub(w.End)
	}
	return w.End.Sub(w.Start)
}

func endpoint(w Wall, end End) geom.Point2 {
	if end == EndEnd {
		return w.End
	}
	return w.Start
}

// ============================================================
// Ordering
// ============================================================

// Prioritize сортирует стыки: углы раньше T/X, затем стыки несущих стен,
// затем по виду и по id стен.
func Prioritize(junctions []Junction) {
	sort.SliceStable(junctions, func(i, j int) bool {
		a, b := junctions[i], junctions[j]
		if a.Kind.Corner() != b.Kind.Corner() {
			return a.Kind.Corner()
		}
		if a.loadBearing != b.loadBearing {
			return a.loadBearing
		}
		if a.Kind.rank() != b.Kind.rank() {
			return a.Kind.rank() < b.Kind.rank()
		}
		if a.WallA != b.WallA {
			return a.WallA < b.WallA
		}
		return a.WallB < b.WallB
	})
}

// LoadBearing: участвует ли в стыке несущая стена.
func (j Junction) LoadBearing() bool { return j.loadBearing }
