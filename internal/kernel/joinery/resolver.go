// Package joinery превращает найденные стыки в поправки концов стен:
// стык впритык (butt), на ус (miter) и внахлест (overlap).
package joinery

import (
	"math"
	"strings"

	kerr "plan-kernel/internal/common/errors"
	"plan-kernel/internal/kernel/geom"
	"plan-kernel/internal/kernel/junction"
)

// ============================================================
// Joint styles
// ============================================================

type Style string

const (
	StyleAuto    Style = "auto"
	StyleButt    Style = "butt"
	StyleMiter   Style = "miter"
	StyleOverlap Style = "overlap"
)

func ParseStyle(s string) (Style, error) {
	switch st := Style(strings.ToLower(strings.TrimSpace(s))); st {
	case "":
		return StyleAuto, nil
	case StyleAuto, StyleButt, StyleMiter, StyleOverlap:
		return st, nil
	default:
		return "", kerr.New(kerr.KindInvalidParams, "unknown joint style").With("jointStyle", s)
	}
}

const DefaultEpsilon = 0.001 // Заход в соседнюю стену, чтобы не было видимого шва, м
const minMiterAngle = 5 * math.Pi / 180

type Options struct {
	Style          Style
	Epsilon        float64 // для butt
	OverlapEpsilon float64 // для overlap
}

func (o Options) withDefaults() Options {
	if o.Style == "" {
		o.Style = StyleAuto
	}
	if o.Epsilon <= 0 {
		o.Epsilon = DefaultEpsilon
	}
	if o.OverlapEpsilon <= 0 {
		o.OverlapEpsilon = DefaultEpsilon
	}
	return o
}

// ============================================================
// Result
// ============================================================

// Adjustment: поправки концов стены. Положительное значение укорачивает
// стену, отрицательное удлиняет.
type Adjustment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func (a Adjustment) get(end junction.End) float64 {
	if end == junction.EndEnd {
		return a.End
	}
	return a.Start
}

func (a *Adjustment) set(end junction.End, v float64) {
	if end == junction.EndEnd {
		a.End = v
	} else {
		a.Start = v
	}
}

// Причины конфликта стыковки.
const (
	ReasonLength  = "length"  // эффективная длина стала бы ≤ 0
	ReasonOpening = "opening" // проем вышел бы за эффективный пролет
)

// Conflict: стык пропущен, потому что поправка испортила бы геометрию стены.
type Conflict struct {
	Junction        junction.Junction `json:"junction"`
	WallID          string            `json:"wallId"`
	Reason          string            `json:"reason"`
	Adjustment      float64           `json:"adjustment"`
	EffectiveLength float64           `json:"effectiveLength"`
}

func (c Conflict) Err() error {
	msg := "adjustment would make wall length non-positive"
	if c.Reason == ReasonOpening {
		msg = "adjustment would cut into an opening"
	}
	return kerr.New(kerr.KindJoineryConflict, msg).
		With("wallA", c.Junction.WallA).
		With("wallB", c.Junction.WallB).
		With("wallId", c.WallID).
		With("adjustment", c.Adjustment).
		With("effectiveLength", c.EffectiveLength)
}

type Result struct {
	Adjustments map[string]Adjustment `json:"adjustments"`
	Junctions   []junction.Junction   `json:"junctions"`
	Resolved    int                   `json:"resolved"`
	Skipped     int                   `json:"skipped"` // конец стены уже занят стыком с большим приоритетом
	Conflicts   []Conflict            `json:"conflicts"`
}

// ============================================================
// Resolver
// ============================================================

type endChange struct {
	wall  string
	end   junction.End
	value float64
}

type endKey struct {
	wall string
	end  junction.End
}

// Resolve считает поправки с нуля для всех стен. Стыки обрабатываются
// в переданном порядке; конец стены получает поправку только от первого
// стыка, который его затрагивает. Поправки накапливаются и применяются
// вызывающей стороной одним пересчетом на стену.
func Resolve(walls []junction.Wall, junctions []junction.Junction, opts Options) Result {
	opts = opts.withDefaults()

	byID := make(map[string]junction.Wall, len(walls))
	res := Result{
		Adjustments: make(map[string]Adjustment, len(walls)),
		Junctions:   junctions,
	}
	for _, w := range walls {
		byID[w.ID] = w
		res.Adjustments[w.ID] = Adjustment{}
	}

	claimed := make(map[endKey]bool)
	for _, jn := range junctions {
		a, okA := byID[jn.WallA]
		b, okB := byID[jn.WallB]
		if !okA || !okB {
			res.Skipped++
			continue
		}

		changes := plan(jn, a, b, opts)
		if anyClaimed(claimed, changes) {
			res.Skipped++
			continue
		}

		if c, bad := check(jn, byID, res.Adjustments, changes); bad {
			res.Conflicts = append(res.Conflicts, c)
			continue
		}

		for _, ch := range changes {
			adj := res.Adjustments[ch.wall]
			adj.set(ch.end, ch.value)
			res.Adjustments[ch.wall] = adj
			claimed[endKey{ch.wall, ch.end}] = true
		}
		res.Resolved++
	}
	return res
}

// Pass: обнаружение и разрешение за один вызов.
func Pass(walls []junction.Wall, detect junction.Options, opts Options) Result {
	return Resolve(walls, junction.Detect(walls, detect), opts)
}

func anyClaimed(claimed map[endKey]bool, changes []endChange) bool {
	for _, ch := range changes {
		if claimed[endKey{ch.wall, ch.end}] {
			return true
		}
	}
	return false
}

// check проверяет эффективную длину и проемы с учетом уже принятых поправок.
// Проемы должны остаться внутри пролета [startAdj, length - endAdj].
func check(jn junction.Junction, walls map[string]junction.Wall, current map[string]Adjustment, changes []endChange) (Conflict, bool) {
	provisional := make(map[string]Adjustment, len(changes))
	for _, ch := range changes {
		adj, ok := provisional[ch.wall]
		if !ok {
			adj = current[ch.wall]
		}
		adj.set(ch.end, ch.value)
		provisional[ch.wall] = adj
	}
	for _, ch := range changes {
		w := walls[ch.wall]
		adj := provisional[ch.wall]
		length := geom.Distance(w.Start, w.End)
		eff := length - adj.Start - adj.End
		if eff <= geom.Epsilon {
			return Conflict{Junction: jn, WallID: ch.wall, Reason: ReasonLength, Adjustment: adj.get(ch.end), EffectiveLength: eff}, true
		}
		if w.HasOpenings && (w.OpeningsLeft < adj.Start-geom.Epsilon || w.OpeningsRight > length-adj.End+geom.Epsilon) {
			return Conflict{Junction: jn, WallID: ch.wall, Reason: ReasonOpening, Adjustment: adj.get(ch.end), EffectiveLength: eff}, true
		}
	}
	return Conflict{}, false
}

// plan выбирает тип соединения и считает поправки для концов стыка.
func plan(jn junction.Junction, a, b junction.Wall, opts Options) []endChange {
	style := styleFor(jn.Kind, opts.Style)

	switch jn.Kind {
	case junction.KindXIntersection:
		// Ни одна стена не заканчивается в точке пересечения.
		return nil

	case junction.KindTJunction:
		stem, stemEnd, through := a, jn.EndA, b
		if jn.EndA == junction.EndNone {
			stem, stemEnd, through = b, jn.EndB, a
		}
		ext := through.Thickness + opts.OverlapEpsilon
		if style == StyleButt {
			ext = through.Thickness/2 + opts.Epsilon
		}
		return []endChange{{stem.ID, stemEnd, toPoint(stem, stemEnd, jn.Point, ext)}}
	}

	switch style {
	case StyleButt:
		through, butting, buttEnd, throughEnd := a, b, jn.EndB, jn.EndA
		if longer(b, a) {
			through, butting, buttEnd, throughEnd = b, a, jn.EndA, jn.EndB
		}
		return []endChange{
			{through.ID, throughEnd, toPoint(through, throughEnd, jn.Point, 0)},
			{butting.ID, buttEnd, toPoint(butting, buttEnd, jn.Point, through.Thickness/2+opts.Epsilon)},
		}

	case StyleMiter:
		m := MiterExtension(a.Thickness, b.Thickness, jn.Angle)
		return []endChange{
			{a.ID, jn.EndA, toPoint(a, jn.EndA, jn.Point, m)},
			{b.ID, jn.EndB, toPoint(b, jn.EndB, jn.Point, m)},
		}

	case StyleOverlap:
		long, short, shortEnd, longEnd := a, b, jn.EndB, jn.EndA
		if longer(b, a) {
			long, short, shortEnd, longEnd = b, a, jn.EndA, jn.EndB
		}
		return []endChange{
			{long.ID, longEnd, toPoint(long, longEnd, jn.Point, 0)},
			{short.ID, shortEnd, toPoint(short, shortEnd, jn.Point, long.Thickness+opts.OverlapEpsilon)},
		}

	default:
		// Продолжение: концы сводятся в точку стыка без захода.
		return []endChange{
			{a.ID, jn.EndA, toPoint(a, jn.EndA, jn.Point, 0)},
			{b.ID, jn.EndB, toPoint(b, jn.EndB, jn.Point, 0)},
		}
	}
}

// styleFor раскрывает auto: L → butt, угол → miter, T → overlap, продолжение без захода.
func styleFor(kind junction.Kind, requested Style) Style {
	if kind == junction.KindStraight {
		return ""
	}
	if kind == junction.KindTJunction {
		if requested == StyleButt {
			return StyleButt
		}
		return StyleOverlap
	}
	if requested != StyleAuto {
		return requested
	}
	if kind == junction.KindLCorner {
		return StyleButt
	}
	return StyleMiter
}

// MiterExtension = avgThickness / (2·sin(angle/2)), угол не меньше 5°.
func MiterExtension(t1, t2, angle float64) float64 {
	if angle < minMiterAngle {
		angle = minMiterAngle
	}
	return (t1 + t2) / 2 / (2 * math.Sin(angle/2))
}

// longer: a длиннее b; при равной длине сквозной считается стена с меньшим id.
func longer(a, b junction.Wall) bool {
	la, lb := geom.Distance(a.Start, a.End), geom.Distance(b.Start, b.End)
	if math.Abs(la-lb) > geom.Epsilon {
		return la > lb
	}
	return a.ID < b.ID
}

// toPoint: поправка, переносящая конец стены в точку p и дальше за нее на ext.
// Для конца, лежащего ровно в p, это просто -ext.
func toPoint(w junction.Wall, end junction.End, p geom.Point2, ext float64) float64 {
	dir, ok := w.End.Sub(w.Start).Normalize()
	if !ok {
		return 0
	}
	if end == junction.EndEnd {
		return w.End.Sub(p).Dot(dir) - ext
	}
	return p.Sub(w.Start).Dot(dir) - ext
}
