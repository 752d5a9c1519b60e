// Package graph строит оси стен из фигур SVG и сводит их концы в общие узлы,
// чтобы детектор стыков ядра увидел углы и примыкания.
package graph

import (
	"math"
	"sort"

	"plan-kernel/internal/converter/models"
	"plan-kernel/internal/kernel/geom"
)

// ============================================================
// Graph Builder
// ============================================================

// Допуски в единицах SVG.
const (
	DefaultConnectTolerance = 15.0 // продление конца до оси соседней стены
	DefaultMergeTolerance   = 8.0  // склейка близких концов
	DefaultAxisSnap         = 4.0  // выравнивание почти горизонтальных/вертикальных осей
)

type Options struct {
	ConnectTolerance float64
	MergeTolerance   float64
	AxisSnap         float64
}

type Builder struct {
	opts      Options
	segments  []wallSegment
	transform func(geom.Point2) geom.Point2
}

type wallSegment struct {
	id        string
	p1        geom.Point2
	p2        geom.Point2
	thickness float64
}

func (s wallSegment) segment() geom.Segment { return geom.Segment{A: s.p1, B: s.p2} }

func NewBuilder(opts Options) *Builder {
	if opts.ConnectTolerance <= 0 {
		opts.ConnectTolerance = DefaultConnectTolerance
	}
	if opts.MergeTolerance <= 0 {
		opts.MergeTolerance = DefaultMergeTolerance
	}
	if opts.AxisSnap <= 0 {
		opts.AxisSnap = DefaultAxisSnap
	}
	return &Builder{
		opts:      opts,
		transform: func(p geom.Point2) geom.Point2 { return p },
	}
}

// SetTransform задает функцию трансформации координат (например, зеркалирование).
func (b *Builder) SetTransform(f func(geom.Point2) geom.Point2) {
	if f == nil {
		b.transform = func(p geom.Point2) geom.Point2 { return p }
		return
	}
	b.transform = f
}

// Build возвращает оси стен в порядке id источника.
func (b *Builder) Build(walls []models.SVGElement) []models.Centerline {
	b.segments = b.segments[:0]
	for _, wall := range walls {
		b.addWall(wall)
	}

	b.snapAxisAligned()
	b.connectEnds()
	b.mergeCloseEnds()

	out := make([]models.Centerline, 0, len(b.segments))
	for _, s := range b.segments {
		if geom.Distance(s.p1, s.p2) <= geom.Epsilon {
			continue
		}
		out = append(out, models.Centerline{SourceID: s.id, Start: s.p1, End: s.p2, Thickness: s.thickness})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SourceID < out[j].SourceID })
	return out
}

// addWall: ось проходит по середине длинной стороны габарита, толщина равна короткой стороне.
// Path из двух точек уже является осью, толщина неизвестна (0).
func (b *Builder) addWall(wall models.SVGElement) {
	points := wall.Geometry.Outline()
	if len(points) < 2 {
		return
	}

	if len(points) == 2 {
		b.segments = append(b.segments, wallSegment{
			id: wall.ID,
			p1: b.transform(points[0]),
			p2: b.transform(points[1]),
		})
		return
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}

	width := maxX - minX
	height := maxY - minY

	var p1, p2 geom.Point2
	if width >= height {
		// горизонтальная: середина по Y, края по X
		midY := minY + height/2
		p1 = geom.Point2{X: minX, Y: midY}
		p2 = geom.Point2{X: maxX, Y: midY}
	} else {
		// вертикальная: середина по X, края по Y
		midX := minX + width/2
		p1 = geom.Point2{X: midX, Y: minY}
		p2 = geom.Point2{X: midX, Y: maxY}
	}

	b.segments = append(b.segments, wallSegment{
		id:        wall.ID,
		p1:        b.transform(p1),
		p2:        b.transform(p2),
		thickness: math.Min(width, height),
	})
}

// snapAxisAligned делает почти горизонтальные оси горизонтальными (и так же для вертикальных).
func (b *Builder) snapAxisAligned() {
	for i := range b.segments {
		s := &b.segments[i]
		switch {
		case math.Abs(s.p1.Y-s.p2.Y) <= b.opts.AxisSnap:
			y := (s.p1.Y + s.p2.Y) / 2
			s.p1.Y, s.p2.Y = y, y
		case math.Abs(s.p1.X-s.p2.X) <= b.opts.AxisSnap:
			x := (s.p1.X + s.p2.X) / 2
			s.p1.X, s.p2.X = x, x
		}
	}
}

// connectEnds переносит конец стены в точку пересечения с осью соседней,
// если до нее не дальше ConnectTolerance. Так закрываются зазоры в углах и
// стена-примыкание упирается в ось сквозной.
func (b *Builder) connectEnds() {
	tol := b.opts.ConnectTolerance
	for i := range b.segments {
		for _, end := range []int{1, 2} {
			best, found := geom.Point2{}, false
			bestDist := math.MaxFloat64

			s := b.segments[i]
			p := s.p1
			if end == 2 {
				p = s.p2
			}

			for j := range b.segments {
				if i == j {
					continue
				}
				o := b.segments[j]
				x, _, u, ok := geom.Intersect(s.segment(), o.segment(), 1e-6)
				if !ok {
					continue
				}
				ext := tol / o.segment().Len()
				if u < -ext || u > 1+ext {
					continue
				}
				if d := geom.Distance(p, x); d <= tol && d < bestDist {
					best, bestDist, found = x, d, true
				}
			}

			if !found {
				continue
			}
			if end == 1 {
				b.segments[i].p1 = best
			} else {
				b.segments[i].p2 = best
			}
		}
	}
}

// mergeCloseEnds склеивает концы ближе MergeTolerance в их среднюю точку.
func (b *Builder) mergeCloseEnds() {
	type ref struct {
		seg int
		end int
	}

	var refs []ref
	for i := range b.segments {
		refs = append(refs, ref{i, 1}, ref{i, 2})
	}
	at := func(r ref) geom.Point2 {
		if r.end == 1 {
			return b.segments[r.seg].p1
		}
		return b.segments[r.seg].p2
	}

	used := make([]bool, len(refs))
	for i := range refs {
		if used[i] {
			continue
		}
		cluster := []ref{refs[i]}
		used[i] = true
		base := at(refs[i])
		for j := i + 1; j < len(refs); j++ {
			if used[j] || refs[j].seg == refs[i].seg {
				continue
			}
			if geom.Distance(base, at(refs[j])) <= b.opts.MergeTolerance {
				cluster = append(cluster, refs[j])
				used[j] = true
			}
		}
		if len(cluster) < 2 {
			continue
		}

		var sum geom.Point2
		for _, r := range cluster {
			sum = sum.Add(at(r))
		}
		mean := sum.Scale(1 / float64(len(cluster)))
		for _, r := range cluster {
			if r.end == 1 {
				b.segments[r.seg].p1 = mean
			} else {
				b.segments[r.seg].p2 = mean
			}
		}
	}
}
