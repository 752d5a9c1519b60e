package geom

import "math"

// ============================================================
// Geometry primitives
// ============================================================

// Epsilon: допуск для сравнения координат и определителей.
const Epsilon = 1e-9

// Point2: точка плана. Y плана соответствует оси Z в 3D (Y в 3D означает высоту).
type Point2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Point3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (p Point2) Add(q Point2) Point2        { return Point2{X: p.X + q.X, Y: p.Y + q.Y} }
func (p Point2) Sub(q Point2) Point2        { return Point2{X: p.X - q.X, Y: p.Y - q.Y} }
func (p Point2) Scale(k float64) Point2     { return Point2{X: p.X * k, Y: p.Y * k} }
func (p Point2) Dot(q Point2) float64       { return p.X*q.X + p.Y*q.Y }
func (p Point2) Cross(q Point2) float64     { return p.X*q.Y - p.Y*q.X }
func (p Point2) Len() float64               { return math.Hypot(p.X, p.Y) }
func (p Point2) Perp() Point2               { return Point2{X: -p.Y, Y: p.X} }
func (p Point2) Lift(height float64) Point3 { return Point3{X: p.X, Y: height, Z: p.Y} }

// Normalize возвращает единичный вектор; false, если вектор вырожден.
func (p Point2) Normalize() (Point2, bool) {
	l := p.Len()
	if l < Epsilon {
		return Point2{}, false
	}
	return Point2{X: p.X / l, Y: p.Y / l}, true
}

func (p Point2) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

func Distance(a, b Point2) float64 {
	return b.Sub(a).Len()
}

func Midpoint(a, b Point2) Point2 {
	return Point2{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

func Lerp(a, b Point2, t float64) Point2 {
	return a.Add(b.Sub(a).Scale(t))
}

func AlmostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func SamePoint(a, b Point2, tol float64) bool {
	return Distance(a, b) <= tol
}

// Angle: угол между векторами в диапазоне [0, π].
func Angle(a, b Point2) float64 {
	la, lb := a.Len(), b.Len()
	if la < Epsilon || lb < Epsilon {
		return 0
	}
	c := a.Dot(b) / (la * lb)
	return math.Acos(math.Max(-1, math.Min(1, c)))
}

func Degrees(rad float64) float64 { return rad * 180 / math.Pi }
func Radians(deg float64) float64 { return deg * math.Pi / 180 }

// ============================================================
// Segments
// ============================================================

type Segment struct {
	A Point2 `json:"a"`
	B Point2 `json:"b"`
}

func (s Segment) Vector() Point2 { return s.B.Sub(s.A) }
func (s Segment) Len() float64   { return s.Vector().Len() }

// Project возвращает параметр t проекции точки на прямую сегмента (0 в A, 1 в B).
func (s Segment) Project(p Point2) float64 {
	d := s.Vector()
	l2 := d.Dot(d)
	if l2 < Epsilon {
		return 0
	}
	return p.Sub(s.A).Dot(d) / l2
}

// DistanceTo: расстояние от точки до сегмента (не до бесконечной прямой).
func (s Segment) DistanceTo(p Point2) float64 {
	t := math.Max(0, math.Min(1, s.Project(p)))
	return Distance(p, Lerp(s.A, s.B, t))
}

// DistanceToLine: расстояние от точки до бесконечной прямой сегмента.
func (s Segment) DistanceToLine(p Point2) float64 {
	d := s.Vector()
	l := d.Len()
	if l < Epsilon {
		return Distance(p, s.A)
	}
	return math.Abs(d.Cross(p.Sub(s.A))) / l
}

// Intersect решает p1 + t·d1 = p2 + u·d2 для прямых двух сегментов.
// ok=false, если прямые параллельны (нормированный определитель меньше eps).
func Intersect(s1, s2 Segment, eps float64) (p Point2, t, u float64, ok bool) {
	d1, d2 := s1.Vector(), s2.Vector()
	det := d1.Cross(d2)
	scale := d1.Len() * d2.Len()
	if scale < Epsilon || math.Abs(det)/scale < eps {
		return Point2{}, 0, 0, false
	}
	w := s2.A.Sub(s1.A)
	t = w.Cross(d2) / det
	u = w.Cross(d1) / det
	return s1.A.Add(d1.Scale(t)), t, u, true
}
