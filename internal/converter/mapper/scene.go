package mapper

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"plan-kernel/internal/kernel/geom"
	kmodels "plan-kernel/internal/kernel/models"
	"plan-kernel/internal/kernel/store"
)

// ============================================================
// Scene
// ============================================================

// Scene является SVG-бэкендом рендера: хранит последнюю геометрию каждого элемента
// и собирает из нее план.
type Scene struct {
	mu       sync.RWMutex
	items    map[string]sceneItem
	scale    float64 // единиц SVG на метр
	revision int
}

type sceneItem struct {
	solids   []kmodels.Solid
	outlines []kmodels.Polyline
}

var _ store.Backend = (*Scene)(nil)

// NewScene: scale задает единицы SVG на метр (0 означает сантиметры).
func NewScene(scale float64) *Scene {
	if scale <= 0 {
		scale = 1 / DefaultScale
	}
	return &Scene{items: make(map[string]sceneItem), scale: scale}
}

func (s *Scene) RegisterGeometry(id string, solids []kmodels.Solid, outlines []kmodels.Polyline) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[id] = sceneItem{solids: solids, outlines: outlines}
	s.revision++
	return nil
}

func (s *Scene) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	s.revision++
	return nil
}

func (s *Scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Revision растет с каждым изменением сцены.
func (s *Scene) Revision() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// ============================================================
// Render
// ============================================================

// Render собирает SVG: контуры стен, линии слоев и тела участков
// (между ними видны проемы). Ось Y плана идет вниз, как в исходном SVG.
func (s *Scene) Render() string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var elements []string
	b := newBounds()
	for _, id := range ids {
		item := s.items[id]
		for i, pl := range item.outlines {
			elements = append(elements, s.renderPolyline(fmt.Sprintf("%s-outline-%d", id, i), pl, b))
		}
		for i, solid := range item.solids {
			if solid.Role != kmodels.RoleSegment && solid.Role != kmodels.RoleColumn {
				continue
			}
			pl := kmodels.Polyline{Points: footprint(solid), Closed: true}
			elements = append(elements, s.renderFill(fmt.Sprintf("%s-%s-%d", id, solid.Role, i), pl, b))
		}
	}
	s.mu.RUnlock()

	minX, minY, width, height := b.viewBox(s.scale)

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="%s %s %s %s">`,
		formatFloat(width), formatFloat(height), formatFloat(minX), formatFloat(minY), formatFloat(width), formatFloat(height)))
	builder.WriteString("\n")

	for _, elem := range elements {
		builder.WriteString("  ")
		builder.WriteString(elem)
		builder.WriteString("\n")
	}

	builder.WriteString(`</svg>`)
	return builder.String()
}

func (s *Scene) renderPolyline(id string, pl kmodels.Polyline, b *bounds) string {
	if pl.Closed {
		return fmt.Sprintf(`<path id="%s" d="%s" fill="none" stroke="#000" />`, id, s.pathData(pl, b))
	}
	return fmt.Sprintf(`<path id="%s" d="%s" fill="none" stroke="#888" stroke-dasharray="2" />`, id, s.pathData(pl, b))
}

func (s *Scene) renderFill(id string, pl kmodels.Polyline, b *bounds) string {
	return fmt.Sprintf(`<path id="%s" d="%s" fill="#ccc" stroke="none" />`, id, s.pathData(pl, b))
}

func (s *Scene) pathData(pl kmodels.Polyline, b *bounds) string {
	var path strings.Builder
	for i, p := range pl.Points {
		p = p.Scale(s.scale)
		b.add(p)
		if i == 0 {
			path.WriteString("M ")
		} else {
			path.WriteString(" L ")
		}
		path.WriteString(formatPoint(p))
	}
	if pl.Closed {
		path.WriteString(" Z")
	}
	return path.String()
}

// footprint: проекция тела на план.
func footprint(solid kmodels.Solid) []geom.Point2 {
	c := geom.Point2{X: solid.Center.X, Y: solid.Center.Z}
	dir := geom.Point2{X: math.Cos(solid.Rotation), Y: math.Sin(solid.Rotation)}
	u := dir.Scale(solid.Length / 2)
	v := dir.Perp().Scale(solid.Depth / 2)
	return []geom.Point2{c.Sub(u).Sub(v), c.Add(u).Sub(v), c.Add(u).Add(v), c.Sub(u).Add(v)}
}

// ============================================================
// Bounds & formatting
// ============================================================

type bounds struct {
	minX, minY, maxX, maxY float64
}

func newBounds() *bounds {
	return &bounds{minX: math.MaxFloat64, minY: math.MaxFloat64, maxX: -math.MaxFloat64, maxY: -math.MaxFloat64}
}

func (b *bounds) add(p geom.Point2) {
	b.minX = math.Min(b.minX, p.X)
	b.minY = math.Min(b.minY, p.Y)
	b.maxX = math.Max(b.maxX, p.X)
	b.maxY = math.Max(b.maxY, p.Y)
}

// viewBox с полем в полметра; пустая сцена занимает 10×10 м.
func (b *bounds) viewBox(scale float64) (minX, minY, width, height float64) {
	margin := 0.5 * scale
	if b.minX == math.MaxFloat64 {
		return 0, 0, 10 * scale, 10 * scale
	}
	return b.minX - margin, b.minY - margin, b.maxX - b.minX + 2*margin, b.maxY - b.minY + 2*margin
}

func formatFloat(val float64) string {
	return strconv.FormatFloat(math.Round(val*1000)/1000, 'f', -1, 64)
}

func formatPoint(p geom.Point2) string {
	return formatFloat(p.X) + " " + formatFloat(p.Y)
}
