package mapper

import (
	"fmt"
	"io"
	"log"
	"math"

	"plan-kernel/internal/converter/graph"
	"plan-kernel/internal/converter/models"
	"plan-kernel/internal/converter/parser"
	"plan-kernel/internal/kernel/geom"
	kmodels "plan-kernel/internal/kernel/models"
)

// ============================================================
// Importer
// ============================================================

// ElementCreator: вход ядра для адаптера импорта.
type ElementCreator interface {
	CreateElement(t kmodels.ElementType, params kmodels.Params) (string, error)
}

// Размеры по умолчанию, м.
const (
	DefaultScale        = 0.01 // SVG в сантиметрах
	DefaultWallHeight   = 3.0
	DefaultThickness    = 0.2
	DefaultDoorHeight   = 2.15
	DefaultWindowHeight = 1.0
	DefaultWindowSill   = 0.9
)

type ImportOptions struct {
	Scale        float64 // метров на единицу SVG
	WallHeight   float64
	Thickness    float64 // для стен-линий без толщины
	TemplateID   string
	MaxSnap      float64 // проем дальше от оси стены (м) не привязывается
	Graph        graph.Options
	FlipY        bool
	DoorHeight   float64
	WindowHeight float64
	WindowSill   float64 // отрицательное значение: окно от пола
}

type Importer struct {
	kernel ElementCreator
	opts   ImportOptions
}

func NewImporter(k ElementCreator, opts ImportOptions) *Importer {
	if opts.Scale <= 0 {
		opts.Scale = DefaultScale
	}
	if opts.WallHeight <= 0 {
		opts.WallHeight = DefaultWallHeight
	}
	if opts.Thickness <= 0 {
		opts.Thickness = DefaultThickness
	}
	if opts.MaxSnap <= 0 {
		opts.MaxSnap = 0.5
	}
	if opts.DoorHeight <= 0 {
		opts.DoorHeight = DefaultDoorHeight
	}
	if opts.WindowHeight <= 0 {
		opts.WindowHeight = DefaultWindowHeight
	}
	if opts.WindowSill < 0 {
		opts.WindowSill = 0
	} else if opts.WindowSill == 0 {
		opts.WindowSill = DefaultWindowSill
	}
	return &Importer{kernel: k, opts: opts}
}

type placedWall struct {
	id   string
	line models.Centerline // в метрах
}

// Import разбирает SVG и создает элементы через ядро. Элементы, которые ядро
// отклонило, попадают в отчет; остальные создаются.
func (im *Importer) Import(r io.Reader) (*models.Report, error) {
	elements, err := parser.ParseSVG(r)
	if err != nil {
		return nil, fmt.Errorf("parse SVG: %w", err)
	}

	var walls, openings, columns []models.SVGElement
	for _, e := range elements {
		switch e.Kind {
		case models.KindWall:
			walls = append(walls, e)
		case models.KindDoor, models.KindWindow:
			openings = append(openings, e)
		case models.KindColumn:
			columns = append(columns, e)
		}
	}

	report := &models.Report{IDs: map[string]string{}, Skipped: []models.Skipped{}}

	builder := graph.NewBuilder(im.opts.Graph)
	if im.opts.FlipY {
		builder.SetTransform(func(p geom.Point2) geom.Point2 { return geom.Point2{X: p.X, Y: -p.Y} })
	}

	var placed []placedWall
	for _, line := range builder.Build(walls) {
		line = im.toMeters(line)
		thickness := line.Thickness
		if thickness <= 0 {
			thickness = im.opts.Thickness
		}
		id, err := im.kernel.CreateElement(kmodels.TypeWall, kmodels.WallParams{
			StartPoint: line.Start,
			EndPoint:   line.End,
			Thickness:  thickness,
			Height:     im.opts.WallHeight,
			TemplateID: im.opts.TemplateID,
		})
		if err != nil {
			im.skip(report, line.SourceID, err)
			continue
		}
		report.IDs[line.SourceID] = id
		report.Walls++
		placed = append(placed, placedWall{id: id, line: line})
	}

	for _, e := range openings {
		id, err := im.placeOpening(e, placed)
		if err != nil {
			im.skip(report, e.ID, err)
			continue
		}
		report.IDs[e.ID] = id
		report.Openings++
	}

	for _, e := range columns {
		id, err := im.placeColumn(e)
		if err != nil {
			im.skip(report, e.ID, err)
			continue
		}
		report.IDs[e.ID] = id
		report.Columns++
	}

	log.Printf("[IMPORT] walls=%d openings=%d columns=%d skipped=%d",
		report.Walls, report.Openings, report.Columns, len(report.Skipped))
	return report, nil
}

// placeOpening привязывает проем к ближайшей оси стены; позиция равна проекции
// центра проема, ширина равна длинной стороне габарита.
func (im *Importer) placeOpening(e models.SVGElement, walls []placedWall) (string, error) {
	center, long, _ := im.box(e)

	wall, dist, ok := nearestWall(center, walls)
	if !ok || dist > im.opts.MaxSnap {
		return "", fmt.Errorf("no wall within %.2fm", im.opts.MaxSnap)
	}

	seg := wall.line.Segment()
	position := seg.Project(center) * seg.Len()

	if e.Kind == models.KindDoor {
		return im.kernel.CreateElement(kmodels.TypeDoor, kmodels.DoorParams{
			WallID:   wall.id,
			Width:    long,
			Height:   im.opts.DoorHeight,
			Position: position,
		})
	}
	return im.kernel.CreateElement(kmodels.TypeWindow, kmodels.WindowParams{
		WallID:     wall.id,
		Width:      long,
		Height:     im.opts.WindowHeight,
		Position:   position,
		SillHeight: im.opts.WindowSill,
	})
}

func (im *Importer) placeColumn(e models.SVGElement) (string, error) {
	center, long, short := im.box(e)
	return im.kernel.CreateElement(kmodels.TypeColumn, kmodels.ColumnParams{
		Center: center,
		Width:  long,
		Depth:  short,
		Height: im.opts.WallHeight,
	})
}

// box: центр и стороны габарита элемента в метрах.
func (im *Importer) box(e models.SVGElement) (center geom.Point2, long, short float64) {
	points := e.Geometry.Outline()
	minX, minY := math.MaxFloat64, math.MaxFloat64
	maxX, maxY := -math.MaxFloat64, -math.MaxFloat64
	for _, p := range points {
		p = im.point(p)
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	w, h := maxX-minX, maxY-minY
	center = geom.Point2{X: minX + w/2, Y: minY + h/2}
	return center, math.Max(w, h), math.Min(w, h)
}

func (im *Importer) point(p geom.Point2) geom.Point2 {
	if im.opts.FlipY {
		p.Y = -p.Y
	}
	return p.Scale(im.opts.Scale)
}

func (im *Importer) toMeters(c models.Centerline) models.Centerline {
	c.Start = c.Start.Scale(im.opts.Scale)
	c.End = c.End.Scale(im.opts.Scale)
	c.Thickness *= im.opts.Scale
	return c
}

func (im *Importer) skip(report *models.Report, id string, err error) {
	log.Printf("[IMPORT] skip %s: %v", id, err)
	report.Skipped = append(report.Skipped, models.Skipped{SourceID: id, Reason: err.Error()})
}

func nearestWall(p geom.Point2, walls []placedWall) (placedWall, float64, bool) {
	var best placedWall
	minDist := math.MaxFloat64
	for _, w := range walls {
		if d := w.line.Segment().DistanceTo(p); d < minDist {
			minDist, best = d, w
		}
	}
	return best, minDist, minDist < math.MaxFloat64
}
