package parser

import (
	"encoding/xml"
	"io"
	"log"
	"strings"

	"plan-kernel/internal/converter/models"
	"plan-kernel/internal/kernel/geom"
)

// ============================================================
// XML Structures
// ============================================================

type SVG struct {
	XMLName xml.Name `xml:"svg"`
	Group
}

// Group: <g>; вложенность произвольная.
type Group struct {
	ID     string  `xml:"id,attr"`
	Rects  []Rect  `xml:"rect"`
	Paths  []Path  `xml:"path"`
	Groups []Group `xml:"g"`
}

type Rect struct {
	ID     string  `xml:"id,attr"`
	X      float64 `xml:"x,attr"`
	Y      float64 `xml:"y,attr"`
	Width  float64 `xml:"width,attr"`
	Height float64 `xml:"height,attr"`
}

type Path struct {
	ID string `xml:"id,attr"`
	D  string `xml:"d,attr"`
}

// ============================================================
// Parser
// ============================================================

// ParseSVG возвращает стены, двери, окна и колонны. Остальное пропускается.
func ParseSVG(r io.Reader) ([]models.SVGElement, error) {
	var svg SVG
	decoder := xml.NewDecoder(r)
	if err := decoder.Decode(&svg); err != nil {
		return nil, err
	}

	var elements []models.SVGElement
	collect(svg.Group, &elements)
	return elements, nil
}

func collect(g Group, out *[]models.SVGElement) {
	for _, rect := range g.Rects {
		kind := classifyElementByID(rect.ID)
		if kind == "" {
			continue
		}
		*out = append(*out, models.SVGElement{
			ID:   rect.ID,
			Kind: kind,
			Geometry: models.RectGeometry{
				X:      rect.X,
				Y:      rect.Y,
				Width:  rect.Width,
				Height: rect.Height,
			},
		})
	}

	for _, path := range g.Paths {
		kind := classifyElementByID(path.ID)
		if kind == "" {
			continue
		}
		points, err := ParsePath(path.D)
		if err != nil || len(points) < 2 {
			log.Printf("[IMPORT] skip path %s: %v", path.ID, err)
			continue
		}
		*out = append(*out, models.SVGElement{
			ID:       path.ID,
			Kind:     kind,
			Geometry: models.PathGeometry{D: path.D, Points: dropClosing(points)},
		})
	}

	for _, child := range g.Groups {
		collect(child, out)
	}
}

func classifyElementByID(id string) models.Kind {
	switch {
	case strings.HasPrefix(id, "Wall_"):
		return models.KindWall
	case strings.HasPrefix(id, "Door_"):
		return models.KindDoor
	case strings.HasPrefix(id, "Window_"):
		return models.KindWindow
	case strings.HasPrefix(id, "Column_"):
		return models.KindColumn
	}
	return ""
}

func dropClosing(points []geom.Point2) []geom.Point2 {
	if len(points) > 2 && points[0] == points[len(points)-1] {
		return points[:len(points)-1]
	}
	return points
}
