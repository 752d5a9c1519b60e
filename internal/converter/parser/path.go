package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"plan-kernel/internal/kernel/geom"
)

// ============================================================
// Path Parser
// ============================================================

var pathCommand = regexp.MustCompile(`([MmLlHhVvZz])([^MmLlHhVvZz]*)`)

// ParsePath разбирает прямолинейный SVG path (M, L, H, V, Z в обоих регистрах).
// Несколько пар координат после M/L считаются неявными LineTo.
func ParsePath(d string) ([]geom.Point2, error) {
	d = strings.TrimSpace(d)
	if d == "" {
		return nil, fmt.Errorf("empty path")
	}

	var points []geom.Point2
	var cur geom.Point2

	for _, match := range pathCommand.FindAllStringSubmatch(d, -1) {
		cmd := match[1]
		coords := parseCoords(match[2])

		switch cmd {
		case "M", "L":
			for i := 0; i+1 < len(coords); i += 2 {
				cur = geom.Point2{X: coords[i], Y: coords[i+1]}
				points = append(points, cur)
			}
		case "m", "l":
			for i := 0; i+1 < len(coords); i += 2 {
				cur = cur.Add(geom.Point2{X: coords[i], Y: coords[i+1]})
				points = append(points, cur)
			}
		case "H", "h", "V", "v":
			for _, c := range coords {
				switch cmd {
				case "H":
					cur.X = c
				case "h":
					cur.X += c
				case "V":
					cur.Y = c
				case "v":
					cur.Y += c
				}
				points = append(points, cur)
			}
		case "Z", "z":
			// Замыкаем путь, возвращаясь к первой точке
			if len(points) > 0 {
				cur = points[0]
				points = append(points, cur)
			}
		}
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("path %q has no points", d)
	}
	return points, nil
}

func parseCoords(s string) []float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	// Разделитель: запятая или пробел
	s = strings.ReplaceAll(s, ",", " ")
	parts := strings.Fields(s)

	coords := make([]float64, 0, len(parts))
	for _, part := range parts {
		if val, err := strconv.ParseFloat(part, 64); err == nil {
			coords = append(coords, val)
		}
	}
	return coords
}
