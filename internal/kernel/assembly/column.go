package assembly

import (
	"math"

	kerr "plan-kernel/internal/common/errors"
	"plan-kernel/internal/kernel/geom"
	"plan-kernel/internal/kernel/models"
)

// BuildColumn: колонна как одно тело и прямоугольный контур в плане.
func BuildColumn(c models.ColumnElement) (models.Geometry, error) {
	if !(c.Width > 0) || !(c.Depth > 0) || !(c.Height > 0) {
		return models.Geometry{}, kerr.New(kerr.KindInvalidGeometry, "column dimensions must be positive").
			With("width", c.Width).With("depth", c.Depth).With("height", c.Height)
	}

	dir := geom.Point2{X: math.Cos(c.Rotation), Y: math.Sin(c.Rotation)}
	u := dir.Scale(c.Width / 2)
	v := dir.Perp().Scale(c.Depth / 2)

	return models.Geometry{
		Solids: []models.Solid{{
			Name:     "column",
			Role:     models.RoleColumn,
			Center:   c.Center.Lift(c.Height / 2),
			Length:   c.Width,
			Height:   c.Height,
			Depth:    c.Depth,
			Rotation: c.Rotation,
		}},
		Outline: []models.Polyline{{
			Points: []geom.Point2{
				c.Center.Sub(u).Sub(v),
				c.Center.Add(u).Sub(v),
				c.Center.Add(u).Add(v),
				c.Center.Sub(u).Add(v),
			},
			Closed: true,
		}},
		EffectiveLength: c.Width,
		EffectiveStart:  c.Center.Sub(u),
		EffectiveEnd:    c.Center.Add(u),
		Center:          c.Center,
		Rotation:        c.Rotation,
		Thickness:       c.Depth,
	}, nil
}
