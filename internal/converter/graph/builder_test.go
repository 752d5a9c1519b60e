package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plan-kernel/internal/converter/models"
	"plan-kernel/internal/kernel/geom"
)

func rectWall(id string, x, y, w, h float64) models.SVGElement {
	return models.SVGElement{ID: id, Kind: models.KindWall, Geometry: models.RectGeometry{X: x, Y: y, Width: w, Height: h}}
}

func lineWall(id string, a, b geom.Point2) models.SVGElement {
	return models.SVGElement{ID: id, Kind: models.KindWall, Geometry: models.PathGeometry{Points: []geom.Point2{a, b}}}
}

func assertPoint(t *testing.T, want, got geom.Point2) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-9)
	assert.InDelta(t, want.Y, got.Y, 1e-9)
}

func TestCornerMeetsOnCenterlines(t *testing.T) {
	b := NewBuilder(Options{})
	lines := b.Build([]models.SVGElement{
		rectWall("Wall_1", 0, 0, 400, 20),
		rectWall("Wall_2", 390, 0, 20, 300),
	})
	require.Len(t, lines, 2)

	assert.Equal(t, "Wall_1", lines[0].SourceID)
	assertPoint(t, geom.Point2{X: 0, Y: 10}, lines[0].Start)
	assertPoint(t, geom.Point2{X: 400, Y: 10}, lines[0].End)
	assert.Equal(t, 20.0, lines[0].Thickness)

	assertPoint(t, geom.Point2{X: 400, Y: 10}, lines[1].Start)
	assertPoint(t, geom.Point2{X: 400, Y: 300}, lines[1].End)
	assert.Equal(t, lines[0].End, lines[1].Start, "corner ends share one point")
}

func TestStemIsExtendedToThroughWall(t *testing.T) {
	b := NewBuilder(Options{})
	lines := b.Build([]models.SVGElement{
		lineWall("Wall_a", geom.Point2{X: 0, Y: 0}, geom.Point2{X: 500, Y: 0}),
		lineWall("Wall_b", geom.Point2{X: 200, Y: 12}, geom.Point2{X: 200, Y: 300}),
	})
	require.Len(t, lines, 2)

	// Сквозная стена не меняется, примыкающая доведена до ее оси.
	assert.Equal(t, geom.Point2{X: 500, Y: 0}, lines[0].End)
	assert.InDelta(t, 0, lines[1].Start.Y, 1e-9)
	assert.InDelta(t, 200, lines[1].Start.X, 1e-9)
}

func TestFarWallsStayApart(t *testing.T) {
	b := NewBuilder(Options{})
	lines := b.Build([]models.SVGElement{
		lineWall("Wall_a", geom.Point2{X: 0, Y: 0}, geom.Point2{X: 100, Y: 0}),
		lineWall("Wall_b", geom.Point2{X: 200, Y: 50}, geom.Point2{X: 200, Y: 300}),
	})
	require.Len(t, lines, 2)
	assert.Equal(t, geom.Point2{X: 100, Y: 0}, lines[0].End)
	assert.Equal(t, geom.Point2{X: 200, Y: 50}, lines[1].Start)
}

func TestAxisSnapAndTransform(t *testing.T) {
	b := NewBuilder(Options{})
	b.SetTransform(func(p geom.Point2) geom.Point2 { return geom.Point2{X: p.X, Y: -p.Y} })
	lines := b.Build([]models.SVGElement{
		lineWall("Wall_a", geom.Point2{X: 0, Y: 0}, geom.Point2{X: 100, Y: 3}),
	})
	require.Len(t, lines, 1)
	assert.Equal(t, lines[0].Start.Y, lines[0].End.Y)
	assert.InDelta(t, -1.5, lines[0].Start.Y, 1e-12)
	assert.Zero(t, lines[0].Thickness)
}
