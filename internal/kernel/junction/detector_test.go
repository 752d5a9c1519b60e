package junction

import (
	"math"
	"testing"

	"plan-kernel/internal/kernel/geom"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func w(id string, x1, y1, x2, y2 float64) Wall {
	return Wall{ID: id, Start: geom.Point2{X: x1, Y: y1}, End: geom.Point2{X: x2, Y: y2}, Thickness: 0.2}
}

func TestDetectLCorner(t *testing.T) {
	got := Detect([]Wall{w("A", 0, 0, 4, 0), w("B", 4, 0, 4, 3)}, Options{Tolerance: 0.1})

	require.Len(t, got, 1)
	j := got[0]
	assert.Equal(t, KindLCorner, j.Kind)
	assert.Equal(t, "A", j.WallA)
	assert.Equal(t, EndEnd, j.EndA)
	assert.Equal(t, "B", j.WallB)
	assert.Equal(t, EndStart, j.EndB)
	assert.InDelta(t, 4, j.Point.X, 1e-9)
	assert.InDelta(t, 0, j.Point.Y, 1e-9)
	assert.InDelta(t, math.Pi/2, j.Angle, 1e-9)
}

func TestDetectIsDeterministic(t *testing.T) {
	walls := []Wall{
		w("d", 0, 3, 0, 0),
		w("a", 0, 0, 4, 0),
		w("c", 4, 3, 0, 3),
		w("b", 4, 0, 4, 3),
		w("e", 2, 0, 2, 3),
	}
	first := Detect(walls, Options{})
	for i := 0; i < 5; i++ {
		walls[0], walls[len(walls)-1-i%len(walls)] = walls[len(walls)-1-i%len(walls)], walls[0]
		assert.Equal(t, first, Detect(walls, Options{}))
	}
}

func TestDetectKinds(t *testing.T) {
	cases := []struct {
		name string
		a, b Wall
		kind Kind
		endA End
		endB End
	}{
		{"T junction", w("a", 0, 0, 4, 0), w("b", 2, 0, 2, 3), KindTJunction, EndNone, EndStart},
		{"T with gap inside tolerance", w("a", 0, 0, 4, 0), w("b", 2, 0.08, 2, 3), KindTJunction, EndNone, EndStart},
		{"X intersection", w("a", 0, 0, 4, 0), w("b", 2, -2, 2, 2), KindXIntersection, EndNone, EndNone},
		{"angled corner", w("a", 0, 0, 4, 0), w("b", 4, 0, 6, 2), KindAngledCorner, EndEnd, EndStart},
		{"near straight corner", w("a", 0, 0, 4, 0), w("b", 4, 0, 8, 0.5), KindStraight, EndEnd, EndStart},
		{"collinear continuation", w("a", 0, 0, 4, 0), w("b", 4, 0, 7, 0), KindStraight, EndEnd, EndStart},
		{"corner with small overshoot", w("a", 0, 0, 4.03, 0), w("b", 4, -0.03, 4, 3), KindLCorner, EndEnd, EndStart},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			j, ok := DetectPair(tc.a, tc.b, Options{})
			require.True(t, ok)
			assert.Equal(t, tc.kind, j.Kind)
			assert.Equal(t, tc.endA, j.EndA)
			assert.Equal(t, tc.endB, j.EndB)
		})
	}
}

func TestDetectRejects(t *testing.T) {
	cases := []struct {
		name string
		a, b Wall
	}{
		{"parallel offset", w("a", 0, 0, 4, 0), w("b", 0, 1, 4, 1)},
		{"collinear apart", w("a", 0, 0, 4, 0), w("b", 5, 0, 7, 0)},
		{"lines cross far away", w("a", 0, 0, 4, 0), w("b", 6, 1, 6, 3)},
		{"gap beyond tolerance", w("a", 0, 0, 4, 0), w("b", 2, 0.5, 2, 3)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := DetectPair(tc.a, tc.b, Options{Tolerance: 0.2})
			assert.False(t, ok)
		})
	}
}

func TestPriorityOrder(t *testing.T) {
	bearing := w("z", 0, 0, 0, 3)
	bearing.LoadBearing = true

	walls := []Wall{
		w("a", 0, 3, 4, 3),
		w("b", 4, 3, 4, 0),
		w("m", 2, 3, 2, 1), // T к стене a
		bearing,
	}
	got := Detect(walls, Options{})
	require.Len(t, got, 3)

	// Угол с несущей стеной первым, затем обычный угол, T последним.
	assert.Equal(t, KindLCorner, got[0].Kind)
	assert.True(t, got[0].LoadBearing())
	assert.Equal(t, [2]string{"a", "z"}, [2]string{got[0].WallA, got[0].WallB})
	assert.Equal(t, KindLCorner, got[1].Kind)
	assert.Equal(t, [2]string{"a", "b"}, [2]string{got[1].WallA, got[1].WallB})
	assert.Equal(t, KindTJunction, got[2].Kind)
}
