package opening

import (
	"testing"

	kerr "plan-kernel/internal/common/errors"
	"plan-kernel/internal/kernel/geom"
	"plan-kernel/internal/kernel/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func door(id string, pos, width float64) models.Opening {
	return models.Opening{ID: id, Type: models.OpeningDoor, Width: width, Height: 2.1, Position: pos}
}

func TestSplitSingleCenteredOpening(t *testing.T) {
	segs := Split(3.0, 0, []models.Opening{door("d1", 1.5, 0.9)})

	require.Len(t, segs, 3)
	assert.True(t, segs[0].Solid)
	assert.InDelta(t, 1.05, segs[0].Len(), 1e-12)
	assert.Equal(t, "d1", segs[1].OpeningID)
	assert.True(t, segs[2].Solid)
	assert.InDelta(t, 1.05, segs[2].Len(), 1e-12)
	assert.InDelta(t, 2.1, SolidLength(segs), 1e-12)
}

func TestSplitRoundTripProperty(t *testing.T) {
	cases := []struct{ length, pos, width float64 }{
		{3, 1.5, 0.9},
		{5.2, 0.6, 1.1},
		{4, 3.4, 1.0},
		{10, 7.77, 2.4},
	}
	for _, tc := range cases {
		segs := Split(tc.length, 0, []models.Opening{door("o", tc.pos, tc.width)})
		assert.InDelta(t, tc.length-tc.width, SolidLength(segs), MinSegment)
	}
}

func TestSplitSkipsSliversAndSortsOpenings(t *testing.T) {
	openings := []models.Opening{
		door("b", 2.5, 1.0),
		door("a", 0.455, 0.9), // левый край в 5 мм от начала стены
	}
	segs := Split(4, 0, openings)

	// Участок 0..0.005 короче минимума и не создается.
	require.Len(t, segs, 4)
	assert.Equal(t, "a", segs[0].OpeningID)
	assert.True(t, segs[1].Solid)
	assert.InDelta(t, 0.905, segs[1].Start, 1e-12)
	assert.InDelta(t, 2.0, segs[1].End, 1e-12)
	assert.Equal(t, "b", segs[2].OpeningID)
	assert.True(t, segs[3].Solid)
	assert.InDelta(t, 3.0, segs[3].Start, 1e-12)
	assert.InDelta(t, 4.0, segs[3].End, 1e-12)
}

func TestSplitShiftsByStartAdjustment(t *testing.T) {
	// Стена удлинена в начале на 0.1: проем смещается вправо в локальных координатах.
	segs := Split(3.1, -0.1, []models.Opening{door("d", 1.5, 1.0)})

	require.Len(t, segs, 3)
	assert.InDelta(t, 1.1, segs[0].Len(), 1e-12)
	assert.InDelta(t, 1.1, segs[1].Start, 1e-12)
	assert.InDelta(t, 2.1, segs[1].End, 1e-12)
}

func TestValidateRejectsOutOfBounds(t *testing.T) {
	err := Validate(door("d", 0.3, 0.9), 3, 2.7, nil)
	require.Error(t, err)
	assert.True(t, kerr.IsKind(err, kerr.KindOpeningConflict))

	err = Validate(door("d", 2.7, 0.9), 3, 2.7, nil)
	assert.True(t, kerr.IsKind(err, kerr.KindOpeningConflict))

	tall := door("d", 1.5, 0.9)
	tall.Height = 3
	err = Validate(tall, 3, 2.7, nil)
	assert.True(t, kerr.IsKind(err, kerr.KindOpeningConflict))

	assert.NoError(t, Validate(door("d", 0.45, 0.9), 3, 2.7, nil))
}

func TestValidateOverlap(t *testing.T) {
	existing := []models.Opening{door("d1", 1.0, 0.9)}

	err := Validate(door("d2", 1.5, 0.9), 4, 2.7, existing)
	require.Error(t, err)
	var ke *kerr.Error
	require.ErrorAs(t, err, &ke)
	assert.Equal(t, kerr.KindOpeningConflict, ke.Kind)
	assert.Equal(t, "d1", ke.Context["conflictsWith"])
	assert.InDelta(t, 0.4, ke.Context["overlap"].(float64), 1e-12)

	// Окно над дверью: горизонтально пересекаются, вертикально нет.
	high := models.Opening{ID: "w1", Type: models.OpeningWindow, Width: 0.9, Height: 0.3, Position: 1.0, OffsetFromFloor: 2.2}
	assert.NoError(t, Validate(high, 4, 2.7, existing))

	// Касание краями: не конфликт.
	assert.NoError(t, Validate(door("d3", 1.9, 0.9), 4, 2.7, existing))
}

func TestValidateRejectsBadSizes(t *testing.T) {
	err := Validate(models.Opening{ID: "x", Type: models.OpeningDoor, Width: 0, Height: 2, Position: 1}, 3, 2.7, nil)
	assert.True(t, kerr.IsKind(err, kerr.KindInvalidGeometry))

	err = Validate(models.Opening{ID: "x", Type: "hatch", Width: 1, Height: 1, Position: 1}, 3, 2.7, nil)
	assert.True(t, kerr.IsKind(err, kerr.KindInvalidParams))
}

func TestApplyBuildsSegmentsInfillAndFrame(t *testing.T) {
	f := Frame{
		Start:     geom.Point2{X: 0, Y: 0},
		Direction: geom.Point2{X: 1, Y: 0},
		Height:    2.7,
		Thickness: 0.2,
	}
	win := models.Opening{ID: "w", Type: models.OpeningWindow, Width: 1.2, Height: 1.4, Position: 1.5, OffsetFromFloor: 0.9, FrameDepth: 0.06}

	segs, solids := Apply(f, 3, []models.Opening{win})
	require.Len(t, segs, 3)

	roles := map[string]int{}
	for _, s := range solids {
		roles[s.Role]++
		assert.InDelta(t, 0.2, s.Depth, 1e-12)
	}
	assert.Equal(t, 2, roles[models.RoleSegment])
	assert.Equal(t, 2, roles[models.RoleInfill])
	assert.Equal(t, 2, roles[models.RoleJamb])
	assert.Equal(t, 1, roles[models.RoleHead])
	assert.Equal(t, 1, roles[models.RoleSill])

	first := solids[0]
	assert.InDelta(t, 0.45, first.Center.X, 1e-12)
	assert.InDelta(t, 1.35, first.Center.Y, 1e-12)
	assert.InDelta(t, 0.9, first.Length, 1e-12)
}

func TestApplyDoorHasNoSill(t *testing.T) {
	f := Frame{Direction: geom.Point2{X: 1}, Height: 2.7, Thickness: 0.2}
	d := door("d", 1.5, 0.9)
	d.FrameDepth = 0.05

	_, solids := Apply(f, 3, []models.Opening{d})
	for _, s := range solids {
		assert.NotEqual(t, models.RoleSill, s.Role)
	}
}
