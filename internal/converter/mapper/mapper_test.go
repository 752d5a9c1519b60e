package mapper

import (
	"context"
	"strings"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plan-kernel/internal/kernel/catalog"
	kmodels "plan-kernel/internal/kernel/models"
	"plan-kernel/internal/kernel/service"
	"plan-kernel/internal/kernel/store"
)

const planSVG = `<svg xmlns="http://www.w3.org/2000/svg">
  <rect id="Wall_1" x="0" y="0" width="400" height="20"/>
  <rect id="Wall_2" x="390" y="0" width="20" height="300"/>
  <rect id="Door_1" x="100" y="0" width="90" height="20"/>
  <rect id="Window_far" x="2000" y="2000" width="100" height="20"/>
  <rect id="Column_1" x="100" y="100" width="30" height="30"/>
</svg>`

func newKernel(t *testing.T) *service.Kernel {
	t.Helper()
	clock := clockwork.NewFakeClock()
	return service.New(store.New(clock), catalog.Default(), service.Options{Clock: clock})
}

func TestImportCreatesElementsThroughKernel(t *testing.T) {
	k := newKernel(t)
	im := NewImporter(k, ImportOptions{})

	report, err := im.Import(strings.NewReader(planSVG))
	require.NoError(t, err)

	assert.Equal(t, 2, report.Walls)
	assert.Equal(t, 1, report.Openings)
	assert.Equal(t, 1, report.Columns)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "Window_far", report.Skipped[0].SourceID)

	door, err := k.GetElement(report.IDs["Door_1"])
	require.NoError(t, err)
	dp, ok := door.Params.(kmodels.DoorParams)
	require.True(t, ok)
	assert.Equal(t, report.IDs["Wall_1"], dp.WallID)
	assert.InDelta(t, 1.45, dp.Position, 1e-9)
	assert.InDelta(t, 0.9, dp.Width, 1e-9)
	assert.InDelta(t, DefaultDoorHeight, dp.Height, 1e-12)

	wall, err := k.GetElement(report.IDs["Wall_2"])
	require.NoError(t, err)
	wp := wall.Params.(kmodels.WallParams)
	assert.InDelta(t, 4, wp.StartPoint.X, 1e-9)
	assert.InDelta(t, 0.1, wp.StartPoint.Y, 1e-9)
	assert.InDelta(t, 0.2, wp.Thickness, 1e-9)

	// Снапнутые концы дают угол для стыковки.
	res, err := k.RunJoinery(context.Background(), 0, "")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Resolved)
}

func TestImportRejectsBrokenSVG(t *testing.T) {
	im := NewImporter(newKernel(t), ImportOptions{})
	_, err := im.Import(strings.NewReader("<svg"))
	assert.Error(t, err)
}

func TestSceneFollowsStore(t *testing.T) {
	k := newKernel(t)
	scene := NewScene(0)
	k.Store().Subscribe(store.NewBackendObserver(scene))

	_, err := NewImporter(k, ImportOptions{}).Import(strings.NewReader(planSVG))
	require.NoError(t, err)
	assert.Equal(t, 3, scene.Len(), "two walls and a column")

	svg := scene.Render()
	assert.True(t, strings.HasPrefix(svg, `<?xml`))
	assert.Contains(t, svg, "-segment-", "wall with a door is drawn by its segments")
	assert.Contains(t, svg, "-column-")
	assert.True(t, strings.HasSuffix(svg, "</svg>"))

	rev := scene.Revision()
	require.NoError(t, scene.Remove("missing"))
	assert.Greater(t, scene.Revision(), rev)
}

func TestEmptySceneHasDefaultViewBox(t *testing.T) {
	svg := NewScene(100).Render()
	assert.Contains(t, svg, `viewBox="0 0 1000 1000"`)
}
