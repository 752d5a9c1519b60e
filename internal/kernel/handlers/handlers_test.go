package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kerr "plan-kernel/internal/common/errors"
	"plan-kernel/internal/kernel/catalog"
	"plan-kernel/internal/kernel/models"
	"plan-kernel/internal/kernel/repository"
	"plan-kernel/internal/kernel/service"
	"plan-kernel/internal/kernel/store"
)

type envelope struct {
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result"`
	Error  *errorBody      `json:"error"`
}

type memPlans struct {
	mu    sync.Mutex
	plans map[string][]models.Snapshot
}

func (m *memPlans) SavePlan(_ context.Context, id, _ string, s []models.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans[id] = s
	return nil
}

func (m *memPlans) LoadPlan(_ context.Context, id string) ([]models.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.plans[id]
	if !ok {
		return nil, kerr.New(kerr.KindElementNotFound, "plan not found")
	}
	return s, nil
}

func (m *memPlans) ListPlans(context.Context) ([]repository.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []repository.Plan{}
	for id, s := range m.plans {
		out = append(out, repository.Plan{ID: id, Elements: len(s)})
	}
	return out, nil
}

func (m *memPlans) DeletePlan(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.plans, id)
	return nil
}

func newApp(t *testing.T, token string) (*fiber.App, *service.Kernel) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	k := service.New(store.New(clock), catalog.Default(), service.Options{Clock: clock})
	app := fiber.New()
	Register(app, k, &memPlans{plans: map[string][]models.Snapshot{}}, token)
	return app, k
}

func call(t *testing.T, app *fiber.App, method, path string, body any) (int, envelope) {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func wall(x1, y1, x2, y2 float64) fiber.Map {
	return fiber.Map{
		"startPoint": fiber.Map{"x": x1, "y": y1},
		"endPoint":   fiber.Map{"x": x2, "y": y2},
		"thickness":  0.2,
		"height":     2.7,
	}
}

func createWall(t *testing.T, app *fiber.App, body fiber.Map) models.Snapshot {
	t.Helper()
	status, env := call(t, app, http.MethodPost, "/tools/wall.create", body)
	require.Equal(t, http.StatusOK, status, "%+v", env.Error)
	var s models.Snapshot
	require.NoError(t, json.Unmarshal(env.Result, &s))
	return s
}

func TestWallCreateAndJoineryRun(t *testing.T) {
	app, _ := newApp(t, "")

	a := createWall(t, app, wall(0, 0, 4, 0))
	b := createWall(t, app, wall(4, 0, 4, 3))
	assert.Equal(t, models.TypeWall, a.Type)
	assert.InDelta(t, 3, b.DerivedLength, 1e-9)

	status, env := call(t, app, http.MethodPost, "/tools/joinery.run", fiber.Map{"tolerance": 0.1})
	require.Equal(t, http.StatusOK, status)
	var res service.PassResult
	require.NoError(t, json.Unmarshal(env.Result, &res))
	assert.Equal(t, 1, res.Resolved)
	require.Len(t, res.Junctions, 1)

	status, env = call(t, app, http.MethodGet, "/elements/"+b.ID, nil)
	require.Equal(t, http.StatusOK, status)
	var got models.Snapshot
	require.NoError(t, json.Unmarshal(env.Result, &got))
	assert.InDelta(t, 3.101, got.DerivedLength, 1e-9)
}

func TestErrorMapping(t *testing.T) {
	app, _ := newApp(t, "")
	w := createWall(t, app, wall(0, 0, 4, 0))

	tests := []struct {
		name   string
		path   string
		body   any
		status int
		code   kerr.Kind
	}{
		{"zero length", "/tools/wall.create", wall(1, 1, 1, 1), http.StatusUnprocessableEntity, kerr.KindInvalidGeometry},
		{"unknown template", "/tools/wall.create", fiber.Map{
			"startPoint": fiber.Map{"x": 0, "y": 0}, "endPoint": fiber.Map{"x": 1, "y": 0},
			"height": 2.7, "templateId": "nope",
		}, http.StatusNotFound, kerr.KindTemplateNotFound},
		{"missing wall", "/tools/wall.delete", fiber.Map{"id": "ghost"}, http.StatusNotFound, kerr.KindElementNotFound},
		{"door out of bounds", "/tools/door.place", fiber.Map{"wallId": w.ID, "positionAlongWall": 0.1}, http.StatusUnprocessableEntity, kerr.KindOpeningConflict},
		{"bad style", "/tools/joinery.run", fiber.Map{"jointStyle": "dovetail"}, http.StatusBadRequest, kerr.KindInvalidParams},
		{"unknown tool", "/tools/roof.create", fiber.Map{}, http.StatusBadRequest, kerr.KindInvalidParams},
		{"bad json", "/tools/wall.create", "not an object", http.StatusBadRequest, kerr.KindInvalidParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := call(t, app, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, status)
			assert.False(t, env.OK)
			require.NotNil(t, env.Error)
			assert.Equal(t, string(tt.code), env.Error.Code)
			assert.NotEmpty(t, env.Error.Hint)
		})
	}
}

func TestOpeningTools(t *testing.T) {
	app, k := newApp(t, "")
	w := createWall(t, app, wall(0, 0, 5, 0))

	status, env := call(t, app, http.MethodPost, "/tools/door.place", fiber.Map{"wallId": w.ID, "positionAlongWall": 1})
	require.Equal(t, http.StatusOK, status, "%+v", env.Error)
	var door models.Snapshot
	require.NoError(t, json.Unmarshal(env.Result, &door))
	assert.Equal(t, models.TypeDoor, door.Type)
	assert.InDelta(t, defaultDoorWidth, door.DerivedLength, 1e-12)

	status, env = call(t, app, http.MethodPost, "/tools/wall.cutOpening", fiber.Map{"wallId": w.ID, "positionAlongWall": 3.5})
	require.Equal(t, http.StatusOK, status, "%+v", env.Error)
	var cut models.Snapshot
	require.NoError(t, json.Unmarshal(env.Result, &cut))
	assert.InDelta(t, defaultCutWidth, cut.DerivedLength, 1e-12)

	// Пересекается с дверью.
	status, _ = call(t, app, http.MethodPost, "/tools/window.place", fiber.Map{"wallId": w.ID, "positionAlongWall": 1.2})
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	assert.Len(t, k.ListElements(service.Filter{WallID: w.ID}), 3)

	status, _ = call(t, app, http.MethodDelete, "/elements/"+door.ID, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, k.ListElements(service.Filter{WallID: w.ID}), 2)
}

func TestOpeningToolsDefaultToWallCenter(t *testing.T) {
	app, k := newApp(t, "")
	w := createWall(t, app, wall(0, 0, 4, 0))

	status, env := call(t, app, http.MethodPost, "/tools/door.place", fiber.Map{"wallId": w.ID, "width": 0.9})
	require.Equal(t, http.StatusOK, status, "%+v", env.Error)
	var door models.Snapshot
	require.NoError(t, json.Unmarshal(env.Result, &door))
	assert.InDelta(t, 2.0, door.Params.(models.DoorParams).Position, 1e-12)

	// Дверь занимает центр, поэтому второй проем по умолчанию конфликтует.
	status, env = call(t, app, http.MethodPost, "/tools/wall.cutOpening", fiber.Map{"wallId": w.ID, "width": 1.0, "height": 2.1})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, string(kerr.KindOpeningConflict), env.Error.Code)

	other := createWall(t, app, wall(0, 2, 6, 2))
	status, env = call(t, app, http.MethodPost, "/tools/wall.cutOpening", fiber.Map{"wallId": other.ID, "width": 1.0, "height": 2.1})
	require.Equal(t, http.StatusOK, status, "%+v", env.Error)
	var cut models.Snapshot
	require.NoError(t, json.Unmarshal(env.Result, &cut))
	assert.InDelta(t, 3.0, cut.Params.(models.DoorParams).Position, 1e-12)

	status, env = call(t, app, http.MethodPost, "/tools/window.place", fiber.Map{"wallId": other.ID, "width": 1.0, "positionAlongWall": 1})
	require.Equal(t, http.StatusOK, status, "%+v", env.Error)
	var window models.Snapshot
	require.NoError(t, json.Unmarshal(env.Result, &window))
	assert.InDelta(t, 1.0, window.Params.(models.WindowParams).Position, 1e-12)

	status, _ = call(t, app, http.MethodPost, "/tools/door.place", fiber.Map{"wallId": "missing", "width": 0.9})
	assert.Equal(t, http.StatusNotFound, status)

	assert.Len(t, k.ListElements(service.Filter{WallID: other.ID}), 3)
}

func TestMoveAndColumn(t *testing.T) {
	app, _ := newApp(t, "")

	status, env := call(t, app, http.MethodPost, "/tools/column.create", fiber.Map{
		"center": fiber.Map{"x": 1, "y": 1}, "width": 0.4, "depth": 0.4, "height": 3,
	})
	require.Equal(t, http.StatusOK, status, "%+v", env.Error)
	var col models.Snapshot
	require.NoError(t, json.Unmarshal(env.Result, &col))

	status, env = call(t, app, http.MethodPost, "/tools/transform.move", fiber.Map{"id": col.ID, "dx": 2, "dy": -1})
	require.Equal(t, http.StatusOK, status, "%+v", env.Error)
	var moved models.Snapshot
	require.NoError(t, json.Unmarshal(env.Result, &moved))
	require.Len(t, moved.DerivedEndpoints, 1)
	assert.InDelta(t, 3, moved.DerivedEndpoints[0].X, 1e-12)
	assert.InDelta(t, 0, moved.DerivedEndpoints[0].Y, 1e-12)
}

func TestListAndTemplates(t *testing.T) {
	app, _ := newApp(t, "")
	createWall(t, app, wall(0, 0, 4, 0))

	status, env := call(t, app, http.MethodGet, "/elements?type=wall", nil)
	require.Equal(t, http.StatusOK, status)
	var items []models.Snapshot
	require.NoError(t, json.Unmarshal(env.Result, &items))
	assert.Len(t, items, 1)

	status, env = call(t, app, http.MethodGet, "/elements?type=column", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, "[]", string(env.Result))

	status, env = call(t, app, http.MethodGet, "/templates", nil)
	require.Equal(t, http.StatusOK, status)
	var templates []catalog.WallTemplate
	require.NoError(t, json.Unmarshal(env.Result, &templates))
	assert.NotEmpty(t, templates)
}

func TestToolTokenGuardsMutations(t *testing.T) {
	app, _ := newApp(t, "s3cret")

	status, _ := call(t, app, http.MethodPost, "/tools/wall.create", wall(0, 0, 4, 0))
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = call(t, app, http.MethodGet, "/elements", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestPlanSaveAndLoad(t *testing.T) {
	app, k := newApp(t, "")
	createWall(t, app, wall(0, 0, 4, 0))
	createWall(t, app, wall(4, 0, 4, 3))

	status, env := call(t, app, http.MethodPost, "/plans/p1", fiber.Map{"name": "ground"})
	require.Equal(t, http.StatusOK, status, "%+v", env.Error)
	assert.False(t, k.Scheduler().Pending(), "save settles pending joinery first")

	// Заменяем состояние другим планом и загружаем сохраненный обратно.
	require.NoError(t, k.Import(nil, true))
	assert.Empty(t, k.ListElements(service.Filter{}))

	status, env = call(t, app, http.MethodGet, "/plans/p1", nil)
	require.Equal(t, http.StatusOK, status, "%+v", env.Error)
	walls := k.ListElements(service.Filter{Type: models.TypeWall})
	require.Len(t, walls, 2)

	status, _ = call(t, app, http.MethodGet, "/plans/missing", nil)
	assert.Equal(t, http.StatusNotFound, status)
}
