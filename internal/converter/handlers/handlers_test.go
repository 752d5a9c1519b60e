package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plan-kernel/internal/converter/mapper"
	"plan-kernel/internal/converter/models"
	"plan-kernel/internal/kernel/catalog"
	"plan-kernel/internal/kernel/service"
	"plan-kernel/internal/kernel/store"
)

const plan = `<svg xmlns="http://www.w3.org/2000/svg">
  <rect id="Wall_1" x="0" y="0" width="400" height="20"/>
  <rect id="Wall_2" x="390" y="0" width="20" height="300"/>
</svg>`

func newApp(t *testing.T) *fiber.App {
	t.Helper()
	clock := clockwork.NewFakeClock()
	k := service.New(store.New(clock), catalog.Default(), service.Options{Clock: clock})
	scene := mapper.NewScene(0)
	k.Store().Subscribe(store.NewBackendObserver(scene))

	app := fiber.New()
	app.Post("/convert", NewConvertHandler(mapper.NewImporter(k, mapper.ImportOptions{})).ConvertSVG)
	app.Get("/render", NewRenderHandler(scene).RenderSVG)
	return app
}

func decodeReport(t *testing.T, body io.Reader) models.Report {
	t.Helper()
	var env struct {
		OK     bool          `json:"ok"`
		Result models.Report `json:"result"`
	}
	require.NoError(t, json.NewDecoder(body).Decode(&env))
	require.True(t, env.OK)
	return env.Result
}

func TestConvertMultipartThenRender(t *testing.T) {
	app := newApp(t)

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", "plan.svg")
	require.NoError(t, err)
	_, err = part.Write([]byte(plan))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(fiber.MethodPost, "/convert", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, decodeReport(t, resp.Body).Walls)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/render", nil))
	require.NoError(t, err)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	svg, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(svg), "-outline-0")
}

func TestConvertRawBody(t *testing.T) {
	app := newApp(t)

	req := httptest.NewRequest(fiber.MethodPost, "/convert", strings.NewReader(plan))
	req.Header.Set("Content-Type", "image/svg+xml")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, decodeReport(t, resp.Body).Walls)
}

func TestConvertErrors(t *testing.T) {
	app := newApp(t)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/convert", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	req := httptest.NewRequest(fiber.MethodPost, "/convert", strings.NewReader("<svg"))
	req.Header.Set("Content-Type", "image/svg+xml")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}
