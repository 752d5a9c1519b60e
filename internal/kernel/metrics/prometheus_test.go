package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kerr "plan-kernel/internal/common/errors"
	"plan-kernel/internal/kernel/joinery"
	"plan-kernel/internal/kernel/junction"
	"plan-kernel/internal/kernel/service"
)

func TestRecorderGathers(t *testing.T) {
	reg := prom.NewRegistry()
	r := NewRecorder(reg)

	r.ObservePass(service.PassResult{
		Junctions: []junction.Junction{{Kind: junction.KindLCorner}, {Kind: junction.KindTJunction}},
		Conflicts: []joinery.Conflict{{WallID: "w"}},
		Rebuilt:   2,
	}, 15*time.Millisecond)
	r.ObserveOperation("wall.create", nil)
	r.ObserveOperation("wall.create", kerr.New(kerr.KindInvalidGeometry, "bad"))
	r.ObserveOperation("wall.create", errors.New("plain"))

	mfs, err := reg.Gather()
	require.NoError(t, err)

	byName := map[string]float64{}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			if c := m.GetCounter(); c != nil {
				byName[mf.GetName()] += c.GetValue()
			}
		}
	}
	assert.Equal(t, 1.0, byName["plan_kernel_joinery_passes_total"])
	assert.Equal(t, 2.0, byName["plan_kernel_junctions_total"])
	assert.Equal(t, 1.0, byName["plan_kernel_joinery_conflicts_total"])
	assert.Equal(t, 2.0, byName["plan_kernel_walls_rebuilt_total"])
	assert.Equal(t, 3.0, byName["plan_kernel_operations_total"])
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.ObservePass(service.PassResult{}, time.Second)
		r.ObserveOperation("x", nil)
	})
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	r := NewRecorder(reg)
	r.ObserveOperation("wall.delete", nil)

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "plan_kernel_operations_total"))
}
