// Package metrics публикует счетчики проходов стыковки и операций ядра в Prometheus.
package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"

	kerr "plan-kernel/internal/common/errors"
	"plan-kernel/internal/kernel/service"
)

const namespace = "plan_kernel"

// Recorder реализует service.Metrics поверх Prometheus.
type Recorder struct {
	passDuration prom.Histogram
	passes       prom.Counter
	junctions    *prom.CounterVec
	conflicts    prom.Counter
	rebuilt      prom.Counter
	operations   *prom.CounterVec
}

var _ service.Metrics = (*Recorder)(nil)

// NewRecorder создает и регистрирует метрики в reg (при nil создается новый реестр).
func NewRecorder(reg *prom.Registry) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	r := &Recorder{
		passDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "joinery_pass_duration_seconds",
			Help:      "Duration of joinery passes (detect, resolve, rebuild)",
			Buckets:   prom.DefBuckets,
		}),
		passes: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "joinery_passes_total",
			Help:      "Completed joinery passes",
		}),
		junctions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "junctions_total",
			Help:      "Detected junctions by kind",
		}, []string{"kind"}),
		conflicts: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "joinery_conflicts_total",
			Help:      "Junctions skipped because an adjustment would invalidate a wall",
		}),
		rebuilt: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "walls_rebuilt_total",
			Help:      "Walls rebuilt by joinery passes",
		}),
		operations: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Kernel operations by name and result kind",
		}, []string{"op", "result"}),
	}
	reg.MustRegister(r.passDuration, r.passes, r.junctions, r.conflicts, r.rebuilt, r.operations)
	return r
}

func (r *Recorder) ObservePass(res service.PassResult, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.passes.Inc()
	r.passDuration.Observe(elapsed.Seconds())
	for _, j := range res.Junctions {
		r.junctions.WithLabelValues(string(j.Kind)).Inc()
	}
	r.conflicts.Add(float64(len(res.Conflicts)))
	r.rebuilt.Add(float64(res.Rebuilt))
}

// ObserveOperation считает операции; результат равен "ok" или виду ошибки ядра.
func (r *Recorder) ObserveOperation(op string, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = string(kerr.KindOf(err))
		if result == "" {
			result = "error"
		}
	}
	r.operations.WithLabelValues(op, result).Inc()
}

// HTTPHandler отдает метрики реестра в формате Prometheus.
func HTTPHandler(reg *prom.Registry) http.Handler {
	if reg == nil {
		reg = prom.DefaultRegisterer.(*prom.Registry)
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
