// Package service содержит фасад ядра: создание и правка стен, проемов и колонн,
// проход стыковки и снимки для внешних потребителей.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"plan-kernel/internal/kernel/catalog"
	"plan-kernel/internal/kernel/joinery"
	"plan-kernel/internal/kernel/junction"
	"plan-kernel/internal/kernel/scheduler"
	"plan-kernel/internal/kernel/store"
)

// ============================================================
// Options
// ============================================================

type Options struct {
	Tolerance      float64       // допуск детектора стыков, м
	Style          joinery.Style // стиль соединения по умолчанию
	Epsilon        float64       // заход butt, м
	OverlapEpsilon float64       // заход overlap, м
	Window         time.Duration // окно тишины планировщика
	MaxDelay       time.Duration
	Clock          clockwork.Clock
	Metrics        Metrics
}

// Metrics: наблюдение за проходами и операциями (реализация в пакете metrics).
type Metrics interface {
	ObservePass(result PassResult, elapsed time.Duration)
	ObserveOperation(op string, err error)
}

type noopMetrics struct{}

func (noopMetrics) ObservePass(PassResult, time.Duration) {}
func (noopMetrics) ObserveOperation(string, error)        {}

// ============================================================
// Kernel
// ============================================================

type Kernel struct {
	store   *store.Store
	catalog *catalog.Catalog
	sched   *scheduler.Scheduler
	opts    Options
	metrics Metrics
	clock   clockwork.Clock

	passMu sync.Mutex // проходы не пересекаются, даже ручные
	lastMu sync.RWMutex
	last   PassResult
}

func New(st *store.Store, cat *catalog.Catalog, opts Options) *Kernel {
	if opts.Tolerance <= 0 {
		opts.Tolerance = junction.DefaultTolerance
	}
	if opts.Style == "" {
		opts.Style = joinery.StyleAuto
	}
	if opts.Window <= 0 {
		opts.Window = scheduler.DefaultWindow
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = scheduler.DefaultMaxDelay
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Metrics == nil {
		opts.Metrics = noopMetrics{}
	}

	k := &Kernel{
		store:   st,
		catalog: cat,
		opts:    opts,
		metrics: opts.Metrics,
		clock:   opts.Clock,
	}
	k.sched = scheduler.New(k.scheduledPass,
		scheduler.WithClock(opts.Clock),
		scheduler.WithWindow(opts.Window),
		scheduler.WithMaxDelay(opts.MaxDelay),
	)
	return k
}

func (k *Kernel) Store() *store.Store             { return k.store }
func (k *Kernel) Catalog() *catalog.Catalog       { return k.catalog }
func (k *Kernel) Scheduler() *scheduler.Scheduler { return k.sched }

// Settle: проход по расписанию, если окно тишины истекло.
func (k *Kernel) Settle(ctx context.Context) (bool, error) {
	return k.sched.Settle(ctx)
}

// Flush: отложенный проход сразу («ближайшая точка успокоения»).
func (k *Kernel) Flush(ctx context.Context) (bool, error) {
	return k.sched.Flush(ctx)
}

func (k *Kernel) LastPass() PassResult {
	k.lastMu.RLock()
	defer k.lastMu.RUnlock()
	return k.last
}

func (k *Kernel) request(reason string) {
	k.sched.Request(reason)
}

func newID() string {
	return uuid.NewString()
}
