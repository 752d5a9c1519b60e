// Package scheduler сводит поток правок к одному проходу стыковки:
// флаг отложенной работы, окно тишины и не более одного прохода одновременно.
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const DefaultWindow = 300 * time.Millisecond
const DefaultMaxDelay = 2 * time.Second

// PassFunc выполняет один полный проход: обнаружение, разрешение, пересборка.
type PassFunc func(ctx context.Context) error

type Option func(*Scheduler)

func WithClock(c clockwork.Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithMaxDelay ограничивает, насколько поток запросов может откладывать проход.
func WithMaxDelay(d time.Duration) Option {
	return func(s *Scheduler) { s.maxDelay = d }
}

// WithWindow задает окно тишины; при 0 проход запускается на ближайшей точке Settle.
func WithWindow(d time.Duration) Option {
	return func(s *Scheduler) { s.window = d }
}

type Scheduler struct {
	mu           sync.Mutex
	pass         PassFunc
	clock        clockwork.Clock
	window       time.Duration
	maxDelay     time.Duration
	pending      bool
	running      bool
	idle         chan struct{} // закрывается по окончании текущего прохода
	lastRequest  time.Time
	firstRequest time.Time
	requests     int
	passes       int
}

func New(pass PassFunc, opts ...Option) *Scheduler {
	s := &Scheduler{
		pass:     pass,
		clock:    clockwork.NewRealClock(),
		window:   DefaultWindow,
		maxDelay: DefaultMaxDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Request помечает работу как отложенную и перезапускает окно тишины.
// Запрос во время прохода не прерывает его, а ставит следующий в очередь.
func (s *Scheduler) Request(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	if !s.pending {
		s.firstRequest = now
	}
	s.pending = true
	s.lastRequest = now
	s.requests++
	if reason != "" {
		log.Printf("[SCHEDULER] pass requested: %s", reason)
	}
}

func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Passes: число выполненных проходов.
func (s *Scheduler) Passes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.passes
}

// Settle запускает проход, если есть отложенная работа, окно тишины истекло
// и другой проход не выполняется. Возвращает true, если проход был выполнен.
func (s *Scheduler) Settle(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if !s.pending || s.running || !s.due() {
		s.mu.Unlock()
		return false, nil
	}
	s.begin()
	s.mu.Unlock()

	return true, s.run(ctx)
}

// Flush выполняет отложенный проход сразу, не дожидаясь окна тишины.
// Если проход уже идет, Flush ждет его окончания.
func (s *Scheduler) Flush(ctx context.Context) (bool, error) {
	for {
		s.mu.Lock()
		if s.running {
			idle := s.idle
			s.mu.Unlock()
			select {
			case <-idle:
				continue
			case <-ctx.Done():
				return false, ctx.Err()
			}
		}
		if !s.pending {
			s.mu.Unlock()
			return false, nil
		}
		s.begin()
		s.mu.Unlock()

		return true, s.run(ctx)
	}
}

// due: окно тишины истекло или запросы копятся дольше maxDelay. Под s.mu.
func (s *Scheduler) due() bool {
	now := s.clock.Now()
	if now.Sub(s.lastRequest) >= s.window {
		return true
	}
	return s.maxDelay > 0 && now.Sub(s.firstRequest) >= s.maxDelay
}

// begin вызывается под s.mu.
func (s *Scheduler) begin() {
	s.pending = false
	s.running = true
	s.idle = make(chan struct{})
	if s.requests > 1 {
		log.Printf("[SCHEDULER] coalesced %d requests into one pass", s.requests)
	}
	s.requests = 0
}

func (s *Scheduler) run(ctx context.Context) error {
	err := s.pass(ctx)

	s.mu.Lock()
	s.running = false
	s.passes++
	close(s.idle)
	s.mu.Unlock()

	if err != nil {
		log.Printf("[SCHEDULER] pass failed: %v", err)
	}
	return err
}
