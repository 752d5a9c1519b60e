package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Ticker периодически вызывает Settle: «точка успокоения» для сервиса,
// у которого нет собственного цикла событий.
type Ticker struct {
	cron gocron.Scheduler
}

func NewTicker(s *Scheduler, interval time.Duration) (*Ticker, error) {
	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	_, err = cron.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if _, err := s.Settle(context.Background()); err != nil {
				log.Printf("[SCHEDULER] settle failed: %v", err)
			}
		}),
		gocron.WithName("joinery-settle"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = cron.Shutdown()
		return nil, fmt.Errorf("failed to create settle job: %w", err)
	}

	return &Ticker{cron: cron}, nil
}

func (t *Ticker) Start() {
	log.Println("[SCHEDULER] settle ticker started")
	t.cron.Start()
}

func (t *Ticker) Stop() error {
	log.Println("[SCHEDULER] settle ticker stopped")
	return t.cron.Shutdown()
}
