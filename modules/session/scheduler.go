package session

import (
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

const (
	EmptyCleanupInterval   = 5 * time.Minute
	ExpiredCleanupInterval = 30 * time.Minute
)

// Scheduler - 세션 정리 작업 (빈 세션 5분, 만료 세션 30분)
type Scheduler struct {
	scheduler    gocron.Scheduler
	emptyEvery   time.Duration
	expiredEvery time.Duration
}

func NewScheduler(m *Manager) (*Scheduler, error) {
	return newScheduler(m, EmptyCleanupInterval, ExpiredCleanupInterval)
}

func newScheduler(m *Manager, emptyEvery, expiredEvery time.Duration) (*Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	jobs := []struct {
		name  string
		every time.Duration
		run   func() int
	}{
		{"cleanup-empty-sessions", emptyEvery, m.CleanupEmptySessions},
		{"cleanup-expired-sessions", expiredEvery, m.CleanupExpiredSessions},
	}
	for _, job := range jobs {
		_, err := s.NewJob(
			gocron.DurationJob(job.every),
			gocron.NewTask(func() { job.run() }),
			gocron.WithName(job.name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			_ = s.Shutdown()
			return nil, fmt.Errorf("failed to schedule %s: %w", job.name, err)
		}
	}

	return &Scheduler{scheduler: s, emptyEvery: emptyEvery, expiredEvery: expiredEvery}, nil
}

func (s *Scheduler) Start() {
	s.scheduler.Start()
	log.Printf("🔄 Started session cleanup jobs (Empty: %v, Expired: %v)", s.emptyEvery, s.expiredEvery)
}

func (s *Scheduler) Shutdown() error {
	if err := s.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}
	return nil
}
