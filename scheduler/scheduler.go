package scheduler

import (
	"context"
	"sync"
	"time"
)

// Scheduler runs callbacks on timers: one-shot deadlines via At and fixed
// intervals via Every. Close cancels everything that has not fired yet and
// waits for in-flight callbacks to return.
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		ctx:    ctx,
		cancel: cancel,
	}
}

// At fires fn once at t. A deadline already in the past fires immediately.
func (s *Scheduler) At(t time.Time, fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		timer := time.NewTimer(time.Until(t))
		defer timer.Stop()

		select {
		case <-timer.C:
			fn(s.ctx)
		case <-s.ctx.Done():
		}
	}()
}

// Every fires fn on each tick until the scheduler is closed. The first run
// happens one interval after registration.
func (s *Scheduler) Every(interval time.Duration, fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				fn(s.ctx)
			case <-s.ctx.Done():
				return
			}
		}
	}()
}

func (s *Scheduler) Close() {
	s.cancel()
	s.wg.Wait()
}
