package checker

import (
	"context"
	"log"
	"sync"
	"time"
)

// Scheduler owns the recurring trigger for the expiry sweep. Timing is
// best-effort; the host may delay or coalesce firings, so the callback must
// be safe to run late or back to back.
type Scheduler interface {
	ScheduleRecurring(ctx context.Context, interval time.Duration, fn func(context.Context))
	Cancel()
}

// TickerScheduler is the in-process implementation for server deployments.
type TickerScheduler struct {
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewTickerScheduler() *TickerScheduler {
	return &TickerScheduler{stop: make(chan struct{})}
}

func (s *TickerScheduler) ScheduleRecurring(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Println("[Scheduler] recurring trigger stopped")
				return
			case <-s.stop:
				log.Println("[Scheduler] recurring trigger cancelled")
				return
			case <-ticker.C:
				fn(ctx)
			}
		}
	}()
}

// Cancel stops all recurring triggers and waits for in-flight callbacks.
func (s *TickerScheduler) Cancel() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.wg.Wait()
}
