package tracking

import (
	"context"
	"log"
	"time"
)

const defaultSweepInterval = time.Minute

// Sweeper periodically evicts expired sessions from a Store.
type Sweeper struct {
	store    *Store
	interval time.Duration
	now      func() time.Time
}

func NewSweeper(store *Store, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &Sweeper{store: store, interval: interval, now: time.Now}
}

// WithClock replaces the time source used to judge expiry.
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// Run blocks until ctx is canceled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.store.SweepExpired(ctx, s.now()); removed > 0 {
				log.Printf("tracking sweep: removed %d expired sessions", removed)
			}
		}
	}
}
