package bot

import (
	"context"
	"log"
	"time"

	"github.com/ritzzi23/clawfin/internal/session"
)

// Janitor periodically deletes completed sessions older than the TTL.
type Janitor struct {
	store    session.Store
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
	stopChan chan struct{}
	done     chan struct{}
	ticker   *time.Ticker
}

func NewJanitor(store session.Store, ttl time.Duration) *Janitor {
	return &Janitor{
		store:    store,
		ttl:      ttl,
		interval: time.Minute,
		now:      time.Now,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (j *Janitor) Start() {
	if j == nil {
		return
	}
	j.ticker = time.NewTicker(j.interval)
	go j.loop()
}

func (j *Janitor) Stop() {
	if j == nil || j.ticker == nil {
		return
	}
	close(j.stopChan)
	j.ticker.Stop()
	<-j.done
}

func (j *Janitor) loop() {
	defer close(j.done)
	ctx := context.Background()
	for {
		select {
		case <-j.ticker.C:
			j.tick(ctx)
		case <-j.stopChan:
			return
		}
	}
}

func (j *Janitor) tick(ctx context.Context) {
	n, err := j.store.PurgeCompleted(ctx, j.now().Add(-j.ttl))
	if err != nil {
		log.Printf("janitor: failed to purge sessions: %v", err)
		return
	}
	if n > 0 {
		log.Printf("janitor: purged %d completed sessions", n)
	}
}
