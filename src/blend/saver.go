package blend

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"heyeat/src/types"
)

const saverTimeout = 10 * time.Second

// Saver persists provider results in the background so responses are never
// delayed by, and never fail on, store writes. Enqueue never blocks: when the
// buffer is full the record is dropped and counted.
type Saver struct {
	store   types.Store
	ch      chan types.Restaurant
	done    chan struct{}
	dropped atomic.Int64
	failed  atomic.Int64
}

func NewSaver(store types.Store, buffer int) *Saver {
	s := &Saver{
		store: store,
		ch:    make(chan types.Restaurant, buffer),
		done:  make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Saver) run() {
	defer close(s.done)
	for r := range s.ch {
		ctx, cancel := context.WithTimeout(context.Background(), saverTimeout)
		if err := s.store.Upsert(ctx, r); err != nil {
			s.failed.Add(1)
			log.Printf("saver: upserting %s failed: %v", r.PlaceID, err)
		}
		cancel()
	}
}

// Enqueue submits a record for a best-effort save. Safe on a nil Saver, which
// is what the orchestrator holds when no store is configured.
func (s *Saver) Enqueue(r types.Restaurant) {
	if s == nil {
		return
	}
	select {
	case s.ch <- r:
	default:
		s.dropped.Add(1)
		log.Printf("saver: queue full, dropping %s", r.PlaceID)
	}
}

// Close drains the queue and stops the worker.
func (s *Saver) Close() {
	if s == nil {
		return
	}
	close(s.ch)
	<-s.done
}

func (s *Saver) Dropped() int64 { return s.dropped.Load() }
func (s *Saver) Failed() int64  { return s.failed.Load() }
