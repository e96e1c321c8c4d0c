package service

import (
	"sync"
	"testing"
	"time"

	"github.com/tejashwikalptaru/songscope/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/songscope/internal/domain"
	"github.com/tejashwikalptaru/songscope/internal/logger"
)

// eventRecorder captures every event published on a bus.
type eventRecorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func newTestBus(t *testing.T) (*eventbus.SyncEventBus, *eventRecorder) {
	t.Helper()
	bus := eventbus.NewSyncEventBus(logger.NewTestLogger())
	rec := &eventRecorder{}
	bus.SubscribeAll(func(e domain.Event) {
		rec.mu.Lock()
		rec.events = append(rec.events, e)
		rec.mu.Unlock()
	})
	t.Cleanup(func() { _ = bus.Close() })
	return bus, rec
}

// ofType returns the recorded events of type et, in order.
func (r *eventRecorder) ofType(et domain.EventType) []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.Event
	for _, e := range r.events {
		if e.Type() == et {
			out = append(out, e)
		}
	}
	return out
}

func (r *eventRecorder) count(et domain.EventType) int {
	return len(r.ofType(et))
}

func (r *eventRecorder) reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

// waitFor polls until at least n events of type et were recorded.
func (r *eventRecorder) waitFor(t *testing.T, et domain.EventType, n int) []domain.Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if evs := r.ofType(et); len(evs) >= n {
			return evs
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d %s events, got %d", n, et, r.count(et))
	return nil
}
