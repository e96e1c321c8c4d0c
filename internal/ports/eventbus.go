// Package ports declares the boundaries between SongScope's services and
// the outside world: the event bus, the video catalog, the player widget,
// the language model, lyrics sources and preference storage.
package ports

import (
	"github.com/tejashwikalptaru/songscope/internal/domain"
)

// EventBus carries domain events from services to the presenter and to
// any diagnostics subscriber. Publishers never see their consumers.
//
//	id := bus.Subscribe(domain.EventAnalysisCompleted, func(ev domain.Event) {
//		done := ev.(domain.AnalysisCompletedEvent)
//		view.SetSong(done.Result.Song)
//	})
//	defer bus.Unsubscribe(id)
//
// Implementations must be safe for concurrent use.
type EventBus interface {
	// Publish hands event to every handler registered for its type and to
	// every catch-all handler. Handlers must return quickly.
	Publish(event domain.Event)

	// Subscribe registers handler for one event type. Registering the same
	// handler twice delivers twice.
	Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID

	// Unsubscribe is a no-op for unknown or already removed IDs.
	Unsubscribe(id domain.SubscriptionID)

	// SubscribeAll registers a handler that sees every event.
	SubscribeAll(handler domain.EventHandler) domain.SubscriptionID

	HasSubscribers(eventType domain.EventType) bool

	// Close drops all subscriptions. Publishing afterwards does nothing.
	Close() error
}

// EventFilter reports whether a subscriber wants event.
type EventFilter func(event domain.Event) bool

// FilteringEventBus is an EventBus that can pre-filter deliveries, for
// example to follow the stages of a single analysis run:
//
//	bus.SubscribeFiltered(domain.EventAnalysisStage, func(ev domain.Event) bool {
//		return ev.(domain.AnalysisStageEvent).RunID == runID
//	}, onStage)
type FilteringEventBus interface {
	EventBus
	SubscribeFiltered(eventType domain.EventType, filter EventFilter, handler domain.EventHandler) domain.SubscriptionID
}
