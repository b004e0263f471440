package events

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

type funcHandler struct {
	id      string
	handler EventHandler
}

// EventBus delivers events synchronously, in subscription order. Handlers
// run outside the bus lock, so they may subscribe or unsubscribe; a handler
// that panics is logged and skipped.
type EventBus struct {
	mu          sync.RWMutex
	subscribers []Subscriber
	handlers    map[string][]funcHandler
	nextID      int
	published   map[string]int
	logger      zerolog.Logger
}

var _ Bus = (*EventBus)(nil)

// NewEventBus creates an empty bus
func NewEventBus(logger zerolog.Logger) *EventBus {
	return &EventBus{
		handlers:  make(map[string][]funcHandler),
		published: make(map[string]int),
		logger:    logger.With().Str("component", "event_bus").Logger(),
	}
}

// Subscribe attaches s, replacing any subscriber with the same ID
func (eb *EventBus) Subscribe(s Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.removeLocked(s.ID())
	eb.subscribers = append(eb.subscribers, s)
	eb.logger.Debug().Str("subscriber_id", s.ID()).Msg("Subscriber attached")
}

// Unsubscribe detaches the subscriber with the given ID
func (eb *EventBus) Unsubscribe(subscriberID string) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.removeLocked(subscriberID) {
		eb.logger.Debug().Str("subscriber_id", subscriberID).Msg("Subscriber detached")
	}
}

func (eb *EventBus) removeLocked(id string) bool {
	for i, s := range eb.subscribers {
		if s.ID() == id {
			eb.subscribers = append(eb.subscribers[:i], eb.subscribers[i+1:]...)
			return true
		}
	}
	return false
}

// SubscribeFunc registers handler for one event type and returns an ID for
// UnsubscribeFunc
func (eb *EventBus) SubscribeFunc(eventType string, handler EventHandler) string {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.nextID++
	id := fmt.Sprintf("%s#%d", eventType, eb.nextID)
	eb.handlers[eventType] = append(eb.handlers[eventType], funcHandler{id: id, handler: handler})
	return id
}

// UnsubscribeFunc removes a handler registered with SubscribeFunc
func (eb *EventBus) UnsubscribeFunc(handlerID string) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	for eventType, hs := range eb.handlers {
		for i, h := range hs {
			if h.id == handlerID {
				eb.handlers[eventType] = append(hs[:i:i], hs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers event to every interested subscriber, then to the
// handlers registered for its type
func (eb *EventBus) Publish(event Event) {
	eventType := event.Type()

	eb.mu.Lock()
	eb.published[eventType]++
	subs := make([]Subscriber, 0, len(eb.subscribers))
	for _, s := range eb.subscribers {
		if s.InterestedIn(eventType) {
			subs = append(subs, s)
		}
	}
	hs := append([]funcHandler(nil), eb.handlers[eventType]...)
	eb.mu.Unlock()

	for _, s := range subs {
		eb.deliver(s.ID(), event, s.HandleEvent)
	}
	for _, h := range hs {
		eb.deliver(h.id, event, h.handler)
	}
}

func (eb *EventBus) deliver(target string, event Event, fn EventHandler) {
	defer func() {
		if r := recover(); r != nil {
			eb.logger.Error().
				Str("target", target).
				Str("event_type", event.Type()).
				Str("match_id", event.MatchID()).
				Interface("panic", r).
				Msg("Event handler panicked")
		}
	}()
	fn(event)
}

// SubscriberCount returns the number of attached subscribers
func (eb *EventBus) SubscriberCount() int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.subscribers)
}

// HandlerCount returns the number of function handlers for eventType
func (eb *EventBus) HandlerCount(eventType string) int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.handlers[eventType])
}

// Published returns how many events of each type have been published
func (eb *EventBus) Published() map[string]int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	out := make(map[string]int, len(eb.published))
	for k, v := range eb.published {
		out[k] = v
	}
	return out
}
