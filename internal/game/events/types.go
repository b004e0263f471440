package events

import (
	"time"
)

// Event is anything published on the bus during a match
type Event interface {
	Type() string
	Timestamp() time.Time
	MatchID() string
}

// BaseEvent carries the fields every match event shares. Embed it to
// implement Event.
type BaseEvent struct {
	EventType string    `json:"type"`
	Time      time.Time `json:"timestamp"`
	Match     string    `json:"match_id"`
}

func newBase(eventType, matchID string) BaseEvent {
	return BaseEvent{EventType: eventType, Time: time.Now(), Match: matchID}
}

func (e BaseEvent) Type() string         { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }
func (e BaseEvent) MatchID() string      { return e.Match }

// EventHandler receives events of the type it was registered for
type EventHandler func(Event)

// Subscriber receives every event type it reports interest in
type Subscriber interface {
	ID() string
	HandleEvent(Event)
	InterestedIn(eventType string) bool
}

// Publisher is what a match needs to announce its progress
type Publisher interface {
	Publish(Event)
}

// Bus is a Publisher that subscribers can attach to
type Bus interface {
	Publisher
	Subscribe(Subscriber)
	Unsubscribe(subscriberID string)
	SubscribeFunc(eventType string, handler EventHandler) string
	UnsubscribeFunc(handlerID string)
}
