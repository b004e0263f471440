package events

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus(zerolog.Nop())

	received := false
	var receivedEvent Event

	bus.SubscribeFunc(TypeMatchStarted, func(e Event) {
		received = true
		receivedEvent = e
	})

	bus.Publish(NewMatchStartedEvent("test-match", "A", [2]string{"dqn_A", "heuristic"}, 7))

	assert.True(t, received, "Event handler should have been called")
	assert.NotNil(t, receivedEvent, "Event should have been received")
	assert.Equal(t, TypeMatchStarted, receivedEvent.Type())
	assert.Equal(t, "test-match", receivedEvent.MatchID())
	assert.False(t, receivedEvent.Timestamp().IsZero())
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	bus := NewEventBus(zerolog.Nop())

	handler1Called := false
	handler2Called := false

	id1 := bus.SubscribeFunc(TypeRoundFinished, func(e Event) {
		handler1Called = true
	})
	id2 := bus.SubscribeFunc(TypeRoundFinished, func(e Event) {
		handler2Called = true
	})

	bus.Publish(NewRoundFinishedEvent("test-match", 1, 0, [2]int{13, 12}, [2]int{2, 0}, 0))

	assert.True(t, handler1Called, "Handler 1 should have been called")
	assert.True(t, handler2Called, "Handler 2 should have been called")
	assert.NotEqual(t, id1, id2)
	assert.Equal(t, 2, bus.HandlerCount(TypeRoundFinished))
}

// TestSubscriber is a test implementation of Subscriber
type TestSubscriber struct {
	id              string
	interestedTypes map[string]bool
	receivedEvents  []Event
}

func (ts *TestSubscriber) ID() string {
	return ts.id
}

func (ts *TestSubscriber) HandleEvent(e Event) {
	ts.receivedEvents = append(ts.receivedEvents, e)
}

func (ts *TestSubscriber) InterestedIn(eventType string) bool {
	if ts.interestedTypes == nil {
		return true
	}
	return ts.interestedTypes[eventType]
}

func TestEventBusSubscriber(t *testing.T) {
	bus := NewEventBus(zerolog.Nop())

	subscriber := &TestSubscriber{
		id: "test-subscriber",
		interestedTypes: map[string]bool{
			TypeMatchStarted:  true,
			TypeMatchFinished: true,
		},
	}
	bus.Subscribe(subscriber)
	assert.Equal(t, 1, bus.SubscriberCount())

	bus.Publish(NewMatchStartedEvent("test-match", "A", [2]string{"a", "b"}, 7))
	bus.Publish(NewTurnPlayedEvent("test-match", 1, 0, "a", 3, 1, []int{2, 5, 6}, 13, false))
	bus.Publish(NewMatchFinishedEvent("test-match", [2]int{8, 6}, 0, time.Millisecond))

	// Should only receive MatchStarted and MatchFinished
	assert.Len(t, subscriber.receivedEvents, 2)
	assert.Equal(t, TypeMatchStarted, subscriber.receivedEvents[0].Type())
	assert.Equal(t, TypeMatchFinished, subscriber.receivedEvents[1].Type())

	bus.Unsubscribe(subscriber.ID())
	bus.Publish(NewMatchStartedEvent("test-match", "A", [2]string{"a", "b"}, 7))
	assert.Len(t, subscriber.receivedEvents, 2)
	assert.Equal(t, 0, bus.SubscriberCount())
}

type panickingSubscriber struct{}

func (panickingSubscriber) ID() string               { return "panics" }
func (panickingSubscriber) HandleEvent(Event)        { panic("boom") }
func (panickingSubscriber) InterestedIn(string) bool { return true }

func TestEventBusRecoversFromPanics(t *testing.T) {
	bus := NewEventBus(zerolog.Nop())
	bus.Subscribe(panickingSubscriber{})

	called := false
	bus.SubscribeFunc(TypeMatchFinished, func(Event) { panic("boom") })
	bus.SubscribeFunc(TypeMatchFinished, func(Event) { called = true })

	assert.NotPanics(t, func() {
		bus.Publish(NewMatchFinishedEvent("m", [2]int{7, 7}, -1, time.Second))
	})
	assert.True(t, called, "later handlers still run")
}

func TestEventBusUnsubscribeFunc(t *testing.T) {
	bus := NewEventBus(zerolog.Nop())

	calls := 0
	id := bus.SubscribeFunc(TypeTurnPlayed, func(Event) { calls++ })
	bus.Publish(NewTurnPlayedEvent("m", 1, 0, "a", 3, 0, []int{1, 2, 3}, 6, false))
	bus.UnsubscribeFunc(id)
	bus.Publish(NewTurnPlayedEvent("m", 1, 1, "b", 2, 0, []int{1, 2, 3}, 6, false))

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, bus.HandlerCount(TypeTurnPlayed))
	assert.Equal(t, map[string]int{TypeTurnPlayed: 2}, bus.Published())
}

func TestEventBusDeliversInSubscriptionOrder(t *testing.T) {
	bus := NewEventBus(zerolog.Nop())

	var order []string
	for _, id := range []string{"first", "second", "third"} {
		bus.Subscribe(&orderedSubscriber{id: id, order: &order})
	}
	// resubscribing moves a subscriber to the end
	bus.Subscribe(&orderedSubscriber{id: "first", order: &order})

	bus.Publish(NewMatchStartedEvent("m", "A", [2]string{"a", "b"}, 1))
	assert.Equal(t, []string{"second", "third", "first"}, order)
	assert.Equal(t, 3, bus.SubscriberCount())
}

func TestEventBusHandlerMaySubscribe(t *testing.T) {
	bus := NewEventBus(zerolog.Nop())

	late := 0
	bus.SubscribeFunc(TypeMatchStarted, func(Event) {
		bus.SubscribeFunc(TypeMatchFinished, func(Event) { late++ })
	})

	bus.Publish(NewMatchStartedEvent("m", "A", [2]string{"a", "b"}, 1))
	bus.Publish(NewMatchFinishedEvent("m", [2]int{2, 0}, 0, time.Millisecond))
	assert.Equal(t, 1, late)
}

type orderedSubscriber struct {
	id    string
	order *[]string
}

func (s *orderedSubscriber) ID() string               { return s.id }
func (s *orderedSubscriber) HandleEvent(Event)        { *s.order = append(*s.order, s.id) }
func (s *orderedSubscriber) InterestedIn(string) bool { return true }
