package events

import (
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/KirkDiggler/rpg-ability-engine/internal/logger"
)

// EventListener processes events
type EventListener interface {
	HandleEvent(event *Event) error
	Priority() int
	ID() string
}

// Bus manages event distribution
type Bus struct {
	listeners map[EventType][]EventListener
	mu        sync.RWMutex
	log       *logrus.Entry
}

// NewBus creates a new event bus
func NewBus(log *logrus.Logger) *Bus {
	return &Bus{
		listeners: make(map[EventType][]EventListener),
		log:       logger.Component(log, "event_bus"),
	}
}

// Subscribe adds a listener for specific event types
func (b *Bus) Subscribe(listener EventListener, eventTypes ...EventType) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, eventType := range eventTypes {
		b.listeners[eventType] = append(b.listeners[eventType], listener)

		sort.SliceStable(b.listeners[eventType], func(i, j int) bool {
			return b.listeners[eventType][i].Priority() < b.listeners[eventType][j].Priority()
		})

		b.log.WithFields(logrus.Fields{
			"listener": listener.ID(),
			"event":    eventType,
			"priority": listener.Priority(),
		}).Debug("Subscribed listener")
	}
}

// Unsubscribe removes a listener from an event type
func (b *Bus) Unsubscribe(eventType EventType, listenerID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	listeners := b.listeners[eventType]
	for i, l := range listeners {
		if l.ID() != listenerID {
			continue
		}
		b.listeners[eventType] = append(listeners[:i:i], listeners[i+1:]...)
		return
	}
}

// Emit sends an event to all registered listeners in priority order. Every
// listener runs; the first error is returned.
func (b *Bus) Emit(event *Event) error {
	if event == nil {
		return nil
	}

	b.mu.RLock()
	listeners := make([]EventListener, len(b.listeners[event.Type]))
	copy(listeners, b.listeners[event.Type])
	b.mu.RUnlock()

	var firstErr error
	for _, listener := range listeners {
		if err := listener.HandleEvent(event); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("listener %s failed: %w", listener.ID(), err)
		}
	}

	return firstErr
}

// Clear removes all listeners
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.listeners = make(map[EventType][]EventListener)
}

// ListenerFunc adapts a function into an EventListener
type ListenerFunc struct {
	Name  string
	Order int
	Fn    func(event *Event) error
}

func (l *ListenerFunc) HandleEvent(event *Event) error { return l.Fn(event) }
func (l *ListenerFunc) Priority() int                  { return l.Order }
func (l *ListenerFunc) ID() string                     { return l.Name }
