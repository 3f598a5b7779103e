package events

// EventType represents the type of engine event
type EventType string

// Event type constants
const (
	EventTypeAbilityActivated EventType = "ability_activated"
	EventTypeTargetsSelected  EventType = "targets_selected"
	EventTypeTargetingEnded   EventType = "targeting_cancelled"
	EventTypeAttackResolved   EventType = "attack_resolved"

	EventTypeEffectApplied EventType = "effect_applied"
	EventTypeEffectRemoved EventType = "effect_removed"
	EventTypeEffectExpired EventType = "effect_expired"

	EventTypeCallbackFired   EventType = "callback_fired"
	EventTypeCallbackDropped EventType = "callback_dropped"

	EventTypeEntityRemoved EventType = "entity_removed"
	EventTypeTurnStarted   EventType = "turn_started"
)

// Priority levels for listener ordering; lower runs first
const (
	PriorityMechanics = 100
	PriorityFeedback  = 300
	PriorityLogging   = 500
)

// Event is a notification about something the engine did
type Event struct {
	Type      EventType
	ActorID   string
	TargetID  string
	AbilityID string
	Data      map[string]any
}

// NewEvent creates an event of the given type
func NewEvent(eventType EventType) *Event {
	return &Event{
		Type: eventType,
		Data: make(map[string]any),
	}
}

// WithActor sets the acting entity
func (e *Event) WithActor(id string) *Event {
	e.ActorID = id
	return e
}

// WithTarget sets the target entity
func (e *Event) WithTarget(id string) *Event {
	e.TargetID = id
	return e
}

// WithAbility sets the ability involved
func (e *Event) WithAbility(id string) *Event {
	e.AbilityID = id
	return e
}

// With attaches a data value
func (e *Event) With(key string, value any) *Event {
	if e.Data == nil {
		e.Data = make(map[string]any)
	}
	e.Data[key] = value
	return e
}
