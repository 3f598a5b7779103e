package events

import (
	"github.com/sirupsen/logrus"

	"github.com/KirkDiggler/rpg-ability-engine/internal/logger"
)

// AllEventTypes lists every event the engine emits
var AllEventTypes = []EventType{
	EventTypeAbilityActivated,
	EventTypeTargetsSelected,
	EventTypeTargetingEnded,
	EventTypeAttackResolved,
	EventTypeEffectApplied,
	EventTypeEffectRemoved,
	EventTypeEffectExpired,
	EventTypeCallbackFired,
	EventTypeCallbackDropped,
	EventTypeEntityRemoved,
	EventTypeTurnStarted,
}

// LogListener writes every event it sees to the combat log
type LogListener struct {
	log *logrus.Entry
}

// NewLogListener creates a listener logging through the host logger
func NewLogListener(log *logrus.Logger) *LogListener {
	return &LogListener{log: logger.Component(log, "combat_log")}
}

func (l *LogListener) ID() string    { return "combat_log" }
func (l *LogListener) Priority() int { return PriorityLogging }

// HandleEvent implements EventListener
func (l *LogListener) HandleEvent(event *Event) error {
	fields := logrus.Fields{"event": event.Type}
	if event.ActorID != "" {
		fields["actor_id"] = event.ActorID
	}
	if event.TargetID != "" {
		fields["target_id"] = event.TargetID
	}
	if event.AbilityID != "" {
		fields["ability_id"] = event.AbilityID
	}
	for k, v := range event.Data {
		fields[k] = v
	}

	l.log.WithFields(fields).Info("Combat event")
	return nil
}
