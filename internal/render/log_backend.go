package render

import (
	"github.com/sirupsen/logrus"

	"github.com/KirkDiggler/rpg-ability-engine/internal/logger"
)

// LogBackend is a headless Backend and SoundPlayer that writes playback to
// the log
type LogBackend struct {
	log *logrus.Entry
}

// NewLogBackend creates a headless backend
func NewLogBackend(log *logrus.Logger) *LogBackend {
	return &LogBackend{log: logger.Component(log, "render")}
}

// Play implements Backend
func (b *LogBackend) Play(gen *ParticleGenerator) error {
	b.log.WithFields(logrus.Fields{
		"generator_id": gen.ID(),
		"owner_id":     gen.OwnerID(),
		"duration":     gen.Duration,
		"sprite":       gen.Sprite,
		"x":            gen.Position.X,
		"y":            gen.Position.Y,
	}).Debug("Playing particles")
	return nil
}

// Stop implements Backend
func (b *LogBackend) Stop(id string) error {
	b.log.WithField("generator_id", id).Debug("Stopping particles")
	return nil
}

// Sounds returns the backend as a SoundPlayer
func (b *LogBackend) Sounds() SoundPlayer {
	return logSound{b}
}

type logSound struct {
	b *LogBackend
}

func (s logSound) Play(id string) error {
	s.b.log.WithField("sound", id).Debug("Playing sound")
	return nil
}
