package video

import (
	"time"

	"github.com/google/uuid"
	"github.com/telhawk-systems/mediabridge/core/internal/sink"
)

// Clock supplies wall-clock readings to the engine.
type Clock interface {
	Now() time.Time
}

// SystemClock reads time.Now. Its readings carry Go's monotonic clock, so
// elapsed-time arithmetic is immune to wall-clock steps.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }

// Session is the state of one playback, from PlaybackStarted to
// PlaybackCompleted.
type Session struct {
	ID           string
	StartedAt    time.Time
	Position     int64
	PositionTime time.Time
	Paused       bool
	QoS          *sink.QoS
}

func newSession(now time.Time) *Session {
	return &Session{
		ID:           uuid.NewString(),
		StartedAt:    now,
		PositionTime: now,
	}
}

// Playhead returns the position in whole seconds at now. While playing, the
// seconds elapsed since PositionTime are added; time before PositionTime
// counts as zero so the playhead never moves backward.
func (s *Session) Playhead(now time.Time) int64 {
	if s.Paused {
		return s.Position
	}
	elapsed := now.Sub(s.PositionTime)
	if elapsed < 0 {
		elapsed = 0
	}
	return s.Position + int64(elapsed/time.Second)
}

func (s *Session) pause(now time.Time) {
	if s.Paused {
		return
	}
	s.Position = s.Playhead(now)
	s.PositionTime = now
	s.Paused = true
}

func (s *Session) unpause(now time.Time) {
	if !s.Paused {
		s.Position = s.Playhead(now)
	}
	s.PositionTime = now
	s.Paused = false
}

func (s *Session) seek(position int64, now time.Time) {
	s.Position = position
	s.PositionTime = now
}

func (s *Session) snapshot() Session {
	out := *s
	if s.QoS != nil {
		q := *s.QoS
		out.QoS = &q
	}
	return out
}
