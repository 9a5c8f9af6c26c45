package logging

import (
	"log/slog"
	"time"
)

// Common field names for consistent logging across components.
const (
	FieldService    = "service"
	FieldStreamKey  = "stream_key"
	FieldMessageID  = "message_id"
	FieldEventName  = "event_name"
	FieldEventType  = "event_type"
	FieldSessionID  = "session_id"
	FieldAction     = "action"
	FieldPlayhead   = "playhead_s"
	FieldSubject    = "subject"
	FieldStatus     = "status"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldCount      = "count"
	FieldMediaEvent = "media_event"
)

// Service returns a slog attribute for the service name.
func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

// StreamKey returns a slog attribute for the per-user stream key.
func StreamKey(key string) slog.Attr {
	return slog.String(FieldStreamKey, key)
}

// MessageID returns a slog attribute for an inbound message id.
func MessageID(id string) slog.Attr {
	return slog.String(FieldMessageID, id)
}

// EventName returns a slog attribute for an analytics event name.
func EventName(name string) slog.Attr {
	return slog.String(FieldEventName, name)
}

// EventType returns a slog attribute for an analytics event type.
func EventType(typ string) slog.Attr {
	return slog.String(FieldEventType, typ)
}

// SessionID returns a slog attribute for a playback session id.
func SessionID(id string) slog.Attr {
	return slog.String(FieldSessionID, id)
}

// Action returns a slog attribute for a backend action name.
func Action(name string) slog.Attr {
	return slog.String(FieldAction, name)
}

// Playhead returns a slog attribute for a playhead position in seconds.
func Playhead(seconds int64) slog.Attr {
	return slog.Int64(FieldPlayhead, seconds)
}

// MediaEvent returns a slog attribute for a heartbeat media event.
func MediaEvent(name string) slog.Attr {
	return slog.String(FieldMediaEvent, name)
}

// Subject returns a slog attribute for a broker subject.
func Subject(subject string) slog.Attr {
	return slog.String(FieldSubject, subject)
}

// Status returns a slog attribute for an HTTP status code.
func Status(code int) slog.Attr {
	return slog.Int(FieldStatus, code)
}

// Duration returns a slog attribute for a duration in milliseconds.
func Duration(d time.Duration) slog.Attr {
	return slog.Int64(FieldDuration, d.Milliseconds())
}

// Count returns a slog attribute for a count.
func Count(n int) slog.Attr {
	return slog.Int(FieldCount, n)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(FieldError, "")
	}
	return slog.String(FieldError, err.Error())
}
