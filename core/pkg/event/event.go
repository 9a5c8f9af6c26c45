// Package event defines the vendor-neutral analytics event consumed by the
// translation core: a typed envelope plus an ordered property bag.
package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Type classifies the upstream call that produced an event.
type Type string

const (
	TypeTrack    Type = "track"
	TypeScreen   Type = "screen"
	TypeIdentify Type = "identify"
	TypeFlush    Type = "flush"
	TypeReset    Type = "reset"
)

// Event is one inbound analytics call. Translators treat it as read-only.
type Event struct {
	Type        Type      `json:"type"`
	Name        string    `json:"event,omitempty"`
	MessageID   string    `json:"messageId,omitempty"`
	UserID      string    `json:"userId,omitempty"`
	AnonymousID string    `json:"anonymousId,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	Properties  *Map      `json:"properties,omitempty"`
	Context     *Map      `json:"context,omitempty"`
}

// Validation errors.
var (
	ErrNilEvent    = errors.New("event is null")
	ErrMissingName = errors.New("event has no name")
)

// Validate reports problems that make e untranslatable: a nil event, or a
// track or screen event without a name.
func (e *Event) Validate() error {
	if e == nil {
		return ErrNilEvent
	}
	if e.Name == "" && (e.Type == TypeTrack || e.Type == TypeScreen) {
		return ErrMissingName
	}
	return nil
}

// Track returns a track event.
func Track(name string, props *Map) *Event {
	return &Event{Type: TypeTrack, Name: name, Properties: props}
}

// Screen returns a screen event.
func Screen(name string, props *Map) *Event {
	return &Event{Type: TypeScreen, Name: name, Properties: props}
}

// Identify returns an identify event for userID.
func Identify(userID string) *Event {
	return &Event{Type: TypeIdentify, UserID: userID}
}

// Props returns the property bag, never nil.
func (e *Event) Props() *Map {
	if e == nil || e.Properties == nil {
		return NewMap()
	}
	return e.Properties
}

// Root exposes the event's top-level fields as a map so absolute field
// paths (".anonymousId", ".context.library.name") can be walked the same
// way as properties. Empty fields are omitted.
func (e *Event) Root() *Map {
	root := NewMap()
	if e == nil {
		return root
	}
	if e.Type != "" {
		root.Set("type", String(string(e.Type)))
	}
	if e.Name != "" {
		root.Set("event", String(e.Name))
		root.Set("name", String(e.Name))
	}
	if e.MessageID != "" {
		root.Set("messageId", String(e.MessageID))
	}
	if e.UserID != "" {
		root.Set("userId", String(e.UserID))
	}
	if e.AnonymousID != "" {
		root.Set("anonymousId", String(e.AnonymousID))
	}
	if !e.Timestamp.IsZero() {
		root.Set("timestamp", String(e.Timestamp.UTC().Format(time.RFC3339Nano)))
	}
	if e.Context != nil {
		root.Set("context", MapValue(e.Context))
	}
	if e.Properties != nil {
		root.Set("properties", MapValue(e.Properties))
	}
	return root
}

// UnmarshalJSON accepts both "event" (track) and "name" (screen) for the
// event name.
func (e *Event) UnmarshalJSON(data []byte) error {
	type plain Event
	var aux struct {
		plain
		ScreenName string `json:"name"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	*e = Event(aux.plain)
	if e.Name == "" {
		e.Name = aux.ScreenName
	}
	if e.Type == "" {
		e.Type = TypeTrack
	}
	return nil
}
