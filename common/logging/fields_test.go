package logging

import (
	"errors"
	"log/slog"
	"testing"
	"time"
)

func TestStringAttributes(t *testing.T) {
	tests := []struct {
		name string
		attr slog.Attr
		key  string
		want string
	}{
		{name: "service", attr: Service("mediabridge"), key: FieldService, want: "mediabridge"},
		{name: "stream key", attr: StreamKey("anon-1"), key: FieldStreamKey, want: "anon-1"},
		{name: "message id", attr: MessageID("m-1"), key: FieldMessageID, want: "m-1"},
		{name: "event name", attr: EventName("Order Completed"), key: FieldEventName, want: "Order Completed"},
		{name: "event type", attr: EventType("track"), key: FieldEventType, want: "track"},
		{name: "session id", attr: SessionID("s-1"), key: FieldSessionID, want: "s-1"},
		{name: "action", attr: Action("purchase"), key: FieldAction, want: "purchase"},
		{name: "media event", attr: MediaEvent("ChapterStart"), key: FieldMediaEvent, want: "ChapterStart"},
		{name: "subject", attr: Subject("mediabridge.events.inbound"), key: FieldSubject, want: "mediabridge.events.inbound"},
		{name: "error", attr: Error(errors.New("boom")), key: FieldError, want: "boom"},
		{name: "nil error", attr: Error(nil), key: FieldError, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.attr.Key != tt.key {
				t.Errorf("expected key %q, got %q", tt.key, tt.attr.Key)
			}
			if tt.attr.Value.String() != tt.want {
				t.Errorf("expected value %q, got %q", tt.want, tt.attr.Value.String())
			}
		})
	}
}

func TestNumericAttributes(t *testing.T) {
	if attr := Playhead(42); attr.Key != FieldPlayhead || attr.Value.Int64() != 42 {
		t.Errorf("unexpected playhead attr %v", attr)
	}
	if attr := Status(200); attr.Key != FieldStatus || attr.Value.Int64() != 200 {
		t.Errorf("unexpected status attr %v", attr)
	}
	if attr := Duration(1500 * time.Millisecond); attr.Key != FieldDuration || attr.Value.Int64() != 1500 {
		t.Errorf("unexpected duration attr %v", attr)
	}
	if attr := Count(3); attr.Key != FieldCount || attr.Value.Int64() != 3 {
		t.Errorf("unexpected count attr %v", attr)
	}
}
