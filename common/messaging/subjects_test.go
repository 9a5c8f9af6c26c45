package messaging

import (
	"strings"
	"testing"
)

func TestSubjectConstants_FollowNamingConvention(t *testing.T) {
	// Subjects should follow the pattern: {service}.{kind}.{resource}
	subjects := []string{
		SubjectEventsInbound,
		CallSubject("trackAction"),
	}

	for _, subject := range subjects {
		parts := strings.Split(subject, ".")
		if len(parts) < 3 {
			t.Errorf("subject %q does not follow {service}.{kind}.{resource} pattern", subject)
		}
		if parts[0] != "mediabridge" {
			t.Errorf("subject %q should start with mediabridge.", subject)
		}
	}
}

func TestCallSubject(t *testing.T) {
	tests := []struct {
		method   string
		expected string
	}{
		{"trackAction", "mediabridge.calls.trackAction"},
		{"trackSessionStart", "mediabridge.calls.trackSessionStart"},
		{"flushQueue", "mediabridge.calls.flushQueue"},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			if got := CallSubject(tt.method); got != tt.expected {
				t.Errorf("CallSubject(%q) = %q, expected %q", tt.method, got, tt.expected)
			}
		})
	}
}

func TestQueueGroups_NoDots(t *testing.T) {
	// Queue group names must not contain dots (NATS convention)
	if strings.Contains(QueueWorkers, ".") {
		t.Errorf("queue group %q should not contain dots", QueueWorkers)
	}
}
