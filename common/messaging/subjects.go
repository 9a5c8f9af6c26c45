package messaging

// Subject constants for the mediabridge message bus.
// Follow the pattern: {service}.{kind}.{resource}
const (
	// SubjectEventsInbound carries vendor-neutral analytics events, one JSON
	// document per message.
	SubjectEventsInbound = "mediabridge.events.inbound"

	// SubjectCallsPrefix prefixes outbound backend calls; the call method is
	// appended (mediabridge.calls.trackAction).
	SubjectCallsPrefix = "mediabridge.calls"
)

// Queue group names for load-balanced consumers.
const (
	QueueWorkers = "mediabridge-workers" // Pool of translation workers
)

// Header keys set on published messages.
const (
	HeaderCallID    = "Mb-Call-Id"
	HeaderStreamKey = "Mb-Stream-Key"
	HeaderMethod    = "Mb-Method"
)

// CallSubject returns the subject for an outbound call method.
// Example: mediabridge.calls.trackPlay
func CallSubject(method string) string {
	return SubjectCallsPrefix + "." + method
}
