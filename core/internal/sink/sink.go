// Package sink defines the outbound call contract of the translation core
// and its implementations: an in-memory recorder and a broker publisher.
package sink

import (
	"context"

	"github.com/telhawk-systems/mediabridge/core/internal/contextdata"
)

// Sink receives generic analytics calls.
type Sink interface {
	TrackAction(ctx context.Context, name string, data *contextdata.Data) error
	TrackState(ctx context.Context, name string, data *contextdata.Data) error
	// SetUserIdentifier sets the visitor id; nil clears it.
	SetUserIdentifier(ctx context.Context, id *string) error
	FlushQueue(ctx context.Context) error
}

// MediaTracker receives heartbeat calls for one playback session at a time.
type MediaTracker interface {
	TrackSessionStart(ctx context.Context, media Media, data *contextdata.Data) error
	TrackSessionEnd(ctx context.Context) error
	TrackPlay(ctx context.Context) error
	TrackPause(ctx context.Context) error
	TrackComplete(ctx context.Context) error
	// TrackEvent reports a media event. obj is nil for events without a
	// descriptor.
	TrackEvent(ctx context.Context, ev MediaEvent, obj Descriptor, data *contextdata.Data) error
}

// Backend is a full backend client.
type Backend interface {
	Sink
	MediaTracker
}

// Method names an outbound call.
type Method string

const (
	MethodTrackAction       Method = "trackAction"
	MethodTrackState        Method = "trackState"
	MethodSetUserIdentifier Method = "setUserIdentifier"
	MethodFlushQueue        Method = "flushQueue"
	MethodSessionStart      Method = "trackSessionStart"
	MethodSessionEnd        Method = "trackSessionEnd"
	MethodPlay              Method = "trackPlay"
	MethodPause             Method = "trackPause"
	MethodComplete          Method = "trackComplete"
	MethodEvent             Method = "trackEvent"
)
