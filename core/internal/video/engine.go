// Package video runs the playback session state machine: it turns sparse
// video lifecycle events into heartbeat calls and keeps a playhead that
// advances with wall-clock time between events.
package video

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/telhawk-systems/mediabridge/common/logging"
	"github.com/telhawk-systems/mediabridge/core/internal/contextdata"
	"github.com/telhawk-systems/mediabridge/core/internal/metrics"
	"github.com/telhawk-systems/mediabridge/core/internal/sink"
	"github.com/telhawk-systems/mediabridge/core/pkg/event"
)

var (
	// ErrNoSession is returned for any event other than PlaybackStarted
	// while no session is active.
	ErrNoSession = errors.New("no active video session")

	// ErrUnknownKind is returned for event names that are not video events.
	ErrUnknownKind = errors.New("unrecognized video event")
)

// Property keys read from video events.
const (
	PropTitle          = "title"
	PropAssetID        = "assetId"
	PropContentAssetID = "contentAssetId"
	PropTotalLength    = "totalLength"
	PropLivestream     = "livestream"
	PropPosition       = "position"
	PropSeekPosition   = "seekPosition"
	PropIndexPosition  = "indexPosition"
	PropStartTime      = "startTime"
	PropBitrate        = "bitrate"
	PropStartupTime    = "startupTime"
	PropFPS            = "fps"
	PropDroppedFrames  = "droppedFrames"
)

// Options configures an Engine. Zero values select the defaults.
type Options struct {
	Clock      Clock
	Metadata   MetadataTable
	AdMetadata MetadataTable
	Logger     *logging.Logger
}

// Engine owns at most one playback session and reports it to a
// MediaTracker. It is safe for concurrent use: event processing is
// serialized and playhead reads may run alongside it.
type Engine struct {
	tracker    sink.MediaTracker
	mapper     *contextdata.Mapper
	clock      Clock
	metadata   MetadataTable
	adMetadata MetadataTable
	logger     *logging.Logger

	mu      sync.RWMutex
	session *Session
}

// NewEngine creates an engine with no active session.
func NewEngine(tracker sink.MediaTracker, mapper *contextdata.Mapper, opts Options) *Engine {
	e := &Engine{
		tracker:    tracker,
		mapper:     mapper,
		clock:      opts.Clock,
		metadata:   opts.Metadata,
		adMetadata: opts.AdMetadata,
		logger:     logging.OrDefault(opts.Logger),
	}
	if e.clock == nil {
		e.clock = SystemClock{}
	}
	if e.metadata == nil {
		e.metadata = DefaultMetadata
	}
	if e.adMetadata == nil {
		e.adMetadata = DefaultAdMetadata
	}
	return e
}

// ProcessEvent classifies ev by its default name and processes it.
func (e *Engine) ProcessEvent(ctx context.Context, ev *event.Event) error {
	kind, ok := ParseKind(ev.Name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKind, ev.Name)
	}
	return e.Process(ctx, kind, ev)
}

// Process applies one lifecycle event. Every kind except PlaybackStarted
// requires an active session and fails with ErrNoSession otherwise.
func (e *Engine) Process(ctx context.Context, kind Kind, ev *event.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	metrics.VideoEvents.WithLabelValues(kind.String()).Inc()

	if kind == PlaybackStarted {
		return e.start(ctx, ev, now)
	}
	if e.session == nil {
		metrics.ProtocolViolations.Inc()
		return fmt.Errorf("%s: %w", kind, ErrNoSession)
	}

	s := e.session
	props := ev.Props()
	var err error

	switch kind {
	case PlaybackPaused:
		s.pause(now)
		err = e.tracker.TrackPause(ctx)

	case PlaybackResumed:
		s.unpause(now)
		err = e.tracker.TrackPlay(ctx)

	case ContentStarted:
		if pos, ok := intProp(props, PropPosition); ok && pos > 0 {
			s.seek(pos, now)
		}
		if err = e.tracker.TrackPlay(ctx); err != nil {
			break
		}
		data := e.metadataData(ev, e.metadata)
		err = e.tracker.TrackEvent(ctx, sink.ChapterStart, chapterFrom(props), data)

	case ContentCompleted:
		if err = e.tracker.TrackEvent(ctx, sink.ChapterComplete, nil, nil); err != nil {
			break
		}
		err = e.tracker.TrackComplete(ctx)

	case PlaybackCompleted:
		e.end()
		err = e.tracker.TrackSessionEnd(ctx)

	case BufferStarted:
		s.pause(now)
		err = e.tracker.TrackEvent(ctx, sink.BufferStart, nil, nil)

	case BufferCompleted:
		s.unpause(now)
		err = e.tracker.TrackEvent(ctx, sink.BufferComplete, nil, nil)

	case SeekStarted:
		s.pause(now)
		err = e.tracker.TrackEvent(ctx, sink.SeekStart, nil, nil)

	case SeekCompleted:
		pos, _ := intProp(props, PropSeekPosition)
		s.seek(pos, now)
		s.unpause(now)
		err = e.tracker.TrackEvent(ctx, sink.SeekComplete, nil, nil)

	case AdBreakStarted:
		err = e.tracker.TrackEvent(ctx, sink.AdBreakStart, adBreakFrom(props), nil)

	case AdBreakCompleted:
		err = e.tracker.TrackEvent(ctx, sink.AdBreakComplete, nil, nil)

	case AdStarted:
		data := e.metadataData(ev, e.adMetadata)
		err = e.tracker.TrackEvent(ctx, sink.AdStart, adFrom(props), data)

	case AdSkipped:
		err = e.tracker.TrackEvent(ctx, sink.AdSkip, nil, nil)

	case AdCompleted:
		err = e.tracker.TrackEvent(ctx, sink.AdComplete, nil, nil)

	case PlaybackInterrupted:
		s.pause(now)
		err = e.tracker.TrackPause(ctx)

	case QualityUpdated:
		q := qosFrom(props)
		s.QoS = &q

	default:
		return fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	if err != nil {
		return fmt.Errorf("%s: %w", kind, err)
	}

	e.logger.DebugContext(ctx, "video event processed",
		logging.EventName(kind.String()),
		logging.SessionID(s.ID),
		logging.Playhead(s.Playhead(now)))
	return nil
}

func (e *Engine) start(ctx context.Context, ev *event.Event, now time.Time) error {
	if e.session != nil {
		e.logger.WarnContext(ctx, "playback started during an active session; ending it",
			logging.SessionID(e.session.ID))
		e.end()
		if err := e.tracker.TrackSessionEnd(ctx); err != nil {
			return fmt.Errorf("%s: end previous session: %w", PlaybackStarted, err)
		}
	}

	e.session = newSession(now)
	metrics.ActiveSessions.Inc()

	data := e.metadataData(ev, e.metadata)
	if err := e.tracker.TrackSessionStart(ctx, mediaFrom(ev.Props()), data); err != nil {
		e.end()
		return fmt.Errorf("%s: %w", PlaybackStarted, err)
	}

	e.logger.DebugContext(ctx, "video session started", logging.SessionID(e.session.ID))
	return nil
}

func (e *Engine) end() {
	e.session = nil
	metrics.ActiveSessions.Dec()
}

// metadataData builds standard metadata from table followed by the mapped
// remaining properties. It returns nil when nothing was produced.
func (e *Engine) metadataData(ev *event.Event, table MetadataTable) *contextdata.Data {
	props := ev.Props()
	pool := props.Clone()
	data := contextdata.NewData()
	table.Apply(props, pool, data)

	if e.mapper != nil && props.Len() > 0 {
		e.mapper.MapFields(ev, pool).Map().Range(func(k string, v event.Value) bool {
			if !data.Has(k) {
				data.Set(k, v)
			}
			return true
		})
	}

	if data.Len() == 0 {
		return nil
	}
	return data
}

// CurrentPlaybackTime returns the playhead in seconds, or 0 without a
// session.
func (e *Engine) CurrentPlaybackTime() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.session == nil {
		return 0
	}
	return e.session.Playhead(e.clock.Now())
}

// QoS returns the last quality snapshot, or nil.
func (e *Engine) QoS() *sink.QoS {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.session == nil || e.session.QoS == nil {
		return nil
	}
	q := *e.session.QoS
	return &q
}

// Active reports whether a session is running.
func (e *Engine) Active() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.session != nil
}

// Session returns a copy of the active session.
func (e *Engine) Session() (Session, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.session == nil {
		return Session{}, false
	}
	return e.session.snapshot(), true
}
