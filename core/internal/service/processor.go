package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/telhawk-systems/mediabridge/common/logging"
	"github.com/telhawk-systems/mediabridge/core/internal/contextdata"
	"github.com/telhawk-systems/mediabridge/core/internal/dispatch"
	"github.com/telhawk-systems/mediabridge/core/internal/ecommerce"
	"github.com/telhawk-systems/mediabridge/core/internal/metrics"
	"github.com/telhawk-systems/mediabridge/core/internal/sink"
	"github.com/telhawk-systems/mediabridge/core/internal/video"
	"github.com/telhawk-systems/mediabridge/core/pkg/event"
)

// DefaultStreamKey is used for events that carry neither an anonymous nor a
// user id.
const DefaultStreamKey = "default"

// Components are the translation pieces a Processor is assembled from.
type Components struct {
	Mapper     *contextdata.Mapper
	Translator *ecommerce.Translator
	Actions    map[string]string
	VideoNames map[string]video.Kind
	Video      video.Options
}

// Processor translates events for many streams and captures basic telemetry.
// Each stream key gets its own video engine.
type Processor struct {
	backend    sink.Backend
	mapper     *contextdata.Mapper
	dispatcher *dispatch.Dispatcher
	videoOpts  video.Options
	logger     *logging.Logger

	mu      sync.Mutex
	engines map[string]*video.Engine

	startedAt time.Time
	processed atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
}

// NewProcessor creates a new Processor instance writing to backend.
func NewProcessor(backend sink.Backend, c Components, logger *logging.Logger) *Processor {
	logger = logging.OrDefault(logger)
	if c.Video.Logger == nil {
		c.Video.Logger = logger
	}
	p := &Processor{
		backend:   backend,
		mapper:    c.Mapper,
		videoOpts: c.Video,
		logger:    logger,
		engines:   make(map[string]*video.Engine),
		startedAt: time.Now().UTC(),
	}
	p.dispatcher = dispatch.New(backend, c.Mapper, c.Translator, p, dispatch.Options{
		Actions:    c.Actions,
		VideoNames: c.VideoNames,
		Logger:     logger,
	})
	return p
}

// StreamKey identifies the stream an event belongs to.
func StreamKey(ev *event.Event) string {
	switch {
	case ev.AnonymousID != "":
		return ev.AnonymousID
	case ev.UserID != "":
		return ev.UserID
	default:
		return DefaultStreamKey
	}
}

// Process translates one event and issues its backend calls.
func (p *Processor) Process(ctx context.Context, ev *event.Event) error {
	start := time.Now()
	ctx = logging.WithStreamKey(ctx, StreamKey(ev))
	if ev.MessageID != "" {
		ctx = logging.WithMessageID(ctx, ev.MessageID)
	}

	route, err := p.dispatcher.Dispatch(ctx, ev)
	metrics.TranslationDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		p.failed.Add(1)
		metrics.EventsTotal.WithLabelValues(string(route), "error").Inc()
		return fmt.Errorf("%s event %q: %w", ev.Type, ev.Name, err)
	}
	if route == dispatch.RouteDropped {
		p.dropped.Add(1)
		metrics.EventsTotal.WithLabelValues(string(route), "dropped").Inc()
		return nil
	}
	p.processed.Add(1)
	metrics.EventsTotal.WithLabelValues(string(route), "success").Inc()
	return nil
}

// Engine returns the video engine for streamKey, creating it on first use.
func (p *Processor) Engine(streamKey string) *video.Engine {
	p.mu.Lock()
	defer p.mu.Unlock()

	if e, ok := p.engines[streamKey]; ok {
		return e
	}
	e := video.NewEngine(p.backend, p.mapper, p.videoOpts)
	p.engines[streamKey] = e
	p.logger.Debug("Created video engine", logging.StreamKey(streamKey))
	return e
}

// Release drops the engine for streamKey unless a new session has already
// started on it.
func (p *Processor) Release(streamKey string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if e, ok := p.engines[streamKey]; ok && !e.Active() {
		delete(p.engines, streamKey)
	}
}

// PlaybackTime returns the current playhead of streamKey's session.
func (p *Processor) PlaybackTime(streamKey string) (int64, bool) {
	p.mu.Lock()
	e, ok := p.engines[streamKey]
	p.mu.Unlock()

	if !ok || !e.Active() {
		return 0, false
	}
	return e.CurrentPlaybackTime(), true
}

// Stats returns a snapshot of processor metrics.
type Stats struct {
	UptimeSeconds int64  `json:"uptime_seconds"`
	Processed     uint64 `json:"processed"`
	Failed        uint64 `json:"failed"`
	Dropped       uint64 `json:"dropped"`
	Streams       int    `json:"streams"`
}

// Health returns live status for health checks.
func (p *Processor) Health() Stats {
	p.mu.Lock()
	streams := len(p.engines)
	p.mu.Unlock()

	return Stats{
		UptimeSeconds: int64(time.Since(p.startedAt).Seconds()),
		Processed:     p.processed.Load(),
		Failed:        p.failed.Load(),
		Dropped:       p.dropped.Load(),
		Streams:       streams,
	}
}
