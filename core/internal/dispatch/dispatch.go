// Package dispatch routes each inbound event to the backend call, commerce
// translation or video session it belongs to.
package dispatch

import (
	"context"
	"fmt"

	"github.com/telhawk-systems/mediabridge/common/logging"
	"github.com/telhawk-systems/mediabridge/core/internal/contextdata"
	"github.com/telhawk-systems/mediabridge/core/internal/ecommerce"
	"github.com/telhawk-systems/mediabridge/core/internal/sink"
	"github.com/telhawk-systems/mediabridge/core/internal/video"
	"github.com/telhawk-systems/mediabridge/core/pkg/event"
)

// Route names the path an event took.
type Route string

const (
	RouteIdentify Route = "identify"
	RouteReset    Route = "reset"
	RouteFlush    Route = "flush"
	RouteScreen   Route = "screen"
	RouteVideo    Route = "video"
	RouteCommerce Route = "commerce"
	RouteAction   Route = "action"
	RouteDropped  Route = "dropped"
)

// Engines hands out the video engine owning a stream's session.
type Engines interface {
	Engine(streamKey string) *video.Engine
	// Release is called once the stream's engine holds no session: after
	// playback completed or after an event was rejected.
	Release(streamKey string)
}

// Options configures a Dispatcher.
type Options struct {
	// Actions maps track event names to backend action names. When
	// non-empty, unlisted track events are dropped.
	Actions map[string]string
	// VideoNames maps event names to video kinds. Defaults to
	// video.DefaultNames().
	VideoNames map[string]video.Kind
	Logger     *logging.Logger
}

// Dispatcher classifies events and issues the matching backend calls.
type Dispatcher struct {
	backend    sink.Sink
	mapper     *contextdata.Mapper
	translator *ecommerce.Translator
	engines    Engines
	actions    map[string]string
	videoNames map[string]video.Kind
	logger     *logging.Logger
}

// New creates a Dispatcher.
func New(backend sink.Sink, mapper *contextdata.Mapper, translator *ecommerce.Translator, engines Engines, opts Options) *Dispatcher {
	names := opts.VideoNames
	if len(names) == 0 {
		names = video.DefaultNames()
	}
	return &Dispatcher{
		backend:    backend,
		mapper:     mapper,
		translator: translator,
		engines:    engines,
		actions:    opts.Actions,
		videoNames: names,
		logger:     logging.OrDefault(opts.Logger),
	}
}

// Dispatch handles one event. The stream key is taken from ctx.
func (d *Dispatcher) Dispatch(ctx context.Context, ev *event.Event) (Route, error) {
	switch ev.Type {
	case event.TypeIdentify:
		id := ev.UserID
		return RouteIdentify, d.backend.SetUserIdentifier(ctx, &id)
	case event.TypeReset:
		return RouteReset, d.backend.SetUserIdentifier(ctx, nil)
	case event.TypeFlush:
		return RouteFlush, d.backend.FlushQueue(ctx)
	case event.TypeScreen:
		return RouteScreen, d.backend.TrackState(ctx, ev.Name, d.mapper.MapEvent(ev))
	case event.TypeTrack:
		return d.track(ctx, ev)
	default:
		return RouteDropped, fmt.Errorf("unsupported event type %q", ev.Type)
	}
}

func (d *Dispatcher) track(ctx context.Context, ev *event.Event) (Route, error) {
	if kind, ok := d.videoNames[ev.Name]; ok {
		return RouteVideo, d.video(ctx, kind, ev)
	}

	if action, ok := d.translator.Classify(ev.Name); ok {
		data, err := d.translator.TranslateEvent(ctx, ev)
		if err != nil {
			return RouteCommerce, err
		}
		return RouteCommerce, d.backend.TrackAction(ctx, action.Code(), data)
	}

	name := ev.Name
	if len(d.actions) > 0 {
		mapped, ok := d.actions[ev.Name]
		if !ok {
			d.logger.DebugContext(ctx, "Track event not in action table, dropping",
				logging.EventName(ev.Name))
			return RouteDropped, nil
		}
		name = mapped
	}
	return RouteAction, d.backend.TrackAction(ctx, name, d.mapper.MapEvent(ev))
}

func (d *Dispatcher) video(ctx context.Context, kind video.Kind, ev *event.Event) error {
	key := logging.StreamKeyFrom(ctx)
	engine := d.engines.Engine(key)
	err := engine.Process(ctx, kind, ev)
	if kind == video.PlaybackCompleted || !engine.Active() {
		d.engines.Release(key)
	}
	return err
}
