package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/telhawk-systems/mediabridge/common/logging"
	"github.com/telhawk-systems/mediabridge/core/internal/contextdata"
	"github.com/telhawk-systems/mediabridge/core/internal/metrics"
)

// Call is one outbound backend call in serializable form.
type Call struct {
	ID        string            `json:"id"`
	Method    Method            `json:"method"`
	StreamKey string            `json:"streamKey,omitempty"`
	Name      string            `json:"name,omitempty"`
	UserID    *string           `json:"userId,omitempty"`
	Event     MediaEvent        `json:"event,omitempty"`
	Object    Descriptor        `json:"-"`
	Data      *contextdata.Data `json:"data,omitempty"`
	Time      time.Time         `json:"time"`
}

type callJSON struct {
	callAlias
	ObjectType string          `json:"objectType,omitempty"`
	Object     json.RawMessage `json:"object,omitempty"`
}

type callAlias Call

// MarshalJSON adds the descriptor with its type tag.
func (c Call) MarshalJSON() ([]byte, error) {
	out := callJSON{callAlias: callAlias(c)}
	if c.Object != nil {
		raw, err := json.Marshal(c.Object)
		if err != nil {
			return nil, fmt.Errorf("marshal %s descriptor: %w", c.Object.descriptor(), err)
		}
		out.ObjectType = c.Object.descriptor()
		out.Object = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores the typed descriptor.
func (c *Call) UnmarshalJSON(data []byte) error {
	var in callJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*c = Call(in.callAlias)
	if in.ObjectType == "" {
		return nil
	}

	var (
		obj Descriptor
		err error
	)
	switch in.ObjectType {
	case "media":
		var d Media
		err = json.Unmarshal(in.Object, &d)
		obj = d
	case "chapter":
		var d Chapter
		err = json.Unmarshal(in.Object, &d)
		obj = d
	case "adBreak":
		var d AdBreak
		err = json.Unmarshal(in.Object, &d)
		obj = d
	case "ad":
		var d Ad
		err = json.Unmarshal(in.Object, &d)
		obj = d
	case "qos":
		var d QoS
		err = json.Unmarshal(in.Object, &d)
		obj = d
	default:
		return fmt.Errorf("unknown descriptor type %q", in.ObjectType)
	}
	if err != nil {
		return fmt.Errorf("decode %s descriptor: %w", in.ObjectType, err)
	}
	c.Object = obj
	return nil
}

// MarshalYAML renders the call through its JSON field names.
func (c Call) MarshalYAML() (any, error) {
	out := map[string]any{
		"id":     c.ID,
		"method": string(c.Method),
		"time":   c.Time,
	}
	if c.StreamKey != "" {
		out["streamKey"] = c.StreamKey
	}
	if c.Name != "" {
		out["name"] = c.Name
	}
	if c.UserID != nil {
		out["userId"] = *c.UserID
	}
	if c.Event != 0 {
		out["event"] = c.Event.String()
	}
	if c.Object != nil {
		out["objectType"] = c.Object.descriptor()
		out["object"] = c.Object
	}
	if c.Data != nil {
		out["data"] = c.Data
	}
	return out, nil
}

// callWriter is where a backend delivers its calls.
type callWriter interface {
	write(ctx context.Context, c Call) error
}

// callBackend implements Backend by turning every method into a Call.
type callBackend struct {
	w   callWriter
	now func() time.Time
}

func (b callBackend) emit(ctx context.Context, c Call) error {
	c.ID = uuid.NewString()
	c.StreamKey = logging.StreamKeyFrom(ctx)
	if b.now != nil {
		c.Time = b.now()
	} else {
		c.Time = time.Now().UTC()
	}

	metrics.SinkCalls.WithLabelValues(string(c.Method)).Inc()
	if err := b.w.write(ctx, c); err != nil {
		metrics.SinkErrors.WithLabelValues(string(c.Method)).Inc()
		return fmt.Errorf("%s: %w", c.Method, err)
	}
	return nil
}

func (b callBackend) TrackAction(ctx context.Context, name string, data *contextdata.Data) error {
	return b.emit(ctx, Call{Method: MethodTrackAction, Name: name, Data: data})
}

func (b callBackend) TrackState(ctx context.Context, name string, data *contextdata.Data) error {
	return b.emit(ctx, Call{Method: MethodTrackState, Name: name, Data: data})
}

func (b callBackend) SetUserIdentifier(ctx context.Context, id *string) error {
	return b.emit(ctx, Call{Method: MethodSetUserIdentifier, UserID: id})
}

func (b callBackend) FlushQueue(ctx context.Context) error {
	return b.emit(ctx, Call{Method: MethodFlushQueue})
}

func (b callBackend) TrackSessionStart(ctx context.Context, media Media, data *contextdata.Data) error {
	return b.emit(ctx, Call{Method: MethodSessionStart, Object: media, Data: data})
}

func (b callBackend) TrackSessionEnd(ctx context.Context) error {
	return b.emit(ctx, Call{Method: MethodSessionEnd})
}

func (b callBackend) TrackPlay(ctx context.Context) error {
	return b.emit(ctx, Call{Method: MethodPlay})
}

func (b callBackend) TrackPause(ctx context.Context) error {
	return b.emit(ctx, Call{Method: MethodPause})
}

func (b callBackend) TrackComplete(ctx context.Context) error {
	return b.emit(ctx, Call{Method: MethodComplete})
}

func (b callBackend) TrackEvent(ctx context.Context, ev MediaEvent, obj Descriptor, data *contextdata.Data) error {
	return b.emit(ctx, Call{Method: MethodEvent, Event: ev, Object: obj, Data: data})
}
