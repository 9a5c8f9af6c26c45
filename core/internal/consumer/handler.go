// Package consumer feeds analytics events from the message bus into the
// translation processor.
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/telhawk-systems/mediabridge/common/logging"
	"github.com/telhawk-systems/mediabridge/common/messaging"
	"github.com/telhawk-systems/mediabridge/core/internal/dlq"
	"github.com/telhawk-systems/mediabridge/core/internal/metrics"
	"github.com/telhawk-systems/mediabridge/core/internal/ratelimit"
	"github.com/telhawk-systems/mediabridge/core/internal/service"
	"github.com/telhawk-systems/mediabridge/core/pkg/event"
)

// ErrMissingName is returned for track and screen events without a name.
var ErrMissingName = event.ErrMissingName

// Processor translates one event.
type Processor interface {
	Process(ctx context.Context, ev *event.Event) error
}

// DeadLetter stores messages that could not be handled.
type DeadLetter interface {
	Write(ctx context.Context, subject string, payload []byte, cause error, reason string) error
}

// Options configures a Handler. Empty fields select the defaults.
type Options struct {
	Subject    string
	Queue      string
	Limiter    ratelimit.Limiter
	DeadLetter DeadLetter
	Logger     *logging.Logger
}

// Handler subscribes to inbound events and processes them.
type Handler struct {
	subscriber messaging.Subscriber
	processor  Processor
	limiter    ratelimit.Limiter
	deadLetter DeadLetter
	subject    string
	queue      string
	logger     *logging.Logger

	mu   sync.Mutex
	subs []messaging.Subscription
}

// NewHandler creates a new inbound event handler.
func NewHandler(subscriber messaging.Subscriber, processor Processor, opts Options) *Handler {
	h := &Handler{
		subscriber: subscriber,
		processor:  processor,
		limiter:    opts.Limiter,
		deadLetter: opts.DeadLetter,
		subject:    opts.Subject,
		queue:      opts.Queue,
		logger:     logging.OrDefault(opts.Logger),
	}
	if h.subject == "" {
		h.subject = messaging.SubjectEventsInbound
	}
	if h.queue == "" {
		h.queue = messaging.QueueWorkers
	}
	if h.limiter == nil {
		h.limiter = ratelimit.NoOp{}
	}
	return h
}

// Start begins listening for events.
func (h *Handler) Start(ctx context.Context) error {
	sub, err := h.subscriber.QueueSubscribe(h.subject, h.queue, h.handleEvent)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", h.subject, err)
	}

	h.mu.Lock()
	h.subs = append(h.subs, sub)
	h.mu.Unlock()

	h.logger.InfoContext(ctx, "Event consumer started",
		logging.Subject(h.subject), "queue", h.queue)
	return nil
}

// Stop unsubscribes from all subjects.
func (h *Handler) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.subs {
		if err := sub.Unsubscribe(); err != nil {
			h.logger.Warn("Failed to unsubscribe", logging.Subject(sub.Subject()), logging.Error(err))
		}
	}
	h.subs = nil
	h.logger.Info("Event consumer stopped")
	return nil
}

func (h *Handler) handleEvent(ctx context.Context, msg *messaging.Message) error {
	var ev event.Event
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		metrics.EventsTotal.WithLabelValues("decode", "error").Inc()
		err = fmt.Errorf("decode event: %w", err)
		h.deadLetterMsg(ctx, msg, err, dlq.ReasonDecode)
		return err
	}
	if err := ev.Validate(); err != nil {
		metrics.EventsTotal.WithLabelValues("decode", "error").Inc()
		h.deadLetterMsg(ctx, msg, err, dlq.ReasonDecode)
		return err
	}

	key := service.StreamKey(&ev)
	ctx = logging.WithStreamKey(ctx, key)

	allowed, err := h.limiter.Allow(ctx, key)
	if err != nil {
		// The limiter is advisory; keep translating when Redis is unavailable.
		h.logger.WarnContext(ctx, "Rate limiter unavailable", logging.Error(err))
		allowed = true
	}
	if !allowed {
		metrics.EventsTotal.WithLabelValues(string(ev.Type), "rate_limited").Inc()
		h.logger.DebugContext(ctx, "Event rate limited", logging.EventName(ev.Name))
		return nil
	}

	if err := h.processor.Process(ctx, &ev); err != nil {
		h.deadLetterMsg(ctx, msg, err, dlq.ReasonTranslate)
		return err
	}
	return nil
}

func (h *Handler) deadLetterMsg(ctx context.Context, msg *messaging.Message, cause error, reason string) {
	if h.deadLetter == nil {
		return
	}
	if err := h.deadLetter.Write(ctx, msg.Subject, msg.Data, cause, reason); err != nil {
		h.logger.ErrorContext(ctx, "Failed to dead-letter event", logging.Error(err))
	}
}
