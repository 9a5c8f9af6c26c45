package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/telhawk-systems/mediabridge/common/logging"
	"github.com/telhawk-systems/mediabridge/common/messaging"
)

// Publisher is a Backend that publishes each call as JSON to
// mediabridge.calls.<method>, for a downstream backend client to replay.
type Publisher struct {
	callBackend
	pub    messaging.Publisher
	logger *logging.Logger
}

var _ Backend = (*Publisher)(nil)

// NewPublisher wraps pub.
func NewPublisher(pub messaging.Publisher, logger *logging.Logger) *Publisher {
	p := &Publisher{pub: pub, logger: logging.OrDefault(logger)}
	p.callBackend = callBackend{w: p}
	return p
}

func (p *Publisher) write(ctx context.Context, c Call) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode call: %w", err)
	}

	msg := &messaging.Message{
		Subject: messaging.CallSubject(string(c.Method)),
		Data:    data,
		Metadata: map[string]string{
			messaging.HeaderCallID: c.ID,
			messaging.HeaderMethod: string(c.Method),
		},
	}
	if c.StreamKey != "" {
		msg.Metadata[messaging.HeaderStreamKey] = c.StreamKey
	}

	if err := p.pub.PublishMsg(ctx, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", msg.Subject, err)
	}
	p.logger.DebugContext(ctx, "published backend call", logging.Subject(msg.Subject))
	return nil
}
