package messaging

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrClosed is returned by a closed in-memory client.
var ErrClosed = errors.New("messaging: client closed")

// MemoryClient is an in-process Client. Delivery is synchronous: Publish
// returns after every matching handler ran. It backs tests and the
// single-process translate command.
type MemoryClient struct {
	mu      sync.Mutex
	subs    []*memorySub
	next    map[string]int
	closed  bool
	onError ErrorHandler
}

// NewMemoryClient returns an empty in-memory broker. onError may be nil.
func NewMemoryClient(onError ErrorHandler) *MemoryClient {
	return &MemoryClient{next: make(map[string]int), onError: onError}
}

// Publish delivers data to subscribers of subject.
func (c *MemoryClient) Publish(ctx context.Context, subject string, data []byte) error {
	return c.PublishMsg(ctx, &Message{Subject: subject, Data: data})
}

// PublishMsg delivers msg to every fan-out subscriber and to one member of
// each queue group, round-robin.
func (c *MemoryClient) PublishMsg(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	targets := c.targetsLocked(msg.Subject)
	c.mu.Unlock()

	for _, s := range targets {
		delivered := &Message{
			Subject:   msg.Subject,
			Data:      append([]byte(nil), msg.Data...),
			Metadata:  copyMetadata(msg.Metadata),
			Timestamp: time.Now(),
		}
		if err := s.handler(ctx, delivered); err != nil && c.onError != nil {
			c.onError(msg.Subject, err)
		}
	}
	return nil
}

func (c *MemoryClient) targetsLocked(subject string) []*memorySub {
	var targets []*memorySub
	groups := make(map[string][]*memorySub)
	var order []string
	for _, s := range c.subs {
		if !s.valid || s.subject != subject {
			continue
		}
		if s.queue == "" {
			targets = append(targets, s)
			continue
		}
		if _, seen := groups[s.queue]; !seen {
			order = append(order, s.queue)
		}
		groups[s.queue] = append(groups[s.queue], s)
	}
	for _, q := range order {
		members := groups[q]
		key := subject + "|" + q
		idx := c.next[key] % len(members)
		c.next[key] = idx + 1
		targets = append(targets, members[idx])
	}
	return targets
}

// Subscribe registers a fan-out handler.
func (c *MemoryClient) Subscribe(subject string, handler MessageHandler) (Subscription, error) {
	return c.QueueSubscribe(subject, "", handler)
}

// QueueSubscribe registers a handler in queue group queue.
func (c *MemoryClient) QueueSubscribe(subject, queue string, handler MessageHandler) (Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	s := &memorySub{client: c, subject: subject, queue: queue, handler: handler, valid: true}
	c.subs = append(c.subs, s)
	return s, nil
}

// Drain is Close; delivery is synchronous so nothing is in flight.
func (c *MemoryClient) Drain() error {
	return c.Close()
}

// Close unsubscribes everything and rejects further use.
func (c *MemoryClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.subs {
		s.valid = false
	}
	c.subs = nil
	c.closed = true
	return nil
}

// IsConnected reports whether the client is still open.
func (c *MemoryClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

type memorySub struct {
	client  *MemoryClient
	subject string
	queue   string
	handler MessageHandler
	valid   bool
}

func (s *memorySub) Unsubscribe() error {
	s.client.mu.Lock()
	defer s.client.mu.Unlock()
	s.valid = false
	return nil
}

func (s *memorySub) Subject() string { return s.subject }

func (s *memorySub) IsValid() bool {
	s.client.mu.Lock()
	defer s.client.mu.Unlock()
	return s.valid
}

func copyMetadata(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
