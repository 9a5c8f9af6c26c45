package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryClient_FanOut(t *testing.T) {
	c := NewMemoryClient(nil)
	defer c.Close()

	var got []string
	for _, name := range []string{"a", "b"} {
		name := name
		_, err := c.Subscribe("mediabridge.calls.trackPlay", func(_ context.Context, msg *Message) error {
			got = append(got, name+":"+string(msg.Data))
			return nil
		})
		require.NoError(t, err)
	}

	require.NoError(t, c.Publish(context.Background(), "mediabridge.calls.trackPlay", []byte("x")))
	require.NoError(t, c.Publish(context.Background(), "mediabridge.calls.other", []byte("y")))

	assert.Equal(t, []string{"a:x", "b:x"}, got)
}

func TestMemoryClient_QueueGroupRoundRobin(t *testing.T) {
	c := NewMemoryClient(nil)
	defer c.Close()

	counts := make(map[string]int)
	for _, name := range []string{"w1", "w2"} {
		name := name
		_, err := c.QueueSubscribe(SubjectEventsInbound, QueueWorkers, func(context.Context, *Message) error {
			counts[name]++
			return nil
		})
		require.NoError(t, err)
	}

	for i := 0; i < 4; i++ {
		require.NoError(t, c.Publish(context.Background(), SubjectEventsInbound, []byte("{}")))
	}
	assert.Equal(t, map[string]int{"w1": 2, "w2": 2}, counts)
}

func TestMemoryClient_HandlerErrors(t *testing.T) {
	var (
		mu     sync.Mutex
		failed []string
	)
	c := NewMemoryClient(func(subject string, err error) {
		mu.Lock()
		defer mu.Unlock()
		failed = append(failed, subject+": "+err.Error())
	})
	defer c.Close()

	_, err := c.Subscribe("s.t.u", func(context.Context, *Message) error { return errors.New("boom") })
	require.NoError(t, err)

	require.NoError(t, c.Publish(context.Background(), "s.t.u", nil))
	assert.Equal(t, []string{"s.t.u: boom"}, failed)
}

func TestMemoryClient_MetadataAndUnsubscribe(t *testing.T) {
	c := NewMemoryClient(nil)
	defer c.Close()

	var received *Message
	sub, err := c.Subscribe("s.t.u", func(_ context.Context, msg *Message) error {
		received = msg
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "s.t.u", sub.Subject())
	assert.True(t, sub.IsValid())

	meta := map[string]string{HeaderMethod: "trackPlay"}
	require.NoError(t, c.PublishMsg(context.Background(), &Message{Subject: "s.t.u", Data: []byte("1"), Metadata: meta}))
	require.NotNil(t, received)
	assert.Equal(t, "trackPlay", received.Metadata[HeaderMethod])
	assert.False(t, received.Timestamp.IsZero())

	require.NoError(t, sub.Unsubscribe())
	assert.False(t, sub.IsValid())
	received = nil
	require.NoError(t, c.Publish(context.Background(), "s.t.u", []byte("2")))
	assert.Nil(t, received)
}

func TestMemoryClient_Closed(t *testing.T) {
	c := NewMemoryClient(nil)
	require.NoError(t, c.Close())

	assert.False(t, c.IsConnected())
	assert.ErrorIs(t, c.Publish(context.Background(), "s.t.u", nil), ErrClosed)
	_, err := c.Subscribe("s.t.u", func(context.Context, *Message) error { return nil })
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMemoryClient_CanceledContext(t *testing.T) {
	c := NewMemoryClient(nil)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.Publish(ctx, "s.t.u", nil), context.Canceled)
}

func TestCheckClientHealth(t *testing.T) {
	status := CheckClientHealth(context.Background(), nil)
	assert.False(t, status.Connected)
	assert.Equal(t, "client is nil", status.Error)

	c := NewMemoryClient(nil)
	status = CheckClientHealth(context.Background(), c)
	assert.True(t, status.Connected)
	assert.Empty(t, status.Error)

	require.NoError(t, c.Close())
	status = CheckClientHealth(context.Background(), c)
	assert.False(t, status.Connected)
	assert.NotEmpty(t, status.Error)
}
