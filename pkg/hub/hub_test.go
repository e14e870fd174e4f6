package hub

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// attach registers a connectionless client for inspecting the fan-out.
func attach(h *Hub, buf int) *Client {
	c := &Client{hub: h, send: make(chan Message, buf)}
	h.join(c)
	return c
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case m, ok := <-c.send:
		require.True(t, ok, "client channel closed")
		return m
	case <-time.After(time.Second):
		t.Fatal("no message")
	}
	return Message{}
}

func TestHub_Broadcast(t *testing.T) {
	h := New("telemetry", quiet())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	a := attach(h, 4)
	b := attach(h, 4)
	require.Eventually(t, func() bool { return h.ClientCount() == 2 }, time.Second, time.Millisecond)

	frame := []byte("MODE#3#42\n")
	h.BroadcastFrame(frame)
	frame[0] = 'X' // the hub keeps its own copy

	for _, c := range []*Client{a, b} {
		m := receive(t, c)
		assert.Equal(t, TextMessage, m.Type)
		assert.Equal(t, "MODE#3#42\n", string(m.Data))
	}
}

func TestHub_BroadcastJSON(t *testing.T) {
	h := New("status", quiet())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	c := attach(h, 4)
	require.NoError(t, h.BroadcastJSON(map[string]int{"distance": 7}))

	m := receive(t, c)
	assert.Equal(t, JSONMessage, m.Type)
	assert.JSONEq(t, `{"distance":7}`, string(m.Data))

	assert.Error(t, h.BroadcastJSON(make(chan int)))
}

func TestHub_DropsSlowClient(t *testing.T) {
	h := New("telemetry", quiet())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	slow := attach(h, 1)
	h.BroadcastFrame([]byte("a\n"))
	h.BroadcastFrame([]byte("b\n"))

	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, 2*time.Millisecond)
	<-slow.send
	_, ok := <-slow.send
	assert.False(t, ok, "slow client channel should be closed")
}

func TestHub_Unregister(t *testing.T) {
	h := New("telemetry", quiet())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	c := attach(h, 1)
	h.unregister <- c
	_, ok := <-c.send
	assert.False(t, ok)
	assert.Equal(t, 0, h.ClientCount())
}

func TestHub_StopClosesClients(t *testing.T) {
	h := New("telemetry", quiet())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	c := attach(h, 1)
	require.Eventually(t, h.IsRunning, time.Second, time.Millisecond)
	cancel()
	<-done

	_, ok := <-c.send
	assert.False(t, ok)
	assert.False(t, h.IsRunning())
}

func TestHub_JoinAndLeaveAfterStop(t *testing.T) {
	h := New("status", quiet())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	c := attach(h, 1)
	cancel()
	<-done

	finished := make(chan struct{})
	var late *Client
	go func() {
		defer close(finished)
		h.leave(c)
		late = NewClient(h, nil)
		late.hub.leave(late)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("client registration blocked on a stopped hub")
	}
	_, ok := <-late.send
	assert.False(t, ok, "a client created after stop starts closed")
	assert.Equal(t, 0, h.ClientCount())
}
