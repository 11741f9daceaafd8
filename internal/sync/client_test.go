package sync

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeSkipsWelcomeAndDeliversEvents(t *testing.T) {
	hub := NewHub()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = NewServer("", hub).Serve(ctx, ln) }()

	got := make(chan ActivityEvent, 1)
	done := make(chan error, 1)
	go func() {
		done <- Subscribe(ctx, ln.Addr().String(), func(ev ActivityEvent) { got <- ev })
	}()

	require.Eventually(t, func() bool { return hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)
	hub.BroadcastJSON(NewEvent(EventWatchlistDelete, "u1", 30, ""))

	select {
	case ev := <-got:
		assert.Equal(t, EventWatchlistDelete, ev.Type)
		assert.Equal(t, 30, ev.AnimeID)
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("subscribe did not return")
	}
}

func TestSubscribeDialError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	err = Subscribe(context.Background(), addr, func(ActivityEvent) {})
	assert.Error(t, err)
}
