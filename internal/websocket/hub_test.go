package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func newTestClient(h *Hub) *Client {
	return &Client{hub: h, send: make(chan []byte, 8), staffID: "tester"}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}

func receive(t *testing.T, c *Client) (Event, bool) {
	t.Helper()
	select {
	case msg, ok := <-c.send:
		if !ok {
			return Event{}, false
		}
		var ev Event
		if err := json.Unmarshal(msg, &ev); err != nil {
			t.Fatalf("bad event payload: %v", err)
		}
		return ev, true
	case <-time.After(100 * time.Millisecond):
		return Event{}, false
	}
}

func TestHubTopicRouting(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	c := newTestClient(h)
	h.register <- subscription{client: c, topics: []string{TopicStock}}
	waitFor(t, func() bool { return h.Subscribers(TopicStock) == 1 })

	h.Publish(TopicOrders, "order_created", nil)
	h.Publish(TopicStock, "stock_changed", map[string]int{"sellable": 3})

	ev, ok := receive(t, c)
	if !ok || ev.Topic != TopicStock || ev.Event != "stock_changed" {
		t.Fatalf("expected stock event, got %+v ok=%v", ev, ok)
	}
	if _, ok := receive(t, c); ok {
		t.Fatalf("client received event for a topic it did not subscribe to")
	}
}

func TestHubResubscribeReplacesTopics(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	c := newTestClient(h)
	h.register <- subscription{client: c, topics: []string{TopicStock}}
	h.register <- subscription{client: c, topics: []string{TopicOrders}}
	waitFor(t, func() bool { return h.Subscribers(TopicOrders) == 1 && h.Subscribers(TopicStock) == 0 })
}

func TestHubUnregisterTearsDownSubscriptions(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	c := newTestClient(h)
	h.register <- subscription{client: c, topics: []string{TopicStock, TopicShifts}}
	waitFor(t, func() bool { return h.Subscribers(TopicShifts) == 1 })

	h.unregister <- c
	waitFor(t, func() bool { return h.Subscribers(TopicStock) == 0 && h.Subscribers(TopicShifts) == 0 })

	if _, ok := <-c.send; ok {
		t.Fatalf("expected send channel to be closed")
	}

	// A late subscribe from a closed client must not resurrect it.
	h.register <- subscription{client: c, topics: []string{TopicStock}}
	h.Publish(TopicStock, "stock_changed", nil)
	time.Sleep(20 * time.Millisecond)
	if h.Subscribers(TopicStock) != 0 {
		t.Fatalf("closed client was re-subscribed")
	}
}

func TestHubRefusesClientsAfterShutdown(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()

	c := newTestClient(h)
	if !h.join(subscription{client: c, topics: []string{TopicStock}}) {
		t.Fatalf("running hub refused a client")
	}
	waitFor(t, func() bool { return h.Subscribers(TopicStock) == 1 })

	cancel()
	<-stopped
	if _, ok := <-c.send; ok {
		t.Fatalf("expected shutdown to close the client")
	}

	returned := make(chan bool, 1)
	go func() {
		late := newTestClient(h)
		ok := h.join(subscription{client: late, topics: []string{TopicOrders}})
		h.leave(c)
		returned <- ok
	}()
	select {
	case ok := <-returned:
		if ok {
			t.Fatalf("stopped hub accepted a client")
		}
	case <-time.After(time.Second):
		t.Fatalf("join or leave blocked after the hub stopped")
	}
}

func TestParseTopics(t *testing.T) {
	got := ParseTopics([]string{"stock,orders", " stock", "chat", "shifts"})
	expected := []string{TopicStock, TopicOrders, TopicShifts}
	if len(got) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("expected %v, got %v", expected, got)
		}
	}
}
