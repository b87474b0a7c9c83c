package realtime

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestHub_DeliversToEveryConnectionOfUser(t *testing.T) {
	h := NewHub()
	a := h.Subscribe("u1")
	b := h.Subscribe("u1")
	other := h.Subscribe("u2")

	n := h.Deliver(Event{UserID: "u1", Type: "payment_completed"})
	if n != 2 {
		t.Errorf("Deliver = %d, want 2", n)
	}
	for _, s := range []*Subscriber{a, b} {
		select {
		case ev := <-s.Events():
			if ev.Type != "payment_completed" {
				t.Errorf("Type = %v, want payment_completed", ev.Type)
			}
		default:
			t.Errorf("subscriber got nothing")
		}
	}
	select {
	case ev := <-other.Events():
		t.Errorf("other user received %v", ev)
	default:
	}
}

func TestHub_UnsubscribeRemovesAndCloses(t *testing.T) {
	h := NewHub()
	s := h.Subscribe("u1")
	h.Unsubscribe(s)

	if h.Connected("u1") != 0 {
		t.Errorf("Connected = %d, want 0", h.Connected("u1"))
	}
	if _, ok := <-s.Events(); ok {
		t.Errorf("channel still open after Unsubscribe")
	}
	if n := h.Deliver(Event{UserID: "u1", Type: "x"}); n != 0 {
		t.Errorf("Deliver after unsubscribe = %d, want 0", n)
	}
	h.Unsubscribe(s)
}

func TestHub_FullBufferDoesNotBlock(t *testing.T) {
	h := NewHub()
	h.Subscribe("u1")
	for i := 0; i < subscriberBuffer; i++ {
		h.Deliver(Event{UserID: "u1", Type: "x"})
	}

	done := make(chan int)
	go func() { done <- h.Deliver(Event{UserID: "u1", Type: "overflow"}) }()
	select {
	case n := <-done:
		if n != 0 {
			t.Errorf("Deliver on full buffer = %d, want 0", n)
		}
	case <-time.After(time.Second):
		t.Fatal("Deliver blocked on a slow subscriber")
	}
}

func TestBroker_WithoutRedisDeliversLocally(t *testing.T) {
	h := NewHub()
	s := h.Subscribe("u1")
	b := NewBroker(h, nil, "events")

	if err := b.Publish(context.Background(), Event{UserID: "u1", Type: "payout_processed", Payload: map[string]interface{}{"amount": 600.0}}); err != nil {
		t.Fatalf("Publish returned %v", err)
	}
	ev := <-s.Events()
	want := map[string]interface{}{"amount": 600.0}
	if !reflect.DeepEqual(ev.Payload, want) {
		t.Errorf("Payload = %v, want %v", ev.Payload, want)
	}
}

func TestBroker_DispatchDecodesChannelMessage(t *testing.T) {
	h := NewHub()
	s := h.Subscribe("u9")
	b := NewBroker(h, nil, "events")

	b.dispatch(`{"user_id":"u9","type":"new_message","payload":{"booking_id":"b1"}}`)
	b.dispatch(`not json`)

	ev := <-s.Events()
	if ev.Type != "new_message" {
		t.Errorf("Type = %v, want new_message", ev.Type)
	}
	if h.Connected("u9") != 1 {
		t.Errorf("subscriber lost after bad message")
	}
}

func TestWriteSSE_Format(t *testing.T) {
	var buf bytes.Buffer
	_ = WriteSSE(&buf, "payment_completed", map[string]string{"booking_id": "b1"})

	want := "data: {\"type\":\"payment_completed\",\"payload\":{\"booking_id\":\"b1\"}}\n\n"
	if buf.String() != want {
		t.Errorf("frame = %q, want %q", buf.String(), want)
	}

	buf.Reset()
	_ = WriteHeartbeat(&buf)
	if buf.String() != "data: {\"type\":\"heartbeat\"}\n\n" {
		t.Errorf("heartbeat = %q", buf.String())
	}
}

func TestServeSocket_ForwardsEvents(t *testing.T) {
	h := NewHub()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		h.ServeSocket(r.Context(), conn, "u1")
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial returned %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(time.Second)
	for h.Connected("u1") == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	h.Deliver(Event{UserID: "u1", Type: "location_update", Payload: map[string]interface{}{"lat": 1.5}})

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var msg socketMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON returned %v", err)
	}
	if msg.Event != "location_update" {
		t.Errorf("Event = %v, want location_update", msg.Event)
	}
}
