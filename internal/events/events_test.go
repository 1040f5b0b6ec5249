package events

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
)

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, Event) error { return errors.New("broker down") }

func TestEmit_SwallowsPublishErrors(t *testing.T) {
	Emit(context.Background(), failingPublisher{}, New(OrderPlaced, "o1", nil))
	Emit(context.Background(), nil, New(OrderPlaced, "o1", nil))
}

func TestRecorder_KeepsOrder(t *testing.T) {
	r := &Recorder{}
	Emit(context.Background(), r, New(TopUpRequested, "t1", map[string]string{"amount": "200.00"}))
	Emit(context.Background(), r, New(TopUpDecided, "t1", nil))

	got := r.Types()
	if len(got) != 2 || got[0] != TopUpRequested || got[1] != TopUpDecided {
		t.Fatalf("unexpected events %v", got)
	}
	if r.Events()[0].ID == "" || r.Events()[0].Key != "t1" {
		t.Fatalf("expected id and key set")
	}
}

func TestMessageCarrier_SetOverwrites(t *testing.T) {
	msg := kafka.Message{}
	c := NewMessageCarrier(&msg)
	c.Set("traceparent", "a")
	c.Set("traceparent", "b")

	if len(msg.Headers) != 1 || c.Get("traceparent") != "b" {
		t.Fatalf("unexpected headers %+v", msg.Headers)
	}
	if keys := c.Keys(); len(keys) != 1 || keys[0] != "traceparent" {
		t.Fatalf("unexpected keys %v", keys)
	}
}
