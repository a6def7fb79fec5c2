package sinks

import (
	"context"
	"errors"
	"testing"

	"github.com/nestlogic/forum-sentinel/internal/domain"
)

type fakeSink struct {
	id    string
	err   error
	calls int
}

func (f *fakeSink) ID() string   { return f.id }
func (f *fakeSink) Type() string { return "fake" }

func (f *fakeSink) Send(context.Context, Event) error {
	f.calls++
	return f.err
}

func TestFanoutSendAllSucceed(t *testing.T) {
	a := &fakeSink{id: "a"}
	b := &fakeSink{id: "b"}
	fanout := NewFanout([]Sink{a, b, nil})

	if fanout.Size() != 2 {
		t.Fatalf("Size = %d, nil sinks should be dropped", fanout.Size())
	}

	evt := NewEvent(domain.DetectionResult{Detector: "akismet-1", ContentID: 42})
	ok, err := fanout.Send(context.Background(), evt)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if ok != 2 {
		t.Fatalf("successful = %d, want 2", ok)
	}
	if a.calls != 1 || b.calls != 1 {
		t.Fatalf("every sink should be called once: a=%d b=%d", a.calls, b.calls)
	}
}

func TestFanoutSendPartialFailure(t *testing.T) {
	a := &fakeSink{id: "a", err: errors.New("boom")}
	b := &fakeSink{id: "b"}
	fanout := NewFanout([]Sink{a, b})

	ok, err := fanout.Send(context.Background(), NewEvent(domain.DetectionResult{}))
	if err == nil {
		t.Fatalf("expected joined error from failing sink")
	}
	if ok != 1 {
		t.Fatalf("successful = %d, want 1", ok)
	}
	if b.calls != 1 {
		t.Fatalf("failure in one sink must not stop the others")
	}
}

func TestFanoutSendEmpty(t *testing.T) {
	fanout := NewFanout(nil)
	ok, err := fanout.Send(context.Background(), Event{})
	if err != nil || ok != 0 {
		t.Fatalf("empty fanout should be a no-op, got ok=%d err=%v", ok, err)
	}
}
