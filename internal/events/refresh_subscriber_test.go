package events

import (
	"context"
	"errors"
	"testing"

	"github.com/aquamarinepk/aqm"
	aqmevents "github.com/aquamarinepk/aqm/events"

	"github.com/baristaclub/barista/pkg/event"
)

// MockSubscriber is a test mock for events.Subscriber
type MockSubscriber struct {
	handlers      map[string]aqmevents.HandlerFunc
	SubscribeFunc func(ctx context.Context, topic string, handler aqmevents.HandlerFunc) error
}

func NewMockSubscriber() *MockSubscriber {
	return &MockSubscriber{
		handlers: make(map[string]aqmevents.HandlerFunc),
	}
}

func (m *MockSubscriber) Subscribe(ctx context.Context, topic string, handler aqmevents.HandlerFunc) error {
	if m.SubscribeFunc != nil {
		return m.SubscribeFunc(ctx, topic, handler)
	}
	m.handlers[topic] = handler
	return nil
}

func (m *MockSubscriber) Deliver(ctx context.Context, topic string, msg []byte) error {
	handler, ok := m.handlers[topic]
	if !ok {
		return errors.New("no handler for topic " + topic)
	}
	return handler(ctx, msg)
}

// MockRefresher is a test mock for display.Refresher
type MockRefresher struct {
	calls       int
	RefreshFunc func(ctx context.Context) error
}

func (m *MockRefresher) Refresh(ctx context.Context) error {
	m.calls++
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx)
	}
	return nil
}

func TestRefreshSubscriberStart(t *testing.T) {
	subscriber := NewMockSubscriber()
	refresher := &MockRefresher{}

	s := NewRefreshSubscriber(subscriber, refresher, aqm.NewNoopLogger())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if _, ok := subscriber.handlers[event.DisplayRefreshTopic]; !ok {
		t.Fatalf("no handler registered for %s", event.DisplayRefreshTopic)
	}
}

func TestRefreshSubscriberStartSubscribeFails(t *testing.T) {
	subscriber := NewMockSubscriber()
	subscriber.SubscribeFunc = func(ctx context.Context, topic string, handler aqmevents.HandlerFunc) error {
		return errors.New("nats down")
	}

	s := NewRefreshSubscriber(subscriber, &MockRefresher{}, aqm.NewNoopLogger())
	if err := s.Start(context.Background()); err == nil {
		t.Error("Start() error = nil, want subscription failure")
	}
}

func TestRefreshSubscriberNudgeTriggersRefresh(t *testing.T) {
	subscriber := NewMockSubscriber()
	refresher := &MockRefresher{}

	s := NewRefreshSubscriber(subscriber, refresher, aqm.NewNoopLogger())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := subscriber.Deliver(context.Background(), event.DisplayRefreshTopic, []byte(`{}`)); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	if refresher.calls != 1 {
		t.Errorf("refresher calls = %d, want 1", refresher.calls)
	}
}

func TestRefreshSubscriberRefreshFailureIsSwallowed(t *testing.T) {
	subscriber := NewMockSubscriber()
	refresher := &MockRefresher{
		RefreshFunc: func(ctx context.Context) error {
			return errors.New("poll failed")
		},
	}

	s := NewRefreshSubscriber(subscriber, refresher, aqm.NewNoopLogger())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// A failed refresh is logged, not propagated back to the broker.
	if err := subscriber.Deliver(context.Background(), event.DisplayRefreshTopic, nil); err != nil {
		t.Errorf("Deliver() error = %v, want nil", err)
	}
}

func TestRefreshSubscriberStop(t *testing.T) {
	s := NewRefreshSubscriber(NewMockSubscriber(), &MockRefresher{}, aqm.NewNoopLogger())
	if err := s.Stop(context.Background()); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}
