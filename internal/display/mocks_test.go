package display

import (
	"context"
	"sync"

	"github.com/baristaclub/barista/internal/square"
)

// MockOrderSource is a test mock for OrderSource
type MockOrderSource struct {
	mu               sync.Mutex
	calls            int
	SearchOrdersFunc func(ctx context.Context) ([]square.Order, error)
}

func NewMockOrderSource() *MockOrderSource {
	return &MockOrderSource{}
}

func (m *MockOrderSource) SearchOrders(ctx context.Context) ([]square.Order, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.SearchOrdersFunc != nil {
		return m.SearchOrdersFunc(ctx)
	}
	return nil, nil
}

func (m *MockOrderSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockOrderUpdater is a test mock for OrderUpdater
type MockOrderUpdater struct {
	Calls             []CompleteCall
	CompleteOrderFunc func(ctx context.Context, orderID string, version int64, fulfillmentID string) (*square.Order, error)
}

type CompleteCall struct {
	OrderID       string
	Version       int64
	FulfillmentID string
}

func NewMockOrderUpdater() *MockOrderUpdater {
	return &MockOrderUpdater{
		Calls: make([]CompleteCall, 0),
	}
}

func (m *MockOrderUpdater) CompleteOrder(ctx context.Context, orderID string, version int64, fulfillmentID string) (*square.Order, error) {
	m.Calls = append(m.Calls, CompleteCall{OrderID: orderID, Version: version, FulfillmentID: fulfillmentID})
	if m.CompleteOrderFunc != nil {
		return m.CompleteOrderFunc(ctx, orderID, version, fulfillmentID)
	}
	return &square.Order{ID: orderID}, nil
}

// MockRefresher is a test mock for Refresher
type MockRefresher struct {
	mu          sync.Mutex
	calls       int
	RefreshFunc func(ctx context.Context) error
}

func NewMockRefresher() *MockRefresher {
	return &MockRefresher{}
}

func (m *MockRefresher) Refresh(ctx context.Context) error {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx)
	}
	return nil
}

func (m *MockRefresher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockPublisher is a test mock for events.Publisher
type MockPublisher struct {
	PublishedEvents []PublishedEvent
	PublishFunc     func(ctx context.Context, topic string, data []byte) error
}

type PublishedEvent struct {
	Topic string
	Data  []byte
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		PublishedEvents: make([]PublishedEvent, 0),
	}
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, data []byte) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, topic, data)
	}
	m.PublishedEvents = append(m.PublishedEvents, PublishedEvent{Topic: topic, Data: data})
	return nil
}
