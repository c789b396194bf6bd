package events

import (
	"context"
	"fmt"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/events"

	"github.com/baristaclub/barista/internal/display"
	"github.com/baristaclub/barista/pkg/event"
)

// RefreshSubscriber lets the POS or a peer display nudge this display
// into an immediate re-poll instead of waiting out the interval. The
// payload is irrelevant; the nudge is the message.
type RefreshSubscriber struct {
	subscriber events.Subscriber
	refresher  display.Refresher
	logger     aqm.Logger
}

func NewRefreshSubscriber(subscriber events.Subscriber, refresher display.Refresher, logger aqm.Logger) *RefreshSubscriber {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &RefreshSubscriber{
		subscriber: subscriber,
		refresher:  refresher,
		logger:     logger,
	}
}

func (s *RefreshSubscriber) Start(ctx context.Context) error {
	s.logger.Infof("Starting RefreshSubscriber for topic: %s", event.DisplayRefreshTopic)

	if err := s.subscriber.Subscribe(ctx, event.DisplayRefreshTopic, s.handleNudge); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", event.DisplayRefreshTopic, err)
	}

	return nil
}

func (s *RefreshSubscriber) Stop(ctx context.Context) error {
	return nil
}

func (s *RefreshSubscriber) handleNudge(ctx context.Context, msg []byte) error {
	s.logger.Debug("refresh nudge received")
	if err := s.refresher.Refresh(ctx); err != nil {
		s.logger.Errorf("Nudged refresh failed: %v", err)
	}
	return nil
}
