package messaging

import (
	"context"

	"github.com/feral-file/ff-token-scanner/internal/domain"
)

// Publisher defines the interface for publishing token discovery events
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// PublishTokenDiscovered publishes an event after a token record is written
	PublishTokenDiscovered(ctx context.Context, event *domain.TokenDiscoveredEvent) error
	// Close closes the connection
	Close()
}

type noopPublisher struct{}

// NewNoopPublisher returns a Publisher that drops every event
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) PublishTokenDiscovered(context.Context, *domain.TokenDiscoveredEvent) error {
	return nil
}

func (noopPublisher) Close() {}
