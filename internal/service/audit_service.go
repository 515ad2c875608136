package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/cheese-market/internal/cache"
	"github.com/spec-kit/cheese-market/internal/events"
)

// AuditService logs domain events and keeps the listing cache coherent.
// Handlers run synchronously inside the publishing request.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cache      *cache.ListingCache
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger, listingCache *cache.ListingCache) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger,
		cache:      listingCache,
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventListingCreated, a.handleListingEvent)
	a.dispatcher.Subscribe(events.EventListingUpdated, a.handleListingEvent)
	a.dispatcher.Subscribe(events.EventListingDeleted, a.handleListingEvent)
	a.dispatcher.Subscribe(events.EventUserRegistered, a.handleUserRegistered)
}

func (a *AuditService) handleListingEvent(ctx context.Context, event events.Event) error {
	a.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.Any("payload", event.Payload))

	if event.Type == events.EventListingCreated {
		return nil
	}
	if payload, ok := event.Payload.(events.ListingPayload); ok {
		a.cache.Invalidate(ctx, payload.ListingID)
	}
	return nil
}

func (a *AuditService) handleUserRegistered(_ context.Context, event events.Event) error {
	a.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.Any("payload", event.Payload))
	return nil
}
