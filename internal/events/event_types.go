package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventListingCreated EventType = "listing_created"
	EventListingUpdated EventType = "listing_updated"
	EventListingDeleted EventType = "listing_deleted"
	EventUserRegistered EventType = "user_registered"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ListingPayload accompanies listing lifecycle events.
type ListingPayload struct {
	ListingID string `json:"listing_id"`
	OwnerID   string `json:"owner_id"`
	Title     string `json:"title"`
	ActorID   string `json:"actor_id,omitempty"`
}

// UserRegisteredPayload accompanies user registration events.
type UserRegisteredPayload struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}
