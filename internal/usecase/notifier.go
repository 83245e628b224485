package usecase

import (
	"context"
	"time"
)

// EventType enumerates the state transitions worth announcing.
type EventType string

const (
	EventInviteCreated       EventType = "invite.created"
	EventJoinRequestCreated  EventType = "join_request.created"
	EventRequestAccepted     EventType = "request.accepted"
	EventRequestRejected     EventType = "request.rejected"
	EventApplicationApproved EventType = "application.approved"
	EventApplicationRejected EventType = "application.rejected"
)

// Event is a post-commit notification payload. Delivery is at-least-once
// and strictly after the core transaction; a failed delivery never rolls
// anything back.
type Event struct {
	Type           EventType `json:"type"`
	CompetitionID  string    `json:"competitionId,omitempty"`
	TeamID         string    `json:"teamId,omitempty"`
	UserID         string    `json:"userId,omitempty"`
	RequestID      string    `json:"requestId,omitempty"`
	ApplicationID  string    `json:"applicationId,omitempty"`
	RegistrationID string    `json:"registrationId,omitempty"`
	OccurredAt     time.Time `json:"occurredAt"`
}

// Notifier hands events to the delivery collaborator. Implementations must
// not block the caller beyond enqueueing.
type Notifier interface {
	Publish(ctx context.Context, event Event)
}

// NopNotifier drops every event. Used when no delivery target is
// configured and in tests that do not care about notifications.
type NopNotifier struct{}

func (NopNotifier) Publish(context.Context, Event) {}
