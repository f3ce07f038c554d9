// Package queue carries the audit trail: domain events published to RabbitMQ
// and the consumer that appends them to the audit log.
package queue

import "time"

// AuditQueue is the durable queue every event is routed to.
const AuditQueue = "travel.audit"

type EventType string

const (
	AccountRegistered      EventType = "account.registered"
	AccountPasswordChanged EventType = "account.password_changed"
	AccountDeleted         EventType = "account.deleted"
	TripCreated            EventType = "trip.created"
	TripUpdated            EventType = "trip.updated"
	TripDeleted            EventType = "trip.deleted"
)

// Event is the message body. ActorID is the account that caused the event,
// when there is one.
type Event struct {
	Type       EventType `json:"type"`
	AccountID  string    `json:"account_id,omitempty"`
	TripID     string    `json:"trip_id,omitempty"`
	ActorID    string    `json:"actor_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
