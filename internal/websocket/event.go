package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents what happened to an entity
type EventType string

const (
	EventTypeCreated  EventType = "created"
	EventTypeUpdated  EventType = "updated"
	EventTypeDeleted  EventType = "deleted"
	EventTypeClosed   EventType = "closed"
	EventTypeRecorded EventType = "recorded"
	EventTypeArchived EventType = "archived"
)

// Reminder event types published by the background worker
const (
	EventTypeOverdue EventType = "overdue"
	EventTypeDueSoon EventType = "due_soon"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeClient   EntityType = "client"
	EntityTypeLoan     EntityType = "loan"
	EntityTypePayment  EntityType = "payment"
	EntityTypeContract EntityType = "contract"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "loan.created"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "loan"
	Payload   interface{} `json:"payload"`   // Entity data
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ClientCreated creates a client.created event
func ClientCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeClient, payload)
}

// ClientUpdated creates a client.updated event
func ClientUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeClient, payload)
}

// ClientDeleted creates a client.deleted event
func ClientDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeClient, payload)
}

// LoanCreated creates a loan.created event
func LoanCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeLoan, payload)
}

// LoanClosed creates a loan.closed event
func LoanClosed(payload interface{}) Event {
	return NewEvent(EventTypeClosed, EntityTypeLoan, payload)
}

// LoanDeleted creates a loan.deleted event
func LoanDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeLoan, payload)
}

// LoansOverdue creates a loan.overdue reminder event
func LoansOverdue(payload interface{}) Event {
	return NewEvent(EventTypeOverdue, EntityTypeLoan, payload)
}

// LoansDueSoon creates a loan.due_soon reminder event
func LoansDueSoon(payload interface{}) Event {
	return NewEvent(EventTypeDueSoon, EntityTypeLoan, payload)
}

// PaymentRecorded creates a payment.recorded event
func PaymentRecorded(payload interface{}) Event {
	return NewEvent(EventTypeRecorded, EntityTypePayment, payload)
}

// ContractArchived creates a contract.archived event
func ContractArchived(payload interface{}) Event {
	return NewEvent(EventTypeArchived, EntityTypeContract, payload)
}
