package events

import (
	"time"

	"github.com/spec-kit/dispatch-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated  EventType = "ticket_created"
	EventTicketClaimed  EventType = "ticket_claimed"
	EventTicketReported EventType = "ticket_reported"
	EventTicketApproved EventType = "ticket_approved"
	EventTicketRejected EventType = "ticket_rejected"
	EventTicketReopened EventType = "ticket_reopened"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type       domain.SubjectType `json:"type"`
	WorkerName string             `json:"worker_name,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	Value    int    `json:"value"`
	QuoteNo  string `json:"quote_no,omitempty"`
}

// TicketClaimedPayload payload.
type TicketClaimedPayload struct {
	WorkerID   string   `json:"worker_id"`
	PartnerIDs []string `json:"partner_ids,omitempty"`
}

// TicketStatusChangedPayload payload for report/approve/reject/reopen.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}
