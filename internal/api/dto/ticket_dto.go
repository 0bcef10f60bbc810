package dto

import (
	"time"

	"github.com/spec-kit/dispatch-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	QuoteNo     string `json:"quote_no"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Value       int    `json:"value"`
}

// ClaimTicketRequest payload. Partners are 0-3 other workers sharing the
// payout.
type ClaimTicketRequest struct {
	Partners []string `json:"partners"`
}

// TicketSummary response.
type TicketSummary struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	QuoteNo     string              `json:"quote_no,omitempty"`
	Description string              `json:"description,omitempty"`
	Category    string              `json:"category"`
	Value       int                 `json:"value"`
	Status      domain.TicketStatus `json:"status"`
	WorkerID    string              `json:"worker_id,omitempty"`
	PartnerIDs  []string            `json:"partner_ids,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
}

// NewTicketSummary maps a domain ticket.
func NewTicketSummary(t *domain.Ticket) TicketSummary {
	return TicketSummary{
		ID:          t.ID,
		Title:       t.Title,
		QuoteNo:     t.QuoteNo,
		Description: t.Description,
		Category:    t.Category,
		Value:       t.Value,
		Status:      t.Status,
		WorkerID:    t.WorkerID,
		PartnerIDs:  t.PartnerIDs,
		CreatedAt:   t.CreatedAt,
	}
}

// RefreshResponse reports collection staleness for the calling client.
type RefreshResponse struct {
	Changed   bool   `json:"changed"`
	Signature string `json:"signature"`
}

// SuggestionResponse carries the classifier draft for human review.
type SuggestionResponse struct {
	QuoteNo     string `json:"quote_no"`
	Community   string `json:"community"`
	Project     string `json:"project"`
	Description string `json:"description"`
	Value       int    `json:"value"`
	Category    string `json:"category"`
	IsUrgent    bool   `json:"is_urgent"`
	Title       string `json:"title"`
}
