package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/events"
	"github.com/spec-kit/dispatch-service/internal/repository"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

// TicketService coordinates the work-order lifecycle. Every transition is
// written through the record store as one batched update; busy-lock checks
// are recomputed from the Active set on each call, never cached in a flag.
type TicketService struct {
	tickets    repository.TicketStore
	workers    repository.WorkerStore
	taxonomy   domain.Taxonomy
	dispatcher events.Dispatcher
}

// TicketDependencies bundles requirements for the ticket service.
type TicketDependencies struct {
	TicketStore repository.TicketStore
	WorkerStore repository.WorkerStore
	Taxonomy    domain.Taxonomy
	Dispatcher  events.Dispatcher
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	QuoteNo     string
	Description string
	Category    string
	Value       int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketStore,
		workers:    deps.WorkerStore,
		taxonomy:   deps.Taxonomy,
		dispatcher: deps.Dispatcher,
	}
}

// Create publishes a new Open ticket. Value is fixed here for the life of
// the ticket.
func (s *TicketService) Create(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}
	if input.Value < 0 {
		return nil, apperrors.NewValidationError("value must be non-negative", map[string]any{"value": input.Value})
	}
	if !s.taxonomy.Contains(input.Category) {
		return nil, apperrors.NewValidationError("unknown category", map[string]any{"category": input.Category})
	}

	ticket := &domain.Ticket{
		ID:          generateTicketID(),
		Title:       title,
		QuoteNo:     domain.NormalizeQuoteNo(input.QuoteNo),
		Description: strings.TrimSpace(input.Description),
		Category:    input.Category,
		Value:       input.Value,
		Status:      domain.TicketStatusOpen,
		CreatedAt:   time.Now(),
	}
	if err := s.tickets.Append(ctx, ticket); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    adminActor(),
		Payload: events.TicketCreatedPayload{
			Title:    ticket.Title,
			Category: ticket.Category,
			Value:    ticket.Value,
			QuoteNo:  ticket.QuoteNo,
		},
	})
	return ticket, nil
}

// Claim moves an Open ticket to Active for the claiming worker and an
// optional team of up to three partners. Every member of the team, the
// claimant included, must pass the busy-lock check. Treating partners the
// same as the claimant here is a product rule to confirm, not an accident.
func (s *TicketService) Claim(ctx context.Context, workerName, ticketID string, partners []string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := requireTransition(ticket.Status, domain.TicketStatusActive); err != nil {
		return nil, err
	}

	partners, err = s.validatePartners(ctx, workerName, partners)
	if err != nil {
		return nil, err
	}

	all, err := s.tickets.List(ctx)
	if err != nil {
		return nil, err
	}
	team := append([]string{workerName}, partners...)
	for _, member := range team {
		if isBusy(all, member) {
			return nil, apperrors.NewConflict("worker already holds an active ticket", map[string]any{"worker": member})
		}
	}

	// Partners always written, clearing any leftover team from a prior cycle.
	if err := s.tickets.WriteStatusUpdate(ctx, ticket.ID, domain.TicketStatusActive, &workerName, partners); err != nil {
		return nil, err
	}

	ticket.Status = domain.TicketStatusActive
	ticket.WorkerID = workerName
	ticket.PartnerIDs = partners
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketClaimed,
		TicketID: ticket.ID,
		Actor:    workerActor(workerName),
		Payload: events.TicketClaimedPayload{
			WorkerID:   workerName,
			PartnerIDs: partners,
		},
	})
	return ticket, nil
}

// Report moves an Active ticket to Pending. Only the primary worker may
// report completion; partners cannot.
func (s *TicketService) Report(ctx context.Context, workerName, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := requireTransition(ticket.Status, domain.TicketStatusPending); err != nil {
		return nil, err
	}
	if ticket.WorkerID != workerName {
		return nil, apperrors.NewForbidden("only the primary worker can report completion")
	}

	return s.transition(ctx, ticket, domain.TicketStatusPending, events.EventTicketReported, workerActor(workerName))
}

// Approve finalizes a Pending ticket. This is the only transition that makes
// the ticket eligible for payout allocation and releases the busy lock.
func (s *TicketService) Approve(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := requireTransition(ticket.Status, domain.TicketStatusDone); err != nil {
		return nil, err
	}
	return s.transition(ctx, ticket, domain.TicketStatusDone, events.EventTicketApproved, adminActor())
}

// Reject returns a Pending ticket to its primary worker, team untouched.
func (s *TicketService) Reject(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status != domain.TicketStatusPending {
		return nil, apperrors.NewConflict("only pending tickets can be rejected", map[string]any{
			"ticket_id": ticket.ID,
			"status":    ticket.Status,
		})
	}
	return s.transition(ctx, ticket, domain.TicketStatusActive, events.EventTicketRejected, adminActor())
}

// Reopen resets a stalled Active or Pending ticket to Open, clearing the
// primary worker and the team and releasing every member's busy lock.
func (s *TicketService) Reopen(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := requireTransition(ticket.Status, domain.TicketStatusOpen); err != nil {
		return nil, err
	}

	oldStatus := ticket.Status
	if err := s.tickets.WriteStatusUpdate(ctx, ticket.ID, domain.TicketStatusOpen, nil, nil); err != nil {
		return nil, err
	}
	ticket.Status = domain.TicketStatusOpen
	ticket.WorkerID = ""
	ticket.PartnerIDs = nil
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketReopened,
		TicketID: ticket.ID,
		Actor:    adminActor(),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: domain.TicketStatusOpen,
		},
	})
	return ticket, nil
}

// List returns all tickets, optionally filtered by status.
func (s *TicketService) List(ctx context.Context, status *domain.TicketStatus) ([]domain.Ticket, error) {
	tickets, err := s.tickets.List(ctx)
	if err != nil {
		return nil, err
	}
	if status == nil {
		return tickets, nil
	}
	filtered := make([]domain.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if t.Status == *status {
			filtered = append(filtered, t)
		}
	}
	return filtered, nil
}

// ListOpenByGroup returns Open tickets in the project or maintenance group.
func (s *TicketService) ListOpenByGroup(ctx context.Context, group string) ([]domain.Ticket, error) {
	tickets, err := s.tickets.List(ctx)
	if err != nil {
		return nil, err
	}
	filtered := make([]domain.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if t.Status != domain.TicketStatusOpen {
			continue
		}
		switch group {
		case "project":
			if s.taxonomy.IsProject(t.Category) {
				filtered = append(filtered, t)
			}
		case "maintenance":
			if s.taxonomy.IsMaintenance(t.Category) {
				filtered = append(filtered, t)
			}
		default:
			filtered = append(filtered, t)
		}
	}
	return filtered, nil
}

// ListMine returns the worker's current assignments (Active or Pending,
// as primary or partner).
func (s *TicketService) ListMine(ctx context.Context, workerName string) ([]domain.Ticket, error) {
	tickets, err := s.tickets.List(ctx)
	if err != nil {
		return nil, err
	}
	mine := make([]domain.Ticket, 0)
	for _, t := range tickets {
		if t.Status != domain.TicketStatusActive && t.Status != domain.TicketStatusPending {
			continue
		}
		if t.HasMember(workerName) {
			mine = append(mine, t)
		}
	}
	return mine, nil
}

// IsBusy reports whether the worker currently holds any Active ticket, as
// primary or partner. Membership is recomputed from the Active set on every
// call; a cached busy bit and reality drifting apart is the bug class this
// avoids.
func (s *TicketService) IsBusy(ctx context.Context, workerName string) (bool, error) {
	tickets, err := s.tickets.List(ctx)
	if err != nil {
		return false, err
	}
	return isBusy(tickets, workerName), nil
}

func isBusy(tickets []domain.Ticket, workerName string) bool {
	for i := range tickets {
		if tickets[i].Status != domain.TicketStatusActive {
			continue
		}
		if tickets[i].HasMember(workerName) {
			return true
		}
	}
	return false
}

func (s *TicketService) validatePartners(ctx context.Context, claimant string, partners []string) ([]string, error) {
	cleaned := make([]string, 0, len(partners))
	seen := make(map[string]struct{}, len(partners))
	for _, p := range partners {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if p == claimant {
			return nil, apperrors.NewValidationError("claimant cannot be their own partner", map[string]any{"partner": p})
		}
		if _, dup := seen[p]; dup {
			return nil, apperrors.NewValidationError("duplicate partner", map[string]any{"partner": p})
		}
		seen[p] = struct{}{}
		cleaned = append(cleaned, p)
	}
	if len(cleaned) > domain.MaxPartners {
		return nil, apperrors.NewValidationError("too many partners", map[string]any{"max": domain.MaxPartners})
	}
	for _, p := range cleaned {
		if _, err := s.workers.GetByName(ctx, p); err != nil {
			return nil, err
		}
	}
	return cleaned, nil
}

func (s *TicketService) transition(ctx context.Context, ticket *domain.Ticket, next domain.TicketStatus, eventType events.EventType, actor events.Actor) (*domain.Ticket, error) {
	oldStatus := ticket.Status
	if err := s.tickets.WriteStatusUpdate(ctx, ticket.ID, next, nil, nil); err != nil {
		return nil, err
	}
	ticket.Status = next
	s.publishEvent(ctx, events.Event{
		Type:     eventType,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: next,
		},
	})
	return ticket, nil
}

var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusOpen:    {domain.TicketStatusActive},
	domain.TicketStatusActive:  {domain.TicketStatusPending, domain.TicketStatusOpen},
	domain.TicketStatusPending: {domain.TicketStatusDone, domain.TicketStatusActive, domain.TicketStatusOpen},
	domain.TicketStatusDone:    {},
}

// IsValidTransition reports whether the lifecycle permits current→next.
func IsValidTransition(current, next domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

func requireTransition(current, next domain.TicketStatus) error {
	if !IsValidTransition(current, next) {
		return apperrors.NewConflict("invalid status transition", map[string]any{
			"from": current,
			"to":   next,
		})
	}
	return nil
}

func generateTicketID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func adminActor() events.Actor {
	return events.Actor{Type: domain.SubjectTypeAdmin}
}

func workerActor(name string) events.Actor {
	return events.Actor{Type: domain.SubjectTypeWorker, WorkerName: name}
}
