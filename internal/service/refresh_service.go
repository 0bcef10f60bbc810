package service

import (
	"context"

	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/repository"
)

// EmptySignature is returned when the ticket collection is empty.
const EmptySignature = "EMPTY"

// RefreshService lets independent clients cheaply decide whether to refetch
// the ticket collection. The signature is a heuristic fingerprint, tolerant
// of false negatives (an edit that moves neither the max id nor the max
// timestamp) but never of uncorrectable false positives; a manual refresh
// always converges.
type RefreshService struct {
	tickets    repository.TicketStore
	signatures repository.SignatureStore
}

// NewRefreshService constructs the service.
func NewRefreshService(tickets repository.TicketStore, signatures repository.SignatureStore) *RefreshService {
	return &RefreshService{tickets: tickets, signatures: signatures}
}

// Signature fingerprints the collection as maxCreatedAt|maxID. The createdAt
// layout orders lexicographically, so string max is chronological max; the
// id is compared as an opaque string.
func (s *RefreshService) Signature(ctx context.Context) (string, error) {
	tickets, err := s.tickets.List(ctx)
	if err != nil {
		return "", err
	}
	if len(tickets) == 0 {
		return EmptySignature, nil
	}
	maxCreated := ""
	maxID := ""
	for i := range tickets {
		created := tickets[i].CreatedAt.Format(domain.CreatedAtLayout)
		if created > maxCreated {
			maxCreated = created
		}
		if tickets[i].ID > maxID {
			maxID = tickets[i].ID
		}
	}
	return maxCreated + "|" + maxID, nil
}

// HasNewTickets compares the current signature to the client's stored
// baseline. On first observation it adopts the current signature and reports
// no change, so a client's first load never rings the new-ticket bell.
func (s *RefreshService) HasNewTickets(ctx context.Context, clientKey string) (bool, string, error) {
	current, err := s.Signature(ctx)
	if err != nil {
		return false, "", err
	}
	lastSeen, err := s.signatures.Get(ctx, clientKey)
	if err != nil {
		return false, "", err
	}
	if lastSeen == "" {
		if err := s.signatures.Set(ctx, clientKey, current); err != nil {
			return false, "", err
		}
		return false, current, nil
	}
	return current != lastSeen, current, nil
}

// MarkSeen adopts the current signature as the client's baseline.
func (s *RefreshService) MarkSeen(ctx context.Context, clientKey string) error {
	current, err := s.Signature(ctx)
	if err != nil {
		return err
	}
	return s.signatures.Set(ctx, clientKey, current)
}
