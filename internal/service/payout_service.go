package service

import (
	"context"

	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/repository"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

// SplitValue divides a ticket value across a team of teamSize workers.
// Integer division avoids currency drift; the remainder goes to the primary
// worker as a deterministic, auditable tie-break. primary + (teamSize-1) *
// others always equals value exactly.
func SplitValue(value, teamSize int) (primary, others int) {
	if teamSize <= 0 {
		return 0, 0
	}
	share := value / teamSize
	rem := value % teamSize
	return share + rem, share
}

// PayoutService computes revenue allocation on demand. Splits are never
// persisted; they are recomputed per worker per month from Done tickets.
type PayoutService struct {
	tickets repository.TicketStore
	workers repository.WorkerStore
	target  int
}

// NewPayoutService constructs the service. target is the monthly goal used
// for the anonymous progress summary.
func NewPayoutService(tickets repository.TicketStore, workers repository.WorkerStore, target int) *PayoutService {
	return &PayoutService{tickets: tickets, workers: workers, target: target}
}

// MonthlyTotal sums the worker's payout across every Done ticket created in
// the given YYYY-MM month where they are a team member.
func (s *PayoutService) MonthlyTotal(ctx context.Context, workerName, month string) (int, error) {
	if workerName == "" {
		return 0, apperrors.NewValidationError("worker name required", nil)
	}
	tickets, err := s.tickets.List(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for i := range tickets {
		t := &tickets[i]
		if t.Status != domain.TicketStatusDone || t.CreatedMonth() != month {
			continue
		}
		team := t.Team()
		if len(team) == 0 || !t.HasMember(workerName) {
			continue
		}
		primary, others := SplitValue(t.Value, len(team))
		if workerName == t.WorkerID {
			total += primary
		} else {
			total += others
		}
	}
	return total, nil
}

// ProgressSummary buckets workers by monthly progress against the target.
// Names are intentionally absent; only the distribution is reported.
type ProgressSummary struct {
	Target   int `json:"target"`
	Hit      int `json:"hit"`
	Rushing  int `json:"rushing"`
	Steady   int `json:"steady"`
	Starting int `json:"starting"`
}

// MonthlySummary computes the anonymous team progress distribution for the
// given month: at target, past half, earning, or not yet started.
func (s *PayoutService) MonthlySummary(ctx context.Context, month string) (*ProgressSummary, error) {
	workers, err := s.workers.List(ctx)
	if err != nil {
		return nil, err
	}

	summary := &ProgressSummary{Target: s.target}
	for _, w := range workers {
		total, err := s.MonthlyTotal(ctx, w.Name, month)
		if err != nil {
			return nil, err
		}
		switch {
		case total >= s.target:
			summary.Hit++
		case total >= s.target/2:
			summary.Rushing++
		case total > 0:
			summary.Steady++
		default:
			summary.Starting++
		}
	}
	return summary, nil
}
