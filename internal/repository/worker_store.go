package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/sheets"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

// Worker worksheet header names.
const (
	WorkerHeaderName     = "name"
	WorkerHeaderPassword = "password"
	WorkerHeaderTeam     = "team"
)

var requiredWorkerHeaders = []string{WorkerHeaderName, WorkerHeaderPassword}

// WorkerStore reads the worker directory worksheet. The team column is
// optional and used only for display.
type WorkerStore interface {
	List(ctx context.Context) ([]domain.Worker, error)
	GetByName(ctx context.Context, name string) (*domain.Worker, error)
	Invalidate()
}

type sheetWorkerStore struct {
	ws  sheets.Worksheet
	ttl time.Duration
	now func() time.Time

	mu         sync.Mutex
	snapshot   []domain.Worker
	snapshotAt time.Time
}

// NewWorkerStore instantiates the store over a worksheet.
func NewWorkerStore(ws sheets.Worksheet, ttl time.Duration) WorkerStore {
	return &sheetWorkerStore{ws: ws, ttl: ttl, now: time.Now}
}

func (s *sheetWorkerStore) List(ctx context.Context) ([]domain.Worker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot != nil && s.now().Sub(s.snapshotAt) < s.ttl {
		return append([]domain.Worker(nil), s.snapshot...), nil
	}

	rows, err := s.ws.Values(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		s.snapshot = []domain.Worker{}
		s.snapshotAt = s.now()
		return []domain.Worker{}, nil
	}

	hmap := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		h = strings.TrimSpace(h)
		if h != "" {
			hmap[h] = i + 1
		}
	}
	var missing []string
	for _, h := range requiredWorkerHeaders {
		if _, ok := hmap[h]; !ok {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewSchemaError(missing)
	}

	workers := make([]domain.Worker, 0, len(rows)-1)
	for _, row := range rows[1:] {
		name := cell(row, hmap[WorkerHeaderName])
		if name == "" {
			continue
		}
		workers = append(workers, domain.Worker{
			Name:       name,
			Credential: cell(row, hmap[WorkerHeaderPassword]),
			Team:       cell(row, hmap[WorkerHeaderTeam]),
		})
	}

	s.snapshot = workers
	s.snapshotAt = s.now()
	return append([]domain.Worker(nil), workers...), nil
}

func (s *sheetWorkerStore) GetByName(ctx context.Context, name string) (*domain.Worker, error) {
	workers, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range workers {
		if workers[i].Name == name {
			return &workers[i], nil
		}
	}
	return nil, apperrors.NewNotFound("worker", map[string]any{"name": name})
}

func (s *sheetWorkerStore) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = nil
}
