package repository

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/sheets"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

// Ticket worksheet header names. Column order is always resolved by name so
// the external schema can gain columns without breaking writes.
const (
	HeaderID          = "id"
	HeaderTitle       = "title"
	HeaderQuoteNo     = "externalReferenceNo"
	HeaderDescription = "description"
	HeaderCategory    = "category"
	HeaderValue       = "value"
	HeaderStatus      = "status"
	HeaderWorkerID    = "primaryWorkerId"
	HeaderCreatedAt   = "createdAt"
	HeaderPartnerIDs  = "teammateIds"
)

var requiredTicketHeaders = []string{
	HeaderID,
	HeaderTitle,
	HeaderQuoteNo,
	HeaderDescription,
	HeaderCategory,
	HeaderValue,
	HeaderStatus,
	HeaderWorkerID,
	HeaderCreatedAt,
	HeaderPartnerIDs,
}

// TicketStore presents the row-oriented ticket worksheet as a keyed record
// store. Reads go through a short-TTL snapshot cache; the id→row index is a
// cache too and is re-validated before every in-place write because the
// sheet can be edited out of band.
type TicketStore interface {
	List(ctx context.Context) ([]domain.Ticket, error)
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	Append(ctx context.Context, ticket *domain.Ticket) error
	WriteStatusUpdate(ctx context.Context, id string, status domain.TicketStatus, workerID *string, partnerIDs []string) error
	Invalidate()
	Ping(ctx context.Context) error
}

type sheetTicketStore struct {
	ws  sheets.Worksheet
	ttl time.Duration
	now func() time.Time

	mu         sync.Mutex
	snapshot   []domain.Ticket
	snapshotAt time.Time
	rowIndex   map[string]int
	indexAt    time.Time
}

// NewTicketStore instantiates the store over a worksheet.
func NewTicketStore(ws sheets.Worksheet, ttl time.Duration) TicketStore {
	return &sheetTicketStore{ws: ws, ttl: ttl, now: time.Now}
}

// headerMap reads the header row fresh from the store. Never cached: the
// whole point of name-resolved columns is surviving out-of-band schema edits.
func (s *sheetTicketStore) headerMap(ctx context.Context) (map[string]int, error) {
	row, err := s.ws.RowValues(ctx, 1)
	if err != nil {
		return nil, err
	}
	hmap := make(map[string]int, len(row))
	for i, h := range row {
		h = strings.TrimSpace(h)
		if h != "" {
			hmap[h] = i + 1
		}
	}
	var missing []string
	for _, h := range requiredTicketHeaders {
		if _, ok := hmap[h]; !ok {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewSchemaError(missing)
	}
	return hmap, nil
}

// List returns the ticket collection from the snapshot cache, refreshing it
// when expired. An empty worksheet yields an empty slice, not an error.
func (s *sheetTicketStore) List(ctx context.Context) ([]domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot != nil && s.now().Sub(s.snapshotAt) < s.ttl {
		return cloneTickets(s.snapshot), nil
	}

	rows, err := s.ws.Values(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		s.snapshot = []domain.Ticket{}
		s.snapshotAt = s.now()
		return []domain.Ticket{}, nil
	}

	hmap := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		h = strings.TrimSpace(h)
		if h != "" {
			hmap[h] = i + 1
		}
	}
	var missing []string
	for _, h := range requiredTicketHeaders {
		if _, ok := hmap[h]; !ok {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewSchemaError(missing)
	}

	tickets := make([]domain.Ticket, 0, len(rows)-1)
	for _, row := range rows[1:] {
		id := cell(row, hmap[HeaderID])
		if id == "" {
			continue
		}
		tickets = append(tickets, domain.Ticket{
			ID:          id,
			Title:       cell(row, hmap[HeaderTitle]),
			QuoteNo:     domain.NormalizeQuoteNo(cell(row, hmap[HeaderQuoteNo])),
			Description: cell(row, hmap[HeaderDescription]),
			Category:    cell(row, hmap[HeaderCategory]),
			Value:       coerceInt(cell(row, hmap[HeaderValue])),
			Status:      domain.TicketStatus(cell(row, hmap[HeaderStatus])),
			WorkerID:    cell(row, hmap[HeaderWorkerID]),
			PartnerIDs:  domain.SplitPartnerIDs(cell(row, hmap[HeaderPartnerIDs])),
			CreatedAt:   parseCreatedAt(cell(row, hmap[HeaderCreatedAt])),
		})
	}

	s.snapshot = tickets
	s.snapshotAt = s.now()
	return cloneTickets(tickets), nil
}

// GetByID resolves a ticket from the collection snapshot.
func (s *sheetTicketStore) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	tickets, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tickets {
		if tickets[i].ID == id {
			return &tickets[i], nil
		}
	}
	return nil, apperrors.NewRowNotFound(id)
}

// Append writes a new ticket row. Cells are placed by header name read fresh
// from the first row; a missing required header fails loudly.
func (s *sheetTicketStore) Append(ctx context.Context, ticket *domain.Ticket) error {
	hmap, err := s.headerMap(ctx)
	if err != nil {
		return err
	}

	maxCol := 0
	for _, col := range hmap {
		if col > maxCol {
			maxCol = col
		}
	}
	row := make([]string, maxCol)
	row[hmap[HeaderID]-1] = ticket.ID
	row[hmap[HeaderTitle]-1] = ticket.Title
	row[hmap[HeaderQuoteNo]-1] = ticket.QuoteNo
	row[hmap[HeaderDescription]-1] = ticket.Description
	row[hmap[HeaderCategory]-1] = ticket.Category
	row[hmap[HeaderValue]-1] = strconv.Itoa(ticket.Value)
	row[hmap[HeaderStatus]-1] = string(ticket.Status)
	row[hmap[HeaderWorkerID]-1] = ticket.WorkerID
	row[hmap[HeaderCreatedAt]-1] = ticket.CreatedAt.Format(domain.CreatedAtLayout)
	row[hmap[HeaderPartnerIDs]-1] = domain.JoinPartnerIDs(ticket.PartnerIDs)

	if err := s.ws.AppendRow(ctx, row); err != nil {
		return err
	}
	s.Invalidate()
	return nil
}

// WriteStatusUpdate performs one logical status transition as a single
// batched write. Before writing it re-reads the cell expected to hold the id
// at the cached row position; on mismatch it rescans the id column once and
// fails with ROW_RELOCATED if the id is truly gone. There is no
// compare-and-swap on the status cell: concurrent writers are last-write-wins
// at this boundary, the seam where an optimistic version check would go.
func (s *sheetTicketStore) WriteStatusUpdate(ctx context.Context, id string, status domain.TicketStatus, workerID *string, partnerIDs []string) error {
	hmap, err := s.headerMap(ctx)
	if err != nil {
		return err
	}
	idCol := hmap[HeaderID]

	rowNum, err := s.resolveRow(ctx, id, idCol)
	if err != nil {
		return err
	}

	cellVal, err := s.ws.Cell(ctx, rowNum, idCol)
	if err != nil {
		return err
	}
	if strings.TrimSpace(cellVal) != id {
		rowNum, err = s.recoverRow(ctx, id, idCol)
		if err != nil {
			return err
		}
	}

	updates := []sheets.CellUpdate{
		{Row: rowNum, Col: hmap[HeaderStatus], Value: string(status)},
	}
	if workerID != nil {
		updates = append(updates, sheets.CellUpdate{Row: rowNum, Col: hmap[HeaderWorkerID], Value: *workerID})
	}
	if partnerIDs != nil {
		updates = append(updates, sheets.CellUpdate{Row: rowNum, Col: hmap[HeaderPartnerIDs], Value: domain.JoinPartnerIDs(partnerIDs)})
	} else if status == domain.TicketStatusOpen {
		// Administrative reopen clears the whole assignment.
		updates = append(updates,
			sheets.CellUpdate{Row: rowNum, Col: hmap[HeaderWorkerID], Value: ""},
			sheets.CellUpdate{Row: rowNum, Col: hmap[HeaderPartnerIDs], Value: ""},
		)
	}

	if err := s.ws.BatchUpdate(ctx, updates); err != nil {
		return err
	}
	s.Invalidate()
	return nil
}

// Invalidate drops both the row-index cache and the collection snapshot.
func (s *sheetTicketStore) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = nil
	s.rowIndex = nil
}

// Ping verifies the worksheet is reachable and carries the required schema.
func (s *sheetTicketStore) Ping(ctx context.Context) error {
	_, err := s.headerMap(ctx)
	return err
}

// resolveRow looks the id up in the cached index, rebuilding the index when
// expired or on a miss. A miss after rebuild is ROW_NOT_FOUND.
func (s *sheetTicketStore) resolveRow(ctx context.Context, id string, idCol int) (int, error) {
	s.mu.Lock()
	index := s.rowIndex
	fresh := index != nil && s.now().Sub(s.indexAt) < s.ttl
	s.mu.Unlock()

	if fresh {
		if row, ok := index[id]; ok {
			return row, nil
		}
	}

	index, err := s.buildIndex(ctx, idCol)
	if err != nil {
		return 0, err
	}
	row, ok := index[id]
	if !ok {
		return 0, apperrors.NewRowNotFound(id)
	}
	return row, nil
}

// buildIndex scans the id column top to bottom, skipping the header row and
// blank cells, and caches the resulting id→row mapping.
func (s *sheetTicketStore) buildIndex(ctx context.Context, idCol int) (map[string]int, error) {
	ids, err := s.ws.ColValues(ctx, idCol)
	if err != nil {
		return nil, err
	}
	index := make(map[string]int, len(ids))
	for i, v := range ids {
		rowNum := i + 1
		if rowNum == 1 {
			continue
		}
		v = strings.TrimSpace(v)
		if v != "" {
			index[v] = rowNum
		}
	}
	s.mu.Lock()
	s.rowIndex = index
	s.indexAt = s.now()
	s.mu.Unlock()
	return index, nil
}

// recoverRow rescans the id column after a row-identity mismatch, which
// happens when a human inserts or deletes rows out of band.
func (s *sheetTicketStore) recoverRow(ctx context.Context, id string, idCol int) (int, error) {
	index, err := s.buildIndex(ctx, idCol)
	if err != nil {
		return 0, err
	}
	row, ok := index[id]
	if !ok {
		return 0, apperrors.NewRowRelocated(id)
	}
	return row, nil
}

func cell(row []string, col int) string {
	if col <= 0 || col > len(row) {
		return ""
	}
	return strings.TrimSpace(row[col-1])
}

func coerceInt(s string) int {
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

func parseCreatedAt(s string) time.Time {
	t, err := time.Parse(domain.CreatedAtLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func cloneTickets(in []domain.Ticket) []domain.Ticket {
	out := make([]domain.Ticket, len(in))
	copy(out, in)
	for i := range out {
		if in[i].PartnerIDs != nil {
			out[i].PartnerIDs = append([]string(nil), in[i].PartnerIDs...)
		}
	}
	return out
}
