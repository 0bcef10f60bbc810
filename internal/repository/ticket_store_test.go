package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/sheets"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

var ticketHeader = []string{
	HeaderID, HeaderTitle, HeaderQuoteNo, HeaderDescription, HeaderCategory,
	HeaderValue, HeaderStatus, HeaderWorkerID, HeaderCreatedAt, HeaderPartnerIDs,
}

func ticketRow(id, title, quoteNo, status, workerID, createdAt, partners, value string) []string {
	return []string{id, title, quoteNo, "", "Fire Protection", value, status, workerID, createdAt, partners}
}

func newTestTicketStore(ws sheets.Worksheet, at time.Time) *sheetTicketStore {
	return &sheetTicketStore{ws: ws, ttl: time.Minute, now: func() time.Time { return at }}
}

func TestTicketStoreList(t *testing.T) {
	ws := sheets.NewMemWorksheet([][]string{
		ticketHeader,
		ticketRow("t1", "Pump room", "QuoteNo: Q-1", "Open", "", "2026-08-01 09:00:00", "", "1200"),
		ticketRow("", "ghost row", "", "Open", "", "", "", ""),
		ticketRow("t2", "Lobby light", "Q-2", "Active", "amy", "2026-08-02 10:30:00", "ben,cho", "900.0"),
	})
	store := newTestTicketStore(ws, time.Now())

	tickets, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, tickets, 2)

	assert.Equal(t, "Q-1", tickets[0].QuoteNo)
	assert.Equal(t, 1200, tickets[0].Value)
	assert.Equal(t, domain.TicketStatusOpen, tickets[0].Status)

	assert.Equal(t, "amy", tickets[1].WorkerID)
	assert.Equal(t, []string{"ben", "cho"}, tickets[1].PartnerIDs)
	assert.Equal(t, 900, tickets[1].Value)
	assert.Equal(t, "2026-08", tickets[1].CreatedMonth())
}

func TestTicketStoreListSchemaError(t *testing.T) {
	ws := sheets.NewMemWorksheet([][]string{
		{HeaderID, HeaderTitle, HeaderStatus},
	})
	store := newTestTicketStore(ws, time.Now())

	_, err := store.List(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "SCHEMA_ERROR"))
}

func TestTicketStoreListEmptyWorksheet(t *testing.T) {
	store := newTestTicketStore(sheets.NewMemWorksheet(nil), time.Now())

	tickets, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tickets)
}

func TestTicketStoreSnapshotCache(t *testing.T) {
	ws := sheets.NewMemWorksheet([][]string{
		ticketHeader,
		ticketRow("t1", "Pump room", "Q-1", "Open", "", "2026-08-01 09:00:00", "", "100"),
	})
	store := newTestTicketStore(ws, time.Now())
	ctx := context.Background()

	_, err := store.List(ctx)
	require.NoError(t, err)

	// out-of-band edit invisible until the cache is dropped
	ws.SetCell(2, 7, "Done")

	tickets, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, tickets[0].Status)

	store.Invalidate()
	tickets, err = store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusDone, tickets[0].Status)
}

func TestTicketStoreGetByID(t *testing.T) {
	ws := sheets.NewMemWorksheet([][]string{
		ticketHeader,
		ticketRow("t1", "Pump room", "Q-1", "Open", "", "2026-08-01 09:00:00", "", "100"),
	})
	store := newTestTicketStore(ws, time.Now())
	ctx := context.Background()

	ticket, err := store.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "Pump room", ticket.Title)

	_, err = store.GetByID(ctx, "missing")
	assert.True(t, apperrors.IsCode(err, "ROW_NOT_FOUND"))
}

func TestTicketStoreAppendPlacesCellsByHeaderName(t *testing.T) {
	// column order deliberately differs from the usual layout
	ws := sheets.NewMemWorksheet([][]string{
		{HeaderStatus, HeaderID, HeaderCreatedAt, HeaderTitle, HeaderValue,
			HeaderQuoteNo, HeaderDescription, HeaderCategory, HeaderWorkerID, HeaderPartnerIDs},
	})
	store := newTestTicketStore(ws, time.Now())
	ctx := context.Background()

	created, _ := time.Parse(domain.CreatedAtLayout, "2026-08-10 08:00:00")
	require.NoError(t, store.Append(ctx, &domain.Ticket{
		ID:        "t9",
		Title:     "Roof leak",
		QuoteNo:   "Q-9",
		Category:  "Resident Repair",
		Value:     450,
		Status:    domain.TicketStatusOpen,
		CreatedAt: created,
	}))

	row, err := ws.RowValues(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Open", row[0])
	assert.Equal(t, "t9", row[1])
	assert.Equal(t, "2026-08-10 08:00:00", row[2])
	assert.Equal(t, "Roof leak", row[3])
	assert.Equal(t, "450", row[4])

	tickets, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, "t9", tickets[0].ID)
}

func TestTicketStoreAppendSchemaError(t *testing.T) {
	ws := sheets.NewMemWorksheet([][]string{{HeaderID, HeaderTitle}})
	store := newTestTicketStore(ws, time.Now())

	err := store.Append(context.Background(), &domain.Ticket{ID: "t1", Status: domain.TicketStatusOpen})
	assert.True(t, apperrors.IsCode(err, "SCHEMA_ERROR"))
}

func TestTicketStoreWriteStatusUpdate(t *testing.T) {
	ws := sheets.NewMemWorksheet([][]string{
		ticketHeader,
		ticketRow("t1", "Pump room", "Q-1", "Open", "", "2026-08-01 09:00:00", "", "100"),
	})
	store := newTestTicketStore(ws, time.Now())
	ctx := context.Background()

	worker := "amy"
	require.NoError(t, store.WriteStatusUpdate(ctx, "t1", domain.TicketStatusActive, &worker, []string{"ben"}))

	row, err := ws.RowValues(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Active", row[6])
	assert.Equal(t, "amy", row[7])
	assert.Equal(t, "ben", row[9])

	// the write dropped the snapshot, so the next read sees the transition
	tickets, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusActive, tickets[0].Status)
}

func TestTicketStoreWriteStatusUpdateReopenClearsAssignment(t *testing.T) {
	ws := sheets.NewMemWorksheet([][]string{
		ticketHeader,
		ticketRow("t1", "Pump room", "Q-1", "Active", "amy", "2026-08-01 09:00:00", "ben", "100"),
	})
	store := newTestTicketStore(ws, time.Now())
	ctx := context.Background()

	require.NoError(t, store.WriteStatusUpdate(ctx, "t1", domain.TicketStatusOpen, nil, nil))

	row, err := ws.RowValues(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Open", row[6])
	assert.Equal(t, "", row[7])
	assert.Equal(t, "", row[9])
}

func TestTicketStoreWriteStatusUpdateUnknownID(t *testing.T) {
	ws := sheets.NewMemWorksheet([][]string{
		ticketHeader,
		ticketRow("t1", "Pump room", "Q-1", "Open", "", "2026-08-01 09:00:00", "", "100"),
	})
	store := newTestTicketStore(ws, time.Now())

	err := store.WriteStatusUpdate(context.Background(), "missing", domain.TicketStatusActive, nil, nil)
	assert.True(t, apperrors.IsCode(err, "ROW_NOT_FOUND"))
}

func TestTicketStoreWriteRecoversFromRowShift(t *testing.T) {
	ws := sheets.NewMemWorksheet([][]string{
		ticketHeader,
		ticketRow("t1", "Pump room", "Q-1", "Open", "", "2026-08-01 09:00:00", "", "100"),
		ticketRow("t2", "Lobby light", "Q-2", "Open", "", "2026-08-02 10:00:00", "", "200"),
	})
	at := time.Now()
	store := newTestTicketStore(ws, at)

	// a human inserted a row above t2 after the index was built
	store.rowIndex = map[string]int{"t1": 2, "t2": 3}
	store.indexAt = at
	ws.InsertRow(2, ticketRow("t0", "Inserted", "Q-0", "Open", "", "2026-08-03 09:00:00", "", "50"))

	worker := "amy"
	require.NoError(t, store.WriteStatusUpdate(context.Background(), "t2", domain.TicketStatusActive, &worker, []string{}))

	row, err := ws.RowValues(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "t2", row[0])
	assert.Equal(t, "Active", row[6])
	assert.Equal(t, "amy", row[7])

	// the inserted row must be untouched
	inserted, err := ws.RowValues(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Open", inserted[6])
}

func TestTicketStoreWriteRowRelocated(t *testing.T) {
	ws := sheets.NewMemWorksheet([][]string{
		ticketHeader,
		ticketRow("t1", "Pump room", "Q-1", "Open", "", "2026-08-01 09:00:00", "", "100"),
		ticketRow("t2", "Lobby light", "Q-2", "Open", "", "2026-08-02 10:00:00", "", "200"),
	})
	at := time.Now()
	store := newTestTicketStore(ws, at)

	store.rowIndex = map[string]int{"t1": 2, "t2": 3}
	store.indexAt = at
	ws.DeleteRow(3)

	err := store.WriteStatusUpdate(context.Background(), "t2", domain.TicketStatusActive, nil, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "ROW_RELOCATED"))

	// the surviving row must not have been written to
	row, rerr := ws.RowValues(context.Background(), 2)
	require.NoError(t, rerr)
	assert.Equal(t, "Open", row[6])
}

func TestTicketStorePing(t *testing.T) {
	good := newTestTicketStore(sheets.NewMemWorksheet([][]string{ticketHeader}), time.Now())
	assert.NoError(t, good.Ping(context.Background()))

	bad := newTestTicketStore(sheets.NewMemWorksheet([][]string{{HeaderID}}), time.Now())
	assert.Error(t, bad.Ping(context.Background()))
}
