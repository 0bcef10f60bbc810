package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/dispatch-service/internal/repository"
)

type memSignatureStore struct {
	values map[string]string
}

func newMemSignatureStore() *memSignatureStore {
	return &memSignatureStore{values: map[string]string{}}
}

func (s *memSignatureStore) Get(_ context.Context, clientKey string) (string, error) {
	return s.values[clientKey], nil
}

func (s *memSignatureStore) Set(_ context.Context, clientKey, signature string) error {
	s.values[clientKey] = signature
	return nil
}

var _ repository.SignatureStore = (*memSignatureStore)(nil)

func TestSignatureEmptyCollection(t *testing.T) {
	f := newFixture()
	refresh := NewRefreshService(f.tickets, newMemSignatureStore())

	sig, err := refresh.Signature(context.Background())
	require.NoError(t, err)
	assert.Equal(t, EmptySignature, sig)
}

func TestSignatureTracksMaxima(t *testing.T) {
	f := newFixture(
		ticketRow("b-ticket", "Fire Protection", 100, "Open", "", "", "2026-08-02 10:00:00"),
		ticketRow("z-ticket", "Fire Protection", 100, "Done", "amy", "", "2026-08-01 09:00:00"),
	)
	refresh := NewRefreshService(f.tickets, newMemSignatureStore())

	// max timestamp and max id come from different rows
	sig, err := refresh.Signature(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2026-08-02 10:00:00|z-ticket", sig)
}

func TestHasNewTickets(t *testing.T) {
	f := newFixture(
		ticketRow("t1", "Fire Protection", 100, "Open", "", "", "2026-08-01 09:00:00"),
	)
	store := newMemSignatureStore()
	refresh := NewRefreshService(f.tickets, store)
	ctx := context.Background()

	// first observation adopts the baseline silently
	changed, sig, err := refresh.HasNewTickets(ctx, "worker:amy")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, "2026-08-01 09:00:00|t1", sig)
	assert.Equal(t, sig, store.values["worker:amy"])

	// unchanged collection stays quiet
	changed, _, err = refresh.HasNewTickets(ctx, "worker:amy")
	require.NoError(t, err)
	assert.False(t, changed)

	// a new row moves the signature for amy but not for a fresh client
	f.ws.AppendRow(ctx, ticketRow("t2", "Fire Protection", 50, "Open", "", "", "2026-08-02 11:00:00")) //nolint:errcheck
	f.tickets.Invalidate()

	changed, sig, err = refresh.HasNewTickets(ctx, "worker:amy")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "2026-08-02 11:00:00|t2", sig)

	// detection alone does not move the baseline
	changed, _, err = refresh.HasNewTickets(ctx, "worker:amy")
	require.NoError(t, err)
	assert.True(t, changed)

	require.NoError(t, refresh.MarkSeen(ctx, "worker:amy"))
	changed, _, err = refresh.HasNewTickets(ctx, "worker:amy")
	require.NoError(t, err)
	assert.False(t, changed)
}
