package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ticketflow/conductor/domain"
)

func TestArchiveUpsertsByTicketID(t *testing.T) {
	a := NewArchive()
	ctx := context.Background()

	ticket := domain.Ticket{TicketID: "ticket-1", Status: domain.StatusResolved}
	require.NoError(t, a.Archive(ctx, ticket))

	got, ok := a.Get("ticket-1")
	require.True(t, ok)
	require.Equal(t, domain.StatusResolved, got.Status)

	ticket.Status = domain.StatusClosed
	ticket.LastUpdated = time.Now()
	require.NoError(t, a.Archive(ctx, ticket))

	got, ok = a.Get("ticket-1")
	require.True(t, ok)
	require.Equal(t, domain.StatusClosed, got.Status, "a second archive call for the same ticket overwrites, not duplicates")
}

func TestArchiveGetMissingTicket(t *testing.T) {
	a := NewArchive()
	_, ok := a.Get("does-not-exist")
	require.False(t, ok)
}
