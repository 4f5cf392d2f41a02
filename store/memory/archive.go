package memory

import (
	"context"
	"sync"

	"github.com/ticketflow/conductor/domain"
	"github.com/ticketflow/conductor/store"
)

// Archive is a mutex-guarded, map-backed store.TicketArchive for tests and
// local development.
type Archive struct {
	mu      sync.RWMutex
	tickets map[string]domain.Ticket
}

var _ store.TicketArchive = (*Archive)(nil)

// NewArchive returns an empty Archive.
func NewArchive() *Archive {
	return &Archive{tickets: map[string]domain.Ticket{}}
}

// Archive upserts ticket by TicketID.
func (a *Archive) Archive(_ context.Context, ticket domain.Ticket) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tickets[ticket.TicketID] = ticket
	return nil
}

// Get returns the archived snapshot for ticketID, for test assertions.
func (a *Archive) Get(ticketID string) (domain.Ticket, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	t, ok := a.tickets[ticketID]
	return t, ok
}
