package store

import (
	"context"

	"github.com/ticketflow/conductor/domain"
)

// TicketArchive persists a ticket's final snapshot once it reaches a
// terminal status, independent of the catalog/order Store above — a ticket
// archive record has nothing to do with the domain-tool persistence
// contract and outlives the Temporal workflow history retention window.
type TicketArchive interface {
	// Archive records ticket's state at the moment it became terminal.
	// Called at most once per ticket (the Ticket Conductor only transitions
	// into a terminal status once); callers may still retry on error, so
	// implementations should make repeat calls for the same TicketID an
	// idempotent upsert rather than an error.
	Archive(ctx context.Context, ticket domain.Ticket) error
}
