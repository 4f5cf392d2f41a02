package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/ticketflow/conductor/domain"
	"github.com/ticketflow/conductor/store"
)

// Archive implements store.TicketArchive against a dedicated
// ticket_archive collection, separate from the domain-tool collections
// Store wraps above, since archived tickets are read by operators and
// analytics rather than by specialist tools.
type Archive struct {
	archive collection
}

var _ store.TicketArchive = (*Archive)(nil)

// NewArchive returns an Archive backed by opts.Client.
func NewArchive(opts Options) (*Archive, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("mongo client is required")
	}
	if opts.Database == "" {
		return nil, fmt.Errorf("database name is required")
	}
	db := opts.Client.Database(opts.Database)
	return &Archive{archive: mongoCollection{db.Collection("ticket_archive")}}, nil
}

// Archive upserts ticket's final snapshot by TicketID, so a retried call
// after a transient Mongo error never creates a duplicate record.
func (a *Archive) Archive(ctx context.Context, ticket domain.Ticket) error {
	ctx, cancel := context.WithTimeout(ctx, defaultOpTimeout)
	defer cancel()
	_, err := a.archive.UpdateOne(ctx,
		bson.M{"_id": ticket.TicketID},
		bson.M{"$set": ticket},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("archive ticket %q: %w", ticket.TicketID, err)
	}
	return nil
}
