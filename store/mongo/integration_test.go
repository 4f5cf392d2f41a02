package mongo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/ticketflow/conductor/domain"
	"github.com/ticketflow/conductor/store"
)

// TestMongoStoreAndArchiveIntegration exercises Store and Archive against a
// real MongoDB instance started via testcontainers, rather than the
// constructor-only unit tests in store_test.go/archive_test.go. Skips
// cleanly when Docker isn't available in the environment running the test.
func TestMongoStoreAndArchiveIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-backed integration test in -short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForLog("Waiting for connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("docker not available, skipping: %v", err)
	}
	defer container.Terminate(ctx)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "27017")
	require.NoError(t, err)

	client, err := mongodriver.Connect(options.Client().ApplyURI(fmt.Sprintf("mongodb://%s:%s", host, port.Port())))
	require.NoError(t, err)
	defer client.Disconnect(ctx)
	require.NoError(t, client.Ping(ctx, nil))

	s, err := New(Options{Client: client, Database: "conductor_test"})
	require.NoError(t, err)

	purchaseID, err := s.CreatePurchase(ctx, "cust-1", []store.PurchaseItem{
		{ProductID: "prod-1", Size: "M", Quantity: 2, Price: 19.99},
	})
	require.NoError(t, err)
	require.NotEmpty(t, purchaseID)

	purchase, found, err := s.GetPurchase(ctx, purchaseID)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "cust-1", purchase.CustomerID)

	require.NoError(t, s.UpdatePurchase(ctx, purchaseID, map[string]any{"status": "shipped"}))
	purchase, _, err = s.GetPurchase(ctx, purchaseID)
	require.NoError(t, err)
	require.Equal(t, "shipped", purchase.Status)

	require.NoError(t, s.ScheduleDelivery(ctx, purchaseID, "express", "221B Baker St"))

	archive, err := NewArchive(Options{Client: client, Database: "conductor_test"})
	require.NoError(t, err)

	ticket := domain.Ticket{TicketID: "ticket-int-1", CustomerID: "cust-1", Status: domain.StatusResolved}
	require.NoError(t, archive.Archive(ctx, ticket))

	// Archiving again (the upsert-by-TicketID path) must not create a
	// duplicate record.
	ticket.ResolutionSummary = "resolved on retry"
	require.NoError(t, archive.Archive(ctx, ticket))

	collection := client.Database("conductor_test").Collection("ticket_archive")
	count, err := collection.CountDocuments(ctx, map[string]any{"_id": "ticket-int-1"})
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	var got domain.Ticket
	require.NoError(t, collection.FindOne(ctx, map[string]any{"_id": "ticket-int-1"}).Decode(&got))
	require.Equal(t, "resolved on retry", got.ResolutionSummary)
}
