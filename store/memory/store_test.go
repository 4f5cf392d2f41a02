package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ticketflow/conductor/store"
)

func seededStore() *Store {
	s := New()
	s.Seed(
		[]store.Product{{ID: "p1", Gender: "women", Category: "dress"}},
		[]store.Customer{{ID: "c1", Name: "Ada"}},
		[]store.Order{{ID: "o1", CustomerID: "c1"}},
		[]store.KBArticle{{Title: "Returns", Content: "how to return an item"}},
		[]store.FAQEntry{{Question: "what is your refund policy"}},
	)
	return s
}

func TestStoreSearchProductsFiltersByGenderAndCategory(t *testing.T) {
	s := seededStore()

	products, err := s.SearchProducts(context.Background(), "women", "dress")
	require.NoError(t, err)
	require.Len(t, products, 1)

	products, err = s.SearchProducts(context.Background(), "men", "")
	require.NoError(t, err)
	require.Empty(t, products)
}

func TestStoreGetCustomerOrders(t *testing.T) {
	s := seededStore()

	orders, err := s.GetCustomerOrders(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, "o1", orders[0].ID)
}

func TestStoreSearchKnowledgeBaseAndFAQ(t *testing.T) {
	s := seededStore()

	articles, err := s.SearchKnowledgeBase(context.Background(), "RETURN")
	require.NoError(t, err)
	require.Len(t, articles, 1)

	faqs, err := s.SearchFAQ(context.Background(), "refund")
	require.NoError(t, err)
	require.Len(t, faqs, 1)
}

func TestStorePurchaseLifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()

	id, err := s.CreatePurchase(ctx, "c1", []store.PurchaseItem{{ProductID: "p1", Quantity: 1}})
	require.NoError(t, err)

	require.NoError(t, s.UpdatePurchase(ctx, id, map[string]any{"status": "paid"}))

	purchase, ok, err := s.GetPurchase(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "paid", purchase.Status)

	require.NoError(t, s.ScheduleDelivery(ctx, id, "express", "1 Infinite Loop"))
	purchase, _, err = s.GetPurchase(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "scheduled", purchase.Status)

	alterationID, err := s.CreateAlterationRequest(ctx, id, map[string]any{"hem": "2in"})
	require.NoError(t, err)
	require.NotEmpty(t, alterationID)
}

func TestStoreUpdatePurchaseUnknownIDErrors(t *testing.T) {
	s := New()
	err := s.UpdatePurchase(context.Background(), "missing", map[string]any{"status": "x"})
	require.Error(t, err)
}

func TestStoreMeasurementsRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, ok, err := s.GetCustomerMeasurements(ctx, "c1", "women")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.SaveMeasurements(ctx, "c1", "women", map[string]any{"waist": "28in"}))

	data, ok, err := s.GetCustomerMeasurements(ctx, "c1", "women")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "28in", data["waist"])
}
