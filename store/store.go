// Package store defines the catalog/customer/order/measurement persistence
// contract (spec §6: "Persistence layer contract ... the engine depends on
// these operations existing"). It is a pure data-access boundary: every
// tool that reads or writes domain records (order search, refund
// eligibility, measurement validation, billing, delivery, alteration) goes
// through a Store rather than talking to a database directly, so the same
// tool set runs against store/memory in tests and store/mongo in
// production.
//
// The spec describes each operation as returning "a success flag + payload
// or error string"; this module follows Go idiom instead and returns
// (value, error), with a boolean "found" result where the spec implies a
// lookup that may legitimately miss (see DESIGN.md's Open Question log).
package store

import "context"

type (
	// Product is a catalog entry.
	Product struct {
		ID          string   `json:"id" bson:"_id"`
		Name        string   `json:"name" bson:"name"`
		Gender      string   `json:"gender,omitempty" bson:"gender,omitempty"`
		Category    string   `json:"category,omitempty" bson:"category,omitempty"`
		Price       float64  `json:"price" bson:"price"`
		Sizes       []string `json:"sizes,omitempty" bson:"sizes,omitempty"`
		Description string   `json:"description,omitempty" bson:"description,omitempty"`
	}

	// Customer is a customer profile record.
	Customer struct {
		ID      string         `json:"id" bson:"_id"`
		Name    string         `json:"name" bson:"name"`
		Email   string         `json:"email,omitempty" bson:"email,omitempty"`
		Profile map[string]any `json:"profile,omitempty" bson:"profile,omitempty"`
	}

	// Order is a past order record.
	Order struct {
		ID         string    `json:"id" bson:"_id"`
		CustomerID string    `json:"customer_id" bson:"customer_id"`
		Items      []string  `json:"items,omitempty" bson:"items,omitempty"`
		Status     string    `json:"status" bson:"status"`
		Total      float64   `json:"total" bson:"total"`
		PlacedAt   string    `json:"placed_at,omitempty" bson:"placed_at,omitempty"`
	}

	// Purchase is an in-progress or completed purchase created by the
	// BILLING/DELIVERY specialist flow.
	Purchase struct {
		ID         string         `json:"id" bson:"_id"`
		CustomerID string         `json:"customer_id" bson:"customer_id"`
		Items      []PurchaseItem `json:"items,omitempty" bson:"items,omitempty"`
		Status     string         `json:"status" bson:"status"`
		Updates    map[string]any `json:"updates,omitempty" bson:"updates,omitempty"`
	}

	// PurchaseItem is one line item of a Purchase.
	PurchaseItem struct {
		ProductID string  `json:"product_id" bson:"product_id"`
		Size      string  `json:"size,omitempty" bson:"size,omitempty"`
		Quantity  int     `json:"quantity" bson:"quantity"`
		Price     float64 `json:"price" bson:"price"`
	}

	// KBArticle is a knowledge-base search hit.
	KBArticle struct {
		ID      string `json:"id" bson:"_id"`
		Title   string `json:"title" bson:"title"`
		Content string `json:"content" bson:"content"`
	}

	// FAQEntry is an FAQ search hit.
	FAQEntry struct {
		Question string `json:"question" bson:"question"`
		Answer   string `json:"answer" bson:"answer"`
	}

	// Store is the full persistence-layer contract from spec §6.
	Store interface {
		GetCatalog(ctx context.Context) ([]Product, error)
		GetProduct(ctx context.Context, id string) (Product, bool, error)
		SearchProducts(ctx context.Context, gender, category string) ([]Product, error)

		GetCustomer(ctx context.Context, id string) (Customer, bool, error)
		GetCustomers(ctx context.Context) ([]Customer, error)

		GetOrder(ctx context.Context, id string) (Order, bool, error)
		GetCustomerOrders(ctx context.Context, customerID string) ([]Order, error)
		SearchKnowledgeBase(ctx context.Context, query string) ([]KBArticle, error)
		SearchFAQ(ctx context.Context, query string) ([]FAQEntry, error)
		GetReturnPolicy(ctx context.Context) (string, error)

		CreatePurchase(ctx context.Context, customerID string, items []PurchaseItem) (string, error)
		UpdatePurchase(ctx context.Context, id string, updates map[string]any) error
		GetPurchase(ctx context.Context, id string) (Purchase, bool, error)

		SaveMeasurements(ctx context.Context, customerID, gender string, data map[string]any) error
		GetCustomerMeasurements(ctx context.Context, customerID, gender string) (map[string]any, bool, error)

		SaveBilling(ctx context.Context, purchaseID string, data map[string]any) error
		ScheduleDelivery(ctx context.Context, purchaseID, option, address string) error
		CreateAlterationRequest(ctx context.Context, purchaseID string, details map[string]any) (string, error)
	}
)
