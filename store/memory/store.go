// Package memory provides an in-process Store used by unit tests and local
// development, seeded with a small fixed catalog/customer set rather than
// talking to MongoDB.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ticketflow/conductor/store"
)

// Store is a mutex-guarded, map-backed store.Store.
type Store struct {
	mu sync.RWMutex

	products  map[string]store.Product
	customers map[string]store.Customer
	orders    map[string]store.Order
	purchases map[string]store.Purchase
	kb        []store.KBArticle
	faq       []store.FAQEntry
	policy    string

	measurements map[string]map[string]any
	nextPurchase int
	nextAlter    int
}

// New returns an empty Store. Use Seed to load fixtures.
func New() *Store {
	return &Store{
		products:     map[string]store.Product{},
		customers:    map[string]store.Customer{},
		orders:       map[string]store.Order{},
		purchases:    map[string]store.Purchase{},
		measurements: map[string]map[string]any{},
		policy:       "Items may be returned within 30 days of delivery in original condition.",
	}
}

// Seed loads fixture data; intended for test setup.
func (s *Store) Seed(products []store.Product, customers []store.Customer, orders []store.Order, kb []store.KBArticle, faq []store.FAQEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range products {
		s.products[p.ID] = p
	}
	for _, c := range customers {
		s.customers[c.ID] = c
	}
	for _, o := range orders {
		s.orders[o.ID] = o
	}
	s.kb = append(s.kb, kb...)
	s.faq = append(s.faq, faq...)
}

func (s *Store) GetCatalog(context.Context) ([]store.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	return out, nil
}

func (s *Store) GetProduct(_ context.Context, id string) (store.Product, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	return p, ok, nil
}

func (s *Store) SearchProducts(_ context.Context, gender, category string) ([]store.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []store.Product
	for _, p := range s.products {
		if gender != "" && !strings.EqualFold(p.Gender, gender) {
			continue
		}
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Store) GetCustomer(_ context.Context, id string) (store.Customer, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[id]
	return c, ok, nil
}

func (s *Store) GetCustomers(context.Context) ([]store.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		out = append(out, c)
	}
	return out, nil
}

func (s *Store) GetOrder(_ context.Context, id string) (store.Order, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	return o, ok, nil
}

func (s *Store) GetCustomerOrders(_ context.Context, customerID string) ([]store.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []store.Order
	for _, o := range s.orders {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *Store) SearchKnowledgeBase(_ context.Context, query string) ([]store.KBArticle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []store.KBArticle
	q := strings.ToLower(query)
	for _, a := range s.kb {
		if strings.Contains(strings.ToLower(a.Title), q) || strings.Contains(strings.ToLower(a.Content), q) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Store) SearchFAQ(_ context.Context, query string) ([]store.FAQEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []store.FAQEntry
	q := strings.ToLower(query)
	for _, f := range s.faq {
		if strings.Contains(strings.ToLower(f.Question), q) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *Store) GetReturnPolicy(context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policy, nil
}

func (s *Store) CreatePurchase(_ context.Context, customerID string, items []store.PurchaseItem) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextPurchase++
	id := fmt.Sprintf("purchase-%d", s.nextPurchase)
	s.purchases[id] = store.Purchase{ID: id, CustomerID: customerID, Items: items, Status: "created"}
	return id, nil
}

func (s *Store) UpdatePurchase(_ context.Context, id string, updates map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.purchases[id]
	if !ok {
		return fmt.Errorf("purchase %q not found", id)
	}
	if p.Updates == nil {
		p.Updates = map[string]any{}
	}
	for k, v := range updates {
		p.Updates[k] = v
	}
	if status, ok := updates["status"].(string); ok {
		p.Status = status
	}
	s.purchases[id] = p
	return nil
}

func (s *Store) GetPurchase(_ context.Context, id string) (store.Purchase, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.purchases[id]
	return p, ok, nil
}

func (s *Store) SaveMeasurements(_ context.Context, customerID, gender string, data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.measurements[measurementKey(customerID, gender)] = data
	return nil
}

func (s *Store) GetCustomerMeasurements(_ context.Context, customerID, gender string) (map[string]any, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.measurements[measurementKey(customerID, gender)]
	return data, ok, nil
}

func (s *Store) SaveBilling(_ context.Context, purchaseID string, data map[string]any) error {
	return s.UpdatePurchase(context.Background(), purchaseID, map[string]any{"billing": data, "status": "billed"})
}

func (s *Store) ScheduleDelivery(_ context.Context, purchaseID, option, address string) error {
	return s.UpdatePurchase(context.Background(), purchaseID, map[string]any{
		"delivery_option":  option,
		"delivery_address": address,
		"status":           "scheduled",
	})
}

func (s *Store) CreateAlterationRequest(_ context.Context, purchaseID string, details map[string]any) (string, error) {
	s.mu.Lock()
	s.nextAlter++
	id := fmt.Sprintf("alteration-%d", s.nextAlter)
	s.mu.Unlock()
	if err := s.UpdatePurchase(context.Background(), purchaseID, map[string]any{"alteration": details, "alteration_id": id}); err != nil {
		return "", err
	}
	return id, nil
}

func measurementKey(customerID, gender string) string { return customerID + "/" + gender }
