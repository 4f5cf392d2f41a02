// Package mongo implements store.Store on top of MongoDB, following the
// same thin-collection-wrapper shape used elsewhere in this module's
// teacher lineage: a small interface over *mongo.Collection (FindOne,
// UpdateOne, InsertOne, Find, Indexes) so tests can substitute a fake
// without a live server.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/ticketflow/conductor/store"
)

const defaultOpTimeout = 5 * time.Second

// Options configures the Mongo-backed store.
type Options struct {
	Client   *mongodriver.Client
	Database string
	Timeout  time.Duration
}

// Store implements store.Store against one Mongo database, using one
// collection per record kind (products, customers, orders, purchases,
// measurements, knowledge_base, faq).
type Store struct {
	products     collection
	customers    collection
	orders       collection
	purchases    collection
	measurements collection
	kb           collection
	faq          collection
	policy       collection
	timeout      time.Duration
}

// New returns a Store backed by opts.Client.
func New(opts Options) (*Store, error) {
	if opts.Client == nil {
		return nil, errors.New("mongo client is required")
	}
	if opts.Database == "" {
		return nil, errors.New("database name is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultOpTimeout
	}
	db := opts.Client.Database(opts.Database)
	s := &Store{
		products:     mongoCollection{db.Collection("products")},
		customers:    mongoCollection{db.Collection("customers")},
		orders:       mongoCollection{db.Collection("orders")},
		purchases:    mongoCollection{db.Collection("purchases")},
		measurements: mongoCollection{db.Collection("measurements")},
		kb:           mongoCollection{db.Collection("knowledge_base")},
		faq:          mongoCollection{db.Collection("faq")},
		policy:       mongoCollection{db.Collection("policy")},
		timeout:      timeout,
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	uniqueID := mongodriver.IndexModel{Keys: bson.D{{Key: "_id", Value: 1}}}
	for _, c := range []collection{s.products, s.customers, s.orders, s.purchases} {
		if _, err := c.Indexes().CreateOne(ctx, uniqueID); err != nil {
			return fmt.Errorf("ensure index: %w", err)
		}
	}
	return nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Store) GetCatalog(ctx context.Context) ([]store.Product, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	cur, err := s.products.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	var out []store.Product
	err = cur.All(ctx, &out)
	return out, err
}

func (s *Store) GetProduct(ctx context.Context, id string) (store.Product, bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	var p store.Product
	err := s.products.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongodriver.ErrNoDocuments) {
		return store.Product{}, false, nil
	}
	return p, err == nil, err
}

func (s *Store) SearchProducts(ctx context.Context, gender, category string) ([]store.Product, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	filter := bson.M{}
	if gender != "" {
		filter["gender"] = gender
	}
	if category != "" {
		filter["category"] = category
	}
	cur, err := s.products.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	var out []store.Product
	err = cur.All(ctx, &out)
	return out, err
}

func (s *Store) GetCustomer(ctx context.Context, id string) (store.Customer, bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	var c store.Customer
	err := s.customers.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if errors.Is(err, mongodriver.ErrNoDocuments) {
		return store.Customer{}, false, nil
	}
	return c, err == nil, err
}

func (s *Store) GetCustomers(ctx context.Context) ([]store.Customer, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	cur, err := s.customers.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	var out []store.Customer
	err = cur.All(ctx, &out)
	return out, err
}

func (s *Store) GetOrder(ctx context.Context, id string) (store.Order, bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	var o store.Order
	err := s.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&o)
	if errors.Is(err, mongodriver.ErrNoDocuments) {
		return store.Order{}, false, nil
	}
	return o, err == nil, err
}

func (s *Store) GetCustomerOrders(ctx context.Context, customerID string) ([]store.Order, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	cur, err := s.orders.Find(ctx, bson.M{"customer_id": customerID})
	if err != nil {
		return nil, err
	}
	var out []store.Order
	err = cur.All(ctx, &out)
	return out, err
}

func (s *Store) SearchKnowledgeBase(ctx context.Context, query string) ([]store.KBArticle, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	cur, err := s.kb.Find(ctx, bson.M{"$text": bson.M{"$search": query}})
	if err != nil {
		return nil, err
	}
	var out []store.KBArticle
	err = cur.All(ctx, &out)
	return out, err
}

func (s *Store) SearchFAQ(ctx context.Context, query string) ([]store.FAQEntry, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	cur, err := s.faq.Find(ctx, bson.M{"$text": bson.M{"$search": query}})
	if err != nil {
		return nil, err
	}
	var out []store.FAQEntry
	err = cur.All(ctx, &out)
	return out, err
}

func (s *Store) GetReturnPolicy(ctx context.Context) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	var doc struct {
		Text string `bson:"text"`
	}
	err := s.policy.FindOne(ctx, bson.M{"_id": "current"}).Decode(&doc)
	if errors.Is(err, mongodriver.ErrNoDocuments) {
		return "", nil
	}
	return doc.Text, err
}

func (s *Store) CreatePurchase(ctx context.Context, customerID string, items []store.PurchaseItem) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	id := newPurchaseID()
	doc := bson.M{"_id": id, "customer_id": customerID, "items": items, "status": "created"}
	_, err := s.purchases.InsertOne(ctx, doc)
	return id, err
}

func (s *Store) UpdatePurchase(ctx context.Context, id string, updates map[string]any) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	set := bson.M{}
	for k, v := range updates {
		set[k] = v
	}
	_, err := s.purchases.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	return err
}

func (s *Store) GetPurchase(ctx context.Context, id string) (store.Purchase, bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	var p store.Purchase
	err := s.purchases.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongodriver.ErrNoDocuments) {
		return store.Purchase{}, false, nil
	}
	return p, err == nil, err
}

func (s *Store) SaveMeasurements(ctx context.Context, customerID, gender string, data map[string]any) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	id := customerID + "/" + gender
	_, err := s.measurements.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"data": data}}, options.Update().SetUpsert(true))
	return err
}

func (s *Store) GetCustomerMeasurements(ctx context.Context, customerID, gender string) (map[string]any, bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	var doc struct {
		Data map[string]any `bson:"data"`
	}
	id := customerID + "/" + gender
	err := s.measurements.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongodriver.ErrNoDocuments) {
		return nil, false, nil
	}
	return doc.Data, err == nil, err
}

func (s *Store) SaveBilling(ctx context.Context, purchaseID string, data map[string]any) error {
	return s.UpdatePurchase(ctx, purchaseID, map[string]any{"billing": data, "status": "billed"})
}

func (s *Store) ScheduleDelivery(ctx context.Context, purchaseID, option_, address string) error {
	return s.UpdatePurchase(ctx, purchaseID, map[string]any{
		"delivery_option":  option_,
		"delivery_address": address,
		"status":           "scheduled",
	})
}

func (s *Store) CreateAlterationRequest(ctx context.Context, purchaseID string, details map[string]any) (string, error) {
	id := newPurchaseID()
	if err := s.UpdatePurchase(ctx, purchaseID, map[string]any{"alteration": details, "alteration_id": id}); err != nil {
		return "", err
	}
	return id, nil
}

func newPurchaseID() string {
	return "purchase-" + time.Now().UTC().Format("20060102T150405.000000000")
}
