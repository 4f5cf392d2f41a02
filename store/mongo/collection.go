package mongo

import (
	"context"

	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// collection is the slice of *mongo.Collection this store needs, narrowed
// so tests can substitute a fake instead of a live server — the same shape
// as the teacher's collection/indexView/singleResult split.
type collection interface {
	FindOne(ctx context.Context, filter any) singleResult
	Find(ctx context.Context, filter any) (cursor, error)
	InsertOne(ctx context.Context, doc any) (any, error)
	UpdateOne(ctx context.Context, filter, update any, opts ...*options.UpdateOptions) (*mongodriver.UpdateResult, error)
	Indexes() indexView
}

type singleResult interface {
	Decode(dest any) error
}

type cursor interface {
	All(ctx context.Context, dest any) error
}

type indexView interface {
	CreateOne(ctx context.Context, model mongodriver.IndexModel) (string, error)
}

type mongoCollection struct {
	c *mongodriver.Collection
}

func (m mongoCollection) FindOne(ctx context.Context, filter any) singleResult {
	return mongoSingleResult{m.c.FindOne(ctx, filter)}
}

func (m mongoCollection) Find(ctx context.Context, filter any) (cursor, error) {
	cur, err := m.c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	return mongoCursor{cur}, nil
}

func (m mongoCollection) InsertOne(ctx context.Context, doc any) (any, error) {
	res, err := m.c.InsertOne(ctx, doc)
	if err != nil {
		return nil, err
	}
	return res.InsertedID, nil
}

func (m mongoCollection) UpdateOne(ctx context.Context, filter, update any, opts ...*options.UpdateOptions) (*mongodriver.UpdateResult, error) {
	return m.c.UpdateOne(ctx, filter, update, opts...)
}

func (m mongoCollection) Indexes() indexView {
	return mongoIndexView{m.c.Indexes()}
}

type mongoSingleResult struct {
	r *mongodriver.SingleResult
}

func (m mongoSingleResult) Decode(dest any) error { return m.r.Decode(dest) }

type mongoCursor struct {
	c *mongodriver.Cursor
}

func (m mongoCursor) All(ctx context.Context, dest any) error { return m.c.All(ctx, dest) }

type mongoIndexView struct {
	v mongodriver.IndexView
}

func (m mongoIndexView) CreateOne(ctx context.Context, model mongodriver.IndexModel) (string, error) {
	return m.v.CreateOne(ctx, model)
}
