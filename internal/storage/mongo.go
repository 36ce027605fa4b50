package storage

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nao1215/gravelscan/internal/model"
)

// MongoCollection is the collection listings are stored in.
const MongoCollection = "listings"

// MongoSink upserts listings into a MongoDB collection keyed by URL.
type MongoSink struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

// OpenMongo connects to uri and prepares the listings collection of
// database.
func OpenMongo(ctx context.Context, uri, database string) (*MongoSink, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	coll := client.Database(database).Collection(MongoCollection)
	_, err = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "url", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "brand", Value: 1}}},
		{Keys: bson.D{{Key: "price", Value: 1}}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to create mongodb indexes: %w", err)
	}

	return &MongoSink{client: client, coll: coll, now: time.Now}, nil
}

// Name implements Sink.
func (s *MongoSink) Name() string {
	return "mongodb"
}

// Push upserts listings and returns the number of inserted or modified
// documents.
func (s *MongoSink) Push(ctx context.Context, listings []model.Listing) (int, error) {
	if len(listings) == 0 {
		return 0, nil
	}
	models := mongoUpserts(listings, s.now())
	res, err := s.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, fmt.Errorf("failed to write listings: %w", err)
	}
	return int(res.UpsertedCount + res.ModifiedCount), nil
}

// Close implements Sink.
func (s *MongoSink) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func mongoUpserts(listings []model.Listing, seen time.Time) []mongo.WriteModel {
	models := make([]mongo.WriteModel, 0, len(listings))
	for i := range listings {
		l := &listings[i]
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.D{{Key: "url", Value: l.URL}}).
			SetUpdate(bson.D{
				{Key: "$set", Value: mongoDocument(l, seen)},
				{Key: "$setOnInsert", Value: bson.D{{Key: "first_seen", Value: seen}}},
			}).
			SetUpsert(true))
	}
	return models
}

func mongoDocument(l *model.Listing, seen time.Time) bson.D {
	doc := bson.D{
		{Key: "url", Value: l.URL},
		{Key: "title", Value: l.Title},
		{Key: "price", Value: l.Price},
		{Key: "location", Value: l.Location},
		{Key: "date_added", Value: l.DateAdded},
		{Key: "description", Value: l.DescriptionText()},
		{Key: "parameters", Value: l.Parameters},
		{Key: "last_seen", Value: seen},
	}
	if l.Year != nil {
		doc = append(doc, bson.E{Key: "year", Value: *l.Year})
	}
	for _, field := range model.CategoricalFields {
		if v, ok := l.Attribute(field); ok {
			doc = append(doc, bson.E{Key: field, Value: v})
		}
	}
	return doc
}
