package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps each Collection in a mongo collection of the same name.
// Items are stored as their raw json text so they read back byte for byte.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

type mongoItem struct {
	ID        string `bson:"_id"`
	Partition string `bson:"pk"`
	Sort      string `bson:"sk"`
	Item      string `bson:"item"`
}

// OpenMongo connects to uri, verifies the connection and makes sure every
// collection is indexed by partition.
func OpenMongo(ctx context.Context, uri, database string) (MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return MongoStore{}, fmt.Errorf("connect: %w", err)
	}
	if err = client.Ping(connectCtx, nil); err != nil {
		client.Disconnect(ctx)
		return MongoStore{}, fmt.Errorf("ping: %w", err)
	}

	s := MongoStore{client: client, db: client.Database(database)}
	for _, collection := range Collections {
		_, err := s.db.Collection(string(collection)).Indexes().CreateMany(connectCtx, []mongo.IndexModel{
			{Keys: bson.D{{Key: "pk", Value: 1}, {Key: "sk", Value: 1}}},
		})
		if err != nil {
			client.Disconnect(ctx)
			return MongoStore{}, fmt.Errorf("create %s indexes: %w", collection, err)
		}
	}
	return s, nil
}

func mongoID(key Key) string {
	return key.Partition + keySeparator + key.Sort
}

func (s MongoStore) Put(ctx context.Context, collection Collection, key Key, value []byte) error {
	_, err := s.db.Collection(string(collection)).ReplaceOne(
		ctx,
		bson.D{{Key: "_id", Value: mongoID(key)}},
		mongoItem{
			ID:        mongoID(key),
			Partition: key.Partition,
			Sort:      key.Sort,
			Item:      string(value),
		},
		options.Replace().SetUpsert(true),
	)
	return err
}

func (s MongoStore) Get(ctx context.Context, collection Collection, key Key) ([]byte, error) {
	var item mongoItem
	err := s.db.Collection(string(collection)).
		FindOne(ctx, bson.D{{Key: "_id", Value: mongoID(key)}}).
		Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(item.Item), nil
}

func (s MongoStore) find(ctx context.Context, collection Collection, filter bson.D) ([]Item, error) {
	cursor, err := s.db.Collection(string(collection)).Find(
		ctx,
		filter,
		options.Find().SetSort(bson.D{{Key: "pk", Value: 1}, {Key: "sk", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	var items []mongoItem
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}

	out := make([]Item, 0, len(items))
	for _, item := range items {
		out = append(out, Item{
			Key:   Key{Partition: item.Partition, Sort: item.Sort},
			Value: []byte(item.Item),
		})
	}
	return out, nil
}

func (s MongoStore) Query(ctx context.Context, collection Collection, partition string) ([]Item, error) {
	return s.find(ctx, collection, bson.D{{Key: "pk", Value: partition}})
}

func (s MongoStore) Scan(ctx context.Context, collection Collection) ([]Item, error) {
	return s.find(ctx, collection, bson.D{})
}

func (s MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
