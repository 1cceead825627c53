package prescription

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const pingTimeout = 2 * time.Second

type mongoRecord struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	ExtractedText string             `bson:"extracted_text"`
	UploadDate    time.Time          `bson:"upload_date"`
}

// MongoConnector lazily connects to MongoDB and pings on every acquisition.
type MongoConnector struct {
	URI        string
	Database   string
	Collection string

	mu     sync.Mutex
	client *mongo.Client
}

func NewMongoConnector(uri, database, collection string) *MongoConnector {
	return &MongoConnector{URI: uri, Database: database, Collection: collection}
}

func (c *MongoConnector) Acquire(ctx context.Context) (Store, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if c.client == nil {
		client, err := mongo.Connect(pingCtx, options.Client().ApplyURI(c.URI))
		if err != nil {
			return nil, err
		}
		c.client = client
	}

	if err := c.client.Ping(pingCtx, readpref.Primary()); err != nil {
		return nil, err
	}

	coll := c.client.Database(c.Database).Collection(c.Collection)
	return &MongoStore{coll: coll}, nil
}

func (c *MongoConnector) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil
	}
	err := c.client.Disconnect(ctx)
	c.client = nil
	return err
}

// MongoStore keeps extracted texts in a MongoDB collection.
type MongoStore struct {
	coll *mongo.Collection
}

func (s *MongoStore) Insert(ctx context.Context, extractedText string, uploadDate time.Time) (string, error) {
	res, err := s.coll.InsertOne(ctx, mongoRecord{
		ExtractedText: extractedText,
		UploadDate:    uploadDate,
	})
	if err != nil {
		return "", err
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", mongo.ErrNilDocument
	}
	return id.Hex(), nil
}

func (s *MongoStore) ListAll(ctx context.Context) ([]Record, error) {
	cur, err := s.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "upload_date", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Record
	for cur.Next(ctx) {
		var doc mongoRecord
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, Record{
			Key:           doc.ID.Hex(),
			ExtractedText: doc.ExtractedText,
			UploadDate:    doc.UploadDate,
		})
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
