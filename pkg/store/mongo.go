package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	pkgio "github.com/matzehuels/gitdag/pkg/io"
	"github.com/matzehuels/gitdag/pkg/report"
)

// Defaults for [MongoConfig].
const (
	DefaultDatabase   = "gitdag"
	DefaultCollection = "reports"
	connectTimeout    = 10 * time.Second
)

// MongoConfig configures a [MongoStore].
type MongoConfig struct {
	URI        string
	Database   string // defaults to DefaultDatabase
	Collection string // defaults to DefaultCollection
}

// document is the stored form of a report. Graph holds the exported JSON.
type document struct {
	ID        string    `bson:"_id"`
	Caption   string    `bson:"caption"`
	CreatedAt time.Time `bson:"created_at"`
	Nodes     int       `bson:"nodes"`
	Graph     string    `bson:"graph"`
}

// MongoStore keeps snapshots in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB, verifies the connection, and ensures
// the created_at index exists.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongo uri is empty")
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}

	opts := options.Client().ApplyURI(cfg.URI).SetConnectTimeout(connectTimeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	index := mongo.IndexModel{Keys: bson.D{{Key: "created_at", Value: -1}}}
	if _, err := coll.Indexes().CreateOne(ctx, index); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo index: %w", err)
	}
	return &MongoStore{client: client, coll: coll}, nil
}

func (s *MongoStore) Save(ctx context.Context, r *report.Report) error {
	if r.ID == "" {
		return errors.New("report has no id")
	}
	var buf bytes.Buffer
	if err := pkgio.WriteJSON(r, &buf); err != nil {
		return err
	}
	doc := document{
		ID:        r.ID,
		Caption:   r.Caption,
		CreatedAt: r.CreatedAt.UTC(),
		Nodes:     len(r.Nodes),
		Graph:     buf.String(),
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.coll.ReplaceOne(ctx, bson.M{"_id": r.ID}, doc, opts); err != nil {
		return fmt.Errorf("mongo save %s: %w", r.ID, err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*report.Report, error) {
	return s.findOne(ctx, bson.M{"_id": id}, options.FindOne())
}

func (s *MongoStore) Latest(ctx context.Context) (*report.Report, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return s.findOne(ctx, bson.M{}, opts)
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*report.Report, error) {
	var doc document
	err := s.coll.FindOne(ctx, filter, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	r, err := pkgio.ReadJSON(strings.NewReader(doc.Graph))
	if err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", doc.ID, err)
	}
	return r, nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
