package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"

	"github.com/Rocknpaper/Blog-site-backend/internal/models"
)

// DocumentStore holds posts and comments, replies embedded in their comment.
type DocumentStore struct {
	client *mongo.Client
	db     *mongo.Database
	log    *zap.Logger
}

// ConnectMongo dials uri, verifies the connection and prepares the indexes.
func ConnectMongo(ctx context.Context, uri, dbName string, log *zap.Logger) (*DocumentStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	log.Info("mongo connected", zap.String("database", dbName))

	s := &DocumentStore{client: client, db: client.Database(dbName), log: log}
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *DocumentStore) Collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}

func (s *DocumentStore) EnsureIndexes(ctx context.Context) error {
	posts := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{Keys: bson.D{{Key: "upvotes.count", Value: -1}}},
	}
	if _, err := s.Collection(models.PostsCollection).Indexes().CreateMany(ctx, posts); err != nil {
		return fmt.Errorf("index %s: %w", models.PostsCollection, err)
	}

	comments := []mongo.IndexModel{
		{Keys: bson.D{{Key: "blog_id", Value: 1}}},
	}
	if _, err := s.Collection(models.CommentsCollection).Indexes().CreateMany(ctx, comments); err != nil {
		return fmt.Errorf("index %s: %w", models.CommentsCollection, err)
	}
	return nil
}

// UpdateOne applies update to the first document matching filter and
// reports how many documents matched.
func (s *DocumentStore) UpdateOne(ctx context.Context, collection string, filter, update any) (int64, error) {
	res, err := s.Collection(collection).UpdateOne(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

func (s *DocumentStore) Exists(ctx context.Context, collection string, filter any) (bool, error) {
	n, err := s.Collection(collection).CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *DocumentStore) Health(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return map[string]string{"status": "down", "error": fmt.Sprintf("mongo down: %v", err)}
	}
	return map[string]string{"status": "up"}
}

func (s *DocumentStore) Close(ctx context.Context) error {
	err := s.client.Disconnect(ctx)
	if err != nil && !errors.Is(err, mongo.ErrClientDisconnected) {
		return err
	}
	s.log.Info("disconnected from mongo")
	return nil
}
