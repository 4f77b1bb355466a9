package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/Rocknpaper/Blog-site-backend/internal/apperr"
	"github.com/Rocknpaper/Blog-site-backend/internal/database"
	"github.com/Rocknpaper/Blog-site-backend/internal/models"
)

type PostRepository struct {
	coll *mongo.Collection
}

func NewPostRepository(store *database.DocumentStore) *PostRepository {
	return &PostRepository{coll: store.Collection(models.PostsCollection)}
}

func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	res, err := r.coll.InsertOne(ctx, post)
	if err != nil {
		return apperr.Database(err)
	}
	if id, ok := res.InsertedID.(bson.ObjectID); ok {
		post.ID = id
	}
	return nil
}

// FindAll returns every post, most upvoted first.
func (r *PostRepository) FindAll(ctx context.Context) ([]models.Post, error) {
	return r.find(ctx, bson.D{})
}

func (r *PostRepository) FindByUser(ctx context.Context, userID string) ([]models.Post, error) {
	return r.find(ctx, bson.D{{Key: "user_id", Value: userID}})
}

func (r *PostRepository) find(ctx context.Context, filter bson.D) ([]models.Post, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "upvotes.count", Value: -1},
		{Key: "created_at", Value: -1},
	})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperr.Database(err)
	}
	posts := []models.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, apperr.Database(err)
	}
	return posts, nil
}

func (r *PostRepository) FindByID(ctx context.Context, id string) (*models.Post, error) {
	oid, err := models.ParseID(id)
	if err != nil {
		return nil, err
	}
	var post models.Post
	err = r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("No Blog Found")
	}
	if err != nil {
		return nil, apperr.Database(err)
	}
	return &post, nil
}

// Update replaces title and content of a post owned by userID.
func (r *PostRepository) Update(ctx context.Context, id, userID string, req models.PostBlogRequest) error {
	oid, err := models.ParseID(id)
	if err != nil {
		return err
	}
	filter := bson.D{{Key: "_id", Value: oid}, {Key: "user_id", Value: userID}}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "title", Value: req.Title},
		{Key: "content", Value: req.Content},
	}}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return apperr.Database(err)
	}
	if res.MatchedCount == 0 {
		return ownerMiss(ctx, r.coll, bson.D{{Key: "_id", Value: oid}}, "Blog")
	}
	return nil
}

// Delete removes a post owned by userID. Its comments are left in place.
func (r *PostRepository) Delete(ctx context.Context, id, userID string) error {
	oid, err := models.ParseID(id)
	if err != nil {
		return err
	}
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}, {Key: "user_id", Value: userID}})
	if err != nil {
		return apperr.Database(err)
	}
	if res.DeletedCount == 0 {
		return ownerMiss(ctx, r.coll, bson.D{{Key: "_id", Value: oid}}, "Blog")
	}
	return nil
}
