package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/Rocknpaper/Blog-site-backend/internal/apperr"
	"github.com/Rocknpaper/Blog-site-backend/internal/database"
	"github.com/Rocknpaper/Blog-site-backend/internal/models"
)

// CommentRepository stores comments with their replies embedded.
type CommentRepository struct {
	coll *mongo.Collection
}

func NewCommentRepository(store *database.DocumentStore) *CommentRepository {
	return &CommentRepository{coll: store.Collection(models.CommentsCollection)}
}

func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	res, err := r.coll.InsertOne(ctx, comment)
	if err != nil {
		return apperr.Database(err)
	}
	if id, ok := res.InsertedID.(bson.ObjectID); ok {
		comment.ID = id
	}
	return nil
}

// FindByBlog returns the comments of a post in creation order.
func (r *CommentRepository) FindByBlog(ctx context.Context, blogID string) ([]models.Comment, error) {
	oid, err := models.ParseID(blogID)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.D{{Key: "blog_id", Value: oid}}, opts)
	if err != nil {
		return nil, apperr.Database(err)
	}
	comments := []models.Comment{}
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, apperr.Database(err)
	}
	return comments, nil
}

func (r *CommentRepository) Update(ctx context.Context, id, userID, content string) error {
	oid, err := models.ParseID(id)
	if err != nil {
		return err
	}
	filter := bson.D{{Key: "_id", Value: oid}, {Key: "user_id", Value: userID}}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "content", Value: content}}}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return apperr.Database(err)
	}
	if res.MatchedCount == 0 {
		return ownerMiss(ctx, r.coll, bson.D{{Key: "_id", Value: oid}}, "Comment")
	}
	return nil
}

// Delete removes a comment owned by userID together with its replies.
func (r *CommentRepository) Delete(ctx context.Context, id, userID string) error {
	oid, err := models.ParseID(id)
	if err != nil {
		return err
	}
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}, {Key: "user_id", Value: userID}})
	if err != nil {
		return apperr.Database(err)
	}
	if res.DeletedCount == 0 {
		return ownerMiss(ctx, r.coll, bson.D{{Key: "_id", Value: oid}}, "Comment")
	}
	return nil
}

// AppendReply pushes reply onto the comment's replies.
func (r *CommentRepository) AppendReply(ctx context.Context, commentID string, reply models.Reply) error {
	oid, err := models.ParseID(commentID)
	if err != nil {
		return err
	}
	update := bson.D{{Key: "$push", Value: bson.D{{Key: "replies", Value: reply}}}}
	res, err := r.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, update)
	if err != nil {
		return apperr.Database(err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("No Comment Found")
	}
	return nil
}

func (r *CommentRepository) UpdateReply(ctx context.Context, commentID, replyID, userID, content string) error {
	cid, rid, err := parseReplyKey(commentID, replyID)
	if err != nil {
		return err
	}
	filter := bson.D{
		{Key: "_id", Value: cid},
		{Key: "replies", Value: bson.D{{Key: "$elemMatch", Value: bson.D{
			{Key: "_id", Value: rid},
			{Key: "user_id", Value: userID},
		}}}},
	}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "replies.$.content", Value: content}}}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return apperr.Database(err)
	}
	if res.MatchedCount == 0 {
		return ownerMiss(ctx, r.coll, replyExists(cid, rid), "Reply")
	}
	return nil
}

func (r *CommentRepository) DeleteReply(ctx context.Context, commentID, replyID, userID string) error {
	cid, rid, err := parseReplyKey(commentID, replyID)
	if err != nil {
		return err
	}
	filter := bson.D{
		{Key: "_id", Value: cid},
		{Key: "replies", Value: bson.D{{Key: "$elemMatch", Value: bson.D{
			{Key: "_id", Value: rid},
			{Key: "user_id", Value: userID},
		}}}},
	}
	update := bson.D{{Key: "$pull", Value: bson.D{{Key: "replies", Value: bson.D{{Key: "_id", Value: rid}}}}}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return apperr.Database(err)
	}
	if res.MatchedCount == 0 {
		return ownerMiss(ctx, r.coll, replyExists(cid, rid), "Reply")
	}
	return nil
}

func parseReplyKey(commentID, replyID string) (bson.ObjectID, bson.ObjectID, error) {
	cid, err := models.ParseID(commentID)
	if err != nil {
		return bson.NilObjectID, bson.NilObjectID, err
	}
	rid, err := models.ParseID(replyID)
	if err != nil {
		return bson.NilObjectID, bson.NilObjectID, err
	}
	return cid, rid, nil
}

func replyExists(cid, rid bson.ObjectID) bson.D {
	return bson.D{{Key: "_id", Value: cid}, {Key: "replies._id", Value: rid}}
}
