package models

import (
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/Rocknpaper/Blog-site-backend/internal/apperr"
)

const (
	PostsCollection    = "blog_posts"
	CommentsCollection = "comments"
)

// ParseID converts a 24-hex document id supplied by a caller.
func ParseID(id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.NilObjectID, apperr.InvalidIdentifier(id, err)
	}
	return oid, nil
}
