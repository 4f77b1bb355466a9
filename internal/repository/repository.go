// Package repository maps posts, comments, replies and users onto their stores.
package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/Rocknpaper/Blog-site-backend/internal/apperr"
)

// ownerMiss explains an owner-scoped write that matched nothing: the
// document either does not exist or belongs to someone else.
func ownerMiss(ctx context.Context, coll *mongo.Collection, exists bson.D, what string) error {
	n, err := coll.CountDocuments(ctx, exists)
	if err != nil {
		return apperr.Database(err)
	}
	if n == 0 {
		return apperr.NotFound(fmt.Sprintf("No %s Found", what))
	}
	return apperr.Forbidden(fmt.Sprintf("Only the author can change this %s", what))
}
