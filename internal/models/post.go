package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Post struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title       string        `bson:"title" json:"title"`
	Content     string        `bson:"content" json:"content"`
	ContentHTML string        `bson:"-" json:"content_html,omitempty"`
	UserID      string        `bson:"user_id" json:"user_id"`
	Username    string        `bson:"username" json:"username"`
	CreatedAt   time.Time     `bson:"created_at" json:"created_at"`
	Upvotes     ReactionSet   `bson:"upvotes" json:"upvotes"`
	Downvotes   ReactionSet   `bson:"downvotes" json:"downvotes"`
}

// NewPost returns a post owned by userID with empty reaction sets.
func NewPost(title, content, userID, username string) *Post {
	return &Post{
		Title:     title,
		Content:   content,
		UserID:    userID,
		Username:  username,
		CreatedAt: time.Now().UTC(),
		Upvotes:   NewReactionSet(),
		Downvotes: NewReactionSet(),
	}
}

type PostBlogRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}
