package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Comment struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID    string        `bson:"user_id" json:"user_id"`
	Username  string        `bson:"username" json:"username"`
	Content   string        `bson:"content" json:"content"`
	BlogID    bson.ObjectID `bson:"blog_id" json:"blog_id"`
	CreatedAt time.Time     `bson:"created_at" json:"created_at"`
	Replies   []Reply       `bson:"replies" json:"replies"`
	Likes     ReactionSet   `bson:"likes" json:"likes"`
	Dislikes  ReactionSet   `bson:"dislikes" json:"dislikes"`
}

// Reply lives inside its comment's replies array and is addressed by
// (comment id, reply id).
type Reply struct {
	ID        bson.ObjectID `bson:"_id" json:"_id"`
	UserID    string        `bson:"user_id" json:"user_id"`
	Username  string        `bson:"username" json:"username"`
	Content   string        `bson:"content" json:"content"`
	CreatedAt time.Time     `bson:"created_at" json:"created_at"`
	Likes     ReactionSet   `bson:"likes" json:"likes"`
	Dislikes  ReactionSet   `bson:"dislikes" json:"dislikes"`
}

func NewComment(blogID bson.ObjectID, userID, username, content string) *Comment {
	return &Comment{
		UserID:    userID,
		Username:  username,
		Content:   content,
		BlogID:    blogID,
		CreatedAt: time.Now().UTC(),
		Replies:   []Reply{},
		Likes:     NewReactionSet(),
		Dislikes:  NewReactionSet(),
	}
}

// NewReply assigns the reply its own id up front since the store only
// generates ids for top-level documents.
func NewReply(userID, username, content string) Reply {
	return Reply{
		ID:        bson.NewObjectID(),
		UserID:    userID,
		Username:  username,
		Content:   content,
		CreatedAt: time.Now().UTC(),
		Likes:     NewReactionSet(),
		Dislikes:  NewReactionSet(),
	}
}

// FindReply returns the reply with id, if present.
func (c *Comment) FindReply(id bson.ObjectID) (*Reply, bool) {
	for i := range c.Replies {
		if c.Replies[i].ID == id {
			return &c.Replies[i], true
		}
	}
	return nil, false
}

type PostCommentRequest struct {
	BlogID  string `json:"blog_id" binding:"required"`
	Content string `json:"content" binding:"required"`
}

type PostReplyRequest struct {
	Content string `json:"content" binding:"required"`
}
