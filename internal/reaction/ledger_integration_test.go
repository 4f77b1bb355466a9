package reaction_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/Rocknpaper/Blog-site-backend/internal/apperr"
	"github.com/Rocknpaper/Blog-site-backend/internal/database/dbtest"
	"github.com/Rocknpaper/Blog-site-backend/internal/models"
	"github.com/Rocknpaper/Blog-site-backend/internal/reaction"
	"github.com/Rocknpaper/Blog-site-backend/internal/repository"
)

func TestLedgerAgainstMongo(t *testing.T) {
	store := dbtest.Mongo(t)
	ctx := context.Background()
	ledger := reaction.NewLedger(store)
	posts := repository.NewPostRepository(store)
	comments := repository.NewCommentRepository(store)

	post := models.NewPost("title", "body", "author", "author")
	require.NoError(t, posts.Create(ctx, post))
	postID := post.ID.Hex()

	t.Run("concurrent upvotes keep count equal to set size", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 40; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				// every user votes twice
				user := fmt.Sprintf("user-%d", i%20)
				_, err := ledger.Apply(ctx, reaction.PostTarget(postID), user, reaction.Upvote, reaction.Increase)
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		got, err := posts.FindByID(ctx, postID)
		require.NoError(t, err)
		assert.Len(t, got.Upvotes.Users, 20)
		assert.Equal(t, 20, got.Upvotes.Count)
		assert.Equal(t, 0, got.Downvotes.Count)
	})

	t.Run("decrease of a non member is unchanged", func(t *testing.T) {
		out, err := ledger.Apply(ctx, reaction.PostTarget(postID), "stranger", reaction.Downvote, reaction.Decrease)
		require.NoError(t, err)
		assert.Equal(t, reaction.Unchanged, out)

		got, err := posts.FindByID(ctx, postID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.Downvotes.Count)
	})

	t.Run("missing post is not found", func(t *testing.T) {
		_, err := ledger.Apply(ctx, reaction.PostTarget(bson.NewObjectID().Hex()), "u1", reaction.Upvote, reaction.Increase)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("reply reactions stay on their reply", func(t *testing.T) {
		c := models.NewComment(post.ID, "author", "author", "first")
		require.NoError(t, comments.Create(ctx, c))
		other := models.NewComment(post.ID, "author", "author", "second")
		other.CreatedAt = c.CreatedAt.Add(time.Second)
		require.NoError(t, comments.Create(ctx, other))
		otherReply := models.NewReply("a", "a", "three")
		require.NoError(t, comments.AppendReply(ctx, other.ID.Hex(), otherReply))
		r1 := models.NewReply("a", "a", "one")
		r2 := models.NewReply("b", "b", "two")
		require.NoError(t, comments.AppendReply(ctx, c.ID.Hex(), r1))
		require.NoError(t, comments.AppendReply(ctx, c.ID.Hex(), r2))

		target := reaction.ReplyTarget(c.ID.Hex(), r2.ID.Hex())
		out, err := ledger.Apply(ctx, target, "u1", reaction.Like, reaction.Increase)
		require.NoError(t, err)
		assert.Equal(t, reaction.Applied, out)
		out, err = ledger.Apply(ctx, target, "u1", reaction.Like, reaction.Increase)
		require.NoError(t, err)
		assert.Equal(t, reaction.Unchanged, out)

		list, err := comments.FindByBlog(ctx, post.ID.Hex())
		require.NoError(t, err)
		require.Len(t, list, 2)
		got := list[0]
		require.Equal(t, c.ID, got.ID)

		untouched := list[1]
		require.Equal(t, other.ID, untouched.ID)
		assert.Equal(t, 0, untouched.Likes.Count)
		assert.Empty(t, untouched.Likes.Users)
		sibling, ok := untouched.FindReply(otherReply.ID)
		require.True(t, ok)
		assert.Equal(t, 0, sibling.Likes.Count)
		assert.Empty(t, sibling.Likes.Users)
		assert.Equal(t, 0, got.Likes.Count)

		first, ok := got.FindReply(r1.ID)
		require.True(t, ok)
		assert.Equal(t, 0, first.Likes.Count)
		assert.Empty(t, first.Likes.Users)

		second, ok := got.FindReply(r2.ID)
		require.True(t, ok)
		assert.Equal(t, 1, second.Likes.Count)
		assert.Equal(t, []string{"u1"}, second.Likes.Users)

		out, err = ledger.Apply(ctx, target, "u1", reaction.Like, reaction.Decrease)
		require.NoError(t, err)
		assert.Equal(t, reaction.Applied, out)

		_, err = ledger.Apply(ctx, reaction.ReplyTarget(c.ID.Hex(), bson.NewObjectID().Hex()), "u1", reaction.Like, reaction.Increase)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}
