package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/Rocknpaper/Blog-site-backend/internal/apperr"
	"github.com/Rocknpaper/Blog-site-backend/internal/database/dbtest"
	"github.com/Rocknpaper/Blog-site-backend/internal/models"
)

func TestPostRepository(t *testing.T) {
	store := dbtest.Mongo(t)
	ctx := context.Background()
	repo := NewPostRepository(store)

	older := models.NewPost("older", "a", "u1", "alice")
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	newer := models.NewPost("newer", "b", "u1", "alice")
	popular := models.NewPost("popular", "c", "u2", "bob")
	popular.Upvotes = models.ReactionSet{Users: []string{"x", "y"}, Count: 2}
	for _, p := range []*models.Post{older, newer, popular} {
		require.NoError(t, repo.Create(ctx, p))
		require.False(t, p.ID.IsZero())
	}

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"popular", "newer", "older"}, []string{all[0].Title, all[1].Title, all[2].Title})

	mine, err := repo.FindByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	none, err := repo.FindByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	_, err = repo.FindByID(ctx, bson.NewObjectID().Hex())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = repo.FindByID(ctx, "nope")
	assert.ErrorIs(t, err, apperr.ErrInvalidIdentifier)

	edit := models.PostBlogRequest{Title: "edited", Content: "z"}
	assert.ErrorIs(t, repo.Update(ctx, older.ID.Hex(), "u2", edit), apperr.ErrForbidden)
	require.NoError(t, repo.Update(ctx, older.ID.Hex(), "u1", edit))
	got, err := repo.FindByID(ctx, older.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Title)

	assert.ErrorIs(t, repo.Delete(ctx, popular.ID.Hex(), "u1"), apperr.ErrForbidden)
	require.NoError(t, repo.Delete(ctx, popular.ID.Hex(), "u2"))
	assert.ErrorIs(t, repo.Delete(ctx, popular.ID.Hex(), "u2"), apperr.ErrNotFound)
}

func TestCommentRepository(t *testing.T) {
	store := dbtest.Mongo(t)
	ctx := context.Background()
	repo := NewCommentRepository(store)
	blogID := bson.NewObjectID()

	c := models.NewComment(blogID, "u1", "alice", "hello")
	require.NoError(t, repo.Create(ctx, c))

	reply := models.NewReply("u2", "bob", "hi")
	require.NoError(t, repo.AppendReply(ctx, c.ID.Hex(), reply))
	assert.ErrorIs(t, repo.AppendReply(ctx, bson.NewObjectID().Hex(), reply), apperr.ErrNotFound)

	assert.ErrorIs(t, repo.UpdateReply(ctx, c.ID.Hex(), reply.ID.Hex(), "u1", "hijack"), apperr.ErrForbidden)
	require.NoError(t, repo.UpdateReply(ctx, c.ID.Hex(), reply.ID.Hex(), "u2", "hi again"))
	assert.ErrorIs(t, repo.UpdateReply(ctx, c.ID.Hex(), bson.NewObjectID().Hex(), "u2", "x"), apperr.ErrNotFound)

	list, err := repo.FindByBlog(ctx, blogID.Hex())
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Len(t, list[0].Replies, 1)
	assert.Equal(t, "hi again", list[0].Replies[0].Content)

	require.NoError(t, repo.Update(ctx, c.ID.Hex(), "u1", "edited"))
	assert.ErrorIs(t, repo.Update(ctx, c.ID.Hex(), "u2", "x"), apperr.ErrForbidden)

	require.NoError(t, repo.DeleteReply(ctx, c.ID.Hex(), reply.ID.Hex(), "u2"))
	assert.ErrorIs(t, repo.DeleteReply(ctx, c.ID.Hex(), reply.ID.Hex(), "u2"), apperr.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, c.ID.Hex(), "u1"))
	list, err = repo.FindByBlog(ctx, blogID.Hex())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUserRepository(t *testing.T) {
	svc := dbtest.Postgres(t)
	ctx := context.Background()
	repo := NewUserRepository(svc.GetDB())

	u := &models.User{Username: "alice", Email: "alice@example.com", Password: "digest"}
	require.NoError(t, repo.Create(ctx, u))
	require.NotEmpty(t, u.ID)

	err := repo.Create(ctx, &models.User{Username: "other", Email: "alice@example.com", Password: "d"})
	assert.ErrorIs(t, err, apperr.ErrAlreadyExists)
	err = repo.Create(ctx, &models.User{Username: "alice", Email: "other@example.com", Password: "d"})
	assert.ErrorIs(t, err, apperr.ErrAlreadyExists)

	got, err := repo.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = repo.FindByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, apperr.ErrInvalidIdentifier)
	_, err = repo.FindByEmail(ctx, "ghost@example.com")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	issued := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.SetRecoveryCode(ctx, u.ID, "123456", issued))
	got, err = repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "123456", got.RecoveryCode)
	require.NotNil(t, got.RecoveryIssuedAt)
	assert.True(t, issued.Equal(*got.RecoveryIssuedAt))

	for i := 0; i < 2; i++ {
		require.NoError(t, repo.RecordRecoveryMiss(ctx, u.ID, 3))
	}
	got, err = repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.RecoveryAttempts)
	assert.Equal(t, "123456", got.RecoveryCode)

	require.NoError(t, repo.RecordRecoveryMiss(ctx, u.ID, 3))
	got, err = repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.RecoveryAttempts)
	assert.Empty(t, got.RecoveryCode)
	assert.Nil(t, got.RecoveryIssuedAt)

	require.NoError(t, repo.SetRecoveryCode(ctx, u.ID, "654321", issued))
	got, err = repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.RecoveryAttempts)

	require.NoError(t, repo.UpdatePassword(ctx, u.ID, "new-digest"))
	got, err = repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-digest", got.Password)
	assert.Empty(t, got.RecoveryCode)
	assert.Nil(t, got.RecoveryIssuedAt)
}
