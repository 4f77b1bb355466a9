package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Rocknpaper/Blog-site-backend/internal/auth"
	"github.com/Rocknpaper/Blog-site-backend/internal/database/dbtest"
	"github.com/Rocknpaper/Blog-site-backend/internal/handlers"
	"github.com/Rocknpaper/Blog-site-backend/internal/models"
	"github.com/Rocknpaper/Blog-site-backend/internal/notify"
	"github.com/Rocknpaper/Blog-site-backend/internal/reaction"
	"github.com/Rocknpaper/Blog-site-backend/internal/repository"
)

type discardNotices struct{}

func (discardNotices) Dispatch(context.Context, notify.RecoveryNotice) error { return nil }

func do(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUpvoteEndToEnd(t *testing.T) {
	docs := dbtest.Mongo(t)
	accounts := dbtest.Postgres(t)

	tokens := auth.NewTokenService("hello", 24*time.Hour)
	posts := repository.NewPostRepository(docs)
	h := handlers.NewHandler(handlers.Deps{
		Posts:           posts,
		Comments:        repository.NewCommentRepository(docs),
		Users:           repository.NewUserRepository(accounts.GetDB()),
		Reactions:       reaction.NewLedger(docs),
		Tokens:          tokens,
		Passwords:       auth.NewCredentials(bcrypt.MinCost),
		Recovery:        discardNotices{},
		RecoveryCodeTTL: 15 * time.Minute,
	})
	r := New(Options{
		Handler: h,
		Tokens:  tokens,
		Health:  map[string]HealthChecker{"mongo": docs, "postgres": accounts},
	}).RegisterRoutes()

	w := do(t, r, http.MethodPost, "/user", "", gin.H{"username": "alice", "email": "alice@example.com", "password": "secret"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, r, http.MethodPost, "/auth/user", "", gin.H{"email": "alice@example.com", "password": "secret"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login models.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	require.NotEmpty(t, login.JWT)

	w = do(t, r, http.MethodGet, "/user/"+login.ID, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(t, r, http.MethodGet, "/user-blog", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, r, http.MethodPost, "/blog", login.JWT, gin.H{"title": "P1", "content": "# hello"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = do(t, r, http.MethodPatch, "/upvote/inc/"+created.ID, login.JWT, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = do(t, r, http.MethodPatch, "/upvote/inc/"+created.ID, login.JWT, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got, err := posts.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Upvotes.Count)
	assert.Equal(t, []string{login.ID}, got.Upvotes.Users)

	w = do(t, r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}
