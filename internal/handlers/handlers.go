package handlers

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Rocknpaper/Blog-site-backend/internal/apperr"
	"github.com/Rocknpaper/Blog-site-backend/internal/auth"
	"github.com/Rocknpaper/Blog-site-backend/internal/models"
	"github.com/Rocknpaper/Blog-site-backend/internal/notify"
	"github.com/Rocknpaper/Blog-site-backend/internal/reaction"
)

type PostStore interface {
	Create(ctx context.Context, post *models.Post) error
	FindAll(ctx context.Context) ([]models.Post, error)
	FindByUser(ctx context.Context, userID string) ([]models.Post, error)
	FindByID(ctx context.Context, id string) (*models.Post, error)
	Update(ctx context.Context, id, userID string, req models.PostBlogRequest) error
	Delete(ctx context.Context, id, userID string) error
}

type CommentStore interface {
	Create(ctx context.Context, comment *models.Comment) error
	FindByBlog(ctx context.Context, blogID string) ([]models.Comment, error)
	Update(ctx context.Context, id, userID, content string) error
	Delete(ctx context.Context, id, userID string) error
	AppendReply(ctx context.Context, commentID string, reply models.Reply) error
	UpdateReply(ctx context.Context, commentID, replyID, userID, content string) error
	DeleteReply(ctx context.Context, commentID, replyID, userID string) error
}

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, id, digest string) error
	SetRecoveryCode(ctx context.Context, id, code string, issuedAt time.Time) error
	RecordRecoveryMiss(ctx context.Context, id string, maxAttempts int) error
}

type Reactor interface {
	Apply(ctx context.Context, target reaction.Target, userID string, kind reaction.Kind, dir reaction.Direction) (reaction.Outcome, error)
}

type AvatarStore interface {
	UploadAvatar(ctx context.Context, originalName string, size int64, r io.Reader, contentType string) (string, error)
	DeleteAvatar(ctx context.Context, url string) error
}

type TokenIssuer interface {
	Issue(subject string) (string, auth.Identity, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(digest, plain string) bool
}

// Deps are the collaborators the handlers need. Avatars may be nil when
// uploads are not configured. RecoveryMaxAttempts wrong codes discard a
// pending recovery code; zero means 5.
type Deps struct {
	Posts               PostStore
	Comments            CommentStore
	Users               UserStore
	Reactions           Reactor
	Avatars             AvatarStore
	Tokens              TokenIssuer
	Passwords           PasswordHasher
	Recovery            notify.Dispatcher
	RecoveryCodeTTL     time.Duration
	RecoveryMaxAttempts int
	Log                 *zap.Logger
}

// Handler combines all handler types
type Handler struct {
	Auth     *AuthHandler
	Post     *PostHandler
	Comment  *CommentHandler
	User     *UserHandler
	Reaction *ReactionHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(d Deps) *Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &Handler{
		Auth:     NewAuthHandler(d.Users, d.Tokens, d.Passwords, d.Recovery, d.RecoveryCodeTTL, d.RecoveryMaxAttempts, d.Log),
		Post:     NewPostHandler(d.Posts, d.Users),
		Comment:  NewCommentHandler(d.Comments, d.Posts, d.Users),
		User:     NewUserHandler(d.Users, d.Passwords, d.Avatars),
		Reaction: NewReactionHandler(d.Reactions),
	}
}

func statusOK(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"Status": "OK", "response": http.StatusOK})
}

func respondError(c *gin.Context, err error) {
	status, body := apperr.ToResponse(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, body)
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, apperr.BadRequest("Invalid request body", err))
		return false
	}
	return true
}

// caller returns the identity the gate attached to the request.
func caller(c *gin.Context) (auth.Identity, bool) {
	id, ok := auth.IdentityFrom(c.Request.Context())
	if !ok || id.Subject == "" {
		respondError(c, apperr.MissingCredential())
		return auth.Identity{}, false
	}
	return id, true
}
