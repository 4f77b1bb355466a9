package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Rocknpaper/Blog-site-backend/internal/handlers"
	"github.com/Rocknpaper/Blog-site-backend/internal/middleware"
	"github.com/Rocknpaper/Blog-site-backend/internal/reaction"
)

// HealthChecker reports the state of one backing store.
type HealthChecker interface {
	Health(ctx context.Context) map[string]string
}

type Options struct {
	Addr              string
	Handler           *handlers.Handler
	Tokens            middleware.TokenValidator
	Limiter           middleware.Limiter
	ReactionRateLimit int
	ReactionWindow    time.Duration
	RecoveryRateLimit int
	RecoveryWindow    time.Duration
	Health            map[string]HealthChecker
	Log               *zap.Logger
}

type Server struct {
	opts   Options
	access *middleware.AccessTable
}

func New(opts Options) *Server {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	return &Server{opts: opts, access: middleware.NewAccessTable()}
}

// HTTPServer wraps the router in an http.Server with the usual timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Access exposes the route declarations made by RegisterRoutes.
func (s *Server) Access() *middleware.AccessTable {
	return s.access
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(s.opts.Log))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(middleware.Gate(s.opts.Tokens, s.access, s.opts.Log))

	routes := middleware.NewRegistrar(&r.RouterGroup, s.access)
	h := s.opts.Handler

	routes.Public(http.MethodGet, "/health", s.health)

	// Accounts
	routes.Public(http.MethodPost, "/auth/user", h.Auth.Login)
	routes.Public(http.MethodPost, "/auth/recover", s.recoveryLimit("recover"), h.Auth.Recover)
	routes.Public(http.MethodPost, "/auth/reset", s.recoveryLimit("reset"), h.Auth.ResetPassword)
	routes.Public(http.MethodPost, "/user", h.User.CreateUser)
	routes.Public(http.MethodGet, "/user/:uid", h.User.GetUser)
	routes.Authenticated(http.MethodPatch, "/user/password", h.User.ChangePassword)

	// Posts
	routes.Public(http.MethodGet, "/blogs", h.Post.GetPosts)
	routes.Public(http.MethodGet, "/blog/:id", h.Post.GetPost)
	routes.Public(http.MethodGet, "/blog/user/:user_id", h.Post.GetUserPosts)
	routes.Authenticated(http.MethodGet, "/user-blog", h.Post.GetMyPosts)
	routes.Authenticated(http.MethodPost, "/blog", h.Post.CreatePost)
	routes.Authenticated(http.MethodPatch, "/blog/:id", h.Post.UpdatePost)
	routes.Authenticated(http.MethodDelete, "/blog/:id", h.Post.DeletePost)

	// Comments and replies
	routes.Public(http.MethodGet, "/comment/:id", h.Comment.GetComments)
	routes.Authenticated(http.MethodPost, "/comment", h.Comment.CreateComment)
	routes.Authenticated(http.MethodPatch, "/comment/:id", h.Comment.UpdateComment)
	routes.Authenticated(http.MethodDelete, "/comment/:id", h.Comment.DeleteComment)
	routes.Authenticated(http.MethodPost, "/reply-comment/:id", h.Comment.CreateReply)
	routes.Authenticated(http.MethodPatch, "/reply-comment/:comment_id/:reply_id", h.Comment.UpdateReply)
	routes.Authenticated(http.MethodDelete, "/reply-comment/:comment_id/:reply_id", h.Comment.DeleteReply)

	s.registerReactions(routes, h.Reaction)

	return r
}

// recoveryLimit throttles the recovery routes per client ip and per email.
func (s *Server) recoveryLimit(action string) gin.HandlerFunc {
	return middleware.RateLimitBy(s.opts.Limiter, action, s.opts.RecoveryRateLimit, s.opts.RecoveryWindow, middleware.ByIPAndEmail, s.opts.Log)
}

var directions = []reaction.Direction{reaction.Increase, reaction.Decrease}

func (s *Server) registerReactions(routes *middleware.Registrar, h *handlers.ReactionHandler) {
	limit := middleware.RateLimit(s.opts.Limiter, "reaction", s.opts.ReactionRateLimit, s.opts.ReactionWindow, s.opts.Log)

	for _, dir := range directions {
		d := dir.String()
		routes.Authenticated(http.MethodPatch, "/upvote/"+d+"/:blog_id", limit, h.Post(reaction.Upvote, dir))
		routes.Authenticated(http.MethodPatch, "/downvote/"+d+"/:blog_id", limit, h.Post(reaction.Downvote, dir))
		routes.Authenticated(http.MethodPatch, "/like/"+d+"/:comment_id", limit, h.Comment(reaction.Like, dir))
		routes.Authenticated(http.MethodPatch, "/dislike/"+d+"/:comment_id", limit, h.Comment(reaction.Dislike, dir))
		routes.Authenticated(http.MethodPatch, "/reply/like/"+d+"/:comment_id/:reply_id", limit, h.Reply(reaction.Like, dir))
		routes.Authenticated(http.MethodPatch, "/reply/dislike/"+d+"/:comment_id/:reply_id", limit, h.Reply(reaction.Dislike, dir))
	}
}

func (s *Server) health(c *gin.Context) {
	status := http.StatusOK
	report := gin.H{}
	for name, checker := range s.opts.Health {
		stats := checker.Health(c.Request.Context())
		if stats["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		report[name] = stats
	}
	if status == http.StatusOK {
		report["status"] = "ok"
	} else {
		report["status"] = "degraded"
	}
	c.JSON(status, report)
}
