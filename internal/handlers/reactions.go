package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Rocknpaper/Blog-site-backend/internal/reaction"
)

type ReactionHandler struct {
	ledger Reactor
}

func NewReactionHandler(ledger Reactor) *ReactionHandler {
	return &ReactionHandler{ledger: ledger}
}

// Post toggles the caller in a post's upvote or downvote set.
func (h *ReactionHandler) Post(kind reaction.Kind, dir reaction.Direction) gin.HandlerFunc {
	return h.apply(kind, dir, func(c *gin.Context) reaction.Target {
		return reaction.PostTarget(c.Param("blog_id"))
	})
}

// Comment toggles the caller in a comment's like or dislike set.
func (h *ReactionHandler) Comment(kind reaction.Kind, dir reaction.Direction) gin.HandlerFunc {
	return h.apply(kind, dir, func(c *gin.Context) reaction.Target {
		return reaction.CommentTarget(c.Param("comment_id"))
	})
}

// Reply toggles the caller in a reply's like or dislike set.
func (h *ReactionHandler) Reply(kind reaction.Kind, dir reaction.Direction) gin.HandlerFunc {
	return h.apply(kind, dir, func(c *gin.Context) reaction.Target {
		return reaction.ReplyTarget(c.Param("comment_id"), c.Param("reply_id"))
	})
}

func (h *ReactionHandler) apply(kind reaction.Kind, dir reaction.Direction, target func(*gin.Context) reaction.Target) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := caller(c)
		if !ok {
			return
		}
		outcome, err := h.ledger.Apply(c.Request.Context(), target(c), id.Subject, kind, dir)
		if err != nil {
			respondError(c, err)
			return
		}
		if outcome == reaction.Unchanged {
			zap.L().Debug("reaction unchanged",
				zap.String("kind", string(kind)),
				zap.Stringer("direction", dir),
				zap.String("path", c.Request.URL.Path),
			)
		}
		statusOK(c)
	}
}
