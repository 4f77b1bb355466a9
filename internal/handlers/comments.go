package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Rocknpaper/Blog-site-backend/internal/models"
)

type CommentHandler struct {
	comments CommentStore
	posts    PostStore
	users    UserStore
}

func NewCommentHandler(comments CommentStore, posts PostStore, users UserStore) *CommentHandler {
	return &CommentHandler{comments: comments, posts: posts, users: users}
}

// GetComments returns the comments of a post with their replies
func (h *CommentHandler) GetComments(c *gin.Context) {
	comments, err := h.comments.FindByBlog(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

// CreateComment adds a comment by the caller to an existing post
func (h *CommentHandler) CreateComment(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	var input models.PostCommentRequest
	if !bindJSON(c, &input) {
		return
	}

	post, err := h.posts.FindByID(c.Request.Context(), input.BlogID)
	if err != nil {
		respondError(c, err)
		return
	}
	author, err := h.users.FindByID(c.Request.Context(), id.Subject)
	if err != nil {
		respondError(c, err)
		return
	}

	comment := models.NewComment(post.ID, author.ID, author.Username, input.Content)
	if err := h.comments.Create(c.Request.Context(), comment); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"Status": "OK", "response": http.StatusOK, "id": comment.ID.Hex()})
}

// UpdateComment changes the content of the caller's comment
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	var input models.PostReplyRequest
	if !bindJSON(c, &input) {
		return
	}
	if err := h.comments.Update(c.Request.Context(), c.Param("id"), id.Subject, input.Content); err != nil {
		respondError(c, err)
		return
	}
	statusOK(c)
}

// DeleteComment removes the caller's comment and its replies
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	if err := h.comments.Delete(c.Request.Context(), c.Param("id"), id.Subject); err != nil {
		respondError(c, err)
		return
	}
	statusOK(c)
}

// CreateReply appends a reply by the caller to a comment
func (h *CommentHandler) CreateReply(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	var input models.PostReplyRequest
	if !bindJSON(c, &input) {
		return
	}
	author, err := h.users.FindByID(c.Request.Context(), id.Subject)
	if err != nil {
		respondError(c, err)
		return
	}

	reply := models.NewReply(author.ID, author.Username, input.Content)
	if err := h.comments.AppendReply(c.Request.Context(), c.Param("id"), reply); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"Status": "OK", "response": http.StatusOK, "id": reply.ID.Hex()})
}

func (h *CommentHandler) UpdateReply(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	var input models.PostReplyRequest
	if !bindJSON(c, &input) {
		return
	}
	err := h.comments.UpdateReply(c.Request.Context(), c.Param("comment_id"), c.Param("reply_id"), id.Subject, input.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	statusOK(c)
}

func (h *CommentHandler) DeleteReply(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	if err := h.comments.DeleteReply(c.Request.Context(), c.Param("comment_id"), c.Param("reply_id"), id.Subject); err != nil {
		respondError(c, err)
		return
	}
	statusOK(c)
}
