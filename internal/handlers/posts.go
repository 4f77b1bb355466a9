package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Rocknpaper/Blog-site-backend/internal/models"
	"github.com/Rocknpaper/Blog-site-backend/internal/render"
)

type PostHandler struct {
	posts PostStore
	users UserStore
}

func NewPostHandler(posts PostStore, users UserStore) *PostHandler {
	return &PostHandler{posts: posts, users: users}
}

func withHTML(posts []models.Post) []models.Post {
	for i := range posts {
		posts[i].ContentHTML = render.Markdown(posts[i].Content)
	}
	return posts
}

// GetPosts returns every post, most upvoted first
func (h *PostHandler) GetPosts(c *gin.Context) {
	posts, err := h.posts.FindAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, withHTML(posts))
}

// GetPost returns a single post by ID
func (h *PostHandler) GetPost(c *gin.Context) {
	post, err := h.posts.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	post.ContentHTML = render.Markdown(post.Content)
	c.JSON(http.StatusOK, post)
}

// GetUserPosts returns the posts written by the user in the path
func (h *PostHandler) GetUserPosts(c *gin.Context) {
	posts, err := h.posts.FindByUser(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, withHTML(posts))
}

// GetMyPosts returns the caller's own posts
func (h *PostHandler) GetMyPosts(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	posts, err := h.posts.FindByUser(c.Request.Context(), id.Subject)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, withHTML(posts))
}

// CreatePost stores a post authored by the caller
func (h *PostHandler) CreatePost(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	var input models.PostBlogRequest
	if !bindJSON(c, &input) {
		return
	}

	author, err := h.users.FindByID(c.Request.Context(), id.Subject)
	if err != nil {
		respondError(c, err)
		return
	}

	post := models.NewPost(input.Title, input.Content, author.ID, author.Username)
	if err := h.posts.Create(c.Request.Context(), post); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"Status": "OK", "response": http.StatusOK, "id": post.ID.Hex()})
}

// UpdatePost changes title and content; only the author may do so
func (h *PostHandler) UpdatePost(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	var input models.PostBlogRequest
	if !bindJSON(c, &input) {
		return
	}
	if err := h.posts.Update(c.Request.Context(), c.Param("id"), id.Subject, input); err != nil {
		respondError(c, err)
		return
	}
	statusOK(c)
}

// DeletePost removes a post; only the author may do so
func (h *PostHandler) DeletePost(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	if err := h.posts.Delete(c.Request.Context(), c.Param("id"), id.Subject); err != nil {
		respondError(c, err)
		return
	}
	statusOK(c)
}
