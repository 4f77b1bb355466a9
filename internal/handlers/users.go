package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"github.com/Rocknpaper/Blog-site-backend/internal/apperr"
	"github.com/Rocknpaper/Blog-site-backend/internal/models"
)

const maxAvatarBytes = 5 << 20

var errUploadsDisabled = errors.New("avatar uploads are not configured")

type UserHandler struct {
	users     UserStore
	passwords PasswordHasher
	avatars   AvatarStore
}

func NewUserHandler(users UserStore, passwords PasswordHasher, avatars AvatarStore) *UserHandler {
	return &UserHandler{users: users, passwords: passwords, avatars: avatars}
}

// CreateUser registers an account. The body is either JSON or a multipart
// form with the JSON in a "data" field and an optional "avatar" file.
func (h *UserHandler) CreateUser(c *gin.Context) {
	var input models.CreateUserRequest
	multipart := strings.HasPrefix(c.ContentType(), "multipart/")
	if multipart {
		if err := json.Unmarshal([]byte(c.PostForm("data")), &input); err != nil {
			respondError(c, apperr.BadRequest("Invalid data field", err))
			return
		}
		if err := binding.Validator.ValidateStruct(&input); err != nil {
			respondError(c, apperr.BadRequest("Invalid data field", err))
			return
		}
	} else if !bindJSON(c, &input) {
		return
	}

	digest, err := h.passwords.Hash(input.Password)
	if err != nil {
		respondError(c, apperr.Database(err))
		return
	}
	user := &models.User{
		Username: input.Username,
		Email:    input.Email,
		Password: digest,
		Phone:    input.Phone,
	}

	if multipart {
		link, err := h.uploadAvatar(c)
		if err != nil {
			respondError(c, err)
			return
		}
		user.UserAvatar = link
	}

	if err := h.users.Create(c.Request.Context(), user); err != nil {
		if user.UserAvatar != "" {
			// the account was refused, so the uploaded avatar has no owner
			if derr := h.avatars.DeleteAvatar(c.Request.Context(), user.UserAvatar); derr != nil {
				zap.L().Warn("orphaned avatar", zap.String("url", user.UserAvatar), zap.Error(derr))
			}
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"Status": "OK", "response": http.StatusOK, "id": user.ID})
}

func (h *UserHandler) uploadAvatar(c *gin.Context) (string, error) {
	fh, err := c.FormFile("avatar")
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", apperr.BadRequest("Invalid avatar", err)
	}
	if h.avatars == nil {
		return "", apperr.Upload(errUploadsDisabled)
	}
	if fh.Size > maxAvatarBytes {
		return "", apperr.BadRequest("Avatar too large", nil)
	}

	f, err := fh.Open()
	if err != nil {
		return "", apperr.Upload(err)
	}
	defer f.Close()

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return h.avatars.UploadAvatar(c.Request.Context(), fh.Filename, fh.Size, f, contentType)
}

// GetUser returns a public profile
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.users.FindByID(c.Request.Context(), c.Param("uid"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ChangePassword replaces the caller's password after checking the old one
func (h *UserHandler) ChangePassword(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	var input models.ChangePasswordRequest
	if !bindJSON(c, &input) {
		return
	}

	user, err := h.users.FindByID(c.Request.Context(), id.Subject)
	if err != nil {
		respondError(c, err)
		return
	}
	if !h.passwords.Verify(user.Password, input.OldPassword) {
		respondError(c, apperr.IncorrectPassword())
		return
	}

	digest, err := h.passwords.Hash(input.NewPassword)
	if err != nil {
		respondError(c, apperr.Database(err))
		return
	}
	if err := h.users.UpdatePassword(c.Request.Context(), user.ID, digest); err != nil {
		respondError(c, err)
		return
	}
	statusOK(c)
}
