package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Rocknpaper/Blog-site-backend/internal/apperr"
	"github.com/Rocknpaper/Blog-site-backend/internal/auth"
	"github.com/Rocknpaper/Blog-site-backend/internal/models"
	"github.com/Rocknpaper/Blog-site-backend/internal/notify"
)

type AuthHandler struct {
	users       UserStore
	tokens      TokenIssuer
	passwords   PasswordHasher
	recovery    notify.Dispatcher
	recoveryTTL time.Duration
	maxAttempts int
	log         *zap.Logger
	now         func() time.Time
}

const defaultRecoveryAttempts = 5

func NewAuthHandler(users UserStore, tokens TokenIssuer, passwords PasswordHasher, recovery notify.Dispatcher, recoveryTTL time.Duration, maxAttempts int, log *zap.Logger) *AuthHandler {
	if maxAttempts <= 0 {
		maxAttempts = defaultRecoveryAttempts
	}
	return &AuthHandler{
		users:       users,
		tokens:      tokens,
		passwords:   passwords,
		recovery:    recovery,
		recoveryTTL: recoveryTTL,
		maxAttempts: maxAttempts,
		log:         log,
		now:         time.Now,
	}
}

// Login exchanges email and password for a token
func (h *AuthHandler) Login(c *gin.Context) {
	var input models.LoginRequest
	if !bindJSON(c, &input) {
		return
	}

	user, err := h.users.FindByEmail(c.Request.Context(), input.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	if !h.passwords.Verify(user.Password, input.Password) {
		respondError(c, apperr.IncorrectPassword())
		return
	}

	token, _, err := h.tokens.Issue(user.ID)
	if err != nil {
		respondError(c, apperr.TokenIssue(err))
		return
	}

	c.JSON(http.StatusOK, models.AuthResponse{
		ID:         user.ID,
		Username:   user.Username,
		Email:      user.Email,
		UserAvatar: user.UserAvatar,
		JWT:        token,
	})
}

// Recover issues a recovery code for the account behind an email. Unknown
// emails get the same answer so the endpoint does not reveal accounts.
func (h *AuthHandler) Recover(c *gin.Context) {
	var input models.RecoverRequest
	if !bindJSON(c, &input) {
		return
	}
	ctx := c.Request.Context()

	user, err := h.users.FindByEmail(ctx, input.Email)
	if errors.Is(err, apperr.ErrNotFound) {
		statusOK(c)
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	code, err := auth.RecoveryCode()
	if err != nil {
		respondError(c, apperr.Database(err))
		return
	}
	issuedAt := h.now().UTC()
	if err := h.users.SetRecoveryCode(ctx, user.ID, code, issuedAt); err != nil {
		respondError(c, err)
		return
	}

	notice := notify.RecoveryNotice{
		Email:     user.Email,
		Phone:     user.Phone,
		Username:  user.Username,
		Code:      code,
		ExpiresAt: issuedAt.Add(h.recoveryTTL),
	}
	if err := h.recovery.Dispatch(ctx, notice); err != nil {
		respondError(c, err)
		return
	}
	h.log.Info("recovery code issued", zap.String("user_id", user.ID))
	statusOK(c)
}

// ResetPassword sets a new password when the recovery code is valid. Every
// wrong code counts against the pending one, which is discarded after
// maxAttempts misses.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var input models.ResetPasswordRequest
	if !bindJSON(c, &input) {
		return
	}
	ctx := c.Request.Context()
	invalid := apperr.BadRequest("Invalid or expired recovery code", nil)

	user, err := h.users.FindByEmail(ctx, input.Email)
	if errors.Is(err, apperr.ErrNotFound) {
		respondError(c, invalid)
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	if user.RecoveryAttempts >= h.maxAttempts {
		respondError(c, invalid)
		return
	}
	if !auth.RecoveryCodeValid(user.RecoveryCode, input.Code, user.RecoveryIssuedAt, h.recoveryTTL, h.now()) {
		if user.RecoveryCode != "" {
			if err := h.users.RecordRecoveryMiss(ctx, user.ID, h.maxAttempts); err != nil {
				respondError(c, err)
				return
			}
			if user.RecoveryAttempts+1 >= h.maxAttempts {
				h.log.Warn("recovery code discarded after repeated misses", zap.String("user_id", user.ID))
			}
		}
		respondError(c, invalid)
		return
	}

	digest, err := h.passwords.Hash(input.NewPassword)
	if err != nil {
		respondError(c, apperr.Database(err))
		return
	}
	if err := h.users.UpdatePassword(ctx, user.ID, digest); err != nil {
		respondError(c, err)
		return
	}
	statusOK(c)
}
