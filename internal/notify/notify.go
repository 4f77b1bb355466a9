// Package notify delivers password recovery codes to account holders.
package notify

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Rocknpaper/Blog-site-backend/internal/apperr"
)

// RecoveryNotice is everything needed to tell a user their recovery code.
type RecoveryNotice struct {
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Username  string    `json:"username"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Dispatcher hands a notice to whatever delivers it, inline or via a queue.
type Dispatcher interface {
	Dispatch(ctx context.Context, n RecoveryNotice) error
}

// Channel is one delivery medium.
type Channel interface {
	Name() string
	Send(ctx context.Context, n RecoveryNotice) error
}

// Notifier sends a notice over every configured channel.
type Notifier struct {
	channels []Channel
	log      *zap.Logger
}

func NewNotifier(log *zap.Logger, channels ...Channel) *Notifier {
	return &Notifier{channels: channels, log: log}
}

// Dispatch delivers n on every channel that applies to it. It fails only
// when no channel managed to deliver.
func (n *Notifier) Dispatch(ctx context.Context, notice RecoveryNotice) error {
	var errs []error
	delivered := 0
	for _, ch := range n.channels {
		if err := ch.Send(ctx, notice); err != nil {
			if errors.Is(err, ErrNotApplicable) {
				continue
			}
			n.log.Warn("recovery delivery failed", zap.String("channel", ch.Name()), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		delivered++
		n.log.Info("recovery code delivered", zap.String("channel", ch.Name()), zap.String("user", notice.Username))
	}
	if delivered == 0 {
		if len(errs) == 0 {
			errs = append(errs, errors.New("no delivery channel configured"))
		}
		return apperr.Delivery(errors.Join(errs...))
	}
	return nil
}

// ErrNotApplicable is returned by a channel that has nothing to send for a
// notice, such as SMS for an account without a phone number.
var ErrNotApplicable = errors.New("channel not applicable")
