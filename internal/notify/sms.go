package notify

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// SMS texts recovery codes through Twilio to accounts that have a phone.
type SMS struct {
	api  messageCreator
	from string
}

func NewSMS(accountSID, authToken, from string) *SMS {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &SMS{api: client.Api, from: from}
}

func (s *SMS) Name() string { return "sms" }

func (s *SMS) Send(_ context.Context, n RecoveryNotice) error {
	if n.Phone == "" {
		return ErrNotApplicable
	}
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(n.Phone)
	params.SetFrom(s.from)
	params.SetBody(fmt.Sprintf("%s is your recovery code. It expires at %s.", n.Code, n.ExpiresAt.Format("15:04 MST")))

	if _, err := s.api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio send: %w", err)
	}
	return nil
}
