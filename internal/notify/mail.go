package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
)

var recoveryMail = template.Must(template.New("recovery").Parse(`<p>Hi {{.Username}},</p>
<p>You have requested to reset your password.</p>
<h3>{{.Code}}</h3>
<p>is your recovery code. It expires at {{.ExpiresAt.Format "15:04 MST"}}.</p>
`))

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Mailer struct {
	host     string
	port     string
	username string
	password string
	from     string
	send     sendFunc
}

func NewMailer(host, port, username, password, from string) *Mailer {
	return &Mailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		send:     smtp.SendMail,
	}
}

func (m *Mailer) Name() string { return "email" }

func (m *Mailer) Send(_ context.Context, n RecoveryNotice) error {
	if n.Email == "" {
		return ErrNotApplicable
	}
	msg, err := m.compose(n)
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	addr := fmt.Sprintf("%s:%s", m.host, m.port)
	if err := m.send(addr, auth, m.from, []string{n.Email}, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (m *Mailer) compose(n RecoveryNotice) ([]byte, error) {
	var body bytes.Buffer
	if err := recoveryMail.Execute(&body, n); err != nil {
		return nil, fmt.Errorf("render recovery mail: %w", err)
	}

	headers := []string{
		"To: " + n.Email,
		"From: " + m.from,
		"Subject: Password Recovery",
		"MIME-Version: 1.0",
		`Content-Type: text/html; charset="UTF-8"`,
	}
	return []byte(strings.Join(headers, "\r\n") + "\r\n\r\n" + body.String()), nil
}
