package notifier

import (
	"context"
	"fmt"
	"log"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendgridMailer sends plain-text notifications through SendGrid.
type SendgridMailer struct {
	APIKey   string
	From     string
	FromName string
}

func (m *SendgridMailer) Send(_ context.Context, to, subject, body string) error {
	if m.APIKey == "" {
		return fmt.Errorf("sendgrid api key is empty")
	}
	msg := mail.NewSingleEmail(
		mail.NewEmail(m.FromName, m.From),
		subject,
		mail.NewEmail("", to),
		body,
		fmt.Sprintf("<pre>%s</pre>", body),
	)
	resp, err := sendgrid.NewSendClient(m.APIKey).Send(msg)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d body=%s", resp.StatusCode, resp.Body)
	}
	log.Printf("sendgrid: mail sent status=%d to=%s subject=%q", resp.StatusCode, to, subject)
	return nil
}

// LogMailer is the no-credentials fallback for local runs: it only logs.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, to, subject, body string) error {
	log.Printf("mail (log only) to=%s subject=%q\n%s", to, subject, body)
	return nil
}
