package notify

import (
	"context"
	"fmt"
	"html"

	"github.com/resend/resend-go/v2"
)

// emailSender is the part of the Resend client EmailNotifier uses.
type emailSender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// EmailNotifier mails alerts to a fixed list of recipients through Resend.
type EmailNotifier struct {
	sender emailSender
	from   string
	to     []string
}

// NewEmailNotifier creates a notifier backed by the Resend API.
func NewEmailNotifier(apiKey, from string, to []string) *EmailNotifier {
	return &EmailNotifier{
		sender: resend.NewClient(apiKey).Emails,
		from:   from,
		to:     to,
	}
}

// RequestPermission is granted when there is someone to mail.
func (*EmailNotifier) Name() string { return "email" }

func (n *EmailNotifier) RequestPermission(context.Context) bool {
	return n.sender != nil && n.from != "" && len(n.to) > 0
}

func (n *EmailNotifier) Notify(ctx context.Context, title, body, key string) error {
	params := &resend.SendEmailRequest{
		From:    n.from,
		To:      n.to,
		Subject: title,
		Html:    fmt.Sprintf("<h2>%s</h2><p>%s</p>", html.EscapeString(title), html.EscapeString(body)),
		Text:    body,
	}
	if _, err := n.sender.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("send email %s: %w", key, err)
	}
	return nil
}
