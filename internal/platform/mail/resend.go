package mail

import (
	"context"
	"fmt"

	"github.com/andreypavlenko/autoapply/internal/config"
	"github.com/resend/resend-go/v2"
)

// Client sends pipeline report mail through Resend
type Client struct {
	client *resend.Client
	from   string
	to     string
}

// NewClient creates a mail client; returns nil when mail is not configured
func NewClient(cfg config.MailConfig) *Client {
	if cfg.ResendAPIKey == "" || cfg.From == "" || cfg.To == "" {
		return nil
	}
	return &Client{
		client: resend.NewClient(cfg.ResendAPIKey),
		from:   cfg.From,
		to:     cfg.To,
	}
}

// Send delivers an HTML mail to the configured recipient
func (c *Client) Send(ctx context.Context, subject, html string) error {
	_, err := c.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    c.from,
		To:      []string{c.to},
		Subject: subject,
		Html:    html,
	})
	if err != nil {
		return fmt.Errorf("send report mail: %w", err)
	}
	return nil
}
