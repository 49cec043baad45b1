package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/mailgun/mailgun-go/v4"

	"deedapi/internal/config"
)

const (
	subjectBorrowerInvite     = "Nytt Pantbrev Skapat - Digital Signering"
	subjectCooperativeInvite  = "Nytt pantbrev skapat - Digital Signering"
	subjectCooperativeSummary = "Nytt pantbrev skapat - Bostadsrättsförening"
)

// mailgunMailer implements Mailer on top of the Mailgun messages API.
// It is safe for concurrent use by multiple goroutines.
type mailgunMailer struct {
	client   *mailgun.MailgunImpl
	from     string
	fromName string
	timeout  time.Duration
}

// NewMailgun creates a Mailer backed by Mailgun.
func NewMailgun(cfg config.MailgunConfig) (Mailer, error) {
	if cfg.Domain == "" {
		return nil, fmt.Errorf("mailgun domain is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("mailgun api key is required")
	}
	if cfg.FromEmail == "" {
		return nil, fmt.Errorf("mailgun sender address is required")
	}

	mg := mailgun.NewMailgun(cfg.Domain, cfg.APIKey)
	if cfg.APIBase != "" {
		mg.SetAPIBase(cfg.APIBase)
	}

	return &mailgunMailer{
		client:   mg,
		from:     fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromEmail),
		fromName: cfg.FromName,
		timeout:  10 * time.Second,
	}, nil
}

func (m *mailgunMailer) send(ctx context.Context, recipient, subject, templateName string, tctx templateContext) error {
	tctx.FromName = m.fromName
	html, err := render(templateName, tctx)
	if err != nil {
		return err
	}

	msg := m.client.NewMessage(m.from, subject, "", recipient)
	msg.SetHtml(html)

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if _, _, err := m.client.Send(ctx, msg); err != nil {
		return fmt.Errorf("send %s to %s: %w", templateName, recipient, err)
	}
	return nil
}

// SendBorrowerInvite delivers the borrower signing-link notification.
func (m *mailgunMailer) SendBorrowerInvite(ctx context.Context, invite BorrowerInvite) error {
	return m.send(ctx, invite.RecipientEmail, subjectBorrowerInvite, "borrower_invite.html", templateContext{
		RecipientName: invite.BorrowerName,
		Deed:          invite.Deed,
		SigningURL:    invite.SigningURL,
	})
}

// SendCooperativeInvite delivers the cooperative signer signing-link notification.
func (m *mailgunMailer) SendCooperativeInvite(ctx context.Context, invite CooperativeInvite) error {
	return m.send(ctx, invite.RecipientEmail, subjectCooperativeInvite, "cooperative_invite.html", templateContext{
		RecipientName: invite.AdminName,
		Deed:          invite.Deed,
		SigningURL:    invite.SigningURL,
	})
}

// SendCooperativeSummary delivers the administrator summary notification.
func (m *mailgunMailer) SendCooperativeSummary(ctx context.Context, summary CooperativeSummary) error {
	return m.send(ctx, summary.RecipientEmail, subjectCooperativeSummary, "cooperative_summary.html", templateContext{
		RecipientName: summary.AdminName,
		Deed:          summary.Deed,
		BorrowerNames: summary.BorrowerNames,
	})
}
