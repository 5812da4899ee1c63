// Package email sends transactional mail through AWS SES.
package email

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/chronically/chronically/internal/telemetry"
)

// Sender delivers notification email.
type Sender interface {
	SendFollowRequestEmail(ctx context.Context, toEmail, requester string) error
}

type sesAPI interface {
	SendEmail(ctx context.Context, in *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// EmailService handles sending emails via AWS SES
type EmailService struct {
	client    sesAPI
	fromEmail string
	fromName  string
}

// NewEmailService creates a new email service using AWS SES
func NewEmailService(region, fromEmail, fromName string) (*EmailService, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithHTTPClient(telemetry.NewInstrumentedHTTPClient("ses", 0)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &EmailService{
		client:    ses.NewFromConfig(cfg),
		fromEmail: fromEmail,
		fromName:  fromName,
	}, nil
}

// SendFollowRequestEmail tells toEmail that requester wants to connect.
func (e *EmailService) SendFollowRequestEmail(ctx context.Context, toEmail, requester string) error {
	ctx, span := telemetry.TraceEmailCall(ctx, "follow_request")
	defer span.End()

	subject := fmt.Sprintf("%s wants to follow you on Chronically", requester)
	name := html.EscapeString(requester)
	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; color: #333;">
	<h1>New follow request</h1>
	<p><strong>%s</strong> sent you a follow request.</p>
	<p>Open Chronically to accept or decline it.</p>
	<hr>
	<p style="color: #999; font-size: 12px;">This is an automated message from Chronically.</p>
</body>
</html>`, name)
	textBody := fmt.Sprintf("%s sent you a follow request.\n\nOpen Chronically to accept or decline it.\n", requester)

	from := e.fromEmail
	if e.fromName != "" {
		from = fmt.Sprintf("%s <%s>", e.fromName, e.fromEmail)
	}

	_, err := e.client.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(htmlBody), Charset: aws.String("UTF-8")},
				Text: &types.Content{Data: aws.String(textBody), Charset: aws.String("UTF-8")},
			},
		},
	})
	if err != nil {
		telemetry.RecordServiceError(span, err)
		return fmt.Errorf("failed to send follow request email: %w", err)
	}
	return nil
}

// Noop is used when SES is not configured.
type Noop struct{}

func (Noop) SendFollowRequestEmail(context.Context, string, string) error { return nil }
