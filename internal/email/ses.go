package email

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// Service sends transactional email via AWS SES.
type Service struct {
	client    *ses.Client
	fromEmail string
	fromName  string
	baseURL   string
}

// NewService creates a new email service using AWS SES.
func NewService(region, fromEmail, fromName, baseURL string) (*Service, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Service{
		client:    ses.NewFromConfig(cfg),
		fromEmail: fromEmail,
		fromName:  fromName,
		baseURL:   baseURL,
	}, nil
}

// SendPasswordResetEmail sends a password reset email carrying the recovery
// token. The web app's reset page extracts the token from the URL fragment
// and calls the confirm endpoint.
func (e *Service) SendPasswordResetEmail(ctx context.Context, toEmail, resetToken string) error {
	resetURL := fmt.Sprintf("%s/reset-password#access_token=%s&type=recovery", e.baseURL, resetToken)

	subject := "Reset your Hunter password"
	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1>Reset your password</h1>
    <p>You requested to reset your Hunter password. This link expires in 1 hour.</p>
    <p><a href="%s" style="display: inline-block; padding: 12px 24px; background: #1a73e8; color: #fff; text-decoration: none; border-radius: 6px;">Reset password</a></p>
    <p>Or copy this link into your browser:</p>
    <p style="word-break: break-all; color: #666;">%s</p>
    <p>If you didn't request this, you can safely ignore this email.</p>
  </div>
</body>
</html>`, resetURL, resetURL)

	textBody := fmt.Sprintf(`Reset your Hunter password

You requested to reset your Hunter password. This link expires in 1 hour.

%s

If you didn't request this, you can safely ignore this email.
`, resetURL)

	from := e.fromEmail
	if e.fromName != "" {
		from = fmt.Sprintf("%s <%s>", e.fromName, e.fromEmail)
	}

	input := &ses.SendEmailInput{
		Source: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data:    aws.String(htmlBody),
					Charset: aws.String("UTF-8"),
				},
				Text: &types.Content{
					Data:    aws.String(textBody),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	}

	if _, err := e.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}

	return nil
}
