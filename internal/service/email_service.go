package service

import (
	"context"
	"fmt"
	"html"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"buddybot/internal/models"
)

// GuardianNotifier tells a guardian about a user's achievement
type GuardianNotifier interface {
	NotifyAchievement(ctx context.Context, profile models.UserProfile, a models.Achievement) error
}

// sesAPI is the part of the SES client the email service uses
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService sends guardian emails via Amazon SES
type EmailService struct {
	client    sesAPI
	fromEmail string
	fromName  string
	enabled   bool
	logger    *slog.Logger
}

// NewEmailService creates a new email service. It is disabled, and every
// send is skipped, when fromEmail is empty.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName string, logger *slog.Logger) (*EmailService, error) {
	if fromEmail == "" {
		logger.Info("email service disabled: no sender address configured")
		return &EmailService{enabled: false, logger: logger}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	logger.Info("email service enabled", "from", fromEmail, "region", awsRegion)
	return newEmailService(sesv2.NewFromConfig(cfg), fromEmail, fromName, logger), nil
}

func newEmailService(client sesAPI, fromEmail, fromName string, logger *slog.Logger) *EmailService {
	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
		enabled:   true,
		logger:    logger,
	}
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// NotifyAchievement emails the profile's guardian about an earned achievement
func (s *EmailService) NotifyAchievement(ctx context.Context, profile models.UserProfile, a models.Achievement) error {
	if !s.enabled {
		s.logger.Info("skipping email send (service disabled)", "kind", "achievement", "achievement_id", a.ID)
		return nil
	}
	if profile.GuardianEmail == "" {
		return ErrNoGuardianEmail
	}

	name := html.EscapeString(profile.DisplayName)
	title := html.EscapeString(a.Title)
	desc := html.EscapeString(a.Description)
	earned := a.EarnedAt.Format("2 January 2006")

	subject := fmt.Sprintf("%s earned a new badge on BuddyBot", profile.DisplayName)
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #87CEEB; color: #1a3a4a; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		.badge { font-size: 48px; text-align: center; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header">
			<h1>A new achievement!</h1>
		</div>
		<div class="content">
			<p class="badge">%s</p>
			<p>%s earned <strong>%s</strong> on %s.</p>
			<p>%s</p>
			<p>Celebrating small wins together makes a big difference.</p>
		</div>
		<div class="footer">
			<p>You are receiving this because progress sharing is turned on in BuddyBot. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`, html.EscapeString(a.Icon), name, title, earned, desc)

	textBody := fmt.Sprintf(`%s earned "%s" on %s.

%s

Celebrating small wins together makes a big difference.

---
You are receiving this because progress sharing is turned on in BuddyBot. Please do not reply.
`, profile.DisplayName, a.Title, earned, a.Description)

	return s.sendEmail(ctx, profile.GuardianEmail, subject, htmlBody, textBody)
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
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
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	s.logger.Info("email sent", "to", toEmail, "subject", subject, "message_id", aws.ToString(result.MessageId))
	return nil
}
