package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"

	"wordbuilder/internal/models"
)

// EmailService sends learner progress reports via Amazon SES. When no
// sender address is configured the service is created disabled and every
// send becomes a logged no-op, so deployments without SES just work.
type EmailService struct {
	client    *sesv2.Client
	fromEmail string
	fromName  string
	enabled   bool
	log       *zap.Logger
}

// NewEmailService creates a new email service
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName string, log *zap.Logger) (*EmailService, error) {
	if fromEmail == "" {
		log.Info("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false, log: log}, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Info("Email service enabled",
		zap.String("from", fromEmail),
		zap.String("region", awsRegion))

	return &EmailService{
		client:    sesv2.NewFromConfig(cfg),
		fromEmail: fromEmail,
		fromName:  fromName,
		enabled:   true,
		log:       log,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendProgressReport emails a per-level summary of a learner's progress.
func (s *EmailService) SendProgressReport(ctx context.Context, toEmail string, progress *models.ProgressReadResult) error {
	if !s.enabled {
		s.log.Info("Skipping email send (service disabled)",
			zap.String("to", toEmail),
			zap.String("session_id", progress.SessionID))
		return nil
	}

	name := progress.DisplayName
	if name == "" {
		name = models.DefaultDisplayName
	}
	subject := fmt.Sprintf("Word Builder progress report for %s", name)

	var htmlRows, textLines strings.Builder
	for _, lvl := range progress.Levels {
		action := ""
		if lvl.Assessment != nil {
			action = lvl.Assessment.RecommendedAction
		}
		htmlRows.WriteString(fmt.Sprintf(
			"<tr><td>%d</td><td>%d</td><td>%.0f%%</td><td>%d</td><td>%s</td></tr>",
			lvl.Level, lvl.WordsCompleted, lvl.Accuracy, lvl.BestStreak, action))
		textLines.WriteString(fmt.Sprintf(
			"  Level %d: %d words, %.0f%% accuracy, best streak %d (%s)\n",
			lvl.Level, lvl.WordsCompleted, lvl.Accuracy, lvl.BestStreak, action))
	}

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; color: #333;">
	<h2>Progress report: %s</h2>
	<p>Current level: %d &middot; Total score: %d</p>
	<table border="1" cellpadding="6" cellspacing="0">
		<tr><th>Level</th><th>Words</th><th>Accuracy</th><th>Best streak</th><th>Recommendation</th></tr>
		%s
	</table>
	<p style="font-size: 12px; color: #666;">This is an automated report from Word Builder. Please do not reply.</p>
</body>
</html>
`, name, progress.CurrentLevel, progress.TotalScore, htmlRows.String())

	textBody := fmt.Sprintf(`Progress report: %s

Current level: %d
Total score: %d

%s
---
This is an automated report from Word Builder. Please do not reply.
`, name, progress.CurrentLevel, progress.TotalScore, textLines.String())

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

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

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	s.log.Info("Email sent", zap.String("to", toEmail), zap.String("subject", subject))
	return nil
}
