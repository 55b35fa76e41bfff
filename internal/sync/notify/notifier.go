// internal/sync/notify/notifier.go

// Package notify reports run summaries to operators over email and SMS.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"

	"fhrs-sync/internal/common/config"
	"fhrs-sync/internal/common/logger"
	"fhrs-sync/internal/sync/ingest"
)

var ErrNotificationSendFailed = errors.New("NOTIFICATION_SEND_FAILED")

// SESService and SNSService let tests mock the AWS clients.
type SESService interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

// RunSummaryNotifier sends a short report after each ingestion run. Channels
// are independently enabled by configuration; a channel failure is reported
// but never blocks the other channel.
type RunSummaryNotifier struct {
	cfg       config.NotificationConfig
	sesClient SESService
	snsClient SNSService
	logger    logger.Logger
}

func NewRunSummaryNotifier(cfg config.NotificationConfig, sesClient SESService, snsClient SNSService, log logger.Logger) *RunSummaryNotifier {
	return &RunSummaryNotifier{
		cfg:       cfg,
		sesClient: sesClient,
		snsClient: snsClient,
		logger:    log,
	}
}

func (n *RunSummaryNotifier) NotifyRunSummary(ctx context.Context, summary ingest.RunSummary) error {
	subject := fmt.Sprintf("FHRS sync run %s: %d files completed, %d failed",
		summary.RunID, summary.FilesCompleted, summary.FilesFailed)
	body := formatSummary(summary)

	var failures []string

	if n.cfg.Email.Enabled && len(n.cfg.Email.To) > 0 {
		if err := n.sendEmail(ctx, subject, body); err != nil {
			n.logger.WithError(err).Error("Summary email failed", map[string]interface{}{
				"runId": summary.RunID,
			})
			failures = append(failures, "email")
		}
	}

	if n.cfg.SMS.Enabled && len(n.cfg.SMS.To) > 0 {
		if err := n.sendSMS(ctx, subject); err != nil {
			n.logger.WithError(err).Error("Summary SMS failed", map[string]interface{}{
				"runId": summary.RunID,
			})
			failures = append(failures, "sms")
		}
	}

	if len(failures) > 0 {
		return fmt.Errorf("%w: %s", ErrNotificationSendFailed, strings.Join(failures, ", "))
	}
	return nil
}

func formatSummary(s ingest.RunSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s finished in %s.\n\n", s.RunID, s.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "Files completed: %d\n", s.FilesCompleted)
	fmt.Fprintf(&b, "Files failed:    %d\n", s.FilesFailed)
	fmt.Fprintf(&b, "Records stored:  %d\n", s.RecordsOK)
	fmt.Fprintf(&b, "Records skipped: %d\n", s.RecordsSkipped)
	fmt.Fprintf(&b, "Records errored: %d\n", s.RecordsErrored)
	return b.String()
}

func (n *RunSummaryNotifier) sendEmail(ctx context.Context, subject, body string) error {
	_, err := n.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &sestypes.Destination{
			ToAddresses: n.cfg.Email.To,
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.cfg.Email.FromEmail),
	})
	return err
}

func (n *RunSummaryNotifier) sendSMS(ctx context.Context, message string) error {
	for _, to := range n.cfg.SMS.To {
		input := &sns.PublishInput{
			PhoneNumber: aws.String(to),
			Message:     aws.String(message),
		}
		if n.cfg.SMS.SenderID != "" {
			input.MessageAttributes = map[string]snstypes.MessageAttributeValue{
				"AWS.SNS.SMS.SenderID": {
					DataType:    aws.String("String"),
					StringValue: aws.String(n.cfg.SMS.SenderID),
				},
			}
		}
		if _, err := n.snsClient.Publish(ctx, input); err != nil {
			return err
		}
	}
	return nil
}
