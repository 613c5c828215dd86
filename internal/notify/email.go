package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// EmailClient is the slice of the SES v2 API the notifier needs.
type EmailClient interface {
	SendEmail(ctx context.Context, input *sesv2.SendEmailInput, opts ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailNotifier sends payout emails through AWS SES. Email is a secondary
// channel on top of the event stream; members without an email address are
// simply skipped.
type EmailNotifier struct {
	client EmailClient
	sender string
}

// NewEmailNotifier builds an SES-backed notifier from the default AWS
// credential chain.
func NewEmailNotifier(ctx context.Context, region, sender string) (*EmailNotifier, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config, %v", err)
	}
	return &EmailNotifier{client: sesv2.NewFromConfig(cfg), sender: sender}, nil
}

// NewEmailNotifierWithClient wires an explicit client; used by tests.
func NewEmailNotifierWithClient(client EmailClient, sender string) *EmailNotifier {
	return &EmailNotifier{client: client, sender: sender}
}

// SendEmail sends a single plain-text email.
func (n *EmailNotifier) SendEmail(ctx context.Context, to, subject, body string) error {
	if to == "" {
		return nil
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: &n.sender,
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &subject},
				Body: &types.Body{
					Text: &types.Content{Data: &body},
				},
			},
		},
	}

	if _, err := n.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("error sending email: %w", err)
	}
	return nil
}
