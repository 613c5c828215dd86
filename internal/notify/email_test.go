package notify

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockEmailClient struct {
	mock.Mock
}

func (m *mockEmailClient) SendEmail(ctx context.Context, input *sesv2.SendEmailInput, opts ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	args := m.Called(ctx, input, opts)
	return args.Get(0).(*sesv2.SendEmailOutput), args.Error(1)
}

func TestSendEmail(t *testing.T) {
	client := new(mockEmailClient)
	client.On("SendEmail", mock.Anything, mock.MatchedBy(func(input *sesv2.SendEmailInput) bool {
		return *input.FromEmailAddress == "noreply@smartsave.example" &&
			input.Destination.ToAddresses[0] == "alice@example.com" &&
			*input.Content.Simple.Subject.Data == "Payout Received"
	}), mock.Anything).Return(&sesv2.SendEmailOutput{}, nil)

	n := NewEmailNotifierWithClient(client, "noreply@smartsave.example")
	err := n.SendEmail(context.Background(), "alice@example.com", "Payout Received", "Your payout has been sent.")
	assert.NoError(t, err)
	client.AssertExpectations(t)
}

func TestSendEmailSkipsEmptyRecipient(t *testing.T) {
	client := new(mockEmailClient)

	n := NewEmailNotifierWithClient(client, "noreply@smartsave.example")
	err := n.SendEmail(context.Background(), "", "Payout Received", "body")
	assert.NoError(t, err)
	client.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything, mock.Anything)
}
