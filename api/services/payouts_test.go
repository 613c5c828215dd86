package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cham-tech/SmartSave/internal/gateway"
	"github.com/cham-tech/SmartSave/internal/notify"
	"github.com/cham-tech/SmartSave/models"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestDisbursePayoutSetsFreshReference(t *testing.T) {
	mockDB := new(MockCircleDB)
	mockGateway := new(MockGateway)
	mockNotifier := new(MockNotifier)
	svc := newTestService(mockDB, mockGateway, mockNotifier)

	group := &models.Group{ID: uuid.New(), Name: "Boda Traders"}
	recipient := &models.User{ID: uuid.New(), Phone: "+256700000002"}
	payout := &models.Payout{ID: uuid.New(), UserID: recipient.ID, Amount: 30000,
		Status: models.PayoutPending, CycleNumber: 2}

	mockDB.On("GetUser", recipient.ID).Return(recipient, nil)
	mockDB.On("SetPayoutReference", payout.ID, mock.Anything).Return(nil)
	mockGateway.On("Send", mock.Anything, recipient.Phone, 30000.0, mock.Anything, mock.Anything).
		Return(&gateway.Result{TransactionID: "TX-2"}, nil)
	mockDB.On("MarkPayoutCompleted", payout.ID).Return(nil)
	mockDB.On("CreateNotification", recipient.ID, "Payout Received", mock.Anything).Return(nil)
	mockNotifier.On("Publish", mock.Anything).Return(nil)

	logger := zerolog.Nop()
	err := DisbursePayout(svc, context.Background(), &logger, payout, group)
	assert.NoError(t, err)
	assert.Equal(t, models.PayoutCompleted, payout.Status)
	assert.Contains(t, payout.TransactionReference, "PAYOUT-")

	mockDB.AssertExpectations(t)
}

func TestDisbursePayoutReusesExistingReference(t *testing.T) {
	mockDB := new(MockCircleDB)
	mockGateway := new(MockGateway)
	mockNotifier := new(MockNotifier)
	svc := newTestService(mockDB, mockGateway, mockNotifier)

	group := &models.Group{ID: uuid.New(), Name: "Boda Traders"}
	recipient := &models.User{ID: uuid.New(), Phone: "+256700000002"}
	payout := &models.Payout{ID: uuid.New(), UserID: recipient.ID, Amount: 30000,
		Status: models.PayoutPending, CycleNumber: 2,
		TransactionReference: "PAYOUT-existing"}

	mockDB.On("GetUser", recipient.ID).Return(recipient, nil)
	mockGateway.On("Send", mock.Anything, recipient.Phone, 30000.0, "PAYOUT-existing", mock.Anything).
		Return(&gateway.Result{TransactionID: "TX-2"}, nil)
	mockDB.On("MarkPayoutCompleted", payout.ID).Return(nil)
	mockDB.On("CreateNotification", recipient.ID, "Payout Received", mock.Anything).Return(nil)
	mockNotifier.On("Publish", mock.Anything).Return(nil)

	logger := zerolog.Nop()
	err := DisbursePayout(svc, context.Background(), &logger, payout, group)
	assert.NoError(t, err)

	// Transfers are idempotent per reference, so a retry must not mint a new one
	mockDB.AssertNotCalled(t, "SetPayoutReference", mock.Anything, mock.Anything)
}

func TestDisbursePayoutFailureLeavesPending(t *testing.T) {
	mockDB := new(MockCircleDB)
	mockGateway := new(MockGateway)
	mockNotifier := new(MockNotifier)
	svc := newTestService(mockDB, mockGateway, mockNotifier)

	group := &models.Group{ID: uuid.New(), Name: "Boda Traders"}
	recipient := &models.User{ID: uuid.New(), Phone: "+256700000002"}
	payout := &models.Payout{ID: uuid.New(), UserID: recipient.ID, Amount: 30000,
		Status: models.PayoutPending, CycleNumber: 2}

	mockDB.On("GetUser", recipient.ID).Return(recipient, nil)
	mockDB.On("SetPayoutReference", payout.ID, mock.Anything).Return(nil)
	mockGateway.On("Send", mock.Anything, recipient.Phone, 30000.0, mock.Anything, mock.Anything).
		Return(nil, &gateway.Error{Reason: "wallet unavailable"})
	mockDB.On("CreateNotification", recipient.ID, "Payout Failed", mock.Anything).Return(nil)
	mockNotifier.On("Publish", mock.Anything).Return(nil)

	logger := zerolog.Nop()
	err := DisbursePayout(svc, context.Background(), &logger, payout, group)
	assert.Error(t, err)
	assert.Equal(t, models.PayoutPending, payout.Status)
	mockDB.AssertNotCalled(t, "MarkPayoutCompleted", mock.Anything)
}

func TestGetPayoutsServiceRequiresMembership(t *testing.T) {
	mockDB := new(MockCircleDB)
	svc := newTestService(mockDB, new(MockGateway), new(MockNotifier))

	groupID := uuid.New()
	user := &models.User{ID: uuid.New(), Username: "alice"}

	mockDB.On("EnsureUser", mock.Anything).Return(user, nil)
	mockDB.On("IsActiveMember", groupID, user.ID).Return(false, nil)

	w := httptest.NewRecorder()
	GetPayoutsService(svc, w,
		newGroupScopedRequest("/api/v1/groups/"+groupID.String()+"/payouts", groupID))

	assert.Equal(t, http.StatusForbidden, w.Result().StatusCode)
	mockDB.AssertNotCalled(t, "GetGroupPayouts", mock.Anything)
}

func TestDisbursePayoutEmailsRecipient(t *testing.T) {
	mockDB := new(MockCircleDB)
	mockGateway := new(MockGateway)
	mockNotifier := new(MockNotifier)
	mockEmail := new(MockAWSEmailClient)
	svc := newTestService(mockDB, mockGateway, mockNotifier)
	svc.Email = notify.NewEmailNotifierWithClient(mockEmail, "noreply@smartsave.example")

	group := &models.Group{ID: uuid.New(), Name: "Boda Traders"}
	recipient := &models.User{ID: uuid.New(), FirstName: "Bob",
		Phone: "+256700000002", Email: "bob@example.com"}
	payout := &models.Payout{ID: uuid.New(), UserID: recipient.ID, Amount: 30000,
		Status: models.PayoutPending, CycleNumber: 2}

	mockDB.On("GetUser", recipient.ID).Return(recipient, nil)
	mockDB.On("SetPayoutReference", payout.ID, mock.Anything).Return(nil)
	mockGateway.On("Send", mock.Anything, recipient.Phone, 30000.0, mock.Anything, mock.Anything).
		Return(&gateway.Result{TransactionID: "TX-2"}, nil)
	mockDB.On("MarkPayoutCompleted", payout.ID).Return(nil)
	mockDB.On("CreateNotification", recipient.ID, "Payout Received", mock.Anything).Return(nil)
	mockNotifier.On("Publish", mock.Anything).Return(nil)

	mockEmail.On("SendEmail", mock.Anything, mock.MatchedBy(func(input *sesv2.SendEmailInput) bool {
		return input.Destination.ToAddresses[0] == "bob@example.com" &&
			*input.Content.Simple.Subject.Data == "Payout Received" &&
			strings.Contains(*input.Content.Simple.Body.Text.Data, group.Name)
	}), mock.Anything).Return(&sesv2.SendEmailOutput{}, nil)

	logger := zerolog.Nop()
	err := DisbursePayout(svc, context.Background(), &logger, payout, group)
	assert.NoError(t, err)
	mockEmail.AssertExpectations(t)
}

func TestReconcilePayouts(t *testing.T) {
	mockDB := new(MockCircleDB)
	mockGateway := new(MockGateway)
	mockNotifier := new(MockNotifier)
	svc := newTestService(mockDB, mockGateway, mockNotifier)

	group := &models.Group{ID: uuid.New(), Name: "Boda Traders"}
	cycle := &models.Cycle{ID: uuid.New(), GroupID: group.ID, CycleNumber: 2, IsCompleted: true}
	recipient := &models.User{ID: uuid.New(), Phone: "+256700000002"}
	pending := models.Payout{ID: uuid.New(), CycleID: cycle.ID, UserID: recipient.ID,
		Amount: 30000, Status: models.PayoutPending, CycleNumber: 2,
		TransactionReference: "PAYOUT-existing"}

	mockDB.On("GetPendingPayouts", 100).Return([]models.Payout{pending}, nil)
	mockDB.On("GetCycle", cycle.ID).Return(cycle, nil)
	mockDB.On("GetGroup", group.ID).Return(group, nil)
	mockDB.On("GetUser", recipient.ID).Return(recipient, nil)
	mockGateway.On("Send", mock.Anything, recipient.Phone, 30000.0, "PAYOUT-existing", mock.Anything).
		Return(&gateway.Result{TransactionID: "TX-9"}, nil)
	mockDB.On("MarkPayoutCompleted", pending.ID).Return(nil)
	mockDB.On("CreateNotification", recipient.ID, "Payout Received", mock.Anything).Return(nil)
	mockNotifier.On("Publish", mock.Anything).Return(nil)

	logger := zerolog.Nop()
	err := ReconcilePayouts(svc, context.Background(), &logger)
	assert.NoError(t, err)

	mockDB.AssertExpectations(t)
	mockGateway.AssertExpectations(t)
}

func TestReconcilePayoutsReportsFailures(t *testing.T) {
	mockDB := new(MockCircleDB)
	mockGateway := new(MockGateway)
	mockNotifier := new(MockNotifier)
	svc := newTestService(mockDB, mockGateway, mockNotifier)

	group := &models.Group{ID: uuid.New(), Name: "Boda Traders"}
	cycle := &models.Cycle{ID: uuid.New(), GroupID: group.ID, CycleNumber: 2, IsCompleted: true}
	recipient := &models.User{ID: uuid.New(), Phone: "+256700000002"}
	pending := models.Payout{ID: uuid.New(), CycleID: cycle.ID, UserID: recipient.ID,
		Amount: 30000, Status: models.PayoutPending, CycleNumber: 2}

	mockDB.On("GetPendingPayouts", 100).Return([]models.Payout{pending}, nil)
	mockDB.On("GetCycle", cycle.ID).Return(cycle, nil)
	mockDB.On("GetGroup", group.ID).Return(group, nil)
	mockDB.On("GetUser", recipient.ID).Return(recipient, nil)
	mockDB.On("SetPayoutReference", pending.ID, mock.Anything).Return(nil)
	mockGateway.On("Send", mock.Anything, recipient.Phone, 30000.0, mock.Anything, mock.Anything).
		Return(nil, &gateway.Error{Reason: "wallet unavailable"})
	mockDB.On("CreateNotification", recipient.ID, "Payout Failed", mock.Anything).Return(nil)
	mockNotifier.On("Publish", mock.Anything).Return(nil)

	logger := zerolog.Nop()
	err := ReconcilePayouts(svc, context.Background(), &logger)
	assert.Error(t, err)
	mockDB.AssertNotCalled(t, "MarkPayoutCompleted", mock.Anything)
}
