package services

import (
	"context"

	"github.com/cham-tech/SmartSave/db"
	"github.com/cham-tech/SmartSave/internal/events"
	"github.com/cham-tech/SmartSave/internal/gateway"
	"github.com/cham-tech/SmartSave/models"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockCircleDB struct {
	mock.Mock
}

type MockGateway struct {
	mock.Mock
}

type MockNotifier struct {
	mock.Mock
}

type MockAWSEmailClient struct {
	mock.Mock
}

func (m *MockCircleDB) EnsureUser(user *models.User) (*models.User, error) {
	args := m.Called(user)
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockCircleDB) GetUser(userID uuid.UUID) (*models.User, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockCircleDB) CreateGroup(req *models.GroupRequest, creator uuid.UUID) (*models.Group, error) {
	args := m.Called(req, creator)
	return args.Get(0).(*models.Group), args.Error(1)
}

func (m *MockCircleDB) GetGroups() ([]models.Group, error) {
	args := m.Called()
	return args.Get(0).([]models.Group), args.Error(1)
}

func (m *MockCircleDB) GetUserGroups(userID uuid.UUID) ([]models.Group, error) {
	args := m.Called(userID)
	return args.Get(0).([]models.Group), args.Error(1)
}

func (m *MockCircleDB) GetGroup(groupID uuid.UUID) (*models.Group, error) {
	args := m.Called(groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Group), args.Error(1)
}

func (m *MockCircleDB) JoinGroup(groupID, userID uuid.UUID) (*models.Membership, error) {
	args := m.Called(groupID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Membership), args.Error(1)
}

func (m *MockCircleDB) GetMembers(groupID uuid.UUID) ([]models.Membership, error) {
	args := m.Called(groupID)
	return args.Get(0).([]models.Membership), args.Error(1)
}

func (m *MockCircleDB) IsActiveMember(groupID, userID uuid.UUID) (bool, error) {
	args := m.Called(groupID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCircleDB) GetCycle(cycleID uuid.UUID) (*models.Cycle, error) {
	args := m.Called(cycleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Cycle), args.Error(1)
}

func (m *MockCircleDB) GetCurrentCycleProgress(groupID uuid.UUID) (*models.CycleProgress, error) {
	args := m.Called(groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CycleProgress), args.Error(1)
}

func (m *MockCircleDB) GetCompletedCycles(groupID uuid.UUID) ([]models.CompletedCycle, error) {
	args := m.Called(groupID)
	return args.Get(0).([]models.CompletedCycle), args.Error(1)
}

func (m *MockCircleDB) SettleContribution(contrib *models.Contribution, picker db.RecipientPicker, openNext bool) (*models.CycleCloseResult, error) {
	args := m.Called(contrib, picker, openNext)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CycleCloseResult), args.Error(1)
}

func (m *MockCircleDB) HasCompletedContribution(cycleID, userID uuid.UUID) (bool, error) {
	args := m.Called(cycleID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCircleDB) GetContributions(cycleID uuid.UUID) ([]models.Contribution, error) {
	args := m.Called(cycleID)
	return args.Get(0).([]models.Contribution), args.Error(1)
}

func (m *MockCircleDB) SetPayoutReference(payoutID uuid.UUID, reference string) error {
	args := m.Called(payoutID, reference)
	return args.Error(0)
}

func (m *MockCircleDB) MarkPayoutCompleted(payoutID uuid.UUID) error {
	args := m.Called(payoutID)
	return args.Error(0)
}

func (m *MockCircleDB) GetGroupPayouts(groupID uuid.UUID) ([]models.Payout, error) {
	args := m.Called(groupID)
	return args.Get(0).([]models.Payout), args.Error(1)
}

func (m *MockCircleDB) GetPendingPayouts(limit int) ([]models.Payout, error) {
	args := m.Called(limit)
	return args.Get(0).([]models.Payout), args.Error(1)
}

func (m *MockCircleDB) CreateNotification(userID uuid.UUID, title, message string) error {
	args := m.Called(userID, title, message)
	return args.Error(0)
}

func (m *MockGateway) Send(ctx context.Context, phone string, amount float64, reference, narration string) (*gateway.Result, error) {
	args := m.Called(ctx, phone, amount, reference, narration)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Result), args.Error(1)
}

// Mock the Publish method
func (m *MockNotifier) Publish(event events.NotificationEvent) error {
	args := m.Called(event)
	return args.Error(0)
}

// Mock the Close method
func (m *MockNotifier) Close() {
	m.Called()
}

func (m *MockAWSEmailClient) SendEmail(ctx context.Context, input *sesv2.SendEmailInput, opts ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	args := m.Called(ctx, input, opts)
	return args.Get(0).(*sesv2.SendEmailOutput), args.Error(1)
}
