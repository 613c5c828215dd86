package services

import (
	"github.com/cham-tech/SmartSave/db"
	"github.com/cham-tech/SmartSave/internal/appconfig"
	"github.com/cham-tech/SmartSave/internal/events"
	"github.com/cham-tech/SmartSave/internal/gateway"
	"github.com/cham-tech/SmartSave/internal/notify"
	"github.com/cham-tech/SmartSave/models"
	"github.com/google/uuid"
)

// CircleStore is the persistence surface the services depend on. It is
// implemented by db.CircleDB and mocked in tests.
type CircleStore interface {
	EnsureUser(user *models.User) (*models.User, error)
	GetUser(userID uuid.UUID) (*models.User, error)

	CreateGroup(req *models.GroupRequest, creator uuid.UUID) (*models.Group, error)
	GetGroups() ([]models.Group, error)
	GetUserGroups(userID uuid.UUID) ([]models.Group, error)
	GetGroup(groupID uuid.UUID) (*models.Group, error)
	JoinGroup(groupID, userID uuid.UUID) (*models.Membership, error)
	GetMembers(groupID uuid.UUID) ([]models.Membership, error)
	IsActiveMember(groupID, userID uuid.UUID) (bool, error)

	GetCycle(cycleID uuid.UUID) (*models.Cycle, error)
	GetCurrentCycleProgress(groupID uuid.UUID) (*models.CycleProgress, error)
	GetCompletedCycles(groupID uuid.UUID) ([]models.CompletedCycle, error)

	SettleContribution(contrib *models.Contribution, picker db.RecipientPicker, openNext bool) (*models.CycleCloseResult, error)
	HasCompletedContribution(cycleID, userID uuid.UUID) (bool, error)
	GetContributions(cycleID uuid.UUID) ([]models.Contribution, error)

	SetPayoutReference(payoutID uuid.UUID, reference string) error
	MarkPayoutCompleted(payoutID uuid.UUID) error
	GetGroupPayouts(groupID uuid.UUID) ([]models.Payout, error)
	GetPendingPayouts(limit int) ([]models.Payout, error)

	CreateNotification(userID uuid.UUID, title, message string) error
}

// Service contains all shared dependencies for handlers.
type Service struct {
	Config    *appconfig.Config
	DB        CircleStore
	Publisher events.Notifier
	Gateway   gateway.Client
	Selector  db.RecipientPicker
	Email     *notify.EmailNotifier
}
