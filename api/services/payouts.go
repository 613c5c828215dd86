package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cham-tech/SmartSave/api/middleware"
	"github.com/cham-tech/SmartSave/internal/authn"
	"github.com/cham-tech/SmartSave/internal/metrics"
	"github.com/cham-tech/SmartSave/models"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// GetPayoutsService lists the payout history of a group, newest first.
// Restricted to active members.
func GetPayoutsService(svc *Service, w http.ResponseWriter, r *http.Request) {

	logger := zerolog.Ctx(r.Context())

	claims, ok := r.Context().Value(middleware.ClaimsKey).(authn.Claims)
	if !ok {
		logger.Warn().Msg("Unauthorized request: missing claims")
		WriteResponse(w, http.StatusUnauthorized, nil)
		return
	}

	groupID, err := uuid.Parse(mux.Vars(r)["group-id"])
	if err != nil {
		logger.Warn().Err(err).Msg("Invalid group id")
		WriteErrorResponse(w, http.StatusBadRequest, "invalid_id", "group id must be a UUID")
		return
	}

	if _, ok := requireActiveMember(svc, w, logger, claims, groupID); !ok {
		return
	}

	payouts, err := svc.DB.GetGroupPayouts(groupID)
	if err != nil {
		logger.Error().Err(err).Str("group_id", groupID.String()).Msg("Database error retrieving payouts")
		WriteResponse(w, http.StatusInternalServerError, nil)
		return
	}

	if payouts == nil {
		payouts = []models.Payout{}
	}

	logger.Info().Int("payout_count", len(payouts)).Msg("Successfully retrieved payouts")
	WriteResponse(w, http.StatusOK, models.Response{Success: 1, Data: models.PayoutsResponse{Payouts: payouts}})
}

// DisbursePayout transfers a pending payout to its recipient through the
// gateway and marks it completed on confirmation. The transfer reference is
// stored before the gateway call and reused on retries, so a transfer that
// succeeded but never got confirmed cannot be sent twice.
func DisbursePayout(svc *Service, ctx context.Context, logger *zerolog.Logger, payout *models.Payout, group *models.Group) error {

	recipient, err := svc.DB.GetUser(payout.UserID)
	if err != nil {
		return fmt.Errorf("error resolving payout recipient: %w", err)
	}
	if recipient == nil {
		return fmt.Errorf("payout recipient %s does not exist", payout.UserID)
	}

	reference := payout.TransactionReference
	if reference == "" {
		reference = "PAYOUT-" + uuid.New().String()
		if err := svc.DB.SetPayoutReference(payout.ID, reference); err != nil {
			return fmt.Errorf("error storing payout reference: %w", err)
		}
		payout.TransactionReference = reference
	}

	narration := fmt.Sprintf("Payout for %s cycle %d", group.Name, payout.CycleNumber)

	start := time.Now()
	_, gwErr := svc.Gateway.Send(ctx, recipient.Phone, payout.Amount, reference, narration)
	if gwErr != nil {
		metrics.ObserveGatewayRequest("disburse", "failed", time.Since(start))
		metrics.ObservePayout("failed")

		notifyUser(svc, logger, payout.UserID, "Payout Failed",
			fmt.Sprintf("Your payout of %s for cycle %d of %s could not be sent. It will be retried automatically.",
				formatAmount(svc.Config.Currency, payout.Amount), payout.CycleNumber, group.Name))

		return fmt.Errorf("error disbursing payout %s: %w", payout.ID, gwErr)
	}
	metrics.ObserveGatewayRequest("disburse", "completed", time.Since(start))

	if err := svc.DB.MarkPayoutCompleted(payout.ID); err != nil {
		return fmt.Errorf("error marking payout completed: %w", err)
	}
	payout.Status = models.PayoutCompleted
	metrics.ObservePayout("completed")

	logger.Info().Str("payout_id", payout.ID.String()).Str("reference", reference).
		Msg("Successfully disbursed payout")

	notifyUser(svc, logger, payout.UserID, "Payout Received",
		fmt.Sprintf("Your payout of %s for cycle %d of %s has been sent to your mobile money account.",
			formatAmount(svc.Config.Currency, payout.Amount), payout.CycleNumber, group.Name))

	if svc.Email != nil && recipient.Email != "" {
		if err := svc.Email.SendEmail(ctx, recipient.Email, "Payout Received",
			fmt.Sprintf("Hello %s,\n\nYour payout of %s from the savings group %s has been sent.\n\nReference: %s\n",
				recipient.FirstName, formatAmount(svc.Config.Currency, payout.Amount), group.Name, reference)); err != nil {
			logger.Warn().Err(err).Str("payout_id", payout.ID.String()).Msg("Failed to send payout email")
		}
	}

	return nil
}

// ReconcilePayouts retries every pending payout, oldest first. Payouts left
// pending by a disbursement failure at cycle close are picked up here.
func ReconcilePayouts(svc *Service, ctx context.Context, logger *zerolog.Logger) error {

	payouts, err := svc.DB.GetPendingPayouts(svc.Config.Payouts.ReconcileBatchSize)
	if err != nil {
		return fmt.Errorf("error listing pending payouts: %w", err)
	}

	logger.Info().Int("pending_count", len(payouts)).Msg("Reconciling pending payouts")

	var failures int
	for i := range payouts {
		payout := &payouts[i]

		cycle, err := svc.DB.GetCycle(payout.CycleID)
		if err != nil || cycle == nil {
			logger.Error().Err(err).Str("payout_id", payout.ID.String()).Msg("Failed to resolve payout cycle")
			failures++
			continue
		}
		group, err := svc.DB.GetGroup(cycle.GroupID)
		if err != nil || group == nil {
			logger.Error().Err(err).Str("payout_id", payout.ID.String()).Msg("Failed to resolve payout group")
			failures++
			continue
		}

		if err := DisbursePayout(svc, ctx, logger, payout, group); err != nil {
			logger.Error().Err(err).Str("payout_id", payout.ID.String()).Msg("Payout retry failed")
			failures++
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d pending payouts failed to disburse", failures, len(payouts))
	}
	return nil
}
