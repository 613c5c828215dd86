package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/cham-tech/SmartSave/api/middleware"
	"github.com/cham-tech/SmartSave/internal/authn"
	"github.com/cham-tech/SmartSave/internal/gateway"
	"github.com/cham-tech/SmartSave/internal/metrics"
	"github.com/cham-tech/SmartSave/models"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// CreateContributionService collects a member's contribution for the current
// cycle. Validation happens before the gateway is called: the cycle must be
// open, the user an active member, the amount equal to the group's amount
// per cycle, and no completed contribution may already exist. The gateway
// charge runs outside any database transaction; settlement afterwards
// records the attempt and closes the cycle atomically if it was the last
// one needed.
func CreateContributionService(svc *Service, w http.ResponseWriter, r *http.Request) {

	logger := zerolog.Ctx(r.Context())

	claims, ok := r.Context().Value(middleware.ClaimsKey).(authn.Claims)
	if !ok {
		logger.Warn().Msg("Unauthorized request: missing claims")
		WriteResponse(w, http.StatusUnauthorized, nil)
		return
	}

	cycleID, err := uuid.Parse(mux.Vars(r)["cycle-id"])
	if err != nil {
		logger.Warn().Err(err).Msg("Invalid cycle id")
		WriteErrorResponse(w, http.StatusBadRequest, "invalid_id", "cycle id must be a UUID")
		return
	}

	cycle, err := svc.DB.GetCycle(cycleID)
	if err != nil {
		logger.Error().Err(err).Str("cycle_id", cycleID.String()).Msg("Database error retrieving cycle")
		WriteResponse(w, http.StatusInternalServerError, nil)
		return
	}
	if cycle == nil || cycle.IsCompleted {
		logger.Warn().Str("cycle_id", cycleID.String()).Msg("Contribution rejected: cycle not open")
		WriteErrorResponse(w, http.StatusGone, "invalid_cycle", models.ErrInvalidCycle.Error())
		return
	}

	user, err := currentUser(svc, claims)
	if err != nil {
		logger.Error().Err(err).Msg("Database error resolving user")
		WriteResponse(w, http.StatusInternalServerError, nil)
		return
	}

	isMember, err := svc.DB.IsActiveMember(cycle.GroupID, user.ID)
	if err != nil {
		logger.Error().Err(err).Msg("Database error checking membership")
		WriteResponse(w, http.StatusInternalServerError, nil)
		return
	}
	if !isMember {
		logger.Warn().Str("cycle_id", cycleID.String()).Str("user", claims.Username).
			Msg("Contribution rejected: not an active member")
		WriteErrorResponse(w, http.StatusForbidden, "not_a_member", models.ErrNotAMember.Error())
		return
	}

	group, err := svc.DB.GetGroup(cycle.GroupID)
	if err != nil || group == nil {
		logger.Error().Err(err).Str("group_id", cycle.GroupID.String()).Msg("Database error retrieving group")
		WriteResponse(w, http.StatusInternalServerError, nil)
		return
	}

	var req models.ContributionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn().Err(err).Msg("Invalid request payload")
		WriteErrorResponse(w, http.StatusBadRequest, "invalid_payload", "request body must be valid JSON")
		return
	}

	if math.Abs(req.Amount-group.AmountPerCycle) > models.AmountTolerance {
		logger.Warn().Float64("amount", req.Amount).Float64("expected", group.AmountPerCycle).
			Msg("Contribution rejected: amount mismatch")
		WriteErrorResponse(w, http.StatusBadRequest, "amount_mismatch", models.ErrAmountMismatch.Error())
		return
	}

	// Pre-check keeps the common duplicate path away from the gateway; the
	// partial unique index catches the race this check cannot.
	alreadyContributed, err := svc.DB.HasCompletedContribution(cycleID, user.ID)
	if err != nil {
		logger.Error().Err(err).Msg("Database error checking for duplicate contribution")
		WriteResponse(w, http.StatusInternalServerError, nil)
		return
	}
	if alreadyContributed {
		logger.Warn().Str("cycle_id", cycleID.String()).Str("user", claims.Username).
			Msg("Contribution rejected: duplicate")
		WriteErrorResponse(w, http.StatusConflict, "duplicate_contribution", models.ErrDuplicateContribution.Error())
		return
	}

	reference := "CONTRIB-" + uuid.New().String()
	narration := fmt.Sprintf("Contribution for %s cycle %d", group.Name, cycle.CycleNumber)

	start := time.Now()
	_, gwErr := svc.Gateway.Send(r.Context(), user.Phone, req.Amount, reference, narration)
	status := models.ContributionCompleted
	if gwErr != nil {
		status = models.ContributionFailed
	}
	metrics.ObserveGatewayRequest("collect", status, time.Since(start))

	contrib := &models.Contribution{
		CycleID:              cycleID,
		UserID:               user.ID,
		Amount:               req.Amount,
		TransactionReference: reference,
		Status:               status,
	}

	if gwErr != nil {
		var rejection *gateway.Error
		if errors.As(gwErr, &rejection) {
			// Definitive rejection: keep the failed attempt on record so the
			// member can retry later.
			if _, err := svc.DB.SettleContribution(contrib, svc.Selector, svc.Config.Payouts.AdvanceOnDisburseFailure); err != nil {
				logger.Error().Err(err).Msg("Database error recording failed contribution")
				WriteResponse(w, http.StatusInternalServerError, nil)
				return
			}
			metrics.ObserveContribution(models.ContributionFailed)
			logger.Warn().Str("reference", reference).Str("reason", rejection.Reason).
				Msg("Contribution payment declined")
			WriteErrorResponse(w, http.StatusPaymentRequired, "payment_failed", rejection.Reason)
			return
		}

		if errors.Is(gwErr, models.ErrGatewayTimeout) {
			if _, err := svc.DB.SettleContribution(contrib, svc.Selector, svc.Config.Payouts.AdvanceOnDisburseFailure); err != nil {
				logger.Error().Err(err).Msg("Database error recording failed contribution")
				WriteResponse(w, http.StatusInternalServerError, nil)
				return
			}
			metrics.ObserveContribution(models.ContributionFailed)
			logger.Error().Err(gwErr).Str("reference", reference).Msg("Contribution payment timed out")
			WriteErrorResponse(w, http.StatusGatewayTimeout, "gateway_timeout", models.ErrGatewayTimeout.Error())
			return
		}

		logger.Error().Err(gwErr).Str("reference", reference).Msg("Gateway error collecting contribution")
		WriteResponse(w, http.StatusInternalServerError, nil)
		return
	}

	result, err := svc.DB.SettleContribution(contrib, svc.Selector, svc.Config.Payouts.AdvanceOnDisburseFailure)
	if err != nil {
		if errors.Is(err, models.ErrDuplicateContribution) {
			// Lost the duplicate race after a successful charge. Surface the
			// conflict; the collected funds are reconciled out of band.
			logger.Warn().Str("reference", reference).Msg("Duplicate contribution detected at settlement")
			WriteErrorResponse(w, http.StatusConflict, "duplicate_contribution", err.Error())
			return
		}
		if errors.Is(err, models.ErrCycleClosed) {
			// The cycle closed while the charge was in flight. The attempt is
			// on record; the collected funds are reconciled out of band.
			logger.Warn().Str("reference", reference).Msg("Cycle closed before the contribution settled")
			WriteErrorResponse(w, http.StatusConflict, "cycle_closed", err.Error())
			return
		}
		logger.Error().Err(err).Str("reference", reference).Msg("Database error settling contribution")
		WriteResponse(w, http.StatusInternalServerError, nil)
		return
	}
	metrics.ObserveContribution(models.ContributionCompleted)

	logger.Info().Str("cycle_id", cycleID.String()).Str("reference", reference).
		Bool("cycle_closed", result.Closed).
		Msg("Successfully recorded contribution")

	if result.Closed {
		metrics.ObserveCycleClosed()
		finishCycle(svc, logger, r, group, cycle, result)
	}

	WriteResponse(w, http.StatusCreated, models.Response{Success: 1, Data: models.ContributionResponse{
		Contribution: *contrib,
		CycleClosed:  result.Closed,
	}})
}

// finishCycle runs the post-close side effects: member notifications and
// payout disbursement. The cycle is already closed and the next one open;
// none of these steps can roll that back.
func finishCycle(svc *Service, logger *zerolog.Logger, r *http.Request, group *models.Group, cycle *models.Cycle, result *models.CycleCloseResult) {

	payout := result.Payout

	notifyUser(svc, logger, payout.UserID, "Savings Circle Payout",
		fmt.Sprintf("You have been selected to receive the payout of %s for cycle %d of %s.",
			formatAmount(svc.Config.Currency, payout.Amount), cycle.CycleNumber, group.Name))

	update := fmt.Sprintf("Cycle %d of %s is complete.", cycle.CycleNumber, group.Name)
	if result.NextCycle != nil {
		update += " A new cycle has started."
	}

	members, err := svc.DB.GetMembers(group.ID)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to list members for cycle close notifications")
	}
	for _, m := range members {
		if m.UserID == payout.UserID {
			continue
		}
		notifyUser(svc, logger, m.UserID, "Savings Circle Update", update)
	}

	if err := DisbursePayout(svc, r.Context(), logger, payout, group); err != nil {
		// The payout stays pending and the new cycle stays open; the
		// reconciler retries the transfer later.
		logger.Error().Err(err).Str("payout_id", payout.ID.String()).
			Msg("Payout disbursement failed, left pending for reconciliation")
	}
}

// GetContributionsService lists the contribution history of a cycle, failed
// attempts included. Restricted to active members of the cycle's group.
func GetContributionsService(svc *Service, w http.ResponseWriter, r *http.Request) {

	logger := zerolog.Ctx(r.Context())

	claims, ok := r.Context().Value(middleware.ClaimsKey).(authn.Claims)
	if !ok {
		logger.Warn().Msg("Unauthorized request: missing claims")
		WriteResponse(w, http.StatusUnauthorized, nil)
		return
	}

	cycleID, err := uuid.Parse(mux.Vars(r)["cycle-id"])
	if err != nil {
		logger.Warn().Err(err).Msg("Invalid cycle id")
		WriteErrorResponse(w, http.StatusBadRequest, "invalid_id", "cycle id must be a UUID")
		return
	}

	cycle, err := svc.DB.GetCycle(cycleID)
	if err != nil {
		logger.Error().Err(err).Str("cycle_id", cycleID.String()).Msg("Database error retrieving cycle")
		WriteResponse(w, http.StatusInternalServerError, nil)
		return
	}
	if cycle == nil {
		WriteErrorResponse(w, http.StatusNotFound, "not_found", "cycle does not exist")
		return
	}

	if _, ok := requireActiveMember(svc, w, logger, claims, cycle.GroupID); !ok {
		return
	}

	contributions, err := svc.DB.GetContributions(cycleID)
	if err != nil {
		logger.Error().Err(err).Str("cycle_id", cycleID.String()).Msg("Database error retrieving contributions")
		WriteResponse(w, http.StatusInternalServerError, nil)
		return
	}

	if contributions == nil {
		contributions = []models.Contribution{}
	}

	logger.Info().Int("contribution_count", len(contributions)).Msg("Successfully retrieved contributions")
	WriteResponse(w, http.StatusOK, models.Response{Success: 1, Data: models.ContributionsResponse{Contributions: contributions}})
}
