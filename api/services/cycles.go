package services

import (
	"net/http"

	"github.com/cham-tech/SmartSave/api/middleware"
	"github.com/cham-tech/SmartSave/internal/authn"
	"github.com/cham-tech/SmartSave/models"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// GetCurrentCycleService retrieves the open cycle of a group together with
// its progress counts. Restricted to active members.
func GetCurrentCycleService(svc *Service, w http.ResponseWriter, r *http.Request) {

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

	progress, err := svc.DB.GetCurrentCycleProgress(groupID)
	if err != nil {
		logger.Error().Err(err).Str("group_id", groupID.String()).Msg("Database error retrieving cycle progress")
		WriteResponse(w, http.StatusInternalServerError, nil)
		return
	}
	if progress == nil {
		WriteErrorResponse(w, http.StatusNotFound, "not_found", "group has no open cycle")
		return
	}

	logger.Info().Str("cycle_id", progress.Cycle.ID.String()).
		Int("completed", progress.CompletedContributions).
		Int("active_members", progress.ActiveMembers).
		Msg("Successfully retrieved current cycle")
	WriteResponse(w, http.StatusOK, models.Response{Success: 1, Data: progress})
}

// GetCycleHistoryService lists the completed cycles of a group, newest
// first, each joined with its payout and recipient. Restricted to active
// members.
func GetCycleHistoryService(svc *Service, w http.ResponseWriter, r *http.Request) {

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

	cycles, err := svc.DB.GetCompletedCycles(groupID)
	if err != nil {
		logger.Error().Err(err).Str("group_id", groupID.String()).Msg("Database error retrieving cycle history")
		WriteResponse(w, http.StatusInternalServerError, nil)
		return
	}

	if cycles == nil {
		cycles = []models.CompletedCycle{}
	}

	logger.Info().Int("cycle_count", len(cycles)).Msg("Successfully retrieved cycle history")
	WriteResponse(w, http.StatusOK, models.Response{Success: 1, Data: models.CycleHistoryResponse{Cycles: cycles}})
}
