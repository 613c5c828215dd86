package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/cham-tech/SmartSave/api/middleware"
	"github.com/cham-tech/SmartSave/internal/authn"
	"github.com/cham-tech/SmartSave/models"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// CreateGroupService creates a new savings group. The creator automatically
// becomes the first active member and cycle 1 opens in the same transaction.
func CreateGroupService(svc *Service, w http.ResponseWriter, r *http.Request) {

	logger := zerolog.Ctx(r.Context())

	claims, ok := r.Context().Value(middleware.ClaimsKey).(authn.Claims)
	if !ok {
		logger.Warn().Msg("Unauthorized request: missing claims")
		WriteResponse(w, http.StatusUnauthorized, nil)
		return
	}

	var req models.GroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn().Err(err).Msg("Invalid request payload")
		WriteErrorResponse(w, http.StatusBadRequest, "invalid_payload", "request body must be valid JSON")
		return
	}

	if err := validateGroupRequest(&req); err != nil {
		logger.Warn().Err(err).Msg("Invalid group request")
		WriteErrorResponse(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	user, err := currentUser(svc, claims)
	if err != nil {
		logger.Error().Err(err).Msg("Database error resolving user")
		WriteResponse(w, http.StatusInternalServerError, nil)
		return
	}

	group, err := svc.DB.CreateGroup(&req, user.ID)
	if err != nil {
		logger.Error().Err(err).Msg("Database error creating group")
		WriteResponse(w, http.StatusInternalServerError, nil)
		return
	}

	logger.Info().Str("group_id", group.ID.String()).Str("group_name", group.Name).
		Msg("Successfully created group")

	location := fmt.Sprintf("%s/groups/%s", svc.Config.BasePath, group.ID)
	WriteResponse(w, http.StatusCreated, models.Response{Success: 1, Data: group}, location)
}

func validateGroupRequest(req *models.GroupRequest) error {
	if req.Name == "" {
		return models.NewValidationError("name", "must not be empty")
	}
	if req.AmountPerCycle <= 0 {
		return models.NewValidationError("amountPerCycle", "must be greater than zero")
	}
	if !req.CycleFrequency.Valid() {
		return models.NewValidationError("cycleFrequency", "must be daily, weekly or monthly")
	}
	return nil
}

// GetGroupsService lists savings groups. With ?mine=true only groups the
// authenticated user is an active member of are returned; without it, all
// groups are listed for discovery.
func GetGroupsService(svc *Service, w http.ResponseWriter, r *http.Request) {

	logger := zerolog.Ctx(r.Context())

	claims, ok := r.Context().Value(middleware.ClaimsKey).(authn.Claims)
	if !ok {
		logger.Warn().Msg("Unauthorized request: missing claims")
		WriteResponse(w, http.StatusUnauthorized, nil)
		return
	}

	var groups []models.Group
	var err error

	if r.URL.Query().Get("mine") == "true" {
		var user *models.User
		user, err = currentUser(svc, claims)
		if err == nil {
			groups, err = svc.DB.GetUserGroups(user.ID)
		}
	} else {
		groups, err = svc.DB.GetGroups()
	}

	if err != nil {
		logger.Error().Err(err).Msg("Database error retrieving groups")
		WriteResponse(w, http.StatusInternalServerError, nil)
		return
	}

	if groups == nil {
		groups = []models.Group{}
	}

	logger.Info().Int("group_count", len(groups)).Msg("Successfully retrieved groups")
	WriteResponse(w, http.StatusOK, models.Response{Success: 1, Data: models.GroupsResponse{Groups: groups}})
}

// GetGroupService retrieves one group together with its current cycle
// progress. Restricted to active members; non-members see groups through
// the discovery listing only.
func GetGroupService(svc *Service, w http.ResponseWriter, r *http.Request) {

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

	group, err := svc.DB.GetGroup(groupID)
	if err != nil {
		logger.Error().Err(err).Str("group_id", groupID.String()).Msg("Database error retrieving group")
		WriteResponse(w, http.StatusInternalServerError, nil)
		return
	}
	if group == nil {
		WriteErrorResponse(w, http.StatusNotFound, "not_found", "group does not exist")
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

	logger.Info().Str("group_name", group.Name).Msg("Successfully retrieved group")
	WriteResponse(w, http.StatusOK, models.Response{Success: 1, Data: models.GroupDetailResponse{
		Group:        *group,
		CurrentCycle: progress,
	}})
}

// JoinGroupService adds the authenticated user to a group as an active
// member. A previously deactivated membership is reactivated rather than
// duplicated. Joining mid-cycle raises the completion bar of the open cycle.
func JoinGroupService(svc *Service, w http.ResponseWriter, r *http.Request) {

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

	group, err := svc.DB.GetGroup(groupID)
	if err != nil {
		logger.Error().Err(err).Str("group_id", groupID.String()).Msg("Database error retrieving group")
		WriteResponse(w, http.StatusInternalServerError, nil)
		return
	}
	if group == nil {
		WriteErrorResponse(w, http.StatusNotFound, "not_found", "group does not exist")
		return
	}

	user, err := currentUser(svc, claims)
	if err != nil {
		logger.Error().Err(err).Msg("Database error resolving user")
		WriteResponse(w, http.StatusInternalServerError, nil)
		return
	}

	membership, err := svc.DB.JoinGroup(groupID, user.ID)
	if err != nil {
		if errors.Is(err, models.ErrAlreadyMember) {
			logger.Warn().Str("group_id", groupID.String()).Str("user", claims.Username).
				Msg("User is already an active member")
			WriteErrorResponse(w, http.StatusConflict, "already_member", err.Error())
			return
		}
		logger.Error().Err(err).Str("group_id", groupID.String()).Msg("Database error joining group")
		WriteResponse(w, http.StatusInternalServerError, nil)
		return
	}

	logger.Info().Str("group_id", groupID.String()).Str("user", claims.Username).
		Msg("Successfully joined group")

	notifyUser(svc, logger, user.ID, "Savings Circle Update",
		fmt.Sprintf("You have joined the group %s. Contributions of %s are due every cycle.",
			group.Name, formatAmount(svc.Config.Currency, group.AmountPerCycle)))

	WriteResponse(w, http.StatusCreated, models.Response{Success: 1, Data: membership})
}

// GetMembersService lists the active members of a group. Restricted to
// active members.
func GetMembersService(svc *Service, w http.ResponseWriter, r *http.Request) {

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

	members, err := svc.DB.GetMembers(groupID)
	if err != nil {
		logger.Error().Err(err).Str("group_id", groupID.String()).Msg("Database error retrieving members")
		WriteResponse(w, http.StatusInternalServerError, nil)
		return
	}

	if members == nil {
		members = []models.Membership{}
	}

	logger.Info().Int("member_count", len(members)).Msg("Successfully retrieved group members")
	WriteResponse(w, http.StatusOK, models.Response{Success: 1, Data: models.GroupMembersResponse{Members: members}})
}
