package services

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cham-tech/SmartSave/internal/authn"
	"github.com/cham-tech/SmartSave/internal/events"
	"github.com/cham-tech/SmartSave/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func WriteResponse(w http.ResponseWriter, statusCode int, response interface{}, location ...string) {

	w.Header().Set("Content-Type", "application/json")

	// We don't want to cache API responses so the client receives most curent data
	w.Header().Set("Cache-Control", "max-age=0")

	// Conditionally set the Location header if provided
	if len(location) > 0 && location[0] != "" {
		w.Header().Set("Location", location[0])
	}

	w.WriteHeader(statusCode)

	if response != nil {
		if err := json.NewEncoder(w).Encode(response); err != nil {
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
			return // **Return immediately to avoid multiple WriteHeader calls**
		}
	}
}

// WriteErrorResponse sends a failure envelope with a machine-readable code.
func WriteErrorResponse(w http.ResponseWriter, statusCode int, errorCode, details string) {
	WriteResponse(w, statusCode, models.Response{
		Success:      0,
		ErrorCode:    errorCode,
		ErrorDetails: details,
	})
}

// currentUser upserts the authenticated user from the JWT claims and returns
// the stored row. Registration happens out of band in the identity provider,
// so the first authenticated request is what creates the local user row.
func currentUser(svc *Service, claims authn.Claims) (*models.User, error) {
	if claims.Username == "" {
		return nil, fmt.Errorf("missing username claim")
	}
	return svc.DB.EnsureUser(&models.User{
		Username:  claims.Username,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
		Phone:     claims.Phone,
		Email:     claims.Email,
	})
}

// requireActiveMember resolves the authenticated user and checks that they
// are an active member of the group, writing the error response itself when
// the check fails. Group state is only visible to members.
func requireActiveMember(svc *Service, w http.ResponseWriter, logger *zerolog.Logger, claims authn.Claims, groupID uuid.UUID) (*models.User, bool) {
	user, err := currentUser(svc, claims)
	if err != nil {
		logger.Error().Err(err).Msg("Database error resolving user")
		WriteResponse(w, http.StatusInternalServerError, nil)
		return nil, false
	}

	isMember, err := svc.DB.IsActiveMember(groupID, user.ID)
	if err != nil {
		logger.Error().Err(err).Msg("Database error checking membership")
		WriteResponse(w, http.StatusInternalServerError, nil)
		return nil, false
	}
	if !isMember {
		logger.Warn().Str("group_id", groupID.String()).Str("user", claims.Username).
			Msg("Request rejected: not an active member")
		WriteErrorResponse(w, http.StatusForbidden, "not_a_member", models.ErrNotAMember.Error())
		return nil, false
	}
	return user, true
}

// formatAmount renders an amount with the configured currency for
// user-facing notification texts.
func formatAmount(currency string, amount float64) string {
	return fmt.Sprintf("%s %.2f", currency, amount)
}

// notifyUser persists an in-app notification and fans it out on the event
// stream. Both channels are best effort.
func notifyUser(svc *Service, logger *zerolog.Logger, userID uuid.UUID, title, message string) {
	if err := svc.DB.CreateNotification(userID, title, message); err != nil {
		logger.Warn().Err(err).Str("user_id", userID.String()).Msg("Failed to store notification")
	}
	if svc.Publisher == nil {
		return
	}
	if err := svc.Publisher.Publish(events.NotificationEvent{
		UserID:  userID,
		Title:   title,
		Message: message,
	}); err != nil {
		logger.Warn().Err(err).Str("user_id", userID.String()).Msg("Failed to publish notification event")
	}
}
