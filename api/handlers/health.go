package handlers

import (
	"net/http"

	"github.com/cham-tech/SmartSave/api/services"
)

// Health reports liveness. It does not touch the database so a degraded
// database shows up in request errors, not in restarts.
func Health() http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.WriteResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
