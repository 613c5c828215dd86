package handlers

import (
	"net/http"

	"github.com/cham-tech/SmartSave/api/services"
)

func GetPayouts(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.GetPayoutsService(svc, w, r)
	}
}
