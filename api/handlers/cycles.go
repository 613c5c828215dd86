package handlers

import (
	"net/http"

	"github.com/cham-tech/SmartSave/api/services"
)

func GetCurrentCycle(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.GetCurrentCycleService(svc, w, r)
	}
}

func GetCycleHistory(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.GetCycleHistoryService(svc, w, r)
	}
}
