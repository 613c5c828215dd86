package handlers

import (
	"net/http"

	"github.com/cham-tech/SmartSave/api/services"
)

func CreateContribution(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.CreateContributionService(svc, w, r)
	}
}

func GetContributions(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.GetContributionsService(svc, w, r)
	}
}
