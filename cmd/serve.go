package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cham-tech/SmartSave/api/handlers"
	"github.com/cham-tech/SmartSave/api/middleware"
	"github.com/cham-tech/SmartSave/api/services"
	"github.com/cham-tech/SmartSave/internal/events"
	"github.com/cham-tech/SmartSave/internal/notify"
	"github.com/cham-tech/SmartSave/internal/rotation"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server for handling API requests",
	Run: func(cmd *cobra.Command, args []string) {

		// Load the config, initialize the database and set up logging
		commonSetUp()
		defer circleDB.Close()

		// Initialize event publisher
		publisher, err := events.NewEventPublisher(appCfg.Pulsar.URL, appCfg.Pulsar.TopicProducer)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize event publisher")
		}
		defer publisher.Close()

		// Initialize the payment gateway client
		gatewayClient := buildGateway()

		// Initialize the email notifier when a sender address is configured
		var emailNotifier *notify.EmailNotifier
		if appCfg.AWS.SenderEmail != "" {
			emailNotifier, err = notify.NewEmailNotifier(context.Background(), appCfg.AWS.Region, appCfg.AWS.SenderEmail)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to initialize email notifier")
			}
		}

		service := &services.Service{
			Config:    appCfg,
			DB:        circleDB,
			Publisher: publisher,
			Gateway:   gatewayClient,
			Selector:  rotation.NewSelector(time.Now().UnixNano()),
			Email:     emailNotifier,
		}

		// Create routes
		r := mux.NewRouter()

		// Register the routes
		api := r.PathPrefix(appCfg.BasePath).Subrouter()

		// Apply the middleware to the API routes
		api.Use(middleware.WithLogger)
		api.Use(middleware.JWTMiddleware)

		// Group routes
		api.HandleFunc("/groups", handlers.CreateGroup(service)).Methods(http.MethodPost)
		api.HandleFunc("/groups", handlers.GetGroups(service)).Methods(http.MethodGet)
		api.HandleFunc("/groups/{group-id}", handlers.GetGroup(service)).Methods(http.MethodGet)
		api.HandleFunc("/groups/{group-id}/members", handlers.JoinGroup(service)).Methods(http.MethodPost)
		api.HandleFunc("/groups/{group-id}/members", handlers.GetMembers(service)).Methods(http.MethodGet)

		// Cycle routes
		api.HandleFunc("/groups/{group-id}/cycles", handlers.GetCycleHistory(service)).Methods(http.MethodGet)
		api.HandleFunc("/groups/{group-id}/cycles/current", handlers.GetCurrentCycle(service)).Methods(http.MethodGet)

		// Contribution routes
		api.HandleFunc("/cycles/{cycle-id}/contributions", handlers.CreateContribution(service)).Methods(http.MethodPost)
		api.HandleFunc("/cycles/{cycle-id}/contributions", handlers.GetContributions(service)).Methods(http.MethodGet)

		// Payout routes
		api.HandleFunc("/groups/{group-id}/payouts", handlers.GetPayouts(service)).Methods(http.MethodGet)

		// Operational endpoints live outside the authenticated base path
		r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
		r.HandleFunc("/health", handlers.Health()).Methods(http.MethodGet)

		log.Info().Msg(fmt.Sprintf("Server started at %s:%d", host, port))

		if err := http.ListenAndServe(fmt.Sprintf("%s:%d", host, port),
			r); err != nil {

			log.Error().Err(err).Msg("could not start server")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&host, "host", "0.0.0.0", "host to run the server on")
	serveCmd.Flags().IntVar(&port, "port", 8080, "port to run the server on")
}
