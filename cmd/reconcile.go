package cmd

import (
	"context"
	"time"

	"github.com/cham-tech/SmartSave/api/services"
	"github.com/cham-tech/SmartSave/internal/events"
	"github.com/cham-tech/SmartSave/internal/rotation"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Retry payouts that are still pending after a failed disbursement",
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

		service := &services.Service{
			Config:    appCfg,
			DB:        circleDB,
			Publisher: publisher,
			Gateway:   buildGateway(),
			Selector:  rotation.NewSelector(time.Now().UnixNano()),
		}

		log.Info().Msg("Starting payout reconciliation...")

		if err := services.ReconcilePayouts(service, context.Background(), &log.Logger); err != nil {
			log.Fatal().Err(err).Msg("Payout reconciliation finished with failures")
		}

		log.Info().Msg("Payout reconciliation completed.")
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}
