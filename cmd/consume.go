package cmd

import (
	"context"
	"encoding/json"

	"github.com/cham-tech/SmartSave/internal/events"
	"github.com/cham-tech/SmartSave/models"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Run the Pulsar consumer to process gateway settlement events",
	Run: func(cmd *cobra.Command, args []string) {

		// Load the config, initialize the database and set up logging
		commonSetUp()
		defer circleDB.Close()

		// Initialize event consumer
		consumer, err := events.NewEventConsumer(appCfg.Pulsar.URL, appCfg.Pulsar.TopicConsumer, appCfg.Pulsar.Subscription)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize event consumer")
		}
		defer consumer.Close()

		log.Info().Str("topic", appCfg.Pulsar.TopicConsumer).Msg("Waiting for settlement events")

		// Consume messages
		for {
			msg, err := consumer.ReceiveMessage(context.Background())
			if err != nil {
				log.Error().Err(err).Msg("Error receiving message")
				continue
			}

			// Unmarshal the JSON message into a SettlementEvent struct
			var settlement events.SettlementEvent
			if err := json.Unmarshal(msg.Payload(), &settlement); err != nil {
				// Redelivery cannot fix a malformed payload; the DLQ policy
				// parks it after the delivery limit.
				log.Error().Err(err).Msg("Error unmarshaling settlement event")
				consumer.Nack(msg)
				continue
			}

			if settlement.Status != models.PayoutCompleted {
				log.Info().Str("reference", settlement.Reference).Str("status", settlement.Status).
					Msg("Ignoring non-final settlement event")
				consumer.Ack(msg)
				continue
			}

			if err := circleDB.CompletePayoutByReference(settlement.Reference); err != nil {
				log.Error().Err(err).Str("reference", settlement.Reference).
					Msg("Failed to finalize payout from settlement event")
				consumer.Nack(msg)
				continue
			}

			log.Info().Str("reference", settlement.Reference).
				Str("transaction_id", settlement.TransactionID).
				Msg("Payout finalized from settlement event")
			consumer.Ack(msg)
		}
	},
}

func init() {
	rootCmd.AddCommand(consumeCmd)
}
