/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cham-tech/SmartSave/db"
	"github.com/cham-tech/SmartSave/internal/appconfig"
	"github.com/cham-tech/SmartSave/internal/gateway"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	logLevel   string
	configPath string
	host       string
	port       int

	appCfg   *appconfig.Config
	circleDB *db.CircleDB
)

var rootCmd = &cobra.Command{
	Use:   "smartsave-services",
	Short: "SmartSave Services",
	Long:  `SmartSave Services is a CLI tool for running the savings circle engine: the API server, the settlement consumer and the payout reconciler.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn",
		"sets the log level")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml",
		"path to the config file")
}

// commonSetUp loads the config, initializes logging and connects to the
// database. Shared by every command that touches the engine.
func commonSetUp() {
	setLogging(logLevel)

	var err error
	appCfg, err = appconfig.LoadConfig(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	if err := os.Setenv("DATABASE_URL", appCfg.Database.Source); err != nil {
		fmt.Println("Error setting environment variable:", err)
		os.Exit(1)
	}

	circleDB, err = db.NewCircleDB(&log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize CircleDB")
	}
}

// buildGateway constructs the configured payment gateway client wrapped with
// bounded retry.
func buildGateway() gateway.Client {
	var client gateway.Client
	if appCfg.Gateway.Simulate {
		log.Info().Float64("success_rate", appCfg.Gateway.SuccessRate).
			Msg("Using simulated payment gateway")
		client = gateway.NewSimulated(appCfg.Gateway.SuccessRate, time.Now().UnixNano())
	} else {
		client = gateway.NewBitnobClient(appCfg.Gateway.BaseURL, appCfg.Gateway.APIKey,
			time.Duration(appCfg.Gateway.TimeoutSeconds)*time.Second, &log.Logger)
	}
	return gateway.WithRetry(client, appCfg.Gateway.MaxAttempts, time.Second, &log.Logger)
}

func setLogging(level string) {
	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}

	switch strings.ToLower(level) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "fatal":
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	case "panic":
		zerolog.SetGlobalLevel(zerolog.PanicLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}
}
