package appconfig

import (
	"bytes"
	"errors"
	"html/template"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v2"
)

// Config holds all configuration details
type Config struct {
	Host     string         `yaml:"host"`
	BasePath string         `yaml:"basePath"`
	Currency string         `yaml:"currency"`
	Database DatabaseConfig `yaml:"database"`
	Pulsar   PulsarConfig   `yaml:"pulsar"`
	Gateway  GatewayConfig  `yaml:"gateway"`
	AWS      AWSConfig      `yaml:"aws"`
	Payouts  PayoutsConfig  `yaml:"payouts"`
}

// DatabaseConfig defines the database connection details
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	Source string `yaml:"source"`
}

// PulsarConfig defines the messaging system connection details
type PulsarConfig struct {
	URL           string `yaml:"url"`
	TopicProducer string `yaml:"topicProducer"`
	TopicConsumer string `yaml:"topicConsumer"`
	Subscription  string `yaml:"subscription"`
}

// GatewayConfig defines the mobile-money gateway connection details.
// With Simulate set, an in-process gateway with the configured success
// rate replaces the Bitnob API.
type GatewayConfig struct {
	BaseURL        string  `yaml:"url"`
	APIKey         string  `yaml:"apiKey"`
	Simulate       bool    `yaml:"simulate"`
	SuccessRate    float64 `yaml:"successRate"`
	TimeoutSeconds int     `yaml:"timeoutSeconds"`
	MaxAttempts    int     `yaml:"maxAttempts"`
}

// AWSConfig defines the email notification details
type AWSConfig struct {
	Region      string `yaml:"region"`
	SenderEmail string `yaml:"senderEmail"`
}

// PayoutsConfig defines the disbursement policy knobs
type PayoutsConfig struct {
	// AdvanceOnDisburseFailure (default true) opens the next cycle as soon
	// as the current one closes, whether or not the payout transfer goes
	// through; a failed transfer stays pending for the reconciler. Set to
	// false the next cycle only opens once the payout is confirmed.
	AdvanceOnDisburseFailure bool `yaml:"advanceOnDisburseFailure"`
	ReconcileBatchSize       int  `yaml:"reconcileBatchSize"`
}

// LoadConfig loads and parses the configuration from a given file path
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		err := errors.New("config file path is required")
		log.Fatal().Err(err).Msg("config file not provided")
		return nil, err
	}

	// Parse the template file
	tmpl, err := template.ParseFiles(path)
	if err != nil {
		log.Fatal().Err(err).Msg("error parsing config file template")
		return nil, err
	}

	// Create a map of environment variables
	envVars := loadEnvVars()

	// Execute the template with environment variables
	var buf bytes.Buffer
	err = tmpl.Execute(&buf, envVars)
	if err != nil {
		log.Fatal().Err(err).Msg("error executing config file template")
		return nil, err
	}

	// Load and unmarshal the YAML. Boolean defaults are seeded up front so
	// an absent key keeps them while an explicit false still wins.
	config := Config{
		Payouts: PayoutsConfig{AdvanceOnDisburseFailure: true},
	}
	if err := yaml.Unmarshal(buf.Bytes(), &config); err != nil {
		log.Fatal().Err(err).Msg("failed to unmarshal config YAML")
		return nil, err
	}

	config.applyDefaults()

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api/v1"
	}
	if c.Currency == "" {
		c.Currency = "UGX"
	}
	if c.Gateway.SuccessRate == 0 {
		c.Gateway.SuccessRate = 0.80
	}
	if c.Gateway.TimeoutSeconds == 0 {
		c.Gateway.TimeoutSeconds = 15
	}
	if c.Gateway.MaxAttempts == 0 {
		c.Gateway.MaxAttempts = 3
	}
	if c.Payouts.ReconcileBatchSize == 0 {
		c.Payouts.ReconcileBatchSize = 100
	}
}

// loadEnvVars loads environment variables into a map
func loadEnvVars() map[string]string {
	envVars := make(map[string]string)
	for _, env := range os.Environ() {
		kv := strings.SplitN(env, "=", 2)
		if len(kv) == 2 {
			envVars[kv[0]] = kv[1]
		}
	}
	return envVars
}
