// Package config provides configuration management for ledger-sync.
// Credentials and paths come from environment variables and .env files;
// budget mappings and rules come from a YAML file.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/shunichi-ikebuchi/ledger-sync/pkg/sbanken"
	"github.com/shunichi-ikebuchi/ledger-sync/pkg/ynab"
)

// Config represents the application configuration.
type Config struct {
	Ynab    YnabConfig
	Sbanken SbankenConfig
	Paths   PathsConfig
	Debug   bool
}

// YnabConfig represents YNAB API configuration.
type YnabConfig struct {
	AccessToken string
	APIURL      string
}

// SbankenConfig represents Sbanken API configuration.
type SbankenConfig struct {
	ClientID     string
	ClientSecret string
	CustomerID   string
	APIURL       string
	TokenURL     string
}

// PathsConfig represents file locations.
type PathsConfig struct {
	DataDir     string
	DBPath      string
	BudgetsFile string
}

// Load loads configuration from environment variables.
// It automatically loads .env file from the current directory if available.
// You can optionally specify a custom .env file path.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Try to load .env from current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	config := &Config{
		Ynab: YnabConfig{
			AccessToken: os.Getenv("YNAB_ACCESS_TOKEN"),
			APIURL:      getEnvOrDefault("YNAB_API_URL", ynab.DefaultAPIURL),
		},
		Sbanken: SbankenConfig{
			ClientID:     os.Getenv("SBANKEN_CLIENT_ID"),
			ClientSecret: os.Getenv("SBANKEN_CLIENT_SECRET"),
			CustomerID:   os.Getenv("SBANKEN_CUSTOMER_ID"),
			APIURL:       getEnvOrDefault("SBANKEN_API_URL", sbanken.DefaultAPIURL),
			TokenURL:     getEnvOrDefault("SBANKEN_TOKEN_URL", sbanken.DefaultTokenURL),
		},
		Paths: PathsConfig{
			DataDir:     getEnvOrDefault("LEDGER_SYNC_DATA_DIR", "./data"),
			DBPath:      os.Getenv("LEDGER_SYNC_DB_PATH"),
			BudgetsFile: os.Getenv("LEDGER_SYNC_BUDGETS"),
		},
		Debug: os.Getenv("DEBUG") == "true",
	}

	return config, nil
}

// Validate validates the configuration.
// It checks if all required fields are set.
func (c *Config) Validate(required ...[]string) error {
	var missing []string

	for _, path := range required {
		if len(path) < 2 {
			continue
		}

		var value string
		switch path[0] {
		case "ynab":
			switch path[1] {
			case "accessToken":
				value = c.Ynab.AccessToken
			case "apiUrl":
				value = c.Ynab.APIURL
			}
		case "sbanken":
			switch path[1] {
			case "clientId":
				value = c.Sbanken.ClientID
			case "clientSecret":
				value = c.Sbanken.ClientSecret
			case "customerId":
				value = c.Sbanken.CustomerID
			case "apiUrl":
				value = c.Sbanken.APIURL
			case "tokenUrl":
				value = c.Sbanken.TokenURL
			}
		case "paths":
			switch path[1] {
			case "dataDir":
				value = c.Paths.DataDir
			case "dbPath":
				value = c.Paths.DBPath
			case "budgetsFile":
				value = c.Paths.BudgetsFile
			}
		}

		if value == "" {
			missing = append(missing, strings.Join(path, "."))
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v\nPlease check your .env file or environment variables", missing)
	}

	return nil
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
