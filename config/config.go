// Package config loads the static runtime configuration from environment
// files (config/env/<GO_ENV>.env) and the process environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

// Configuration carries everything the server needs to run: the entity store,
// the Slack workspace wiring and the background job cadence.
type Configuration struct {
	Address string `env:"ADDRESS" envDefault:":8080"`

	MongoDB_ConnectionURI string `env:"MONGODB_CONNECTION_URI,required"`
	MongoDB_DBName        string `env:"MONGODB_DBNAME" envDefault:"caisseflow"`

	// Slack workspace wiring
	SlackBotToken      string `env:"SLACK_BOT_TOKEN,required"`
	SlackSigningSecret string `env:"SLACK_SIGNING_SECRET,required"`

	// Destination channels
	AdminChannelID     string `env:"SLACK_ADMIN_CHANNEL_ID,required"`      // final approvals, recap reports
	FinanceChannelID   string `env:"SLACK_FINANCE_CHANNEL_ID,required"`    // funding pre-approvals, payments
	AchatChannelID     string `env:"SLACK_ACHAT_CHANNEL_ID,required"`      // purchasing team
	TechAlertChannelID string `env:"SLACK_TECH_ALERT_CHANNEL_ID,required"` // operator error reports

	// Excel mirror output
	ExcelDir string `env:"EXCEL_DIR" envDefault:"./reports"`

	// Background jobs
	ReminderIntervalMinutes int    `env:"REMINDER_INTERVAL_MINUTES" envDefault:"60"`
	ReminderDelayHours      int    `env:"REMINDER_DELAY_HOURS" envDefault:"24"`
	RecapCronSpec           string `env:"RECAP_CRON_SPEC" envDefault:"0 8 * * *"` // daily recap, 08:00

	// HTTP hardening
	RateLimit_Max     int    `env:"RATE_LIMIT_MAX" envDefault:"100"`
	RateLimit_Window  int    `env:"RATE_LIMIT_WINDOW" envDefault:"60"`
	RateLimit_Enabled bool   `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	CORS_Origins      string `env:"CORS_ORIGINS" envDefault:"*"`
}

// getEnvPath walks upward from the working directory looking for config/env
// and returns the env file matching GO_ENV (default: development).
func getEnvPath() string {
	goEnv := os.Getenv("GO_ENV")
	if goEnv == "" {
		goEnv = "development"
	}

	currentDir, err := os.Getwd()
	if err != nil {
		fmt.Printf("cannot resolve working directory: %v\n", err)
		return ""
	}
	for {
		envDir := filepath.Join(currentDir, "config", "env")
		if _, err := os.Stat(envDir); err == nil {
			return filepath.Join(envDir, fmt.Sprintf("%s.env", goEnv))
		}
		parent := filepath.Dir(currentDir)
		if parent == currentDir {
			return ""
		}
		currentDir = parent
	}
}

// NewConfig reads the env file (when present) and parses the configuration.
// Returns nil when required variables are missing; the caller treats that as
// a fatal startup error.
func NewConfig() *Configuration {
	if envPath := getEnvPath(); envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			// The env file is optional in containerized deployments where
			// everything arrives through the process environment.
			fmt.Printf("no env file loaded from %s: %v\n", envPath, err)
		}
	}

	cfg := Configuration{}
	if err := env.Parse(&cfg); err != nil {
		fmt.Printf("config parse error: %+v\n", err)
		return nil
	}
	return &cfg
}

// CORSOrigins returns the configured origins as a slice.
func (c *Configuration) CORSOrigins() []string {
	if c.CORS_Origins == "" || c.CORS_Origins == "*" {
		return []string{"*"}
	}
	parts := strings.Split(c.CORS_Origins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
