package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
type Config struct {
	SheetID          string `mapstructure:"SHEET_ID"`
	WorksheetTitle   string `mapstructure:"WORKSHEET_TITLE"`
	CredentialsJSON  string `mapstructure:"GCP_SA_JSON"`
	CredentialsFile  string `mapstructure:"GCP_SA_FILE"`
	Countries        string `mapstructure:"COUNTRIES"`
	Headless         bool   `mapstructure:"HEADLESS"`
	NavTimeoutSec    int    `mapstructure:"NAV_TIMEOUT"`
	SettleMillis     int    `mapstructure:"SETTLE_MS"`
	ServerPort       string `mapstructure:"SERVER_PORT"`
	FallbackCSVPath  string `mapstructure:"FALLBACK_CSV"`
	LogLevel         string `mapstructure:"LOG_LEVEL"`
}

// Load reads configuration from file or environment variables.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	// Attempt to read the .env file, but don't fail if it's not present.
	// This allows configuration purely through environment variables.
	_ = viper.ReadInConfig()

	viper.SetDefault("WORKSHEET_TITLE", "CONTENIDO")
	viper.SetDefault("COUNTRIES", "PE,CL,CO")
	viper.SetDefault("HEADLESS", true)
	viper.SetDefault("NAV_TIMEOUT", 70) // in seconds
	viper.SetDefault("SETTLE_MS", 1800)
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("FALLBACK_CSV", "fallback_campaigns.csv")
	viper.SetDefault("LOG_LEVEL", "info")

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// CountryList splits the configured country codes, dropping empties so a
// trailing comma cannot schedule a blank locale.
func (c *Config) CountryList() []string {
	var out []string
	for _, cc := range strings.Split(c.Countries, ",") {
		if cc = strings.TrimSpace(cc); cc != "" {
			out = append(out, cc)
		}
	}
	return out
}
