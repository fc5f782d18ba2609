package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

type Config struct {
	Port           string `mapstructure:"PORT"`
	Env            string `mapstructure:"ENV"`
	LogLevel       string `mapstructure:"LOG_LEVEL"`
	StorageDriver  string `mapstructure:"STORAGE_DRIVER"`
	DataDir        string `mapstructure:"DATA_DIR"`
	DatabaseURL    string `mapstructure:"DATABASE_URL"`
	DBConnAttempts int    `mapstructure:"DB_CONNECT_ATTEMPTS"`
	ReportFontPath string `mapstructure:"REPORT_FONT_PATH"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORAGE_DRIVER", DriverFile)
	v.SetDefault("DATA_DIR", "./data")
	v.SetDefault("DB_CONNECT_ATTEMPTS", 10)

	for _, key := range []string{
		"PORT", "ENV", "LOG_LEVEL", "STORAGE_DRIVER", "DATA_DIR",
		"DATABASE_URL", "DB_CONNECT_ATTEMPTS", "REPORT_FONT_PATH",
	} {
		_ = v.BindEnv(key)
	}

	// .env is optional
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate rejects unknown storage drivers and a postgres driver without DATABASE_URL.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case DriverFile:
		if c.DataDir == "" {
			return fmt.Errorf("DATA_DIR is required when STORAGE_DRIVER is %q", DriverFile)
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE_DRIVER is %q", DriverPostgres)
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", DriverFile, DriverPostgres, c.StorageDriver)
	}
	return nil
}

// UsersPath and the helpers below locate the flat-file stores under DATA_DIR.
func (c *Config) UsersPath() string { return filepath.Join(c.DataDir, "users.csv") }

func (c *Config) QueuePath() string { return filepath.Join(c.DataDir, "consult_requests.json") }

func (c *Config) LedgerPath() string { return filepath.Join(c.DataDir, "completed_consultations.csv") }

func (c *Config) PrescriptionsDir() string { return filepath.Join(c.DataDir, "prescriptions") }
