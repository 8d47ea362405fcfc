package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"logLevel"`
	Server      struct {
		Port int `mapstructure:"port"`
	} `mapstructure:"server"`
	Database struct {
		PostgresDSN         string `mapstructure:"postgresDSN"`
		PostgresAutoMigrate bool   `mapstructure:"postgresAutoMigrate"`
	} `mapstructure:"database"`
	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
		Port    int  `mapstructure:"port"`
	} `mapstructure:"metrics"`
	Lead LeadConfig `mapstructure:"lead"`
	Webhook struct {
		HistoryLimit     int `mapstructure:"historyLimit"`     // Max attribution observations kept per contact
		ScanMaxDepth     int `mapstructure:"scanMaxDepth"`     // Recursion bound for the fallback sender scan
		BodyPreviewChars int `mapstructure:"bodyPreviewChars"` // Audit log body preview length
	} `mapstructure:"webhook"`
	WorkerPools struct {
		Lead LeadWorkerPoolConfig `mapstructure:"lead"`
	} `mapstructure:"workerPools"`
}

// LeadConfig holds the downstream lead-creation service settings
type LeadConfig struct {
	URL          string        `mapstructure:"url"`          // Lead-creation service endpoint
	ServiceToken string        `mapstructure:"serviceToken"` // Privileged service credential
	Timeout      time.Duration `mapstructure:"timeout"`      // Per-call timeout for the trigger
}

// LeadWorkerPoolConfig holds configuration for the lead dispatch worker pool
type LeadWorkerPoolConfig struct {
	PoolSize   int           `mapstructure:"poolSize"`   // Number of workers
	QueueSize  int           `mapstructure:"queueSize"`  // Task queue buffer size
	ExpiryTime time.Duration `mapstructure:"expiryTime"` // Idle worker expiry time
}

// LoadConfig reads configuration from file or environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("environment", "development")
	v.SetDefault("logLevel", "info")
	v.SetDefault("server.port", 8080)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 2112)

	v.SetDefault("lead.timeout", 10*time.Second)

	v.SetDefault("webhook.historyLimit", 30)
	v.SetDefault("webhook.scanMaxDepth", 10)
	v.SetDefault("webhook.bodyPreviewChars", 160)

	// WorkerPools Defaults
	v.SetDefault("workerPools.lead.poolSize", 8)
	v.SetDefault("workerPools.lead.queueSize", 1000)
	v.SetDefault("workerPools.lead.expiryTime", time.Minute)

	// Config file settings
	v.SetConfigName("default")
	v.SetConfigType("yaml")

	// Add lookup paths
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath("$HOME/.daisi-wa-webhook-ingestor")
	v.AddConfigPath("/etc/daisi-wa-webhook-ingestor")

	// Try to read from config file
	if err := v.ReadInConfig(); err != nil {
		// It's ok if config file is not found, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Override with environment variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Map environment variables to config fields
	bindEnvs(v, Config{})

	// Read directly from ENV for critical values
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		v.Set("database.postgresDSN", dsn)
	}
	if lgLevel := os.Getenv("LOG_LEVEL"); lgLevel != "" {
		v.Set("logLevel", lgLevel)
	}
	if url := os.Getenv("LEAD_SERVICE_URL"); url != "" {
		v.Set("lead.url", url)
	}
	if token := os.Getenv("LEAD_SERVICE_TOKEN"); token != "" {
		v.Set("lead.serviceToken", token)
	}

	// Unmarshal config
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	return &config, nil
}

// bindEnvs recursively binds environment variables to config struct fields
func bindEnvs(v *viper.Viper, cfg interface{}, parts ...string) {
	ifv := reflect.ValueOf(cfg)
	ift := reflect.TypeOf(cfg)
	for i := 0; i < ift.NumField(); i++ {
		fieldVal := ifv.Field(i)
		fieldType := ift.Field(i)

		// Get the field tag value (mapstructure)
		tag := fieldType.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}

		// Build the env var path
		path := append(parts, tag)
		key := strings.Join(path, ".")

		// If it's a struct, recursively bind its fields
		if fieldType.Type.Kind() == reflect.Struct {
			bindEnvs(v, fieldVal.Interface(), path...)
			continue
		}

		// Bind the env var
		_ = v.BindEnv(key)
	}
}
