// internal/common/config/loader.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultRatesFixed30       = 6.8
	defaultRatesFixed15       = 6.1
	defaultRatesARM51         = 6.3
	defaultEngineRatePercent  = 6.8
	defaultServerAddress      = ":8080"
	defaultWorkerCacheTTL     = 10 * time.Minute
	defaultCatalogTable       = "loan_programs"
	defaultShutdownTimeoutMs  = 15000
	defaultWorkerMaxJobs      = 5
	defaultWorkerTimeoutMs    = 30000
	defaultWorkerMaxRetries   = 3
	defaultCamundaMaxJobs     = 10
	defaultCamundaTimeoutMs   = 30000
	defaultPostgresMaxConns   = 25
	defaultPostgresMaxIdle    = 5
	defaultPostgresPort       = 5432
	defaultCatalogSource      = CatalogSourceFile
	defaultLoggingLevel       = "info"
	defaultLoggingFormat      = "json"
	defaultLoggingOutput      = "stdout"
	defaultPostgresSSLMode    = "disable"
	defaultAppEnvironment     = "development"
	environmentVariableAppEnv = "APP_ENVIRONMENT"
)

// Load reads configs/config.yaml, merges config.<env>.yaml on top and applies
// environment overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := os.Getenv(environmentVariableAppEnv)
	if env == "" {
		env = defaultAppEnvironment
	}
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // the per-environment file is optional

	return decode(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	// CATALOG_PATH overrides catalog.path, and so on.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads the first .env found walking up towards the module root.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars resolves ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Environment == "" {
		cfg.App.Environment = defaultAppEnvironment
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = defaultCamundaMaxJobs
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = defaultCamundaTimeoutMs
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = defaultCamundaTimeoutMs
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = defaultPostgresPort
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = defaultPostgresMaxConns
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = defaultPostgresMaxIdle
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = defaultPostgresSSLMode
	}

	if cfg.Catalog.Source == "" {
		cfg.Catalog.Source = defaultCatalogSource
	}
	if cfg.Catalog.Table == "" {
		cfg.Catalog.Table = defaultCatalogTable
	}

	if cfg.Rates == (RatesConfig{}) {
		cfg.Rates = RatesConfig{
			Fixed30: defaultRatesFixed30,
			Fixed15: defaultRatesFixed15,
			ARM51:   defaultRatesARM51,
		}
	}
	if cfg.Engine.DefaultRatePercent == 0 {
		cfg.Engine.DefaultRatePercent = defaultEngineRatePercent
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = defaultServerAddress
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = defaultShutdownTimeoutMs
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaultLoggingLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = defaultLoggingFormat
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = defaultLoggingOutput
	}

	for key, worker := range cfg.Workers {
		cfg.Workers[key] = withWorkerDefaults(worker)
	}
}

func withWorkerDefaults(worker WorkerConfig) WorkerConfig {
	if worker.MaxJobsActive == 0 {
		worker.MaxJobsActive = defaultWorkerMaxJobs
	}
	if worker.Timeout == 0 {
		worker.Timeout = defaultWorkerTimeoutMs
	}
	if worker.MaxRetries == 0 {
		worker.MaxRetries = defaultWorkerMaxRetries
	}
	if worker.CacheTTL == 0 {
		worker.CacheTTL = defaultWorkerCacheTTL
	}
	return worker
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}

	switch cfg.Catalog.Source {
	case CatalogSourceFile:
		if cfg.Catalog.Path == "" {
			return fmt.Errorf("catalog.path is required for the file source")
		}
	case CatalogSourcePostgres:
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required for the postgres catalog source")
		}
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required for the postgres catalog source")
		}
		if cfg.Database.Postgres.User == "" {
			return fmt.Errorf("database.postgres.user is required for the postgres catalog source")
		}
	default:
		return fmt.Errorf("catalog.source must be %q or %q, got %q", CatalogSourceFile, CatalogSourcePostgres, cfg.Catalog.Source)
	}

	if cfg.Rates.Fixed30 <= 0 || cfg.Rates.Fixed15 <= 0 || cfg.Rates.ARM51 <= 0 {
		return fmt.Errorf("rates.fixed30, rates.fixed15 and rates.arm51 must be greater than 0")
	}
	if cfg.Engine.DefaultRatePercent < 0 {
		return fmt.Errorf("engine.default_rate_percent must not be negative")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return withWorkerDefaults(WorkerConfig{Enabled: true})
}

// IsWorkerEnabled reports whether a worker should be started. Workers not
// listed in the config are enabled.
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
