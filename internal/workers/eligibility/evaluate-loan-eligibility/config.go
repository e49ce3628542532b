// internal/workers/eligibility/evaluate-loan-eligibility/config.go
package evaluateloaneligibility

import (
	"time"

	"homebuyer-workers/internal/common/config"
)

type Config struct {
	Timeout  time.Duration
	CacheTTL time.Duration
}

func LoadConfig(wcfg config.WorkerConfig) *Config {
	cfg := &Config{
		Timeout:  config.GetDuration(wcfg.Timeout),
		CacheTTL: wcfg.CacheTTL,
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return cfg
}
