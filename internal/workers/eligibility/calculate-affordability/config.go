// internal/workers/eligibility/calculate-affordability/config.go
package calculateaffordability

import (
	"time"

	"homebuyer-workers/internal/common/config"
	"homebuyer-workers/internal/eligibility"
)

type Config struct {
	Timeout time.Duration
	// RatePercent applies when a job does not carry its own rate.
	RatePercent float64
}

func LoadConfig(wcfg config.WorkerConfig, engine config.EngineConfig) *Config {
	cfg := &Config{
		Timeout:     config.GetDuration(wcfg.Timeout),
		RatePercent: engine.DefaultRatePercent,
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RatePercent <= 0 {
		cfg.RatePercent = eligibility.DefaultRatePercent
	}
	return cfg
}
