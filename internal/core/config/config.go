package config

import (
	"time"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Watch   WatchConfig   `yaml:"watch"`
	Output  OutputConfig  `yaml:"output"`
	Retry   RetryConfig   `yaml:"retry"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// WatchConfig selects the signal and the optional initial status query.
type WatchConfig struct {
	Interface         string `yaml:"interface"           validate:"required"`
	Monitor           string `yaml:"monitor"             validate:"required"`
	Status            string `yaml:"status"`                                                      // "service/path interface property"
	StatusPolicy      string `yaml:"status_policy"       validate:"oneof=best-effort strict"`     // what a failed status query does
	StreamErrorPolicy string `yaml:"stream_error_policy" validate:"oneof=fatal connection-only"` // what a stream error does
}

// OutputConfig controls the lines written to stdout.
type OutputConfig struct {
	Format      string `yaml:"format"       validate:"oneof=text json"`
	ReturnTrue  string `yaml:"return_true"`
	ReturnFalse string `yaml:"return_false"`
}

// RetryConfig holds the retry policy for bus operations.
type RetryConfig struct {
	MaxAttempts   int           `yaml:"max_attempts"   validate:"gte=1"`
	InitialDelay  time.Duration `yaml:"initial_delay"  validate:"gte=0"`
	MaxDelay      time.Duration `yaml:"max_delay"      validate:"gtefield=InitialDelay"`
	BackoffFactor float64       `yaml:"backoff_factor" validate:"gte=1"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
}

// MetricsConfig holds the optional health/metrics endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr" validate:"omitempty,hostname_port"` // empty disables the server
}
