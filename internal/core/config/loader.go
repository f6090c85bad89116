package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	"github.com/vietddude/buswatch/internal/core/domain"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Default returns the configuration used when no file is given.
func Default() *AppConfig {
	cfg := &AppConfig{}
	applyDefaults(cfg)
	return cfg
}

// Load reads configuration from a YAML file. Unset fields keep their defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.UnmarshalStrict([]byte(expandedData), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Watch.StatusPolicy == "" {
		cfg.Watch.StatusPolicy = "best-effort"
	}
	if cfg.Watch.StreamErrorPolicy == "" {
		cfg.Watch.StreamErrorPolicy = "fatal"
	}

	if cfg.Output.Format == "" {
		cfg.Output.Format = "text"
	}
	mapping := domain.DefaultOutputMapping()
	if cfg.Output.ReturnTrue == "" {
		cfg.Output.ReturnTrue = mapping.True
	}
	if cfg.Output.ReturnFalse == "" {
		cfg.Output.ReturnFalse = mapping.False
	}

	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = 5
	}
	if cfg.Retry.InitialDelay == 0 {
		cfg.Retry.InitialDelay = 500 * time.Millisecond
	}
	if cfg.Retry.MaxDelay == 0 {
		cfg.Retry.MaxDelay = 5 * time.Second
	}
	if cfg.Retry.BackoffFactor == 0 {
		cfg.Retry.BackoffFactor = 1.5
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// Validate checks the configuration after flags have been merged in.
func (c *AppConfig) Validate() error {
	return validateStruct(c)
}

// ValidateQuery checks only the sections a one-shot status query uses.
func (c *AppConfig) ValidateQuery() error {
	for _, section := range []any{&c.Output, &c.Retry, &c.Logging} {
		if err := validateStruct(section); err != nil {
			return err
		}
	}
	return nil
}

func validateStruct(v any) error {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})

	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	messages := make([]string, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		messages = append(messages, fmt.Sprintf("%s failed %q", fieldErr.Namespace(), fieldErr.Tag()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(messages, "; "))
}
