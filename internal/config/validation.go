// Package config provides configuration management for the race scanner.
package config

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	v.RegisterValidation("environment", validateEnvironment)
	v.RegisterValidation("loglevel", validateLogLevel)
	v.RegisterValidation("formats", validateFormats)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	if err := validateCrossField(cfg); err != nil {
		return err
	}

	return nil
}

// validateEnvironment validates the environment field
func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

// validateLogLevel validates the log level field
func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// validateFormats validates the output format list
func validateFormats(fl validator.FieldLevel) bool {
	formats, ok := fl.Field().Interface().([]string)
	if !ok || len(formats) == 0 {
		return false
	}

	valid := map[string]bool{
		"html": true,
		"json": true,
		"csv":  true,
	}
	for _, f := range formats {
		if !valid[f] {
			return false
		}
	}
	return true
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	// Scoring weights must partition the score
	sum := cfg.Scoring.FieldSizeWeight +
		cfg.Scoring.OddsValueWeight +
		cfg.Scoring.OddsSpreadWeight +
		cfg.Scoring.DataQualityWeight
	if math.Abs(sum-1.0) > 0.001 {
		return fmt.Errorf("scoring weights must sum to 1.0, got %.3f", sum)
	}

	enabled := 0
	for _, s := range cfg.Sources {
		if s.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		return fmt.Errorf("at least one source must be enabled")
	}

	if cfg.Cache.Enabled && cfg.Cache.MinTTLMinutes > cfg.Cache.MaxTTLHours*60 {
		return fmt.Errorf("cache min_ttl_minutes cannot exceed max_ttl_hours")
	}

	if cfg.HTTP.RetryWaitMinMillis > cfg.HTTP.RetryWaitMaxMillis {
		return fmt.Errorf("retry_wait_min_millis cannot exceed retry_wait_max_millis")
	}

	if cfg.Database.Enabled {
		if cfg.Database.Host == "" || cfg.Database.Name == "" || cfg.Database.User == "" {
			return fmt.Errorf("database host, name and user are required when the database is enabled")
		}
		if cfg.Database.MaxIdleConnections > cfg.Database.MaxConnections {
			return fmt.Errorf("max_idle_connections cannot exceed max_connections")
		}
		if cfg.IsProduction() && cfg.Database.SSLMode == "disable" {
			return fmt.Errorf("production environment requires SSL mode to be 'require' or 'verify-full'")
		}
	}

	if cfg.MarketWatch.Enabled && !cfg.Database.Enabled {
		return fmt.Errorf("market watch requires the database to be enabled")
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var errMsg string
	for _, fieldError := range validationErrors {
		field := fieldError.StructField()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required":
			errMsg += fmt.Sprintf("- Field '%s' is required\n", field)
		case "url":
			errMsg += fmt.Sprintf("- Field '%s' must be a valid URL, got '%v'\n", field, value)
		case "min", "max":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "environment":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "formats":
			errMsg += fmt.Sprintf("- Field '%s' entries must be one of: html, json, csv\n", field)
		case "oneof":
			errMsg += fmt.Sprintf("- Field '%s' has invalid value '%v'\n", field, value)
		default:
			errMsg += fmt.Sprintf("- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", errMsg)
}
