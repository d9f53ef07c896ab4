package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for required fields and valid values.
func Validate(c *Config) error {
	var errors []string

	if strings.TrimSpace(c.SourceEnv) == "" {
		errors = append(errors, ValidationError{
			Field:   "source_env",
			Message: "environment variable name cannot be empty",
		}.Error())
	}

	if err := c.PackageManager.Validate(); err != nil {
		errors = append(errors, ValidationError{
			Field:   "package_manager",
			Message: err.Error(),
		}.Error())
	}

	if c.Backup.Keep < 0 {
		errors = append(errors, ValidationError{
			Field:   "backup.keep",
			Message: fmt.Sprintf("must be non-negative, got %d", c.Backup.Keep),
		}.Error())
	}

	if err := validateRegistry(c.Publish.Registry); err != nil {
		errors = append(errors, err.Error())
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func validateRegistry(registry string) error {
	u, err := url.Parse(registry)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ValidationError{
			Field:   "publish.registry",
			Message: fmt.Sprintf("must be an http(s) URL, got '%s'", registry),
		}
	}
	return nil
}
