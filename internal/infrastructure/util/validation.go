package util

import (
	"fmt"
	"net"
	"strings"
	"time"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}

// ValidateRequired checks if a string value is not empty
func ValidateRequired(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return ValidationError{Field: fieldName, Message: "cannot be empty"}
	}
	return nil
}

// ValidateRange checks that min <= value <= max
func ValidateRange(value, min, max int, fieldName string) error {
	if value < min || value > max {
		return ValidationError{Field: fieldName, Message: fmt.Sprintf("%d outside [%d, %d]", value, min, max)}
	}
	return nil
}

// ValidatePositiveDuration checks that a timeout is set
func ValidatePositiveDuration(value time.Duration, fieldName string) error {
	if value <= 0 {
		return ValidationError{Field: fieldName, Message: "must be positive"}
	}
	return nil
}

// ValidateEndpoint checks if an endpoint string is valid
func ValidateEndpoint(endpoint, fieldName string) error {
	if err := ValidateRequired(endpoint, fieldName); err != nil {
		return err
	}

	host, port, err := net.SplitHostPort(endpoint)
	if err != nil {
		return ValidationError{Field: fieldName, Message: "invalid host:port format"}
	}

	if host == "" {
		return ValidationError{Field: fieldName, Message: "host cannot be empty"}
	}

	if port == "" {
		return ValidationError{Field: fieldName, Message: "port cannot be empty"}
	}

	return nil
}

// ValidateControlAddress accepts host:port or unix:/path
func ValidateControlAddress(addr, fieldName string) error {
	if path, ok := strings.CutPrefix(addr, "unix:"); ok {
		if path == "" {
			return ValidationError{Field: fieldName, Message: "socket path cannot be empty"}
		}
		return nil
	}
	return ValidateEndpoint(addr, fieldName)
}

// ValidateOneOf checks value against a fixed set
func ValidateOneOf(value string, allowed []string, fieldName string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return ValidationError{Field: fieldName, Message: fmt.Sprintf("%q is not one of %s", value, strings.Join(allowed, ", "))}
}
