// Package validation provides a fluent validator for configuration structs.
// It collects all problems rather than failing on the first one, so a bad
// config file reports everything wrong with it in one pass.
package validation

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ConfigValidator provides a fluent interface for validating configuration
// values.
type ConfigValidator struct {
	errors []error
	name   string // config struct name for error messages
}

// NewConfigValidator creates a new config validator with the given config name.
func NewConfigValidator(configName string) *ConfigValidator {
	return &ConfigValidator{
		name:   configName,
		errors: make([]error, 0),
	}
}

// Required validates that a string field is not empty.
func (cv *ConfigValidator) Required(field, value string) *ConfigValidator {
	if value == "" {
		cv.errors = append(cv.errors, fmt.Errorf("%s.%s: required field is empty", cv.name, field))
	}
	return cv
}

// Positive validates that an int field is positive (> 0).
func (cv *ConfigValidator) Positive(field string, value int) *ConfigValidator {
	if value <= 0 {
		cv.errors = append(cv.errors, fmt.Errorf("%s.%s: value %d must be positive", cv.name, field, value))
	}
	return cv
}

// RangeInt validates that an int field is within the specified range.
func (cv *ConfigValidator) RangeInt(field string, value, min, max int) *ConfigValidator {
	if value < min || value > max {
		cv.errors = append(cv.errors, fmt.Errorf("%s.%s: value %d is outside range [%d, %d]", cv.name, field, value, min, max))
	}
	return cv
}

// PositiveFloat validates that a float field is positive (> 0).
func (cv *ConfigValidator) PositiveFloat(field string, value float64) *ConfigValidator {
	if value <= 0 {
		cv.errors = append(cv.errors, fmt.Errorf("%s.%s: value %f must be positive", cv.name, field, value))
	}
	return cv
}

// Fraction validates that a float field lies in [0, 1].
func (cv *ConfigValidator) Fraction(field string, value float64) *ConfigValidator {
	if value < 0 || value > 1 {
		cv.errors = append(cv.errors, fmt.Errorf("%s.%s: value %f must be in [0, 1]", cv.name, field, value))
	}
	return cv
}

// SumsToOne validates that weights sum to 1 within a small tolerance.
func (cv *ConfigValidator) SumsToOne(field string, values ...float64) *ConfigValidator {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	if math.Abs(sum-1) > 1e-9 {
		cv.errors = append(cv.errors, fmt.Errorf("%s.%s: weights sum to %f, want 1", cv.name, field, sum))
	}
	return cv
}

// MinDuration validates that a duration is at least the minimum.
func (cv *ConfigValidator) MinDuration(field string, value, min time.Duration) *ConfigValidator {
	if value < min {
		cv.errors = append(cv.errors, fmt.Errorf("%s.%s: duration %v is below minimum %v", cv.name, field, value, min))
	}
	return cv
}

// When conditionally applies validations if the condition is true.
func (cv *ConfigValidator) When(condition bool, validations func(*ConfigValidator)) *ConfigValidator {
	if condition {
		validations(cv)
	}
	return cv
}

// HasErrors returns true if any validation errors occurred.
func (cv *ConfigValidator) HasErrors() bool {
	return len(cv.errors) > 0
}

// Error returns all validation errors joined, or nil.
func (cv *ConfigValidator) Error() error {
	if len(cv.errors) == 0 {
		return nil
	}
	return errors.Join(cv.errors...)
}
