package utils

import (
	"cmp"
	"fmt"
	"go/token"
	"strings"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Validator represents a validation function
type Validator[T any] func(T) error

// ValidatorChain runs validators in order and stops at the first failure
type ValidatorChain[T any] struct {
	validators []Validator[T]
}

// NewValidatorChain creates a new validator chain
func NewValidatorChain[T any](validators ...Validator[T]) *ValidatorChain[T] {
	return &ValidatorChain[T]{validators: validators}
}

// Add adds a validator to the chain
func (vc *ValidatorChain[T]) Add(validator Validator[T]) *ValidatorChain[T] {
	vc.validators = append(vc.validators, validator)
	return vc
}

// Validate runs all validators in the chain
func (vc *ValidatorChain[T]) Validate(value T) error {
	for _, validator := range vc.validators {
		if err := validator(value); err != nil {
			return err
		}
	}
	return nil
}

// NotEmpty validates that a string is not empty
func NotEmpty(field string) Validator[string] {
	return func(value string) error {
		if value == "" {
			return ValidationError{Field: field, Value: value, Message: "cannot be empty"}
		}
		return nil
	}
}

// HasPrefix validates that a string has a specific prefix
func HasPrefix(field, prefix string) Validator[string] {
	return func(value string) error {
		if !strings.HasPrefix(value, prefix) {
			return ValidationError{
				Field:   field,
				Value:   value,
				Message: fmt.Sprintf("must start with '%s'", prefix),
			}
		}
		return nil
	}
}

// IsValidGoIdentifier validates that a string is a valid Go identifier
func IsValidGoIdentifier(field string) Validator[string] {
	return func(value string) error {
		if value == "" {
			return ValidationError{Field: field, Value: value, Message: "cannot be empty"}
		}
		if !token.IsIdentifier(value) {
			return ValidationError{Field: field, Value: value, Message: "must be a valid Go identifier"}
		}
		return nil
	}
}

// IsOneOf validates that a value is one of the allowed values
func IsOneOf[T comparable](field string, allowed ...T) Validator[T] {
	return func(value T) error {
		for _, allowedValue := range allowed {
			if value == allowedValue {
				return nil
			}
		}
		return ValidationError{
			Field:   field,
			Value:   value,
			Message: fmt.Sprintf("must be one of: %v", allowed),
		}
	}
}

// InRange validates that a value lies in [lo, hi]
func InRange[T cmp.Ordered](field string, lo, hi T) Validator[T] {
	return func(value T) error {
		if value < lo || value > hi {
			return ValidationError{
				Field:   field,
				Value:   value,
				Message: fmt.Sprintf("%v is outside %v-%v", value, lo, hi),
			}
		}
		return nil
	}
}

// NonNegative validates that a number is zero or more
func NonNegative[T cmp.Ordered](field string) Validator[T] {
	var zero T
	return Custom(field, "must not be negative", func(value T) bool { return value >= zero })
}

// ValidateEach validates each item in a slice using the provided validator
func ValidateEach[T any](field string, itemValidator Validator[T]) Validator[[]T] {
	return func(value []T) error {
		for i, item := range value {
			if err := itemValidator(item); err != nil {
				return ValidationError{
					Field:   fmt.Sprintf("%s[%d]", field, i),
					Value:   item,
					Message: err.Error(),
				}
			}
		}
		return nil
	}
}

// Custom validates using a custom function
func Custom[T any](field string, message string, validatorFunc func(T) bool) Validator[T] {
	return func(value T) error {
		if !validatorFunc(value) {
			return ValidationError{Field: field, Value: value, Message: message}
		}
		return nil
	}
}

// Conditional validates only if the condition is true
func Conditional[T any](condition func(T) bool, validator Validator[T]) Validator[T] {
	return func(value T) error {
		if condition(value) {
			return validator(value)
		}
		return nil
	}
}

// ValidateURLPath validates that a string is a rooted URL path
func ValidateURLPath(field string) Validator[string] {
	return NewValidatorChain(
		NotEmpty(field),
		HasPrefix(field, "/"),
	).Validate
}
