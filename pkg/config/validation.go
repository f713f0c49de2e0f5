package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/nihalnihalani/SelfCoding/pkg/errors"
)

// ValidationError describes a single failed configuration field.
type ValidationError struct {
	Field   string
	Tag     string
	Message string
}

func (e ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s failed validation (%s)", e.Field, e.Tag)
}

// ValidationErrors aggregates every failed field from one validation pass.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	messages := make([]string, 0, len(e))
	for _, err := range e {
		messages = append(messages, err.Error())
	}
	return "validation failed: " + strings.Join(messages, "; ")
}

var validate = validator.New()

// Validate checks a configuration against its struct tags plus cross-field
// rules the tags cannot express.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New(errors.ValidationFailed, "config is nil")
	}

	var failures ValidationErrors

	if err := validate.Struct(cfg); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return errors.Wrap(err, errors.ValidationFailed, "config validation failed")
		}
		for _, e := range verrs {
			failures = append(failures, ValidationError{
				Field:   e.Namespace(),
				Tag:     e.Tag(),
				Message: validationMessage(e),
			})
		}
	}

	if cfg.Reflexion.SuccessScore > cfg.Reflexion.TargetScore && cfg.Reflexion.TargetScore != 0 {
		failures = append(failures, ValidationError{
			Field:   "Reflexion.SuccessScore",
			Tag:     "ltefield",
			Message: "reflexion success_score must not exceed target_score",
		})
	}

	if len(failures) > 0 {
		return errors.Wrap(failures, errors.ValidationFailed, "invalid configuration")
	}
	return nil
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Namespace())
	case "min":
		return fmt.Sprintf("%s must be at least %s", e.Namespace(), e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", e.Namespace(), e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", e.Namespace(), e.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", e.Namespace(), e.Tag())
	}
}
