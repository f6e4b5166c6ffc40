package config

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/abyssdigger/buflog"
)

const maxFlushInterval = time.Minute

var loggerTagRegexp = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// ValidationError represents a single validation error with context
type ValidationError struct {
	ItemName  string // logger tag for per-logger errors
	FieldPath string // dot-notation TOML path, e.g. "loggers.UtilsLogger"
	Message   string
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("validation failed with %d error(s):\n", len(ve)))
	for i, err := range ve {
		if err.ItemName != "" {
			sb.WriteString(fmt.Sprintf("  %d. [%s] %s: %s\n", i+1, err.ItemName, err.FieldPath, err.Message))
		} else {
			sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.FieldPath, err.Message))
		}
	}
	return sb.String()
}

var validate *validator.Validate

func init() {
	validate = validator.New()

	if err := validate.RegisterValidation("logger_tag", validateLoggerTag); err != nil {
		panic(err)
	}

	// Report fields by their TOML names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("toml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Custom validator: logger tag usable as a file name and not reserved
func validateLoggerTag(fl validator.FieldLevel) bool {
	tag := fl.Field().String()
	return loggerTagRegexp.MatchString(tag) && tag != buflog.GLOBAL_LOG_NAME
}

// ValidateLoggerTag checks a tag given outside the file (e.g. on the command
// line) with the same rule as the [loggers] sections.
func ValidateLoggerTag(tag string) error {
	if err := validate.Var(tag, "logger_tag"); err != nil {
		return ValidationErrors{{
			ItemName:  tag,
			FieldPath: "tag",
			Message:   getValidationMessage("logger_tag", ""),
		}}
	}
	return nil
}

// ValidateConfig validates the entire configuration and returns all validation errors
func (c *Config) ValidateConfig() error {
	var validationErrors ValidationErrors

	if err := validate.Struct(c); err != nil {
		validationErrors = append(validationErrors, convertValidatorErrors(err, "", "")...)
	}

	if c.FlushInterval.Duration <= 0 || c.FlushInterval.Duration > maxFlushInterval {
		validationErrors = append(validationErrors, ValidationError{
			FieldPath: "flush_interval",
			Message:   fmt.Sprintf("must be > 0 and <= %s", maxFlushInterval),
		})
	}

	for _, tag := range c.LoggerTags() {
		if err := validate.Var(tag, "logger_tag"); err != nil {
			validationErrors = append(validationErrors, ValidationError{
				ItemName:  tag,
				FieldPath: "loggers." + tag,
				Message:   getValidationMessage("logger_tag", ""),
			})
		}
		if c.Loggers[tag] == nil {
			validationErrors = append(validationErrors, ValidationError{
				ItemName:  tag,
				FieldPath: "loggers." + tag,
				Message:   "logger section is empty",
			})
		}
	}

	if len(validationErrors) > 0 {
		return validationErrors
	}
	return nil
}

// convertValidatorErrors converts go-playground/validator errors to our ValidationError format
func convertValidatorErrors(err error, fieldPrefix string, itemName string) ValidationErrors {
	var validationErrors ValidationErrors

	var validatorErrs validator.ValidationErrors
	if errors.As(err, &validatorErrs) {
		for _, e := range validatorErrs {
			fieldPath := e.Field()
			if fieldPrefix != "" {
				fieldPath = fieldPrefix + "." + fieldPath
			}
			validationErrors = append(validationErrors, ValidationError{
				ItemName:  itemName,
				FieldPath: fieldPath,
				Message:   getValidationMessage(e.Tag(), e.Param()),
			})
		}
	}

	return validationErrors
}

// getValidationMessage returns a human-readable message for a validation tag
func getValidationMessage(tag, param string) string {
	switch tag {
	case "required":
		return "field is required"
	case "min":
		return fmt.Sprintf("must be >= %s", param)
	case "oneof":
		return fmt.Sprintf("must be one of: %s", param)
	case "logger_tag":
		return fmt.Sprintf("must match %s and must not be %q", loggerTagRegexp.String(), buflog.GLOBAL_LOG_NAME)
	default:
		return fmt.Sprintf("validation failed: %s", tag)
	}
}
