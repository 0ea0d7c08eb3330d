package config

import (
	"errors"
	"fmt"
	"strings"

	"halfqwerty/internal/ime"
	"halfqwerty/internal/layout"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Is lets errors.Is(err, ErrInvalidConfig) match any validation failure.
func (e ValidationErrors) Is(target error) bool {
	return target == ErrInvalidConfig && len(e) > 0
}

// Fields returns the names of the offending fields.
func (e ValidationErrors) Fields() []string {
	fields := make([]string, 0, len(e))
	for _, err := range e {
		fields = append(fields, err.Field)
	}
	return fields
}

// ErrInvalidConfig is returned when validation fails.
var ErrInvalidConfig = errors.New("invalid configuration")

// ValidateConfig performs comprehensive validation of the configuration.
func ValidateConfig(c *Config) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var errs ValidationErrors

	if c.Version < 1 || c.Version > Version {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (current: %d)", c.Version, Version),
		})
	}

	errs = append(errs, validateEngine(&c.Engine)...)
	errs = append(errs, validateIBus(&c.IBus)...)
	errs = append(errs, validateTutor(&c.Tutor)...)
	errs = append(errs, validateStorage(&c.Storage)...)
	errs = append(errs, validateLogging(&c.Logging)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateEngine(e *EngineConfig) ValidationErrors {
	var errs ValidationErrors

	if _, err := layout.ParseVariant(e.Layout); err != nil {
		errs = append(errs, ValidationError{
			Field:   "engine.layout",
			Message: fmt.Sprintf("invalid layout: %s (valid: wide, left, right)", e.Layout),
		})
	}

	if !ime.ValidSpaceTimeout(e.SpaceTimeoutMs) {
		errs = append(errs, *RangeError("engine.space_timeout_ms", ime.MinSpaceTimeout, ime.MaxSpaceTimeout))
	}

	switch e.Protocol {
	case ProtocolExplicit, ProtocolLegacy:
	default:
		errs = append(errs, ValidationError{
			Field:   "engine.protocol",
			Message: fmt.Sprintf("invalid protocol: %s (valid: explicit, legacy)", e.Protocol),
		})
	}

	// The tick has to be well inside the chord window or lone spaces
	// commit late.
	if e.TickIntervalMs < 1 || e.TickIntervalMs > ime.MinSpaceTimeout {
		errs = append(errs, *RangeError("engine.tick_interval_ms", 1, ime.MinSpaceTimeout))
	}

	return errs
}

func validateIBus(i *IBusConfig) ValidationErrors {
	var errs ValidationErrors

	if i.BusName == "" {
		errs = append(errs, *RequiredFieldError("ibus.bus_name"))
	} else if strings.Count(i.BusName, ".") < 1 || strings.HasPrefix(i.BusName, ".") {
		errs = append(errs, ValidationError{
			Field:   "ibus.bus_name",
			Message: fmt.Sprintf("not a well-known D-Bus name: %s", i.BusName),
		})
	}

	if i.EngineName == "" {
		errs = append(errs, *RequiredFieldError("ibus.engine_name"))
	}

	return errs
}

func validateTutor(t *TutorConfig) ValidationErrors {
	var errs ValidationErrors

	if t.Words < 1 || t.Words > 500 {
		errs = append(errs, *RangeError("tutor.words", 1, 500))
	}

	return errs
}

func validateStorage(s *StorageConfig) ValidationErrors {
	var errs ValidationErrors

	if s.Path == "" {
		errs = append(errs, *RequiredFieldError("storage.path"))
	}

	if s.BusyTimeoutMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "storage.busy_timeout_ms",
			Message: "busy timeout cannot be negative",
		})
	}

	return errs
}

func validateLogging(l *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid log level: %s (valid: debug, info, warn, error)", l.Level),
		})
	}

	switch l.Format {
	case "text", "json":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid log format: %s (valid: text, json)", l.Format),
		})
	}

	switch l.Output {
	case "stdout", "stderr":
	case "file", "both":
		if l.FilePath == "" {
			errs = append(errs, ValidationError{
				Field:   "logging.file_path",
				Message: fmt.Sprintf("file path is required when output is '%s'", l.Output),
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.output",
			Message: fmt.Sprintf("invalid log output: %s (valid: stdout, stderr, file, both)", l.Output),
		})
	}

	if l.MaxSizeMB < 1 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_size_mb",
			Message: "max size must be at least 1 MB",
		})
	}

	if l.MaxBackups < 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_backups",
			Message: "max backups cannot be negative",
		})
	}

	if l.MaxAgeDays < 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_age_days",
			Message: "max age cannot be negative",
		})
	}

	return errs
}

// RequiredFieldError creates a validation error for a required field.
func RequiredFieldError(field string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: "required field is missing",
	}
}

// RangeError creates a validation error for an out-of-range value.
func RangeError(field string, min, max interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("value must be between %v and %v", min, max),
	}
}
