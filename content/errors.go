package content

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// DatabaseURLSetting names the environment variable that enables persistence.
const DatabaseURLSetting = "DATABASE_URL"

var (
	// ErrNotFound is returned when no post matches the requested slug.
	ErrNotFound = errors.New("content: post not found")
	// ErrConfiguration is returned by writes while the store runs in demo mode.
	ErrConfiguration = errors.New("content: store is not configured for writes")
	// ErrSlugTaken is returned when a write would duplicate another post's slug.
	ErrSlugTaken = errors.New("content: slug already in use")
	// ErrBackend marks unexpected failures of the underlying database.
	ErrBackend = errors.New("content: backend failure")
)

// ConfigError reports a mutating operation attempted without a database.
type ConfigError struct {
	Setting string
	Op      string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s is not configured. Connect a database to %s posts.", e.Setting, e.Op)
}

func (e *ConfigError) Unwrap() error { return ErrConfiguration }

// BackendError wraps a database failure with the operation that hit it.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return "content: " + e.Op + ": " + e.Err.Error()
}

func (e *BackendError) Unwrap() error { return e.Err }

func (e *BackendError) Is(target error) bool { return target == ErrBackend }

// ValidationError carries a field-level report for a rejected payload.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid payload: " + strings.Join(parts, "; ")
}

// IsValidation reports whether err is a payload validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// newValidationError flattens ozzo errors into dotted field paths, e.g.
// "tags.1" for the second tag.
func newValidationError(err error) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return err
	}
	fields := map[string]string{}
	flattenErrors("", errs, fields)
	return &ValidationError{Fields: fields}
}

func flattenErrors(prefix string, errs validation.Errors, out map[string]string) {
	for key, err := range errs {
		name := key
		if prefix != "" {
			name = prefix + "." + key
		}
		var nested validation.Errors
		if errors.As(err, &nested) {
			flattenErrors(name, nested, out)
			continue
		}
		out[name] = err.Error()
	}
}
