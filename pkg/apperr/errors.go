package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Error kinds surfaced by the conversation core.
var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFoundOrDenied = errors.New("not found or access denied")
	ErrForbidden        = errors.New("forbidden")
	ErrTransaction      = errors.New("transaction failed")
	ErrUnauthorized     = errors.New("unauthorized")
)

// ValidationError carries per-field messages. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, message)
	return v
}

func (v *ValidationError) Add(field, message string) {
	if v.Fields == nil {
		v.Fields = make(map[string][]string)
	}
	v.Fields[field] = append(v.Fields[field], message)
}

func (v *ValidationError) Empty() bool {
	return v == nil || len(v.Fields) == 0
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(v.Fields[k], "; ")))
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, ", "))
}

func (v *ValidationError) Unwrap() error {
	return ErrValidation
}

// HTTPStatus maps an error kind to the status code the API answers with.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFoundOrDenied):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
