package domain

import (
	"errors"
	"fmt"
	"strings"
)

// NotFoundError is returned when the upstream reports that a resource is absent.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	resource := e.Resource
	if resource == "" {
		resource = "employee"
	}
	return fmt.Sprintf("%s not found with id: %s", resource, e.ID)
}

// UpstreamError covers every failure talking to the upstream other than a 404
// on a single-record lookup: transport errors, timeouts, malformed bodies and
// non-2xx statuses.
type UpstreamError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "upstream %s failed", e.Op)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status=%d", e.StatusCode)
		if e.Body != "" {
			fmt.Fprintf(&b, " body=%s", e.Body)
		}
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// FieldViolation describes one rejected input field.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every violation found in a creation input.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Field+": "+v.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// HasField reports whether field is among the violations.
func (e *ValidationError) HasField(field string) bool {
	for _, v := range e.Violations {
		if v.Field == field {
			return true
		}
	}
	return false
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsUpstream(err error) bool {
	var target *UpstreamError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
