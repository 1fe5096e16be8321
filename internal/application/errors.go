package application

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnauthenticated is returned when no valid credential backs the session.
	ErrUnauthenticated = errors.New("application: unauthenticated")
	// ErrNotFound is returned when a persisted value does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrBusy is returned when a workflow is re-entered while an attempt is in flight.
	ErrBusy = errors.New("application: operation already in progress")
	// ErrStaleResult is returned when a result arrives for a section that is no longer active.
	ErrStaleResult = errors.New("application: result dropped for inactive section")
	// ErrLateRequestNotOffered is returned when a late request is submitted without a qualifying check-in outcome.
	ErrLateRequestNotOffered = errors.New("application: late request not offered")
	// ErrNoPendingRejection is returned when a rejection is confirmed without an open dialog.
	ErrNoPendingRejection = errors.New("application: no rejection awaiting a comment")

	// ErrRequestFailed classifies non-2xx responses from the attendance service.
	ErrRequestFailed = errors.New("application: request failed")
	// ErrTransport classifies network or connectivity failures.
	ErrTransport = errors.New("application: transport failure")

	// ErrLocationDenied is returned when the user refuses to share a location.
	ErrLocationDenied = errors.New("application: location permission denied")
	// ErrLocationUnavailable is returned when a position cannot be determined.
	ErrLocationUnavailable = errors.New("application: location unavailable")
	// ErrLocationUnsupported is returned when the platform has no location capability.
	ErrLocationUnsupported = errors.New("application: location not supported")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	if len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	return "validation failed: " + v.Message()
}

// Message joins the field messages in a stable order for display.
func (v *ValidationError) Message() string {
	if v == nil || len(v.FieldErrors) == 0 {
		return ""
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	messages := make([]string, 0, len(fields))
	for _, field := range fields {
		messages = append(messages, v.FieldErrors[field])
	}
	return strings.Join(messages, "; ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

// RemoteError describes a failed call to the attendance service. Kind is either
// ErrRequestFailed or ErrTransport.
type RemoteError struct {
	Kind       error
	Endpoint   string
	StatusCode int
	Detail     string
	Cause      error
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
	} else {
		b.WriteString("application: remote error")
	}
	if e.Endpoint != "" {
		fmt.Fprintf(&b, " (%s)", e.Endpoint)
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if e.Detail != "" {
		fmt.Fprintf(&b, ": %s", e.Detail)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap exposes both the classification sentinel and the underlying cause.
func (e *RemoteError) Unwrap() []error {
	if e == nil {
		return nil
	}
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// LocationError wraps a location sentinel with an optional platform message.
type LocationError struct {
	Kind   error
	Reason string
}

// Error implements the error interface.
func (e *LocationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Reason == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Reason
}

// Unwrap returns the location sentinel.
func (e *LocationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Kind
}

// DisplayMessage converts an error into the text shown to the user. Server
// supplied details and validation messages win; everything else degrades to
// fallback.
func DisplayMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) && vErr.HasErrors() {
		return vErr.Message()
	}

	var rErr *RemoteError
	if errors.As(err, &rErr) {
		if errors.Is(rErr, ErrRequestFailed) && strings.TrimSpace(rErr.Detail) != "" {
			return strings.TrimSpace(rErr.Detail)
		}
		return fallback
	}

	switch {
	case errors.Is(err, ErrLocationDenied):
		return "Location permission denied"
	case errors.Is(err, ErrLocationUnsupported):
		return "Geolocation not supported"
	case errors.Is(err, ErrLocationUnavailable):
		var lErr *LocationError
		if errors.As(err, &lErr) && lErr.Reason != "" {
			return "Location unavailable: " + lErr.Reason
		}
		return "Location unavailable"
	case errors.Is(err, ErrBusy):
		return "Please wait for the current request to finish"
	case errors.Is(err, ErrLateRequestNotOffered):
		return "A late request is not available for this check-in"
	}
	return fallback
}
