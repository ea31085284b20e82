package shared

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Action errors surfaced to the user as notices
	ErrConfiguration = fmt.Errorf("configuration error")
	ErrValidation    = fmt.Errorf("validation failed")
	ErrUpstream      = fmt.Errorf("upstream request failed")
	ErrPersistence   = fmt.Errorf("persistence failed")
	ErrNotFound      = fmt.Errorf("not found")
	ErrArchived      = fmt.Errorf("playlist is archived")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Service errors
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// userFacing lists sentinels whose detail text is already phrased for the user.
var userFacing = []error{ErrValidation, ErrArchived, ErrNotAuthenticated}

// Describe returns the message shown in a notice for err.
//
// Validation-style errors drop their sentinel prefix so "validation failed: Please enter a theme."
// renders as "Please enter a theme.". Everything else keeps the full chain.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, sentinel := range userFacing {
		if !errors.Is(err, sentinel) {
			continue
		}
		prefix := sentinel.Error() + ": "
		if i := strings.Index(msg, prefix); i >= 0 {
			return msg[i+len(prefix):]
		}
	}
	return msg
}
