// Package failure defines the error taxonomy shared by the client layers and
// maps errors to the short notices shown to the user.
package failure

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// NetworkError indicates a backend request failed: the transport gave up or
// the server answered with a non-2xx status.
type NetworkError struct {
	Op     string
	Status int // 0 when no response was received
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: HTTP %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Unauthorized reports whether the server rejected the session.
func (e *NetworkError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// ValidationError indicates malformed or missing input, either caught
// locally or rejected by the backend with an explanation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// DataUnavailableError indicates a static dataset has nothing for a topic.
type DataUnavailableError struct {
	Dataset string // "questions" or "resources"
	Topic   string
	Err     error
}

func (e *DataUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no %s available for topic %q: %v", e.Dataset, e.Topic, e.Err)
	}
	return fmt.Sprintf("no %s available for topic %q", e.Dataset, e.Topic)
}

func (e *DataUnavailableError) Unwrap() error { return e.Err }

// PersistenceError indicates the backend refused to store something.
type PersistenceError struct {
	Op  string // "save chat" or "update progress"
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Notice returns the user-facing text for err, or "" for a nil error.
func Notice(err error) string {
	if err == nil {
		return ""
	}

	var (
		validation  *ValidationError
		unavailable *DataUnavailableError
		persistence *PersistenceError
		network     *NetworkError
	)
	switch {
	case errors.As(err, &validation):
		return validation.Message
	case errors.As(err, &unavailable):
		return fmt.Sprintf("No %s available for this topic", unavailable.Dataset)
	case errors.As(err, &persistence):
		return fmt.Sprintf("Failed to %s", persistence.Op)
	case errors.As(err, &network):
		if network.Unauthorized() {
			return "Your session has expired, please log in again"
		}
		return "Could not reach the server"
	case errors.Is(err, context.Canceled):
		return ""
	}
	return "An error occurred"
}
