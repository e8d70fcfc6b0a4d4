package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// APIError is a non-2xx response from a provider API.
type APIError struct {
	Provider string
	Model    string
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Provider, e.Model, e.Status, body)
}

// Retryable reports whether the failure indicates quota exhaustion or a
// transient upstream condition, where trying another pool combination is
// likely to help.
func (e *APIError) Retryable() bool {
	switch e.Status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	lower := strings.ToLower(e.Body)
	return strings.Contains(lower, "quota") || strings.Contains(lower, "resource_exhausted") ||
		strings.Contains(lower, "rate limit") || strings.Contains(lower, "rate_limit")
}

// failureClass classifies one attempt outcome for the rotation sweep.
// Both classes advance to the next combination; the distinction only
// affects logging and diagnostics.
type failureClass int

const (
	failureRetryable failureClass = iota // quota, rate limit, timeout, transient upstream
	failureFatal                         // auth error, malformed request
)

// classify maps an attempt error to its failure class.
func classify(err error) failureClass {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Retryable() {
			return failureRetryable
		}
		return failureFatal
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return failureRetryable
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return failureRetryable
	}

	// Transport-level failures (connection refused, DNS) are worth retrying
	// on another combination; anything else is treated as fatal for the
	// combination that produced it.
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return failureRetryable
	}
	return failureFatal
}

// AllProvidersExhaustedError is the terminal rotation failure: every
// combination in the primary pool and the cross-provider fallback failed.
// It carries the last underlying cause for diagnostics.
type AllProvidersExhaustedError struct {
	Attempts int
	LastErr  error
}

func (e *AllProvidersExhaustedError) Error() string {
	return fmt.Sprintf("all provider combinations exhausted after %d attempts: %v", e.Attempts, e.LastErr)
}

func (e *AllProvidersExhaustedError) Unwrap() error {
	return e.LastErr
}
