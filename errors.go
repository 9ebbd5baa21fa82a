package main

import (
	"errors"
	"fmt"
)

// Sentinel errors for AI calls. The client maps transport and HTTP failures
// onto these; callers decide whether a failure is worth retrying.
var (
	ErrNoAPIKey          = errors.New("api key is not configured")
	ErrTimeout           = errors.New("ai request timed out")
	ErrAuthFailure       = errors.New("api key was rejected by the provider")
	ErrRateLimited       = errors.New("provider rate limit exceeded")
	ErrMalformedResponse = errors.New("provider response is missing the reply text")
)

// Component-level exhaustion errors, surfaced to the caller as-is.
var (
	ErrGenerationFailed    = errors.New("could not generate a valid name")
	ErrJudgmentUnparseable = errors.New("ai verdict could not be parsed")
)

// UpstreamError reports an unexpected HTTP status from a provider, carrying
// the first part of the response body for diagnostics.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.Status, e.Body)
}

// isRetryable filters out the failures no retry can fix: a bad key stays
// bad, and a missing key never grows one.
func isRetryable(err error) bool {
	return !errors.Is(err, ErrAuthFailure) && !errors.Is(err, ErrNoAPIKey)
}

// isTransportFailure reports whether err came from the network layer rather
// than from invalid model output. Auth failures are excluded: retrying a bad
// key never helps.
func isTransportFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAuthFailure) || errors.Is(err, ErrNoAPIKey) {
		return false
	}
	var upstream *UpstreamError
	return errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrMalformedResponse) ||
		errors.As(err, &upstream)
}
