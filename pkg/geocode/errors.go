package geocode

import (
	"errors"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/urbanscope/citysearch/internal/resilience"
)

// Failure classes. SearchCities and ReverseGeocode recover from all of them;
// they exist for logging, metrics and the checked distance helper.
var (
	ErrNetwork           = eris.New("geocode: network error")
	ErrMalformedResponse = eris.New("geocode: malformed response")
	ErrValidation        = eris.New("geocode: invalid coordinates")
)

// providerError tags a low-level failure with its class.
type providerError struct {
	class  error
	status int
	err    error
}

func (e *providerError) Error() string {
	if e.status != 0 {
		return fmt.Sprintf("%s (status %d): %v", e.class, e.status, e.err)
	}
	return fmt.Sprintf("%s: %v", e.class, e.err)
}

func (e *providerError) Unwrap() error { return e.err }

func (e *providerError) Is(target error) bool { return target == e.class }

// networkError classifies a transport or status failure; retryable ones are
// additionally marked transient.
func networkError(err error, status int) error {
	pe := &providerError{class: ErrNetwork, status: status, err: err}
	if (status == 0 && resilience.IsTransient(err)) || resilience.IsTransientHTTPStatus(status) {
		return resilience.NewTransientError(pe, status)
	}
	return pe
}

// throttledError reports a request the local rate limiter refused before it
// reached the provider.
func throttledError(err error) error {
	return &providerError{class: ErrNetwork, err: eris.Wrap(resilience.ErrThrottled, err.Error())}
}

func malformedError(err error) error {
	return &providerError{class: ErrMalformedResponse, err: err}
}

// failureKind labels err for metrics.
func failureKind(err error) string {
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, resilience.ErrThrottled):
		return "throttled"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	default:
		return "network"
	}
}
