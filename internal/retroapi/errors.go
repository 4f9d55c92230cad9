package retroapi

import (
	"errors"
	"fmt"
	"net/http"
)

// FetchError is the single failure type returned by Client. It covers
// transport failures, timeouts, non-2xx statuses, malformed bodies and
// 200 responses that carry an Error field.
type FetchError struct {
	Endpoint   string
	StatusCode int // 0 when no response was received
	Reason     string
	Err        error

	transient bool
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("retroapi %s: status %d: %s", e.Endpoint, e.StatusCode, e.Reason)
	}
	if e.Err != nil {
		return fmt.Sprintf("retroapi %s: %s: %v", e.Endpoint, e.Reason, e.Err)
	}
	return fmt.Sprintf("retroapi %s: %s", e.Endpoint, e.Reason)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Transient reports whether retrying may succeed.
func (e *FetchError) Transient() bool {
	return e.transient
}

// IsTransient reports whether err is a retryable FetchError.
func IsTransient(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.transient
}

// IsNotFound reports whether err is a 404 from upstream.
func IsNotFound(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.StatusCode == http.StatusNotFound
}

func transientStatus(code int) bool {
	return code >= 500 || code == http.StatusTooManyRequests || code == http.StatusRequestTimeout
}
