package fetch

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUpstream is wrapped by every fetch Error.
var ErrUpstream = errors.New("upstream fetch failed")

// Error describes a failed call to an external service: transport failure,
// non-success status, undecodable body, or an error payload.
type Error struct {
	Service    string
	URL        string
	StatusCode int
	Message    string
	Err        error

	// Temporary marks transport failures where no response was received.
	Temporary bool
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: %s: status %d: %s", e.Service, e.URL, e.StatusCode, truncate(e.Message, 200))
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Service, e.URL, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Service, e.URL, truncate(e.Message, 200))
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrUpstream, e.Err}
	}
	return []error{ErrUpstream}
}

// Retryable reports whether the failure is transient: throttling, a server
// error, or a transport failure with no response at all.
func (e *Error) Retryable() bool {
	return e.Temporary || e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Retryable()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
