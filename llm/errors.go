package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind tells the retry policy whether a capability failure is worth retrying.
type ErrorKind int

const (
	Fatal ErrorKind = iota
	Transient
)

func (k ErrorKind) String() string {
	if k == Transient {
		return "transient"
	}
	return "fatal"
}

var (
	ErrUnsupportedCapability = errors.New("unsupported capability")
	ErrEmptyResponse         = errors.New("empty response")
)

// CapabilityError is returned by every LlmClient failure.
type CapabilityError struct {
	Kind       ErrorKind
	Provider   Provider
	StatusCode int
	Err        error
}

func (e *CapabilityError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s error (status %d): %v", e.Provider, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s error: %v", e.Provider, e.Kind, e.Err)
}

func (e *CapabilityError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a capability failure the retry policy may retry.
func IsTransient(err error) bool {
	var ce *CapabilityError
	return errors.As(err, &ce) && ce.Kind == Transient
}

// RetryError is returned when every attempt failed transiently.
type RetryError struct {
	Attempts int
	Err      error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("all %d attempts failed: %v", e.Attempts, e.Err)
}

func (e *RetryError) Unwrap() error { return e.Err }

// kindForStatus maps provider HTTP status codes onto the retry taxonomy.
// 529 is Anthropic's "overloaded".
func kindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusRequestTimeout,
		status == http.StatusConflict,
		status == http.StatusTooManyRequests,
		status == 529,
		status >= 500:
		return Transient
	default:
		return Fatal
	}
}

func newStatusError(p Provider, status int, err error) *CapabilityError {
	return &CapabilityError{Kind: kindForStatus(status), Provider: p, StatusCode: status, Err: err}
}
