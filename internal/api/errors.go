package api

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies failed API responses
type ErrorKind int

const (
	// KindNotModified means the resource did not change since the given time
	KindNotModified ErrorKind = iota
	// KindRateLimit means the call budget was exhausted despite waiting
	KindRateLimit
	// KindUnauthorized means the credential was rejected
	KindUnauthorized
	// KindHTTP covers any other unsuccessful status
	KindHTTP
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotModified:
		return "NotModified"
	case KindRateLimit:
		return "RateLimit"
	case KindUnauthorized:
		return "Unauthorized"
	default:
		return "HTTP"
	}
}

// Error is a classified GitHub API failure
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	URL        string
	ResetTime  time.Time
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("GitHub API error [%s]", e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" %d", e.StatusCode)
	}
	if e.URL != "" {
		msg += " " + e.URL
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Kind == KindRateLimit && !e.ResetTime.IsZero() {
		msg += fmt.Sprintf(" (resets at %s)", e.ResetTime.UTC().Format(time.RFC3339))
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsNotModified reports whether err signals an unchanged resource
func IsNotModified(err error) bool {
	return hasKind(err, KindNotModified)
}

// IsRateLimitError reports whether err is a quota-exceeded failure
func IsRateLimitError(err error) bool {
	return hasKind(err, KindRateLimit)
}

// IsAuthenticationError reports whether the credential was rejected
func IsAuthenticationError(err error) bool {
	return hasKind(err, KindUnauthorized)
}

func hasKind(err error, kind ErrorKind) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind == kind
	}
	return false
}
