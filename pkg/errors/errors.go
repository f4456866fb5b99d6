package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents fetch failures: transport errors, timeouts and non-2xx responses
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeParsing represents markup or feed parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeDuplicate represents an insert rejected by a uniqueness constraint
	ErrorTypeDuplicate ErrorType = "duplicate"
	// ErrorTypeStore represents any other store failure
	ErrorTypeStore ErrorType = "store"
	// ErrorTypeNotification represents notification delivery errors
	ErrorTypeNotification ErrorType = "notification"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// JobError represents a scraper-pipeline error
type JobError struct {
	Type       ErrorType
	Provider   string
	Message    string
	Err        error
	RetryAfter time.Duration
	Time       time.Time
}

// Error implements the error interface
func (e *JobError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Provider, e.Message)
}

// Unwrap returns the underlying error
func (e *JobError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is retryable
func (e *JobError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeNotification:
		return true
	default:
		return false
	}
}

// IsFatal reports whether the error must abort the invocation.
// Only configuration mistakes are fatal; everything else is recovered per run or per record.
func (e *JobError) IsFatal() bool {
	return e.Type == ErrorTypeConfiguration
}

// New creates a new JobError
func New(errType ErrorType, provider, message string, err error) *JobError {
	return &JobError{
		Type:     errType,
		Provider: provider,
		Message:  message,
		Err:      err,
		Time:     time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(provider, message string, err error) *JobError {
	return New(ErrorTypeNetwork, provider, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(provider, message string, err error) *JobError {
	return New(ErrorTypeParsing, provider, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(provider string, retryAfter time.Duration) *JobError {
	e := New(ErrorTypeRateLimit, provider, fmt.Sprintf("rate limited for %v", retryAfter), nil)
	e.RetryAfter = retryAfter
	return e
}

// NewDuplicate creates the error recorded for an insert rejected by the uniqueness constraint
func NewDuplicate(provider, message string) *JobError {
	return New(ErrorTypeDuplicate, provider, message, nil)
}

// NewStore creates a new store error
func NewStore(provider, message string, err error) *JobError {
	return New(ErrorTypeStore, provider, message, err)
}

// NewNotification creates a new notification error
func NewNotification(provider, message string, err error) *JobError {
	return New(ErrorTypeNotification, provider, message, err)
}

// NewCache creates a new cache error
func NewCache(provider, message string, err error) *JobError {
	return New(ErrorTypeCache, provider, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(provider, message string, err error) *JobError {
	return New(ErrorTypePublisher, provider, message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *JobError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// TypeOf returns the type of the first JobError in err's chain, or "" if there is none.
func TypeOf(err error) ErrorType {
	var je *JobError
	if stderrors.As(err, &je) {
		return je.Type
	}
	return ""
}

// IsConfiguration reports whether err is a configuration error
func IsConfiguration(err error) bool {
	return TypeOf(err) == ErrorTypeConfiguration
}

// IsRateLimit reports whether err is a rate limit error
func IsRateLimit(err error) bool {
	return TypeOf(err) == ErrorTypeRateLimit
}

// IsNetwork reports whether err is a fetch/network error
func IsNetwork(err error) bool {
	return TypeOf(err) == ErrorTypeNetwork
}

// RetryAfter returns the retry hint carried by a rate limit error and whether one was present
func RetryAfter(err error) (time.Duration, bool) {
	var je *JobError
	if stderrors.As(err, &je) && je.Type == ErrorTypeRateLimit && je.RetryAfter > 0 {
		return je.RetryAfter, true
	}
	return 0, false
}

