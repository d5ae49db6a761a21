package botkit

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Configuration errors
var (
	ErrMissingToken = errors.New("botkit: bot token is required")
	ErrInvalidToken = errors.New("botkit: bot token format is invalid")
	ErrInvalidMode  = errors.New("botkit: mode must be \"polling\" or \"webhook\"")
)

// Runtime errors
var (
	ErrAlreadyRunning = errors.New("botkit: bot is already running")
	ErrQueueStopped   = errors.New("botkit: queue is stopped")
)

// ErrHandlerStop stops the dispatcher from offering the current update to
// handlers in later groups. Return it (or wrap it) from a callback.
var ErrHandlerStop = errors.New("botkit: stop handling update")

// API error classes. An *Error matches the class of its HTTP code via errors.Is.
var (
	ErrBadRequest      = errors.New("botkit: bad request")
	ErrUnauthorized    = errors.New("botkit: unauthorized")
	ErrForbidden       = errors.New("botkit: forbidden")
	ErrNotFound        = errors.New("botkit: not found")
	ErrConflict        = errors.New("botkit: conflict")
	ErrTooManyRequests = errors.New("botkit: too many requests")
	ErrServer          = errors.New("botkit: telegram server error")
)

// Transport error classes.
var (
	ErrNetwork  = errors.New("botkit: network error")
	ErrTimedOut = errors.New("botkit: request timed out")
)

// Error is an unsuccessful Bot API response.
type Error struct {
	Method      string
	Code        int
	Description string
	Parameters  *ResponseParameters
}

func (e *Error) Error() string {
	if d := e.RetryAfter(); d > 0 {
		return fmt.Sprintf("botkit: %s: %d %s (retry after %s)", e.Method, e.Code, e.Description, d)
	}
	return fmt.Sprintf("botkit: %s: %d %s", e.Method, e.Code, e.Description)
}

// Is reports whether target is the error class for e.Code.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrBadRequest:
		return e.Code == http.StatusBadRequest
	case ErrUnauthorized:
		return e.Code == http.StatusUnauthorized
	case ErrForbidden:
		return e.Code == http.StatusForbidden
	case ErrNotFound:
		return e.Code == http.StatusNotFound
	case ErrConflict:
		return e.Code == http.StatusConflict
	case ErrTooManyRequests:
		return e.Code == http.StatusTooManyRequests
	case ErrServer:
		return e.Code >= 500
	}
	return false
}

// RetryAfter returns how long Telegram asked the client to wait, or zero.
func (e *Error) RetryAfter() time.Duration {
	if e.Parameters == nil {
		return 0
	}
	return time.Duration(e.Parameters.RetryAfter) * time.Second
}

// MigrateToChatID returns the new supergroup ID when a group was upgraded, or zero.
func (e *Error) MigrateToChatID() int64 {
	if e.Parameters == nil {
		return 0
	}
	return e.Parameters.MigrateToChatID
}

// NetworkError wraps a transport failure that never produced an API response.
type NetworkError struct {
	Method string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("botkit: %s request failed: %v", e.Method, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Is matches ErrNetwork, and ErrTimedOut when the failure was a timeout.
func (e *NetworkError) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return true
	case ErrTimedOut:
		if errors.Is(e.Err, context.DeadlineExceeded) {
			return true
		}
		var ne net.Error
		return errors.As(e.Err, &ne) && ne.Timeout()
	}
	return false
}

// RetryAfter extracts the flood wait from err, if any.
func RetryAfter(err error) (time.Duration, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		if d := apiErr.RetryAfter(); d > 0 {
			return d, true
		}
	}
	return 0, false
}

// ChatMigrated extracts the new chat ID from a migration error, if any.
func ChatMigrated(err error) (int64, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		if id := apiErr.MigrateToChatID(); id != 0 {
			return id, true
		}
	}
	return 0, false
}
