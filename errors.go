package goSession

import (
	"context"
	"errors"
	"net"
	"strings"
)

var (
	// ErrInvalidCredentials is returned by identity boundaries for a wrong
	// email or password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailNotConfirmed is returned when the account email is unconfirmed.
	ErrEmailNotConfirmed = errors.New("email not confirmed")
	// ErrUserNotFound is returned when no account matches.
	ErrUserNotFound = errors.New("user not found")
	// ErrRateLimited is returned when the identity service throttles a call.
	ErrRateLimited = errors.New("rate limited")
	// ErrOffline is returned when the host has no network connectivity.
	ErrOffline = errors.New("offline")
	// ErrServiceUnreachable is returned when the identity service cannot be
	// reached.
	ErrServiceUnreachable = errors.New("service unreachable")
	// ErrServerUnhealthy is returned when the first-boot health check fails.
	ErrServerUnhealthy = errors.New("server unhealthy")
	// ErrSessionExpired is returned when a session is past its expiry.
	ErrSessionExpired = errors.New("session expired")
	// ErrSessionInvalid is returned when a session fails integrity checks.
	ErrSessionInvalid = errors.New("session invalid")
	// ErrRefreshExhausted is returned after the retry ceiling is reached.
	ErrRefreshExhausted = errors.New("refresh retries exhausted")
	// ErrClosed is returned by operations on a closed Manager.
	ErrClosed = errors.New("session manager closed")
	// ErrIllegalTransition is logged when a status change is not permitted.
	ErrIllegalTransition = errors.New("illegal status transition")
)

// Human-readable messages published in Snapshot.Error.
const (
	MessageOffline            = "No connection. Check your network and try again."
	MessageTimeout            = "The request timed out. Check your connection and try again."
	MessageServiceUnreachable = "The authentication service is unreachable. Please try again shortly."
	MessageServerUnhealthy    = "The service is currently degraded. Some features may be unavailable."
	MessageRateLimited        = "Too many attempts. Please wait a moment and try again."
	MessageRefreshExhausted   = "We could not refresh your session after several attempts. Please try again."
	MessageInvalidCredentials = "The email or password you entered is incorrect."
	MessageEmailNotConfirmed  = "Please confirm your email address before signing in."
	MessageUserNotFound       = "No account was found for that email address."
	MessageSessionExpired     = "Your session has expired. Please sign in again."
	MessageSessionInvalid     = "Your session is no longer valid. Please sign in again."
	MessageUnknown            = "Something went wrong. Please try again."
)

// ErrorKind is the closed set of failure categories.
type ErrorKind uint8

const (
	// KindUnknown is anything that could not be classified.
	KindUnknown ErrorKind = iota
	// KindCredential failures are terminal and never retried.
	KindCredential
	// KindRateLimit failures are retried with backoff up to the ceiling.
	KindRateLimit
	// KindConnectivity failures wait for the network monitor to reconnect.
	KindConnectivity
	// KindIntegrity failures are treated as a sign-out.
	KindIntegrity
)

func (k ErrorKind) String() string {
	switch k {
	case KindCredential:
		return "credential"
	case KindRateLimit:
		return "rate_limit"
	case KindConnectivity:
		return "connectivity"
	case KindIntegrity:
		return "integrity"
	default:
		return "unknown"
	}
}

// Error is a classified boundary failure. Error() is always a complete
// sentence suitable for display.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message == "" {
		return MessageUnknown
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Retryable reports whether the failure should be retried with backoff.
func (e *Error) Retryable() bool {
	return e != nil && e.Kind == KindRateLimit
}

func newError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

type statusCoder interface {
	StatusCode() int
}

var sentinelKinds = []struct {
	err     error
	kind    ErrorKind
	message string
}{
	{ErrInvalidCredentials, KindCredential, MessageInvalidCredentials},
	{ErrEmailNotConfirmed, KindCredential, MessageEmailNotConfirmed},
	{ErrUserNotFound, KindCredential, MessageUserNotFound},
	{ErrRateLimited, KindRateLimit, MessageRateLimited},
	{ErrRefreshExhausted, KindRateLimit, MessageRefreshExhausted},
	{ErrOffline, KindConnectivity, MessageOffline},
	{ErrServiceUnreachable, KindConnectivity, MessageServiceUnreachable},
	{ErrServerUnhealthy, KindConnectivity, MessageServerUnhealthy},
	{ErrSessionExpired, KindIntegrity, MessageSessionExpired},
	{ErrSessionInvalid, KindIntegrity, MessageSessionInvalid},
}

var textKinds = []struct {
	needle  string
	kind    ErrorKind
	message string
}{
	{"too many requests", KindRateLimit, MessageRateLimited},
	{"rate limit", KindRateLimit, MessageRateLimited},
	{"invalid login credentials", KindCredential, MessageInvalidCredentials},
	{"invalid credentials", KindCredential, MessageInvalidCredentials},
	{"email not confirmed", KindCredential, MessageEmailNotConfirmed},
	{"user not found", KindCredential, MessageUserNotFound},
	{"jwt expired", KindIntegrity, MessageSessionExpired},
	{"session expired", KindIntegrity, MessageSessionExpired},
	{"refresh token not found", KindIntegrity, MessageSessionInvalid},
	{"invalid refresh token", KindIntegrity, MessageSessionInvalid},
	{"timeout", KindConnectivity, MessageTimeout},
	{"timed out", KindConnectivity, MessageTimeout},
	{"failed to fetch", KindConnectivity, MessageServiceUnreachable},
	{"connection refused", KindConnectivity, MessageServiceUnreachable},
	{"network", KindConnectivity, MessageServiceUnreachable},
	{"offline", KindConnectivity, MessageOffline},
}

// Classify normalizes any boundary error into an *Error. It returns nil for
// a nil err. Typed signals win over message text.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	for _, s := range sentinelKinds {
		if errors.Is(err, s.err) {
			return newError(s.kind, s.message, err)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return newError(KindConnectivity, MessageTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return newError(KindConnectivity, MessageTimeout, err)
		}
		return newError(KindConnectivity, MessageServiceUnreachable, err)
	}

	var sc statusCoder
	if errors.As(err, &sc) {
		switch code := sc.StatusCode(); {
		case code == 429:
			return newError(KindRateLimit, MessageRateLimited, err)
		case code == 401 || code == 403:
			return newError(KindIntegrity, MessageSessionInvalid, err)
		case code == 400 || code == 404 || code == 422:
			return newError(KindCredential, MessageInvalidCredentials, err)
		case code >= 500:
			return newError(KindConnectivity, MessageServiceUnreachable, err)
		}
	}

	text := strings.ToLower(err.Error())
	for _, t := range textKinds {
		if strings.Contains(text, t.needle) {
			return newError(t.kind, t.message, err)
		}
	}

	return newError(KindUnknown, MessageUnknown, err)
}
