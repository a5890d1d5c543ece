package resilience

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// Transient marks an error worth retrying, optionally carrying the HTTP
// status that produced it.
type Transient struct {
	Err    error
	Status int
}

func (e *Transient) Error() string {
	return e.Err.Error()
}

func (e *Transient) Unwrap() error {
	return e.Err
}

// MarkTransient wraps err as retryable. status may be zero for
// non-HTTP failures.
func MarkTransient(err error, status int) *Transient {
	return &Transient{Err: err, Status: status}
}

// Retryable reports whether err looks safe to retry: an explicit
// Transient mark, a network timeout, or a torn connection.
func Retryable(err error) bool {
	if err == nil {
		return false
	}

	var te *Transient
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// Wrapped transport errors lose their type; fall back on the message.
	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// RetryableStatus reports whether an HTTP status indicates a transient
// server-side problem.
func RetryableStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
