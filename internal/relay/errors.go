package relay

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnauthorized rejects senders outside the whitelist.
var ErrUnauthorized = errors.New("user not authorized")

// ValidationError marks input that failed sanitization. The reason stays in
// the process log; the sender only ever sees a generic rejection, so
// rejected input is never echoed back.
type ValidationError struct {
	Reason error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid message: %v", e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Reason }

// RateLimitError reports a denied admission and when the sender's oldest
// message leaves the window.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry in %s", e.RetryAfter.Round(time.Second))
}

// UpstreamError wraps an inference failure. When one is returned, neither
// conversation history nor the transcript has been touched.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("inference failed: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// ErrorReply maps a Handle or Command error to the text shown to the
// sender. Internal detail never leaks into a reply.
func (c *Controller) ErrorReply(err error) string {
	var (
		valErr  *ValidationError
		rateErr *RateLimitError
		upErr   *UpstreamError
	)

	switch {
	case errors.Is(err, ErrUnauthorized):
		return "❌ You are not authorized to use this bot."
	case errors.As(err, &valErr):
		return "❌ Invalid message."
	case errors.As(err, &rateErr):
		return fmt.Sprintf("⏳ Too many messages. Please wait %d seconds.", retrySeconds(rateErr.RetryAfter))
	case errors.As(err, &upErr):
		return "❌ Error communicating with AI. Please try again."
	default:
		return "⚠️ An unexpected error occurred. Please try again later."
	}
}

// retrySeconds rounds up so the hint never undershoots the actual wait.
func retrySeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}

	return secs
}
