package oracle

import (
	"fmt"
	"strconv"
	"time"

	"shipdocs/internal/domain"
)

// RateLimitError indicates an oracle provider returned HTTP 429. It unwraps
// to ErrOracleUnavailable so callers can treat it as a fatal request failure
// while retry-aware callers can still read RetryAfter.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited (retry after %s)", e.Provider, e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error {
	return domain.ErrOracleUnavailable
}

// NewRateLimitError creates a RateLimitError. If retryAfterSecs is 0, defaults to 60s.
func NewRateLimitError(provider string, retryAfterSecs int) *RateLimitError {
	if retryAfterSecs <= 0 {
		retryAfterSecs = 60
	}
	return &RateLimitError{
		Provider:   provider,
		RetryAfter: time.Duration(retryAfterSecs) * time.Second,
	}
}

// ParseRetryAfterHeader parses a Retry-After header value into seconds.
// Returns 0 if the value is empty or not a valid integer.
func ParseRetryAfterHeader(val string) int {
	if val == "" {
		return 0
	}
	secs, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return secs
}
