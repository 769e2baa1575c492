package respond

import (
	"math"
	"net/http"
	"strconv"

	"admission-gate-service/domain"
)

const (
	limitHeader      = "X-RateLimit-Limit"
	remainingHeader  = "X-RateLimit-Remaining"
	resetHeader      = "X-RateLimit-Reset"
	retryAfterHeader = "Retry-After"
)

// WriteQuotaHeaders merges quota state into a response.
// Requests that were not counted carry no quota headers.
func WriteQuotaHeaders(header http.Header, decision domain.Decision) {
	if decision.Limit <= 0 {
		return
	}
	header.Set(limitHeader, strconv.Itoa(decision.Limit))
	header.Set(remainingHeader, strconv.Itoa(decision.Remaining))
	header.Set(resetHeader, strconv.FormatInt(decision.ResetAt.Unix(), 10))
}

// RetryAfterSeconds rounds up and never reports less than a second,
// a zero hint would invite an immediate retry.
func RetryAfterSeconds(decision domain.Decision) int {
	seconds := int(math.Ceil(decision.RetryAfter.Seconds()))
	if seconds < 1 {
		return 1
	}
	return seconds
}
