package domain

import (
	"time"
)

// AdmissionRequest is the part of an incoming request the limiter looks at.
type AdmissionRequest struct {
	Path         string
	Method       string
	PeerAddress  string
	ForwardedFor string
	RealIp       string
	BypassToken  string
	Principal    *Principal
}

// Decision is the admission verdict for a single request.
// Limit is 0 when the request was not counted, quota headers
// are only emitted for counted requests.
type Decision struct {
	Allowed    bool
	Bypassed   bool
	Tier       Tier
	Identity   Identity
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}
