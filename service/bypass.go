package service

import (
	"crypto/subtle"

	"admission-gate-service/classify"
)

// BypassGate short-circuits requests that must never touch the counter
// store: excluded routes and callers carrying the shared bypass secret.
type BypassGate struct {
	exclusions classify.PatternList
	token      string
}

func NewBypassGate(exclusions []string, token string) BypassGate {
	return BypassGate{
		exclusions: classify.NewPatternList(exclusions),
		token:      token,
	}
}

func (g BypassGate) Excluded(path string, method string) bool {
	return g.exclusions.Match(path, method)
}

// TokenValid compares in constant time.
// An empty configured secret disables token bypass entirely.
func (g BypassGate) TokenValid(token string) bool {
	if g.token == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(g.token), []byte(token)) == 1
}
