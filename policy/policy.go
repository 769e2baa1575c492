package policy

import (
	"math"

	"admission-gate-service/domain"

	"github.com/pkg/errors"
)

const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

type Override struct {
	Tier          domain.Tier
	Authenticated bool
	Requests      int
	WindowInSec   int
}

type Settings struct {
	Environment     string
	StaffMultiplier *float64
	DevUnlimited    *bool
	Exclusions      []string
	Overrides       []Override
}

// PolicySet holds the effective limits for one environment.
// It is immutable after construction, a config change builds a new one.
type PolicySet struct {
	environment     string
	staffMultiplier float64
	devUnlimited    bool
	exclusions      []string
	windows         map[limitKey]LimitWindow
}

func New(settings Settings) (*PolicySet, error) {
	base, err := presetFor(settings.Environment)
	if err != nil {
		return nil, err
	}

	windows := make(map[limitKey]LimitWindow, len(base.windows))
	for key, window := range base.windows {
		windows[key] = window
	}
	for _, override := range settings.Overrides {
		key := limitKey{tier: override.Tier, authenticated: override.Authenticated}
		if _, ok := windows[key]; !ok {
			return nil, errors.Errorf("override for unknown tier '%s'", override.Tier)
		}
		windows[key] = LimitWindow{Requests: override.Requests, WindowInSec: override.WindowInSec}
	}

	staffMultiplier := base.staffMultiplier
	if settings.StaffMultiplier != nil {
		staffMultiplier = *settings.StaffMultiplier
	}
	devUnlimited := base.devUnlimited
	if settings.DevUnlimited != nil {
		devUnlimited = *settings.DevUnlimited
	}

	set := &PolicySet{
		environment:     settings.Environment,
		staffMultiplier: staffMultiplier,
		devUnlimited:    devUnlimited,
		exclusions:      append([]string(nil), settings.Exclusions...),
		windows:         windows,
	}
	err = set.validate()
	if err != nil {
		return nil, err
	}
	return set, nil
}

func ForEnvironment(environment string) (*PolicySet, error) {
	return New(Settings{Environment: environment})
}

// EffectiveLimit is total: any tier resolves to a window, an unknown
// one falls back to the MEDIUM quota.
func (s *PolicySet) EffectiveLimit(tier domain.Tier, authenticated bool, staff bool) LimitWindow {
	window, ok := s.windows[limitKey{tier: tier, authenticated: authenticated}]
	if !ok {
		window = s.windows[limitKey{tier: domain.TierMedium, authenticated: authenticated}]
	}
	if s.devUnlimited {
		window.Requests = unboundedRequests
		return window
	}
	if staff && s.staffMultiplier > 1 {
		window.Requests = int(math.Floor(float64(window.Requests) * s.staffMultiplier))
	}
	return window
}

func (s *PolicySet) Environment() string {
	return s.environment
}

func (s *PolicySet) StaffMultiplier() float64 {
	return s.staffMultiplier
}

func (s *PolicySet) DevUnlimited() bool {
	return s.devUnlimited
}

func (s *PolicySet) Exclusions() []string {
	return s.exclusions
}

func (s *PolicySet) validate() error {
	if s.staffMultiplier < 1 {
		return errors.Errorf("staff multiplier must be >= 1, got %f", s.staffMultiplier)
	}
	for _, tier := range domain.TiersByPriority {
		for _, authenticated := range []bool{false, true} {
			window, ok := s.windows[limitKey{tier: tier, authenticated: authenticated}]
			if !ok {
				return errors.Errorf("no limit defined for tier '%s', authenticated=%t", tier, authenticated)
			}
			if window.Requests < 1 {
				return errors.Errorf("tier '%s': requests must be >= 1, got %d", tier, window.Requests)
			}
			if window.WindowInSec < 1 {
				return errors.Errorf("tier '%s': window must be >= 1s, got %ds", tier, window.WindowInSec)
			}
		}
	}
	return nil
}
