package policy

import (
	"math"

	"admission-gate-service/domain"

	"github.com/pkg/errors"
)

// unboundedRequests keeps the counting path wired while making the quota
// practically unreachable.
const unboundedRequests = math.MaxInt32

type limitKey struct {
	tier          domain.Tier
	authenticated bool
}

type preset struct {
	staffMultiplier float64
	devUnlimited    bool
	windows         map[limitKey]LimitWindow
}

func presetFor(environment string) (preset, error) {
	switch environment {
	case EnvDevelopment:
		return developmentPreset(), nil
	case EnvStaging:
		return stagingPreset(), nil
	case EnvProduction:
		return productionPreset(), nil
	default:
		return preset{}, errors.Errorf("unknown environment '%s'", environment)
	}
}

func developmentPreset() preset {
	return preset{
		staffMultiplier: 1.0,
		devUnlimited:    true,
		windows: map[limitKey]LimitWindow{
			{domain.TierUnlimited, false}: {Requests: unboundedRequests, WindowInSec: 60},
			{domain.TierUnlimited, true}:  {Requests: unboundedRequests, WindowInSec: 60},
			{domain.TierCritical, false}:  {Requests: 100, WindowInSec: 60},
			{domain.TierCritical, true}:   {Requests: 200, WindowInSec: 60},
			{domain.TierHigh, false}:      {Requests: 300, WindowInSec: 60},
			{domain.TierHigh, true}:       {Requests: 600, WindowInSec: 60},
			{domain.TierMedium, false}:    {Requests: 600, WindowInSec: 60},
			{domain.TierMedium, true}:     {Requests: 1200, WindowInSec: 60},
			{domain.TierLow, false}:       {Requests: 1200, WindowInSec: 60},
			{domain.TierLow, true}:        {Requests: 3000, WindowInSec: 60},
		},
	}
}

func stagingPreset() preset {
	return preset{
		staffMultiplier: 5.0,
		devUnlimited:    false,
		windows: map[limitKey]LimitWindow{
			{domain.TierUnlimited, false}: {Requests: unboundedRequests, WindowInSec: 60},
			{domain.TierUnlimited, true}:  {Requests: unboundedRequests, WindowInSec: 60},
			{domain.TierCritical, false}:  {Requests: 10, WindowInSec: 60},
			{domain.TierCritical, true}:   {Requests: 40, WindowInSec: 60},
			{domain.TierHigh, false}:      {Requests: 60, WindowInSec: 60},
			{domain.TierHigh, true}:       {Requests: 120, WindowInSec: 60},
			{domain.TierMedium, false}:    {Requests: 120, WindowInSec: 60},
			{domain.TierMedium, true}:     {Requests: 240, WindowInSec: 60},
			{domain.TierLow, false}:       {Requests: 300, WindowInSec: 60},
			{domain.TierLow, true}:        {Requests: 600, WindowInSec: 60},
		},
	}
}

func productionPreset() preset {
	return preset{
		staffMultiplier: 5.0,
		devUnlimited:    false,
		windows: map[limitKey]LimitWindow{
			{domain.TierUnlimited, false}: {Requests: unboundedRequests, WindowInSec: 60},
			{domain.TierUnlimited, true}:  {Requests: unboundedRequests, WindowInSec: 60},
			{domain.TierCritical, false}:  {Requests: 5, WindowInSec: 60},
			{domain.TierCritical, true}:   {Requests: 20, WindowInSec: 60},
			{domain.TierHigh, false}:      {Requests: 30, WindowInSec: 60},
			{domain.TierHigh, true}:       {Requests: 60, WindowInSec: 60},
			{domain.TierMedium, false}:    {Requests: 60, WindowInSec: 60},
			{domain.TierMedium, true}:     {Requests: 120, WindowInSec: 60},
			{domain.TierLow, false}:       {Requests: 120, WindowInSec: 60},
			{domain.TierLow, true}:        {Requests: 300, WindowInSec: 60},
		},
	}
}
