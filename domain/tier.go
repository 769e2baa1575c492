package domain

import (
	"strings"

	"github.com/pkg/errors"
)

type Tier string

const (
	TierUnlimited Tier = "UNLIMITED"
	TierCritical  Tier = "CRITICAL"
	TierHigh      Tier = "HIGH"
	TierMedium    Tier = "MEDIUM"
	TierLow       Tier = "LOW"
)

// TiersByPriority is the classification order.
// A path matching several tiers gets the first match from this list.
var TiersByPriority = []Tier{
	TierUnlimited,
	TierCritical,
	TierHigh,
	TierMedium,
	TierLow,
}

func (t Tier) String() string {
	return string(t)
}

func ParseTier(value string) (Tier, error) {
	tier := Tier(strings.ToUpper(strings.TrimSpace(value)))
	switch tier {
	case TierUnlimited, TierCritical, TierHigh, TierMedium, TierLow:
		return tier, nil
	default:
		return "", errors.Errorf("unknown tier '%s'", value)
	}
}
