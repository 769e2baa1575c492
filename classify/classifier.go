package classify

import (
	"admission-gate-service/domain"
)

// Tables holds the route patterns of each tier bucket.
type Tables struct {
	Unlimited []string
	Critical  []string
	High      []string
	Medium    []string
	Low       []string
}

type bucket struct {
	tier     domain.Tier
	patterns PatternList
}

// Classifier assigns a tier to a route. Buckets are checked in the
// fixed order of domain.TiersByPriority, first match wins.
type Classifier struct {
	buckets []bucket
}

func New(tables Tables) *Classifier {
	byTier := map[domain.Tier][]string{
		domain.TierUnlimited: tables.Unlimited,
		domain.TierCritical:  tables.Critical,
		domain.TierHigh:      tables.High,
		domain.TierMedium:    tables.Medium,
		domain.TierLow:       tables.Low,
	}
	buckets := make([]bucket, 0, len(domain.TiersByPriority))
	for _, tier := range domain.TiersByPriority {
		buckets = append(buckets, bucket{
			tier:     tier,
			patterns: NewPatternList(byTier[tier]),
		})
	}
	return &Classifier{buckets: buckets}
}

// Classify is total: any path/method pair resolves to a tier,
// unmatched routes land in MEDIUM.
func (c *Classifier) Classify(path string, method string) domain.Tier {
	for _, b := range c.buckets {
		if b.patterns.Match(path, method) {
			return b.tier
		}
	}
	return domain.TierMedium
}
