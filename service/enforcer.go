package service

import (
	"context"
	"time"

	"admission-gate-service/domain"
	"admission-gate-service/identity"
	"admission-gate-service/policy"

	"github.com/txix-open/isp-kit/log"
)

type CounterStore interface {
	IncrementAndGet(ctx context.Context, tier domain.Tier, identityKey string, window time.Duration) (int64, time.Duration, error)
}

type Classifier interface {
	Classify(path string, method string) domain.Tier
}

// Enforcer runs the admission sequence for one request:
// classify, check bypass, resolve identity, look up the policy,
// increment the counter, decide.
type Enforcer struct {
	classifier Classifier
	policies   *policy.PolicySet
	bypass     BypassGate
	store      CounterStore
	failClosed bool
	metrics    *Metrics
	logger     log.Logger
	now        func() time.Time
}

func NewEnforcer(
	classifier Classifier,
	policies *policy.PolicySet,
	bypass BypassGate,
	store CounterStore,
	failClosed bool,
	metrics *Metrics,
	logger log.Logger,
) Enforcer {
	return Enforcer{
		classifier: classifier,
		policies:   policies,
		bypass:     bypass,
		store:      store,
		failClosed: failClosed,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// Allow never returns an error, store trouble resolves into a decision
// through the configured failure policy. An allowed request is counted
// even if the caller disconnects before the response, the gate counts
// attempts, not completions.
func (s Enforcer) Allow(ctx context.Context, request domain.AdmissionRequest) domain.Decision {
	tier := s.classifier.Classify(request.Path, request.Method)

	if tier == domain.TierUnlimited ||
		s.bypass.Excluded(request.Path, request.Method) ||
		s.bypass.TokenValid(request.BypassToken) {
		decision := domain.Decision{Allowed: true, Bypassed: true, Tier: tier}
		s.metrics.ObserveDecision(decision)
		return decision
	}

	id := identity.Resolve(request.Principal, request.ForwardedFor, request.RealIp, request.PeerAddress)
	limit := s.policies.EffectiveLimit(tier, id.Authenticated(), id.Staff)

	count, ttl, err := s.store.IncrementAndGet(ctx, tier, id.Key, limit.Window())
	if err != nil {
		return s.storeFailure(ctx, request, tier, id, limit, err)
	}

	decision := domain.Decision{
		Allowed:   count <= int64(limit.Requests),
		Tier:      tier,
		Identity:  id,
		Limit:     limit.Requests,
		Remaining: remaining(limit.Requests, count),
		ResetAt:   s.now().Add(ttl),
	}
	if !decision.Allowed {
		decision.RetryAfter = ttl
		s.logger.Info(ctx, "rate limit exceeded",
			log.String("identity", id.Key),
			log.String("tier", tier.String()),
			log.String("path", request.Path),
		)
	}
	s.metrics.ObserveDecision(decision)
	return decision
}

func (s Enforcer) storeFailure(
	ctx context.Context,
	request domain.AdmissionRequest,
	tier domain.Tier,
	id domain.Identity,
	limit policy.LimitWindow,
	err error,
) domain.Decision {
	s.metrics.ObserveStoreFailure(s.failClosed)
	failurePolicy := "open"
	if s.failClosed {
		failurePolicy = "closed"
	}
	s.logger.Error(ctx, "counter store unavailable",
		log.Any("error", err),
		log.String("failurePolicy", failurePolicy),
		log.String("tier", tier.String()),
		log.String("path", request.Path),
	)

	if !s.failClosed {
		decision := domain.Decision{Allowed: true, Tier: tier, Identity: id}
		s.metrics.ObserveDecision(decision)
		return decision
	}

	decision := domain.Decision{
		Allowed:    false,
		Tier:       tier,
		Identity:   id,
		Limit:      limit.Requests,
		Remaining:  0,
		ResetAt:    s.now().Add(limit.Window()),
		RetryAfter: limit.Window(),
	}
	s.metrics.ObserveDecision(decision)
	return decision
}

func remaining(limit int, count int64) int {
	value := limit - int(count)
	if value < 0 {
		return 0
	}
	return value
}
