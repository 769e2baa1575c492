package assembly

import (
	"net/http"
	"time"

	"admission-gate-service/classify"
	"admission-gate-service/conf"
	"admission-gate-service/domain"
	"admission-gate-service/middleware"
	"admission-gate-service/policy"
	"admission-gate-service/proxy"
	"admission-gate-service/repository"
	"admission-gate-service/respond"
	"admission-gate-service/service"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/txix-open/isp-kit/lb"
	"github.com/txix-open/isp-kit/log"
)

type Locator struct {
	logger   log.Logger
	upstream *lb.RoundRobin
	metrics  *service.Metrics
}

func NewLocator(logger log.Logger, upstream *lb.RoundRobin, metrics *service.Metrics) Locator {
	return Locator{
		logger:   logger,
		upstream: upstream,
		metrics:  metrics,
	}
}

func (l Locator) Handler(config conf.Remote, redisCli redis.UniversalClient) (http.Handler, error) {
	proxyFunc := proxy.NewHttp(l.upstream, time.Duration(config.Http.ProxyTimeoutInSec)*time.Second)

	middlewares := []middleware.Middleware{
		middleware.RequestId(config.EnableClientRequestIdForwarding),
		middleware.Logger(l.logger, config.Logging.RequestLogEnable),
		middleware.ErrorHandler(l.logger),
		middleware.Principal(service.NewHeaderPrincipal(config.Ratelimit.TrustPrincipalHeaders, "", "")),
	}
	if config.Ratelimit.Enabled {
		enforcer, err := l.enforcer(config.Ratelimit, redisCli)
		if err != nil {
			return nil, errors.WithMessage(err, "build enforcer")
		}
		middlewares = append(middlewares, middleware.RateLimit(enforcer, respond.NewResponder()))
	}

	handler := middleware.Chain(proxyFunc, middlewares...)
	entrypoint := middleware.Entrypoint(
		config.Http.MaxRequestBodySizeInMb*1024*1024, //nolint:gomnd
		handler,
		l.logger,
	)

	return entrypoint, nil
}

func (l Locator) enforcer(config conf.Ratelimit, redisCli redis.UniversalClient) (service.Enforcer, error) {
	settings := policy.Settings{
		Environment:     config.Environment,
		StaffMultiplier: config.StaffMultiplier,
		DevUnlimited:    config.DevUnlimited,
		Exclusions:      config.Exclusions,
	}
	for _, override := range config.Overrides {
		tier, err := domain.ParseTier(override.Tier)
		if err != nil {
			return service.Enforcer{}, errors.WithMessage(err, "parse override tier")
		}
		settings.Overrides = append(settings.Overrides, policy.Override{
			Tier:          tier,
			Authenticated: override.Authenticated,
			Requests:      override.Requests,
			WindowInSec:   override.WindowInSec,
		})
	}
	policies, err := policy.New(settings)
	if err != nil {
		return service.Enforcer{}, errors.WithMessage(err, "build policy set")
	}

	var store service.CounterStore
	if redisCli != nil {
		store = repository.NewCounter(redisCli, time.Duration(config.StoreTimeoutInMs)*time.Millisecond)
	} else {
		// development without redis keeps limits observable in a single process
		store = repository.NewInMemoryCounter(nil)
	}

	classifier := classify.New(classificationTables(config.Tables))
	bypass := service.NewBypassGate(policies.Exclusions(), config.BypassToken)

	return service.NewEnforcer(classifier, policies, bypass, store, config.FailClosed, l.metrics, l.logger), nil
}

func classificationTables(patterns *conf.TierPatterns) classify.Tables {
	tables := classify.DefaultTables()
	if patterns == nil {
		return tables
	}
	if len(patterns.Unlimited) > 0 {
		tables.Unlimited = patterns.Unlimited
	}
	if len(patterns.Critical) > 0 {
		tables.Critical = patterns.Critical
	}
	if len(patterns.High) > 0 {
		tables.High = patterns.High
	}
	if len(patterns.Medium) > 0 {
		tables.Medium = patterns.Medium
	}
	if len(patterns.Low) > 0 {
		tables.Low = patterns.Low
	}
	return tables
}
