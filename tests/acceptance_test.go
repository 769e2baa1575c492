// nolint:canonicalheader
package tests

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"admission-gate-service/assembly"
	"admission-gate-service/conf"
	"admission-gate-service/service"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/txix-open/isp-kit/http/httpcli"
	"github.com/txix-open/isp-kit/json"
	"github.com/txix-open/isp-kit/lb"
	"github.com/txix-open/isp-kit/log"
	"github.com/txix-open/isp-kit/requestid"
	"github.com/txix-open/isp-kit/test"
	"github.com/txix-open/isp-kit/test/httpt"
)

type request struct {
	Id string
}

type response struct {
	Id string
}

type denyResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}

type AdmissionTestSuite struct {
	suite.Suite
}

func (s *AdmissionTestSuite) TestProxyForwardsRequestId() {
	test, require := test.New(s.T())
	config, redisCli := s.commonDependencies(test)

	requestId := requestid.Next()
	target := httpt.NewMock(test)
	target.POST("/api/endpoint", func(ctx context.Context, httpReq *http.Request, req request) response {
		require.EqualValues(requestId, requestid.FromContext(ctx))
		require.EqualValues(requestId, httpReq.Header.Get("x-request-id"))
		return response{Id: req.Id} //nolint:gosimple
	})
	srv := s.newGate(test, config, redisCli, target.BaseURL())

	cli := httpcli.New()
	req := request{Id: uuid.New().String()}
	resp := response{}
	_, err := cli.Post(srv.URL+"/api/endpoint").
		Header("x-request-id", requestId).
		JsonRequestBody(req).
		JsonResponseBody(&resp).
		StatusCodeToError().
		Do(context.Background())
	require.NoError(err)
	require.EqualValues(req.Id, resp.Id)
}

func (s *AdmissionTestSuite) TestQuotaHeadersOnAllowedRequest() {
	test, require := test.New(s.T())
	config, redisCli := s.commonDependencies(test)

	target := httpt.NewMock(test)
	target.POST("/api/endpoint", func(ctx context.Context, httpReq *http.Request, req request) response {
		return response{Id: req.Id} //nolint:gosimple
	})
	srv := s.newGate(test, config, redisCli, target.BaseURL())

	// POST /api/* is a high priority route, 30 requests per minute for anonymous callers
	resp := s.send(require, http.MethodPost, srv.URL+"/api/endpoint", nil)
	require.EqualValues(http.StatusOK, resp.StatusCode)
	require.EqualValues("30", resp.Header.Get("X-RateLimit-Limit"))
	require.EqualValues("29", resp.Header.Get("X-RateLimit-Remaining"))
	reset, err := strconv.Atoi(resp.Header.Get("X-RateLimit-Reset"))
	require.NoError(err)
	require.Greater(reset, 0)
	require.Empty(resp.Header.Get("Retry-After"))
}

func (s *AdmissionTestSuite) TestAnonymousBurstOnCriticalRoute() {
	test, require := test.New(s.T())
	config, redisCli := s.commonDependencies(test)

	target := httpt.NewMock(test)
	target.POST("/accounts/login", func(ctx context.Context, httpReq *http.Request, req request) response {
		return response{Id: req.Id} //nolint:gosimple
	})
	srv := s.newGate(test, config, redisCli, target.BaseURL())

	for i := 0; i < 5; i++ {
		resp := s.send(require, http.MethodPost, srv.URL+"/accounts/login", nil)
		require.EqualValues(http.StatusOK, resp.StatusCode)
		require.EqualValues("5", resp.Header.Get("X-RateLimit-Limit"))
		require.EqualValues(strconv.Itoa(4-i), resp.Header.Get("X-RateLimit-Remaining"))
	}

	resp := s.send(require, http.MethodPost, srv.URL+"/accounts/login", map[string]string{
		"Accept": "application/json",
	})
	require.EqualValues(http.StatusTooManyRequests, resp.StatusCode)
	require.EqualValues("0", resp.Header.Get("X-RateLimit-Remaining"))
	retryAfter, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	require.NoError(err)
	require.GreaterOrEqual(retryAfter, 1)
	require.LessOrEqual(retryAfter, 60)

	body, err := io.ReadAll(resp.Body)
	require.NoError(err)
	deny := denyResponse{}
	err = json.Unmarshal(body, &deny)
	require.NoError(err)
	require.EqualValues("rate_limit_exceeded", deny.Error)
	require.NotEmpty(deny.Message)
	require.GreaterOrEqual(deny.RetryAfter, 1)
	require.LessOrEqual(deny.RetryAfter, 60)
}

func (s *AdmissionTestSuite) TestAuthenticatedUserGetsOwnCounter() {
	test, require := test.New(s.T())
	config, redisCli := s.commonDependencies(test)

	target := httpt.NewMock(test)
	target.POST("/accounts/login", func(ctx context.Context, httpReq *http.Request, req request) response {
		return response{Id: req.Id} //nolint:gosimple
	})
	srv := s.newGate(test, config, redisCli, target.BaseURL())

	for i := 0; i < 5; i++ {
		resp := s.send(require, http.MethodPost, srv.URL+"/accounts/login", nil)
		require.EqualValues(http.StatusOK, resp.StatusCode)
	}
	resp := s.send(require, http.MethodPost, srv.URL+"/accounts/login", nil)
	require.EqualValues(http.StatusTooManyRequests, resp.StatusCode)

	// the ip counter is exhausted, the user counter is not
	resp = s.send(require, http.MethodPost, srv.URL+"/accounts/login", map[string]string{
		"x-auth-user-id": "77",
	})
	require.EqualValues(http.StatusOK, resp.StatusCode)
	require.EqualValues("20", resp.Header.Get("X-RateLimit-Limit"))
	require.EqualValues("19", resp.Header.Get("X-RateLimit-Remaining"))
}

func (s *AdmissionTestSuite) TestStaffMultiplier() {
	test, require := test.New(s.T())
	config, redisCli := s.commonDependencies(test)
	config.Ratelimit.Overrides = []conf.TierLimit{{
		Tier:          "CRITICAL",
		Authenticated: true,
		Requests:      2,
		WindowInSec:   60,
	}}

	target := httpt.NewMock(test)
	target.POST("/accounts/login", func(ctx context.Context, httpReq *http.Request, req request) response {
		return response{Id: req.Id} //nolint:gosimple
	})
	srv := s.newGate(test, config, redisCli, target.BaseURL())

	regular := map[string]string{"x-auth-user-id": "10"}
	for i := 0; i < 2; i++ {
		resp := s.send(require, http.MethodPost, srv.URL+"/accounts/login", regular)
		require.EqualValues(http.StatusOK, resp.StatusCode)
	}
	resp := s.send(require, http.MethodPost, srv.URL+"/accounts/login", regular)
	require.EqualValues(http.StatusTooManyRequests, resp.StatusCode)

	// production preset multiplies staff limits by 5
	staff := map[string]string{"x-auth-user-id": "9", "x-auth-user-staff": "true"}
	for i := 0; i < 3; i++ {
		resp := s.send(require, http.MethodPost, srv.URL+"/accounts/login", staff)
		require.EqualValues(http.StatusOK, resp.StatusCode)
	}
	resp = s.send(require, http.MethodPost, srv.URL+"/accounts/login", staff)
	require.EqualValues("10", resp.Header.Get("X-RateLimit-Limit"))
}

func (s *AdmissionTestSuite) TestBypassTokenSkipsCounting() {
	test, require := test.New(s.T())
	config, redisCli := s.commonDependencies(test)
	config.Ratelimit.BypassToken = "load-test-secret"

	target := httpt.NewMock(test)
	target.POST("/accounts/login", func(ctx context.Context, httpReq *http.Request, req request) response {
		return response{Id: req.Id} //nolint:gosimple
	})
	srv := s.newGate(test, config, redisCli, target.BaseURL())

	bypass := map[string]string{"x-ratelimit-bypass": "load-test-secret"}
	for i := 0; i < 7; i++ {
		resp := s.send(require, http.MethodPost, srv.URL+"/accounts/login", bypass)
		require.EqualValues(http.StatusOK, resp.StatusCode)
		require.Empty(resp.Header.Get("X-RateLimit-Limit"))
	}

	// nothing was counted while the token was used
	resp := s.send(require, http.MethodPost, srv.URL+"/accounts/login", nil)
	require.EqualValues(http.StatusOK, resp.StatusCode)
	require.EqualValues("4", resp.Header.Get("X-RateLimit-Remaining"))

	resp = s.send(require, http.MethodPost, srv.URL+"/accounts/login", map[string]string{
		"x-ratelimit-bypass": "wrong-secret",
	})
	require.EqualValues(http.StatusOK, resp.StatusCode)
	require.EqualValues("3", resp.Header.Get("X-RateLimit-Remaining"))
}

func (s *AdmissionTestSuite) TestUnlimitedRouteIsNeverCounted() {
	test, require := test.New(s.T())
	config, redisCli := s.commonDependencies(test)

	target := httpt.NewMock(test)
	target.POST("/internal/health", func(ctx context.Context, httpReq *http.Request, req request) response {
		return response{Id: req.Id} //nolint:gosimple
	})
	srv := s.newGate(test, config, redisCli, target.BaseURL())

	for i := 0; i < 10; i++ {
		resp := s.send(require, http.MethodPost, srv.URL+"/internal/health", nil)
		require.EqualValues(http.StatusOK, resp.StatusCode)
		require.Empty(resp.Header.Get("X-RateLimit-Limit"))
	}
}

func (s *AdmissionTestSuite) TestHtmxDenialRendersToastEvent() {
	test, require := test.New(s.T())
	config, redisCli := s.commonDependencies(test)

	target := httpt.NewMock(test)
	target.POST("/accounts/login", func(ctx context.Context, httpReq *http.Request, req request) response {
		return response{Id: req.Id} //nolint:gosimple
	})
	srv := s.newGate(test, config, redisCli, target.BaseURL())

	for i := 0; i < 5; i++ {
		resp := s.send(require, http.MethodPost, srv.URL+"/accounts/login", nil)
		require.EqualValues(http.StatusOK, resp.StatusCode)
	}

	resp := s.send(require, http.MethodPost, srv.URL+"/accounts/login", map[string]string{
		"Hx-Request": "true",
	})
	require.EqualValues(http.StatusTooManyRequests, resp.StatusCode)
	require.EqualValues("none", resp.Header.Get("HX-Reswap"))
	require.Contains(resp.Header.Get("HX-Trigger"), "ratelimit:toast")
	body, err := io.ReadAll(resp.Body)
	require.NoError(err)
	require.Empty(body)
}

func (s *AdmissionTestSuite) TestFailOpenOnStoreOutage() {
	test, require := test.New(s.T())
	config, _ := s.commonDependencies(test)
	brokenRedis := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})

	target := httpt.NewMock(test)
	target.POST("/accounts/login", func(ctx context.Context, httpReq *http.Request, req request) response {
		return response{Id: req.Id} //nolint:gosimple
	})
	srv := s.newGate(test, config, brokenRedis, target.BaseURL())

	for i := 0; i < 7; i++ {
		resp := s.send(require, http.MethodPost, srv.URL+"/accounts/login", nil)
		require.EqualValues(http.StatusOK, resp.StatusCode)
		require.Empty(resp.Header.Get("X-RateLimit-Limit"))
	}
}

func (s *AdmissionTestSuite) TestFailClosedOnStoreOutage() {
	test, require := test.New(s.T())
	config, _ := s.commonDependencies(test)
	config.Ratelimit.FailClosed = true
	brokenRedis := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})

	target := httpt.NewMock(test)
	srv := s.newGate(test, config, brokenRedis, target.BaseURL())

	resp := s.send(require, http.MethodPost, srv.URL+"/accounts/login", nil)
	require.EqualValues(http.StatusTooManyRequests, resp.StatusCode)
	require.EqualValues("60", resp.Header.Get("Retry-After"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(err)
	require.Contains(string(body), "429 Too Many Requests")
}

func (s *AdmissionTestSuite) TestDisabledRatelimitPassesEverything() {
	test, require := test.New(s.T())
	config, redisCli := s.commonDependencies(test)
	config.Ratelimit.Enabled = false

	target := httpt.NewMock(test)
	target.POST("/accounts/login", func(ctx context.Context, httpReq *http.Request, req request) response {
		return response{Id: req.Id} //nolint:gosimple
	})
	srv := s.newGate(test, config, redisCli, target.BaseURL())

	for i := 0; i < 7; i++ {
		resp := s.send(require, http.MethodPost, srv.URL+"/accounts/login", nil)
		require.EqualValues(http.StatusOK, resp.StatusCode)
		require.Empty(resp.Header.Get("X-RateLimit-Limit"))
	}
}

func (s *AdmissionTestSuite) newGate(
	test *test.Test,
	config conf.Remote,
	redisCli redis.UniversalClient,
	targetBaseUrl string,
) *httptest.Server {
	require := test.Assert()
	targetUrl, err := url.Parse(targetBaseUrl)
	require.NoError(err)
	upstream := lb.NewRoundRobin([]string{targetUrl.Host})
	metrics := service.NewMetrics(prometheus.NewRegistry())
	locator := assembly.NewLocator(test.Logger(), upstream, metrics)
	handler, err := locator.Handler(config, redisCli)
	require.NoError(err)
	return httptest.NewServer(handler)
}

func (s *AdmissionTestSuite) send(
	require *require.Assertions,
	method string,
	url string,
	headers map[string]string,
) *http.Response {
	req, err := http.NewRequest(method, url, strings.NewReader(`{"id":"1"}`))
	require.NoError(err)
	req.Header.Set("Content-Type", "application/json")
	for name, value := range headers {
		req.Header.Set(name, value)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(err)
	s.T().Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func (s *AdmissionTestSuite) commonDependencies(test *test.Test) (conf.Remote, Redis) {
	require := test.Assert()
	redisCli := NewRedis(test)
	ctx := context.Background()

	s.T().Cleanup(func() {
		err := redisCli.FlushDB(ctx).Err()
		require.NoError(err)
	})

	config := conf.Remote{
		Ratelimit: conf.Ratelimit{
			Enabled:               true,
			Environment:           "production",
			TrustPrincipalHeaders: true,
		},
		Redis:                           &conf.Redis{Address: redisCli.address},
		Http:                            conf.Http{MaxRequestBodySizeInMb: 1, ProxyTimeoutInSec: 15},
		Logging:                         conf.Logging{LogLevel: log.DebugLevel, RequestLogEnable: true},
		EnableClientRequestIdForwarding: true,
	}

	return config, redisCli
}

func TestAdmissionTestSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(AdmissionTestSuite))
}
