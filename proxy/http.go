package proxy

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"admission-gate-service/httperrors"
	"admission-gate-service/request"

	"github.com/pkg/errors"
	"github.com/txix-open/isp-kit/requestid"
)

const (
	requestIdHeader = "x-request-id"
)

type HostManager interface {
	Next() (string, error)
}

// Http forwards admitted requests to the protected application.
type Http struct {
	hostManager HostManager
	timeout     time.Duration
}

func NewHttp(hostManager HostManager, timeout time.Duration) Http {
	return Http{
		hostManager: hostManager,
		timeout:     timeout,
	}
}

func (p Http) Handle(ctx *request.Context) error {
	host, err := p.hostManager.Next()
	if err != nil {
		return errors.WithMessage(err, "http: next host")
	}

	rawUrl := fmt.Sprintf("http://%s", host) // secure HTTP links are reset connection
	target, err := url.Parse(rawUrl)
	if err != nil {
		return errors.WithMessage(err, "http: parse url")
	}

	req := ctx.Request()
	req.Header.Set(requestIdHeader, requestid.FromContext(ctx.Context()))

	reverseProxy := httputil.NewSingleHostReverseProxy(target)
	var resultError error
	reverseProxy.ErrorHandler = func(writer http.ResponseWriter, request *http.Request, err error) {
		resultError = httperrors.New(
			http.StatusServiceUnavailable,
			"upstream is not available",
			errors.WithMessagef(err, "http proxy to %s", host),
		)
	}

	proxyContext, cancel := context.WithTimeout(req.Context(), p.timeout)
	defer cancel()
	req = req.WithContext(proxyContext)
	reverseProxy.ServeHTTP(ctx.ResponseWriter(), req)

	return resultError
}
