package middleware

import (
	"bufio"
	"net"
	"net/http"

	"admission-gate-service/request"

	"github.com/pkg/errors"
	"github.com/txix-open/isp-kit/log"
)

type writerWrapper struct {
	http.ResponseWriter

	statusCode int
}

func (w *writerWrapper) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	upstream, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("writerWrapper: upstream writer doesn't implement Hijack")
	}
	return upstream.Hijack()
}

func (w *writerWrapper) StatusCode() int {
	if w.statusCode == 0 {
		return http.StatusOK
	}
	return w.statusCode
}

func (w *writerWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func Logger(logger log.Logger, enableRequestLogging bool) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx *request.Context) error {
			if !enableRequestLogging {
				return next.Handle(ctx)
			}

			r := ctx.Request()
			writer := &writerWrapper{ResponseWriter: ctx.ResponseWriter()}
			ctx.SetResponseWriter(writer)

			err := next.Handle(ctx)

			fields := []log.Field{
				log.String("httpMethod", r.Method),
				log.String("path", r.URL.Path),
				log.String("remoteAddr", r.RemoteAddr),
				log.String("xForwardedFor", r.Header.Get("X-Forwarded-For")),
				log.Int("statusCode", writer.StatusCode()),
			}
			if principal := ctx.Principal(); principal != nil {
				fields = append(fields, log.String("userId", principal.Id))
			}
			logger.Debug(ctx.Context(), "log request", fields...)

			return err
		})
	}
}
