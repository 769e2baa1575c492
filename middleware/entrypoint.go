package middleware

import (
	"net/http"

	"admission-gate-service/request"

	"github.com/pkg/errors"
	"github.com/txix-open/isp-kit/log"
)

func Entrypoint(maxRequestBodySize int64, next Handler, logger log.Logger) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, req *http.Request) {
		req.Body = http.MaxBytesReader(writer, req.Body, maxRequestBodySize)
		ctx := request.NewContext(req, writer)
		err := next.Handle(ctx)
		if err != nil {
			logger.Error(req.Context(), errors.WithMessage(err, "uncaught error"))
		}
	})
}
