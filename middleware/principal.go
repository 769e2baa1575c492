package middleware

import (
	"context"
	"net/http"

	"admission-gate-service/domain"
	"admission-gate-service/request"

	"github.com/pkg/errors"
)

type PrincipalSource interface {
	Resolve(ctx context.Context, request *http.Request) (*domain.Principal, error)
}

// Principal attaches the caller's identity to the request context.
// A nil principal from the source means an anonymous caller, not an error.
func Principal(source PrincipalSource) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx *request.Context) error {
			principal, err := source.Resolve(ctx.Context(), ctx.Request())
			if err != nil {
				return errors.WithMessage(err, "resolve principal")
			}
			if principal != nil {
				ctx.SetPrincipal(*principal)
			}
			return next.Handle(ctx)
		})
	}
}
