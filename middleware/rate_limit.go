package middleware

import (
	"context"
	"net/http"

	"admission-gate-service/domain"
	"admission-gate-service/request"
	"admission-gate-service/respond"

	"github.com/pkg/errors"
)

const (
	bypassTokenHeader  = "x-ratelimit-bypass"
	forwardedForHeader = "x-forwarded-for"
	realIpHeader       = "x-real-ip"
)

type Enforcer interface {
	Allow(ctx context.Context, request domain.AdmissionRequest) domain.Decision
}

type DenyRenderer interface {
	Deny(w http.ResponseWriter, request *http.Request, decision domain.Decision) error
}

// RateLimit asks the enforcer before the request reaches the upstream.
// Quota headers are written for allowed and denied responses alike,
// a denied request never travels further down the chain.
func RateLimit(enforcer Enforcer, responder DenyRenderer) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx *request.Context) error {
			decision := enforcer.Allow(ctx.Context(), domain.AdmissionRequest{
				Path:         ctx.Path(),
				Method:       ctx.Method(),
				PeerAddress:  ctx.PeerAddress(),
				ForwardedFor: ctx.Header(forwardedForHeader),
				RealIp:       ctx.Header(realIpHeader),
				BypassToken:  ctx.Header(bypassTokenHeader),
				Principal:    ctx.Principal(),
			})

			respond.WriteQuotaHeaders(ctx.ResponseWriter().Header(), decision)
			if !decision.Allowed {
				err := responder.Deny(ctx.ResponseWriter(), ctx.Request(), decision)
				if err != nil {
					return errors.WithMessage(err, "render deny response")
				}
				return nil
			}
			return next.Handle(ctx)
		})
	}
}
