package respond

import (
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"admission-gate-service/domain"

	"github.com/pkg/errors"
	"github.com/txix-open/isp-kit/json"
)

const (
	htmxRequestHeader = "Hx-Request"
	htmxReswapHeader  = "HX-Reswap"
	htmxTriggerHeader = "HX-Trigger"

	denyMessage = "Too many requests. Please slow down and try again shortly."
)

type channel int

const (
	channelPage channel = iota
	channelApi
	channelPartial
)

type apiError struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}

type toastEvent struct {
	Toast toastPayload `json:"ratelimit:toast"`
}

type toastPayload struct {
	Message    string `json:"message"`
	RetryAfter int    `json:"retryAfter"`
}

type pageData struct {
	Message    string
	RetryAfter int
}

// Responder renders a deny decision for the channel that asked:
// a JSON error for API clients, a toast trigger for partial page
// updates and a full error page for plain browser navigations.
type Responder struct {
	page *template.Template
}

func NewResponder() Responder {
	return Responder{
		page: template.Must(template.New("deny").Parse(denyPageHtml)),
	}
}

func (r Responder) Deny(w http.ResponseWriter, request *http.Request, decision domain.Decision) error {
	retryAfter := RetryAfterSeconds(decision)
	w.Header().Set(retryAfterHeader, strconv.Itoa(retryAfter))

	switch channelFor(request) {
	case channelPartial:
		return r.denyPartial(w, retryAfter)
	case channelApi:
		return r.denyApi(w, retryAfter)
	default:
		return r.denyPage(w, retryAfter)
	}
}

func (r Responder) denyApi(w http.ResponseWriter, retryAfter int) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	body := apiError{
		Error:      "rate_limit_exceeded",
		Message:    denyMessage,
		RetryAfter: retryAfter,
	}
	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		return errors.WithMessage(err, "encode deny body")
	}
	return nil
}

// denyPartial answers an HTMX request without a body. HX-Reswap "none"
// keeps the caller's current view in place, the trigger event carries
// the notification payload.
func (r Responder) denyPartial(w http.ResponseWriter, retryAfter int) error {
	trigger, err := json.Marshal(toastEvent{
		Toast: toastPayload{
			Message:    denyMessage,
			RetryAfter: retryAfter,
		},
	})
	if err != nil {
		return errors.WithMessage(err, "marshal trigger event")
	}
	w.Header().Set(htmxReswapHeader, "none")
	w.Header().Set(htmxTriggerHeader, string(trigger))
	w.WriteHeader(http.StatusTooManyRequests)
	return nil
}

func (r Responder) denyPage(w http.ResponseWriter, retryAfter int) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusTooManyRequests)
	err := r.page.Execute(w, pageData{
		Message:    denyMessage,
		RetryAfter: retryAfter,
	})
	if err != nil {
		return errors.WithMessage(err, "execute deny page")
	}
	return nil
}

func channelFor(request *http.Request) channel {
	if strings.EqualFold(request.Header.Get(htmxRequestHeader), "true") {
		return channelPartial
	}
	if strings.Contains(request.Header.Get("Accept"), "application/json") ||
		strings.HasPrefix(request.URL.Path, "/api/") {
		return channelApi
	}
	return channelPage
}

const denyPageHtml = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <title>Too Many Requests</title>
</head>
<body>
    <h1>429 Too Many Requests</h1>
    <p>{{.Message}}</p>
    <p>Try again in {{.RetryAfter}} seconds.</p>
</body>
</html>
`
