package request

import (
	"context"
	"net/http"
	"strings"

	"admission-gate-service/domain"
)

type Context struct {
	request        *http.Request
	responseWriter http.ResponseWriter
	principal      *domain.Principal
}

func NewContext(request *http.Request, response http.ResponseWriter) *Context {
	return &Context{
		request:        request,
		responseWriter: response,
	}
}

func (c *Context) Request() *http.Request {
	return c.request
}

func (c *Context) ResponseWriter() http.ResponseWriter {
	return c.responseWriter
}

func (c *Context) SetResponseWriter(writer http.ResponseWriter) {
	c.responseWriter = writer
}

func (c *Context) Context() context.Context {
	return c.request.Context()
}

func (c *Context) SetContext(ctx context.Context) {
	c.request = c.request.WithContext(ctx)
}

func (c *Context) Path() string {
	return c.request.URL.Path
}

func (c *Context) Method() string {
	return c.request.Method
}

func (c *Context) PeerAddress() string {
	return c.request.RemoteAddr
}

func (c *Context) Header(name string) string {
	return strings.TrimSpace(c.request.Header.Get(name))
}

func (c *Context) SetPrincipal(principal domain.Principal) {
	c.principal = &principal
}

// Principal is nil for anonymous callers.
func (c *Context) Principal() *domain.Principal {
	return c.principal
}
