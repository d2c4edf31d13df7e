package httpd

import (
	"errors"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
)

// Handler consumes a request Context and the recognized head, producing a
// Response or an error. Errors never escape the dispatch boundary; they are
// logged and mapped to a generic failure Response.
type Handler func(*Context, *Head) (*Response, error)

type routeKey struct {
	method string
	path   string
}

// Router is the total mapping from (method, path) to a handler. Anything it
// does not know about resolves to a not-found Response rather than an error.
type Router struct {
	handlers map[routeKey]Handler
	logger   *logrus.Logger
}

// NewRouter returns an empty route table.
func NewRouter(logger *logrus.Logger) *Router {
	return &Router{handlers: make(map[routeKey]Handler), logger: logger}
}

// Register binds a handler to a (method, path) pair, replacing any previous
// binding.
func (r *Router) Register(method, path string, handler Handler) {
	r.handlers[routeKey{method: method, path: path}] = handler
}

// Dispatch resolves the head against the route table and always returns a
// well-formed Response carrying the Context's CORS policy:
//
//   - OPTIONS on any path short-circuits to a CORS preflight; no handler runs
//     and no authority is checked.
//   - An unregistered pair yields not-found. This is normal traffic, not an
//     error, and is not logged as one.
//   - A handler error is logged here and converted to the generic failure
//     response; the cause never reaches the caller.
func (r *Router) Dispatch(ctx *Context, head *Head) *Response {
	if head.Method == http.MethodOptions {
		r.logger.Debugf("cors preflight request for '%s'", head.Path)
		return Ok().WithCORS(ctx.CORS())
	}

	handler, registered := r.handlers[routeKey{method: head.Method, path: head.Path}]
	if !registered {
		r.logger.Debugf("not-found - '%s %s'", head.Method, head.Path)
		return NotFound().WithCORS(ctx.CORS())
	}

	response, err := handler(ctx, head)
	if err != nil {
		r.logger.Errorf("request handler failed - %s %s: %s", head.Method, head.Path, err)
		return Failed().WithCORS(ctx.CORS())
	}

	return response.WithCORS(ctx.CORS())
}

// ErrBodyTooLarge indicates the request body exceeded the Context's limit.
var ErrBodyTooLarge = errors.New("request body exceeds the permitted size")

// ReadBody drains at most the Context's configured maximum number of bytes
// from the request body. Exceeding the limit is a handler-level failure; the
// handler must not have applied any state by then.
func ReadBody(ctx *Context, head *Head) ([]byte, error) {
	limit := ctx.MaxBodyBytes()

	contents, err := io.ReadAll(io.LimitReader(head.Body(), limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(contents)) > limit {
		return nil, ErrBodyTooLarge
	}
	return contents, nil
}
