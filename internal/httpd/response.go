package httpd

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pquerna/ffjson/ffjson"
)

// Response is the outcome of a request: a status, headers, and an optional
// JSON body. Every recognized request produces exactly one Response and that
// Response is written to the connection exactly once.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

func newResponse(status int) *Response {
	return &Response{Status: status, Header: make(http.Header)}
}

// Ok is an empty success response.
func Ok() *Response { return newResponse(http.StatusOK) }

// NotFound covers missing resources, unregistered routes, and unauthenticated
// access to protected routes; the three are deliberately indistinguishable.
func NotFound() *Response { return newResponse(http.StatusNotFound) }

// Failed is the generic server-error response. It carries no diagnostic
// detail; the underlying error is only ever logged.
func Failed() *Response { return newResponse(http.StatusInternalServerError) }

// Redirect sends the caller to location.
func Redirect(location string) *Response {
	response := newResponse(http.StatusFound)
	response.Header.Set("Location", location)
	return response
}

// JSON is a success response carrying the encoded value.
func JSON(value interface{}) (*Response, error) {
	body, err := ffjson.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encoding response body: %w", err)
	}
	response := newResponse(http.StatusOK)
	response.Header.Set("Content-Type", "application/json")
	response.Body = body
	return response, nil
}

// WithCORS stamps the configured origin policy onto the response. Handlers
// apply this on every exit path so cross-origin clients can read even
// failures.
func (r *Response) WithCORS(origin string) *Response {
	r.Header.Set("Access-Control-Allow-Origin", origin)
	r.Header.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
	r.Header.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	return r
}

// Write serializes the response onto the connection using HTTP/1.1 framing.
// There is no retry; a write failure surfaces to the caller, which is tearing
// the connection down regardless.
func Write(w io.Writer, r *Response) error {
	statusText := http.StatusText(r.Status)
	if statusText == "" {
		statusText = "Status"
	}

	r.Header.Set("Content-Length", fmt.Sprintf("%d", len(r.Body)))
	r.Header.Set("Date", time.Now().UTC().Format(http.TimeFormat))
	r.Header.Set("Connection", "close")

	if _, err := fmt.Fprintf(w, "HTTP/1.1 %d %s\r\n", r.Status, statusText); err != nil {
		return err
	}
	if err := r.Header.Write(w); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "\r\n"); err != nil {
		return err
	}
	if len(r.Body) == 0 {
		return nil
	}
	_, err := w.Write(r.Body)
	return err
}
