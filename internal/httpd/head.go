// Package httpd contains the per-connection request pipeline: protocol
// recognition, per-request context assembly, route-table dispatch, and
// response serialization.
package httpd

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Head is the recognized portion of a request: method, path, and headers.
// Recognition does not consume the body; the remainder of the stream stays
// behind Body for handlers that want it.
type Head struct {
	Method        string
	Path          string
	URL           *url.URL
	Header        http.Header
	ContentLength int64

	body io.Reader
}

// Recognize reads a request head off the connection. An error here means the
// stream never contained a well-formed request and the whole connection
// fails; there is no path or method to answer through.
func Recognize(conn io.Reader) (*Head, error) {
	request, err := http.ReadRequest(bufio.NewReader(conn))
	if err != nil {
		return nil, fmt.Errorf("malformed request head: %w", err)
	}

	return &Head{
		Method:        request.Method,
		Path:          request.URL.Path,
		URL:           request.URL,
		Header:        request.Header,
		ContentLength: request.ContentLength,
		body:          request.Body,
	}, nil
}

// Body exposes the unread remainder of the request stream.
func (h *Head) Body() io.Reader { return h.body }

// Query returns the parsed query parameters from the request target.
func (h *Head) Query() url.Values { return h.URL.Query() }
