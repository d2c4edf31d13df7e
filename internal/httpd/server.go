package httpd

import (
	"context"
	"net"

	"github.com/sirupsen/logrus"
)

// Server runs the request pipeline for a single recognized connection:
// recognize the head, build the per-request context, dispatch through the
// route table, and write exactly one response back. It is the HTTP backend
// handed to the connection frontend.
type Server struct {
	Name    string
	Router  *Router
	Builder *ContextBuilder
	Logger  *logrus.Logger
}

// Identifier returns a uniquely identifying string for log lines.
func (s *Server) Identifier() string {
	return s.Name
}

// Init is a pre-listen hook; the HTTP backend has nothing to set up beyond
// what the controller already opened.
func (s *Server) Init(_ context.Context) error {
	return nil
}

// Handle processes one request on the connection. Errors returned here mean
// no well-formed response could be produced (malformed head, unreachable
// collaborator during context assembly) and the connection simply dies; every
// failure below the dispatch boundary is already mapped to a Response.
func (s *Server) Handle(_ context.Context, connection net.Conn) error {
	head, err := Recognize(connection)
	if err != nil {
		return err
	}
	s.Logger.Debugf("recognized request - '%s %s'", head.Method, head.Path)

	requestCtx, err := s.Builder.ForRequest(head)
	if err != nil {
		return err
	}

	response := s.Router.Dispatch(requestCtx, head)
	return Write(connection, response)
}
