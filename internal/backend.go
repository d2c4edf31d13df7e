package internal

import (
	"context"
	"net"
)

// Backend is implemented by anything the frontend can hand accepted
// connections to.
type Backend interface {
	// Identifier returns a uniquely identifying string.
	Identifier() string

	// Init is called before the frontend starts listening, as a hook for the
	// Backend to perform any necessary initialization.
	Init(ctx context.Context) error

	// Handle runs the full request pipeline for one accepted connection. The
	// frontend closes the connection once Handle returns, regardless of the
	// outcome.
	Handle(ctx context.Context, connection net.Conn) error
}
