package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"runtime/debug"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
)

var (
	acceptedConnections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "krumd_accepted_connections_total",
		Help: "The total number of connections accepted by the frontend",
	})
	failedConnections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "krumd_failed_connections_total",
		Help: "The total number of connections that ended in a pipeline error",
	})
)

// frontend implements the concurrent connection handling logic.
//
// Each accepted connection is handed to the Backend on its own goroutine,
// abstracting the lower level connection details away from the request
// pipeline. One stalled or panicking connection never affects another.
type frontend struct {
	Address string
	Backend Backend
	Logger  *logrus.Logger

	socket *net.TCPListener
}

// Start initializes the backend and opens a TCP socket on the frontend's
// address. A blocking loop for accepting connections is spun off in its own
// goroutine and added to the WaitGroup. Context cancellation stops the server.
// A bind failure is returned to the caller and is fatal to startup.
func (f *frontend) Start(ctx context.Context, wg *sync.WaitGroup) error {
	if err := f.Backend.Init(ctx); err != nil {
		return fmt.Errorf("error initializing %s server: %v", f.Backend.Identifier(), err)
	}

	socket, err := f.createSocket()
	if err != nil {
		return fmt.Errorf("error creating socket on %s: %v", f.Address, err)
	}
	f.socket = socket

	wg.Add(1)
	go f.startBlockingLoop(ctx, socket, wg)

	return nil
}

// createSocket opens a TCP socket to listen for connections on the Address
// provided to the frontend.
func (f *frontend) createSocket() (*net.TCPListener, error) {
	hostAddr, err := net.ResolveTCPAddr("tcp", f.Address)
	if err != nil {
		return nil, fmt.Errorf("error resolving address %s", err.Error())
	}

	socket, err := net.ListenTCP("tcp", hostAddr)
	if err != nil {
		return nil, fmt.Errorf("error listening on socket: %s", err.Error())
	}

	return socket, nil
}

// startBlockingLoop implements a connection handling loop that's purely
// responsible for accepting new connections and spinning off goroutines for
// the Backend to handle them.
func (f *frontend) startBlockingLoop(ctx context.Context, socket *net.TCPListener, wg *sync.WaitGroup) {
	defer wg.Done()

	f.Logger.Printf("[%s] waiting for connections on %v", f.Backend.Identifier(), socket.Addr())

	connections := make(chan *net.TCPConn)
	go func() {
		for {
			connection, err := socket.AcceptTCP()
			if err != nil {
				// The handle loop closes the socket on shutdown; that is this
				// goroutine's signal to stop.
				if errors.Is(err, net.ErrClosed) {
					return
				}
				// A transient accept failure only costs us that connection.
				f.Logger.Warnf("failed to accept connection: %s", err.Error())
				continue
			}

			connections <- connection
		}
	}()

	connectionWg := &sync.WaitGroup{}
handleLoop:
	for {
		select {
		case <-ctx.Done():
			break handleLoop
		case connection := <-connections:
			acceptedConnections.Inc()
			connectionWg.Add(1)
			// Note: If there is eventually a need to implement worker pooling rather than spawning
			// new goroutines for each connection, this is where it should be implemented.
			go f.handleConnection(ctx, connection, connectionWg)
		}
	}

	f.Logger.Infof("[%v] shutting down (waiting for connections to close)", f.Backend.Identifier())
	_ = socket.Close()
	connectionWg.Wait()
	f.Logger.Infof("[%v] exited", f.Backend.Identifier())
}

// handleConnection runs the Backend's pipeline for one connection and
// unconditionally closes the connection once the pipeline finishes.
func (f *frontend) handleConnection(ctx context.Context, connection *net.TCPConn, wg *sync.WaitGroup) {
	defer wg.Done()
	defer f.closeConnectionAndRecover(connection)

	if err := f.Backend.Handle(ctx, connection); err != nil {
		failedConnections.Inc()
		f.Logger.Warnf("unable to handle connection from %s: %s", connection.RemoteAddr(), err)
	}
}

// Catch any panics and close the connection regardless of the state of the
// pipeline so that one bad request can't take down its neighbors.
func (f *frontend) closeConnectionAndRecover(connection *net.TCPConn) {
	if err := recover(); err != nil {
		failedConnections.Inc()
		f.Logger.Errorf("recovered from panic handling %s: %s\n%s\n",
			connection.RemoteAddr(), err, debug.Stack())
	}

	if err := connection.Close(); err != nil {
		f.Logger.Warnf("failed to close connection: %s", err)
	}
}
