package internal

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/krumpled/krumd/internal/auth"
	"github.com/krumpled/krumd/internal/core"
	"github.com/krumpled/krumd/internal/core/data"
	"github.com/krumpled/krumd/internal/core/debug"
	"github.com/krumpled/krumd/internal/httpd"
	"github.com/krumpled/krumd/internal/jobs"
	"github.com/krumpled/krumd/internal/routes"
	"github.com/krumpled/krumd/internal/session"
	"github.com/krumpled/krumd/internal/worker"
)

// Controller is the main entrypoint for krumd. It's responsible for
// initializing the shared resources (record store, session store, job store,
// logging), wiring the HTTP backend into the frontend, and launching
// everything alongside the background worker.
type Controller struct {
	Config *core.Config

	logger *logrus.Logger
	wg     sync.WaitGroup
}

// Start brings the whole server up and blocks until the context is cancelled
// and every component has wound down.
func (c *Controller) Start(ctx context.Context) error {
	var err error
	// Set up the logger, which will be used by every component.
	c.logger, err = core.NewLogger(c.Config)
	if err != nil {
		return err
	}

	debug.StartUtilities(c.logger, c.Config)

	c.logger.Infof("opening record store")
	records, err := data.Initialize(c.Config.DatabaseURL(), c.Config.Debugging.DatabaseLoggingEnabled)
	if err != nil {
		return err
	}
	defer func() {
		if err := data.Shutdown(records); err != nil {
			c.logger.Warnf("error closing record store: %s", err)
		}
	}()

	c.logger.Infof("opening job store")
	jobStore, err := jobs.NewStore(records, c.logger)
	if err != nil {
		return err
	}

	c.logger.Infof("opening session store")
	sessions := session.NewStore(time.Duration(c.Config.Session.TTLMinutes) * time.Minute)

	router := httpd.NewRouter(c.logger)
	handlers := &routes.Routes{
		Authorizer:         auth.NewGoogleAuthorizer(c.Config),
		ClientAuthRedirect: c.Config.Client.AuthRedirect,
		ClientOrigin:       c.Config.Client.CORSOrigin,
	}
	handlers.Register(router)

	server := &frontend{
		Address: c.Config.ListenAddress(),
		Backend: &httpd.Server{
			Name:    "HTTP",
			Router:  router,
			Builder: httpd.NewContextBuilder(c.Config, c.logger, records, jobStore, sessions),
			Logger:  c.logger,
		},
		Logger: c.logger,
	}

	// Failure to bind the listener is terminal.
	if err := server.Start(ctx, &c.wg); err != nil {
		return err
	}

	background := &worker.Server{
		Config:  c.Config,
		Logger:  c.logger,
		Store:   jobStore,
		Records: records,
	}
	background.Start(ctx, &c.wg)

	c.wg.Wait()
	return nil
}
