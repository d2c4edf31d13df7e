package httpd

import (
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/krumpled/krumd/internal/auth"
	"github.com/krumpled/krumd/internal/core"
	"github.com/krumpled/krumd/internal/core/data"
	"github.com/krumpled/krumd/internal/jobs"
	"github.com/krumpled/krumd/internal/session"
)

// Context is the immutable per-request bundle handed to every handler: the
// caller's resolved authority, the CORS policy, the body size limit, and
// non-owning handles to the shared collaborators.
type Context struct {
	authority    *auth.Authority
	corsOrigin   string
	maxBodyBytes int64

	records  *gorm.DB
	jobs     *jobs.Store
	sessions *session.Store
	logger   *logrus.Logger
}

// Authority returns the caller's identity, nil for anonymous callers.
// It is resolved exactly once, before any handler runs.
func (c *Context) Authority() *auth.Authority { return c.authority }

// CORS returns the origin handlers stamp on every response.
func (c *Context) CORS() string { return c.corsOrigin }

// MaxBodyBytes returns the most a handler may read from a request body.
func (c *Context) MaxBodyBytes() int64 { return c.maxBodyBytes }

// Records returns the shared record store handle.
func (c *Context) Records() *gorm.DB { return c.records }

// Jobs returns the shared job queue handle.
func (c *Context) Jobs() *jobs.Store { return c.jobs }

// Sessions returns the shared session store handle.
func (c *Context) Sessions() *session.Store { return c.sessions }

// Logger returns the shared application logger.
func (c *Context) Logger() *logrus.Logger { return c.logger }

// ContextBuilder assembles a Context per request from the collaborators
// opened once at server startup.
type ContextBuilder struct {
	config   *core.Config
	records  *gorm.DB
	jobs     *jobs.Store
	sessions *session.Store
	logger   *logrus.Logger
}

// NewContextBuilder wires the shared collaborators into a builder.
func NewContextBuilder(
	config *core.Config,
	logger *logrus.Logger,
	records *gorm.DB,
	jobStore *jobs.Store,
	sessions *session.Store,
) *ContextBuilder {
	return &ContextBuilder{
		config:   config,
		records:  records,
		jobs:     jobStore,
		sessions: sessions,
		logger:   logger,
	}
}

// ForRequest resolves the caller's authority from the request head and
// assembles the Context. A missing or expired session resolves to an
// anonymous authority; only an unreachable collaborator is an error, which
// fails the connection.
func (b *ContextBuilder) ForRequest(head *Head) (*Context, error) {
	authority, err := b.resolveAuthority(head)
	if err != nil {
		return nil, err
	}

	return &Context{
		authority:    authority,
		corsOrigin:   b.config.Client.CORSOrigin,
		maxBodyBytes: b.config.MaxBodyBytes,
		records:      b.records,
		jobs:         b.jobs,
		sessions:     b.sessions,
		logger:       b.logger,
	}, nil
}

func (b *ContextBuilder) resolveAuthority(head *Head) (*auth.Authority, error) {
	token := bearerToken(head)
	if token == "" {
		return nil, nil
	}

	userID, found := b.sessions.Lookup(token)
	if !found {
		b.logger.Debugf("session miss for token, proceeding anonymously")
		return nil, nil
	}

	user, err := data.FindUserByID(b.records, userID)
	if err != nil {
		return nil, err
	}
	// A session for a user that no longer exists resolves to anonymous.
	if user == nil {
		return nil, nil
	}

	return &auth.Authority{UserID: user.ID, Email: user.Email, Name: user.Name}, nil
}

func bearerToken(head *Head) string {
	value := head.Header.Get("Authorization")
	if value == "" {
		return ""
	}
	parts := strings.SplitN(value, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
