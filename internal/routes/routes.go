// Package routes contains the handlers behind the server's route table, one
// file per resource.
package routes

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/pquerna/ffjson/ffjson"

	"github.com/krumpled/krumd/internal/auth"
	"github.com/krumpled/krumd/internal/httpd"
	"github.com/krumpled/krumd/internal/jobs"
)

var validate = validator.New()

// Routes carries the handler dependencies that are not part of the
// per-request Context: the identity provider and the client-side URLs the
// auth flow redirects through.
type Routes struct {
	Authorizer auth.Authorizer
	// ClientAuthRedirect is the client page that receives the session token.
	ClientAuthRedirect string
	// ClientOrigin is where a destroyed session lands.
	ClientOrigin string
}

// Register binds every handler into the route table.
func (rt *Routes) Register(router *httpd.Router) {
	router.Register(http.MethodGet, "/health-check", HealthCheck)

	router.Register(http.MethodGet, "/auth/redirect", rt.AuthRedirect)
	router.Register(http.MethodGet, "/auth/callback", rt.AuthCallback)
	router.Register(http.MethodGet, "/auth/identify", rt.AuthIdentify)
	router.Register(http.MethodGet, "/auth/destroy", rt.AuthDestroy)

	router.Register(http.MethodGet, "/jobs", FindJobs)

	router.Register(http.MethodGet, "/lobbies", FindLobbies)
	router.Register(http.MethodPost, "/lobbies", CreateLobby)

	router.Register(http.MethodPost, "/lobby-memberships", CreateLobbyMembership)
	router.Register(http.MethodDelete, "/lobby-memberships", DestroyLobbyMembership)

	router.Register(http.MethodPost, "/games", CreateGame)
	router.Register(http.MethodGet, "/games", FindGames)

	router.Register(http.MethodGet, "/rounds", FindRounds)

	router.Register(http.MethodPost, "/round-entries", CreateRoundEntry)
	router.Register(http.MethodPost, "/round-entry-votes", CreateRoundEntryVote)
}

// readPayload drains the request body within the Context's limit, decodes it,
// and validates the result. Any failure here is a handler-level error with no
// side effects applied yet.
func readPayload(ctx *httpd.Context, head *httpd.Head, out interface{}) error {
	contents, err := httpd.ReadBody(ctx, head)
	if err != nil {
		return err
	}
	if err := ffjson.Unmarshal(contents, out); err != nil {
		return fmt.Errorf("malformed payload: %w", err)
	}
	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}

// enqueue submits a job best-effort: a failure to durably write the record is
// logged and swallowed so the user-visible action still succeeds, leaving the
// deferred step to out-of-band retries. The returned handle carries an empty
// identifier when the enqueue was lost.
func enqueue(ctx *httpd.Context, job jobs.Job) jobs.Handle {
	id, err := ctx.Jobs().Enqueue(job)
	if err != nil {
		ctx.Logger().Errorf("unable to enqueue %s job: %s", job.Kind(), err)
		return jobs.Handle{}
	}
	return jobs.Handle{ID: id}
}
