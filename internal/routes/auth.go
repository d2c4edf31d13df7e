package routes

import (
	"fmt"
	"net/url"

	"github.com/krumpled/krumd/internal/core/data"
	"github.com/krumpled/krumd/internal/httpd"
)

// AuthRedirect initiates a login by sending the browser to the identity
// provider's consent page.
func (rt *Routes) AuthRedirect(ctx *httpd.Context, _ *httpd.Head) (*httpd.Response, error) {
	ctx.Logger().Debugf("initiating auth flow")
	return httpd.Redirect(rt.Authorizer.RedirectURL()), nil
}

// AuthCallback completes a login: the provider's code is exchanged for an
// identity, the user record is upserted, and the browser is bounced back to
// the client with a fresh session token.
func (rt *Routes) AuthCallback(ctx *httpd.Context, head *httpd.Head) (*httpd.Response, error) {
	code := head.Query().Get("code")
	if code == "" {
		return httpd.NotFound(), nil
	}

	identity, err := rt.Authorizer.Exchange(code)
	if err != nil {
		return nil, fmt.Errorf("auth exchange: %w", err)
	}

	user, err := data.UpsertUser(ctx.Records(), identity.Email, identity.Name)
	if err != nil {
		return nil, fmt.Errorf("upserting user: %w", err)
	}

	token := ctx.Sessions().Create(user.ID)
	ctx.Logger().Infof("session created for user '%s'", user.ID)

	destination := fmt.Sprintf("%s?token=%s", rt.ClientAuthRedirect, url.QueryEscape(token))
	return httpd.Redirect(destination), nil
}

type identifyData struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// AuthIdentify returns the caller's profile, or not-found for anonymous
// callers.
func (rt *Routes) AuthIdentify(ctx *httpd.Context, _ *httpd.Head) (*httpd.Response, error) {
	authority := ctx.Authority()
	if authority == nil {
		return httpd.NotFound(), nil
	}

	return httpd.JSON(identifyData{
		ID:    authority.UserID,
		Email: authority.Email,
		Name:  authority.Name,
	})
}

// AuthDestroy drops the session named by the token query parameter and sends
// the browser back to the client origin.
func (rt *Routes) AuthDestroy(ctx *httpd.Context, head *httpd.Head) (*httpd.Response, error) {
	token := head.Query().Get("token")
	if token == "" {
		return httpd.NotFound(), nil
	}

	ctx.Sessions().Destroy(token)
	return httpd.Redirect(rt.ClientOrigin), nil
}
