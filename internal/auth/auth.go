// Package auth resolves who is on the other end of a request and brokers the
// external identity provider used to establish that in the first place.
package auth

// Authority is the resolved identity of the caller for a single request. A nil
// *Authority means the caller is anonymous.
type Authority struct {
	UserID string
	Email  string
	Name   string
}

// Identity is the profile an Authorizer yields after a successful exchange.
type Identity struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Authorizer is the identity-provider collaborator used by the auth routes.
// The token exchange mechanics live entirely behind this interface.
type Authorizer interface {
	// RedirectURL returns the provider consent page a new login is sent to.
	RedirectURL() string

	// Exchange trades the provider's callback code for the caller's identity.
	Exchange(code string) (*Identity, error)
}
