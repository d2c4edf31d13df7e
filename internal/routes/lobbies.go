package routes

import (
	"time"

	"github.com/krumpled/krumd/internal/core/data"
	"github.com/krumpled/krumd/internal/httpd"
	"github.com/krumpled/krumd/internal/jobs"
)

type lobbyMember struct {
	MembershipID string    `json:"membership_id"`
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Joined       time.Time `json:"joined"`
}

type lobbyDetails struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Created time.Time     `json:"created"`
	Members []lobbyMember `json:"members"`
}

type createLobbyPayload struct {
	Name string `json:"name" validate:"required,max=100"`
}

// CreateLobby defers lobby creation to the job queue and returns the handle
// the caller can poll for the new lobby's id.
func CreateLobby(ctx *httpd.Context, head *httpd.Head) (*httpd.Response, error) {
	authority := ctx.Authority()
	if authority == nil {
		return httpd.NotFound(), nil
	}

	var payload createLobbyPayload
	if err := readPayload(ctx, head, &payload); err != nil {
		return nil, err
	}

	handle := enqueue(ctx, jobs.CreateLobby{Creator: authority.UserID, Name: payload.Name})
	return httpd.JSON(handle)
}

// FindLobbies returns details for each requested lobby the caller is an
// active member of. Lobbies the caller can't see are simply omitted.
func FindLobbies(ctx *httpd.Context, head *httpd.Head) (*httpd.Response, error) {
	authority := ctx.Authority()
	if authority == nil {
		return httpd.NotFound(), nil
	}

	ids := head.Query()["ids[]"]
	if len(ids) == 0 {
		return httpd.NotFound(), nil
	}

	details := make([]lobbyDetails, 0, len(ids))
	for _, id := range ids {
		membership, err := data.FindActiveLobbyMembership(ctx.Records(), id, authority.UserID)
		if err != nil {
			return nil, err
		}
		if membership == nil {
			continue
		}

		lobby, err := data.FindLobbyByID(ctx.Records(), id)
		if err != nil {
			return nil, err
		}
		if lobby == nil {
			continue
		}

		members, err := lobbyMembers(ctx, lobby.ID)
		if err != nil {
			return nil, err
		}

		details = append(details, lobbyDetails{
			ID:      lobby.ID,
			Name:    lobby.Name,
			Created: lobby.CreatedAt,
			Members: members,
		})
	}

	if len(details) == 0 {
		return httpd.NotFound(), nil
	}
	return httpd.JSON(details)
}

func lobbyMembers(ctx *httpd.Context, lobbyID string) ([]lobbyMember, error) {
	memberships, err := data.ActiveLobbyMemberships(ctx.Records(), lobbyID)
	if err != nil {
		return nil, err
	}

	members := make([]lobbyMember, 0, len(memberships))
	for _, membership := range memberships {
		user, err := data.FindUserByID(ctx.Records(), membership.UserID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			continue
		}
		members = append(members, lobbyMember{
			MembershipID: membership.ID,
			UserID:       user.ID,
			Name:         user.Name,
			Email:        user.Email,
			Joined:       membership.CreatedAt,
		})
	}

	return members, nil
}
