package routes

import (
	"github.com/krumpled/krumd/internal/core/data"
	"github.com/krumpled/krumd/internal/httpd"
	"github.com/krumpled/krumd/internal/jobs"
)

type joinLobbyPayload struct {
	LobbyID string `json:"lobby_id" validate:"required"`
}

type membershipData struct {
	MembershipID string `json:"membership_id"`
	LobbyID      string `json:"lobby_id"`
}

// CreateLobbyMembership joins the caller to a lobby. Joining a lobby the
// caller is already in returns the existing membership unchanged.
func CreateLobbyMembership(ctx *httpd.Context, head *httpd.Head) (*httpd.Response, error) {
	authority := ctx.Authority()
	if authority == nil {
		return httpd.NotFound(), nil
	}

	var payload joinLobbyPayload
	if err := readPayload(ctx, head, &payload); err != nil {
		return nil, err
	}

	lobby, err := data.FindLobbyByID(ctx.Records(), payload.LobbyID)
	if err != nil {
		return nil, err
	}
	if lobby == nil || lobby.ClosedAt != nil {
		return httpd.NotFound(), nil
	}

	membership, err := data.JoinLobby(ctx.Records(), lobby.ID, authority.UserID)
	if err != nil {
		return nil, err
	}

	return httpd.JSON(membershipData{MembershipID: membership.ID, LobbyID: lobby.ID})
}

type leaveLobbyPayload struct {
	MembershipID string `json:"membership_id" validate:"required"`
}

// DestroyLobbyMembership soft-leaves the lobby and defers the cleanup of any
// dependent game state to the job queue.
func DestroyLobbyMembership(ctx *httpd.Context, head *httpd.Head) (*httpd.Response, error) {
	authority := ctx.Authority()
	if authority == nil {
		return httpd.NotFound(), nil
	}

	var payload leaveLobbyPayload
	if err := readPayload(ctx, head, &payload); err != nil {
		return nil, err
	}

	membership, err := data.FindLobbyMembershipByID(ctx.Records(), payload.MembershipID)
	if err != nil {
		return nil, err
	}
	// Only the member themselves may sever the membership; anyone else sees
	// the same not-found a missing record would produce.
	if membership == nil || membership.UserID != authority.UserID {
		return httpd.NotFound(), nil
	}

	if err := data.LeaveLobby(ctx.Records(), membership); err != nil {
		return nil, err
	}

	handle := enqueue(ctx, jobs.CleanupLobbyMembership{
		MembershipID: membership.ID,
		LobbyID:      membership.LobbyID,
	})
	return httpd.JSON(handle)
}
