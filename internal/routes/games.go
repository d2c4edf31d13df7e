package routes

import (
	"time"

	"github.com/krumpled/krumd/internal/core/data"
	"github.com/krumpled/krumd/internal/httpd"
	"github.com/krumpled/krumd/internal/jobs"
)

type createGamePayload struct {
	LobbyID string `json:"lobby_id" validate:"required"`
}

// CreateGame verifies the caller belongs to the lobby and defers the game
// creation to the job queue, returning the handle to poll. An unknown lobby
// and a lobby the caller never joined produce the same not-found; nothing is
// enqueued in either case.
func CreateGame(ctx *httpd.Context, head *httpd.Head) (*httpd.Response, error) {
	authority := ctx.Authority()
	if authority == nil {
		return httpd.NotFound(), nil
	}

	var payload createGamePayload
	if err := readPayload(ctx, head, &payload); err != nil {
		return nil, err
	}

	membership, err := data.FindActiveLobbyMembership(ctx.Records(), payload.LobbyID, authority.UserID)
	if err != nil {
		return nil, err
	}
	if membership == nil {
		ctx.Logger().Warnf("unable to find lobby '%s' for user '%s'", payload.LobbyID, authority.UserID)
		return httpd.NotFound(), nil
	}

	ctx.Logger().Debugf("lobby ready for new game, queueing job for lobby '%s'", payload.LobbyID)
	handle := enqueue(ctx, jobs.CreateGame{Creator: authority.UserID, LobbyID: payload.LobbyID})
	return httpd.JSON(handle)
}

type gameMember struct {
	MemberID string    `json:"member_id"`
	UserID   string    `json:"user_id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Joined   time.Time `json:"joined"`
}

type gameRound struct {
	ID        string     `json:"id"`
	Position  int        `json:"position"`
	Prompt    string     `json:"prompt"`
	Created   time.Time  `json:"created"`
	Started   *time.Time `json:"started"`
	Fulfilled *time.Time `json:"fulfilled"`
	Completed *time.Time `json:"completed"`
}

type gameDetails struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Created time.Time    `json:"created"`
	Members []gameMember `json:"members"`
	Rounds  []gameRound  `json:"rounds"`
}

// FindGames returns the details of a single game the caller is a member of,
// selected by the ids[] query parameter.
func FindGames(ctx *httpd.Context, head *httpd.Head) (*httpd.Response, error) {
	authority := ctx.Authority()
	if authority == nil {
		return httpd.NotFound(), nil
	}

	ids := head.Query()["ids[]"]
	if len(ids) != 1 {
		ctx.Logger().Debugf("game listings only support a single id")
		return httpd.NotFound(), nil
	}

	gameID := ids[0]
	membership, err := data.FindGameMembership(ctx.Records(), gameID, authority.UserID)
	if err != nil {
		return nil, err
	}
	if membership == nil {
		return httpd.NotFound(), nil
	}

	game, err := data.FindGameByID(ctx.Records(), gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return httpd.NotFound(), nil
	}

	members, err := gameMembers(ctx, game.ID)
	if err != nil {
		return nil, err
	}

	rounds, err := gameRounds(ctx, game.ID)
	if err != nil {
		return nil, err
	}

	return httpd.JSON(gameDetails{
		ID:      game.ID,
		Name:    game.Name,
		Created: game.CreatedAt,
		Members: members,
		Rounds:  rounds,
	})
}

func gameMembers(ctx *httpd.Context, gameID string) ([]gameMember, error) {
	memberships, err := data.GameMemberships(ctx.Records(), gameID)
	if err != nil {
		return nil, err
	}

	members := make([]gameMember, 0, len(memberships))
	for _, membership := range memberships {
		user, err := data.FindUserByID(ctx.Records(), membership.UserID)
		if err != nil {
			return nil, err
		}
		if user == nil {
			continue
		}
		members = append(members, gameMember{
			MemberID: membership.ID,
			UserID:   user.ID,
			Name:     user.Name,
			Email:    user.Email,
			Joined:   membership.CreatedAt,
		})
	}

	return members, nil
}

func gameRounds(ctx *httpd.Context, gameID string) ([]gameRound, error) {
	rounds, err := data.RoundsForGame(ctx.Records(), gameID)
	if err != nil {
		return nil, err
	}

	out := make([]gameRound, 0, len(rounds))
	for _, round := range rounds {
		out = append(out, gameRound{
			ID:        round.ID,
			Position:  round.Position,
			Prompt:    round.Prompt,
			Created:   round.CreatedAt,
			Started:   round.StartedAt,
			Fulfilled: round.FulfilledAt,
			Completed: round.CompletedAt,
		})
	}

	return out, nil
}
