package routes

import (
	"github.com/krumpled/krumd/internal/core/data"
	"github.com/krumpled/krumd/internal/httpd"
	"github.com/krumpled/krumd/internal/jobs"
)

// FindRounds returns details for each requested round whose game the caller
// belongs to; the ids[] query parameter selects the rounds.
func FindRounds(ctx *httpd.Context, head *httpd.Head) (*httpd.Response, error) {
	authority := ctx.Authority()
	if authority == nil {
		return httpd.NotFound(), nil
	}

	ids := head.Query()["ids[]"]
	if len(ids) == 0 {
		return httpd.NotFound(), nil
	}

	details := make([]gameRound, 0, len(ids))
	for _, id := range ids {
		round, err := data.FindRoundByID(ctx.Records(), id)
		if err != nil {
			return nil, err
		}
		if round == nil {
			continue
		}

		membership, err := data.FindGameMembership(ctx.Records(), round.GameID, authority.UserID)
		if err != nil {
			return nil, err
		}
		if membership == nil {
			continue
		}

		details = append(details, gameRound{
			ID:        round.ID,
			Position:  round.Position,
			Prompt:    round.Prompt,
			Created:   round.CreatedAt,
			Started:   round.StartedAt,
			Fulfilled: round.FulfilledAt,
			Completed: round.CompletedAt,
		})
	}

	if len(details) == 0 {
		return httpd.NotFound(), nil
	}
	return httpd.JSON(details)
}

type createEntryPayload struct {
	RoundID string `json:"round_id" validate:"required"`
	Entry   string `json:"entry" validate:"required,max=500"`
}

// CreateRoundEntry records the caller's submission for a round and defers the
// fulfillment check to the job queue.
func CreateRoundEntry(ctx *httpd.Context, head *httpd.Head) (*httpd.Response, error) {
	authority := ctx.Authority()
	if authority == nil {
		return httpd.NotFound(), nil
	}

	var payload createEntryPayload
	if err := readPayload(ctx, head, &payload); err != nil {
		return nil, err
	}

	round, err := data.FindRoundByID(ctx.Records(), payload.RoundID)
	if err != nil {
		return nil, err
	}
	// Rounds that never started or already closed to entries look missing.
	if round == nil || round.StartedAt == nil || round.FulfilledAt != nil {
		return httpd.NotFound(), nil
	}

	membership, err := data.FindGameMembership(ctx.Records(), round.GameID, authority.UserID)
	if err != nil {
		return nil, err
	}
	if membership == nil {
		ctx.Logger().Warnf("unable to find game for user '%s' by round '%s'", authority.UserID, payload.RoundID)
		return httpd.NotFound(), nil
	}

	if _, err := data.CreateRoundEntry(ctx.Records(), round, membership, payload.Entry); err != nil {
		return nil, err
	}

	handle := enqueue(ctx, jobs.CheckRoundFulfillment{RoundID: round.ID})
	return httpd.JSON(handle)
}

type createVotePayload struct {
	RoundID string `json:"round_id" validate:"required"`
	EntryID string `json:"entry_id" validate:"required"`
}

// CreateRoundEntryVote records the caller's vote for an entry and defers the
// completion check to the job queue.
func CreateRoundEntryVote(ctx *httpd.Context, head *httpd.Head) (*httpd.Response, error) {
	authority := ctx.Authority()
	if authority == nil {
		return httpd.NotFound(), nil
	}

	var payload createVotePayload
	if err := readPayload(ctx, head, &payload); err != nil {
		return nil, err
	}

	round, err := data.FindRoundByID(ctx.Records(), payload.RoundID)
	if err != nil {
		return nil, err
	}
	// Voting opens once a round is fulfilled and closes when it completes.
	if round == nil || round.FulfilledAt == nil || round.CompletedAt != nil {
		return httpd.NotFound(), nil
	}

	membership, err := data.FindGameMembership(ctx.Records(), round.GameID, authority.UserID)
	if err != nil {
		return nil, err
	}
	if membership == nil {
		return httpd.NotFound(), nil
	}

	entry, err := data.FindRoundEntryByID(ctx.Records(), payload.EntryID)
	if err != nil {
		return nil, err
	}
	if entry == nil || entry.RoundID != round.ID {
		return httpd.NotFound(), nil
	}

	if _, err := data.CreateRoundEntryVote(ctx.Records(), entry, membership); err != nil {
		return nil, err
	}

	handle := enqueue(ctx, jobs.CheckRoundCompletion{RoundID: round.ID})
	return httpd.JSON(handle)
}
