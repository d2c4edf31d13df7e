package worker

import (
	"fmt"
	"time"

	"github.com/krumpled/krumd/internal/core/data"
	"github.com/krumpled/krumd/internal/jobs"
)

func (s *Server) createLobby(record *jobs.Record) (interface{}, error) {
	var payload jobs.CreateLobby
	if err := jobs.DecodePayload(record, &payload); err != nil {
		return nil, err
	}

	lobby, err := data.CreateLobby(s.Records, payload.Name, payload.Creator)
	if err != nil {
		return nil, fmt.Errorf("creating lobby: %w", err)
	}

	s.Logger.Infof("created lobby '%s' for user '%s'", lobby.ID, payload.Creator)
	return jobs.CreateLobbyResult{LobbyID: lobby.ID}, nil
}

func (s *Server) createGame(record *jobs.Record) (interface{}, error) {
	var payload jobs.CreateGame
	if err := jobs.DecodePayload(record, &payload); err != nil {
		return nil, err
	}

	lobby, err := data.FindLobbyByID(s.Records, payload.LobbyID)
	if err != nil {
		return nil, err
	}
	if lobby == nil {
		return nil, fmt.Errorf("lobby '%s' no longer exists", payload.LobbyID)
	}

	game, err := data.CreateGame(s.Records, lobby, payload.Creator)
	if err != nil {
		return nil, fmt.Errorf("creating game: %w", err)
	}

	s.Logger.Infof("created game '%s' from lobby '%s'", game.ID, lobby.ID)
	return jobs.CreateGameResult{GameID: game.ID}, nil
}

// checkRoundFulfillment closes a round to entries once every current member
// has submitted one, then starts the next round of the game.
func (s *Server) checkRoundFulfillment(record *jobs.Record) (interface{}, error) {
	var payload jobs.CheckRoundFulfillment
	if err := jobs.DecodePayload(record, &payload); err != nil {
		return nil, err
	}

	round, err := data.FindRoundByID(s.Records, payload.RoundID)
	if err != nil {
		return nil, err
	}
	if round == nil {
		return nil, fmt.Errorf("round '%s' no longer exists", payload.RoundID)
	}

	entries, err := data.EntriesForRound(s.Records, round.ID)
	if err != nil {
		return nil, err
	}

	result := jobs.FulfillmentResult{RoundID: round.ID, EntryCount: len(entries)}
	if round.FulfilledAt != nil {
		result.Fulfilled = true
		return result, nil
	}

	members, err := data.GameMemberships(s.Records, round.GameID)
	if err != nil {
		return nil, err
	}
	// Count members that entered, not rows; duplicate submissions from one
	// member must not stand in for the members still missing.
	entered := make(map[string]bool, len(entries))
	for _, entry := range entries {
		entered[entry.GameMembershipID] = true
	}
	if len(entered) < len(members) {
		return result, nil
	}

	now := time.Now()
	round.FulfilledAt = &now
	if err := s.Records.Save(round).Error; err != nil {
		return nil, err
	}
	result.Fulfilled = true
	s.Logger.Infof("round '%s' fulfilled with %d entries", round.ID, len(entries))

	next, err := data.NextUnstartedRound(s.Records, round.GameID)
	if err != nil {
		return nil, err
	}
	if next != nil {
		next.StartedAt = &now
		if err := s.Records.Save(next).Error; err != nil {
			return nil, err
		}
		s.Logger.Debugf("started round '%s' at position %d", next.ID, next.Position)
	}

	return result, nil
}

// checkRoundCompletion marks a fulfilled round completed once votes cover the
// round's entries.
func (s *Server) checkRoundCompletion(record *jobs.Record) (interface{}, error) {
	var payload jobs.CheckRoundCompletion
	if err := jobs.DecodePayload(record, &payload); err != nil {
		return nil, err
	}

	round, err := data.FindRoundByID(s.Records, payload.RoundID)
	if err != nil {
		return nil, err
	}
	if round == nil {
		return nil, fmt.Errorf("round '%s' no longer exists", payload.RoundID)
	}

	votes, err := data.VotesForRound(s.Records, round.ID)
	if err != nil {
		return nil, err
	}

	result := jobs.CompletionResult{RoundID: round.ID, VoteCount: len(votes)}
	if round.CompletedAt != nil {
		result.Completed = true
		return result, nil
	}
	if round.FulfilledAt == nil {
		return result, nil
	}

	entries, err := data.EntriesForRound(s.Records, round.ID)
	if err != nil {
		return nil, err
	}
	// Same counting rule as fulfillment: distinct memberships on both sides,
	// so one member voting repeatedly never covers for the rest.
	voted := make(map[string]bool, len(votes))
	for _, vote := range votes {
		voted[vote.GameMembershipID] = true
	}
	entered := make(map[string]bool, len(entries))
	for _, entry := range entries {
		entered[entry.GameMembershipID] = true
	}
	if len(voted) < len(entered) {
		return result, nil
	}

	now := time.Now()
	round.CompletedAt = &now
	if err := s.Records.Save(round).Error; err != nil {
		return nil, err
	}
	result.Completed = true
	s.Logger.Infof("round '%s' completed with %d votes", round.ID, len(votes))

	return result, nil
}

// cleanupLobbyMembership purges the game-side snapshots of a departed lobby
// member so fulfillment counts stop waiting on them.
func (s *Server) cleanupLobbyMembership(record *jobs.Record) (interface{}, error) {
	var payload jobs.CleanupLobbyMembership
	if err := jobs.DecodePayload(record, &payload); err != nil {
		return nil, err
	}

	if err := data.DeleteGameMembershipsForLobbyMembership(s.Records, payload.MembershipID); err != nil {
		return nil, fmt.Errorf("purging game memberships: %w", err)
	}

	s.Logger.Infof("cleaned up departed membership '%s' in lobby '%s'",
		payload.MembershipID, payload.LobbyID)
	return jobs.CleanupResult{MembershipID: payload.MembershipID}, nil
}
