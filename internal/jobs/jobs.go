// Package jobs implements the deferred job-dispatch subsystem. Request
// handlers enqueue a unit of game-state work and get an identifier back
// immediately; a background consumer claims pending records, performs the
// work, and stamps a terminal result that clients poll for by identifier.
package jobs

import "encoding/json"

// Kinds of deferred work the server knows how to perform.
const (
	KindCreateLobby            = "create_lobby"
	KindCreateGame             = "create_game"
	KindCheckRoundFulfillment  = "check_round_fulfillment"
	KindCheckRoundCompletion   = "check_round_completion"
	KindCleanupLobbyMembership = "cleanup_lobby_membership"
)

// Job is an immutable unit of deferred work. Implementations are plain
// payload structs; outcomes are recorded separately against the identifier
// assigned at enqueue time.
type Job interface {
	Kind() string
}

// CreateLobby provisions a lobby and a membership for its creator.
type CreateLobby struct {
	Creator string `json:"creator"`
	Name    string `json:"name"`
}

func (CreateLobby) Kind() string { return KindCreateLobby }

// CreateLobbyResult is the terminal result of a CreateLobby job.
type CreateLobbyResult struct {
	LobbyID string `json:"lobby_id"`
}

// CreateGame starts a game from a lobby's current membership.
type CreateGame struct {
	Creator string `json:"creator"`
	LobbyID string `json:"lobby_id"`
}

func (CreateGame) Kind() string { return KindCreateGame }

// CreateGameResult is the terminal result of a CreateGame job.
type CreateGameResult struct {
	GameID string `json:"game_id"`
}

// CheckRoundFulfillment decides whether a round now has an entry from every
// member and, if so, closes it to entries and starts the next round.
type CheckRoundFulfillment struct {
	RoundID string `json:"round_id"`
}

func (CheckRoundFulfillment) Kind() string { return KindCheckRoundFulfillment }

// FulfillmentResult is the terminal result of a CheckRoundFulfillment job.
type FulfillmentResult struct {
	RoundID    string `json:"round_id"`
	Fulfilled  bool   `json:"fulfilled"`
	EntryCount int    `json:"entry_count"`
}

// CheckRoundCompletion decides whether a fulfilled round has collected enough
// votes to be marked complete.
type CheckRoundCompletion struct {
	RoundID string `json:"round_id"`
}

func (CheckRoundCompletion) Kind() string { return KindCheckRoundCompletion }

// CompletionResult is the terminal result of a CheckRoundCompletion job.
type CompletionResult struct {
	RoundID   string `json:"round_id"`
	Completed bool   `json:"completed"`
	VoteCount int    `json:"vote_count"`
}

// CleanupLobbyMembership purges game state tied to a departed lobby member.
type CleanupLobbyMembership struct {
	MembershipID string `json:"membership_id"`
	LobbyID      string `json:"lobby_id"`
}

func (CleanupLobbyMembership) Kind() string { return KindCleanupLobbyMembership }

// CleanupResult is the terminal result of a CleanupLobbyMembership job.
type CleanupResult struct {
	MembershipID string `json:"membership_id"`
}

// Handle is the wire-facing projection of a job record: its identifier plus
// the result once the job reaches a terminal state. Result stays null while
// the job is pending and for identifiers the store does not know.
type Handle struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result"`
}
